package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "carenest",
	Short: "Family medication dashboard: backend server and dashboard agents",
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(elderCmd)
	rootCmd.AddCommand(familyCmd)
	rootCmd.AddCommand(migrateCmd)
}
