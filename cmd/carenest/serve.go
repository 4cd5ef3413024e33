package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/KrPrince19/CareNest/internal/config"
	"github.com/KrPrince19/CareNest/internal/database"
	"github.com/KrPrince19/CareNest/internal/logger"
	"github.com/KrPrince19/CareNest/internal/monitoring"
	"github.com/KrPrince19/CareNest/internal/push"
	"github.com/KrPrince19/CareNest/internal/repository"
	"github.com/KrPrince19/CareNest/internal/schedule"
	"github.com/KrPrince19/CareNest/internal/server"
)

var serveInMemory bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the backend API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.NewConfig()
		log := logger.New(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var repo repository.Repository
		if serveInMemory {
			log.Warn("using in-memory repository, data is lost on exit")
			repo = repository.NewMemoryRepository()
		} else {
			pool, err := database.Connect(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer pool.Close()
			repo = repository.NewPostgresRepository(pool)
		}

		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		var bus push.Publisher = push.NewRedisBus(rdb, cfg.Redis.Channel, log)
		if serveInMemory {
			bus = push.NewHub()
		}

		monitoring.Init()
		srv := server.New(cfg, repo, bus, schedule.RealClock{}, log)

		errs := make(chan error, 1)
		go func() { errs <- srv.Listen() }()

		select {
		case err := <-errs:
			return err
		case <-ctx.Done():
			log.Info("shutting down")
			return srv.Shutdown()
		}
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveInMemory, "in-memory", false, "keep users and medications in memory instead of Postgres")
}
