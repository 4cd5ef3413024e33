package logger

import (
	"log/slog"
	"os"

	"github.com/KrPrince19/CareNest/internal/config"
)

// New creates the shared slog logger. Production gets JSON for ingestion;
// development gets text for readability.
func New(cfg *config.Config) *slog.Logger {
	var handler slog.Handler
	if cfg.Server.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	logger := slog.New(handler).With(
		"service", "carenest",
		"environment", cfg.Server.Environment,
	)
	slog.SetDefault(logger)
	return logger
}
