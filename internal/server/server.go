// Package server is the CareNest backend: the shared persistence and push
// collaborator both dashboards sync against.
package server

import (
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/KrPrince19/CareNest/internal/config"
	"github.com/KrPrince19/CareNest/internal/middleware"
	"github.com/KrPrince19/CareNest/internal/monitoring"
	"github.com/KrPrince19/CareNest/internal/push"
	"github.com/KrPrince19/CareNest/internal/repository"
	"github.com/KrPrince19/CareNest/internal/schedule"
)

type Server struct {
	app    *fiber.App
	cfg    config.ServerConfig
	logger *slog.Logger
}

func New(cfg *config.Config, repo repository.Repository, bus push.Publisher, clock schedule.Clock, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "carenest",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(middleware.Logger(logger))
	app.Use(monitoring.Instrument())

	h := NewHandler(repo, bus, clock, cfg.Auth, logger)

	app.Post("/signup", h.Signup)
	app.Post("/login", h.Login)
	app.Post("/reset-password-direct", h.ResetPassword)

	app.Get("/medicines", h.ListMedicines)

	requireAuth := middleware.RequireAuth(cfg.Auth.JWTSecret, clock)
	app.Post("/medicines", requireAuth, h.CreateMedicine)
	app.Patch("/medicines/:id", requireAuth, h.TakeMedicine)
	app.Post("/send-sos", requireAuth, h.SendSOS)

	app.Get("/healthz", h.Health)
	app.Get("/metrics", monitoring.Handler())

	return &Server{app: app, cfg: cfg.Server, logger: logger}
}

// App exposes the fiber application for in-process testing.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	s.logger.Info("server listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
