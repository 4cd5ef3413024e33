package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/KrPrince19/CareNest/internal/agent"
	"github.com/KrPrince19/CareNest/internal/config"
	"github.com/KrPrince19/CareNest/internal/kv"
	"github.com/KrPrince19/CareNest/internal/logger"
	"github.com/KrPrince19/CareNest/internal/medstore"
	"github.com/KrPrince19/CareNest/internal/model"
	"github.com/KrPrince19/CareNest/internal/push"
	"github.com/KrPrince19/CareNest/internal/rest"
	"github.com/KrPrince19/CareNest/internal/schedule"
	"github.com/KrPrince19/CareNest/internal/sos"
)

var (
	agentEmail    string
	agentPassword string
)

var elderCmd = &cobra.Command{
	Use:   "elder",
	Short: "Run the elder dashboard agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgent(model.RoleElder)
	},
}

var familyCmd = &cobra.Command{
	Use:   "family",
	Short: "Run the family dashboard agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgent(model.RoleFamily)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{elderCmd, familyCmd} {
		cmd.Flags().StringVar(&agentEmail, "email", "", "account email (required)")
		cmd.Flags().StringVar(&agentPassword, "password", os.Getenv("CARENEST_PASSWORD"), "account password (defaults to $CARENEST_PASSWORD)")
		cmd.MarkFlagRequired("email")
	}
}

func runAgent(role model.Role) error {
	cfg := config.NewConfig()
	log := logger.New(cfg)
	clock := schedule.RealClock{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := rest.NewClient(cfg.Client.BackendURL)
	creds, err := client.Login(ctx, agentEmail, agentPassword, role)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	client.SetToken(creds.Token)
	log.Info("logged in", "email", creds.User.Email, "role", creds.User.Role)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	store := medstore.New(client, creds.User.Email, clock, log)
	channel := sos.NewChannel(kv.NewRedis(rdb), clock, log)
	bus := push.NewRedisBus(rdb, cfg.Redis.Channel, log)

	switch role {
	case model.RoleElder:
		flow := sos.NewElderFlow(channel, client, creds.User, clock, log)
		flow.SetPollInterval(cfg.Sync.ElderSOSPoll)
		flow.SetAckGrace(cfg.Sync.AckGrace)

		a := agent.NewElderAgent(store, flow, bus, log)
		a.SetStatusTick(cfg.Sync.ElderStatusTick)

		go logElderStatus(ctx, a, log, cfg.Sync.ElderStatusTick)
		err = a.Run(ctx)
	case model.RoleFamily:
		watch := sos.NewFamilyWatch(channel, creds.User.Email, log)

		a := agent.NewFamilyAgent(store, watch, channel, bus, clock, log)
		a.SetIntervals(cfg.Sync.FamilyStatusTick, cfg.Sync.FamilySOSPoll, cfg.Sync.DateTick)

		go logFamilyStatus(ctx, a, log, cfg.Sync.FamilyStatusTick)
		err = a.Run(ctx)
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func logElderStatus(ctx context.Context, a *agent.ElderAgent, log *slog.Logger, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sum := a.Summary()
			log.Info("dashboard status",
				"taken", sum.Taken,
				"total", sum.Total,
				"adherence", sum.Adherence,
				"lowStock", len(sum.LowStock),
				"sosPhase", a.SOSPhase(),
			)
		}
	}
}

func logFamilyStatus(ctx context.Context, a *agent.FamilyAgent, log *slog.Logger, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sum := a.Summary()
			attrs := []any{
				"date", a.DisplayDate(),
				"taken", sum.Taken,
				"total", sum.Total,
				"adherence", sum.Adherence,
				"sosToday", len(a.History()),
			}
			if alert, ok := a.ActiveAlert(); ok {
				attrs = append(attrs, "emergency", alert.Message)
			}
			log.Info("dashboard status", attrs...)
		}
	}
}
