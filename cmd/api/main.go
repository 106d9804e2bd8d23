package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/hamed0406/ldapdiag/internal/config"
	"github.com/hamed0406/ldapdiag/internal/httpapi"
	"github.com/hamed0406/ldapdiag/internal/logging"
	"github.com/hamed0406/ldapdiag/internal/notify"
	"github.com/hamed0406/ldapdiag/internal/probe"
	"github.com/hamed0406/ldapdiag/internal/repo/memory"
	"github.com/hamed0406/ldapdiag/internal/scheduler"
	"github.com/hamed0406/ldapdiag/internal/trust"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	policy, err := trust.Parse(cfg.TrustPolicy)
	if err != nil {
		log.Fatal(err)
	}

	store := memory.New()
	pipeline := probe.NewPipeline(logger, policy, cfg.ProbeTimeout)

	api := httpapi.NewServer(logger, store, store, pipeline)
	api.ProbeRPM = cfg.ProbeRPM
	api.ProbeBurst = cfg.ProbeBurst

	ctx := context.Background()

	rechecker := scheduler.NewRechecker(logger, store, store, pipeline,
		cfg.RecheckInterval, cfg.Concurrency)
	go rechecker.Run(ctx)

	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil && cfg.RecheckInterval > 0 {
		alerter := scheduler.NewAlerter(store, store, store, slack, scheduler.AlerterConfig{
			AlertOnRecovery: cfg.AlertOnRecovery,
			Cooldown:        cfg.AlertCooldown,
			PollInterval:    cfg.RecheckInterval,
		})
		go func() { _ = alerter.Run(ctx) }()
	} else {
		logger.Info("alerter_disabled")
	}

	logger.Info("api_listen",
		zap.String("addr", cfg.Addr),
		zap.String("trust_policy", policy.String()),
	)
	if err := http.ListenAndServe(cfg.Addr, api.Router()); err != nil {
		log.Fatal(err)
	}
}
