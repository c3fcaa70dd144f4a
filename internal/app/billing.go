package app

import (
	"context"
	"fmt"

	"github.com/dnsokolov/saas-onboarding/config"
	ctrkafka "github.com/dnsokolov/saas-onboarding/internal/controller/kafka"
	"github.com/dnsokolov/saas-onboarding/internal/controller/restapi"
	"github.com/dnsokolov/saas-onboarding/internal/repo/persistent"
	billinguc "github.com/dnsokolov/saas-onboarding/internal/usecase/billing"
	"github.com/dnsokolov/saas-onboarding/pkg/httpserver"
	"github.com/dnsokolov/saas-onboarding/pkg/logger"
	"github.com/dnsokolov/saas-onboarding/pkg/postgres"
)

// RunBilling starts the billing participant: subscription commands in,
// subscription events out through the outbox.
func RunBilling(cfg *config.Config) {
	l := logger.New(cfg.Log.Level)

	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunBilling - postgres.New: %w", err))
	}
	defer pg.Close()

	subscriptionRepo := persistent.NewSubscriptionRepo(pg)
	outboxRepo := persistent.NewOutboxRepo(pg)

	billingUseCase := billinguc.New(subscriptionRepo, outboxRepo, pg, l)

	startCtx := context.Background()

	relay, sender, err := newRelay(startCtx, cfg, outboxRepo, l)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunBilling: %w", err))
	}

	relay.Start()

	worker, eventConsumer, err := newWorker(startCtx, cfg, ctrkafka.NewBillingHandler(billingUseCase), l)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunBilling: %w", err))
	}

	worker.Start()

	server := httpserver.New(l, httpserver.Port(cfg.HTTP.Port), httpserver.Prefork(cfg.HTTP.UsePreforkMode))
	restapi.NewBillingRouter(server.App, billingUseCase, l, cfg.Swagger.Enabled)
	server.Start()

	l.Info("app - RunBilling - %s v%s is running", cfg.App.Name, cfg.App.Version)

	waitForSignal(l, "RunBilling", server)
	shutdown(cfg, l, "RunBilling", worker, eventConsumer, relay, sender, server)
}
