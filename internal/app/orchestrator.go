package app

import (
	"context"
	"fmt"

	"github.com/dnsokolov/saas-onboarding/config"
	ctrkafka "github.com/dnsokolov/saas-onboarding/internal/controller/kafka"
	"github.com/dnsokolov/saas-onboarding/internal/controller/restapi"
	"github.com/dnsokolov/saas-onboarding/internal/infrastructure"
	"github.com/dnsokolov/saas-onboarding/internal/infrastructure/httpclient"
	"github.com/dnsokolov/saas-onboarding/internal/repo/persistent"
	sagauc "github.com/dnsokolov/saas-onboarding/internal/usecase/saga"
	"github.com/dnsokolov/saas-onboarding/pkg/httpserver"
	"github.com/dnsokolov/saas-onboarding/pkg/logger"
	"github.com/dnsokolov/saas-onboarding/pkg/postgres"
)

// RunOrchestrator starts the saga orchestrator: the saga REST API, the
// consumer for participant events and the outbox relay for outgoing
// commands.
func RunOrchestrator(cfg *config.Config) {
	l := logger.New(cfg.Log.Level)

	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunOrchestrator - postgres.New: %w", err))
	}
	defer pg.Close()

	sagaRepo := persistent.NewSagaRepo(pg)
	outboxRepo := persistent.NewOutboxRepo(pg)

	var billingVerifier infrastructure.BillingVerifier
	if cfg.Verification.BillingURL != "" {
		billingVerifier = httpclient.NewBillingClient(cfg.Verification.BillingURL, cfg.Verification.Timeout)
	}

	var provisioningVerifier infrastructure.ProvisioningVerifier
	if cfg.Verification.ProvisioningURL != "" {
		provisioningVerifier = httpclient.NewProvisioningClient(cfg.Verification.ProvisioningURL, cfg.Verification.Timeout)
	}

	sagaUseCase := sagauc.New(sagaRepo, outboxRepo, pg, billingVerifier, provisioningVerifier, l)

	startCtx := context.Background()

	relay, sender, err := newRelay(startCtx, cfg, outboxRepo, l)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunOrchestrator: %w", err))
	}

	relay.Start()

	worker, eventConsumer, err := newWorker(startCtx, cfg, ctrkafka.NewOrchestratorHandler(sagaUseCase), l)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunOrchestrator: %w", err))
	}

	worker.Start()

	server := httpserver.New(l, httpserver.Port(cfg.HTTP.Port), httpserver.Prefork(cfg.HTTP.UsePreforkMode))
	restapi.NewOrchestratorRouter(server.App, sagaUseCase, l, cfg.Swagger.Enabled)
	server.Start()

	l.Info("app - RunOrchestrator - %s v%s is running", cfg.App.Name, cfg.App.Version)

	waitForSignal(l, "RunOrchestrator", server)
	shutdown(cfg, l, "RunOrchestrator", worker, eventConsumer, relay, sender, server)
}
