package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/dnsokolov/saas-onboarding/config"
	ctrkafka "github.com/dnsokolov/saas-onboarding/internal/controller/kafka"
	"github.com/dnsokolov/saas-onboarding/internal/controller/restapi"
	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/dnsokolov/saas-onboarding/internal/infrastructure/provision"
	"github.com/dnsokolov/saas-onboarding/internal/repo/persistent"
	provisioninguc "github.com/dnsokolov/saas-onboarding/internal/usecase/provisioning"
	"github.com/dnsokolov/saas-onboarding/pkg/httpserver"
	"github.com/dnsokolov/saas-onboarding/pkg/logger"
	"github.com/dnsokolov/saas-onboarding/pkg/postgres"
)

// RunProvisioning starts the provisioning participant: tenant commands in,
// tenant events out through the outbox.
func RunProvisioning(cfg *config.Config) {
	l := logger.New(cfg.Log.Level)

	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunProvisioning - postgres.New: %w", err))
	}
	defer pg.Close()

	tenantRepo := persistent.NewTenantRepo(pg)
	outboxRepo := persistent.NewOutboxRepo(pg)

	var failFunc func(tenant *entity.Tenant) bool
	if cfg.Provisioning.FailSubstring != "" {
		failSubstring := cfg.Provisioning.FailSubstring
		failFunc = func(tenant *entity.Tenant) bool {
			return strings.Contains(tenant.TenantName, failSubstring)
		}
	}

	provisioner := provision.NewSimulator(cfg.Provisioning.Latency, failFunc)

	provisioningUseCase := provisioninguc.New(
		tenantRepo,
		outboxRepo,
		pg,
		provisioner,
		l,
		provisioninguc.MaxAttempts(cfg.Provisioning.MaxAttempts),
		provisioninguc.BaseDelay(cfg.Provisioning.BaseDelay),
	)

	startCtx := context.Background()

	relay, sender, err := newRelay(startCtx, cfg, outboxRepo, l)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunProvisioning: %w", err))
	}

	relay.Start()

	worker, eventConsumer, err := newWorker(startCtx, cfg, ctrkafka.NewProvisioningHandler(provisioningUseCase), l)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunProvisioning: %w", err))
	}

	worker.Start()

	server := httpserver.New(l, httpserver.Port(cfg.HTTP.Port), httpserver.Prefork(cfg.HTTP.UsePreforkMode))
	restapi.NewProvisioningRouter(server.App, provisioningUseCase, l, cfg.Swagger.Enabled)
	server.Start()

	l.Info("app - RunProvisioning - %s v%s is running", cfg.App.Name, cfg.App.Version)

	waitForSignal(l, "RunProvisioning", server)
	shutdown(cfg, l, "RunProvisioning", worker, eventConsumer, relay, sender, server)
}
