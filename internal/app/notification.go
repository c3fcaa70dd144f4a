package app

import (
	"context"
	"fmt"

	"github.com/dnsokolov/saas-onboarding/config"
	ctrkafka "github.com/dnsokolov/saas-onboarding/internal/controller/kafka"
	"github.com/dnsokolov/saas-onboarding/internal/controller/restapi"
	"github.com/dnsokolov/saas-onboarding/internal/infrastructure/mail"
	"github.com/dnsokolov/saas-onboarding/internal/repo/persistent"
	notificationuc "github.com/dnsokolov/saas-onboarding/internal/usecase/notification"
	"github.com/dnsokolov/saas-onboarding/pkg/httpserver"
	"github.com/dnsokolov/saas-onboarding/pkg/logger"
	"github.com/dnsokolov/saas-onboarding/pkg/postgres"
)

// RunNotification starts the notification participant: email commands in,
// email events out through the outbox, plus the invoice endpoint.
func RunNotification(cfg *config.Config) {
	l := logger.New(cfg.Log.Level)

	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunNotification - postgres.New: %w", err))
	}
	defer pg.Close()

	emailRepo := persistent.NewEmailLogRepo(pg)
	outboxRepo := persistent.NewOutboxRepo(pg)

	mailer := mail.NewSender(cfg.Mail.Latency, l)

	notificationUseCase := notificationuc.New(emailRepo, outboxRepo, pg, mailer, l)

	startCtx := context.Background()

	relay, sender, err := newRelay(startCtx, cfg, outboxRepo, l)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunNotification: %w", err))
	}

	relay.Start()

	worker, eventConsumer, err := newWorker(startCtx, cfg, ctrkafka.NewNotificationHandler(notificationUseCase), l)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunNotification: %w", err))
	}

	worker.Start()

	server := httpserver.New(l, httpserver.Port(cfg.HTTP.Port), httpserver.Prefork(cfg.HTTP.UsePreforkMode))
	restapi.NewNotificationRouter(server.App, notificationUseCase, l, cfg.Swagger.Enabled)
	server.Start()

	l.Info("app - RunNotification - %s v%s is running", cfg.App.Name, cfg.App.Version)

	waitForSignal(l, "RunNotification", server)
	shutdown(cfg, l, "RunNotification", worker, eventConsumer, relay, sender, server)
}
