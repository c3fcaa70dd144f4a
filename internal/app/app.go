// Package app assembles each service and owns its lifecycle: connect,
// start workers, serve, and tear everything down in reverse on a signal.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dnsokolov/saas-onboarding/config"
	ctrkafka "github.com/dnsokolov/saas-onboarding/internal/controller/kafka"
	outboxrelay "github.com/dnsokolov/saas-onboarding/internal/controller/worker/outbox"
	infrakafka "github.com/dnsokolov/saas-onboarding/internal/infrastructure/kafka"
	"github.com/dnsokolov/saas-onboarding/internal/repo"
	outboxuc "github.com/dnsokolov/saas-onboarding/internal/usecase/outbox"
	"github.com/dnsokolov/saas-onboarding/pkg/httpserver"
	kafkaconsumer "github.com/dnsokolov/saas-onboarding/pkg/kafka/consumer"
	kafkaproducer "github.com/dnsokolov/saas-onboarding/pkg/kafka/producer"
	"github.com/dnsokolov/saas-onboarding/pkg/logger"
)

func newRelay(ctx context.Context, cfg *config.Config, outboxRepo repo.OutboxRepo, l logger.Interface) (*outboxrelay.Relay, *infrakafka.EventProducer, error) {
	p, err := kafkaproducer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		return nil, nil, fmt.Errorf("app - newRelay - kafkaproducer.New: %w", err)
	}

	sender := infrakafka.NewEventProducer(p)

	relay := outboxrelay.New(
		outboxuc.New(outboxRepo),
		sender,
		l,
		outboxrelay.PollInterval(cfg.Outbox.PollInterval),
		outboxrelay.BatchSize(cfg.Outbox.BatchSize),
		outboxrelay.BatchTimeout(cfg.Outbox.BatchTimeout),
	)

	return relay, sender, nil
}

func newWorker(ctx context.Context, cfg *config.Config, handler ctrkafka.Handler, l logger.Interface) (*ctrkafka.Worker, *infrakafka.EventConsumer, error) {
	c, err := kafkaconsumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, handler.Topics())
	if err != nil {
		return nil, nil, fmt.Errorf("app - newWorker - kafkaconsumer.New: %w", err)
	}

	eventConsumer := infrakafka.NewEventConsumer(c)

	worker := ctrkafka.NewWorker(
		eventConsumer,
		handler,
		l,
		ctrkafka.TransientDelay(cfg.Consumer.TransientDelay),
		ctrkafka.ProcessTimeout(cfg.Consumer.ProcessTimeout),
		ctrkafka.CommitTimeout(cfg.Consumer.CommitTimeout),
	)

	return worker, eventConsumer, nil
}

func waitForSignal(l logger.Interface, name string, server *httpserver.Server) {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - %s - signal: %s", name, s.String())
	case err := <-server.Notify():
		l.Error(fmt.Errorf("app - %s - httpServer.Notify: %w", name, err))
	}
}

// shutdown drains in dependency order: stop consuming first so no new work
// starts, then flush the relay, then close broker connections and the
// HTTP server.
func shutdown(
	cfg *config.Config,
	l logger.Interface,
	name string,
	worker *ctrkafka.Worker,
	eventConsumer *infrakafka.EventConsumer,
	relay *outboxrelay.Relay,
	sender *infrakafka.EventProducer,
	server *httpserver.Server,
) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
	defer cancel()

	if worker != nil {
		if err := worker.Shutdown(ctx); err != nil {
			l.Error(fmt.Errorf("app - %s - worker.Shutdown: %w", name, err))
		}
	}

	if eventConsumer != nil {
		if err := eventConsumer.Close(); err != nil {
			l.Error(fmt.Errorf("app - %s - eventConsumer.Close: %w", name, err))
		}
	}

	if relay != nil {
		if err := relay.Shutdown(ctx); err != nil {
			l.Error(fmt.Errorf("app - %s - relay.Shutdown: %w", name, err))
		}
	}

	if sender != nil {
		if err := sender.Close(); err != nil {
			l.Error(fmt.Errorf("app - %s - sender.Close: %w", name, err))
		}
	}

	if err := server.Shutdown(); err != nil {
		l.Error(fmt.Errorf("app - %s - server.Shutdown: %w", name, err))
	}
}
