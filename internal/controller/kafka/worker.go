// Package kafka hosts the consumer side of every service: a single
// sequential worker per service fetches events, dispatches them to the
// service's handler and commits the offset afterwards. Processing before
// committing gives at-least-once delivery; handlers are idempotent to make
// the inevitable duplicates harmless.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dnsokolov/saas-onboarding/pkg/logger"
	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
	"github.com/segmentio/kafka-go"
)

const (
	_defaultTransientDelay = 5 * time.Second
	_defaultProcessTimeout = 30 * time.Second
	_defaultCommitTimeout  = 10 * time.Second
)

// Handler dispatches one consumed event by topic.
type Handler interface {
	Topics() []string
	Handle(ctx context.Context, topic string, payload []byte) error
}

// eventConsumer is the slice of infrakafka.EventConsumer the worker drives.
type eventConsumer interface {
	ReadEvent(ctx context.Context) (kafka.Message, error)
	CommitEvent(ctx context.Context, msg kafka.Message) error
}

type Worker struct {
	consumer eventConsumer
	handler  Handler
	logger   logger.Interface

	transientDelay time.Duration
	processTimeout time.Duration
	commitTimeout  time.Duration

	started atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewWorker(consumer eventConsumer, handler Handler, l logger.Interface, opts ...Option) *Worker {
	w := &Worker{
		consumer:       consumer,
		handler:        handler,
		logger:         l,
		transientDelay: _defaultTransientDelay,
		processTimeout: _defaultProcessTimeout,
		commitTimeout:  _defaultCommitTimeout,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

func (w *Worker) Start() {
	if !w.started.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)

	go w.run(ctx)
}

// run processes events one at a time. Ordering within a partition only
// holds if the next fetch waits for the previous handler, so there is
// deliberately no worker pool here.
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		msg, err := w.consumer.ReadEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			w.logger.Error(fmt.Errorf("kafka - Worker - run: %w", err))

			select {
			case <-time.After(w.transientDelay):
			case <-ctx.Done():
				return
			}

			continue
		}

		w.processEvent(ctx, msg)

		if ctx.Err() != nil {
			return
		}
	}
}

// processEvent commits the offset once handling ran to a verdict. Poison
// payloads and business rejections are logged and dropped; redelivering
// them would only repeat the same outcome. Work aborted by cancellation or
// the processing deadline reached no verdict at all, so the offset stays
// put and the broker redelivers.
func (w *Worker) processEvent(ctx context.Context, msg kafka.Message) {
	handleCtx, cancel := context.WithTimeout(ctx, w.processTimeout)
	err := w.handler.Handle(handleCtx, msg.Topic, msg.Value)
	cancel()

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		w.logger.Warn("handling on topic %s aborted, leaving offset for redelivery: %s", msg.Topic, err)
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, errs.ErrMalformedPayload), errors.Is(err, errs.ErrUnknownTopic):
			w.logger.Warn("poison message on topic %s dropped: %s", msg.Topic, err)
		case errors.Is(err, errs.ErrRecordNotFound):
			w.logger.Warn("message on topic %s references unknown record, dropped: %s", msg.Topic, err)
		case errors.Is(err, errs.ErrAlreadyCancelled), errors.Is(err, errs.ErrAlreadyDeprovisioned), errors.Is(err, errs.ErrAlreadyCompensated):
			w.logger.Debug("duplicate message on topic %s ignored: %s", msg.Topic, err)
		default:
			w.logger.Error(fmt.Errorf("kafka - Worker - processEvent - topic %s: %w", msg.Topic, err))
		}
	}

	commitCtx, cancel := context.WithTimeout(context.Background(), w.commitTimeout)
	defer cancel()

	if err := w.consumer.CommitEvent(commitCtx, msg); err != nil {
		w.logger.Error(fmt.Errorf("kafka - Worker - processEvent: %w", err))
	}
}

func (w *Worker) Shutdown(ctx context.Context) error {
	if !w.started.CompareAndSwap(true, false) {
		return nil
	}

	w.cancel()

	done := make(chan struct{})

	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
