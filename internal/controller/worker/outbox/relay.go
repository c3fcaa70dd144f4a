// Package outbox runs the relay that moves committed outbox rows to the
// broker. Rows are published strictly oldest first and only marked produced
// after the broker acknowledged the batch, so a crash at any point repeats
// a publish instead of losing one.
package outbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dnsokolov/saas-onboarding/internal/infrastructure"
	"github.com/dnsokolov/saas-onboarding/internal/usecase"
	"github.com/dnsokolov/saas-onboarding/pkg/logger"
)

const (
	_defaultPollInterval = 5 * time.Second
	_defaultBatchSize    = 100
	_defaultBatchTimeout = 30 * time.Second
)

type Relay struct {
	outbox usecase.OutboxUseCase
	sender infrastructure.EventsSender
	logger logger.Interface

	pollInterval time.Duration
	batchSize    int
	batchTimeout time.Duration

	started atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(outbox usecase.OutboxUseCase, sender infrastructure.EventsSender, l logger.Interface, opts ...Option) *Relay {
	r := &Relay{
		outbox:       outbox,
		sender:       sender,
		logger:       l,
		pollInterval: _defaultPollInterval,
		batchSize:    _defaultBatchSize,
		batchTimeout: _defaultBatchTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Relay) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.wg.Add(1)

	go r.run(ctx)
}

func (r *Relay) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.processBatch(ctx)
		}
	}
}

// processBatch publishes one batch. Any error leaves the rows unproduced;
// the next tick picks them up again and downstream idempotency absorbs the
// resulting duplicates.
func (r *Relay) processBatch(ctx context.Context) {
	batchCtx, cancel := context.WithTimeout(ctx, r.batchTimeout)
	defer cancel()

	msgs, err := r.outbox.GetUnproduced(batchCtx, r.batchSize)
	if err != nil {
		r.logger.Error(fmt.Errorf("OutboxRelay - processBatch: %w", err))
		return
	}

	if len(msgs) == 0 {
		return
	}

	if err := r.sender.SendMessages(batchCtx, msgs); err != nil {
		r.logger.Error(fmt.Errorf("OutboxRelay - processBatch: %w", err))
		return
	}

	if err := r.outbox.MarkProducedBatch(batchCtx, msgs); err != nil {
		r.logger.Error(fmt.Errorf("OutboxRelay - processBatch: %w", err))
		return
	}

	r.logger.Debug("outbox relay produced %d message(s)", len(msgs))
}

func (r *Relay) Shutdown(ctx context.Context) error {
	if !r.started.CompareAndSwap(true, false) {
		return nil
	}

	r.cancel()

	done := make(chan struct{})

	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
