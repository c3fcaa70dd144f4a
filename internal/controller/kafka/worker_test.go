package kafka_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	ctrkafka "github.com/dnsokolov/saas-onboarding/internal/controller/kafka"
	"github.com/dnsokolov/saas-onboarding/internal/event"
	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(message interface{}, args ...interface{}) {}
func (nopLogger) Info(message string, args ...interface{})       {}
func (nopLogger) Warn(message string, args ...interface{})       {}
func (nopLogger) Error(message interface{}, args ...interface{}) {}
func (nopLogger) Fatal(message interface{}, args ...interface{}) {}

type fakeConsumer struct {
	mu        sync.Mutex
	queue     []kafka.Message
	readErrs  int
	reads     int
	committed []string
}

// ReadEvent hands out queued messages, then blocks like a real fetch
// against an idle broker until the context is cancelled.
func (f *fakeConsumer) ReadEvent(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	f.reads++

	if f.readErrs > 0 {
		f.readErrs--
		f.mu.Unlock()

		return kafka.Message{}, errors.New("fetch: broker unavailable")
	}

	if len(f.queue) > 0 {
		msg := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()

		return msg, nil
	}
	f.mu.Unlock()

	<-ctx.Done()

	return kafka.Message{}, ctx.Err()
}

func (f *fakeConsumer) CommitEvent(_ context.Context, msg kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.committed = append(f.committed, msg.Topic)

	return nil
}

func (f *fakeConsumer) committedTopics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.committed...)
}

func (f *fakeConsumer) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.reads
}

type funcHandler struct {
	fn func(ctx context.Context, topic string, payload []byte) error
}

func (h *funcHandler) Topics() []string { return nil }

func (h *funcHandler) Handle(ctx context.Context, topic string, payload []byte) error {
	return h.fn(ctx, topic, payload)
}

func startWorker(t *testing.T, fc *fakeConsumer, h ctrkafka.Handler) {
	t.Helper()

	w := ctrkafka.NewWorker(fc, h, nopLogger{}, ctrkafka.TransientDelay(time.Millisecond))
	w.Start()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		require.NoError(t, w.Shutdown(ctx))
	})
}

func TestWorkerCommitsAfterSuccess(t *testing.T) {
	fc := &fakeConsumer{queue: []kafka.Message{
		{Topic: event.TopicSubscriptionCreated, Value: []byte(`{}`)},
	}}

	startWorker(t, fc, &funcHandler{fn: func(context.Context, string, []byte) error {
		return nil
	}})

	require.Eventually(t, func() bool {
		return len(fc.committedTopics()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{event.TopicSubscriptionCreated}, fc.committedTopics())
}

func TestWorkerCommitsRejectedMessages(t *testing.T) {
	// Poison and business rejections are verdicts: redelivery would only
	// repeat them, so the offset moves on.
	fc := &fakeConsumer{queue: []kafka.Message{
		{Topic: event.TopicSubscriptionCreated, Value: []byte(`{broken`)},
		{Topic: event.TopicCancelSubscription, Value: []byte(`{}`)},
	}}

	startWorker(t, fc, &funcHandler{fn: func(_ context.Context, topic string, _ []byte) error {
		if topic == event.TopicCancelSubscription {
			return fmt.Errorf("handle: %w", errs.ErrAlreadyCancelled)
		}

		return fmt.Errorf("handle: %w", errs.ErrMalformedPayload)
	}})

	require.Eventually(t, func() bool {
		return len(fc.committedTopics()) == 2
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{
		event.TopicSubscriptionCreated,
		event.TopicCancelSubscription,
	}, fc.committedTopics())
}

func TestWorkerLeavesOffsetWhenHandlingAborted(t *testing.T) {
	fc := &fakeConsumer{queue: []kafka.Message{
		{Topic: event.TopicProvisionTenant, Value: []byte(`{}`)},
	}}

	entered := make(chan struct{})

	w := ctrkafka.NewWorker(fc, &funcHandler{fn: func(ctx context.Context, _ string, _ []byte) error {
		close(entered)
		<-ctx.Done()

		return fmt.Errorf("handle: %w", ctx.Err())
	}}, nopLogger{})
	w.Start()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("handler was never invoked")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, w.Shutdown(ctx))

	// The work reached no verdict, so the broker must redeliver it.
	assert.Empty(t, fc.committedTopics())
}

func TestWorkerRetriesTransientReadErrors(t *testing.T) {
	fc := &fakeConsumer{
		readErrs: 2,
		queue: []kafka.Message{
			{Topic: event.TopicSubscriptionCreated, Value: []byte(`{}`)},
		},
	}

	startWorker(t, fc, &funcHandler{fn: func(context.Context, string, []byte) error {
		return nil
	}})

	require.Eventually(t, func() bool {
		return len(fc.committedTopics()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.GreaterOrEqual(t, fc.readCount(), 3)
}
