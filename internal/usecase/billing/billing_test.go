package billing_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/dnsokolov/saas-onboarding/internal/event"
	"github.com/dnsokolov/saas-onboarding/internal/usecase/billing"
	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(message interface{}, args ...interface{}) {}
func (nopLogger) Info(message string, args ...interface{})       {}
func (nopLogger) Warn(message string, args ...interface{})       {}
func (nopLogger) Error(message interface{}, args ...interface{}) {}
func (nopLogger) Fatal(message interface{}, args ...interface{}) {}

type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	return f(ctx)
}

type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[uuid.UUID]entity.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: make(map[uuid.UUID]entity.Subscription)}
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, sub *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subs[sub.ID] = *sub

	return nil
}

func (r *fakeSubscriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[id]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}

	out := sub

	return &out, nil
}

func (r *fakeSubscriptionRepo) GetBySagaID(_ context.Context, sagaID uuid.UUID) (*entity.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.subs {
		if sub.SagaID == sagaID {
			out := sub
			return &out, nil
		}
	}

	return nil, errs.ErrRecordNotFound
}

func (r *fakeSubscriptionRepo) Update(_ context.Context, sub *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[sub.ID]; !ok {
		return errs.ErrRecordNotFound
	}

	r.subs[sub.ID] = *sub

	return nil
}

type fakeOutboxRepo struct {
	mu   sync.Mutex
	msgs []entity.OutboxMessage
}

func (r *fakeOutboxRepo) Create(_ context.Context, msg *entity.OutboxMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.msgs = append(r.msgs, *msg)

	return nil
}

func (r *fakeOutboxRepo) GetUnproduced(_ context.Context, _ int) ([]*entity.OutboxMessage, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) MarkProducedBatch(_ context.Context, _ uuid.UUIDs) error {
	return nil
}

func TestHandleCreateSubscription(t *testing.T) {
	subRepo := newFakeSubscriptionRepo()
	outboxRepo := &fakeOutboxRepo{}
	uc := billing.New(subRepo, outboxRepo, fakeTransactor{}, nopLogger{})
	ctx := context.Background()

	cmd := event.CreateSubscription{
		SagaID:     uuid.New(),
		CustomerID: uuid.New(),
		PlanID:     "pro-monthly",
	}

	require.NoError(t, uc.HandleCreateSubscription(ctx, cmd))

	sub, err := subRepo.GetBySagaID(ctx, cmd.SagaID)
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionActive, sub.Status)
	assert.Equal(t, cmd.CustomerID, sub.CustomerID)

	require.Len(t, outboxRepo.msgs, 1)
	assert.Equal(t, event.TopicSubscriptionCreated, outboxRepo.msgs[0].EventType)
	assert.Equal(t, cmd.SagaID, outboxRepo.msgs[0].AggregateID)

	e, err := event.Decode[event.SubscriptionCreated](outboxRepo.msgs[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, e.SubscriptionID)
	assert.Equal(t, cmd.SagaID, e.SagaID)
}

func TestHandleCreateSubscriptionDuplicate(t *testing.T) {
	subRepo := newFakeSubscriptionRepo()
	outboxRepo := &fakeOutboxRepo{}
	uc := billing.New(subRepo, outboxRepo, fakeTransactor{}, nopLogger{})
	ctx := context.Background()

	cmd := event.CreateSubscription{SagaID: uuid.New(), CustomerID: uuid.New(), PlanID: "pro"}

	require.NoError(t, uc.HandleCreateSubscription(ctx, cmd))
	require.NoError(t, uc.HandleCreateSubscription(ctx, cmd))

	assert.Len(t, subRepo.subs, 1)
	assert.Len(t, outboxRepo.msgs, 1)
}

func TestHandleCancelSubscription(t *testing.T) {
	subRepo := newFakeSubscriptionRepo()
	outboxRepo := &fakeOutboxRepo{}
	uc := billing.New(subRepo, outboxRepo, fakeTransactor{}, nopLogger{})
	ctx := context.Background()

	create := event.CreateSubscription{SagaID: uuid.New(), CustomerID: uuid.New(), PlanID: "pro"}
	require.NoError(t, uc.HandleCreateSubscription(ctx, create))

	sub, err := subRepo.GetBySagaID(ctx, create.SagaID)
	require.NoError(t, err)

	cancel := event.CancelSubscription{SagaID: create.SagaID, SubscriptionID: sub.ID}
	require.NoError(t, uc.HandleCancelSubscription(ctx, cancel))

	sub, err = uc.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionCancelled, sub.Status)
	assert.NotNil(t, sub.CancelledAt)

	require.Len(t, outboxRepo.msgs, 2)
	assert.Equal(t, event.TopicSubscriptionCancelled, outboxRepo.msgs[1].EventType)

	// Cancelling again is reported as a duplicate, not repeated.
	err = uc.HandleCancelSubscription(ctx, cancel)
	require.ErrorIs(t, err, errs.ErrAlreadyCancelled)
	assert.Len(t, outboxRepo.msgs, 2)
}

func TestHandleCancelSubscriptionUnknown(t *testing.T) {
	uc := billing.New(newFakeSubscriptionRepo(), &fakeOutboxRepo{}, fakeTransactor{}, nopLogger{})

	err := uc.HandleCancelSubscription(context.Background(), event.CancelSubscription{
		SagaID:         uuid.New(),
		SubscriptionID: uuid.New(),
	})
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}
