package saga_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/dnsokolov/saas-onboarding/internal/event"
	"github.com/dnsokolov/saas-onboarding/internal/usecase/saga"
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

type fakeSagaRepo struct {
	mu        sync.Mutex
	sagas     map[uuid.UUID]entity.SagaInstance
	conflicts int
	updates   int
}

func newFakeSagaRepo() *fakeSagaRepo {
	return &fakeSagaRepo{sagas: make(map[uuid.UUID]entity.SagaInstance)}
}

func (r *fakeSagaRepo) Create(_ context.Context, saga *entity.SagaInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sagas[saga.ID] = *saga

	return nil
}

func (r *fakeSagaRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.SagaInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	saga, ok := r.sagas[id]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}

	out := saga

	return &out, nil
}

func (r *fakeSagaRepo) Update(_ context.Context, saga *entity.SagaInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.updates++

	if r.conflicts > 0 {
		r.conflicts--
		return errs.ErrConflict
	}

	stored, ok := r.sagas[saga.ID]
	if !ok {
		return errs.ErrRecordNotFound
	}

	if stored.Version != saga.Version {
		return errs.ErrConflict
	}

	saga.Version++
	r.sagas[saga.ID] = *saga

	return nil
}

func (r *fakeSagaRepo) List(_ context.Context, status *entity.SagaStatus, limit, _ int) ([]*entity.SagaInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.SagaInstance

	for _, saga := range r.sagas {
		if status != nil && saga.Status != *status {
			continue
		}

		s := saga
		out = append(out, &s)

		if len(out) == limit {
			break
		}
	}

	return out, nil
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

func (r *fakeOutboxRepo) GetUnproduced(_ context.Context, limit int) ([]*entity.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.OutboxMessage

	for i := range r.msgs {
		if r.msgs[i].Produced {
			continue
		}

		m := r.msgs[i]
		out = append(out, &m)

		if len(out) == limit {
			break
		}
	}

	return out, nil
}

func (r *fakeOutboxRepo) MarkProducedBatch(_ context.Context, ids uuid.UUIDs) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		for i := range r.msgs {
			if r.msgs[i].ID == id {
				r.msgs[i].Produced = true
			}
		}
	}

	return nil
}

func (r *fakeOutboxRepo) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, msg := range r.msgs {
		out = append(out, msg.EventType)
	}

	return out
}

func newUseCase(sagaRepo *fakeSagaRepo, outboxRepo *fakeOutboxRepo) *saga.UseCase {
	return saga.New(sagaRepo, outboxRepo, fakeTransactor{}, nil, nil, nopLogger{})
}

func startSaga(t *testing.T, uc *saga.UseCase) *entity.SagaInstance {
	t.Helper()

	s, err := uc.Start(context.Background(), uuid.New(), "pro-monthly", "acme-corp")
	require.NoError(t, err)

	return s
}

func TestStart(t *testing.T) {
	sagaRepo := newFakeSagaRepo()
	outboxRepo := &fakeOutboxRepo{}
	uc := newUseCase(sagaRepo, outboxRepo)

	s := startSaga(t, uc)

	assert.Equal(t, entity.SagaPending, s.Status)
	assert.Equal(t, entity.StepInitiateBilling, s.CurrentStep)
	assert.Nil(t, s.SubscriptionID)

	require.Equal(t, []string{event.TopicCreateSubscription}, outboxRepo.topics())
	assert.Equal(t, s.ID, outboxRepo.msgs[0].AggregateID)

	cmd, err := event.Decode[event.CreateSubscription](outboxRepo.msgs[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, s.ID, cmd.SagaID)
	assert.Equal(t, s.CustomerID, cmd.CustomerID)
	assert.Equal(t, "pro-monthly", cmd.PlanID)
}

func TestHappyPath(t *testing.T) {
	sagaRepo := newFakeSagaRepo()
	outboxRepo := &fakeOutboxRepo{}
	uc := newUseCase(sagaRepo, outboxRepo)
	ctx := context.Background()

	s := startSaga(t, uc)
	subID := uuid.New()

	err := uc.HandleSubscriptionCreated(ctx, event.SubscriptionCreated{
		SagaID:         s.ID,
		SubscriptionID: subID,
		CustomerID:     s.CustomerID,
		PlanID:         s.PlanID,
		Status:         "active",
		CreatedAt:      time.Now(),
	})
	require.NoError(t, err)

	got, err := uc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SagaProvisioning, got.Status)
	assert.Equal(t, entity.StepProvisionTenant, got.CurrentStep)
	require.NotNil(t, got.SubscriptionID)
	assert.Equal(t, subID, *got.SubscriptionID)

	tenantID := uuid.New()

	err = uc.HandleTenantProvisioned(ctx, event.TenantProvisioned{
		SagaID:         s.ID,
		TenantID:       tenantID,
		SubscriptionID: subID,
		TenantName:     s.TenantName,
		Status:         "active",
		ProvisionedAt:  time.Now(),
	})
	require.NoError(t, err)

	got, err = uc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SagaNotifying, got.Status)
	require.NotNil(t, got.TenantID)
	assert.Equal(t, tenantID, *got.TenantID)

	require.Equal(t, []string{
		event.TopicCreateSubscription,
		event.TopicProvisionTenant,
		event.TopicSendWelcomeEmail,
	}, outboxRepo.topics())

	welcome, err := event.Decode[event.SendWelcomeEmail](outboxRepo.msgs[2].Payload)
	require.NoError(t, err)
	assert.Equal(t, s.ID, welcome.SagaID)
	assert.Equal(t, subID, welcome.SubscriptionID)
	assert.NotEmpty(t, welcome.RecipientEmail)

	emailID := uuid.New()

	err = uc.HandleEmailSent(ctx, event.EmailSent{
		SagaID:         s.ID,
		EmailID:        emailID,
		SubscriptionID: subID,
		RecipientEmail: welcome.RecipientEmail,
		EmailType:      "welcome",
		SentAt:         time.Now(),
	})
	require.NoError(t, err)

	got, err = uc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SagaCompleted, got.Status)
	assert.Equal(t, entity.StepFinished, got.CurrentStep)
	require.NotNil(t, got.EmailID)
	assert.Equal(t, emailID, *got.EmailID)
	assert.NotNil(t, got.CompletedAt)
	assert.False(t, got.CompensationNeeded)

	// Completion emits no further commands.
	assert.Len(t, outboxRepo.topics(), 3)
}

func TestDuplicateSubscriptionCreated(t *testing.T) {
	sagaRepo := newFakeSagaRepo()
	outboxRepo := &fakeOutboxRepo{}
	uc := newUseCase(sagaRepo, outboxRepo)
	ctx := context.Background()

	s := startSaga(t, uc)

	e := event.SubscriptionCreated{SagaID: s.ID, SubscriptionID: uuid.New()}
	require.NoError(t, uc.HandleSubscriptionCreated(ctx, e))
	require.NoError(t, uc.HandleSubscriptionCreated(ctx, e))

	assert.Len(t, outboxRepo.topics(), 2)
	assert.Equal(t, 1, sagaRepo.updates)
}

func TestFailureBeforePivot(t *testing.T) {
	sagaRepo := newFakeSagaRepo()
	outboxRepo := &fakeOutboxRepo{}
	uc := newUseCase(sagaRepo, outboxRepo)
	ctx := context.Background()

	s := startSaga(t, uc)

	err := uc.HandleTenantProvisioningFailed(ctx, event.TenantProvisioningFailed{
		SagaID:       s.ID,
		ErrorMessage: "billing never confirmed",
	})
	require.NoError(t, err)

	got, err := uc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SagaFailed, got.Status)
	assert.False(t, got.CompensationNeeded)
	require.NotNil(t, got.ErrorMessage)

	// No subscription existed, so no compensation commands.
	assert.Equal(t, []string{event.TopicCreateSubscription}, outboxRepo.topics())
}

func TestFailureAfterPivotWithoutTenant(t *testing.T) {
	sagaRepo := newFakeSagaRepo()
	outboxRepo := &fakeOutboxRepo{}
	uc := newUseCase(sagaRepo, outboxRepo)
	ctx := context.Background()

	s := startSaga(t, uc)
	subID := uuid.New()

	require.NoError(t, uc.HandleSubscriptionCreated(ctx, event.SubscriptionCreated{SagaID: s.ID, SubscriptionID: subID}))

	err := uc.HandleTenantProvisioningFailed(ctx, event.TenantProvisioningFailed{
		SagaID:       s.ID,
		ErrorMessage: "all attempts exhausted",
	})
	require.NoError(t, err)

	got, err := uc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SagaCompensated, got.Status)
	assert.True(t, got.CompensationNeeded)

	require.Equal(t, []string{
		event.TopicCreateSubscription,
		event.TopicProvisionTenant,
		event.TopicCancelSubscription,
	}, outboxRepo.topics())

	cancel, err := event.Decode[event.CancelSubscription](outboxRepo.msgs[2].Payload)
	require.NoError(t, err)
	assert.Equal(t, subID, cancel.SubscriptionID)
}

func TestCompensateAfterTenantProvisioned(t *testing.T) {
	sagaRepo := newFakeSagaRepo()
	outboxRepo := &fakeOutboxRepo{}
	uc := newUseCase(sagaRepo, outboxRepo)
	ctx := context.Background()

	s := startSaga(t, uc)
	subID := uuid.New()
	tenantID := uuid.New()

	require.NoError(t, uc.HandleSubscriptionCreated(ctx, event.SubscriptionCreated{SagaID: s.ID, SubscriptionID: subID}))
	require.NoError(t, uc.HandleTenantProvisioned(ctx, event.TenantProvisioned{SagaID: s.ID, TenantID: tenantID, SubscriptionID: subID}))

	require.NoError(t, uc.Compensate(ctx, s.ID))

	got, err := uc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SagaCompensated, got.Status)

	// Tenant existed, so both compensation commands go out, deprovision first.
	require.Equal(t, []string{
		event.TopicCreateSubscription,
		event.TopicProvisionTenant,
		event.TopicSendWelcomeEmail,
		event.TopicDeprovisionTenant,
		event.TopicCancelSubscription,
	}, outboxRepo.topics())

	deprov, err := event.Decode[event.DeprovisionTenant](outboxRepo.msgs[3].Payload)
	require.NoError(t, err)
	assert.Equal(t, tenantID, deprov.TenantID)

	err = uc.Compensate(ctx, s.ID)
	require.ErrorIs(t, err, errs.ErrAlreadyCompensated)

	// The rejected second call queued nothing new.
	assert.Len(t, outboxRepo.topics(), 5)
}

func TestCompensateCompletedSaga(t *testing.T) {
	sagaRepo := newFakeSagaRepo()
	outboxRepo := &fakeOutboxRepo{}
	uc := newUseCase(sagaRepo, outboxRepo)
	ctx := context.Background()

	s := startSaga(t, uc)
	subID := uuid.New()

	require.NoError(t, uc.HandleSubscriptionCreated(ctx, event.SubscriptionCreated{SagaID: s.ID, SubscriptionID: subID}))
	require.NoError(t, uc.HandleTenantProvisioned(ctx, event.TenantProvisioned{SagaID: s.ID, TenantID: uuid.New(), SubscriptionID: subID}))
	require.NoError(t, uc.HandleEmailSent(ctx, event.EmailSent{SagaID: s.ID, EmailID: uuid.New()}))

	err := uc.Compensate(ctx, s.ID)
	require.ErrorIs(t, err, errs.ErrAlreadyCompleted)

	// A completed saga cannot move backwards.
	got, err := uc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SagaCompleted, got.Status)
	assert.False(t, got.CompensationNeeded)
	assert.Len(t, outboxRepo.topics(), 3)
}

func TestCompensateUnknownSaga(t *testing.T) {
	uc := newUseCase(newFakeSagaRepo(), &fakeOutboxRepo{})

	err := uc.Compensate(context.Background(), uuid.New())
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestEventForUnknownSaga(t *testing.T) {
	uc := newUseCase(newFakeSagaRepo(), &fakeOutboxRepo{})

	err := uc.HandleSubscriptionCreated(context.Background(), event.SubscriptionCreated{
		SagaID:         uuid.New(),
		SubscriptionID: uuid.New(),
	})
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestVersionConflictRetried(t *testing.T) {
	sagaRepo := newFakeSagaRepo()
	outboxRepo := &fakeOutboxRepo{}
	uc := newUseCase(sagaRepo, outboxRepo)
	ctx := context.Background()

	s := startSaga(t, uc)
	sagaRepo.conflicts = 1

	err := uc.HandleSubscriptionCreated(ctx, event.SubscriptionCreated{SagaID: s.ID, SubscriptionID: uuid.New()})
	require.NoError(t, err)

	assert.Equal(t, 2, sagaRepo.updates)

	got, err := uc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SagaProvisioning, got.Status)
}

func TestEventsIgnoredInWrongStatus(t *testing.T) {
	sagaRepo := newFakeSagaRepo()
	outboxRepo := &fakeOutboxRepo{}
	uc := newUseCase(sagaRepo, outboxRepo)
	ctx := context.Background()

	s := startSaga(t, uc)

	// tenant-provisioned before the pivot lands in Pending and is dropped.
	err := uc.HandleTenantProvisioned(ctx, event.TenantProvisioned{SagaID: s.ID, TenantID: uuid.New()})
	require.NoError(t, err)

	got, err := uc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SagaPending, got.Status)
	assert.Nil(t, got.TenantID)
	assert.Len(t, outboxRepo.topics(), 1)
}
