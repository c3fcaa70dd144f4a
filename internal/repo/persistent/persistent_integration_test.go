//go:build integration

package persistent_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/dnsokolov/saas-onboarding/internal/event"
	"github.com/dnsokolov/saas-onboarding/internal/repo/persistent"
	"github.com/dnsokolov/saas-onboarding/pkg/postgres"
	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) *postgres.Postgres {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("onboarding"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pg, err := postgres.New(url, postgres.MaxPoolSize(4))
	require.NoError(t, err)

	t.Cleanup(pg.Close)

	schema, err := os.ReadFile("../../../migrations/orchestrator/000001_init.up.sql")
	require.NoError(t, err)

	_, err = pg.Pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	return pg
}

func newSaga() *entity.SagaInstance {
	now := time.Now().UTC().Truncate(time.Microsecond)

	return &entity.SagaInstance{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		PlanID:      "pro-monthly",
		TenantName:  "acme-corp",
		Status:      entity.SagaPending,
		CurrentStep: entity.StepInitiateBilling,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestSagaRepo(t *testing.T) {
	pg := setupPostgres(t)
	repo := persistent.NewSagaRepo(pg)
	ctx := context.Background()

	saga := newSaga()
	require.NoError(t, repo.Create(ctx, saga))

	got, err := repo.GetByID(ctx, saga.ID)
	require.NoError(t, err)
	assert.Equal(t, saga.ID, got.ID)
	assert.Equal(t, entity.SagaPending, got.Status)
	assert.Equal(t, 0, got.Version)

	_, err = repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, errs.ErrRecordNotFound)

	subID := uuid.New()
	got.SubscriptionID = &subID
	got.Status = entity.SagaProvisioning
	got.CurrentStep = entity.StepProvisionTenant
	got.UpdatedAt = time.Now().UTC()

	require.NoError(t, repo.Update(ctx, got))
	assert.Equal(t, 1, got.Version)

	// A writer holding the old version loses the race.
	stale := *got
	stale.Version = 0
	err = repo.Update(ctx, &stale)
	require.ErrorIs(t, err, errs.ErrConflict)

	reread, err := repo.GetByID(ctx, saga.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SagaProvisioning, reread.Status)
	require.NotNil(t, reread.SubscriptionID)
	assert.Equal(t, subID, *reread.SubscriptionID)

	pending := entity.SagaPending
	listed, err := repo.List(ctx, &pending, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, listed)

	provisioning := entity.SagaProvisioning
	listed, err = repo.List(ctx, &provisioning, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, saga.ID, listed[0].ID)
}

func TestOutboxRepo(t *testing.T) {
	pg := setupPostgres(t)
	repo := persistent.NewOutboxRepo(pg)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)

	var ids uuid.UUIDs

	for i := 0; i < 3; i++ {
		msg := &entity.OutboxMessage{
			ID:          uuid.New(),
			AggregateID: uuid.New(),
			EventType:   event.TopicSubscriptionCreated,
			Payload:     []byte(`{"n":` + strconv.Itoa(i) + `}`),
			CreatedAt:   base.Add(time.Duration(i) * time.Millisecond),
		}
		require.NoError(t, repo.Create(ctx, msg))
		ids = append(ids, msg.ID)
	}

	msgs, err := repo.GetUnproduced(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	// Oldest first.
	for i, msg := range msgs {
		assert.Equal(t, ids[i], msg.ID)
		assert.False(t, msg.Produced)
	}

	require.NoError(t, repo.MarkProducedBatch(ctx, uuid.UUIDs{ids[0], ids[1]}))

	msgs, err = repo.GetUnproduced(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, ids[2], msgs[0].ID)

	// Marking again is a no-op, not an error.
	require.NoError(t, repo.MarkProducedBatch(ctx, uuid.UUIDs{ids[0], ids[1]}))

	require.NoError(t, repo.MarkProducedBatch(ctx, uuid.UUIDs{ids[2]}))

	msgs, err = repo.GetUnproduced(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestTransactorRollsBackOutboxWrites(t *testing.T) {
	pg := setupPostgres(t)
	sagaRepo := persistent.NewSagaRepo(pg)
	outboxRepo := persistent.NewOutboxRepo(pg)
	ctx := context.Background()

	saga := newSaga()

	err := pg.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := sagaRepo.Create(txCtx, saga); err != nil {
			return err
		}

		msg := &entity.OutboxMessage{
			ID:          uuid.New(),
			AggregateID: saga.ID,
			EventType:   event.TopicCreateSubscription,
			Payload:     []byte(`{}`),
			CreatedAt:   time.Now().UTC(),
		}
		if err := outboxRepo.Create(txCtx, msg); err != nil {
			return err
		}

		return errs.ErrConflict // force rollback
	})
	require.Error(t, err)

	_, err = sagaRepo.GetByID(ctx, saga.ID)
	require.ErrorIs(t, err, errs.ErrRecordNotFound)

	msgs, err := outboxRepo.GetUnproduced(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
