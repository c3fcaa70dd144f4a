package repo

import (
	"context"

	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/google/uuid"
)

type (
	// Transactor runs f inside one database transaction; repo calls made
	// with the ctx it passes join that transaction.
	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}

	SagaRepo interface {
		Create(ctx context.Context, saga *entity.SagaInstance) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.SagaInstance, error)
		// Update is conditional on saga.Version and bumps it; a lost race
		// surfaces as errs.ErrConflict.
		Update(ctx context.Context, saga *entity.SagaInstance) error
		List(ctx context.Context, status *entity.SagaStatus, limit, offset int) ([]*entity.SagaInstance, error)
	}

	OutboxRepo interface {
		Create(ctx context.Context, msg *entity.OutboxMessage) error
		GetUnproduced(ctx context.Context, limit int) ([]*entity.OutboxMessage, error)
		MarkProducedBatch(ctx context.Context, ids uuid.UUIDs) error
	}

	SubscriptionRepo interface {
		Create(ctx context.Context, sub *entity.Subscription) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error)
		GetBySagaID(ctx context.Context, sagaID uuid.UUID) (*entity.Subscription, error)
		Update(ctx context.Context, sub *entity.Subscription) error
	}

	TenantRepo interface {
		Create(ctx context.Context, tenant *entity.Tenant) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error)
		GetBySagaID(ctx context.Context, sagaID uuid.UUID) (*entity.Tenant, error)
		Update(ctx context.Context, tenant *entity.Tenant) error
	}

	EmailLogRepo interface {
		Create(ctx context.Context, email *entity.EmailLog) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.EmailLog, error)
		GetBySagaID(ctx context.Context, sagaID uuid.UUID) (*entity.EmailLog, error)
		Update(ctx context.Context, email *entity.EmailLog) error
	}
)
