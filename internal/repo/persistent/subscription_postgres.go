package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/dnsokolov/saas-onboarding/pkg/postgres"
	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	subscriptionTable = "subscriptions"

	// Columns
	subIDColumn          = "id"
	subSagaIDColumn      = "saga_id"
	subCustomerIDColumn  = "customer_id"
	subPlanIDColumn      = "plan_id"
	subStatusColumn      = "status"
	subCreatedAtColumn   = "created_at"
	subUpdatedAtColumn   = "updated_at"
	subCancelledAtColumn = "cancelled_at"
)

var subscriptionColumns = []string{
	subIDColumn,
	subSagaIDColumn,
	subCustomerIDColumn,
	subPlanIDColumn,
	subStatusColumn,
	subCreatedAtColumn,
	subUpdatedAtColumn,
	subCancelledAtColumn,
}

type SubscriptionRepo struct {
	*postgres.Postgres
}

func NewSubscriptionRepo(pg *postgres.Postgres) *SubscriptionRepo {
	return &SubscriptionRepo{pg}
}

func (r *SubscriptionRepo) Create(ctx context.Context, sub *entity.Subscription) error {
	sql, args, err := r.Builder.
		Insert(subscriptionTable).
		Columns(subscriptionColumns...).
		Values(
			sub.ID,
			sub.SagaID,
			sub.CustomerID,
			sub.PlanID,
			sub.Status,
			sub.CreatedAt,
			sub.UpdatedAt,
			sub.CancelledAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("SubscriptionRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("SubscriptionRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *SubscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error) {
	return r.getOne(ctx, squirrel.Eq{subIDColumn: id}, "GetByID")
}

func (r *SubscriptionRepo) GetBySagaID(ctx context.Context, sagaID uuid.UUID) (*entity.Subscription, error) {
	return r.getOne(ctx, squirrel.Eq{subSagaIDColumn: sagaID}, "GetBySagaID")
}

func (r *SubscriptionRepo) Update(ctx context.Context, sub *entity.Subscription) error {
	sql, args, err := r.Builder.
		Update(subscriptionTable).
		Set(subStatusColumn, sub.Status).
		Set(subUpdatedAtColumn, sub.UpdatedAt).
		Set(subCancelledAtColumn, sub.CancelledAt).
		Where(squirrel.Eq{subIDColumn: sub.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("SubscriptionRepo - Update - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("SubscriptionRepo - Update - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("SubscriptionRepo - Update: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *SubscriptionRepo) getOne(ctx context.Context, where squirrel.Eq, method string) (*entity.Subscription, error) {
	sql, args, err := r.Builder.
		Select(subscriptionColumns...).
		From(subscriptionTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("SubscriptionRepo - %s - r.Builder.ToSql: %w", method, err)
	}

	executor := r.GetExecutor(ctx)

	var sub entity.Subscription
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&sub.ID,
		&sub.SagaID,
		&sub.CustomerID,
		&sub.PlanID,
		&sub.Status,
		&sub.CreatedAt,
		&sub.UpdatedAt,
		&sub.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("SubscriptionRepo - %s: %w", method, errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("SubscriptionRepo - %s - QueryRow.Scan: %w", method, err)
	}

	return &sub, nil
}
