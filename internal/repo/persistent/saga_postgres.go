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
	sagaTable = "saga_instances"

	// Columns
	sagaIDColumn                 = "id"
	sagaCustomerIDColumn         = "customer_id"
	sagaPlanIDColumn             = "plan_id"
	sagaTenantNameColumn         = "tenant_name"
	sagaSubscriptionIDColumn     = "subscription_id"
	sagaTenantIDColumn           = "tenant_id"
	sagaEmailIDColumn            = "email_id"
	sagaStatusColumn             = "status"
	sagaCurrentStepColumn        = "current_step"
	sagaErrorMessageColumn       = "error_message"
	sagaCompensationNeededColumn = "compensation_needed"
	sagaVersionColumn            = "version"
	sagaCreatedAtColumn          = "created_at"
	sagaUpdatedAtColumn          = "updated_at"
	sagaCompletedAtColumn        = "completed_at"
)

var sagaColumns = []string{
	sagaIDColumn,
	sagaCustomerIDColumn,
	sagaPlanIDColumn,
	sagaTenantNameColumn,
	sagaSubscriptionIDColumn,
	sagaTenantIDColumn,
	sagaEmailIDColumn,
	sagaStatusColumn,
	sagaCurrentStepColumn,
	sagaErrorMessageColumn,
	sagaCompensationNeededColumn,
	sagaVersionColumn,
	sagaCreatedAtColumn,
	sagaUpdatedAtColumn,
	sagaCompletedAtColumn,
}

type SagaRepo struct {
	*postgres.Postgres
}

func NewSagaRepo(pg *postgres.Postgres) *SagaRepo {
	return &SagaRepo{pg}
}

func (r *SagaRepo) Create(ctx context.Context, saga *entity.SagaInstance) error {
	sql, args, err := r.Builder.
		Insert(sagaTable).
		Columns(sagaColumns...).
		Values(
			saga.ID,
			saga.CustomerID,
			saga.PlanID,
			saga.TenantName,
			saga.SubscriptionID,
			saga.TenantID,
			saga.EmailID,
			saga.Status,
			saga.CurrentStep,
			saga.ErrorMessage,
			saga.CompensationNeeded,
			saga.Version,
			saga.CreatedAt,
			saga.UpdatedAt,
			saga.CompletedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("SagaRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("SagaRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *SagaRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.SagaInstance, error) {
	sql, args, err := r.Builder.
		Select(sagaColumns...).
		From(sagaTable).
		Where(squirrel.Eq{sagaIDColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("SagaRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	saga, err := scanSaga(executor.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("SagaRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("SagaRepo - GetByID - scanSaga: %w", err)
	}

	return saga, nil
}

// Update is a compare-and-swap on the version column: concurrent handlers for
// the same saga cannot both win, the loser re-reads and re-decides.
func (r *SagaRepo) Update(ctx context.Context, saga *entity.SagaInstance) error {
	sql, args, err := r.Builder.
		Update(sagaTable).
		Set(sagaSubscriptionIDColumn, saga.SubscriptionID).
		Set(sagaTenantIDColumn, saga.TenantID).
		Set(sagaEmailIDColumn, saga.EmailID).
		Set(sagaStatusColumn, saga.Status).
		Set(sagaCurrentStepColumn, saga.CurrentStep).
		Set(sagaErrorMessageColumn, saga.ErrorMessage).
		Set(sagaCompensationNeededColumn, saga.CompensationNeeded).
		Set(sagaVersionColumn, saga.Version+1).
		Set(sagaUpdatedAtColumn, saga.UpdatedAt).
		Set(sagaCompletedAtColumn, saga.CompletedAt).
		Where(squirrel.And{
			squirrel.Eq{sagaIDColumn: saga.ID},
			squirrel.Eq{sagaVersionColumn: saga.Version},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("SagaRepo - Update - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("SagaRepo - Update - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("SagaRepo - Update: %w", errs.ErrConflict)
	}

	saga.Version++

	return nil
}

func (r *SagaRepo) List(ctx context.Context, status *entity.SagaStatus, limit, offset int) ([]*entity.SagaInstance, error) {
	builder := r.Builder.
		Select(sagaColumns...).
		From(sagaTable)

	if status != nil {
		builder = builder.Where(squirrel.Eq{sagaStatusColumn: *status})
	}

	sql, args, err := builder.
		OrderBy(sagaCreatedAtColumn + " DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("SagaRepo - List - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("SagaRepo - List - executor.Query: %w", err)
	}
	defer rows.Close()

	sagas := make([]*entity.SagaInstance, 0, limit)
	for rows.Next() {
		saga, err := scanSaga(rows)
		if err != nil {
			return nil, fmt.Errorf("SagaRepo - List - scanSaga: %w", err)
		}
		sagas = append(sagas, saga)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SagaRepo - List - rows.Err: %w", err)
	}

	return sagas, nil
}

func scanSaga(row pgx.Row) (*entity.SagaInstance, error) {
	var saga entity.SagaInstance

	err := row.Scan(
		&saga.ID,
		&saga.CustomerID,
		&saga.PlanID,
		&saga.TenantName,
		&saga.SubscriptionID,
		&saga.TenantID,
		&saga.EmailID,
		&saga.Status,
		&saga.CurrentStep,
		&saga.ErrorMessage,
		&saga.CompensationNeeded,
		&saga.Version,
		&saga.CreatedAt,
		&saga.UpdatedAt,
		&saga.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	return &saga, nil
}
