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
	tenantTable = "tenants"

	// Columns
	tenantIDColumn             = "id"
	tenantSagaIDColumn         = "saga_id"
	tenantSubscriptionIDColumn = "subscription_id"
	tenantNameColumn           = "tenant_name"
	tenantStatusColumn         = "status"
	tenantAttemptsColumn       = "provisioning_attempts"
	tenantErrorMessageColumn   = "error_message"
	tenantCreatedAtColumn      = "created_at"
	tenantUpdatedAtColumn      = "updated_at"
	tenantProvisionedAtColumn  = "provisioned_at"
)

var tenantColumns = []string{
	tenantIDColumn,
	tenantSagaIDColumn,
	tenantSubscriptionIDColumn,
	tenantNameColumn,
	tenantStatusColumn,
	tenantAttemptsColumn,
	tenantErrorMessageColumn,
	tenantCreatedAtColumn,
	tenantUpdatedAtColumn,
	tenantProvisionedAtColumn,
}

type TenantRepo struct {
	*postgres.Postgres
}

func NewTenantRepo(pg *postgres.Postgres) *TenantRepo {
	return &TenantRepo{pg}
}

func (r *TenantRepo) Create(ctx context.Context, tenant *entity.Tenant) error {
	sql, args, err := r.Builder.
		Insert(tenantTable).
		Columns(tenantColumns...).
		Values(
			tenant.ID,
			tenant.SagaID,
			tenant.SubscriptionID,
			tenant.TenantName,
			tenant.Status,
			tenant.ProvisioningAttempts,
			tenant.ErrorMessage,
			tenant.CreatedAt,
			tenant.UpdatedAt,
			tenant.ProvisionedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("TenantRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("TenantRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *TenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	return r.getOne(ctx, squirrel.Eq{tenantIDColumn: id}, "GetByID")
}

func (r *TenantRepo) GetBySagaID(ctx context.Context, sagaID uuid.UUID) (*entity.Tenant, error) {
	return r.getOne(ctx, squirrel.Eq{tenantSagaIDColumn: sagaID}, "GetBySagaID")
}

func (r *TenantRepo) Update(ctx context.Context, tenant *entity.Tenant) error {
	sql, args, err := r.Builder.
		Update(tenantTable).
		Set(tenantStatusColumn, tenant.Status).
		Set(tenantAttemptsColumn, tenant.ProvisioningAttempts).
		Set(tenantErrorMessageColumn, tenant.ErrorMessage).
		Set(tenantUpdatedAtColumn, tenant.UpdatedAt).
		Set(tenantProvisionedAtColumn, tenant.ProvisionedAt).
		Where(squirrel.Eq{tenantIDColumn: tenant.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("TenantRepo - Update - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("TenantRepo - Update - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("TenantRepo - Update: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *TenantRepo) getOne(ctx context.Context, where squirrel.Eq, method string) (*entity.Tenant, error) {
	sql, args, err := r.Builder.
		Select(tenantColumns...).
		From(tenantTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("TenantRepo - %s - r.Builder.ToSql: %w", method, err)
	}

	executor := r.GetExecutor(ctx)

	var tenant entity.Tenant
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&tenant.ID,
		&tenant.SagaID,
		&tenant.SubscriptionID,
		&tenant.TenantName,
		&tenant.Status,
		&tenant.ProvisioningAttempts,
		&tenant.ErrorMessage,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
		&tenant.ProvisionedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("TenantRepo - %s: %w", method, errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("TenantRepo - %s - QueryRow.Scan: %w", method, err)
	}

	return &tenant, nil
}
