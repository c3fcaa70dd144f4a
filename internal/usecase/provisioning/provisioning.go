// Package provisioning implements tenant setup with a bounded retry budget.
// Only the final outcome of the budget is persisted and announced, so a
// transient hiccup never reaches the orchestrator.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/dnsokolov/saas-onboarding/internal/event"
	"github.com/dnsokolov/saas-onboarding/internal/infrastructure"
	"github.com/dnsokolov/saas-onboarding/internal/repo"
	"github.com/dnsokolov/saas-onboarding/internal/usecase/outbox"
	"github.com/dnsokolov/saas-onboarding/pkg/logger"
	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
	"github.com/google/uuid"
)

const (
	_defaultMaxAttempts = 3
	_defaultBaseDelay   = time.Second
)

type UseCase struct {
	tenantRepo  repo.TenantRepo
	outboxRepo  repo.OutboxRepo
	transactor  repo.Transactor
	provisioner infrastructure.Provisioner
	logger      logger.Interface

	maxAttempts int
	baseDelay   time.Duration
}

func New(
	tenantRepo repo.TenantRepo,
	outboxRepo repo.OutboxRepo,
	transactor repo.Transactor,
	provisioner infrastructure.Provisioner,
	l logger.Interface,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		tenantRepo:  tenantRepo,
		outboxRepo:  outboxRepo,
		transactor:  transactor,
		provisioner: provisioner,
		logger:      l,
		maxAttempts: _defaultMaxAttempts,
		baseDelay:   _defaultBaseDelay,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// HandleProvisionTenant runs the provisioning attempts and records the
// outcome. Success stores an active tenant with a tenant-provisioned event;
// an exhausted budget stores a failed tenant with a failure event. Either
// way the row and the event share a transaction.
func (uc *UseCase) HandleProvisionTenant(ctx context.Context, cmd event.ProvisionTenant) error {
	existing, err := uc.tenantRepo.GetBySagaID(ctx, cmd.SagaID)
	if err == nil {
		uc.logger.Debug("saga %s already has tenant %s, duplicate command ignored", cmd.SagaID, existing.ID)
		return nil
	}

	if !errors.Is(err, errs.ErrRecordNotFound) {
		return fmt.Errorf("ProvisioningUseCase - HandleProvisionTenant - uc.tenantRepo.GetBySagaID: %w", err)
	}

	now := time.Now()

	tenant := &entity.Tenant{
		ID:             uuid.New(),
		SagaID:         cmd.SagaID,
		SubscriptionID: cmd.SubscriptionID,
		TenantName:     cmd.TenantName,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	provisionErr := uc.provisionWithRetry(ctx, tenant)
	if provisionErr == nil {
		return uc.storeProvisioned(ctx, tenant)
	}

	// Shutdown is not a provisioning verdict; leave no row so redelivery
	// starts the budget over.
	if errors.Is(provisionErr, context.Canceled) || errors.Is(provisionErr, context.DeadlineExceeded) {
		return fmt.Errorf("ProvisioningUseCase - HandleProvisionTenant - interrupted: %w", provisionErr)
	}

	if err := uc.storeFailed(ctx, tenant, provisionErr); err != nil {
		return err
	}

	return fmt.Errorf("ProvisioningUseCase - HandleProvisionTenant - provisioning exhausted: %w", provisionErr)
}

// HandleDeprovisionTenant tears a tenant down during compensation. A tenant
// that is already gone reports ErrAlreadyDeprovisioned.
func (uc *UseCase) HandleDeprovisionTenant(ctx context.Context, cmd event.DeprovisionTenant) error {
	tenant, err := uc.tenantRepo.GetByID(ctx, cmd.TenantID)
	if err != nil {
		return fmt.Errorf("ProvisioningUseCase - HandleDeprovisionTenant - uc.tenantRepo.GetByID: %w", err)
	}

	if tenant.Status == entity.TenantDeprovisioned {
		return fmt.Errorf("ProvisioningUseCase - HandleDeprovisionTenant: %w", errs.ErrAlreadyDeprovisioned)
	}

	if err := uc.provisioner.Deprovision(ctx, tenant); err != nil {
		return fmt.Errorf("ProvisioningUseCase - HandleDeprovisionTenant - uc.provisioner.Deprovision: %w", err)
	}

	now := time.Now()
	tenant.Status = entity.TenantDeprovisioned
	tenant.UpdatedAt = now

	e := event.TenantDeprovisioned{
		SagaID:          cmd.SagaID,
		TenantID:        tenant.ID,
		SubscriptionID:  tenant.SubscriptionID,
		DeprovisionedAt: now,
	}

	msg, err := outbox.NewMessage(cmd.SagaID, event.KindTenantDeprovisioned, e)
	if err != nil {
		return fmt.Errorf("ProvisioningUseCase - HandleDeprovisionTenant - outbox.NewMessage: %w", err)
	}

	err = uc.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.tenantRepo.Update(txCtx, tenant); err != nil {
			return err
		}

		return uc.outboxRepo.Create(txCtx, msg)
	})
	if err != nil {
		return fmt.Errorf("ProvisioningUseCase - HandleDeprovisionTenant - uc.transactor.WithinTransaction: %w", err)
	}

	uc.logger.Info("tenant %s deprovisioned for saga %s", tenant.ID, cmd.SagaID)

	return nil
}

func (uc *UseCase) GetTenant(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	tenant, err := uc.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ProvisioningUseCase - GetTenant - uc.tenantRepo.GetByID: %w", err)
	}

	return tenant, nil
}

// provisionWithRetry doubles the delay after each failed attempt.
func (uc *UseCase) provisionWithRetry(ctx context.Context, tenant *entity.Tenant) error {
	var lastErr error

	delay := uc.baseDelay

	for attempt := 1; attempt <= uc.maxAttempts; attempt++ {
		tenant.ProvisioningAttempts = attempt

		lastErr = uc.provisioner.Provision(ctx, tenant)
		if lastErr == nil {
			return nil
		}

		uc.logger.Warn("provisioning tenant %q attempt %d/%d failed: %s", tenant.TenantName, attempt, uc.maxAttempts, lastErr)

		if attempt == uc.maxAttempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay *= 2
	}

	return lastErr
}

func (uc *UseCase) storeProvisioned(ctx context.Context, tenant *entity.Tenant) error {
	now := time.Now()
	tenant.Status = entity.TenantActive
	tenant.UpdatedAt = now
	tenant.ProvisionedAt = &now

	e := event.TenantProvisioned{
		SagaID:         tenant.SagaID,
		TenantID:       tenant.ID,
		SubscriptionID: tenant.SubscriptionID,
		TenantName:     tenant.TenantName,
		Status:         string(tenant.Status),
		ProvisionedAt:  now,
	}

	msg, err := outbox.NewMessage(tenant.SagaID, event.KindTenantProvisioned, e)
	if err != nil {
		return fmt.Errorf("ProvisioningUseCase - storeProvisioned - outbox.NewMessage: %w", err)
	}

	err = uc.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.tenantRepo.Create(txCtx, tenant); err != nil {
			return err
		}

		return uc.outboxRepo.Create(txCtx, msg)
	})
	if err != nil {
		return fmt.Errorf("ProvisioningUseCase - storeProvisioned - uc.transactor.WithinTransaction: %w", err)
	}

	uc.logger.Info("tenant %s provisioned for saga %s after %d attempt(s)", tenant.ID, tenant.SagaID, tenant.ProvisioningAttempts)

	return nil
}

func (uc *UseCase) storeFailed(ctx context.Context, tenant *entity.Tenant, cause error) error {
	now := time.Now()
	errMsg := cause.Error()
	tenant.Status = entity.TenantFailed
	tenant.UpdatedAt = now
	tenant.ErrorMessage = &errMsg

	e := event.TenantProvisioningFailed{
		SagaID:         tenant.SagaID,
		SubscriptionID: tenant.SubscriptionID,
		TenantName:     tenant.TenantName,
		ErrorMessage:   errMsg,
		Attempts:       tenant.ProvisioningAttempts,
	}

	msg, err := outbox.NewMessage(tenant.SagaID, event.KindTenantProvisioningFailed, e)
	if err != nil {
		return fmt.Errorf("ProvisioningUseCase - storeFailed - outbox.NewMessage: %w", err)
	}

	err = uc.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.tenantRepo.Create(txCtx, tenant); err != nil {
			return err
		}

		return uc.outboxRepo.Create(txCtx, msg)
	})
	if err != nil {
		return fmt.Errorf("ProvisioningUseCase - storeFailed - uc.transactor.WithinTransaction: %w", err)
	}

	return nil
}
