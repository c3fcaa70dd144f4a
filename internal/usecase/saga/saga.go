// Package saga holds the orchestrator's onboarding state machine. Every
// transition is persisted together with the commands it emits, so a crash
// between "decide" and "tell the participants" cannot lose either side.
package saga

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

// TODO: look up the customer's real address once a customer profile
// service exists.
const _defaultRecipient = "customer@example.com"

// Conditional updates can lose the race against a concurrent delivery of
// the same event; one re-read is enough to notice the duplicate.
const _casAttempts = 3

type UseCase struct {
	sagaRepo   repo.SagaRepo
	outboxRepo repo.OutboxRepo
	transactor repo.Transactor

	billing      infrastructure.BillingVerifier
	provisioning infrastructure.ProvisioningVerifier

	logger logger.Interface
}

func New(
	sagaRepo repo.SagaRepo,
	outboxRepo repo.OutboxRepo,
	transactor repo.Transactor,
	billing infrastructure.BillingVerifier,
	provisioning infrastructure.ProvisioningVerifier,
	l logger.Interface,
) *UseCase {
	return &UseCase{
		sagaRepo:     sagaRepo,
		outboxRepo:   outboxRepo,
		transactor:   transactor,
		billing:      billing,
		provisioning: provisioning,
		logger:       l,
	}
}

// Start creates a saga in its initial state and queues the first command
// for billing. Both rows land in one transaction.
func (uc *UseCase) Start(ctx context.Context, customerID uuid.UUID, planID, tenantName string) (*entity.SagaInstance, error) {
	now := time.Now()

	saga := &entity.SagaInstance{
		ID:          uuid.New(),
		CustomerID:  customerID,
		PlanID:      planID,
		TenantName:  tenantName,
		Status:      entity.SagaPending,
		CurrentStep: entity.StepInitiateBilling,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	cmd := event.CreateSubscription{
		SagaID:     saga.ID,
		CustomerID: customerID,
		PlanID:     planID,
	}

	msg, err := outbox.NewMessage(saga.ID, event.KindCreateSubscription, cmd)
	if err != nil {
		return nil, fmt.Errorf("SagaUseCase - Start - outbox.NewMessage: %w", err)
	}

	err = uc.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.sagaRepo.Create(txCtx, saga); err != nil {
			return err
		}

		return uc.outboxRepo.Create(txCtx, msg)
	})
	if err != nil {
		return nil, fmt.Errorf("SagaUseCase - Start - uc.transactor.WithinTransaction: %w", err)
	}

	uc.logger.Info("saga %s started for customer %s", saga.ID, customerID)

	return saga, nil
}

func (uc *UseCase) Get(ctx context.Context, id uuid.UUID) (*entity.SagaInstance, error) {
	saga, err := uc.sagaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("SagaUseCase - Get - uc.sagaRepo.GetByID: %w", err)
	}

	return saga, nil
}

func (uc *UseCase) List(ctx context.Context, status *entity.SagaStatus, limit, offset int) ([]*entity.SagaInstance, error) {
	sagas, err := uc.sagaRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("SagaUseCase - List - uc.sagaRepo.List: %w", err)
	}

	return sagas, nil
}

// HandleSubscriptionCreated records the pivot. From here on any failure is
// resolved by compensation, never by silently abandoning the saga.
func (uc *UseCase) HandleSubscriptionCreated(ctx context.Context, e event.SubscriptionCreated) error {
	return uc.withConflictRetry(ctx, e.SagaID, "HandleSubscriptionCreated", func(saga *entity.SagaInstance) (bool, []*entity.OutboxMessage, error) {
		if saga.SubscriptionID != nil {
			uc.logger.Debug("saga %s already holds subscription %s, duplicate ignored", saga.ID, *saga.SubscriptionID)
			return false, nil, nil
		}

		if saga.Status != entity.SagaPending {
			uc.logger.Warn("saga %s in status %s ignores subscription-created", saga.ID, saga.Status)
			return false, nil, nil
		}

		uc.verifySubscription(ctx, e.SubscriptionID)

		subID := e.SubscriptionID
		saga.SubscriptionID = &subID
		saga.Status = entity.SagaProvisioning
		saga.CurrentStep = entity.StepProvisionTenant
		saga.UpdatedAt = time.Now()

		cmd := event.ProvisionTenant{
			SagaID:         saga.ID,
			SubscriptionID: subID,
			TenantName:     saga.TenantName,
		}

		msg, err := outbox.NewMessage(saga.ID, event.KindProvisionTenant, cmd)
		if err != nil {
			return false, nil, err
		}

		return true, []*entity.OutboxMessage{msg}, nil
	})
}

// HandleTenantProvisioned moves the saga into the notification step.
func (uc *UseCase) HandleTenantProvisioned(ctx context.Context, e event.TenantProvisioned) error {
	return uc.withConflictRetry(ctx, e.SagaID, "HandleTenantProvisioned", func(saga *entity.SagaInstance) (bool, []*entity.OutboxMessage, error) {
		if saga.TenantID != nil {
			uc.logger.Debug("saga %s already holds tenant %s, duplicate ignored", saga.ID, *saga.TenantID)
			return false, nil, nil
		}

		if saga.Status != entity.SagaProvisioning {
			uc.logger.Warn("saga %s in status %s ignores tenant-provisioned", saga.ID, saga.Status)
			return false, nil, nil
		}

		uc.verifyTenant(ctx, e.TenantID)

		tenantID := e.TenantID
		saga.TenantID = &tenantID
		saga.Status = entity.SagaNotifying
		saga.CurrentStep = entity.StepSendWelcomeEmail
		saga.UpdatedAt = time.Now()

		cmd := event.SendWelcomeEmail{
			SagaID:         saga.ID,
			SubscriptionID: e.SubscriptionID,
			TenantName:     saga.TenantName,
			RecipientEmail: _defaultRecipient,
		}

		msg, err := outbox.NewMessage(saga.ID, event.KindSendWelcomeEmail, cmd)
		if err != nil {
			return false, nil, err
		}

		return true, []*entity.OutboxMessage{msg}, nil
	})
}

// HandleTenantProvisioningFailed reverses the saga. Provisioning has given
// up, so the subscription created at the pivot must be rolled back.
func (uc *UseCase) HandleTenantProvisioningFailed(ctx context.Context, e event.TenantProvisioningFailed) error {
	return uc.withConflictRetry(ctx, e.SagaID, "HandleTenantProvisioningFailed", func(saga *entity.SagaInstance) (bool, []*entity.OutboxMessage, error) {
		if saga.Status.Terminal() {
			uc.logger.Debug("saga %s already %s, duplicate failure ignored", saga.ID, saga.Status)
			return false, nil, nil
		}

		return uc.compensateTransition(saga, e.ErrorMessage)
	})
}

// HandleEmailSent closes out a successful saga.
func (uc *UseCase) HandleEmailSent(ctx context.Context, e event.EmailSent) error {
	return uc.withConflictRetry(ctx, e.SagaID, "HandleEmailSent", func(saga *entity.SagaInstance) (bool, []*entity.OutboxMessage, error) {
		if saga.EmailID != nil {
			uc.logger.Debug("saga %s already holds email %s, duplicate ignored", saga.ID, *saga.EmailID)
			return false, nil, nil
		}

		if saga.Status != entity.SagaNotifying {
			uc.logger.Warn("saga %s in status %s ignores email-sent", saga.ID, saga.Status)
			return false, nil, nil
		}

		now := time.Now()
		emailID := e.EmailID
		saga.EmailID = &emailID
		saga.Status = entity.SagaCompleted
		saga.CurrentStep = entity.StepFinished
		saga.UpdatedAt = now
		saga.CompletedAt = &now

		uc.logger.Info("saga %s completed", saga.ID)

		return true, nil, nil
	})
}

// Compensate is the manual trigger for the same rollback path the failure
// event takes. Terminal sagas stay terminal: a completed saga cannot be
// unwound and a compensated one cannot be compensated again; both map to a
// conflict response at the API.
func (uc *UseCase) Compensate(ctx context.Context, id uuid.UUID) error {
	return uc.withConflictRetry(ctx, id, "Compensate", func(saga *entity.SagaInstance) (bool, []*entity.OutboxMessage, error) {
		if saga.Status == entity.SagaCompensated {
			return false, nil, fmt.Errorf("SagaUseCase - Compensate: %w", errs.ErrAlreadyCompensated)
		}

		if saga.Status == entity.SagaCompleted {
			return false, nil, fmt.Errorf("SagaUseCase - Compensate: %w", errs.ErrAlreadyCompleted)
		}

		return uc.compensateTransition(saga, "compensation requested manually")
	})
}

// compensateTransition applies the pivot rule: before a subscription exists
// there is nothing to undo and the saga just fails; after it, cancel the
// subscription and deprovision the tenant if one was created.
func (uc *UseCase) compensateTransition(saga *entity.SagaInstance, reason string) (bool, []*entity.OutboxMessage, error) {
	saga.ErrorMessage = &reason
	saga.UpdatedAt = time.Now()

	if saga.SubscriptionID == nil {
		saga.Status = entity.SagaFailed
		saga.CurrentStep = entity.StepFinished

		uc.logger.Warn("saga %s failed before the pivot, nothing to compensate: %s", saga.ID, reason)

		return true, nil, nil
	}

	saga.Status = entity.SagaCompensated
	saga.CurrentStep = entity.StepCompensate
	saga.CompensationNeeded = true

	var msgs []*entity.OutboxMessage

	if saga.TenantID != nil {
		cmd := event.DeprovisionTenant{
			SagaID:   saga.ID,
			TenantID: *saga.TenantID,
		}

		msg, err := outbox.NewMessage(saga.ID, event.KindDeprovisionTenant, cmd)
		if err != nil {
			return false, nil, err
		}

		msgs = append(msgs, msg)
	}

	cancel := event.CancelSubscription{
		SagaID:         saga.ID,
		SubscriptionID: *saga.SubscriptionID,
	}

	msg, err := outbox.NewMessage(saga.ID, event.KindCancelSubscription, cancel)
	if err != nil {
		return false, nil, err
	}

	msgs = append(msgs, msg)

	uc.logger.Warn("saga %s compensating: %s", saga.ID, reason)

	return true, msgs, nil
}

// withConflictRetry loads the saga, lets the transition decide, and commits
// the update plus outgoing commands atomically. A version conflict means a
// concurrent delivery won the race; re-reading lets the duplicate checks
// settle it.
func (uc *UseCase) withConflictRetry(
	ctx context.Context,
	sagaID uuid.UUID,
	method string,
	transition func(saga *entity.SagaInstance) (bool, []*entity.OutboxMessage, error),
) error {
	for attempt := 1; ; attempt++ {
		saga, err := uc.sagaRepo.GetByID(ctx, sagaID)
		if err != nil {
			return fmt.Errorf("SagaUseCase - %s - uc.sagaRepo.GetByID: %w", method, err)
		}

		changed, msgs, err := transition(saga)
		if err != nil {
			return err
		}

		if !changed {
			return nil
		}

		err = uc.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
			if err := uc.sagaRepo.Update(txCtx, saga); err != nil {
				return err
			}

			for _, msg := range msgs {
				if err := uc.outboxRepo.Create(txCtx, msg); err != nil {
					return err
				}
			}

			return nil
		})
		if err == nil {
			return nil
		}

		if !errors.Is(err, errs.ErrConflict) || attempt >= _casAttempts {
			return fmt.Errorf("SagaUseCase - %s - uc.transactor.WithinTransaction: %w", method, err)
		}

		uc.logger.Debug("saga %s version conflict in %s, retrying", sagaID, method)
	}
}

// verifySubscription double-checks the participant's own view of the state.
// The event already proves the work happened, so a failed lookup is only
// worth a log line.
func (uc *UseCase) verifySubscription(ctx context.Context, subscriptionID uuid.UUID) {
	if uc.billing == nil {
		return
	}

	status, err := uc.billing.SubscriptionStatus(ctx, subscriptionID)
	if err != nil {
		uc.logger.Warn("subscription %s verification failed: %s", subscriptionID, err)
		return
	}

	if !status.IsActive {
		uc.logger.Warn("subscription %s reported status %s during verification", subscriptionID, status.Status)
	}
}

func (uc *UseCase) verifyTenant(ctx context.Context, tenantID uuid.UUID) {
	if uc.provisioning == nil {
		return
	}

	status, err := uc.provisioning.TenantStatus(ctx, tenantID)
	if err != nil {
		uc.logger.Warn("tenant %s verification failed: %s", tenantID, err)
		return
	}

	if !status.ReadyForUse {
		uc.logger.Warn("tenant %s reported status %s during verification", tenantID, status.Status)
	}
}
