// Package billing implements the subscription side of onboarding. Commands
// arrive over Kafka and may arrive more than once; the saga id on each row
// is what makes redelivery harmless.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/dnsokolov/saas-onboarding/internal/event"
	"github.com/dnsokolov/saas-onboarding/internal/repo"
	"github.com/dnsokolov/saas-onboarding/internal/usecase/outbox"
	"github.com/dnsokolov/saas-onboarding/pkg/logger"
	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
	"github.com/google/uuid"
)

type UseCase struct {
	subscriptionRepo repo.SubscriptionRepo
	outboxRepo       repo.OutboxRepo
	transactor       repo.Transactor
	logger           logger.Interface
}

func New(
	subscriptionRepo repo.SubscriptionRepo,
	outboxRepo repo.OutboxRepo,
	transactor repo.Transactor,
	l logger.Interface,
) *UseCase {
	return &UseCase{
		subscriptionRepo: subscriptionRepo,
		outboxRepo:       outboxRepo,
		transactor:       transactor,
		logger:           l,
	}
}

// HandleCreateSubscription activates a subscription for the saga and queues
// the confirmation event in the same transaction.
func (uc *UseCase) HandleCreateSubscription(ctx context.Context, cmd event.CreateSubscription) error {
	existing, err := uc.subscriptionRepo.GetBySagaID(ctx, cmd.SagaID)
	if err == nil {
		uc.logger.Debug("saga %s already has subscription %s, duplicate command ignored", cmd.SagaID, existing.ID)
		return nil
	}

	if !errors.Is(err, errs.ErrRecordNotFound) {
		return fmt.Errorf("BillingUseCase - HandleCreateSubscription - uc.subscriptionRepo.GetBySagaID: %w", err)
	}

	now := time.Now()

	sub := &entity.Subscription{
		ID:         uuid.New(),
		SagaID:     cmd.SagaID,
		CustomerID: cmd.CustomerID,
		PlanID:     cmd.PlanID,
		Status:     entity.SubscriptionActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	e := event.SubscriptionCreated{
		SagaID:         cmd.SagaID,
		SubscriptionID: sub.ID,
		CustomerID:     cmd.CustomerID,
		PlanID:         cmd.PlanID,
		Status:         string(sub.Status),
		CreatedAt:      now,
	}

	msg, err := outbox.NewMessage(cmd.SagaID, event.KindSubscriptionCreated, e)
	if err != nil {
		return fmt.Errorf("BillingUseCase - HandleCreateSubscription - outbox.NewMessage: %w", err)
	}

	err = uc.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.subscriptionRepo.Create(txCtx, sub); err != nil {
			return err
		}

		return uc.outboxRepo.Create(txCtx, msg)
	})
	if err != nil {
		return fmt.Errorf("BillingUseCase - HandleCreateSubscription - uc.transactor.WithinTransaction: %w", err)
	}

	uc.logger.Info("subscription %s created for saga %s", sub.ID, cmd.SagaID)

	return nil
}

// HandleCancelSubscription is the compensating action. Cancelling an
// already cancelled subscription reports ErrAlreadyCancelled so callers can
// tell a duplicate from a first cancel.
func (uc *UseCase) HandleCancelSubscription(ctx context.Context, cmd event.CancelSubscription) error {
	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		return fmt.Errorf("BillingUseCase - HandleCancelSubscription - uc.subscriptionRepo.GetByID: %w", err)
	}

	if sub.Status == entity.SubscriptionCancelled {
		return fmt.Errorf("BillingUseCase - HandleCancelSubscription: %w", errs.ErrAlreadyCancelled)
	}

	now := time.Now()
	sub.Status = entity.SubscriptionCancelled
	sub.UpdatedAt = now
	sub.CancelledAt = &now

	e := event.SubscriptionCancelled{
		SagaID:         cmd.SagaID,
		SubscriptionID: sub.ID,
		CancelledAt:    now,
	}

	msg, err := outbox.NewMessage(cmd.SagaID, event.KindSubscriptionCancelled, e)
	if err != nil {
		return fmt.Errorf("BillingUseCase - HandleCancelSubscription - outbox.NewMessage: %w", err)
	}

	err = uc.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return err
		}

		return uc.outboxRepo.Create(txCtx, msg)
	})
	if err != nil {
		return fmt.Errorf("BillingUseCase - HandleCancelSubscription - uc.transactor.WithinTransaction: %w", err)
	}

	uc.logger.Info("subscription %s cancelled for saga %s", sub.ID, cmd.SagaID)

	return nil
}

func (uc *UseCase) GetSubscription(ctx context.Context, id uuid.UUID) (*entity.Subscription, error) {
	sub, err := uc.subscriptionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("BillingUseCase - GetSubscription - uc.subscriptionRepo.GetByID: %w", err)
	}

	return sub, nil
}
