// Package notification sends customer emails and keeps a log row per
// delivery. The saga-driven welcome email is idempotent by saga id; invoice
// emails are fired directly through the REST surface.
package notification

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
	EmailTypeWelcome = "welcome"
	EmailTypeInvoice = "invoice"
)

type UseCase struct {
	emailRepo  repo.EmailLogRepo
	outboxRepo repo.OutboxRepo
	transactor repo.Transactor
	mailer     infrastructure.Mailer
	logger     logger.Interface
}

func New(
	emailRepo repo.EmailLogRepo,
	outboxRepo repo.OutboxRepo,
	transactor repo.Transactor,
	mailer infrastructure.Mailer,
	l logger.Interface,
) *UseCase {
	return &UseCase{
		emailRepo:  emailRepo,
		outboxRepo: outboxRepo,
		transactor: transactor,
		mailer:     mailer,
		logger:     l,
	}
}

// HandleSendWelcomeEmail delivers the onboarding email. The log row and the
// email-sent event are only written after the mailer accepted the message,
// so a delivery failure leaves nothing behind and redelivery retries cleanly.
func (uc *UseCase) HandleSendWelcomeEmail(ctx context.Context, cmd event.SendWelcomeEmail) error {
	existing, err := uc.emailRepo.GetBySagaID(ctx, cmd.SagaID)
	if err == nil {
		uc.logger.Debug("saga %s already has email %s, duplicate command ignored", cmd.SagaID, existing.ID)
		return nil
	}

	if !errors.Is(err, errs.ErrRecordNotFound) {
		return fmt.Errorf("NotificationUseCase - HandleSendWelcomeEmail - uc.emailRepo.GetBySagaID: %w", err)
	}

	sagaID := cmd.SagaID

	email := &entity.EmailLog{
		ID:             uuid.New(),
		SagaID:         &sagaID,
		SubscriptionID: cmd.SubscriptionID,
		RecipientEmail: cmd.RecipientEmail,
		EmailType:      EmailTypeWelcome,
		Subject:        fmt.Sprintf("Welcome to %s!", cmd.TenantName),
		Body:           fmt.Sprintf("Your tenant %q is ready to use.", cmd.TenantName),
		Status:         entity.EmailPending,
		CreatedAt:      time.Now(),
	}

	if err := uc.deliver(ctx, email); err != nil {
		return fmt.Errorf("NotificationUseCase - HandleSendWelcomeEmail - uc.deliver: %w", err)
	}

	uc.logger.Info("welcome email %s sent for saga %s", email.ID, cmd.SagaID)

	return nil
}

// SendInvoiceEmail delivers a billing notice outside any saga.
func (uc *UseCase) SendInvoiceEmail(ctx context.Context, subscriptionID uuid.UUID, recipientEmail string, amount float64) (*entity.EmailLog, error) {
	email := &entity.EmailLog{
		ID:             uuid.New(),
		SubscriptionID: subscriptionID,
		RecipientEmail: recipientEmail,
		EmailType:      EmailTypeInvoice,
		Subject:        "Your invoice is ready",
		Body:           fmt.Sprintf("Invoice for subscription %s: $%.2f", subscriptionID, amount),
		Status:         entity.EmailPending,
		CreatedAt:      time.Now(),
	}

	if err := uc.deliver(ctx, email); err != nil {
		return nil, fmt.Errorf("NotificationUseCase - SendInvoiceEmail - uc.deliver: %w", err)
	}

	uc.logger.Info("invoice email %s sent for subscription %s", email.ID, subscriptionID)

	return email, nil
}

func (uc *UseCase) GetEmailLog(ctx context.Context, id uuid.UUID) (*entity.EmailLog, error) {
	email, err := uc.emailRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("NotificationUseCase - GetEmailLog - uc.emailRepo.GetByID: %w", err)
	}

	return email, nil
}

func (uc *UseCase) deliver(ctx context.Context, email *entity.EmailLog) error {
	if err := uc.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("uc.mailer.Send: %w", err)
	}

	now := time.Now()
	email.Status = entity.EmailSent
	email.SentAt = &now

	e := event.EmailSent{
		EmailID:        email.ID,
		SubscriptionID: email.SubscriptionID,
		RecipientEmail: email.RecipientEmail,
		EmailType:      email.EmailType,
		SentAt:         now,
	}

	aggregateID := email.ID
	if email.SagaID != nil {
		e.SagaID = *email.SagaID
		aggregateID = *email.SagaID
	}

	msg, err := outbox.NewMessage(aggregateID, event.KindEmailSent, e)
	if err != nil {
		return fmt.Errorf("outbox.NewMessage: %w", err)
	}

	err = uc.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.emailRepo.Create(txCtx, email); err != nil {
			return err
		}

		return uc.outboxRepo.Create(txCtx, msg)
	})
	if err != nil {
		return fmt.Errorf("uc.transactor.WithinTransaction: %w", err)
	}

	return nil
}
