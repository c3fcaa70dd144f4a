package usecase

import (
	"context"

	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/dnsokolov/saas-onboarding/internal/event"
	"github.com/google/uuid"
)

type (
	// SagaUseCase drives the onboarding state machine. Start is the only
	// external entry point; the Handle* operations are fed by consumed
	// events and must be idempotent under redelivery.
	SagaUseCase interface {
		Start(ctx context.Context, customerID uuid.UUID, planID, tenantName string) (*entity.SagaInstance, error)
		Get(ctx context.Context, id uuid.UUID) (*entity.SagaInstance, error)
		List(ctx context.Context, status *entity.SagaStatus, limit, offset int) ([]*entity.SagaInstance, error)
		HandleSubscriptionCreated(ctx context.Context, e event.SubscriptionCreated) error
		HandleTenantProvisioned(ctx context.Context, e event.TenantProvisioned) error
		HandleTenantProvisioningFailed(ctx context.Context, e event.TenantProvisioningFailed) error
		HandleEmailSent(ctx context.Context, e event.EmailSent) error
		Compensate(ctx context.Context, id uuid.UUID) error
	}

	BillingUseCase interface {
		HandleCreateSubscription(ctx context.Context, cmd event.CreateSubscription) error
		HandleCancelSubscription(ctx context.Context, cmd event.CancelSubscription) error
		GetSubscription(ctx context.Context, id uuid.UUID) (*entity.Subscription, error)
	}

	ProvisioningUseCase interface {
		HandleProvisionTenant(ctx context.Context, cmd event.ProvisionTenant) error
		HandleDeprovisionTenant(ctx context.Context, cmd event.DeprovisionTenant) error
		GetTenant(ctx context.Context, id uuid.UUID) (*entity.Tenant, error)
	}

	NotificationUseCase interface {
		HandleSendWelcomeEmail(ctx context.Context, cmd event.SendWelcomeEmail) error
		SendInvoiceEmail(ctx context.Context, subscriptionID uuid.UUID, recipientEmail string, amount float64) (*entity.EmailLog, error)
		GetEmailLog(ctx context.Context, id uuid.UUID) (*entity.EmailLog, error)
	}

	// OutboxUseCase is the relay-facing surface of a participant's outbox.
	OutboxUseCase interface {
		GetUnproduced(ctx context.Context, limit int) ([]*entity.OutboxMessage, error)
		MarkProducedBatch(ctx context.Context, msgs []*entity.OutboxMessage) error
	}
)
