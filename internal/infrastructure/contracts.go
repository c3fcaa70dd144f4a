package infrastructure

import (
	"context"

	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/google/uuid"
)

type (
	// EventsSender publishes outbox rows to the broker. The aggregate id is
	// the partition key, the event type names the destination topic.
	EventsSender interface {
		SendMessages(ctx context.Context, msgs []*entity.OutboxMessage) error
		Close() error
	}

	// Provisioner performs the actual tenant provisioning work (cloud API
	// calls in a real deployment).
	Provisioner interface {
		Provision(ctx context.Context, tenant *entity.Tenant) error
		Deprovision(ctx context.Context, tenant *entity.Tenant) error
	}

	// Mailer delivers a single email (SMTP/provider API in a real deployment).
	Mailer interface {
		Send(ctx context.Context, email *entity.EmailLog) error
	}

	// BillingVerifier and ProvisioningVerifier are the best-effort
	// synchronous status checks the orchestrator makes after an event.
	// Results are informational only and never drive the state machine.
	BillingVerifier interface {
		SubscriptionStatus(ctx context.Context, subscriptionID uuid.UUID) (*SubscriptionStatus, error)
	}

	ProvisioningVerifier interface {
		TenantStatus(ctx context.Context, tenantID uuid.UUID) (*TenantStatus, error)
	}
)

type SubscriptionStatus struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	Status         string    `json:"status"`
	IsActive       bool      `json:"is_active"`
}

type TenantStatus struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	Status      string    `json:"status"`
	ReadyForUse bool      `json:"ready_for_use"`
}
