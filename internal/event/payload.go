package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
	"github.com/google/uuid"
)

// Every payload carries saga_id end-to-end; no handler correlates by
// customer id. Consumers tolerate unknown extra fields, a missing required
// field is a parse failure.

type CreateSubscription struct {
	SagaID     uuid.UUID `json:"saga_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	PlanID     string    `json:"plan_id"`
}

func (p CreateSubscription) Validate() error {
	if p.SagaID == uuid.Nil {
		return missingField("saga_id")
	}
	if p.CustomerID == uuid.Nil {
		return missingField("customer_id")
	}
	if p.PlanID == "" {
		return missingField("plan_id")
	}

	return nil
}

type ProvisionTenant struct {
	SagaID         uuid.UUID `json:"saga_id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	TenantName     string    `json:"tenant_name"`
}

func (p ProvisionTenant) Validate() error {
	if p.SagaID == uuid.Nil {
		return missingField("saga_id")
	}
	if p.SubscriptionID == uuid.Nil {
		return missingField("subscription_id")
	}
	if p.TenantName == "" {
		return missingField("tenant_name")
	}

	return nil
}

type SendWelcomeEmail struct {
	SagaID         uuid.UUID `json:"saga_id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	TenantName     string    `json:"tenant_name"`
	RecipientEmail string    `json:"recipient_email"`
}

func (p SendWelcomeEmail) Validate() error {
	if p.SagaID == uuid.Nil {
		return missingField("saga_id")
	}
	if p.SubscriptionID == uuid.Nil {
		return missingField("subscription_id")
	}
	if p.RecipientEmail == "" {
		return missingField("recipient_email")
	}

	return nil
}

type CancelSubscription struct {
	SagaID         uuid.UUID `json:"saga_id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
}

func (p CancelSubscription) Validate() error {
	if p.SagaID == uuid.Nil {
		return missingField("saga_id")
	}
	if p.SubscriptionID == uuid.Nil {
		return missingField("subscription_id")
	}

	return nil
}

type DeprovisionTenant struct {
	SagaID   uuid.UUID `json:"saga_id"`
	TenantID uuid.UUID `json:"tenant_id"`
}

func (p DeprovisionTenant) Validate() error {
	if p.SagaID == uuid.Nil {
		return missingField("saga_id")
	}
	if p.TenantID == uuid.Nil {
		return missingField("tenant_id")
	}

	return nil
}

type SubscriptionCreated struct {
	SagaID         uuid.UUID `json:"saga_id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	PlanID         string    `json:"plan_id"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func (p SubscriptionCreated) Validate() error {
	if p.SagaID == uuid.Nil {
		return missingField("saga_id")
	}
	if p.SubscriptionID == uuid.Nil {
		return missingField("subscription_id")
	}

	return nil
}

type SubscriptionCancelled struct {
	SagaID         uuid.UUID `json:"saga_id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	CancelledAt    time.Time `json:"cancelled_at"`
}

func (p SubscriptionCancelled) Validate() error {
	if p.SagaID == uuid.Nil {
		return missingField("saga_id")
	}
	if p.SubscriptionID == uuid.Nil {
		return missingField("subscription_id")
	}

	return nil
}

type TenantProvisioned struct {
	SagaID         uuid.UUID `json:"saga_id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	TenantName     string    `json:"tenant_name"`
	Status         string    `json:"status"`
	ProvisionedAt  time.Time `json:"provisioned_at"`
}

func (p TenantProvisioned) Validate() error {
	if p.SagaID == uuid.Nil {
		return missingField("saga_id")
	}
	if p.TenantID == uuid.Nil {
		return missingField("tenant_id")
	}

	return nil
}

type TenantProvisioningFailed struct {
	SagaID         uuid.UUID `json:"saga_id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	TenantName     string    `json:"tenant_name"`
	ErrorMessage   string    `json:"error_message"`
	Attempts       int       `json:"attempts"`
}

func (p TenantProvisioningFailed) Validate() error {
	if p.SagaID == uuid.Nil {
		return missingField("saga_id")
	}
	if p.ErrorMessage == "" {
		return missingField("error_message")
	}

	return nil
}

type TenantDeprovisioned struct {
	SagaID          uuid.UUID `json:"saga_id"`
	TenantID        uuid.UUID `json:"tenant_id"`
	SubscriptionID  uuid.UUID `json:"subscription_id"`
	DeprovisionedAt time.Time `json:"deprovisioned_at"`
}

func (p TenantDeprovisioned) Validate() error {
	if p.SagaID == uuid.Nil {
		return missingField("saga_id")
	}
	if p.TenantID == uuid.Nil {
		return missingField("tenant_id")
	}

	return nil
}

type EmailSent struct {
	SagaID         uuid.UUID `json:"saga_id"`
	EmailID        uuid.UUID `json:"email_id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	RecipientEmail string    `json:"recipient_email"`
	EmailType      string    `json:"email_type"`
	SentAt         time.Time `json:"sent_at"`
}

func (p EmailSent) Validate() error {
	if p.SagaID == uuid.Nil {
		return missingField("saga_id")
	}
	if p.EmailID == uuid.Nil {
		return missingField("email_id")
	}

	return nil
}

type payload interface {
	Validate() error
}

// Decode unmarshals and validates a message body. Both failure modes come
// back wrapped in errs.ErrMalformedPayload so consumers treat them as poison
// messages rather than retryable errors.
func Decode[T payload](data []byte) (T, error) {
	var p T

	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("event - Decode - json.Unmarshal: %s: %w", err, errs.ErrMalformedPayload)
	}

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("event - Decode: %w", err)
	}

	return p, nil
}

func missingField(name string) error {
	return fmt.Errorf("missing required field %q: %w", name, errs.ErrMalformedPayload)
}
