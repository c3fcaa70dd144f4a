package entity

import (
	"time"

	"github.com/google/uuid"
)

type TenantStatus string

const (
	TenantActive        TenantStatus = "active"
	TenantFailed        TenantStatus = "failed"
	TenantDeprovisioned TenantStatus = "deprovisioned"
)

type Tenant struct {
	ID             uuid.UUID    `json:"id"`
	SagaID         uuid.UUID    `json:"saga_id"`
	SubscriptionID uuid.UUID    `json:"subscription_id"`
	TenantName     string       `json:"tenant_name"`
	Status         TenantStatus `json:"status"`

	ProvisioningAttempts int     `json:"provisioning_attempts"`
	ErrorMessage         *string `json:"error_message,omitempty"`

	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ProvisionedAt *time.Time `json:"provisioned_at,omitempty"`
}
