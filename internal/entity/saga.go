package entity

import (
	"time"

	"github.com/google/uuid"
)

type SagaStatus string

const (
	SagaPending      SagaStatus = "pending"
	SagaProvisioning SagaStatus = "provisioning"
	SagaNotifying    SagaStatus = "notifying"
	SagaCompleted    SagaStatus = "completed"
	SagaCompensating SagaStatus = "compensating"
	SagaCompensated  SagaStatus = "compensated"
	SagaFailed       SagaStatus = "failed"
)

// Terminal reports whether a saga can no longer move.
func (s SagaStatus) Terminal() bool {
	return s == SagaCompleted || s == SagaCompensated || s == SagaFailed
}

type SagaStep string

const (
	StepInitiateBilling  SagaStep = "initiate_billing"
	StepProvisionTenant  SagaStep = "provision_tenant"
	StepSendWelcomeEmail SagaStep = "send_welcome_email"
	StepCompensate       SagaStep = "compensate"
	StepFinished         SagaStep = "finished"
)

// SagaInstance is one onboarding attempt. SubscriptionID is the pivot fact:
// once set it is never cleared, and any later failure must compensate instead
// of just failing.
type SagaInstance struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	PlanID     string    `json:"plan_id"`
	TenantName string    `json:"tenant_name"`

	SubscriptionID *uuid.UUID `json:"subscription_id,omitempty"`
	TenantID       *uuid.UUID `json:"tenant_id,omitempty"`
	EmailID        *uuid.UUID `json:"email_id,omitempty"`

	Status      SagaStatus `json:"status"`
	CurrentStep SagaStep   `json:"current_step"`

	ErrorMessage       *string `json:"error_message,omitempty"`
	CompensationNeeded bool    `json:"compensation_needed"`

	// Version guards read-modify-write cycles; updates are conditional on it.
	Version int `json:"version"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
