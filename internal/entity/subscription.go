package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type Subscription struct {
	ID         uuid.UUID          `json:"id"`
	SagaID     uuid.UUID          `json:"saga_id"`
	CustomerID uuid.UUID          `json:"customer_id"`
	PlanID     string             `json:"plan_id"`
	Status     SubscriptionStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}
