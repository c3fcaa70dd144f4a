package entity

import (
	"time"

	"github.com/google/uuid"
)

type EmailStatus string

const (
	EmailPending EmailStatus = "pending"
	EmailSent    EmailStatus = "sent"
)

// EmailLog is one delivery record. SagaID is set for saga-driven emails
// (welcome) and nil for standalone ones (invoice).
type EmailLog struct {
	ID             uuid.UUID   `json:"id"`
	SagaID         *uuid.UUID  `json:"saga_id,omitempty"`
	SubscriptionID uuid.UUID   `json:"subscription_id"`
	RecipientEmail string      `json:"recipient_email"`
	EmailType      string      `json:"email_type"` // welcome, invoice
	Subject        string      `json:"subject"`
	Body           string      `json:"body"`
	Status         EmailStatus `json:"status"`

	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}
