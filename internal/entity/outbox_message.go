package entity

import (
	"time"

	"github.com/google/uuid"
)

// OutboxMessage is one pending event or command. A row is written in the same
// transaction as the business mutation it announces and is retained after
// production; Produced flips false->true exactly once, after a confirmed
// broker acknowledgment.
type OutboxMessage struct {
	ID          uuid.UUID  `json:"id"`
	AggregateID uuid.UUID  `json:"aggregate_id"`
	EventType   string     `json:"event_type"`
	Payload     []byte     `json:"payload"`
	Produced    bool       `json:"produced"`
	CreatedAt   time.Time  `json:"created_at"`
	ProducedAt  *time.Time `json:"produced_at,omitempty"`
}
