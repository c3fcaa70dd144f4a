package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/dnsokolov/saas-onboarding/internal/event"
	"github.com/dnsokolov/saas-onboarding/internal/repo"
	"github.com/google/uuid"
)

// UseCase is the thin outbox surface the relay polls. Writing outbox rows
// stays with the business use cases so the row always shares their
// transaction; this type only reads and marks.
type UseCase struct {
	outboxRepo repo.OutboxRepo
}

func New(outboxRepo repo.OutboxRepo) *UseCase {
	return &UseCase{outboxRepo: outboxRepo}
}

func (uc *UseCase) GetUnproduced(ctx context.Context, limit int) ([]*entity.OutboxMessage, error) {
	msgs, err := uc.outboxRepo.GetUnproduced(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("OutboxUseCase - GetUnproduced - uc.outboxRepo.GetUnproduced: %w", err)
	}

	return msgs, nil
}

func (uc *UseCase) MarkProducedBatch(ctx context.Context, msgs []*entity.OutboxMessage) error {
	var ids uuid.UUIDs

	for _, msg := range msgs {
		ids = append(ids, msg.ID)
	}

	err := uc.outboxRepo.MarkProducedBatch(ctx, ids)
	if err != nil {
		return fmt.Errorf("OutboxUseCase - MarkProducedBatch - uc.outboxRepo.MarkProducedBatch: %w", err)
	}

	return nil
}

// NewMessage builds an unproduced outbox row for a payload of the given
// kind, keyed by the aggregate the event belongs to.
func NewMessage(aggregateID uuid.UUID, kind event.Kind, payload any) (*entity.OutboxMessage, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("outbox - NewMessage - json.Marshal: %w", err)
	}

	return &entity.OutboxMessage{
		ID:          uuid.New(),
		AggregateID: aggregateID,
		EventType:   kind.Topic(),
		Payload:     b,
		Produced:    false,
		CreatedAt:   time.Now(),
	}, nil
}
