package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/dnsokolov/saas-onboarding/pkg/postgres"
	"github.com/google/uuid"
)

const (
	// Table
	outboxTable = "outbox_messages"

	// Columns
	outboxIDColumn          = "id"
	outboxAggregateIDColumn = "aggregate_id"
	outboxEventTypeColumn   = "event_type"
	outboxPayloadColumn     = "payload"
	outboxProducedColumn    = "produced"
	outboxCreatedAtColumn   = "created_at"
	outboxProducedAtColumn  = "produced_at"
)

// OutboxRepo owns one participant's outbox_messages table. Rows are written
// inside the caller's transaction and kept forever; the relay flips produced
// after a confirmed broker ack.
type OutboxRepo struct {
	*postgres.Postgres
}

func NewOutboxRepo(pg *postgres.Postgres) *OutboxRepo {
	return &OutboxRepo{pg}
}

func (r *OutboxRepo) Create(ctx context.Context, msg *entity.OutboxMessage) error {
	sql, args, err := r.Builder.
		Insert(outboxTable).
		Columns(
			outboxIDColumn,
			outboxAggregateIDColumn,
			outboxEventTypeColumn,
			outboxPayloadColumn,
			outboxProducedColumn,
			outboxCreatedAtColumn,
		).
		Values(
			msg.ID,
			msg.AggregateID,
			msg.EventType,
			msg.Payload,
			msg.Produced,
			msg.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

// GetUnproduced returns pending rows oldest first, so events of one aggregate
// are published in emission order.
func (r *OutboxRepo) GetUnproduced(ctx context.Context, limit int) ([]*entity.OutboxMessage, error) {
	sql, args, err := r.Builder.
		Select(
			outboxIDColumn,
			outboxAggregateIDColumn,
			outboxEventTypeColumn,
			outboxPayloadColumn,
			outboxProducedColumn,
			outboxCreatedAtColumn,
			outboxProducedAtColumn,
		).
		From(outboxTable).
		Where(squirrel.Eq{outboxProducedColumn: false}).
		OrderBy(outboxCreatedAtColumn + " ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - GetUnproduced - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - GetUnproduced - executor.Query: %w", err)
	}
	defer rows.Close()

	msgs := make([]*entity.OutboxMessage, 0, limit)
	for rows.Next() {
		var msg entity.OutboxMessage
		err = rows.Scan(
			&msg.ID,
			&msg.AggregateID,
			&msg.EventType,
			&msg.Payload,
			&msg.Produced,
			&msg.CreatedAt,
			&msg.ProducedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("OutboxRepo - GetUnproduced - rows.Scan: %w", err)
		}
		msgs = append(msgs, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("OutboxRepo - GetUnproduced - rows.Err: %w", err)
	}

	return msgs, nil
}

// MarkProducedBatch is idempotent: rows already marked or no longer present
// are skipped without error, so a crash between broker ack and mark only
// causes a safe re-publish.
func (r *OutboxRepo) MarkProducedBatch(ctx context.Context, ids uuid.UUIDs) error {
	if len(ids) == 0 {
		return nil
	}

	now := time.Now()

	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxProducedColumn, true).
		Set(outboxProducedAtColumn, now).
		Where(squirrel.And{
			squirrel.Eq{outboxIDColumn: ids},
			squirrel.Eq{outboxProducedColumn: false},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - MarkProducedBatch - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - MarkProducedBatch - executor.Exec: %w", err)
	}

	return nil
}
