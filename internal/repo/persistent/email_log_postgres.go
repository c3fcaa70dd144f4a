package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/dnsokolov/saas-onboarding/pkg/postgres"
	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	emailLogTable = "email_logs"

	// Columns
	emailIDColumn             = "id"
	emailSagaIDColumn         = "saga_id"
	emailSubscriptionIDColumn = "subscription_id"
	emailRecipientColumn      = "recipient_email"
	emailTypeColumn           = "email_type"
	emailSubjectColumn        = "subject"
	emailBodyColumn           = "body"
	emailStatusColumn         = "status"
	emailCreatedAtColumn      = "created_at"
	emailSentAtColumn         = "sent_at"
)

var emailLogColumns = []string{
	emailIDColumn,
	emailSagaIDColumn,
	emailSubscriptionIDColumn,
	emailRecipientColumn,
	emailTypeColumn,
	emailSubjectColumn,
	emailBodyColumn,
	emailStatusColumn,
	emailCreatedAtColumn,
	emailSentAtColumn,
}

type EmailLogRepo struct {
	*postgres.Postgres
}

func NewEmailLogRepo(pg *postgres.Postgres) *EmailLogRepo {
	return &EmailLogRepo{pg}
}

func (r *EmailLogRepo) Create(ctx context.Context, email *entity.EmailLog) error {
	sql, args, err := r.Builder.
		Insert(emailLogTable).
		Columns(emailLogColumns...).
		Values(
			email.ID,
			email.SagaID,
			email.SubscriptionID,
			email.RecipientEmail,
			email.EmailType,
			email.Subject,
			email.Body,
			email.Status,
			email.CreatedAt,
			email.SentAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("EmailLogRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("EmailLogRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *EmailLogRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.EmailLog, error) {
	return r.getOne(ctx, squirrel.Eq{emailIDColumn: id}, "GetByID")
}

func (r *EmailLogRepo) GetBySagaID(ctx context.Context, sagaID uuid.UUID) (*entity.EmailLog, error) {
	return r.getOne(ctx, squirrel.Eq{emailSagaIDColumn: sagaID}, "GetBySagaID")
}

func (r *EmailLogRepo) Update(ctx context.Context, email *entity.EmailLog) error {
	sql, args, err := r.Builder.
		Update(emailLogTable).
		Set(emailStatusColumn, email.Status).
		Set(emailSentAtColumn, email.SentAt).
		Where(squirrel.Eq{emailIDColumn: email.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("EmailLogRepo - Update - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("EmailLogRepo - Update - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("EmailLogRepo - Update: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *EmailLogRepo) getOne(ctx context.Context, where squirrel.Eq, method string) (*entity.EmailLog, error) {
	sql, args, err := r.Builder.
		Select(emailLogColumns...).
		From(emailLogTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("EmailLogRepo - %s - r.Builder.ToSql: %w", method, err)
	}

	executor := r.GetExecutor(ctx)

	var email entity.EmailLog
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&email.ID,
		&email.SagaID,
		&email.SubscriptionID,
		&email.RecipientEmail,
		&email.EmailType,
		&email.Subject,
		&email.Body,
		&email.Status,
		&email.CreatedAt,
		&email.SentAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("EmailLogRepo - %s: %w", method, errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("EmailLogRepo - %s - QueryRow.Scan: %w", method, err)
	}

	return &email, nil
}
