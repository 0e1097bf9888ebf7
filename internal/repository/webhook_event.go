package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
)

const webhookEventColumns = `id, event_type, reference, payload, status,
	attempts, last_error, last_attempt, created_at`

type WebhookEventRepository struct {
	db *sql.DB
}

func NewWebhookEventRepository(db *sql.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

func (r *WebhookEventRepository) Create(ctx context.Context, event *domain.WebhookEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO webhook_events (
			id, event_type, reference, payload, status, attempts, last_error, last_attempt, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.EventType, event.Reference, string(event.Payload),
		event.Status, event.Attempts, event.LastError, event.LastAttempt, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// ClaimFailed locks up to limit failed events that have not exhausted
// maxAttempts. Rows stay locked until tx ends, so concurrent replayers skip
// each other's work.
func (r *WebhookEventRepository) ClaimFailed(ctx context.Context, tx *sql.Tx, maxAttempts, limit int) ([]domain.WebhookEvent, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+webhookEventColumns+` FROM webhook_events
		WHERE status = $1 AND attempts < $2
		ORDER BY created_at LIMIT $3 FOR UPDATE SKIP LOCKED`,
		domain.WebhookEventStatusFailed, maxAttempts, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ClaimFailed: %w", err)
	}
	defer rows.Close()

	var events []domain.WebhookEvent
	for rows.Next() {
		e, err := scanWebhookEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("ClaimFailed: scan: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ClaimFailed: rows: %w", err)
	}
	return events, nil
}

// MarkAttempt records a processing attempt. lastError is cleared when nil.
func (r *WebhookEventRepository) MarkAttempt(ctx context.Context, exec Execer, id uuid.UUID, status domain.WebhookEventStatus, lastError *string) error {
	res, err := exec.ExecContext(ctx,
		`UPDATE webhook_events
		SET status = $1, last_error = $2, attempts = attempts + 1, last_attempt = now()
		WHERE id = $3`,
		status, lastError, id,
	)
	if err != nil {
		return fmt.Errorf("MarkAttempt: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("MarkAttempt: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("MarkAttempt: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *WebhookEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookEvent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+webhookEventColumns+` FROM webhook_events WHERE id = $1`, id)
	e, err := scanWebhookEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return e, nil
}

func scanWebhookEvent(s scanner) (*domain.WebhookEvent, error) {
	var (
		e       domain.WebhookEvent
		payload []byte
	)
	err := s.Scan(
		&e.ID, &e.EventType, &e.Reference, &payload, &e.Status,
		&e.Attempts, &e.LastError, &e.LastAttempt, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Payload = payload
	return &e, nil
}
