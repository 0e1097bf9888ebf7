package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
)

const entryEventColumns = `id, entry_id, event_type, actor, payload, created_at`

type EntryEventRepository struct {
	db *sql.DB
}

func NewEntryEventRepository(db *sql.DB) *EntryEventRepository {
	return &EntryEventRepository{db: db}
}

func (r *EntryEventRepository) Create(ctx context.Context, tx *sql.Tx, event *domain.EntryEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO entry_events (id, entry_id, event_type, actor, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.EntryID, event.EventType, event.Actor,
		nullJSON(event.Payload), event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *EntryEventRepository) ListByEntry(ctx context.Context, entryID uuid.UUID) ([]domain.EntryEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryEventColumns+` FROM entry_events
		WHERE entry_id = $1 ORDER BY created_at`, entryID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByEntry: %w", err)
	}
	defer rows.Close()

	var events []domain.EntryEvent
	for rows.Next() {
		e, err := scanEntryEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByEntry: scan: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByEntry: rows: %w", err)
	}
	return events, nil
}

func scanEntryEvent(s scanner) (*domain.EntryEvent, error) {
	var (
		e       domain.EntryEvent
		payload []byte
	)
	err := s.Scan(
		&e.ID, &e.EntryID, &e.EventType, &e.Actor,
		&payload, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Payload = payload
	return &e, nil
}
