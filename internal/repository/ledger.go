package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
)

const ledgerColumns = `id, kind, status, account_id, counterparty_account_id, amount,
	usdt_amount, usdt_rate, external_reference, description, metadata,
	failure_reason, resolved_by, created_at, resolved_at`

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, tx *sql.Tx, e *domain.LedgerEntry) error {
	var rate decimal.NullDecimal
	if e.USDTRate != nil {
		rate = decimal.NewNullDecimal(*e.USDTRate)
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (
			id, kind, status, account_id, counterparty_account_id, amount,
			usdt_amount, usdt_rate, external_reference, description, metadata,
			failure_reason, resolved_by, created_at, resolved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		e.ID, e.Kind, e.Status, e.AccountID, e.CounterpartyAccountID, e.Amount,
		e.USDTAmount, rate, e.ExternalReference, e.Description, nullJSON(e.Metadata),
		e.FailureReason, e.ResolvedBy, e.CreatedAt, e.ResolvedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrDuplicateEntry)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE id = $1`, id,
	)
	e, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrEntryNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return e, nil
}

func (r *LedgerRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.LedgerEntry, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE id = $1 FOR UPDATE`, id,
	)
	e, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrEntryNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return e, nil
}

func (r *LedgerRepository) GetByReference(ctx context.Context, reference string) (*domain.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE external_reference = $1`, reference,
	)
	e, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByReference: %w", domain.ErrEntryNotFound)
		}
		return nil, fmt.Errorf("GetByReference: %w", err)
	}
	return e, nil
}

// Resolve moves a pending entry to a terminal status. It fails with
// ErrAlreadyResolved if another writer got there first.
func (r *LedgerRepository) Resolve(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.EntryStatus, resolvedBy *uuid.UUID, failureReason *string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE ledger_entries
		SET status = $1, resolved_by = $2, failure_reason = $3, resolved_at = now()
		WHERE id = $4 AND status = 'pending'`,
		status, resolvedBy, failureReason, id,
	)
	if err != nil {
		return fmt.Errorf("Resolve: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Resolve: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Resolve: %w", domain.ErrAlreadyResolved)
	}
	return nil
}

// ListByAccount returns entries the account owns or received, newest first.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries
		WHERE account_id = $1 OR counterparty_account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: count: %w", err)
	}

	entries, err := r.query(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE account_id = $1 OR counterparty_account_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: %w", err)
	}
	return entries, total, nil
}

// ListPending returns pending entries oldest first. An empty kind matches
// every kind.
func (r *LedgerRepository) ListPending(ctx context.Context, kind domain.EntryKind, limit, offset int) ([]domain.LedgerEntry, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries
		WHERE status = 'pending' AND ($1::text = '' OR kind = $1::text)`, kind,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListPending: count: %w", err)
	}

	entries, err := r.query(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE status = 'pending' AND ($1::text = '' OR kind = $1::text)
		ORDER BY created_at LIMIT $2 OFFSET $3`,
		kind, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListPending: %w", err)
	}
	return entries, total, nil
}

// ListStalePending returns entries still pending that were created before
// cutoff.
func (r *LedgerRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.LedgerEntry, error) {
	entries, err := r.query(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at LIMIT $2`,
		cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ListStalePending: %w", err)
	}
	return entries, nil
}

func (r *LedgerRepository) query(ctx context.Context, q string, args ...any) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return entries, nil
}

func scanLedgerEntry(s scanner) (*domain.LedgerEntry, error) {
	var (
		e        domain.LedgerEntry
		rate     decimal.NullDecimal
		metadata []byte
	)
	err := s.Scan(
		&e.ID, &e.Kind, &e.Status, &e.AccountID, &e.CounterpartyAccountID, &e.Amount,
		&e.USDTAmount, &rate, &e.ExternalReference, &e.Description, &metadata,
		&e.FailureReason, &e.ResolvedBy, &e.CreatedAt, &e.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if rate.Valid {
		e.USDTRate = &rate.Decimal
	}
	e.Metadata = metadata
	return &e, nil
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
