package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
)

const postingColumns = `id, entry_id, account_id, direction, currency, amount,
	balance_before, balance_after, created_at`

type PostingRepository struct {
	db *sql.DB
}

func NewPostingRepository(db *sql.DB) *PostingRepository {
	return &PostingRepository{db: db}
}

func (r *PostingRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.Posting) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO postings (
			id, entry_id, account_id, direction, currency, amount,
			balance_before, balance_after, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.EntryID, p.AccountID, p.Direction, p.Currency, p.Amount,
		p.BalanceBefore, p.BalanceAfter, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PostingRepository) ListByEntry(ctx context.Context, entryID uuid.UUID) ([]domain.Posting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postingColumns+` FROM postings WHERE entry_id = $1 ORDER BY created_at, id`, entryID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByEntry: %w", err)
	}
	defer rows.Close()

	var postings []domain.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByEntry: scan: %w", err)
		}
		postings = append(postings, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByEntry: rows: %w", err)
	}
	return postings, nil
}

func scanPosting(s scanner) (*domain.Posting, error) {
	var p domain.Posting
	err := s.Scan(
		&p.ID, &p.EntryID, &p.AccountID, &p.Direction, &p.Currency, &p.Amount,
		&p.BalanceBefore, &p.BalanceAfter, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
