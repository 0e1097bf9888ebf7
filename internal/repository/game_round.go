package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
)

const gameRoundColumns = `id, account_id, state, candidates, selection, winning,
	stake, matches, payout, entry_id, created_at, resolved_at`

type GameRoundRepository struct {
	db *sql.DB
}

func NewGameRoundRepository(db *sql.DB) *GameRoundRepository {
	return &GameRoundRepository{db: db}
}

func (r *GameRoundRepository) Create(ctx context.Context, round *domain.GameRound) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO game_rounds (id, account_id, state, candidates, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		round.ID, round.AccountID, round.State, pq.Array(toInt64s(round.Candidates)), round.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *GameRoundRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.GameRound, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+gameRoundColumns+` FROM game_rounds WHERE id = $1`, id)
	g, err := scanGameRound(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return g, nil
}

func (r *GameRoundRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.GameRound, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+gameRoundColumns+` FROM game_rounds WHERE id = $1 FOR UPDATE`, id)
	g, err := scanGameRound(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return g, nil
}

// SaveResolved persists the outcome of a resolved round.
func (r *GameRoundRepository) SaveResolved(ctx context.Context, tx *sql.Tx, round *domain.GameRound) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE game_rounds
		SET state = $1, selection = $2, winning = $3, stake = $4, matches = $5,
			payout = $6, entry_id = $7, resolved_at = $8
		WHERE id = $9`,
		round.State, pq.Array(toInt64s(round.Selection)), pq.Array(toInt64s(round.Winning)),
		round.Stake, round.Matches, round.Payout, round.EntryID, round.ResolvedAt, round.ID,
	)
	if err != nil {
		return fmt.Errorf("SaveResolved: %w", err)
	}
	return nil
}

func scanGameRound(s scanner) (*domain.GameRound, error) {
	var (
		g                              domain.GameRound
		candidates, selection, winning pq.Int64Array
	)
	err := s.Scan(
		&g.ID, &g.AccountID, &g.State, &candidates, &selection, &winning,
		&g.Stake, &g.Matches, &g.Payout, &g.EntryID, &g.CreatedAt, &g.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Candidates = toInts(candidates)
	g.Selection = toInts(selection)
	g.Winning = toInts(winning)
	return &g, nil
}

func toInt64s(xs []int) []int64 {
	if xs == nil {
		return nil
	}
	out := make([]int64, len(xs))
	for i, x := range xs {
		out[i] = int64(x)
	}
	return out
}

func toInts(xs []int64) []int {
	if xs == nil {
		return nil
	}
	out := make([]int, len(xs))
	for i, x := range xs {
		out[i] = int(x)
	}
	return out
}
