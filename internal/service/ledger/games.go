package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/events"
	"github.com/josh-kwaku/naira-wallet/internal/game"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
	"github.com/josh-kwaku/naira-wallet/internal/policy"
)

const (
	gameLuckyNumbers = "lucky_numbers"
	gameNumberGuess  = "number_guess"
)

type gameMetadata struct {
	Game    string     `json:"game"`
	RoundID *uuid.UUID `json:"round_id,omitempty"`
	Picks   []int      `json:"picks"`
	Drawn   []int      `json:"drawn"`
	Matches int        `json:"matches"`
	Stake   int64      `json:"stake"`
	Payout  int64      `json:"payout"`
}

// OpenLuckyRound deals a fresh set of candidates for the player to pick from.
func (e *Executor) OpenLuckyRound(ctx context.Context, accountID uuid.UUID) (*domain.GameRound, error) {
	if err := e.precheckActive(ctx, accountID); err != nil {
		return nil, fmt.Errorf("OpenLuckyRound: %w", err)
	}

	round, err := e.engine.Open(accountID)
	if err != nil {
		return nil, fmt.Errorf("OpenLuckyRound: %w", err)
	}
	round.CreatedAt = e.now()

	if err := e.repos.Rounds.Create(ctx, round); err != nil {
		return nil, fmt.Errorf("OpenLuckyRound: %w", err)
	}
	return round, nil
}

type LuckyPlayIntent struct {
	AccountID uuid.UUID
	UserID    uuid.UUID
	RoundID   uuid.UUID
	Stake     int64
	Picks     []int
}

type LuckyResult struct {
	Result
	Round *domain.GameRound
}

// PlayLuckyRound commits the picks, draws and settles in one transaction.
// If the stake cannot be covered nothing changes and the round stays open.
func (e *Executor) PlayLuckyRound(ctx context.Context, in LuckyPlayIntent) (*LuckyResult, error) {
	if err := policy.CheckAmount(policy.OpLuckyNumbers, in.Stake); err != nil {
		return nil, fmt.Errorf("PlayLuckyRound: %w", err)
	}

	var out *LuckyResult
	err := e.atomically(ctx, func(tx *sql.Tx) error {
		round, err := e.repos.Rounds.GetForUpdate(ctx, tx, in.RoundID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrRoundNotOpen
			}
			return err
		}
		if round.AccountID != in.AccountID {
			return domain.ErrRoundNotOpen
		}

		if err := game.Commit(round, in.Stake, in.Picks); err != nil {
			return err
		}
		if err := e.engine.Resolve(round); err != nil {
			return err
		}

		now := e.now()
		round.ResolvedAt = &now
		res, err := e.settleGame(ctx, tx, in.AccountID, in.UserID, round.Stake, round.Payout, gameMetadata{
			Game:    gameLuckyNumbers,
			RoundID: &round.ID,
			Picks:   round.Selection,
			Drawn:   round.Winning,
			Matches: round.Matches,
			Stake:   round.Stake,
			Payout:  round.Payout,
		})
		if err != nil {
			return err
		}

		round.EntryID = &res.Entry.ID
		if err := e.repos.Rounds.SaveResolved(ctx, tx, round); err != nil {
			return err
		}
		out = &LuckyResult{Result: *res, Round: round}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("PlayLuckyRound: %w", err)
	}

	e.publish(ctx, events.RoutingEntryCreated, events.NewEntryEvent(out.Entry, string(UserActor(in.UserID))))
	logging.FromContext(ctx).Info("lucky numbers settled",
		"entry_id", out.Entry.ID,
		"round_id", out.Round.ID,
		"matches", out.Round.Matches,
		"stake", out.Round.Stake,
		"payout", out.Round.Payout,
	)
	return out, nil
}

type GuessIntent struct {
	AccountID uuid.UUID
	UserID    uuid.UUID
	Stake     int64
	Guess     int
}

type GuessResult struct {
	Result
	Drawn  int
	Won    bool
	Payout int64
}

func (e *Executor) PlayNumberGuess(ctx context.Context, in GuessIntent) (*GuessResult, error) {
	if err := policy.CheckAmount(policy.OpNumberGuess, in.Stake); err != nil {
		return nil, fmt.Errorf("PlayNumberGuess: %w", err)
	}
	if err := game.ValidateGuess(in.Guess); err != nil {
		return nil, fmt.Errorf("PlayNumberGuess: %w", err)
	}

	drawn, err := e.engine.Guess()
	if err != nil {
		return nil, fmt.Errorf("PlayNumberGuess: %w", err)
	}
	won := drawn == in.Guess
	payout := policy.NumberGuessPayout(in.Stake, won)
	matches := 0
	if won {
		matches = 1
	}

	var res *Result
	err = e.atomically(ctx, func(tx *sql.Tx) error {
		r, err := e.settleGame(ctx, tx, in.AccountID, in.UserID, in.Stake, payout, gameMetadata{
			Game:    gameNumberGuess,
			Picks:   []int{in.Guess},
			Drawn:   []int{drawn},
			Matches: matches,
			Stake:   in.Stake,
			Payout:  payout,
		})
		res = r
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("PlayNumberGuess: %w", err)
	}

	e.publish(ctx, events.RoutingEntryCreated, events.NewEntryEvent(res.Entry, string(UserActor(in.UserID))))
	logging.FromContext(ctx).Info("number guess settled",
		"entry_id", res.Entry.ID, "won", won, "stake", in.Stake, "payout", payout)

	return &GuessResult{Result: *res, Drawn: drawn, Won: won, Payout: payout}, nil
}

// settleGame debits the stake and credits any payout under one completed
// entry. The stake must be covered before the payout is considered.
func (e *Executor) settleGame(ctx context.Context, tx *sql.Tx, accountID, userID uuid.UUID, stake, payout int64, meta gameMetadata) (*Result, error) {
	acct, err := e.lockActive(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	desc := "Lost the game"
	if payout > 0 {
		desc = fmt.Sprintf("Won %s", formatNaira(payout))
	}

	now := e.now()
	entry := &domain.LedgerEntry{
		ID:          uuid.New(),
		Kind:        domain.EntryKindGame,
		Status:      domain.EntryStatusCompleted,
		AccountID:   accountID,
		Amount:      stake,
		Description: desc,
		Metadata:    mustJSON(meta),
		CreatedAt:   now,
		ResolvedAt:  &now,
	}
	if err := e.repos.Entries.Create(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := e.post(ctx, tx, entry.ID, acct, domain.DirectionDebit, domain.CurrencyNGN, stake); err != nil {
		return nil, err
	}
	if payout > 0 {
		if err := e.post(ctx, tx, entry.ID, acct, domain.DirectionCredit, domain.CurrencyNGN, payout); err != nil {
			return nil, err
		}
	}
	if err := e.audit(ctx, tx, entry.ID, domain.EntryEventCompleted, UserActor(userID), entry.Metadata); err != nil {
		return nil, err
	}
	return &Result{Entry: entry, Account: acct}, nil
}

func formatNaira(kobo int64) string {
	return fmt.Sprintf("₦%d.%02d", kobo/policy.KoboPerNaira, kobo%policy.KoboPerNaira)
}
