package game

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/policy"
)

// Open starts a round in the selecting state with fresh candidates.
func (e *Engine) Open(accountID uuid.UUID) (*domain.GameRound, error) {
	candidates, err := e.Candidates()
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	return &domain.GameRound{
		ID:         uuid.New(),
		AccountID:  accountID,
		State:      domain.RoundStateSelecting,
		Candidates: candidates,
	}, nil
}

// Commit records the player's picks and stake. Picks must be PickCount
// distinct members of the round's candidates.
func Commit(r *domain.GameRound, stake int64, picks []int) error {
	if r.State != domain.RoundStateSelecting {
		return fmt.Errorf("Commit: round is %s: %w", r.State, domain.ErrRoundNotOpen)
	}
	if len(picks) != PickCount {
		return fmt.Errorf("Commit: need exactly %d picks: %w", PickCount, domain.ErrInvalidSelection)
	}
	seen := make(map[int]struct{}, len(picks))
	for _, p := range picks {
		if _, dup := seen[p]; dup {
			return fmt.Errorf("Commit: duplicate pick %d: %w", p, domain.ErrInvalidSelection)
		}
		if !slices.Contains(r.Candidates, p) {
			return fmt.Errorf("Commit: %d is not a candidate: %w", p, domain.ErrInvalidSelection)
		}
		seen[p] = struct{}{}
	}

	r.Selection = slices.Clone(picks)
	r.Stake = stake
	r.State = domain.RoundStateCommitted
	return nil
}

// Resolve draws the winning numbers for a committed round and fills in the
// matches and payout.
func (e *Engine) Resolve(r *domain.GameRound) error {
	if r.State != domain.RoundStateCommitted {
		return fmt.Errorf("Resolve: round is %s: %w", r.State, domain.ErrRoundNotOpen)
	}
	winning, err := e.Draw(r.Candidates)
	if err != nil {
		return fmt.Errorf("Resolve: %w", err)
	}
	r.Winning = winning
	r.Matches = Matches(r.Selection, winning)
	r.Payout = policy.GamePayout(r.Stake, r.Matches)
	r.State = domain.RoundStateResolved
	return nil
}
