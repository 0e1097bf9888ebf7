package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoundState string

const (
	RoundStateSelecting RoundState = "selecting"
	RoundStateCommitted RoundState = "committed"
	RoundStateResolved  RoundState = "resolved"
)

type GameRound struct {
	ID         uuid.UUID
	AccountID  uuid.UUID
	State      RoundState
	Candidates []int
	Selection  []int
	Winning    []int
	Stake      int64
	Matches    int
	Payout     int64
	EntryID    *uuid.UUID
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

func (r *GameRound) Won() bool {
	return r.State == RoundStateResolved && r.Payout > 0
}
