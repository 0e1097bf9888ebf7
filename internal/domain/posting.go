package domain

import (
	"time"

	"github.com/google/uuid"
)

type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// Posting is a single balance movement on one account in one currency.
type Posting struct {
	ID            uuid.UUID
	EntryID       uuid.UUID
	AccountID     uuid.UUID
	Direction     Direction
	Currency      Currency
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	CreatedAt     time.Time
}
