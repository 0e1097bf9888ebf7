// Package policy holds the pure rules consulted before any balance moves:
// per-operation bounds, per-kind settlement behaviour, USDT conversion and
// game payouts. Nothing here touches storage, so every decision can be
// replayed for audit from the stored inputs.
package policy

import (
	"fmt"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
)

const (
	KoboPerNaira int64 = 100
	MicroPerUSDT int64 = 1_000_000
)

// Naira converts whole naira to kobo.
func Naira(n int64) int64 {
	return n * KoboPerNaira
}

type Operation string

const (
	OpDeposit          Operation = "deposit"
	OpInternalTransfer Operation = "internal_transfer"
	OpBankTransfer     Operation = "bank_transfer"
	OpPayout           Operation = "payout"
	OpLuckyNumbers     Operation = "lucky_numbers"
	OpNumberGuess      Operation = "number_guess"
	OpUSDTBuy          Operation = "usdt_buy"
	OpUSDTSell         Operation = "usdt_sell"
)

// Bounds are inclusive and in kobo. Max of zero means no upper bound.
type Bounds struct {
	Min int64
	Max int64
}

var bounds = map[Operation]Bounds{
	OpDeposit:          {Min: Naira(100)},
	OpInternalTransfer: {Min: Naira(100), Max: Naira(1_000_000)},
	OpBankTransfer:     {Min: Naira(100), Max: Naira(1_000_000)},
	OpPayout:           {Min: Naira(1_000), Max: Naira(1_000_000)},
	OpLuckyNumbers:     {Min: Naira(100), Max: Naira(10_000_000)},
	OpNumberGuess:      {Min: Naira(100), Max: Naira(10_000)},
	OpUSDTBuy:          {Min: Naira(1_000), Max: Naira(1_000_000)},
	OpUSDTSell:         {Min: Naira(1_000), Max: Naira(1_000_000)},
}

func BoundsFor(op Operation) (Bounds, bool) {
	b, ok := bounds[op]
	return b, ok
}

// CheckAmount validates amount against op's bounds.
func CheckAmount(op Operation, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("CheckAmount: %w", domain.ErrInvalidAmount)
	}
	b, ok := bounds[op]
	if !ok {
		return fmt.Errorf("CheckAmount: unknown operation %q: %w", op, domain.ErrInvalidRequest)
	}
	if amount < b.Min {
		return fmt.Errorf("CheckAmount: %s minimum is %d: %w", op, b.Min, domain.ErrBelowMinimum)
	}
	if b.Max > 0 && amount > b.Max {
		return fmt.Errorf("CheckAmount: %s maximum is %d: %w", op, b.Max, domain.ErrAboveMaximum)
	}
	return nil
}

// KindFor is the ledger entry kind an operation records.
func KindFor(op Operation) domain.EntryKind {
	switch op {
	case OpLuckyNumbers, OpNumberGuess:
		return domain.EntryKindGame
	default:
		return domain.EntryKind(op)
	}
}
