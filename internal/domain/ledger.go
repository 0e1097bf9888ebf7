package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryKind string

const (
	EntryKindDeposit          EntryKind = "deposit"
	EntryKindInternalTransfer EntryKind = "internal_transfer"
	EntryKindBankTransfer     EntryKind = "bank_transfer"
	EntryKindPayout           EntryKind = "payout"
	EntryKindGame             EntryKind = "game"
	EntryKindUSDTBuy          EntryKind = "usdt_buy"
	EntryKindUSDTSell         EntryKind = "usdt_sell"
)

func (k EntryKind) IsValid() bool {
	switch k {
	case EntryKindDeposit, EntryKindInternalTransfer, EntryKindBankTransfer, EntryKindPayout,
		EntryKindGame, EntryKindUSDTBuy, EntryKindUSDTSell:
		return true
	default:
		return false
	}
}

type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusFailed    EntryStatus = "failed"
	EntryStatusCancelled EntryStatus = "cancelled"
	EntryStatusRejected  EntryStatus = "rejected"
)

func (s EntryStatus) IsTerminal() bool {
	return s != EntryStatusPending
}

// Outcome is what a resolver decided about a pending entry.
type Outcome string

const (
	OutcomeApprove Outcome = "approve"
	OutcomeReject  Outcome = "reject"
	OutcomeFail    Outcome = "fail"
	OutcomeCancel  Outcome = "cancel"
)

func (o Outcome) Status() EntryStatus {
	switch o {
	case OutcomeApprove:
		return EntryStatusCompleted
	case OutcomeReject:
		return EntryStatusRejected
	case OutcomeFail:
		return EntryStatusFailed
	case OutcomeCancel:
		return EntryStatusCancelled
	default:
		return ""
	}
}

// LedgerEntry records one money movement attempt. Amount is unsigned and in
// kobo; the kind decides its direction. USDTAmount is in micro-USDT and is
// only set for usdt_buy and usdt_sell.
type LedgerEntry struct {
	ID                    uuid.UUID
	Kind                  EntryKind
	Status                EntryStatus
	AccountID             uuid.UUID
	CounterpartyAccountID *uuid.UUID
	Amount                int64
	USDTAmount            int64
	USDTRate              *decimal.Decimal
	ExternalReference     *string
	Description           string
	Metadata              json.RawMessage
	FailureReason         *string
	ResolvedBy            *uuid.UUID
	CreatedAt             time.Time
	ResolvedAt            *time.Time
}
