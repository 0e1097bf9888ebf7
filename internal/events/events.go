// Package events publishes ledger lifecycle notifications to a RabbitMQ topic
// exchange. Publishing happens after commit and is best effort; the ledger
// tables remain the source of truth.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
)

const Exchange = "ledger_events"

const (
	RoutingEntryCreated      = "ledger.entry.created"
	RoutingEntryResolved     = "ledger.entry.resolved"
	RoutingReconciliationGap = "ledger.reconciliation_gap"
)

type EntryEvent struct {
	EntryID   uuid.UUID          `json:"entry_id"`
	Kind      domain.EntryKind   `json:"kind"`
	Status    domain.EntryStatus `json:"status"`
	AccountID uuid.UUID          `json:"account_id"`
	Amount    int64              `json:"amount"`
	Actor     string             `json:"actor"`
	Timestamp time.Time          `json:"timestamp"`
}

// GapEvent flags a mismatch between the ledger and the payment gateway that
// needs a human: an unknown reference, or an entry pending for too long.
type GapEvent struct {
	Reason    string     `json:"reason"`
	Reference string     `json:"reference,omitempty"`
	EntryID   *uuid.UUID `json:"entry_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
	Close()
}

func NewEntryEvent(e *domain.LedgerEntry, actor string) EntryEvent {
	return EntryEvent{
		EntryID:   e.ID,
		Kind:      e.Kind,
		Status:    e.Status,
		AccountID: e.AccountID,
		Amount:    e.Amount,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
	}
}
