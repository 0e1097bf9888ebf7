// Package ledger is the only code that moves money. The Executor records new
// entries and applies their immediate balance effect; the Reconciler settles
// pending entries and applies the compensating effect each kind calls for.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/events"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
	"github.com/josh-kwaku/naira-wallet/internal/repository"
)

const maxTxAttempts = 3

type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalances(ctx context.Context, tx *sql.Tx, id uuid.UUID, naira, usdt, newVersion int64) error
}

type entryRepo interface {
	Create(ctx context.Context, tx *sql.Tx, e *domain.LedgerEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.LedgerEntry, error)
	GetByReference(ctx context.Context, reference string) (*domain.LedgerEntry, error)
	Resolve(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.EntryStatus, resolvedBy *uuid.UUID, failureReason *string) error
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.LedgerEntry, error)
}

type postingRepo interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.Posting) error
}

type auditRepo interface {
	Create(ctx context.Context, tx *sql.Tx, event *domain.EntryEvent) error
}

type roundRepo interface {
	Create(ctx context.Context, round *domain.GameRound) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.GameRound, error)
	SaveResolved(ctx context.Context, tx *sql.Tx, round *domain.GameRound) error
}

type Repos struct {
	Accounts accountRepo
	Entries  entryRepo
	Postings postingRepo
	Audit    auditRepo
	Rounds   roundRepo
}

// Actor identifies who caused an entry event: "user:<id>", "admin:<id>",
// "gateway" or "system".
type Actor string

const (
	ActorGateway Actor = "gateway"
	ActorSystem  Actor = "system"
)

func UserActor(userID uuid.UUID) Actor  { return Actor("user:" + userID.String()) }
func AdminActor(userID uuid.UUID) Actor { return Actor("admin:" + userID.String()) }

// Result is the committed state after an operation: the entry and the acting
// account as re-read inside the transaction.
type Result struct {
	Entry   *domain.LedgerEntry
	Account *domain.Account
}

type book struct {
	db        *sql.DB
	repos     Repos
	publisher events.Publisher
	now       func() time.Time
}

func newBook(db *sql.DB, repos Repos, publisher events.Publisher) *book {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &book{
		db:        db,
		repos:     repos,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// atomically runs fn in a transaction, retrying from scratch on transient
// conflicts. fn must re-read everything it decides on.
func (b *book) atomically(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = b.runTx(ctx, fn)
		if err == nil || !repository.IsTransient(err) {
			return err
		}
		logging.FromContext(ctx).Warn("ledger transaction conflict, retrying", "attempt", attempt, "error", err)
	}
	return err
}

func (b *book) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// lockAccountsInOrder takes row locks in a fixed order so two transfers
// between the same pair cannot deadlock.
func (b *book) lockAccountsInOrder(ctx context.Context, tx *sql.Tx, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	result := make(map[uuid.UUID]*domain.Account, len(ids))
	for _, id := range sorted {
		acct, err := b.repos.Accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockAccountsInOrder: %w", err)
		}
		result[id] = acct
	}
	return result, nil
}

func (b *book) lockActive(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error) {
	acct, err := b.repos.Accounts.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := verifyActive(acct); err != nil {
		return nil, err
	}
	return acct, nil
}

func verifyActive(acct *domain.Account) error {
	if acct.Status != domain.AccountStatusActive {
		return fmt.Errorf("account %s: %w", acct.ID, domain.ErrAccountSuspended)
	}
	return nil
}

// post applies one balance movement to a locked account and records it.
// acct is updated in place so several postings can share one lock.
func (b *book) post(ctx context.Context, tx *sql.Tx, entryID uuid.UUID, acct *domain.Account, dir domain.Direction, cur domain.Currency, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("post: %w", domain.ErrInvalidAmount)
	}

	before := acct.Balance(cur)
	after := before + amount
	if dir == domain.DirectionDebit {
		after = before - amount
	}
	if after < 0 {
		return fmt.Errorf("post: %s balance %d, need %d: %w", cur, before, amount, domain.ErrInsufficientBalance)
	}

	if cur == domain.CurrencyUSDT {
		acct.USDTBalance = after
	} else {
		acct.NairaBalance = after
	}
	acct.Version++

	if err := b.repos.Accounts.UpdateBalances(ctx, tx, acct.ID, acct.NairaBalance, acct.USDTBalance, acct.Version); err != nil {
		return fmt.Errorf("post: %w", err)
	}

	p := &domain.Posting{
		ID:            uuid.New(),
		EntryID:       entryID,
		AccountID:     acct.ID,
		Direction:     dir,
		Currency:      cur,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		CreatedAt:     b.now(),
	}
	if err := b.repos.Postings.Create(ctx, tx, p); err != nil {
		return fmt.Errorf("post: %w", err)
	}
	return nil
}

func (b *book) audit(ctx context.Context, tx *sql.Tx, entryID uuid.UUID, eventType domain.EntryEventType, actor Actor, payload []byte) error {
	ev := &domain.EntryEvent{
		ID:        uuid.New(),
		EntryID:   entryID,
		EventType: eventType,
		Actor:     string(actor),
		Payload:   payload,
		CreatedAt: b.now(),
	}
	if err := b.repos.Audit.Create(ctx, tx, ev); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return nil
}

// publish is fire-and-forget after commit; the ledger tables are
// authoritative.
func (b *book) publish(ctx context.Context, routingKey string, body any) {
	if err := b.publisher.Publish(ctx, routingKey, body); err != nil {
		logging.FromContext(ctx).Warn("event publish failed", "routing_key", routingKey, "error", err)
	}
}

// reportGap logs and publishes a mismatch between the ledger and the
// gateway. These need a human.
func (b *book) reportGap(ctx context.Context, reason, reference string, entryID *uuid.UUID) {
	logging.FromContext(ctx).Error("reconciliation gap",
		"reconciliation_gap", true,
		"reason", reason,
		"reference", reference,
		"entry_id", entryID,
	)
	b.publish(ctx, events.RoutingReconciliationGap, events.GapEvent{
		Reason:    reason,
		Reference: reference,
		EntryID:   entryID,
		Timestamp: b.now(),
	})
}

func eventTypeFor(status domain.EntryStatus) domain.EntryEventType {
	switch status {
	case domain.EntryStatusCompleted:
		return domain.EntryEventCompleted
	case domain.EntryStatusRejected:
		return domain.EntryEventRejected
	case domain.EntryStatusCancelled:
		return domain.EntryEventCancelled
	default:
		return domain.EntryEventFailed
	}
}
