package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/events"
	"github.com/josh-kwaku/naira-wallet/internal/game"
	"github.com/josh-kwaku/naira-wallet/internal/gateway"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
	"github.com/josh-kwaku/naira-wallet/internal/policy"
)

const minDescriptionLen = 3

type rateSource interface {
	Rates(ctx context.Context) (policy.Rates, error)
}

type paymentGateway interface {
	ResolveAccount(ctx context.Context, bankCode, accountNumber string) (string, error)
	InitializeTransaction(ctx context.Context, email string, amount int64) (*gateway.Checkout, error)
	InitiateTransfer(ctx context.Context, order gateway.TransferOrder) error
}

type Executor struct {
	*book
	rates      rateSource
	gateway    paymentGateway
	engine     *game.Engine
	reconciler *Reconciler
}

func NewExecutor(
	db *sql.DB,
	repos Repos,
	rates rateSource,
	gw paymentGateway,
	engine *game.Engine,
	reconciler *Reconciler,
	publisher events.Publisher,
) *Executor {
	if engine == nil {
		engine = game.NewEngine(nil)
	}
	return &Executor{
		book:       newBook(db, repos, publisher),
		rates:      rates,
		gateway:    gw,
		engine:     engine,
		reconciler: reconciler,
	}
}

type DepositIntent struct {
	AccountID uuid.UUID
	UserID    uuid.UUID
	Email     string
	Amount    int64
}

type DepositResult struct {
	Result
	AuthorizationURL string
}

// Deposit opens a gateway checkout and records a pending deposit under the
// gateway's reference. Nothing is credited until the gateway confirms.
func (e *Executor) Deposit(ctx context.Context, in DepositIntent) (*DepositResult, error) {
	log := logging.FromContext(ctx)

	if err := policy.CheckAmount(policy.OpDeposit, in.Amount); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}
	if err := e.precheckActive(ctx, in.AccountID); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	checkout, err := e.gateway.InitializeTransaction(ctx, in.Email, in.Amount)
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	ref := checkout.Reference
	entry := &domain.LedgerEntry{
		ID:                uuid.New(),
		Kind:              domain.EntryKindDeposit,
		Status:            domain.EntryStatusPending,
		AccountID:         in.AccountID,
		Amount:            in.Amount,
		ExternalReference: &ref,
		Description:       "Wallet deposit",
		CreatedAt:         e.now(),
	}

	var acct *domain.Account
	err = e.atomically(ctx, func(tx *sql.Tx) error {
		a, err := e.lockActive(ctx, tx, in.AccountID)
		if err != nil {
			return err
		}
		if err := e.repos.Entries.Create(ctx, tx, entry); err != nil {
			return err
		}
		acct = a
		return e.audit(ctx, tx, entry.ID, domain.EntryEventCreated, UserActor(in.UserID), nil)
	})
	if err != nil {
		e.reportGap(ctx, "deposit checkout opened but entry not recorded", ref, nil)
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	e.publish(ctx, events.RoutingEntryCreated, events.NewEntryEvent(entry, string(UserActor(in.UserID))))
	log.Info("deposit initiated", "entry_id", entry.ID, "reference", ref, "amount", in.Amount)

	return &DepositResult{
		Result:           Result{Entry: entry, Account: acct},
		AuthorizationURL: checkout.AuthorizationURL,
	}, nil
}

type TransferIntent struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	UserID        uuid.UUID
	Amount        int64
	Description   string
}

func validateTransfer(in TransferIntent) error {
	if in.FromAccountID == in.ToAccountID {
		return domain.ErrSelfTransfer
	}
	if err := policy.CheckAmount(policy.OpInternalTransfer, in.Amount); err != nil {
		return err
	}
	if len(strings.TrimSpace(in.Description)) < minDescriptionLen {
		return fmt.Errorf("description must be at least %d characters: %w", minDescriptionLen, domain.ErrInvalidRequest)
	}
	return nil
}

// InternalTransfer moves naira between two wallets in one transaction. The
// entry is created completed.
func (e *Executor) InternalTransfer(ctx context.Context, in TransferIntent) (*Result, error) {
	log := logging.FromContext(ctx)

	if err := validateTransfer(in); err != nil {
		return nil, fmt.Errorf("InternalTransfer: %w", err)
	}

	var out *Result
	err := e.atomically(ctx, func(tx *sql.Tx) error {
		locked, err := e.lockAccountsInOrder(ctx, tx, in.FromAccountID, in.ToAccountID)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return e.whichMissing(ctx, in)
			}
			return err
		}
		sender, recipient := locked[in.FromAccountID], locked[in.ToAccountID]

		if err := verifyActive(sender); err != nil {
			return fmt.Errorf("sender: %w", err)
		}
		if err := verifyActive(recipient); err != nil {
			return fmt.Errorf("recipient: %w", err)
		}

		now := e.now()
		to := recipient.ID
		entry := &domain.LedgerEntry{
			ID:                    uuid.New(),
			Kind:                  domain.EntryKindInternalTransfer,
			Status:                domain.EntryStatusCompleted,
			AccountID:             sender.ID,
			CounterpartyAccountID: &to,
			Amount:                in.Amount,
			Description:           strings.TrimSpace(in.Description),
			CreatedAt:             now,
			ResolvedAt:            &now,
		}
		if err := e.repos.Entries.Create(ctx, tx, entry); err != nil {
			return err
		}
		if err := e.post(ctx, tx, entry.ID, sender, domain.DirectionDebit, domain.CurrencyNGN, in.Amount); err != nil {
			return err
		}
		if err := e.post(ctx, tx, entry.ID, recipient, domain.DirectionCredit, domain.CurrencyNGN, in.Amount); err != nil {
			return err
		}
		if err := e.audit(ctx, tx, entry.ID, domain.EntryEventCompleted, UserActor(in.UserID), nil); err != nil {
			return err
		}

		out = &Result{Entry: entry, Account: sender}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("InternalTransfer: %w", err)
	}

	e.publish(ctx, events.RoutingEntryCreated, events.NewEntryEvent(out.Entry, string(UserActor(in.UserID))))
	log.Info("internal transfer completed",
		"entry_id", out.Entry.ID,
		"sender_account", in.FromAccountID,
		"recipient_account", in.ToAccountID,
		"amount", in.Amount,
	)
	return out, nil
}

func (e *Executor) whichMissing(ctx context.Context, in TransferIntent) error {
	if _, err := e.repos.Accounts.GetByID(ctx, in.FromAccountID); err != nil {
		return fmt.Errorf("sender: %w", err)
	}
	return fmt.Errorf("recipient: %w", domain.ErrRecipientNotFound)
}

// precheckActive fails fast before any external call. The decisive check is
// repeated under the row lock.
func (e *Executor) precheckActive(ctx context.Context, accountID uuid.UUID) error {
	acct, err := e.repos.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	return verifyActive(acct)
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
