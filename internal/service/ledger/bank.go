package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/events"
	"github.com/josh-kwaku/naira-wallet/internal/gateway"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
	"github.com/josh-kwaku/naira-wallet/internal/policy"
)

var accountNumberPattern = regexp.MustCompile(`^[0-9]{10}$`)

type BankDestination struct {
	BankCode      string
	AccountNumber string
}

func (d BankDestination) validate() error {
	if strings.TrimSpace(d.BankCode) == "" {
		return fmt.Errorf("bank code required: %w", domain.ErrInvalidRequest)
	}
	if !accountNumberPattern.MatchString(d.AccountNumber) {
		return fmt.Errorf("account number must be 10 digits: %w", domain.ErrInvalidRequest)
	}
	return nil
}

type bankMetadata struct {
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

type BankTransferIntent struct {
	AccountID   uuid.UUID
	UserID      uuid.UUID
	Destination BankDestination
	Amount      int64
	Description string
}

// BankTransfer debits the wallet into a pending entry and then asks the
// gateway to pay out under our own reference. A definite refusal fails and
// refunds the entry before returning. Any other gateway failure leaves it
// pending and reports a reconciliation gap.
func (e *Executor) BankTransfer(ctx context.Context, in BankTransferIntent) (*Result, error) {
	log := logging.FromContext(ctx)

	if err := policy.CheckAmount(policy.OpBankTransfer, in.Amount); err != nil {
		return nil, fmt.Errorf("BankTransfer: %w", err)
	}
	if err := in.Destination.validate(); err != nil {
		return nil, fmt.Errorf("BankTransfer: %w", err)
	}
	if err := e.precheckActive(ctx, in.AccountID); err != nil {
		return nil, fmt.Errorf("BankTransfer: %w", err)
	}

	name, err := e.gateway.ResolveAccount(ctx, in.Destination.BankCode, in.Destination.AccountNumber)
	if err != nil {
		return nil, fmt.Errorf("BankTransfer: %w", err)
	}

	ref := "wd_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = "Transfer to " + name
	}

	res, err := e.debitPending(ctx, pendingDebit{
		op:        policy.OpBankTransfer,
		accountID: in.AccountID,
		actor:     UserActor(in.UserID),
		entry: domain.LedgerEntry{
			Amount:            in.Amount,
			ExternalReference: &ref,
			Description:       description,
			Metadata: mustJSON(bankMetadata{
				BankCode:      in.Destination.BankCode,
				AccountNumber: in.Destination.AccountNumber,
				AccountName:   name,
			}),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("BankTransfer: %w", err)
	}

	order := gateway.TransferOrder{
		Reference:     ref,
		Amount:        in.Amount,
		BankCode:      in.Destination.BankCode,
		AccountNumber: in.Destination.AccountNumber,
		AccountName:   name,
		Reason:        description,
	}
	if err := e.gateway.InitiateTransfer(ctx, order); err != nil {
		if !errors.Is(err, domain.ErrTransferRejected) {
			// The gateway may have queued the transfer. Its webhook, the
			// stale sweep or an admin settles the entry.
			log.Warn("transfer initiation outcome unknown, entry stays pending", "entry_id", res.Entry.ID, "reference", ref, "error", err)
			e.reportGap(ctx, "transfer initiation outcome unknown: "+err.Error(), ref, &res.Entry.ID)
			return res, nil
		}

		log.Warn("transfer rejected by gateway, refunding", "entry_id", res.Entry.ID, "reference", ref, "error", err)
		if _, rerr := e.reconciler.failInitiation(ctx, res.Entry.ID, err.Error()); rerr != nil {
			e.reportGap(ctx, "transfer rejected and refund did not apply", ref, &res.Entry.ID)
			return nil, fmt.Errorf("BankTransfer: refund: %w", rerr)
		}
		return nil, fmt.Errorf("BankTransfer: %w", err)
	}

	log.Info("bank transfer initiated", "entry_id", res.Entry.ID, "reference", ref, "amount", in.Amount)
	return res, nil
}

type PayoutIntent struct {
	AccountID   uuid.UUID
	UserID      uuid.UUID
	Destination BankDestination
	Amount      int64
}

// Payout debits the wallet into a pending entry for an admin to approve or
// reject.
func (e *Executor) Payout(ctx context.Context, in PayoutIntent) (*Result, error) {
	if err := policy.CheckAmount(policy.OpPayout, in.Amount); err != nil {
		return nil, fmt.Errorf("Payout: %w", err)
	}
	if err := in.Destination.validate(); err != nil {
		return nil, fmt.Errorf("Payout: %w", err)
	}
	if err := e.precheckActive(ctx, in.AccountID); err != nil {
		return nil, fmt.Errorf("Payout: %w", err)
	}

	name, err := e.gateway.ResolveAccount(ctx, in.Destination.BankCode, in.Destination.AccountNumber)
	if err != nil {
		return nil, fmt.Errorf("Payout: %w", err)
	}

	res, err := e.debitPending(ctx, pendingDebit{
		op:        policy.OpPayout,
		accountID: in.AccountID,
		actor:     UserActor(in.UserID),
		entry: domain.LedgerEntry{
			Amount:      in.Amount,
			Description: "Payout to " + name,
			Metadata: mustJSON(bankMetadata{
				BankCode:      in.Destination.BankCode,
				AccountNumber: in.Destination.AccountNumber,
				AccountName:   name,
			}),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Payout: %w", err)
	}

	logging.FromContext(ctx).Info("payout requested", "entry_id", res.Entry.ID, "amount", in.Amount)
	return res, nil
}

type pendingDebit struct {
	op        policy.Operation
	accountID uuid.UUID
	actor     Actor
	entry     domain.LedgerEntry
}

// debitPending records a pending entry for op and debits the recorded amount
// in the kind's upfront currency, in the same transaction.
func (e *Executor) debitPending(ctx context.Context, d pendingDebit) (*Result, error) {
	kind := policy.KindFor(d.op)
	s, ok := policy.SettlementFor(kind)
	if !ok || !s.Pending || s.UpfrontDebit == "" {
		return nil, fmt.Errorf("debitPending: %s has no upfront debit: %w", kind, domain.ErrInvalidRequest)
	}

	entry := d.entry
	entry.ID = uuid.New()
	entry.Kind = kind
	entry.Status = domain.EntryStatusPending
	entry.AccountID = d.accountID
	entry.CreatedAt = e.now()

	var acct *domain.Account
	err := e.atomically(ctx, func(tx *sql.Tx) error {
		a, err := e.lockActive(ctx, tx, d.accountID)
		if err != nil {
			return err
		}
		if err := e.repos.Entries.Create(ctx, tx, &entry); err != nil {
			return err
		}
		amount := policy.RecordedAmount(&entry, s.UpfrontDebit)
		if err := e.post(ctx, tx, entry.ID, a, domain.DirectionDebit, s.UpfrontDebit, amount); err != nil {
			return err
		}
		acct = a
		return e.audit(ctx, tx, entry.ID, domain.EntryEventCreated, d.actor, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("debitPending: %w", err)
	}

	e.publish(ctx, events.RoutingEntryCreated, events.NewEntryEvent(&entry, string(d.actor)))
	return &Result{Entry: &entry, Account: acct}, nil
}
