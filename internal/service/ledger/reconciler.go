package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/events"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
	"github.com/josh-kwaku/naira-wallet/internal/policy"
)

// Source is who is asking for a resolution. Each source may only apply
// certain outcomes.
type Source string

const (
	SourceAdmin   Source = "admin"
	SourceGateway Source = "gateway"
	SourceOwner   Source = "owner"
	SourceSystem  Source = "system"
)

type resolution struct {
	outcome domain.Outcome
	source  Source
	actor   Actor
	adminID *uuid.UUID
	ownerID uuid.UUID
	reason  string
	// expect, when set, is the amount the gateway says moved. Approval
	// is refused if it differs from the recorded amount.
	expect int64
}

type Reconciler struct {
	*book
}

func NewReconciler(db *sql.DB, repos Repos, publisher events.Publisher) *Reconciler {
	return &Reconciler{book: newBook(db, repos, publisher)}
}

// Resolve applies an admin decision to a pending entry.
func (r *Reconciler) Resolve(ctx context.Context, entryID uuid.UUID, outcome domain.Outcome, adminID uuid.UUID, reason string) (*domain.LedgerEntry, error) {
	e, err := r.settle(ctx, entryID, resolution{
		outcome: outcome,
		source:  SourceAdmin,
		actor:   AdminActor(adminID),
		adminID: &adminID,
		reason:  reason,
	})
	if err != nil {
		return nil, fmt.Errorf("Resolve: %w", err)
	}
	return e, nil
}

// GatewayEvent is a settled gateway notification for one of our references.
type GatewayEvent struct {
	Reference string
	Outcome   domain.Outcome
	Amount    int64
	Reason    string
}

// ResolveByReference applies a gateway outcome to the entry carrying the
// external reference. Unknown references are reported as reconciliation
// gaps and fail with ErrEntryNotFound.
func (r *Reconciler) ResolveByReference(ctx context.Context, reference string, outcome domain.Outcome, reason string) (*domain.LedgerEntry, error) {
	e, err := r.ResolveGatewayEvent(ctx, GatewayEvent{Reference: reference, Outcome: outcome, Reason: reason})
	if err != nil {
		return nil, fmt.Errorf("ResolveByReference: %w", err)
	}
	return e, nil
}

// ResolveGatewayEvent is ResolveByReference with the amount the gateway
// reported. A non-zero Amount that disagrees with the entry blocks approval
// and is reported as a gap.
func (r *Reconciler) ResolveGatewayEvent(ctx context.Context, ev GatewayEvent) (*domain.LedgerEntry, error) {
	entry, err := r.repos.Entries.GetByReference(ctx, ev.Reference)
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			r.reportGap(ctx, "gateway event for unknown reference", ev.Reference, nil)
		}
		return nil, fmt.Errorf("ResolveGatewayEvent: %w", err)
	}

	e, err := r.settle(ctx, entry.ID, resolution{
		outcome: ev.Outcome,
		source:  SourceGateway,
		actor:   ActorGateway,
		reason:  ev.Reason,
		expect:  ev.Amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAmountMismatch):
			r.reportGap(ctx, fmt.Sprintf("gateway reported %d, entry records %d", ev.Amount, entry.Amount), ev.Reference, &entry.ID)
		case errors.Is(err, domain.ErrAlreadyResolved):
			if conflict := r.checkSettled(ctx, ev); conflict != nil {
				return nil, fmt.Errorf("ResolveGatewayEvent: %w: %w", conflict, err)
			}
		}
		return nil, fmt.Errorf("ResolveGatewayEvent: %w", err)
	}
	return e, nil
}

// checkSettled compares a late gateway outcome with the entry's terminal
// status and reports a gap when they disagree about whether money left.
func (r *Reconciler) checkSettled(ctx context.Context, ev GatewayEvent) error {
	settled, err := r.repos.Entries.GetByReference(ctx, ev.Reference)
	if err != nil {
		logging.FromContext(ctx).Warn("could not re-read settled entry", "reference", ev.Reference, "error", err)
		return nil
	}
	if !contradicts(ev.Outcome, settled.Status) {
		return nil
	}
	r.reportGap(ctx, fmt.Sprintf("gateway %s on %s entry", ev.Outcome, settled.Status), ev.Reference, &settled.ID)
	return domain.ErrSettlementConflict
}

// contradicts reports whether a gateway outcome disagrees with a terminal
// status. Approval means the money left; every other terminal status
// refunded or never moved it.
func contradicts(outcome domain.Outcome, status domain.EntryStatus) bool {
	if outcome == domain.OutcomeApprove {
		return status != domain.EntryStatusCompleted
	}
	return status == domain.EntryStatusCompleted
}

// Cancel lets an owner withdraw their own pending request.
func (r *Reconciler) Cancel(ctx context.Context, entryID, ownerAccountID, ownerUserID uuid.UUID) (*domain.LedgerEntry, error) {
	e, err := r.settle(ctx, entryID, resolution{
		outcome: domain.OutcomeCancel,
		source:  SourceOwner,
		actor:   UserActor(ownerUserID),
		ownerID: ownerAccountID,
		reason:  "cancelled by owner",
	})
	if err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}
	return e, nil
}

func (r *Reconciler) failInitiation(ctx context.Context, entryID uuid.UUID, reason string) (*domain.LedgerEntry, error) {
	return r.settle(ctx, entryID, resolution{
		outcome: domain.OutcomeFail,
		source:  SourceSystem,
		actor:   ActorSystem,
		reason:  reason,
	})
}

func allowed(s policy.Settlement, res resolution) bool {
	switch res.source {
	case SourceAdmin:
		return res.outcome == domain.OutcomeApprove || res.outcome == domain.OutcomeReject
	case SourceGateway:
		return s.AllowsGateway(res.outcome)
	case SourceOwner:
		return res.outcome == domain.OutcomeCancel && s.OwnerCancellable
	case SourceSystem:
		return res.outcome == domain.OutcomeFail
	default:
		return false
	}
}

// settle is the single transition out of pending. The entry row lock
// serializes concurrent resolutions, so the balance effect applies once.
func (r *Reconciler) settle(ctx context.Context, entryID uuid.UUID, res resolution) (*domain.LedgerEntry, error) {
	log := logging.FromContext(ctx)

	var entry *domain.LedgerEntry
	err := r.atomically(ctx, func(tx *sql.Tx) error {
		e, err := r.repos.Entries.GetForUpdate(ctx, tx, entryID)
		if err != nil {
			return err
		}

		if res.source == SourceOwner && e.AccountID != res.ownerID {
			return domain.ErrEntryNotFound
		}
		s, ok := policy.SettlementFor(e.Kind)
		if !ok || !s.Pending {
			return fmt.Errorf("%s entry: %w", e.Kind, domain.ErrEntryNotPending)
		}
		if e.Status.IsTerminal() {
			return fmt.Errorf("entry is %s: %w", e.Status, domain.ErrAlreadyResolved)
		}
		if !allowed(s, res) {
			return fmt.Errorf("%s may not %s a %s entry: %w", res.source, res.outcome, e.Kind, domain.ErrOutcomeNotAllowed)
		}
		if res.outcome == domain.OutcomeApprove && res.expect > 0 && res.expect != e.Amount {
			return fmt.Errorf("expected %d, got %d: %w", e.Amount, res.expect, domain.ErrAmountMismatch)
		}

		acct, err := r.repos.Accounts.GetForUpdate(ctx, tx, e.AccountID)
		if err != nil {
			return err
		}

		if res.outcome == domain.OutcomeApprove {
			if s.ApproveCredit != "" {
				amount := policy.RecordedAmount(e, s.ApproveCredit)
				if err := r.post(ctx, tx, e.ID, acct, domain.DirectionCredit, s.ApproveCredit, amount); err != nil {
					return err
				}
			}
		} else if s.UpfrontDebit != "" {
			amount := policy.RecordedAmount(e, s.UpfrontDebit)
			if err := r.post(ctx, tx, e.ID, acct, domain.DirectionCredit, s.UpfrontDebit, amount); err != nil {
				return err
			}
		}

		status := res.outcome.Status()
		var reason *string
		if res.outcome != domain.OutcomeApprove && res.reason != "" {
			reason = &res.reason
		}
		if err := r.repos.Entries.Resolve(ctx, tx, e.ID, status, res.adminID, reason); err != nil {
			return err
		}

		payload := mustJSON(map[string]string{"outcome": string(res.outcome), "source": string(res.source), "reason": res.reason})
		if err := r.audit(ctx, tx, e.ID, eventTypeFor(status), res.actor, payload); err != nil {
			return err
		}

		now := r.now()
		e.Status = status
		e.ResolvedAt = &now
		e.ResolvedBy = res.adminID
		e.FailureReason = reason
		entry = e
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}

	r.publish(ctx, events.RoutingEntryResolved, events.NewEntryEvent(entry, string(res.actor)))
	log.Info("ledger entry resolved",
		"entry_id", entry.ID,
		"kind", entry.Kind,
		"status", entry.Status,
		"source", res.source,
	)
	return entry, nil
}

// FlagStale reports every entry pending since before cutoff as a
// reconciliation gap and returns how many it found.
func (r *Reconciler) FlagStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := r.repos.Entries.ListStalePending(ctx, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("FlagStale: %w", err)
	}
	for i := range stale {
		e := &stale[i]
		ref := ""
		if e.ExternalReference != nil {
			ref = *e.ExternalReference
		}
		r.reportGap(ctx, fmt.Sprintf("%s entry pending since %s", e.Kind, e.CreatedAt.Format(time.RFC3339)), ref, &e.ID)
	}
	return len(stale), nil
}
