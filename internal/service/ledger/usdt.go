package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
	"github.com/josh-kwaku/naira-wallet/internal/policy"
)

type USDTIntent struct {
	AccountID   uuid.UUID
	UserID      uuid.UUID
	Direction   policy.USDTDirection
	NairaAmount int64
}

// ExchangeUSDT records a pending buy or sell at the current rate. Buys debit
// naira now and credit USDT on approval; sells debit USDT now and credit
// naira on approval.
func (e *Executor) ExchangeUSDT(ctx context.Context, in USDTIntent) (*Result, error) {
	op, ok := policy.OperationFor(in.Direction)
	if !ok {
		return nil, fmt.Errorf("ExchangeUSDT: direction %q: %w", in.Direction, domain.ErrInvalidRequest)
	}

	if err := policy.CheckAmount(op, in.NairaAmount); err != nil {
		return nil, fmt.Errorf("ExchangeUSDT: %w", err)
	}

	rates, err := e.rates.Rates(ctx)
	if err != nil {
		return nil, fmt.Errorf("ExchangeUSDT: %w", err)
	}
	usdt, err := policy.USDTAmount(in.NairaAmount, in.Direction, rates)
	if err != nil {
		return nil, fmt.Errorf("ExchangeUSDT: %w", err)
	}
	rate := rates.For(in.Direction)

	res, err := e.debitPending(ctx, pendingDebit{
		op:        op,
		accountID: in.AccountID,
		actor:     UserActor(in.UserID),
		entry: domain.LedgerEntry{
			Amount:      in.NairaAmount,
			USDTAmount:  usdt,
			USDTRate:    &rate,
			Description: fmt.Sprintf("USDT %s at %s", in.Direction, rate.String()),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ExchangeUSDT: %w", err)
	}

	logging.FromContext(ctx).Info("usdt exchange requested",
		"entry_id", res.Entry.ID,
		"direction", in.Direction,
		"naira_amount", in.NairaAmount,
		"usdt_amount", usdt,
		"rate", rate.String(),
	)
	return res, nil
}
