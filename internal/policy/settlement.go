package policy

import "github.com/josh-kwaku/naira-wallet/internal/domain"

// Settlement describes how an entry kind moves money across its lifecycle.
type Settlement struct {
	// Pending kinds are created pending and finalized by the reconciler.
	// The rest are created completed.
	Pending bool

	// UpfrontDebit is the currency debited when the entry is created, if any.
	// Reversal refunds exactly this currency's recorded amount.
	UpfrontDebit domain.Currency

	// ApproveCredit is the currency credited to the owner on approval, if any.
	ApproveCredit domain.Currency

	// GatewayOutcomes lists the outcomes a payment-gateway event may apply.
	GatewayOutcomes []domain.Outcome

	OwnerCancellable bool
}

var settlements = map[domain.EntryKind]Settlement{
	domain.EntryKindDeposit: {
		Pending:         true,
		ApproveCredit:   domain.CurrencyNGN,
		GatewayOutcomes: []domain.Outcome{domain.OutcomeApprove, domain.OutcomeFail},
	},
	domain.EntryKindInternalTransfer: {},
	domain.EntryKindBankTransfer: {
		Pending:         true,
		UpfrontDebit:    domain.CurrencyNGN,
		GatewayOutcomes: []domain.Outcome{domain.OutcomeApprove, domain.OutcomeFail},
	},
	domain.EntryKindPayout: {
		Pending:          true,
		UpfrontDebit:     domain.CurrencyNGN,
		OwnerCancellable: true,
	},
	domain.EntryKindGame: {},
	domain.EntryKindUSDTBuy: {
		Pending:          true,
		UpfrontDebit:     domain.CurrencyNGN,
		ApproveCredit:    domain.CurrencyUSDT,
		OwnerCancellable: true,
	},
	domain.EntryKindUSDTSell: {
		Pending:          true,
		UpfrontDebit:     domain.CurrencyUSDT,
		ApproveCredit:    domain.CurrencyNGN,
		OwnerCancellable: true,
	},
}

func SettlementFor(kind domain.EntryKind) (Settlement, bool) {
	s, ok := settlements[kind]
	return s, ok
}

// AllowsGateway reports whether a gateway event may apply outcome to kind.
func (s Settlement) AllowsGateway(outcome domain.Outcome) bool {
	for _, o := range s.GatewayOutcomes {
		if o == outcome {
			return true
		}
	}
	return false
}

// RecordedAmount returns the amount stored on e for currency c. Reversals
// and approvals read from here and never recompute.
func RecordedAmount(e *domain.LedgerEntry, c domain.Currency) int64 {
	if c == domain.CurrencyUSDT {
		return e.USDTAmount
	}
	return e.Amount
}
