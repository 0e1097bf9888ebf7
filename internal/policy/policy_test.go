package policy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
)

func TestCheckAmount(t *testing.T) {
	tests := []struct {
		name    string
		op      Operation
		amount  int64
		wantErr error
	}{
		{"transfer at minimum", OpInternalTransfer, Naira(100), nil},
		{"transfer below minimum", OpInternalTransfer, Naira(99), domain.ErrBelowMinimum},
		{"transfer one kobo below minimum", OpInternalTransfer, Naira(100) - 1, domain.ErrBelowMinimum},
		{"transfer at maximum", OpInternalTransfer, Naira(1_000_000), nil},
		{"transfer above maximum", OpInternalTransfer, Naira(1_000_001), domain.ErrAboveMaximum},
		{"zero amount", OpInternalTransfer, 0, domain.ErrInvalidAmount},
		{"negative amount", OpDeposit, -500, domain.ErrInvalidAmount},
		{"deposit has no maximum", OpDeposit, Naira(50_000_000), nil},
		{"deposit below minimum", OpDeposit, Naira(50), domain.ErrBelowMinimum},
		{"payout below minimum", OpPayout, Naira(999), domain.ErrBelowMinimum},
		{"usdt buy minimum", OpUSDTBuy, Naira(1_000), nil},
		{"usdt sell above maximum", OpUSDTSell, Naira(1_000_001), domain.ErrAboveMaximum},
		{"lucky numbers top stake", OpLuckyNumbers, Naira(10_000_000), nil},
		{"number guess above maximum", OpNumberGuess, Naira(10_001), domain.ErrAboveMaximum},
		{"unknown operation", Operation("lottery"), Naira(100), domain.ErrInvalidRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckAmount(tc.op, tc.amount)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, domain.EntryKindGame, KindFor(OpLuckyNumbers))
	assert.Equal(t, domain.EntryKindGame, KindFor(OpNumberGuess))
	assert.Equal(t, domain.EntryKindPayout, KindFor(OpPayout))
	assert.Equal(t, domain.EntryKindUSDTSell, KindFor(OpUSDTSell))
}

func TestOperationFor(t *testing.T) {
	op, ok := OperationFor(USDTBuy)
	require.True(t, ok)
	assert.Equal(t, OpUSDTBuy, op)

	op, ok = OperationFor(USDTSell)
	require.True(t, ok)
	assert.Equal(t, OpUSDTSell, op)

	_, ok = OperationFor("swap")
	assert.False(t, ok)
}

func TestSettlementFor_EveryKindHasARule(t *testing.T) {
	kinds := []domain.EntryKind{
		domain.EntryKindDeposit, domain.EntryKindInternalTransfer, domain.EntryKindBankTransfer,
		domain.EntryKindPayout, domain.EntryKindGame, domain.EntryKindUSDTBuy, domain.EntryKindUSDTSell,
	}
	for _, k := range kinds {
		_, ok := SettlementFor(k)
		assert.True(t, ok, k)
	}
}

func TestSettlementFor_DebitTiming(t *testing.T) {
	deposit, _ := SettlementFor(domain.EntryKindDeposit)
	assert.True(t, deposit.Pending)
	assert.Empty(t, deposit.UpfrontDebit, "deposits never debit, so reversal must not credit")
	assert.Equal(t, domain.CurrencyNGN, deposit.ApproveCredit)

	payout, _ := SettlementFor(domain.EntryKindPayout)
	assert.Equal(t, domain.CurrencyNGN, payout.UpfrontDebit)
	assert.Empty(t, payout.ApproveCredit)
	assert.False(t, payout.AllowsGateway(domain.OutcomeApprove))

	sell, _ := SettlementFor(domain.EntryKindUSDTSell)
	assert.Equal(t, domain.CurrencyUSDT, sell.UpfrontDebit)
	assert.Equal(t, domain.CurrencyNGN, sell.ApproveCredit)

	transfer, _ := SettlementFor(domain.EntryKindInternalTransfer)
	assert.False(t, transfer.Pending)

	bank, _ := SettlementFor(domain.EntryKindBankTransfer)
	assert.True(t, bank.AllowsGateway(domain.OutcomeFail))
	assert.False(t, bank.AllowsGateway(domain.OutcomeCancel))
}

func TestRecordedAmount(t *testing.T) {
	e := &domain.LedgerEntry{Amount: Naira(1_700), USDTAmount: 1_000_000}
	assert.Equal(t, Naira(1_700), RecordedAmount(e, domain.CurrencyNGN))
	assert.Equal(t, int64(1_000_000), RecordedAmount(e, domain.CurrencyUSDT))
}

func TestUSDTAmount(t *testing.T) {
	rates := Rates{Buy: decimal.NewFromInt(1700), Sell: decimal.NewFromInt(1650)}

	tests := []struct {
		name    string
		naira   int64
		dir     USDTDirection
		rates   Rates
		want    int64
		wantErr error
	}{
		{"buy exact", Naira(1_700), USDTBuy, rates, 1_000_000, nil},
		{"sell exact", Naira(1_650), USDTSell, rates, 1_000_000, nil},
		// 1000 / 1700 = 0.588235294...
		{"buy rounds down", Naira(1_000), USDTBuy, rates, 588_235, nil},
		// 1000 / 1650 = 0.606060606...
		{"sell rounds up", Naira(1_000), USDTSell, rates, 606_061, nil},
		{"zero naira", 0, USDTBuy, rates, 0, domain.ErrInvalidAmount},
		{"inverted rates", Naira(1_000), USDTBuy, Rates{Buy: decimal.NewFromInt(1600), Sell: decimal.NewFromInt(1650)}, 0, domain.ErrInvalidRate},
		{"zero rate", Naira(1_000), USDTSell, Rates{Buy: decimal.NewFromInt(1700), Sell: decimal.Zero}, 0, domain.ErrInvalidRate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := USDTAmount(tc.naira, tc.dir, tc.rates)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUSDTAmount_SpreadFavoursOperator(t *testing.T) {
	rates := Rates{Buy: decimal.NewFromInt(1700), Sell: decimal.NewFromInt(1650)}

	bought, err := USDTAmount(Naira(100_000), USDTBuy, rates)
	require.NoError(t, err)
	soldFor, err := USDTAmount(Naira(100_000), USDTSell, rates)
	require.NoError(t, err)

	assert.Less(t, bought, soldFor)
}

func TestGamePayout(t *testing.T) {
	stake := int64(1000)

	tests := []struct {
		matches    int
		wantPayout int64
		wantNet    int64
	}{
		{4, 4000, 3000},
		{3, 1000, 0},
		{2, 500, -500},
		{1, 0, -1000},
		{0, 0, -1000},
	}

	for _, tc := range tests {
		payout := GamePayout(stake, tc.matches)
		assert.Equal(t, tc.wantPayout, payout, "matches=%d", tc.matches)
		assert.Equal(t, tc.wantNet, payout-stake, "matches=%d", tc.matches)
	}
}

func TestGamePayout_OddStakeRoundsDown(t *testing.T) {
	assert.Equal(t, int64(500), GamePayout(1001, 2))
	assert.Equal(t, int64(1001), GamePayout(1001, 3))
	assert.Equal(t, int64(4004), GamePayout(1001, 4))
}

func TestNumberGuessPayout(t *testing.T) {
	assert.Equal(t, int64(3000), NumberGuessPayout(1000, true))
	assert.Equal(t, int64(0), NumberGuessPayout(1000, false))
}
