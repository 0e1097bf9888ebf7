package fx

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/policy"
)

type memSettings struct {
	s       domain.SystemSettings
	getErr  error
	updates int
}

func (m *memSettings) Get(context.Context) (*domain.SystemSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	cp := m.s
	return &cp, nil
}

func (m *memSettings) Update(_ context.Context, s *domain.SystemSettings, updatedBy uuid.UUID) error {
	m.s = *s
	m.s.UpdatedBy = &updatedBy
	m.updates++
	return nil
}

func newStore() *memSettings {
	return &memSettings{s: domain.SystemSettings{
		USDTBuyRate:  decimal.NewFromInt(1700),
		USDTSellRate: decimal.NewFromInt(1650),
	}}
}

func TestQuote(t *testing.T) {
	svc := NewRateService(newStore())
	ctx := context.Background()

	tests := []struct {
		name     string
		naira    int64
		dir      policy.USDTDirection
		wantRate string
		wantUSDT int64
		wantErr  error
	}{
		{
			name:     "buy one USDT",
			naira:    policy.Naira(1700),
			dir:      policy.USDTBuy,
			wantRate: "1700",
			wantUSDT: 1_000_000,
		},
		{
			name:     "sell uses the lower rate",
			naira:    policy.Naira(3300),
			dir:      policy.USDTSell,
			wantRate: "1650",
			wantUSDT: 2_000_000,
		},
		{
			name:    "unknown direction",
			naira:   policy.Naira(1700),
			dir:     policy.USDTDirection("swap"),
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "zero amount",
			naira:   0,
			dir:     policy.USDTBuy,
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := svc.Quote(ctx, tc.naira, tc.dir)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, q.Rate.Equal(decimal.RequireFromString(tc.wantRate)), "rate: got %s", q.Rate)
			assert.Equal(t, tc.wantUSDT, q.USDTAmount)
			assert.Equal(t, tc.naira, q.NairaAmount)
		})
	}
}

func TestQuote_StoreError(t *testing.T) {
	store := newStore()
	store.getErr = errors.New("connection refused")
	svc := NewRateService(store)

	_, err := svc.Quote(context.Background(), policy.Naira(1700), policy.USDTBuy)
	require.Error(t, err)
}

func TestSetRates(t *testing.T) {
	store := newStore()
	store.s.MaintenanceMode = true
	svc := NewRateService(store)
	admin := uuid.New()

	err := svc.SetRates(context.Background(), policy.Rates{
		Buy:  decimal.NewFromInt(1800),
		Sell: decimal.NewFromInt(1750),
	}, admin)
	require.NoError(t, err)

	assert.True(t, store.s.USDTBuyRate.Equal(decimal.NewFromInt(1800)))
	assert.True(t, store.s.USDTSellRate.Equal(decimal.NewFromInt(1750)))
	assert.True(t, store.s.MaintenanceMode, "maintenance flag must survive a rate change")
	require.NotNil(t, store.s.UpdatedBy)
	assert.Equal(t, admin, *store.s.UpdatedBy)
}

func TestSetRates_RejectsInvertedSpread(t *testing.T) {
	store := newStore()
	svc := NewRateService(store)

	err := svc.SetRates(context.Background(), policy.Rates{
		Buy:  decimal.NewFromInt(1600),
		Sell: decimal.NewFromInt(1650),
	}, uuid.New())
	require.ErrorIs(t, err, domain.ErrInvalidRate)
	assert.Zero(t, store.updates)
}
