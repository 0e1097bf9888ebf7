package fx

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/policy"
)

type settingsStore interface {
	Get(ctx context.Context) (*domain.SystemSettings, error)
	Update(ctx context.Context, s *domain.SystemSettings, updatedBy uuid.UUID) error
}

// Quote prices a naira amount in USDT at the current rate for Direction.
type Quote struct {
	Direction   policy.USDTDirection
	Rate        decimal.Decimal
	NairaAmount int64
	USDTAmount  int64
}

type RateService struct {
	settings settingsStore
}

func NewRateService(settings settingsStore) *RateService {
	return &RateService{settings: settings}
}

func (s *RateService) Rates(ctx context.Context) (policy.Rates, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return policy.Rates{}, fmt.Errorf("Rates: %w", err)
	}
	return policy.Rates{Buy: st.USDTBuyRate, Sell: st.USDTSellRate}, nil
}

func (s *RateService) Quote(ctx context.Context, nairaKobo int64, dir policy.USDTDirection) (*Quote, error) {
	if dir != policy.USDTBuy && dir != policy.USDTSell {
		return nil, fmt.Errorf("Quote: direction %q: %w", dir, domain.ErrInvalidRequest)
	}

	rates, err := s.Rates(ctx)
	if err != nil {
		return nil, fmt.Errorf("Quote: %w", err)
	}

	usdt, err := policy.USDTAmount(nairaKobo, dir, rates)
	if err != nil {
		return nil, fmt.Errorf("Quote: %w", err)
	}

	return &Quote{
		Direction:   dir,
		Rate:        rates.For(dir),
		NairaAmount: nairaKobo,
		USDTAmount:  usdt,
	}, nil
}

// SetRates replaces both rates. The maintenance flag is left untouched.
func (s *RateService) SetRates(ctx context.Context, rates policy.Rates, adminID uuid.UUID) error {
	if err := rates.Validate(); err != nil {
		return fmt.Errorf("SetRates: %w", err)
	}

	st, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("SetRates: %w", err)
	}
	st.USDTBuyRate = rates.Buy
	st.USDTSellRate = rates.Sell

	if err := s.settings.Update(ctx, st, adminID); err != nil {
		return fmt.Errorf("SetRates: %w", err)
	}
	return nil
}
