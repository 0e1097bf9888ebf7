package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
	"github.com/josh-kwaku/naira-wallet/internal/policy"
)

type settingsStore interface {
	Get(ctx context.Context) (*domain.SystemSettings, error)
	Update(ctx context.Context, s *domain.SystemSettings, updatedBy uuid.UUID) error
}

type SettingsService struct {
	store settingsStore
}

func NewSettingsService(store settingsStore) *SettingsService {
	return &SettingsService{store: store}
}

// SettingsUpdate is a partial update; nil fields keep their current value.
type SettingsUpdate struct {
	USDTBuyRate     *decimal.Decimal
	USDTSellRate    *decimal.Decimal
	MaintenanceMode *bool
}

func (s *SettingsService) Get(ctx context.Context) (*domain.SystemSettings, error) {
	st, err := s.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return st, nil
}

func (s *SettingsService) Update(ctx context.Context, in SettingsUpdate, adminID uuid.UUID) (*domain.SystemSettings, error) {
	st, err := s.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	if in.USDTBuyRate != nil {
		st.USDTBuyRate = *in.USDTBuyRate
	}
	if in.USDTSellRate != nil {
		st.USDTSellRate = *in.USDTSellRate
	}
	if in.MaintenanceMode != nil {
		st.MaintenanceMode = *in.MaintenanceMode
	}

	rates := policy.Rates{Buy: st.USDTBuyRate, Sell: st.USDTSellRate}
	if err := rates.Validate(); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	if err := s.store.Update(ctx, st, adminID); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	st.UpdatedBy = &adminID

	logging.FromContext(ctx).Info("system settings updated",
		"admin_id", adminID,
		"usdt_buy_rate", st.USDTBuyRate.String(),
		"usdt_sell_rate", st.USDTSellRate.String(),
		"maintenance_mode", st.MaintenanceMode,
	)
	return st, nil
}

func (s *SettingsService) InMaintenance(ctx context.Context) (bool, error) {
	st, err := s.store.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("InMaintenance: %w", err)
	}
	return st.MaintenanceMode, nil
}
