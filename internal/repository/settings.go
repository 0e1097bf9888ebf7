package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context) (*domain.SystemSettings, error) {
	var s domain.SystemSettings
	err := r.db.QueryRowContext(ctx,
		`SELECT usdt_buy_rate, usdt_sell_rate, maintenance_mode, updated_by, updated_at
		FROM system_settings WHERE id = 1`,
	).Scan(&s.USDTBuyRate, &s.USDTSellRate, &s.MaintenanceMode, &s.UpdatedBy, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepository) Update(ctx context.Context, s *domain.SystemSettings, updatedBy uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE system_settings
		SET usdt_buy_rate = $1, usdt_sell_rate = $2, maintenance_mode = $3,
			updated_by = $4, updated_at = now()
		WHERE id = 1`,
		s.USDTBuyRate, s.USDTSellRate, s.MaintenanceMode, updatedBy,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return nil
}
