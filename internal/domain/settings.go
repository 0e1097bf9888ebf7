package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SystemSettings holds the operator-editable knobs. USDTBuyRate and
// USDTSellRate are naira per USDT.
type SystemSettings struct {
	USDTBuyRate     decimal.Decimal
	USDTSellRate    decimal.Decimal
	MaintenanceMode bool
	UpdatedBy       *uuid.UUID
	UpdatedAt       time.Time
}
