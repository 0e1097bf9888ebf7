package policy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
)

type USDTDirection string

const (
	USDTBuy  USDTDirection = "buy"
	USDTSell USDTDirection = "sell"
)

// OperationFor maps a direction to the operation whose bounds apply.
func OperationFor(dir USDTDirection) (Operation, bool) {
	switch dir {
	case USDTBuy:
		return OpUSDTBuy, true
	case USDTSell:
		return OpUSDTSell, true
	default:
		return "", false
	}
}

// Rates are naira per USDT. Buy must exceed Sell; the gap is the operator's
// margin.
type Rates struct {
	Buy  decimal.Decimal
	Sell decimal.Decimal
}

func (r Rates) Validate() error {
	if !r.Buy.IsPositive() || !r.Sell.IsPositive() {
		return fmt.Errorf("Rates.Validate: rates must be positive: %w", domain.ErrInvalidRate)
	}
	if !r.Buy.GreaterThan(r.Sell) {
		return fmt.Errorf("Rates.Validate: buy rate must exceed sell rate: %w", domain.ErrInvalidRate)
	}
	return nil
}

func (r Rates) For(dir USDTDirection) decimal.Decimal {
	if dir == USDTSell {
		return r.Sell
	}
	return r.Buy
}

// USDTAmount converts a naira amount (kobo) to micro-USDT at the rate for
// dir. Buys round down so the user never receives more than paid for; sells
// round up so the user never gives up less than the naira received.
func USDTAmount(nairaKobo int64, dir USDTDirection, rates Rates) (int64, error) {
	if nairaKobo <= 0 {
		return 0, fmt.Errorf("USDTAmount: %w", domain.ErrInvalidAmount)
	}
	if err := rates.Validate(); err != nil {
		return 0, fmt.Errorf("USDTAmount: %w", err)
	}

	naira := decimal.New(nairaKobo, -2)
	micro := naira.Div(rates.For(dir)).Mul(decimal.NewFromInt(MicroPerUSDT))

	var out decimal.Decimal
	if dir == USDTSell {
		out = micro.RoundCeil(0)
	} else {
		out = micro.RoundFloor(0)
	}

	if !out.IsPositive() {
		return 0, fmt.Errorf("USDTAmount: converts to zero: %w", domain.ErrInvalidAmount)
	}
	return out.IntPart(), nil
}
