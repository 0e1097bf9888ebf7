package domain

import (
	"time"

	"github.com/google/uuid"
)

type Currency string

const (
	CurrencyNGN  Currency = "NGN"
	CurrencyUSDT Currency = "USDT"
)

func (c Currency) IsValid() bool {
	return c == CurrencyNGN || c == CurrencyUSDT
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
)

// Account is the per-user wallet. NairaBalance is held in kobo and
// USDTBalance in micro-USDT; neither may go negative.
type Account struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	AccountNumber string
	NairaBalance  int64
	USDTBalance   int64
	Role          Role
	Status        AccountStatus
	EmailVerified bool
	Version       int64
	CreatedAt     time.Time
}

func (a *Account) Balance(c Currency) int64 {
	if c == CurrencyUSDT {
		return a.USDTBalance
	}
	return a.NairaBalance
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}
