package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
)

type userDTO struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, Username: u.Username}
}

// accountDTO reports naira in kobo and USDT in micro-USDT.
type accountDTO struct {
	ID            uuid.UUID `json:"id"`
	AccountNumber string    `json:"account_number"`
	NairaBalance  int64     `json:"naira_balance"`
	USDTBalance   int64     `json:"usdt_balance"`
	Role          string    `json:"role"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		NairaBalance:  a.NairaBalance,
		USDTBalance:   a.USDTBalance,
		Role:          string(a.Role),
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
	}
}

type entryDTO struct {
	ID                    uuid.UUID       `json:"id"`
	Kind                  string          `json:"kind"`
	Status                string          `json:"status"`
	AccountID             uuid.UUID       `json:"account_id"`
	CounterpartyAccountID *uuid.UUID      `json:"counterparty_account_id,omitempty"`
	Amount                int64           `json:"amount"`
	USDTAmount            int64           `json:"usdt_amount,omitempty"`
	USDTRate              *string         `json:"usdt_rate,omitempty"`
	Reference             *string         `json:"reference,omitempty"`
	Description           string          `json:"description"`
	Metadata              json.RawMessage `json:"metadata,omitempty"`
	FailureReason         *string         `json:"failure_reason,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	ResolvedAt            *time.Time      `json:"resolved_at,omitempty"`
}

func toEntryDTO(e *domain.LedgerEntry) entryDTO {
	dto := entryDTO{
		ID:                    e.ID,
		Kind:                  string(e.Kind),
		Status:                string(e.Status),
		AccountID:             e.AccountID,
		CounterpartyAccountID: e.CounterpartyAccountID,
		Amount:                e.Amount,
		USDTAmount:            e.USDTAmount,
		Reference:             e.ExternalReference,
		Description:           e.Description,
		Metadata:              e.Metadata,
		FailureReason:         e.FailureReason,
		CreatedAt:             e.CreatedAt,
		ResolvedAt:            e.ResolvedAt,
	}
	if e.USDTRate != nil {
		rate := e.USDTRate.String()
		dto.USDTRate = &rate
	}
	return dto
}

func toEntryDTOs(entries []domain.LedgerEntry) []entryDTO {
	dtos := make([]entryDTO, len(entries))
	for i := range entries {
		dtos[i] = toEntryDTO(&entries[i])
	}
	return dtos
}

// movementResponse is returned by every money-moving endpoint.
type movementResponse struct {
	Entry   entryDTO    `json:"entry"`
	Account *accountDTO `json:"account,omitempty"`
}

func newMovementResponse(e *domain.LedgerEntry, a *domain.Account) movementResponse {
	resp := movementResponse{Entry: toEntryDTO(e)}
	if a != nil {
		dto := toAccountDTO(a)
		resp.Account = &dto
	}
	return resp
}
