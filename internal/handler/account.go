package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
	"github.com/josh-kwaku/naira-wallet/internal/service"
)

type profileService interface {
	Profile(ctx context.Context, accountID uuid.UUID) (*service.Profile, error)
	ResolveRecipient(ctx context.Context, username string) (*domain.Account, error)
}

type entryReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
}

type AccountHandler struct {
	accounts profileService
	entries  entryReader
}

func NewAccountHandler(accounts profileService, entries entryReader) *AccountHandler {
	return &AccountHandler{accounts: accounts, entries: entries}
}

type profileResponse struct {
	User    userDTO    `json:"user"`
	Account accountDTO `json:"account"`
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	profile, err := h.accounts.Profile(r.Context(), p.AccountID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load profile", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, profileResponse{
		User:    toUserDTO(profile.User),
		Account: toAccountDTO(profile.Account),
	})
}

type recipientResponse struct {
	Username      string    `json:"username"`
	AccountID     uuid.UUID `json:"account_id"`
	AccountNumber string    `json:"account_number"`
}

// Recipient confirms a username before the client sends money to it.
func (h *AccountHandler) Recipient(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if username == "" {
		RespondValidationError(w, []FieldError{{Field: "username", Message: "required"}})
		return
	}

	acct, err := h.accounts.ResolveRecipient(r.Context(), username)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, recipientResponse{
		Username:      username,
		AccountID:     acct.ID,
		AccountNumber: acct.AccountNumber,
	})
}

// History lists entries where the caller is owner or counterparty, newest
// first.
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit, offset, fields := pagination(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	entries, total, err := h.entries.ListByAccount(r.Context(), p.AccountID, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list entries", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, Page{
		Items:  toEntryDTOs(entries),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *AccountHandler) Entry(w http.ResponseWriter, r *http.Request) {
	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	entryID, appErr := idFromPath(r, ErrEntryNotFound)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	entry, err := h.entries.GetByID(r.Context(), entryID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	if !visibleTo(entry, p.AccountID) {
		RespondAppError(w, ErrEntryNotFound, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, toEntryDTO(entry))
}

func visibleTo(e *domain.LedgerEntry, accountID uuid.UUID) bool {
	if e.AccountID == accountID {
		return true
	}
	return e.CounterpartyAccountID != nil && *e.CounterpartyAccountID == accountID
}
