package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
	"github.com/josh-kwaku/naira-wallet/internal/service"
)

type pendingLister interface {
	ListPending(ctx context.Context, kind domain.EntryKind, limit, offset int) ([]domain.LedgerEntry, int, error)
}

type entryResolver interface {
	Resolve(ctx context.Context, entryID uuid.UUID, outcome domain.Outcome, adminID uuid.UUID, reason string) (*domain.LedgerEntry, error)
}

type accountAdmin interface {
	ListAccounts(ctx context.Context, limit, offset int) ([]domain.Account, int, error)
	SetStatus(ctx context.Context, accountID uuid.UUID, status domain.AccountStatus, adminID uuid.UUID) (*domain.Account, error)
}

type settingsAdmin interface {
	Get(ctx context.Context) (*domain.SystemSettings, error)
	Update(ctx context.Context, in service.SettingsUpdate, adminID uuid.UUID) (*domain.SystemSettings, error)
}

// AdminHandler serves the operator endpoints. Routes are mounted behind
// RequireAdmin, so handlers only need the caller's identity for audit.
type AdminHandler struct {
	pending  pendingLister
	resolver entryResolver
	accounts accountAdmin
	settings settingsAdmin
}

func NewAdminHandler(pending pendingLister, resolver entryResolver, accounts accountAdmin, settings settingsAdmin) *AdminHandler {
	return &AdminHandler{
		pending:  pending,
		resolver: resolver,
		accounts: accounts,
		settings: settings,
	}
}

func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, offset, fields := pagination(r)

	var kind domain.EntryKind
	if v := r.URL.Query().Get("kind"); v != "" {
		kind = domain.EntryKind(v)
		if !kind.IsValid() {
			fields = append(fields, FieldError{Field: "kind", Message: "unknown transaction kind"})
		}
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	entries, total, err := h.pending.ListPending(r.Context(), kind, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("list pending entries failed", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, Page{Items: toEntryDTOs(entries), Total: total, Limit: limit, Offset: offset})
}

type resolveRequest struct {
	Reason string `json:"reason"`
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, domain.OutcomeApprove)
}

func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, domain.OutcomeReject)
}

func (h *AdminHandler) resolve(w http.ResponseWriter, r *http.Request, outcome domain.Outcome) {
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

	// The body is optional; an empty one means no reason given.
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if outcome == domain.OutcomeReject && strings.TrimSpace(req.Reason) == "" {
		req.Reason = "rejected by admin"
	}

	entry, err := h.resolver.Resolve(r.Context(), entryID, outcome, p.UserID, strings.TrimSpace(req.Reason))
	if err != nil {
		logging.FromContext(r.Context()).Warn("admin resolution failed",
			"entry_id", entryID, "outcome", outcome, "error", err)
		RespondDomainError(w, err)
		return
	}

	logging.FromContext(r.Context()).Info("entry resolved by admin",
		"entry_id", entryID, "outcome", outcome, "status", entry.Status)
	RespondSuccess(w, http.StatusOK, toEntryDTO(entry))
}

func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	limit, offset, fields := pagination(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	accounts, total, err := h.accounts.ListAccounts(r.Context(), limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("list accounts failed", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	dtos := make([]accountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}
	RespondSuccess(w, http.StatusOK, Page{Items: dtos, Total: total, Limit: limit, Offset: offset})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandler) SetAccountStatus(w http.ResponseWriter, r *http.Request) {
	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	accountID, appErr := idFromPath(r, ErrAccountNotFound)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	status := domain.AccountStatus(req.Status)
	if status != domain.AccountStatusActive && status != domain.AccountStatusSuspended {
		RespondValidationError(w, []FieldError{{Field: "status", Message: "must be active or suspended"}})
		return
	}

	account, err := h.accounts.SetStatus(r.Context(), accountID, status, p.UserID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("set account status failed", "account_id", accountID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

type settingsDTO struct {
	USDTBuyRate     string     `json:"usdt_buy_rate"`
	USDTSellRate    string     `json:"usdt_sell_rate"`
	MaintenanceMode bool       `json:"maintenance_mode"`
	UpdatedBy       *uuid.UUID `json:"updated_by,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toSettingsDTO(s *domain.SystemSettings) settingsDTO {
	return settingsDTO{
		USDTBuyRate:     s.USDTBuyRate.String(),
		USDTSellRate:    s.USDTSellRate.String(),
		MaintenanceMode: s.MaintenanceMode,
		UpdatedBy:       s.UpdatedBy,
		UpdatedAt:       s.UpdatedAt,
	}
}

func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.settings.Get(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("load settings failed", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}
	RespondSuccess(w, http.StatusOK, toSettingsDTO(st))
}

// Rates accept either JSON strings or numbers.
type settingsRequest struct {
	USDTBuyRate     *decimal.Decimal `json:"usdt_buy_rate"`
	USDTSellRate    *decimal.Decimal `json:"usdt_sell_rate"`
	MaintenanceMode *bool            `json:"maintenance_mode"`
}

func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.USDTBuyRate == nil && req.USDTSellRate == nil && req.MaintenanceMode == nil {
		RespondValidationError(w, []FieldError{{Field: "body", Message: "at least one setting is required"}})
		return
	}

	st, err := h.settings.Update(r.Context(), service.SettingsUpdate{
		USDTBuyRate:     req.USDTBuyRate,
		USDTSellRate:    req.USDTSellRate,
		MaintenanceMode: req.MaintenanceMode,
	}, p.UserID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("update settings failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toSettingsDTO(st))
}
