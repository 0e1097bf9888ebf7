package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
	"github.com/josh-kwaku/naira-wallet/internal/policy"
	"github.com/josh-kwaku/naira-wallet/internal/service/ledger"
)

type moneyMover interface {
	Deposit(ctx context.Context, in ledger.DepositIntent) (*ledger.DepositResult, error)
	InternalTransfer(ctx context.Context, in ledger.TransferIntent) (*ledger.Result, error)
	BankTransfer(ctx context.Context, in ledger.BankTransferIntent) (*ledger.Result, error)
	Payout(ctx context.Context, in ledger.PayoutIntent) (*ledger.Result, error)
	ExchangeUSDT(ctx context.Context, in ledger.USDTIntent) (*ledger.Result, error)
}

type entryCanceller interface {
	Cancel(ctx context.Context, entryID, ownerAccountID, ownerUserID uuid.UUID) (*domain.LedgerEntry, error)
}

type recipientResolver interface {
	ResolveRecipient(ctx context.Context, username string) (*domain.Account, error)
}

// LedgerHandler serves the money-moving endpoints. Amounts in requests and
// responses are kobo, USDT amounts micro-USDT.
type LedgerHandler struct {
	money      moneyMover
	cancel     entryCanceller
	recipients recipientResolver
}

func NewLedgerHandler(money moneyMover, cancel entryCanceller, recipients recipientResolver) *LedgerHandler {
	return &LedgerHandler{money: money, cancel: cancel, recipients: recipients}
}

// checkAmount rejects amounts outside op's bounds with the same typed error
// the executor would return.
func checkAmount(w http.ResponseWriter, op policy.Operation, amount int64) bool {
	if err := policy.CheckAmount(op, amount); err != nil {
		RespondDomainError(w, err)
		return false
	}
	return true
}

type depositRequest struct {
	Amount int64 `json:"amount"`
}

type depositResponse struct {
	movementResponse
	AuthorizationURL string `json:"authorization_url"`
}

func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if !checkAmount(w, policy.OpDeposit, req.Amount) {
		return
	}

	res, err := h.money.Deposit(r.Context(), ledger.DepositIntent{
		AccountID: p.AccountID,
		UserID:    p.UserID,
		Email:     p.Email,
		Amount:    req.Amount,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("deposit failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", entryLocation(res.Entry.ID))
	RespondSuccess(w, http.StatusAccepted, depositResponse{
		movementResponse: newMovementResponse(res.Entry, res.Account),
		AuthorizationURL: res.AuthorizationURL,
	})
}

type transferRequest struct {
	RecipientUsername string `json:"recipient_username"`
	Amount            int64  `json:"amount"`
	Description       string `json:"description"`
}

func (r transferRequest) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.RecipientUsername) == "" {
		errs = append(errs, FieldError{Field: "recipient_username", Message: "required"})
	}
	if len(strings.TrimSpace(r.Description)) < 3 {
		errs = append(errs, FieldError{Field: "description", Message: "must be at least 3 characters"})
	}
	return errs
}

func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	if !checkAmount(w, policy.OpInternalTransfer, req.Amount) {
		return
	}

	recipient, err := h.recipients.ResolveRecipient(r.Context(), req.RecipientUsername)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	res, err := h.money.InternalTransfer(r.Context(), ledger.TransferIntent{
		FromAccountID: p.AccountID,
		ToAccountID:   recipient.ID,
		UserID:        p.UserID,
		Amount:        req.Amount,
		Description:   req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("internal transfer failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", entryLocation(res.Entry.ID))
	RespondSuccess(w, http.StatusCreated, newMovementResponse(res.Entry, res.Account))
}

type bankRequest struct {
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
}

func (r bankRequest) Validate() []FieldError {
	var errs []FieldError
	if r.BankCode == "" {
		errs = append(errs, FieldError{Field: "bank_code", Message: "required"})
	}
	if r.AccountNumber == "" {
		errs = append(errs, FieldError{Field: "account_number", Message: "required"})
	}
	return errs
}

func (r bankRequest) destination() ledger.BankDestination {
	return ledger.BankDestination{BankCode: r.BankCode, AccountNumber: r.AccountNumber}
}

func (h *LedgerHandler) BankTransfer(w http.ResponseWriter, r *http.Request) {
	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req bankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	if !checkAmount(w, policy.OpBankTransfer, req.Amount) {
		return
	}

	res, err := h.money.BankTransfer(r.Context(), ledger.BankTransferIntent{
		AccountID:   p.AccountID,
		UserID:      p.UserID,
		Destination: req.destination(),
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("bank transfer failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", entryLocation(res.Entry.ID))
	RespondSuccess(w, http.StatusAccepted, newMovementResponse(res.Entry, res.Account))
}

func (h *LedgerHandler) Payout(w http.ResponseWriter, r *http.Request) {
	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req bankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	if !checkAmount(w, policy.OpPayout, req.Amount) {
		return
	}

	res, err := h.money.Payout(r.Context(), ledger.PayoutIntent{
		AccountID:   p.AccountID,
		UserID:      p.UserID,
		Destination: req.destination(),
		Amount:      req.Amount,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("payout request failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", entryLocation(res.Entry.ID))
	RespondSuccess(w, http.StatusAccepted, newMovementResponse(res.Entry, res.Account))
}

type usdtRequest struct {
	Direction string `json:"direction"`
	Amount    int64  `json:"amount"`
}

func (r usdtRequest) Validate() []FieldError {
	if _, ok := policy.OperationFor(policy.USDTDirection(r.Direction)); !ok {
		return []FieldError{{Field: "direction", Message: "must be buy or sell"}}
	}
	return nil
}

func (h *LedgerHandler) ExchangeUSDT(w http.ResponseWriter, r *http.Request) {
	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req usdtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	op, _ := policy.OperationFor(policy.USDTDirection(req.Direction))
	if !checkAmount(w, op, req.Amount) {
		return
	}

	res, err := h.money.ExchangeUSDT(r.Context(), ledger.USDTIntent{
		AccountID:   p.AccountID,
		UserID:      p.UserID,
		Direction:   policy.USDTDirection(req.Direction),
		NairaAmount: req.Amount,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("usdt exchange failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", entryLocation(res.Entry.ID))
	RespondSuccess(w, http.StatusAccepted, newMovementResponse(res.Entry, res.Account))
}

// Cancel withdraws the caller's own pending request.
func (h *LedgerHandler) Cancel(w http.ResponseWriter, r *http.Request) {
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

	entry, err := h.cancel.Cancel(r.Context(), entryID, p.AccountID, p.UserID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, newMovementResponse(entry, nil))
}

func entryLocation(id uuid.UUID) string {
	return fmt.Sprintf("/api/v1/entries/%s", id)
}
