package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Page struct {
	Items  any `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// AppErrorFor maps a domain error to its HTTP representation. Unknown errors
// map to ErrInternalError.
func AppErrorFor(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, domain.ErrInsufficientBalance):
		return ErrInsufficientBalance
	case errors.Is(err, domain.ErrAccountSuspended):
		return ErrAccountSuspended
	case errors.Is(err, domain.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, domain.ErrInvalidAmount):
		return ErrInvalidAmount
	case errors.Is(err, domain.ErrBelowMinimum):
		return ErrBelowMinimum
	case errors.Is(err, domain.ErrAboveMaximum):
		return ErrAboveMaximum
	case errors.Is(err, domain.ErrSelfTransfer):
		return ErrSelfTransfer
	case errors.Is(err, domain.ErrRecipientNotFound):
		return ErrRecipientNotFound
	case errors.Is(err, domain.ErrEntryNotFound):
		return ErrEntryNotFound
	case errors.Is(err, domain.ErrSettlementConflict):
		return ErrSettlementConflict
	case errors.Is(err, domain.ErrAlreadyResolved):
		return ErrAlreadyResolved
	case errors.Is(err, domain.ErrEntryNotPending):
		return ErrEntryNotPending
	case errors.Is(err, domain.ErrOutcomeNotAllowed):
		return ErrOutcomeNotAllowed
	case errors.Is(err, domain.ErrVersionConflict):
		return ErrVersionConflict
	case errors.Is(err, domain.ErrBankResolution):
		return ErrBankResolution
	case errors.Is(err, domain.ErrTransferRejected):
		return ErrTransferRejected
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return ErrGatewayUnavailable
	case errors.Is(err, domain.ErrInvalidSelection):
		return ErrInvalidSelection
	case errors.Is(err, domain.ErrRoundNotOpen):
		return ErrRoundNotOpen
	case errors.Is(err, domain.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, domain.ErrMaintenanceMode):
		return ErrMaintenanceMode
	case errors.Is(err, domain.ErrUsernameTaken):
		return ErrUsernameTaken
	case errors.Is(err, domain.ErrEmailTaken):
		return ErrEmailTaken
	case errors.Is(err, domain.ErrDuplicateEntry):
		return ErrDuplicateEntry
	case errors.Is(err, domain.ErrInvalidRate):
		return ErrInvalidRate
	case errors.Is(err, domain.ErrAmountMismatch):
		return ErrAmountMismatch
	case errors.Is(err, domain.ErrInvalidRequest):
		return ErrInvalidRequest
	case errors.Is(err, domain.ErrNotFound):
		return ErrResourceNotFound
	default:
		return ErrInternalError
	}
}

func RespondDomainError(w http.ResponseWriter, err error) {
	appErr := AppErrorFor(err)
	if appErr == ErrInternalError {
		slog.Error("unhandled domain error", "error", err)
	}
	RespondAppError(w, appErr, nil)
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pagination reads limit and offset from the query string, clamping limit
// to maxPageSize.
func pagination(r *http.Request) (limit, offset int, fields []FieldError) {
	limit, offset = defaultPageSize, 0

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			fields = append(fields, FieldError{Field: "limit", Message: "must be a positive integer"})
		} else {
			limit = min(n, maxPageSize)
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			fields = append(fields, FieldError{Field: "offset", Message: "must be a non-negative integer"})
		} else {
			offset = n
		}
	}
	return limit, offset, fields
}
