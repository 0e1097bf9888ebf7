package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidSignature   = &AppError{http.StatusUnauthorized, "INVALID_SIGNATURE", "Webhook signature is invalid"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrMethodNotAllowed   = &AppError{http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed"}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "You do not have access to this resource"}
	ErrRateLimited        = &AppError{http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, slow down"}
	ErrMaintenanceMode    = &AppError{http.StatusServiceUnavailable, "MAINTENANCE_MODE", "Service is under maintenance, try again later"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInsufficientBalance = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", "Insufficient balance"}
	ErrAccountNotFound     = &AppError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrAccountSuspended    = &AppError{http.StatusForbidden, "ACCOUNT_SUSPENDED", "Account is suspended"}
	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be a positive number of kobo"}
	ErrBelowMinimum        = &AppError{http.StatusUnprocessableEntity, "AMOUNT_BELOW_MINIMUM", "Amount is below the minimum for this operation"}
	ErrAboveMaximum        = &AppError{http.StatusUnprocessableEntity, "AMOUNT_ABOVE_MAXIMUM", "Amount is above the maximum for this operation"}
	ErrSelfTransfer        = &AppError{http.StatusUnprocessableEntity, "SELF_TRANSFER_NOT_ALLOWED", "Cannot transfer to your own wallet"}
	ErrRecipientNotFound   = &AppError{http.StatusUnprocessableEntity, "RECIPIENT_NOT_FOUND", "Recipient not found"}
	ErrEntryNotFound       = &AppError{http.StatusNotFound, "ENTRY_NOT_FOUND", "Transaction not found"}
	ErrAlreadyResolved     = &AppError{http.StatusConflict, "ALREADY_RESOLVED", "Transaction has already been resolved"}
	ErrEntryNotPending     = &AppError{http.StatusConflict, "ENTRY_NOT_PENDING", "Transaction was never pending"}
	ErrOutcomeNotAllowed   = &AppError{http.StatusUnprocessableEntity, "OUTCOME_NOT_ALLOWED", "That action is not allowed for this transaction"}
	ErrVersionConflict     = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrBankResolution      = &AppError{http.StatusUnprocessableEntity, "BANK_RESOLUTION_FAILED", "Bank account could not be verified"}
	ErrGatewayUnavailable  = &AppError{http.StatusBadGateway, "GATEWAY_UNAVAILABLE", "Payment provider is unavailable, try again later"}
	ErrInvalidSelection    = &AppError{http.StatusBadRequest, "INVALID_SELECTION", "Invalid game selection"}
	ErrRoundNotOpen        = &AppError{http.StatusConflict, "ROUND_NOT_OPEN", "Game round is not open"}
	ErrDuplicateEntry      = &AppError{http.StatusConflict, "DUPLICATE_ENTRY", "Duplicate entry"}
	ErrUsernameTaken       = &AppError{http.StatusConflict, "USERNAME_TAKEN", "Username is already taken"}
	ErrEmailTaken          = &AppError{http.StatusConflict, "EMAIL_TAKEN", "Email is already registered"}
	ErrInvalidRate         = &AppError{http.StatusUnprocessableEntity, "INVALID_RATE", "Buy rate must exceed sell rate and both must be positive"}
	ErrAmountMismatch      = &AppError{http.StatusUnprocessableEntity, "AMOUNT_MISMATCH", "Amount does not match the transaction"}
	ErrTransferRejected    = &AppError{http.StatusUnprocessableEntity, "TRANSFER_REJECTED", "Payment provider rejected the transfer, your wallet was refunded"}
	ErrSettlementConflict  = &AppError{http.StatusConflict, "SETTLEMENT_CONFLICT", "Provider outcome contradicts the recorded transaction"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
