package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountSuspended    = errors.New("account suspended")
	ErrInvalidAmount       = errors.New("amount must be a positive whole number of minor units")
	ErrBelowMinimum        = errors.New("amount below minimum")
	ErrAboveMaximum        = errors.New("amount above maximum")
	ErrSelfTransfer        = errors.New("cannot transfer to self")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrEntryNotFound       = errors.New("ledger entry not found")
	ErrAlreadyResolved     = errors.New("ledger entry already resolved")
	ErrEntryNotPending     = errors.New("ledger entry was never pending")
	ErrOutcomeNotAllowed   = errors.New("outcome not allowed for this entry")
	ErrVersionConflict     = errors.New("optimistic lock conflict")
	ErrBankResolution      = errors.New("bank account could not be resolved")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrTransferRejected    = errors.New("payment gateway rejected the transfer")
	ErrSettlementConflict  = errors.New("gateway outcome contradicts settled entry")
	ErrInvalidSelection    = errors.New("invalid game selection")
	ErrRoundNotOpen        = errors.New("game round is not open")
	ErrForbidden           = errors.New("forbidden")
	ErrMaintenanceMode     = errors.New("service in maintenance mode")
	ErrDuplicateEntry      = errors.New("duplicate entry")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidRate         = errors.New("invalid usdt rate")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAmountMismatch      = errors.New("gateway amount does not match ledger entry")
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindState      ErrorKind = "state"
	KindExternal   ErrorKind = "external"
	KindTransient  ErrorKind = "transient"
	KindInternal   ErrorKind = "internal"
)

// Kind classifies err so callers can tell "fix the request" from "retry won't
// help" from "retry later".
func Kind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrBelowMinimum), errors.Is(err, ErrAboveMaximum),
		errors.Is(err, ErrSelfTransfer), errors.Is(err, ErrInvalidSelection), errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidRate):
		return KindValidation
	case errors.Is(err, ErrInsufficientBalance), errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrAccountSuspended),
		errors.Is(err, ErrRecipientNotFound), errors.Is(err, ErrEntryNotFound), errors.Is(err, ErrAlreadyResolved),
		errors.Is(err, ErrEntryNotPending), errors.Is(err, ErrOutcomeNotAllowed), errors.Is(err, ErrRoundNotOpen),
		errors.Is(err, ErrForbidden), errors.Is(err, ErrMaintenanceMode), errors.Is(err, ErrDuplicateEntry),
		errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrSettlementConflict):
		return KindState
	case errors.Is(err, ErrBankResolution), errors.Is(err, ErrGatewayUnavailable), errors.Is(err, ErrAmountMismatch),
		errors.Is(err, ErrTransferRejected):
		return KindExternal
	case errors.Is(err, ErrVersionConflict):
		return KindTransient
	default:
		return KindInternal
	}
}
