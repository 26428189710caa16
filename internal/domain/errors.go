package domain

import "errors"

var (
	// Record errors
	ErrMalformedRecord = errors.New("malformed record")
	ErrInvalidAmount   = errors.New("amount must be positive")

	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountLocked     = errors.New("account is locked")
	ErrInsufficientFunds = errors.New("insufficient available funds")

	// Ledger constraint errors
	ErrUnknownTransaction     = errors.New("unknown transaction")
	ErrAlreadyDisputed        = errors.New("transaction already disputed")
	ErrNoOpenDispute          = errors.New("no open dispute for transaction")
	ErrDuplicateTransactionID = errors.New("duplicate transaction id")
)

// rejections are the errors that drop a single event without aborting the run.
var rejections = []error{
	ErrMalformedRecord,
	ErrAccountLocked,
	ErrInsufficientFunds,
	ErrUnknownTransaction,
	ErrAlreadyDisputed,
	ErrNoOpenDispute,
	ErrDuplicateTransactionID,
}

// IsRejection reports whether err is a recoverable, per-event rejection.
// Anything else coming out of the processor is fatal.
func IsRejection(err error) bool {
	if err == nil {
		return false
	}
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}

// RejectionCode returns a stable, machine-readable code for a rejection.
func RejectionCode(err error) string {
	switch {
	case errors.Is(err, ErrMalformedRecord):
		return "malformed_record"
	case errors.Is(err, ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrUnknownTransaction):
		return "unknown_transaction"
	case errors.Is(err, ErrAlreadyDisputed):
		return "already_disputed"
	case errors.Is(err, ErrNoOpenDispute):
		return "no_open_dispute"
	case errors.Is(err, ErrDuplicateTransactionID):
		return "duplicate_transaction_id"
	default:
		return "internal"
	}
}
