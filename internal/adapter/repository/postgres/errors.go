package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/paymentsengine/internal/domain"
)

// PostgreSQL integrity constraint violation codes.
const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
	pgErrCheckViolation      = "23514"
)

// constraintErrors maps schema constraint names to ledger errors.
var constraintErrors = map[string]error{
	"balance_transfers_pkey":               domain.ErrDuplicateTransactionID,
	"balance_transfers_transaction_id_key": domain.ErrDuplicateTransactionID,
	"balance_transfers_amount_positive":    domain.ErrInvalidAmount,
	"disputes_pkey":                        domain.ErrAlreadyDisputed,
	"disputes_transfer_fkey":               domain.ErrUnknownTransaction,
	"resolutions_pkey":                     domain.ErrNoOpenDispute,
	"resolutions_dispute_fkey":             domain.ErrNoOpenDispute,
}

// mapConstraintError translates a constraint violation into its domain error.
// The original error stays in the chain. Other errors are returned unchanged.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgErrUniqueViolation, pgErrForeignKeyViolation, pgErrCheckViolation:
	default:
		return err
	}

	if mapped, ok := constraintErrors[pgErr.ConstraintName]; ok {
		return fmt.Errorf("%w: %w", mapped, err)
	}
	return err
}
