package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionID identifies a balance transfer. Unique across the whole ledger.
type TransactionID uint32

// TransferKind distinguishes deposits from withdrawals.
type TransferKind string

const (
	TransferKindDeposit    TransferKind = "deposit"
	TransferKindWithdrawal TransferKind = "withdrawal"
)

// TransferState is derived from the presence of dispute and resolution rows.
type TransferState string

const (
	TransferStateActive      TransferState = "active"
	TransferStateDisputed    TransferState = "disputed"
	TransferStateResolved    TransferState = "resolved"
	TransferStateChargedBack TransferState = "charged_back"
)

// ResolutionOutcome is how a dispute was closed.
type ResolutionOutcome string

const (
	ResolutionResolve    ResolutionOutcome = "resolve"
	ResolutionChargeBack ResolutionOutcome = "chargeback"
)

// BalanceTransfer is an accepted deposit or withdrawal. Immutable once stored.
type BalanceTransfer struct {
	CustomerID    CustomerID
	TransactionID TransactionID
	Kind          TransferKind
	Amount        decimal.Decimal
	State         TransferState
	CreatedAt     time.Time
}

// Validate checks the transfer before it is written.
func (t *BalanceTransfer) Validate() error {
	if t.Kind != TransferKindDeposit && t.Kind != TransferKindWithdrawal {
		return fmt.Errorf("%w: unknown transfer kind %q", ErrMalformedRecord, t.Kind)
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Dispute references a transfer under dispute. It carries no payload.
type Dispute struct {
	CustomerID    CustomerID
	TransactionID TransactionID
	CreatedAt     time.Time
}

// Resolution closes a dispute. Terminal.
type Resolution struct {
	CustomerID    CustomerID
	TransactionID TransactionID
	Outcome       ResolutionOutcome
	CreatedAt     time.Time
}

// DeriveState computes a transfer's state from its dispute and resolution rows.
func DeriveState(disputed bool, resolution *ResolutionOutcome) TransferState {
	switch {
	case !disputed:
		return TransferStateActive
	case resolution == nil:
		return TransferStateDisputed
	case *resolution == ResolutionChargeBack:
		return TransferStateChargedBack
	default:
		return TransferStateResolved
	}
}
