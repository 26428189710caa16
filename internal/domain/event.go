package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// EventKind is the type of an incoming ledger event.
type EventKind string

const (
	EventKindDeposit    EventKind = "deposit"
	EventKindWithdrawal EventKind = "withdrawal"
	EventKindDispute    EventKind = "dispute"
	EventKindResolve    EventKind = "resolve"
	EventKindChargeBack EventKind = "chargeback"
)

// ParseEventKind parses a case-insensitive event kind.
func ParseEventKind(s string) (EventKind, error) {
	switch k := EventKind(strings.ToLower(strings.TrimSpace(s))); k {
	case EventKindDeposit, EventKindWithdrawal, EventKindDispute, EventKindResolve, EventKindChargeBack:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown event type %q", ErrMalformedRecord, s)
	}
}

// Event is a single typed record from the event source.
// Amount is set only for deposits and withdrawals.
type Event struct {
	Kind          EventKind
	CustomerID    CustomerID
	TransactionID TransactionID
	Amount        *decimal.Decimal
}

// Validate enforces the record contract: a positive amount on transfers,
// no amount on dispute, resolve and chargeback.
func (e *Event) Validate() error {
	switch e.Kind {
	case EventKindDeposit, EventKindWithdrawal:
		if e.Amount == nil {
			return fmt.Errorf("%w: %s without amount", ErrMalformedRecord, e.Kind)
		}
		if !e.Amount.IsPositive() {
			return fmt.Errorf("%w: %s amount %s is not positive", ErrMalformedRecord, e.Kind, e.Amount)
		}
	case EventKindDispute, EventKindResolve, EventKindChargeBack:
		if e.Amount != nil {
			return fmt.Errorf("%w: %s must not carry an amount", ErrMalformedRecord, e.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrMalformedRecord, e.Kind)
	}
	return nil
}

// TransferKind maps a deposit or withdrawal event to the transfer it creates.
func (e *Event) TransferKind() (TransferKind, bool) {
	switch e.Kind {
	case EventKindDeposit:
		return TransferKindDeposit, true
	case EventKindWithdrawal:
		return TransferKindWithdrawal, true
	default:
		return "", false
	}
}

func (e *Event) String() string {
	if e.Amount != nil {
		return fmt.Sprintf("%s(client=%d, tx=%d, amount=%s)", e.Kind, e.CustomerID, e.TransactionID, e.Amount)
	}
	return fmt.Sprintf("%s(client=%d, tx=%d)", e.Kind, e.CustomerID, e.TransactionID)
}

// NewDeposit builds a deposit event.
func NewDeposit(customer CustomerID, tx TransactionID, amount decimal.Decimal) Event {
	return Event{Kind: EventKindDeposit, CustomerID: customer, TransactionID: tx, Amount: &amount}
}

// NewWithdrawal builds a withdrawal event.
func NewWithdrawal(customer CustomerID, tx TransactionID, amount decimal.Decimal) Event {
	return Event{Kind: EventKindWithdrawal, CustomerID: customer, TransactionID: tx, Amount: &amount}
}

// NewDispute builds a dispute event.
func NewDispute(customer CustomerID, tx TransactionID) Event {
	return Event{Kind: EventKindDispute, CustomerID: customer, TransactionID: tx}
}

// NewResolve builds a resolve event.
func NewResolve(customer CustomerID, tx TransactionID) Event {
	return Event{Kind: EventKindResolve, CustomerID: customer, TransactionID: tx}
}

// NewChargeBack builds a chargeback event.
func NewChargeBack(customer CustomerID, tx TransactionID) Event {
	return Event{Kind: EventKindChargeBack, CustomerID: customer, TransactionID: tx}
}
