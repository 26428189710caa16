package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CustomerID identifies a customer and their single account.
type CustomerID uint16

// Account is the per-customer balance projection.
// Invariant: Total == Available + Held.
type Account struct {
	CustomerID CustomerID
	Available  decimal.Decimal
	Held       decimal.Decimal
	Total      decimal.Decimal
	Locked     bool
	UpdatedAt  time.Time
}

// NewAccount returns an empty, unlocked account.
func NewAccount(id CustomerID) *Account {
	return &Account{
		CustomerID: id,
		Available:  decimal.Zero,
		Held:       decimal.Zero,
		Total:      decimal.Zero,
	}
}

// Clone returns a copy that can be mutated independently.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// ValidateDeposit checks if account can be credited by amount.
func (a *Account) ValidateDeposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if a.Locked {
		return ErrAccountLocked
	}
	return nil
}

// ValidateWithdrawal checks if account can be debited by amount.
func (a *Account) ValidateWithdrawal(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if a.Locked {
		return ErrAccountLocked
	}
	if a.Available.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateDispute checks if a new dispute may be opened on the account.
func (a *Account) ValidateDispute() error {
	if a.Locked {
		return ErrAccountLocked
	}
	return nil
}

// ApplyDeposit credits available funds.
func (a *Account) ApplyDeposit(amount decimal.Decimal) {
	a.Available = a.Available.Add(amount)
	a.Total = a.Total.Add(amount)
}

// ApplyWithdrawal debits available funds.
func (a *Account) ApplyWithdrawal(amount decimal.Decimal) {
	a.Available = a.Available.Sub(amount)
	a.Total = a.Total.Sub(amount)
}

// ApplyDispute places the disputed transfer's amount on hold.
// A disputed deposit moves funds out of available; a disputed withdrawal
// has already left available, so it is provisionally restored to total.
func (a *Account) ApplyDispute(t *BalanceTransfer) {
	a.Held = a.Held.Add(t.Amount)
	switch t.Kind {
	case TransferKindDeposit:
		a.Available = a.Available.Sub(t.Amount)
	case TransferKindWithdrawal:
		a.Total = a.Total.Add(t.Amount)
	}
}

// ApplyResolve releases the hold placed by ApplyDispute.
func (a *Account) ApplyResolve(t *BalanceTransfer) {
	a.Held = a.Held.Sub(t.Amount)
	switch t.Kind {
	case TransferKindDeposit:
		a.Available = a.Available.Add(t.Amount)
	case TransferKindWithdrawal:
		a.Total = a.Total.Sub(t.Amount)
	}
}

// ApplyChargeBack finalizes a dispute in the customer's favour and locks the account.
// The ledger effect is applied before the lock is set.
func (a *Account) ApplyChargeBack(t *BalanceTransfer) {
	a.Held = a.Held.Sub(t.Amount)
	switch t.Kind {
	case TransferKindDeposit:
		a.Total = a.Total.Sub(t.Amount)
	case TransferKindWithdrawal:
		a.Available = a.Available.Add(t.Amount)
	}
	a.Locked = true
}

// CheckInvariant returns an error if Total != Available + Held.
func (a *Account) CheckInvariant() error {
	if !a.Total.Equal(a.Available.Add(a.Held)) {
		return fmt.Errorf("account %d: total %s != available %s + held %s",
			a.CustomerID, a.Total, a.Available, a.Held)
	}
	return nil
}

// Equal compares the balance fields and lock state.
func (a *Account) Equal(b *Account) bool {
	return a.CustomerID == b.CustomerID &&
		a.Available.Equal(b.Available) &&
		a.Held.Equal(b.Held) &&
		a.Total.Equal(b.Total) &&
		a.Locked == b.Locked
}

// FoldAccount rebuilds an account from its accepted ledger rows.
// Each transfer contributes according to its derived state, so the result
// does not depend on row order.
func FoldAccount(id CustomerID, transfers []*BalanceTransfer) *Account {
	acc := NewAccount(id)
	for _, t := range transfers {
		switch t.Kind {
		case TransferKindDeposit:
			acc.ApplyDeposit(t.Amount)
		case TransferKindWithdrawal:
			acc.ApplyWithdrawal(t.Amount)
		}

		switch t.State {
		case TransferStateDisputed:
			acc.ApplyDispute(t)
		case TransferStateResolved:
			acc.ApplyDispute(t)
			acc.ApplyResolve(t)
		case TransferStateChargedBack:
			acc.ApplyDispute(t)
			acc.ApplyChargeBack(t)
		}
	}
	return acc
}
