package memory

import (
	"context"

	"github.com/iho/paymentsengine/internal/domain"
	"github.com/iho/paymentsengine/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// GetForUpdate returns a copy of the account inside tx.
func (r *AccountRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, id domain.CustomerID) (*domain.Account, error) {
	if _, err := txFrom(tx, r.store); err != nil {
		return nil, err
	}

	account, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return account.Clone(), nil
}

// Upsert replaces the stored account.
func (r *AccountRepository) Upsert(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	t, err := txFrom(tx, r.store)
	if err != nil {
		return err
	}

	id := account.CustomerID
	prev, existed := r.store.accounts[id]
	t.onRollback(func() {
		if existed {
			r.store.accounts[id] = prev
		} else {
			delete(r.store.accounts, id)
		}
	})

	r.store.accounts[id] = account.Clone()
	t.redo.Accounts = append(t.redo.Accounts, *account)
	return nil
}

// GetByID retrieves an account outside of a transaction.
func (r *AccountRepository) GetByID(ctx context.Context, id domain.CustomerID) (*domain.Account, error) {
	if err := r.store.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.store.release()

	account, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return account.Clone(), nil
}

// List returns all accounts ordered by customer id.
func (r *AccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	if err := r.store.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.store.release()

	return r.store.sortedAccounts(), nil
}
