package memory

import (
	"context"

	"github.com/iho/paymentsengine/internal/domain"
	"github.com/iho/paymentsengine/internal/usecase"
)

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	store *Store
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(store *Store) *TransferRepository {
	return &TransferRepository{store: store}
}

// Create inserts a new balance transfer.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.BalanceTransfer) error {
	t, err := txFrom(tx, r.store)
	if err != nil {
		return err
	}
	if err := transfer.Validate(); err != nil {
		return err
	}

	key, err := r.store.insertTransfer(*transfer)
	if err != nil {
		return err
	}
	t.onRollback(func() { r.store.deleteTransfer(key) })

	row := *transfer
	row.State = ""
	t.redo.Transfers = append(t.redo.Transfers, row)
	return nil
}

// Find returns the customer's transfer with its derived state.
func (r *TransferRepository) Find(ctx context.Context, tx usecase.Transaction, customer domain.CustomerID, txID domain.TransactionID) (*domain.BalanceTransfer, error) {
	if _, err := txFrom(tx, r.store); err != nil {
		return nil, err
	}

	transfer, ok := r.store.transferAt(transferKey{customer: customer, tx: txID})
	if !ok {
		return nil, domain.ErrUnknownTransaction
	}
	return transfer, nil
}

// ListByCustomer returns the customer's transfers in insertion order.
func (r *TransferRepository) ListByCustomer(ctx context.Context, customer domain.CustomerID) ([]*domain.BalanceTransfer, error) {
	if err := r.store.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.store.release()

	transfers := make([]*domain.BalanceTransfer, 0)
	for _, row := range r.store.transfers {
		if row.CustomerID != customer {
			continue
		}
		t, _ := r.store.transferAt(transferKey{customer: row.CustomerID, tx: row.TransactionID})
		transfers = append(transfers, t)
	}
	return transfers, nil
}

// CountByState counts transfers per derived state.
func (r *TransferRepository) CountByState(ctx context.Context) (map[domain.TransferState]int64, error) {
	if err := r.store.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.store.release()

	counts := make(map[domain.TransferState]int64)
	for _, row := range r.store.transfers {
		t, _ := r.store.transferAt(transferKey{customer: row.CustomerID, tx: row.TransactionID})
		counts[t.State]++
	}
	return counts, nil
}
