package memory

import (
	"context"

	"github.com/iho/paymentsengine/internal/domain"
	"github.com/iho/paymentsengine/internal/usecase"
)

// DisputeRepository implements usecase.DisputeRepository.
type DisputeRepository struct {
	store *Store
}

// NewDisputeRepository creates a new DisputeRepository.
func NewDisputeRepository(store *Store) *DisputeRepository {
	return &DisputeRepository{store: store}
}

// Create opens a dispute on an existing transfer.
func (r *DisputeRepository) Create(ctx context.Context, tx usecase.Transaction, dispute *domain.Dispute) error {
	t, err := txFrom(tx, r.store)
	if err != nil {
		return err
	}

	if err := r.store.insertDispute(*dispute); err != nil {
		return err
	}

	key := transferKey{customer: dispute.CustomerID, tx: dispute.TransactionID}
	t.onRollback(func() { delete(r.store.disputes, key) })
	t.redo.Disputes = append(t.redo.Disputes, *dispute)
	return nil
}

// ResolutionRepository implements usecase.ResolutionRepository.
type ResolutionRepository struct {
	store *Store
}

// NewResolutionRepository creates a new ResolutionRepository.
func NewResolutionRepository(store *Store) *ResolutionRepository {
	return &ResolutionRepository{store: store}
}

// Create closes an open dispute.
func (r *ResolutionRepository) Create(ctx context.Context, tx usecase.Transaction, resolution *domain.Resolution) error {
	t, err := txFrom(tx, r.store)
	if err != nil {
		return err
	}

	if err := r.store.insertResolution(*resolution); err != nil {
		return err
	}

	key := transferKey{customer: resolution.CustomerID, tx: resolution.TransactionID}
	t.onRollback(func() { delete(r.store.resolutions, key) })
	t.redo.Resolutions = append(t.redo.Resolutions, *resolution)
	return nil
}
