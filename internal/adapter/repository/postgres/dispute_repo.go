package postgres

import (
	"context"

	"github.com/iho/paymentsengine/internal/domain"
	"github.com/iho/paymentsengine/internal/infrastructure/postgres/generated"
	"github.com/iho/paymentsengine/internal/usecase"
)

// DisputeRepository implements usecase.DisputeRepository.
type DisputeRepository struct{}

// NewDisputeRepository creates a new DisputeRepository.
func NewDisputeRepository() *DisputeRepository {
	return &DisputeRepository{}
}

// Create opens a dispute on an existing transfer.
func (r *DisputeRepository) Create(ctx context.Context, tx usecase.Transaction, dispute *domain.Dispute) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	err = queries.CreateDispute(ctx, generated.CreateDisputeParams{
		CustomerID:    int32(dispute.CustomerID),
		TransactionID: int64(dispute.TransactionID),
		CreatedAt:     timeToPgTimestamptz(dispute.CreatedAt),
	})

	return mapConstraintError(err)
}

// ResolutionRepository implements usecase.ResolutionRepository.
type ResolutionRepository struct{}

// NewResolutionRepository creates a new ResolutionRepository.
func NewResolutionRepository() *ResolutionRepository {
	return &ResolutionRepository{}
}

// Create closes an open dispute.
func (r *ResolutionRepository) Create(ctx context.Context, tx usecase.Transaction, resolution *domain.Resolution) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	err = queries.CreateResolution(ctx, generated.CreateResolutionParams{
		CustomerID:    int32(resolution.CustomerID),
		TransactionID: int64(resolution.TransactionID),
		Outcome:       string(resolution.Outcome),
		CreatedAt:     timeToPgTimestamptz(resolution.CreatedAt),
	})

	return mapConstraintError(err)
}
