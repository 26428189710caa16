package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/paymentsengine/internal/domain"
	"github.com/iho/paymentsengine/internal/infrastructure/postgres/generated"
	"github.com/iho/paymentsengine/internal/usecase"
)

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create inserts a new balance transfer.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.BalanceTransfer) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	err = queries.CreateBalanceTransfer(ctx, generated.CreateBalanceTransferParams{
		CustomerID:    int32(transfer.CustomerID),
		TransactionID: int64(transfer.TransactionID),
		Kind:          string(transfer.Kind),
		Amount:        decimalToNumeric(transfer.Amount),
		CreatedAt:     timeToPgTimestamptz(transfer.CreatedAt),
	})

	return mapConstraintError(err)
}

// Find returns the customer's transfer with its derived state.
func (r *TransferRepository) Find(ctx context.Context, tx usecase.Transaction, customer domain.CustomerID, txID domain.TransactionID) (*domain.BalanceTransfer, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.FindBalanceTransfer(ctx, generated.FindBalanceTransferParams{
		CustomerID:    int32(customer),
		TransactionID: int64(txID),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnknownTransaction
		}

		return nil, err
	}

	return rowToTransfer(transferRow(row))
}

// ListByCustomer returns the customer's transfers in insertion order.
func (r *TransferRepository) ListByCustomer(ctx context.Context, customer domain.CustomerID) ([]*domain.BalanceTransfer, error) {
	rows, err := r.queries.ListBalanceTransfersByCustomer(ctx, int32(customer))
	if err != nil {
		return nil, err
	}

	transfers := make([]*domain.BalanceTransfer, 0, len(rows))
	for _, row := range rows {
		transfer, err := rowToTransfer(transferRow(row))
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, transfer)
	}

	return transfers, nil
}

// CountByState counts transfers per derived state.
func (r *TransferRepository) CountByState(ctx context.Context) (map[domain.TransferState]int64, error) {
	rows, err := r.queries.CountBalanceTransfersByState(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.TransferState]int64, len(rows))
	for _, row := range rows {
		counts[domain.TransferState(row.State)] = row.Count
	}

	return counts, nil
}
