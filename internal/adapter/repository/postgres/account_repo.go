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

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// GetForUpdate retrieves an account with a FOR UPDATE lock.
func (r *AccountRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, id domain.CustomerID) (*domain.Account, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetAccountForUpdate(ctx, int32(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// Upsert inserts the account or replaces its balances.
func (r *AccountRepository) Upsert(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return queries.UpsertAccount(ctx, generated.UpsertAccountParams{
		CustomerID: int32(account.CustomerID),
		Available:  decimalToNumeric(account.Available),
		Held:       decimalToNumeric(account.Held),
		Total:      decimalToNumeric(account.Total),
		Locked:     account.Locked,
		UpdatedAt:  timeToPgTimestamptz(account.UpdatedAt),
	})
}

// GetByID retrieves an account by customer id.
func (r *AccountRepository) GetByID(ctx context.Context, id domain.CustomerID) (*domain.Account, error) {
	row, err := r.queries.GetAccount(ctx, int32(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// List returns all accounts ordered by customer id.
func (r *AccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, len(rows))
	for i, row := range rows {
		accounts[i] = rowToAccount(row)
	}

	return accounts, nil
}
