package usecase

import (
	"context"
	"time"

	"github.com/iho/paymentsengine/internal/domain"
)

// AccountRepository defines data access for the account projection.
type AccountRepository interface {
	// GetForUpdate returns domain.ErrAccountNotFound if the customer has no account yet.
	GetForUpdate(ctx context.Context, tx Transaction, id domain.CustomerID) (*domain.Account, error)
	// Upsert replaces the stored account in full.
	Upsert(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id domain.CustomerID) (*domain.Account, error)
	// List returns all accounts ordered by ascending customer id.
	List(ctx context.Context) ([]*domain.Account, error)
}

// TransferRepository defines data access for balance transfers.
type TransferRepository interface {
	// Create fails with domain.ErrDuplicateTransactionID if the transaction id is taken.
	Create(ctx context.Context, tx Transaction, transfer *domain.BalanceTransfer) error
	// Find returns the transfer with its derived state, or domain.ErrUnknownTransaction
	// if no transfer with this id belongs to the customer.
	Find(ctx context.Context, tx Transaction, customer domain.CustomerID, txID domain.TransactionID) (*domain.BalanceTransfer, error)
	ListByCustomer(ctx context.Context, customer domain.CustomerID) ([]*domain.BalanceTransfer, error)
	CountByState(ctx context.Context) (map[domain.TransferState]int64, error)
}

// DisputeRepository defines data access for disputes.
type DisputeRepository interface {
	// Create fails with domain.ErrAlreadyDisputed or domain.ErrUnknownTransaction.
	Create(ctx context.Context, tx Transaction, dispute *domain.Dispute) error
}

// ResolutionRepository defines data access for dispute resolutions.
type ResolutionRepository interface {
	// Create fails with domain.ErrNoOpenDispute if the dispute is missing or already resolved.
	Create(ctx context.Context, tx Transaction, resolution *domain.Resolution) error
}

// EventSource yields events in arrival order.
// Next returns io.EOF once the source is exhausted.
type EventSource interface {
	Next(ctx context.Context) (domain.Event, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient store failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyPending is stored under a key while its first request is running.
const IdempotencyPending = "processing"

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}
