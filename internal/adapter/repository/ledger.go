// Package repository opens a ledger store by driver name.
package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/paymentsengine/internal/adapter/repository/memory"
	"github.com/iho/paymentsengine/internal/adapter/repository/postgres"
	"github.com/iho/paymentsengine/internal/infrastructure/metrics"
	infraPostgres "github.com/iho/paymentsengine/internal/infrastructure/postgres"
	"github.com/iho/paymentsengine/internal/usecase"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config selects and configures the ledger store.
type Config struct {
	Driver string

	// memory
	WALPath string

	// postgres
	DatabaseURL string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// Ledger is an open ledger store and the repositories over it.
type Ledger struct {
	Driver      string
	TxManager   usecase.TransactionManager
	Accounts    usecase.AccountRepository
	Transfers   usecase.TransferRepository
	Disputes    usecase.DisputeRepository
	Resolutions usecase.ResolutionRepository
	// Retrier is nil when the store never reports transient failures.
	Retrier usecase.Retrier

	ping  func(ctx context.Context) error
	close func() error
}

// Open opens the store named by cfg.Driver. The caller must Close it.
func Open(ctx context.Context, cfg Config, m *metrics.Metrics, logger zerolog.Logger) (*Ledger, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return openMemory(cfg, logger)
	case DriverPostgres:
		return openPostgres(ctx, cfg, m, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func openMemory(cfg Config, logger zerolog.Logger) (*Ledger, error) {
	store, err := memory.Open(cfg.WALPath)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("driver", DriverMemory).
		Str("wal", cfg.WALPath).
		Msg("ledger store opened")

	return &Ledger{
		Driver:      DriverMemory,
		TxManager:   memory.NewTxManager(store),
		Accounts:    memory.NewAccountRepository(store),
		Transfers:   memory.NewTransferRepository(store),
		Disputes:    memory.NewDisputeRepository(store),
		Resolutions: memory.NewResolutionRepository(store),
		ping:        store.Ping,
		close:       store.Close,
	}, nil
}

func openPostgres(ctx context.Context, cfg Config, m *metrics.Metrics, logger zerolog.Logger) (*Ledger, error) {
	if cfg.AutoMigrate {
		if err := infraPostgres.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, err
		}
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.DatabaseURL, cfg.MaxConns, cfg.MinConns)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("driver", DriverPostgres).Msg("ledger store opened")

	return &Ledger{
		Driver:      DriverPostgres,
		TxManager:   postgres.NewTxManager(pool),
		Accounts:    postgres.NewAccountRepository(pool),
		Transfers:   postgres.NewTransferRepository(pool),
		Disputes:    postgres.NewDisputeRepository(),
		Resolutions: postgres.NewResolutionRepository(),
		Retrier:     postgres.NewRetrier().WithLogger(logger).WithMetrics(m),
		ping:        pool.Ping,
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

// Ping checks that the store is reachable.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.ping(ctx)
}

// Close releases the store.
func (l *Ledger) Close() error {
	return l.close()
}
