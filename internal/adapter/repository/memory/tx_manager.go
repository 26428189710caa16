package memory

import (
	"context"
	"errors"

	"github.com/iho/paymentsengine/internal/usecase"
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("transaction has already been committed or rolled back")

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction. It blocks while another transaction is open.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := m.store.acquire(ctx); err != nil {
		return nil, err
	}
	return &Tx{store: m.store}, nil
}

// Tx holds the store exclusively until Commit or Rollback.
// Writes are applied in place and undone on Rollback.
type Tx struct {
	store *Store
	undo  []func()
	redo  walRecord
	done  bool
}

// Commit makes the writes durable and releases the store.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}

	if t.store.wal != nil && !t.redo.empty() {
		if err := t.store.wal.Write(t.redo); err != nil {
			t.rollback()
			return err
		}
	}

	t.done = true
	t.store.release()
	return nil
}

// Rollback discards the writes and releases the store. No-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.rollback()
	return nil
}

func (t *Tx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.done = true
	t.store.release()
}

func (t *Tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func txFrom(tx usecase.Transaction, store *Store) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != store {
		return nil, errors.New("memory: transaction does not belong to this store")
	}
	if t.done {
		return nil, ErrTxDone
	}
	return t, nil
}
