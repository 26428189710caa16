// Package memory is a ledger store kept in process memory.
//
// Each relation is a keyed map whose insert is the only way to add a row, and
// every insert enforces the same primary/unique/foreign key rules as the SQL
// schema. Balance transfers live in an append-only arena indexed by
// (customer, tx) and by tx alone.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/iho/paymentsengine/internal/domain"
	"github.com/iho/paymentsengine/internal/infrastructure/wal"
)

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("ledger store is closed")

type transferKey struct {
	customer domain.CustomerID
	tx       domain.TransactionID
}

// Store owns the four ledger relations.
type Store struct {
	// sem admits one transaction or reader at a time.
	sem chan struct{}

	accounts    map[domain.CustomerID]*domain.Account
	transfers   []domain.BalanceTransfer
	byKey       map[transferKey]int
	byTxID      map[domain.TransactionID]int
	disputes    map[transferKey]domain.Dispute
	resolutions map[transferKey]domain.Resolution

	wal    *wal.WAL
	closed bool
}

// walRecord is one committed transaction's worth of row writes.
type walRecord struct {
	Accounts    []domain.Account         `json:"accounts,omitempty"`
	Transfers   []domain.BalanceTransfer `json:"transfers,omitempty"`
	Disputes    []domain.Dispute         `json:"disputes,omitempty"`
	Resolutions []domain.Resolution      `json:"resolutions,omitempty"`
}

func (r *walRecord) empty() bool {
	return len(r.Accounts) == 0 && len(r.Transfers) == 0 && len(r.Disputes) == 0 && len(r.Resolutions) == 0
}

// NewStore creates an empty, volatile store.
func NewStore() *Store {
	return &Store{
		sem:         make(chan struct{}, 1),
		accounts:    make(map[domain.CustomerID]*domain.Account),
		byKey:       make(map[transferKey]int),
		byTxID:      make(map[domain.TransactionID]int),
		disputes:    make(map[transferKey]domain.Dispute),
		resolutions: make(map[transferKey]domain.Resolution),
	}
}

// Open creates a store backed by a write-ahead log at walPath and replays it.
// An empty walPath yields a volatile store.
func Open(walPath string) (*Store, error) {
	s := NewStore()
	if walPath == "" {
		return s, nil
	}

	w, err := wal.Open(walPath)
	if err != nil {
		return nil, err
	}

	if err := w.ReadAll(s.replay); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to recover ledger from wal: %w", err)
	}

	s.wal = w
	return s, nil
}

// Close flushes and releases the store. Later operations fail with ErrStoreClosed.
func (s *Store) Close() error {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.wal != nil {
		return s.wal.Close()
	}
	return nil
}

// Ping reports ErrStoreClosed once the store is closed.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	s.release()
	return nil
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	if s.closed {
		<-s.sem
		return ErrStoreClosed
	}
	return nil
}

func (s *Store) release() {
	<-s.sem
}

func (s *Store) replay(raw json.RawMessage) error {
	var rec walRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return err
	}

	for i := range rec.Transfers {
		if _, err := s.insertTransfer(rec.Transfers[i]); err != nil {
			return err
		}
	}
	for _, d := range rec.Disputes {
		if err := s.insertDispute(d); err != nil {
			return err
		}
	}
	for _, r := range rec.Resolutions {
		if err := s.insertResolution(r); err != nil {
			return err
		}
	}
	for i := range rec.Accounts {
		account := rec.Accounts[i]
		s.accounts[account.CustomerID] = &account
	}
	return nil
}

// The methods below are the only mutation paths. Callers hold sem.

func (s *Store) insertTransfer(t domain.BalanceTransfer) (transferKey, error) {
	key := transferKey{customer: t.CustomerID, tx: t.TransactionID}
	if _, ok := s.byTxID[t.TransactionID]; ok {
		return key, domain.ErrDuplicateTransactionID
	}
	if _, ok := s.byKey[key]; ok {
		return key, domain.ErrDuplicateTransactionID
	}

	t.State = ""
	s.transfers = append(s.transfers, t)
	slot := len(s.transfers) - 1
	s.byKey[key] = slot
	s.byTxID[t.TransactionID] = slot
	return key, nil
}

func (s *Store) deleteTransfer(key transferKey) {
	slot, ok := s.byKey[key]
	if !ok {
		return
	}
	delete(s.byKey, key)
	delete(s.byTxID, key.tx)
	// rollback only ever removes the newest row
	if slot == len(s.transfers)-1 {
		s.transfers = s.transfers[:slot]
	}
}

func (s *Store) insertDispute(d domain.Dispute) error {
	key := transferKey{customer: d.CustomerID, tx: d.TransactionID}
	if _, ok := s.byKey[key]; !ok {
		return domain.ErrUnknownTransaction
	}
	if _, ok := s.disputes[key]; ok {
		return domain.ErrAlreadyDisputed
	}
	s.disputes[key] = d
	return nil
}

func (s *Store) insertResolution(r domain.Resolution) error {
	key := transferKey{customer: r.CustomerID, tx: r.TransactionID}
	if _, ok := s.disputes[key]; !ok {
		return domain.ErrNoOpenDispute
	}
	if _, ok := s.resolutions[key]; ok {
		return domain.ErrNoOpenDispute
	}
	s.resolutions[key] = r
	return nil
}

// transferAt returns a copy of the transfer with its derived state.
func (s *Store) transferAt(key transferKey) (*domain.BalanceTransfer, bool) {
	slot, ok := s.byKey[key]
	if !ok {
		return nil, false
	}

	t := s.transfers[slot]
	_, disputed := s.disputes[key]
	var outcome *domain.ResolutionOutcome
	if r, ok := s.resolutions[key]; ok {
		outcome = &r.Outcome
	}
	t.State = domain.DeriveState(disputed, outcome)
	return &t, true
}

func (s *Store) sortedAccounts() []*domain.Account {
	accounts := make([]*domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, a.Clone())
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CustomerID < accounts[j].CustomerID
	})
	return accounts
}
