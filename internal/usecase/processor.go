package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/paymentsengine/internal/domain"
	"github.com/iho/paymentsengine/internal/infrastructure/metrics"
)

// ErrProcessorHalted is returned by Apply once a store failure has stopped the processor.
var ErrProcessorHalted = errors.New("processor halted after store failure")

// Outcome is the result of applying one event.
type Outcome struct {
	ID       string
	Event    domain.Event
	Accepted bool
	// Reason is the rejection that dropped the event. Nil when accepted.
	Reason error
	// Account is the customer's state after an accepted event.
	Account *domain.Account
}

// TransactionProcessor validates events against the ledger store and applies them.
// Events are applied one at a time, in call order.
type TransactionProcessor struct {
	mu sync.Mutex

	txManager      TransactionManager
	accountRepo    AccountRepository
	transferRepo   TransferRepository
	disputeRepo    DisputeRepository
	resolutionRepo ResolutionRepository
	retrier        Retrier
	idGen          IDGenerator
	metrics        *metrics.Metrics
	diagnostics    zerolog.Logger

	processed uint64

	haltMu sync.Mutex
	halted error
}

// NewTransactionProcessor creates a processor. retrier and metrics may be nil.
// Rejected events are reported on diagnostics at debug level; pass
// zerolog.Nop() to keep them silent.
func NewTransactionProcessor(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transferRepo TransferRepository,
	disputeRepo DisputeRepository,
	resolutionRepo ResolutionRepository,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	diagnostics zerolog.Logger,
) *TransactionProcessor {
	return &TransactionProcessor{
		txManager:      txManager,
		accountRepo:    accountRepo,
		transferRepo:   transferRepo,
		disputeRepo:    disputeRepo,
		resolutionRepo: resolutionRepo,
		retrier:        retrier,
		idGen:          idGen,
		metrics:        metrics,
		diagnostics:    diagnostics,
	}
}

// Processed returns the number of accepted events.
func (p *TransactionProcessor) Processed() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed
}

// Err returns the store failure that halted the processor, or nil.
func (p *TransactionProcessor) Err() error {
	p.haltMu.Lock()
	defer p.haltMu.Unlock()
	return p.halted
}

func (p *TransactionProcessor) halt(err error) {
	p.haltMu.Lock()
	defer p.haltMu.Unlock()
	if p.halted == nil {
		p.halted = err
	}
}

// Apply validates and applies a single event.
// A rejected event is reported in the Outcome with a nil error and leaves no
// trace in the store. A non-nil error means the store failed and the run must stop.
func (p *TransactionProcessor) Apply(ctx context.Context, event domain.Event) (*Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProcessorHalted, err)
	}

	start := time.Now()
	outcome := &Outcome{ID: p.idGen.Generate(), Event: event}

	if err := event.Validate(); err != nil {
		return p.reject(outcome, err), nil
	}

	var res applied
	run := func() error {
		var err error
		res, err = p.applyTx(ctx, event)
		return err
	}

	var err error
	if p.retrier != nil {
		err = p.retrier.Retry(ctx, run)
	} else {
		err = run()
	}
	if err != nil {
		if domain.IsRejection(err) {
			return p.reject(outcome, err), nil
		}
		if p.metrics != nil {
			p.metrics.ApplyErrors.Inc()
		}
		err = fmt.Errorf("apply %s: %w", event.String(), err)
		// a caller that went away is not a store failure
		if ctx.Err() == nil {
			p.halt(err)
		}
		return nil, err
	}

	p.processed++
	outcome.Accepted = true
	outcome.Account = res.account

	if p.metrics != nil {
		p.metrics.EventsAccepted.WithLabelValues(string(event.Kind)).Inc()
		p.metrics.ApplyDuration.Observe(time.Since(start).Seconds())
		if res.created {
			p.metrics.AccountsCreated.Inc()
		}
		if res.locked {
			p.metrics.AccountsLocked.Inc()
		}
	}

	return outcome, nil
}

// ApplyBatch applies events in order and stops at the first fatal error.
func (p *TransactionProcessor) ApplyBatch(ctx context.Context, events []domain.Event) ([]*Outcome, error) {
	outcomes := make([]*Outcome, 0, len(events))
	for _, event := range events {
		outcome, err := p.Apply(ctx, event)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// RunStats summarises a Run.
type RunStats struct {
	Accepted uint64
	Rejected uint64
}

// Run applies every event from src in order until the source is exhausted.
// It stops at the first source or store failure.
func (p *TransactionProcessor) Run(ctx context.Context, src EventSource) (RunStats, error) {
	var stats RunStats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		event, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("read event: %w", err)
		}

		outcome, err := p.Apply(ctx, event)
		if err != nil {
			return stats, err
		}
		if outcome.Accepted {
			stats.Accepted++
		} else {
			stats.Rejected++
		}
	}
}

// applied describes what a committed event did to its account.
type applied struct {
	account *domain.Account
	created bool
	// locked is set only when this event froze a previously unlocked account.
	locked bool
}

// applyTx runs the validate-then-write sequence for one event inside one
// store transaction. Any returned error rolls the transaction back.
func (p *TransactionProcessor) applyTx(ctx context.Context, event domain.Event) (applied, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := p.txManager.Begin(txCtx)
	if err != nil {
		return applied{}, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	created := false
	account, err := p.accountRepo.GetForUpdate(txCtx, tx, event.CustomerID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		account = domain.NewAccount(event.CustomerID)
		created = true
	} else if err != nil {
		return applied{}, err
	}
	wasLocked := account.Locked

	now := time.Now().UTC()

	switch event.Kind {
	case domain.EventKindDeposit, domain.EventKindWithdrawal:
		err = p.transfer(txCtx, tx, account, event, now)
	case domain.EventKindDispute:
		err = p.dispute(txCtx, tx, account, event, now)
	case domain.EventKindResolve:
		err = p.resolve(txCtx, tx, account, event, domain.ResolutionResolve, now)
	case domain.EventKindChargeBack:
		err = p.resolve(txCtx, tx, account, event, domain.ResolutionChargeBack, now)
	default:
		err = fmt.Errorf("%w: unknown event type %q", domain.ErrMalformedRecord, event.Kind)
	}
	if err != nil {
		return applied{}, err
	}

	if err := account.CheckInvariant(); err != nil {
		return applied{}, err
	}

	account.UpdatedAt = now
	if err := p.accountRepo.Upsert(txCtx, tx, account); err != nil {
		return applied{}, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return applied{}, err
	}

	return applied{account: account, created: created, locked: account.Locked && !wasLocked}, nil
}

func (p *TransactionProcessor) transfer(ctx context.Context, tx Transaction, account *domain.Account, event domain.Event, now time.Time) error {
	kind, _ := event.TransferKind()
	amount := *event.Amount

	switch kind {
	case domain.TransferKindDeposit:
		if err := account.ValidateDeposit(amount); err != nil {
			return err
		}
	case domain.TransferKindWithdrawal:
		if err := account.ValidateWithdrawal(amount); err != nil {
			return err
		}
	}

	transfer := &domain.BalanceTransfer{
		CustomerID:    event.CustomerID,
		TransactionID: event.TransactionID,
		Kind:          kind,
		Amount:        amount,
		State:         domain.TransferStateActive,
		CreatedAt:     now,
	}
	if err := transfer.Validate(); err != nil {
		return err
	}

	if err := p.transferRepo.Create(ctx, tx, transfer); err != nil {
		return err
	}

	if kind == domain.TransferKindDeposit {
		account.ApplyDeposit(amount)
	} else {
		account.ApplyWithdrawal(amount)
	}
	return nil
}

func (p *TransactionProcessor) dispute(ctx context.Context, tx Transaction, account *domain.Account, event domain.Event, now time.Time) error {
	if err := account.ValidateDispute(); err != nil {
		return err
	}

	transfer, err := p.transferRepo.Find(ctx, tx, event.CustomerID, event.TransactionID)
	if err != nil {
		return err
	}

	if err := p.disputeRepo.Create(ctx, tx, &domain.Dispute{
		CustomerID:    event.CustomerID,
		TransactionID: event.TransactionID,
		CreatedAt:     now,
	}); err != nil {
		return err
	}

	account.ApplyDispute(transfer)
	return nil
}

// resolve closes an open dispute. Allowed on locked accounts so that a
// pending dispute can always finish.
func (p *TransactionProcessor) resolve(ctx context.Context, tx Transaction, account *domain.Account, event domain.Event, outcome domain.ResolutionOutcome, now time.Time) error {
	transfer, err := p.transferRepo.Find(ctx, tx, event.CustomerID, event.TransactionID)
	if err != nil {
		return err
	}

	if err := p.resolutionRepo.Create(ctx, tx, &domain.Resolution{
		CustomerID:    event.CustomerID,
		TransactionID: event.TransactionID,
		Outcome:       outcome,
		CreatedAt:     now,
	}); err != nil {
		return err
	}

	if outcome == domain.ResolutionChargeBack {
		account.ApplyChargeBack(transfer)
	} else {
		account.ApplyResolve(transfer)
	}
	return nil
}

func (p *TransactionProcessor) reject(outcome *Outcome, reason error) *Outcome {
	outcome.Reason = reason
	code := domain.RejectionCode(reason)

	if p.metrics != nil {
		p.metrics.EventsRejected.WithLabelValues(string(outcome.Event.Kind), code).Inc()
	}

	p.diagnostics.Debug().
		Str("event_id", outcome.ID).
		Str("kind", string(outcome.Event.Kind)).
		Uint16("client", uint16(outcome.Event.CustomerID)).
		Uint32("tx", uint32(outcome.Event.TransactionID)).
		Str("reason", code).
		Err(reason).
		Msg("event rejected")

	return outcome
}
