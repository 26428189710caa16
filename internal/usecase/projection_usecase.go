package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/paymentsengine/internal/domain"
)

// ProjectionUseCase exposes the account projection and checks it against the ledger.
type ProjectionUseCase struct {
	accountRepo  AccountRepository
	transferRepo TransferRepository
}

// NewProjectionUseCase creates a new projection use case.
func NewProjectionUseCase(accountRepo AccountRepository, transferRepo TransferRepository) *ProjectionUseCase {
	return &ProjectionUseCase{
		accountRepo:  accountRepo,
		transferRepo: transferRepo,
	}
}

// Snapshot returns every account ordered by ascending customer id.
func (uc *ProjectionUseCase) Snapshot(ctx context.Context) ([]*domain.Account, error) {
	return uc.accountRepo.List(ctx)
}

// GetAccount returns a single customer's account.
func (uc *ProjectionUseCase) GetAccount(ctx context.Context, id domain.CustomerID) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListTransfers returns the customer's transfers with their derived states.
func (uc *ProjectionUseCase) ListTransfers(ctx context.Context, id domain.CustomerID) ([]*domain.BalanceTransfer, error) {
	return uc.transferRepo.ListByCustomer(ctx, id)
}

// Rebuild folds the customer's ledger rows into a fresh account.
func (uc *ProjectionUseCase) Rebuild(ctx context.Context, id domain.CustomerID) (*domain.Account, error) {
	transfers, err := uc.transferRepo.ListByCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.FoldAccount(id, transfers), nil
}

// ReconciliationResult compares one stored account with its rebuilt value.
type ReconciliationResult struct {
	CustomerID   domain.CustomerID
	Recorded     *domain.Account
	Calculated   *domain.Account
	IsReconciled bool
	Problem      string
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	TransfersByState   map[domain.TransferState]int64
	CheckedAt          time.Time
}

// Consistent reports whether every account matched its ledger rows.
func (r *ReconciliationReport) Consistent() bool {
	return len(r.Discrepancies) == 0
}

// ReconcileAccount checks one account against the fold of its ledger rows.
func (uc *ProjectionUseCase) ReconcileAccount(ctx context.Context, account *domain.Account) (*ReconciliationResult, error) {
	calculated, err := uc.Rebuild(ctx, account.CustomerID)
	if err != nil {
		return nil, err
	}

	result := &ReconciliationResult{
		CustomerID:   account.CustomerID,
		Recorded:     account,
		Calculated:   calculated,
		IsReconciled: true,
	}

	if err := account.CheckInvariant(); err != nil {
		result.IsReconciled = false
		result.Problem = err.Error()
		return result, nil
	}

	if !account.Equal(calculated) {
		result.IsReconciled = false
		result.Problem = fmt.Sprintf(
			"recorded {available=%s held=%s total=%s locked=%t} != ledger {available=%s held=%s total=%s locked=%t}",
			account.Available, account.Held, account.Total, account.Locked,
			calculated.Available, calculated.Held, calculated.Total, calculated.Locked,
		)
	}

	return result, nil
}

// Reconcile checks every account and gathers ledger statistics.
func (uc *ProjectionUseCase) Reconcile(ctx context.Context) (*ReconciliationReport, error) {
	accounts, err := uc.accountRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := uc.transferRepo.CountByState(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalAccounts:    len(accounts),
		Discrepancies:    make([]*ReconciliationResult, 0),
		TransfersByState: counts,
		CheckedAt:        time.Now().UTC(),
	}

	for _, account := range accounts {
		result, err := uc.ReconcileAccount(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile account %d: %w", account.CustomerID, err)
		}
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	return report, nil
}
