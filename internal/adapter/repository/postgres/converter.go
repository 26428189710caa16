package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/paymentsengine/internal/domain"
	"github.com/iho/paymentsengine/internal/infrastructure/postgres/generated"
)

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d := decimal.NewFromBigInt(n.Int, n.Exp)

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		CustomerID: domain.CustomerID(row.CustomerID),
		Available:  numericToDecimal(row.Available),
		Held:       numericToDecimal(row.Held),
		Total:      numericToDecimal(row.Total),
		Locked:     row.Locked,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

type transferRow struct {
	CustomerID    int32
	TransactionID int64
	Kind          string
	Amount        pgtype.Numeric
	CreatedAt     pgtype.Timestamptz
	Disputed      bool
	Outcome       pgtype.Text
}

func rowToTransfer(row transferRow) (*domain.BalanceTransfer, error) {
	kind := domain.TransferKind(row.Kind)
	if kind != domain.TransferKindDeposit && kind != domain.TransferKindWithdrawal {
		return nil, fmt.Errorf("unexpected transfer kind %q for tx %d", row.Kind, row.TransactionID)
	}

	var outcome *domain.ResolutionOutcome
	if row.Outcome.Valid {
		o := domain.ResolutionOutcome(row.Outcome.String)
		outcome = &o
	}

	return &domain.BalanceTransfer{
		CustomerID:    domain.CustomerID(row.CustomerID),
		TransactionID: domain.TransactionID(row.TransactionID),
		Kind:          kind,
		Amount:        numericToDecimal(row.Amount),
		State:         domain.DeriveState(row.Disputed, outcome),
		CreatedAt:     row.CreatedAt.Time,
	}, nil
}
