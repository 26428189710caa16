package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/paymentsengine/internal/adapter/csvio"
	"github.com/iho/paymentsengine/internal/adapter/repository/memory"
	"github.com/iho/paymentsengine/internal/domain"
	"github.com/iho/paymentsengine/internal/infrastructure/idgen"
	"github.com/iho/paymentsengine/internal/infrastructure/metrics"
	"github.com/iho/paymentsengine/internal/usecase"
)

type engine struct {
	processor  *usecase.TransactionProcessor
	projection *usecase.ProjectionUseCase
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	return newEngineWithMetrics(t, nil)
}

func newEngineWithMetrics(t *testing.T, met *metrics.Metrics) *engine {
	t.Helper()

	store := memory.NewStore()
	t.Cleanup(func() { _ = store.Close() })

	accounts := memory.NewAccountRepository(store)
	transfers := memory.NewTransferRepository(store)

	return &engine{
		processor: usecase.NewTransactionProcessor(
			memory.NewTxManager(store),
			accounts,
			transfers,
			memory.NewDisputeRepository(store),
			memory.NewResolutionRepository(store),
			nil,
			idgen.NewULIDGenerator(),
			met,
			zerolog.Nop(),
		),
		projection: usecase.NewProjectionUseCase(accounts, transfers),
	}
}

func (e *engine) run(t *testing.T, input string) usecase.RunStats {
	t.Helper()

	reader, err := csvio.NewReader(strings.NewReader(input))
	require.NoError(t, err)

	stats, err := e.processor.Run(context.Background(), reader)
	require.NoError(t, err)
	return stats
}

type balance struct {
	available string
	held      string
	total     string
	locked    bool
}

func (e *engine) assertAccount(t *testing.T, id domain.CustomerID, want balance) {
	t.Helper()

	acc, err := e.projection.GetAccount(context.Background(), id)
	require.NoError(t, err)

	assert.Truef(t, acc.Available.Equal(decimal.RequireFromString(want.available)), "available: got %s want %s", acc.Available, want.available)
	assert.Truef(t, acc.Held.Equal(decimal.RequireFromString(want.held)), "held: got %s want %s", acc.Held, want.held)
	assert.Truef(t, acc.Total.Equal(decimal.RequireFromString(want.total)), "total: got %s want %s", acc.Total, want.total)
	assert.Equal(t, want.locked, acc.Locked, "locked")
}

func TestScenario_DepositWithdraw(t *testing.T) {
	e := newEngine(t)
	e.run(t, `type,client,tx,amount
		deposit,1,1,1.0
		deposit,2,2,2.0
		deposit,1,3,100
		withdrawal,1,4,50
		withdrawal,2,5,3`)

	e.assertAccount(t, 1, balance{"51", "0", "51", false})
	e.assertAccount(t, 2, balance{"2", "0", "2", false})
	assert.Equal(t, uint64(4), e.processor.Processed())
}

func TestScenario_ManyAccounts(t *testing.T) {
	e := newEngine(t)
	e.run(t, `type,client,tx,amount
		deposit,1,1,1.0
		deposit,2,2,2
		deposit,3,3,3.0000
		deposit,4,4,4.00
		deposit,5,5,5.000
		deposit,6,6,6
		deposit,7,7,7
		deposit,8,8,8.0`)

	for i := 1; i <= 8; i++ {
		n := decimal.NewFromInt(int64(i)).String()
		e.assertAccount(t, domain.CustomerID(i), balance{n, "0", n, false})
	}
	assert.Equal(t, uint64(8), e.processor.Processed())
}

func TestScenario_Disputes(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      balance
		processed uint64
	}{
		{
			name: "dispute deposit",
			input: `type,client,tx,amount
				deposit,1,10,1.0
				dispute,1,10,`,
			want:      balance{"0", "1", "1", false},
			processed: 2,
		},
		{
			name: "dispute spent deposit",
			input: `type,client,tx,amount
				deposit,1,10,1.0
				withdrawal,1,11,1.0
				dispute,1,10,`,
			want:      balance{"-1", "1", "0", false},
			processed: 3,
		},
		{
			name: "chargeback deposit",
			input: `type,client,tx,amount
				deposit,1,10,1.0
				dispute,1,10,
				chargeback,1,10,`,
			want:      balance{"0", "0", "0", true},
			processed: 3,
		},
		{
			name: "chargeback spent deposit",
			input: `type,client,tx,amount
				deposit,1,10,1.0
				withdrawal,1,11,1.0
				dispute,1,10,
				chargeback,1,10,`,
			want:      balance{"-1", "0", "-1", true},
			processed: 4,
		},
		{
			name: "dispute withdrawal",
			input: `type,client,tx,amount
				deposit,1,10,1.0
				withdrawal,1,11,1.0
				dispute,1,11,`,
			want:      balance{"0", "1", "1", false},
			processed: 3,
		},
		{
			name: "resolve withdrawal",
			input: `type,client,tx,amount
				deposit,1,10,1.0
				withdrawal,1,11,1.0
				dispute,1,11,
				resolve,1,11,`,
			want:      balance{"0", "0", "0", false},
			processed: 4,
		},
		{
			name: "chargeback withdrawal",
			input: `type,client,tx,amount
				deposit,1,10,1.0
				withdrawal,1,11,1.0
				dispute,1,11,
				chargeback,1,11,`,
			want:      balance{"1", "0", "1", true},
			processed: 4,
		},
		{
			name: "resolve deposit",
			input: `type,client,tx,amount
				deposit,1,10,3
				dispute,1,10,
				resolve,1,10,`,
			want:      balance{"3", "0", "3", false},
			processed: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			e.run(t, tt.input)

			e.assertAccount(t, 1, tt.want)
			assert.Equal(t, tt.processed, e.processor.Processed())

			report, err := e.projection.Reconcile(context.Background())
			require.NoError(t, err)
			assert.True(t, report.Consistent(), "projection must match ledger rows: %+v", report.Discrepancies)
		})
	}
}

func TestScenario_ProcessedCounts(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		processed uint64
	}{
		{
			name: "duplicate dispute",
			input: `type,client,tx,amount
				deposit,1,10,1.0
				deposit,2,11,1.0
				dispute,1,10,
				dispute,1,10,`,
			processed: 3,
		},
		{
			name: "duplicate chargeback",
			input: `type,client,tx,amount
				deposit,1,10,1.0
				deposit,2,11,1.0
				dispute,1,10,
				chargeback,1,10,
				chargeback,1,10,`,
			processed: 4,
		},
		{
			name: "duplicate resolve",
			input: `type,client,tx,amount
				deposit,1,10,1.0
				deposit,2,11,1.0
				dispute,1,10,
				resolve,1,10,
				resolve,1,10,`,
			processed: 4,
		},
		{
			name: "duplicate transaction id across customers",
			input: `type,client,tx,amount
				deposit,1,10,1.0
				deposit,2,10,1.0`,
			processed: 1,
		},
		{
			name: "negative amounts",
			input: `type,client,tx,amount
				deposit,1,10,-1.0
				deposit,2,11,1.0
				withdrawal,2,12,-1.0`,
			processed: 1,
		},
		{
			name: "negative client id",
			input: `type,client,tx,amount
				deposit,-1,10,1.0`,
			processed: 0,
		},
		{
			name: "negative transaction id",
			input: `type,client,tx,amount
				deposit,1,-10,1.0`,
			processed: 0,
		},
		{
			name:      "blank lines",
			input:     "type,client,tx,amount\ndeposit,1,10,1.0\n\ndeposit,1,11,1.0\n\n",
			processed: 2,
		},
		{
			name: "unknown type",
			input: `type,client,tx,amount
				abcdefg,1,10,1.0
				deposit,1,11,1.0
				dispute,1,11,
				resolve,1,11,`,
			processed: 3,
		},
		{
			name: "wrong column count",
			input: `type,client,tx,amount
				abcdefg
				too,many,columns,a,b,c,d
				deposit,1,11,1.0
				dispute,1,11,
				resolve,1,11,`,
			processed: 3,
		},
		{
			name: "missing trailing comma",
			input: `type,client,tx,amount
				deposit,1,11,1.0
				dispute,1,11,
				resolve,1,11`,
			processed: 2,
		},
		{
			name: "deposit without amount",
			input: `type,client,tx,amount
				deposit,1,11,`,
			processed: 0,
		},
		{
			name: "dispute of another customer's transfer",
			input: `type,client,tx,amount
				deposit,1,10,1.0
				deposit,2,11,1.0
				dispute,2,10,`,
			processed: 2,
		},
		{
			name: "locked account rejects everything but open disputes",
			input: `type,client,tx,amount
				deposit,1,10,5
				deposit,1,11,5
				dispute,1,10,
				dispute,1,11,
				chargeback,1,10,
				deposit,1,12,1
				withdrawal,1,13,1
				resolve,1,11,`,
			processed: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			e.run(t, tt.input)
			assert.Equal(t, tt.processed, e.processor.Processed())
		})
	}
}

func TestScenario_RejectedEventsCreateNoAccount(t *testing.T) {
	e := newEngine(t)
	stats := e.run(t, `type,client,tx,amount
		withdrawal,1,11,1.0
		dispute,2,12,
		chargeback,3,13,
		resolve,4,14,`)

	assert.Equal(t, usecase.RunStats{Accepted: 0, Rejected: 4}, stats)
	assert.Equal(t, uint64(0), e.processor.Processed())

	accounts, err := e.projection.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)

	for i := 1; i <= 4; i++ {
		_, err := e.projection.GetAccount(context.Background(), domain.CustomerID(i))
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	}
}

func TestScenario_RejectionLeavesNoTrace(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	e.run(t, `type,client,tx,amount
		deposit,1,1,10
		withdrawal,1,2,11`)

	transfers, err := e.projection.ListTransfers(ctx, 1)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, domain.TransactionID(1), transfers[0].TransactionID)

	// tx 2 was rejected, so its id is still free.
	outcome, err := e.processor.Apply(ctx, domain.NewDeposit(1, 2, decimal.NewFromInt(1)))
	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
	e.assertAccount(t, 1, balance{"11", "0", "11", false})
}

func TestScenario_TransferStates(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	e.run(t, `type,client,tx,amount
		deposit,1,1,10
		deposit,1,2,10
		deposit,1,3,10
		deposit,1,4,10
		dispute,1,2,
		dispute,1,3,
		resolve,1,3,
		dispute,1,4,
		chargeback,1,4,`)

	transfers, err := e.projection.ListTransfers(ctx, 1)
	require.NoError(t, err)

	states := make(map[domain.TransactionID]domain.TransferState, len(transfers))
	for _, tr := range transfers {
		states[tr.TransactionID] = tr.State
	}
	assert.Equal(t, map[domain.TransactionID]domain.TransferState{
		1: domain.TransferStateActive,
		2: domain.TransferStateDisputed,
		3: domain.TransferStateResolved,
		4: domain.TransferStateChargedBack,
	}, states)

	e.assertAccount(t, 1, balance{"20", "10", "30", true})

	report, err := e.projection.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
	assert.Equal(t, 1, report.TotalAccounts)
	assert.Equal(t, 1, report.ReconciledAccounts)
	assert.Equal(t, int64(1), report.TransfersByState[domain.TransferStateChargedBack])
}

func (e *engine) snapshot(t *testing.T) map[domain.CustomerID]balance {
	t.Helper()

	accounts, err := e.projection.Snapshot(context.Background())
	require.NoError(t, err)

	out := make(map[domain.CustomerID]balance, len(accounts))
	for _, a := range accounts {
		out[a.CustomerID] = balance{a.Available.String(), a.Held.String(), a.Total.String(), a.Locked}
	}
	return out
}

func TestScenario_RejectedEventsRepeatWithoutEffect(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	e.run(t, `type,client,tx,amount
		deposit,1,1,10
		deposit,2,2,4
		withdrawal,2,3,1
		dispute,1,1,`)

	before := e.snapshot(t)
	processed := e.processor.Processed()

	rejected := []domain.Event{
		domain.NewWithdrawal(2, 4, decimal.NewFromInt(100)),
		domain.NewDeposit(3, 2, decimal.NewFromInt(1)),
		domain.NewDispute(1, 1),
		domain.NewDispute(2, 1),
		domain.NewResolve(2, 2),
		domain.NewChargeBack(9, 9),
		domain.NewDeposit(1, 5, decimal.NewFromInt(-3)),
	}
	for round := 0; round < 3; round++ {
		for _, event := range rejected {
			outcome, err := e.processor.Apply(ctx, event)
			require.NoError(t, err)
			assert.Falsef(t, outcome.Accepted, "round %d: %s", round, event.String())
		}
	}

	assert.Equal(t, before, e.snapshot(t))
	assert.Equal(t, processed, e.processor.Processed())

	report, err := e.projection.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
}

func TestScenario_LockedAccountBalances(t *testing.T) {
	met := metrics.New(prometheus.NewRegistry())
	e := newEngineWithMetrics(t, met)
	ctx := context.Background()

	e.run(t, `type,client,tx,amount
		deposit,1,10,5
		deposit,1,11,5
		dispute,1,10,
		dispute,1,11,
		chargeback,1,10,`)
	e.assertAccount(t, 1, balance{"0", "5", "5", true})
	assert.Equal(t, 1.0, testutil.ToFloat64(met.AccountsLocked))

	frozen := e.snapshot(t)
	for _, event := range []domain.Event{
		domain.NewDeposit(1, 12, decimal.NewFromInt(1)),
		domain.NewWithdrawal(1, 13, decimal.NewFromInt(1)),
		domain.NewDispute(1, 10),
	} {
		outcome, err := e.processor.Apply(ctx, event)
		require.NoError(t, err)
		assert.Falsef(t, outcome.Accepted, "%s", event.String())
	}
	assert.Equal(t, frozen, e.snapshot(t))

	// the open dispute on tx 11 still settles on a locked account
	outcome, err := e.processor.Apply(ctx, domain.NewChargeBack(1, 11))
	require.NoError(t, err)
	require.True(t, outcome.Accepted)

	e.assertAccount(t, 1, balance{"0", "0", "0", true})
	assert.Equal(t, 1.0, testutil.ToFloat64(met.AccountsLocked), "an already locked account is not counted again")
	assert.Equal(t, uint64(6), e.processor.Processed())
}
