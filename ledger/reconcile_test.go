package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nivesh/debenture-engine/ledger"
	"github.com/nivesh/debenture-engine/returns"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestReconciler() (*ledger.Reconciler, *ledger.MemoryStore) {
	store := ledger.NewMemoryStore()
	return ledger.NewReconciler(returns.DefaultPolicy(), store), store
}

func investment(id string, principal int64, start time.Time) returns.Investment {
	return returns.Investment{
		ID:         id,
		InvestorID: "investor-1",
		Principal:  decimal.NewFromInt(principal),
		StartDate:  start,
	}
}

// flakyStore fails every Append for one investment. Other investments and
// the read paths work normally.
type flakyStore struct {
	*ledger.MemoryStore
	failFor string
}

func (f *flakyStore) Append(ctx context.Context, tx ledger.Transaction) error {
	if tx.InvestmentID == f.failFor {
		return errors.New("disk on fire")
	}
	return f.MemoryStore.Append(ctx, tx)
}

// =============================================================================
// MATERIALIZATION TESTS
// =============================================================================

func TestReconcile_CreatesMissingYears(t *testing.T) {
	// GIVEN: A 10,00,000 investment 2.5 years in, empty ledger
	// WHEN: Reconciling
	// THEN: Year-2 dividend is created (year 1 pays zero, year 3 is in
	//       flight), booked on the exact anniversary

	r, _ := newTestReconciler()
	ctx := context.Background()

	inv := investment("dbn-1", 1000000, returns.Date(2023, time.January, 1))
	result := r.Reconcile(ctx, inv, returns.Date(2025, time.July, 2))

	require.Empty(t, result.Errors)
	require.Len(t, result.Created, 1)

	tx := result.Created[0]
	assert.Equal(t, ledger.TxDividend, tx.Type)
	assert.Equal(t, 2, tx.YearCovered)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(60000)))
	assert.True(t, tx.RatePercent.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, returns.Date(2025, time.January, 1), tx.Date, "booked on the anniversary")
	assert.Equal(t, ledger.StatusCompleted, tx.Status)
}

func TestReconcile_Idempotent(t *testing.T) {
	// GIVEN: A reconciliation that created rows
	// WHEN: Running the exact same reconciliation again
	// THEN: Zero new rows - the load-bearing invariant

	r, _ := newTestReconciler()
	ctx := context.Background()

	inv := investment("dbn-1", 1000000, returns.Date(2019, time.July, 1))
	asOf := returns.Date(2025, time.July, 2)

	first := r.Reconcile(ctx, inv, asOf)
	require.Empty(t, first.Errors)
	require.NotEmpty(t, first.Created)

	second := r.Reconcile(ctx, inv, asOf)
	assert.Empty(t, second.Errors)
	assert.Empty(t, second.Created, "second run must create nothing")

	txs, err := r.Ledger.Transactions(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, txs, len(first.Created))
}

func TestReconcile_MilestoneBonusExactlyOnce(t *testing.T) {
	// GIVEN: An investment past year 5
	// WHEN: Reconciling repeatedly
	// THEN: Exactly one year-5 bonus row of 5% of principal, whole rupees

	r, _ := newTestReconciler()
	ctx := context.Background()

	inv := investment("dbn-1", 6000000, returns.Date(2019, time.July, 1))
	asOf := returns.Date(2024, time.July, 1) // 1,827 days: 5 completed years

	r.Reconcile(ctx, inv, asOf)
	r.Reconcile(ctx, inv, asOf)
	r.Reconcile(ctx, inv, asOf)

	txs, err := r.Ledger.Transactions(ctx, inv.ID)
	require.NoError(t, err)

	var bonuses []ledger.Transaction
	for _, tx := range txs {
		if tx.Type == ledger.TxBonus {
			bonuses = append(bonuses, tx)
		}
	}
	require.Len(t, bonuses, 1)
	assert.Equal(t, 5, bonuses[0].YearCovered)
	assert.True(t, bonuses[0].Amount.Equal(decimal.NewFromInt(300000)))
}

func TestReconcile_MaturityRow(t *testing.T) {
	// GIVEN: An investment past its full term
	// THEN: One maturity row returning the principal, plus every dividend
	//       and both bonuses

	r, _ := newTestReconciler()
	ctx := context.Background()

	inv := investment("dbn-1", 1000000, returns.Date(2010, time.January, 1))
	result := r.Reconcile(ctx, inv, returns.Date(2025, time.January, 1))
	require.Empty(t, result.Errors)

	byType := map[ledger.TransactionType]int{}
	for _, tx := range result.Created {
		byType[tx.Type]++
		if tx.Type == ledger.TxMaturity {
			assert.True(t, tx.Amount.Equal(inv.Principal))
			assert.Equal(t, 10, tx.YearCovered)
		}
	}
	assert.Equal(t, 8, byType[ledger.TxDividend], "years 2-9 pay dividends")
	assert.Equal(t, 2, byType[ledger.TxBonus])
	assert.Equal(t, 1, byType[ledger.TxMaturity])
}

func TestReconcile_FreshInvestment_NothingDue(t *testing.T) {
	// GIVEN: An investment six months in (year 1 pays zero anyway)
	// THEN: Nothing to materialize

	r, _ := newTestReconciler()
	ctx := context.Background()

	inv := investment("dbn-1", 1000000, returns.Date(2025, time.January, 1))
	result := r.Reconcile(ctx, inv, returns.Date(2025, time.July, 1))

	assert.Empty(t, result.Created)
	assert.Empty(t, result.Errors)
}

func TestReconcile_AmountsRoundedToWholeRupee(t *testing.T) {
	// GIVEN: A principal that yields fractional paise dividends
	// THEN: Booked amounts carry no fractional part

	r, _ := newTestReconciler()
	ctx := context.Background()

	inv := returns.Investment{
		ID:         "dbn-1",
		InvestorID: "investor-1",
		Principal:  decimal.RequireFromString("333333.33"),
		StartDate:  returns.Date(2022, time.January, 1),
	}
	result := r.Reconcile(ctx, inv, returns.Date(2025, time.July, 1))
	require.NotEmpty(t, result.Created)

	for _, tx := range result.Created {
		assert.True(t, tx.Amount.Equal(tx.Amount.Round(0)),
			"amount %s should be whole rupees", tx.Amount)
	}
}

// =============================================================================
// FAILURE ISOLATION TESTS
// =============================================================================

func TestReconcileAll_ContinuesPastFailures(t *testing.T) {
	// GIVEN: Three investments, the middle one's writes always fail
	// WHEN: Batch reconciling
	// THEN: The other two still materialize; the aggregate reports all
	//       three processed with the failure attributed to its investment

	store := &flakyStore{MemoryStore: ledger.NewMemoryStore(), failFor: "dbn-2"}
	r := ledger.NewReconciler(returns.DefaultPolicy(), store)
	ctx := context.Background()

	invs := []returns.Investment{
		investment("dbn-1", 1000000, returns.Date(2022, time.January, 1)),
		investment("dbn-2", 1000000, returns.Date(2022, time.January, 1)),
		investment("dbn-3", 1000000, returns.Date(2022, time.January, 1)),
	}
	result := r.ReconcileAll(ctx, invs, returns.Date(2025, time.July, 1))

	assert.Equal(t, 3, result.Processed)
	assert.NotZero(t, result.Created)
	require.NotEmpty(t, result.Errors)
	for _, e := range result.Errors {
		assert.Equal(t, "dbn-2", e.InvestmentID)
	}

	// Healthy investments got their rows
	for _, id := range []string{"dbn-1", "dbn-3"} {
		txs, err := store.MemoryStore.Load(ctx, id)
		require.NoError(t, err)
		assert.NotEmpty(t, txs, "investment %s", id)
	}
}

func TestReconcileAll_AggregateCounts(t *testing.T) {
	// GIVEN: Two investments, one already fully reconciled
	// THEN: {processed: 2, created: only the new rows, errors: none}

	r, _ := newTestReconciler()
	ctx := context.Background()

	asOf := returns.Date(2025, time.July, 1)
	invA := investment("dbn-a", 1000000, returns.Date(2022, time.January, 1))
	invB := investment("dbn-b", 1000000, returns.Date(2021, time.January, 1))

	// Pre-reconcile A
	pre := r.Reconcile(ctx, invA, asOf)
	require.NotEmpty(t, pre.Created)

	result := r.ReconcileAll(ctx, []returns.Investment{invA, invB}, asOf)

	assert.Equal(t, 2, result.Processed)
	assert.Empty(t, result.Errors)
	// A contributes nothing new; B gets years 2..4
	assert.Equal(t, 3, result.Created)
}
