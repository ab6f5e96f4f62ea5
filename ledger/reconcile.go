/*
reconcile.go - Idempotent materialization of accrued payouts

PURPOSE:
  Walks every completed year of an investment and creates the ledger rows
  that should exist but don't: dividend rows for years with a non-zero
  rate, bonus rows for completed milestone years, and a maturity row once
  the full term has run. Feeding a reconciliation's own output back in as
  existing state yields zero new rows - that idempotence is the load-
  bearing invariant, enforced twice (existing-set diff here, uniqueness
  constraint in the store).

FAILURE ISOLATION:
  Each candidate row is attempted independently. A failure is logged and
  recorded in the result; the remaining candidates still run. Batch runs
  likewise continue past broken investments and report an aggregate
  {processed, created, errors}.

CONCURRENCY:
  Reconciliations of DIFFERENT investments are independent and safe to run
  in parallel. Within one investment the year loop is sequential, and the
  existing-transaction set is loaded once up front to avoid per-year store
  round-trips. A concurrent duplicate insert surfaces as
  ErrDuplicateTransaction and is counted as a skip, not an error.
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nivesh/debenture-engine/returns"
)

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler generates missing payout transactions for investments.
// Invoked both by the background scheduler (batch) and ad hoc when an
// investor views their summary; both paths share the same semantics.
type Reconciler struct {
	Policy returns.Policy
	Ledger *Ledger
}

func NewReconciler(policy returns.Policy, store Store) *Reconciler {
	return &Reconciler{Policy: policy, Ledger: New(store)}
}

// ReconcileResult reports one investment's reconciliation.
type ReconcileResult struct {
	InvestmentID string
	Created      []Transaction
	Skipped      int // candidates already present (here or in a concurrent run)
	Errors       []error
}

// BatchError ties a failure to the investment it occurred on.
type BatchError struct {
	InvestmentID string
	Err          error
}

func (e BatchError) Error() string {
	return fmt.Sprintf("investment %s: %v", e.InvestmentID, e.Err)
}

func (e BatchError) Unwrap() error { return e.Err }

// BatchResult aggregates a reconcile-all run.
type BatchResult struct {
	Processed int
	Created   int
	Skipped   int
	Errors    []BatchError
}

// candidate is one row the ledger should hold but doesn't.
type candidate struct {
	txType TransactionType
	year   int
	amount decimal.Decimal
	rate   decimal.Decimal
}

// Reconcile materializes every due-but-missing payout for one investment.
// The existing ledger is read once; each missing row is attempted
// independently.
func (r *Reconciler) Reconcile(ctx context.Context, inv returns.Investment, asOf time.Time) ReconcileResult {
	result := ReconcileResult{InvestmentID: inv.ID}

	txs, err := r.Ledger.Transactions(ctx, inv.ID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("load ledger: %w", err))
		return result
	}
	existing := ExistingSetOf(txs)

	for _, c := range r.candidates(inv, asOf, existing) {
		tx := Transaction{
			ID:             NewTransactionID(asOf),
			InvestmentID:   inv.ID,
			Type:           c.txType,
			Status:         StatusCompleted,
			Amount:         c.amount.Round(0), // nearest whole rupee
			Date:           r.Policy.Booking.DateForYear(inv.StartDate, c.year),
			YearCovered:    c.year,
			RatePercent:    c.rate,
			IdempotencyKey: IdempotencyKey(inv.ID, c.year, c.txType),
			CreatedAt:      time.Now().UTC(),
		}

		err := r.Ledger.Append(ctx, tx)
		switch {
		case errors.Is(err, ErrDuplicateTransaction):
			result.Skipped++
		case err != nil:
			log.Printf("[Reconciler] %s year %d %s: %v", inv.ID, c.year, c.txType, err)
			result.Errors = append(result.Errors, fmt.Errorf("year %d %s: %w", c.year, c.txType, err))
		default:
			result.Created = append(result.Created, tx)
		}
	}
	return result
}

// candidates diffs what should exist against what does.
func (r *Reconciler) candidates(inv returns.Investment, asOf time.Time, existing returns.ExistingSet) []candidate {
	p := r.Policy
	completed, _ := returns.ElapsedYears(inv.StartDate, asOf)
	if completed > p.TermYears {
		completed = p.TermYears
	}

	var out []candidate
	for year := 1; year <= completed; year++ {
		rate := p.Rates[year]
		if rate.IsPositive() && !existing.Has(year, returns.KindDividend) {
			out = append(out, candidate{
				txType: TxDividend,
				year:   year,
				amount: p.YearDividend(inv.Principal, year),
				rate:   rate,
			})
		}
		if p.IsMilestoneYear(year) && !existing.Has(year, returns.KindBonus) {
			out = append(out, candidate{
				txType: TxBonus,
				year:   year,
				amount: p.YearBonus(inv.Principal, year),
			})
		}
	}
	if completed >= p.TermYears && !existing.Has(p.TermYears, returns.KindMaturity) {
		out = append(out, candidate{
			txType: TxMaturity,
			year:   p.TermYears,
			amount: inv.Principal,
		})
	}
	return out
}

// ReconcileAll processes a batch of investments, continuing past failures.
func (r *Reconciler) ReconcileAll(ctx context.Context, invs []returns.Investment, asOf time.Time) BatchResult {
	var batch BatchResult
	for _, inv := range invs {
		res := r.Reconcile(ctx, inv, asOf)
		batch.Processed++
		batch.Created += len(res.Created)
		batch.Skipped += res.Skipped
		for _, err := range res.Errors {
			batch.Errors = append(batch.Errors, BatchError{InvestmentID: inv.ID, Err: err})
		}
	}
	return batch
}
