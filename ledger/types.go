/*
Package ledger provides the append-only transaction ledger for investment
payouts, plus the reconciler that materializes accrued years into it.

PURPOSE:
  The ledger is the source of truth for what has actually been disbursed.
  The returns engine computes what SHOULD exist; the reconciler diffs that
  against the ledger and creates exactly the missing rows, never more.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: no update, no delete
  2. ONE ROW per (investment, year, type) for disbursement types
  3. IDEMPOTENT: re-running the reconciler creates zero new rows

KEY CONCEPTS IN THIS FILE (types.go):
  - Transaction: an immutable ledger entry
  - TransactionType: investment | dividend | bonus | maturity disbursement
  - NewTransactionID: traceable TXN-YYYY-MM-DD-xxxxxxxx identifiers

SEE ALSO:
  - reconcile.go: the idempotent generator
  - store.go: persistence interface
  - store/sqlite: production implementation
*/
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nivesh/debenture-engine/returns"
)

// =============================================================================
// TRANSACTION - Atomic ledger entry
// =============================================================================

// TransactionType classifies a ledger entry. The disbursement values are
// shared with returns.DisbursementKind so the engine's existing-set view
// and the ledger speak the same vocabulary.
type TransactionType string

const (
	TxInvestment TransactionType = "investment"
	TxDividend   TransactionType = TransactionType(returns.KindDividend)
	TxBonus      TransactionType = TransactionType(returns.KindBonus)
	TxMaturity   TransactionType = TransactionType(returns.KindMaturity)
)

// IsDisbursement reports whether the type is one of the payout kinds
// covered by the (investment, year, type) uniqueness invariant.
func (t TransactionType) IsDisbursement() bool {
	return t == TxDividend || t == TxBonus || t == TxMaturity
}

// TransactionStatus mirrors the payout lifecycle.
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
	StatusPending   TransactionStatus = "pending"
)

// Transaction is an immutable ledger entry. Amounts for disbursement rows
// are rounded to the nearest whole rupee when created.
type Transaction struct {
	ID           string
	InvestmentID string
	Type         TransactionType
	Status       TransactionStatus
	Amount       decimal.Decimal

	// Date is the value date: for reconciler-created rows, the year's
	// booking date under the policy's Booking strategy.
	Date time.Time

	// YearCovered is the term year the row settles (0 for investment rows).
	YearCovered int

	// RatePercent is the interest rate used to compute Amount
	// (zero for bonus, maturity, and investment rows).
	RatePercent decimal.Decimal

	// IdempotencyKey is deterministic per (investment, year, type) so
	// retries and concurrent reconciliations collapse to one row.
	IdempotencyKey string

	Note      string
	CreatedAt time.Time
}

// NewTransactionID builds a human-traceable unique identifier, e.g.
// TXN-2026-08-29-1f6a02c4. Uniqueness comes from the UUID suffix;
// the date prefix exists for operators grepping ledgers, not for ordering.
func NewTransactionID(now time.Time) string {
	return fmt.Sprintf("TXN-%04d-%02d-%02d-%s",
		now.Year(), now.Month(), now.Day(), uuid.NewString()[:8])
}

// IdempotencyKey builds the deterministic key for a disbursement row.
func IdempotencyKey(investmentID string, year int, txType TransactionType) string {
	return fmt.Sprintf("%s-y%02d-%s", investmentID, year, txType)
}

// ExistingSetOf folds ledger rows into the engine's (year, kind) view.
// Investment rows are ignored; they never gate a disbursement.
func ExistingSetOf(txs []Transaction) returns.ExistingSet {
	set := make(returns.ExistingSet, len(txs))
	for _, tx := range txs {
		if !tx.Type.IsDisbursement() {
			continue
		}
		set[returns.ExistingKey{Year: tx.YearCovered, Kind: returns.DisbursementKind(tx.Type)}] = true
	}
	return set
}
