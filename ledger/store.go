package ledger

import (
	"context"
	"errors"
)

// =============================================================================
// STORE - Persistence interface (append-only)
// =============================================================================

// Store handles transaction persistence.
// IMPORTANT: Store is APPEND-ONLY. No update, no delete.
type Store interface {
	// Append persists a transaction. Returns ErrDuplicateTransaction when a
	// row for the same (investment, year, type) or idempotency key exists.
	// This is the ONLY write operation.
	Append(ctx context.Context, tx Transaction) error

	// Load returns all transactions for an investment, ordered by value
	// date then creation time.
	Load(ctx context.Context, investmentID string) ([]Transaction, error)

	// Exists checks whether a disbursement row for (investment, year, type)
	// is already present.
	Exists(ctx context.Context, investmentID string, year int, txType TransactionType) (bool, error)
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrDuplicateTransaction is returned when a row for the same
	// (investment, year, type) or idempotency key already exists.
	// Expected during retries and concurrent reconciliations; treat as a
	// benign no-op.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrTransactionFailed is returned when a row cannot be persisted.
	ErrTransactionFailed = errors.New("transaction failed")
)

// =============================================================================
// LEDGER - Check-then-create wrapper over a Store
// =============================================================================

// Ledger wraps a Store with the existence check the reconciler relies on.
// The store's own uniqueness constraints remain the final arbiter; the
// check here just avoids pointless writes in the common path.
type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Append adds a transaction after a conditional existence check.
func (l *Ledger) Append(ctx context.Context, tx Transaction) error {
	if tx.Type.IsDisbursement() {
		exists, err := l.store.Exists(ctx, tx.InvestmentID, tx.YearCovered, tx.Type)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateTransaction
		}
	}
	return l.store.Append(ctx, tx)
}

// Transactions returns the full ledger for an investment.
func (l *Ledger) Transactions(ctx context.Context, investmentID string) ([]Transaction, error) {
	return l.store.Load(ctx, investmentID)
}
