package ledger

import (
	"context"
	"sort"
	"sync"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// MemoryStore is a thread-safe in-memory Store. It enforces the same
// uniqueness invariants as the SQLite store.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[string][]Transaction // keyed by investment ID
	disbursed    map[string]bool          // (investment, year, type) keys
	idempotency  map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[string][]Transaction),
		disbursed:    make(map[string]bool),
		idempotency:  make(map[string]bool),
	}
}

func (m *MemoryStore) Append(_ context.Context, tx Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tx.IdempotencyKey != "" && m.idempotency[tx.IdempotencyKey] {
		return ErrDuplicateTransaction
	}
	if tx.Type.IsDisbursement() {
		key := IdempotencyKey(tx.InvestmentID, tx.YearCovered, tx.Type)
		if m.disbursed[key] {
			return ErrDuplicateTransaction
		}
		m.disbursed[key] = true
	}

	txs := m.transactions[tx.InvestmentID]
	// Insert keeping value-date order.
	i := sort.Search(len(txs), func(i int) bool {
		return txs[i].Date.After(tx.Date)
	})
	txs = append(txs, Transaction{})
	copy(txs[i+1:], txs[i:])
	txs[i] = tx
	m.transactions[tx.InvestmentID] = txs

	if tx.IdempotencyKey != "" {
		m.idempotency[tx.IdempotencyKey] = true
	}
	return nil
}

func (m *MemoryStore) Load(_ context.Context, investmentID string) ([]Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Transaction, len(m.transactions[investmentID]))
	copy(result, m.transactions[investmentID])
	return result, nil
}

func (m *MemoryStore) Exists(_ context.Context, investmentID string, year int, txType TransactionType) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.disbursed[IdempotencyKey(investmentID, year, txType)], nil
}
