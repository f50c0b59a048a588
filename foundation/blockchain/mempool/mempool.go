// Package mempool maintains the queue of accepted transactions waiting to
// be mined. Selection for mining is strictly first in, first out.
package mempool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hashlight/chain/foundation/blockchain/database"
)

// ErrDuplicate is returned from Accept when a transaction with the same
// identity is already queued.
var ErrDuplicate = errors.New("transaction already in mempool")

// Mempool represents a cache of transactions keyed by identity with the
// arrival order preserved.
type Mempool struct {
	mu        sync.RWMutex
	pool      map[string]database.Tx
	order     []string
	balanceFn func(account string) uint
}

// New constructs a new mempool. The balance function reports the current
// ledger balance for an account and gates admission.
func New(balanceFn func(account string) uint) *Mempool {
	return &Mempool{
		pool:      make(map[string]database.Tx),
		balanceFn: balanceFn,
	}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Accept queues a transaction after checking that its identity is not
// already queued and that the sender's current ledger balance covers the
// full debit. It returns the number of queued transactions.
func (mp *Mempool) Accept(tx database.Tx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	txID := tx.ID()
	if _, exists := mp.pool[txID]; exists {
		return len(mp.pool), fmt.Errorf("tx %s: %w", txID, ErrDuplicate)
	}

	balance := mp.balanceFn(tx.Sender)
	if debit := tx.TotalDebit(); balance < debit {
		return len(mp.pool), fmt.Errorf("tx %s: bal %d, needed %d: %w", txID, balance, debit, database.ErrInsufficientFunds)
	}

	mp.pool[txID] = tx
	mp.order = append(mp.order, txID)

	return len(mp.pool), nil
}

// GetBatch removes and returns up to howMany transactions from the front
// of the queue. Passing -1 drains the pool.
func (mp *Mempool) GetBatch(howMany int) []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if howMany < 0 || howMany > len(mp.order) {
		howMany = len(mp.order)
	}

	batch := make([]database.Tx, 0, howMany)
	for _, txID := range mp.order[:howMany] {
		batch = append(batch, mp.pool[txID])
		delete(mp.pool, txID)
	}
	mp.order = mp.order[howMany:]

	return batch
}

// Copy returns a snapshot of the queued transactions in arrival order.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	txs := make([]database.Tx, 0, len(mp.order))
	for _, txID := range mp.order {
		txs = append(txs, mp.pool[txID])
	}

	return txs
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.Tx)
	mp.order = nil
}
