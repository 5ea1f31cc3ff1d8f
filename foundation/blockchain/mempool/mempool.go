// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"sync"

	"github.com/hqchain/hqchain/foundation/blockchain/database"
)

// Mempool represents the pending transactions in the order they were
// submitted. Duplicates are kept.
type Mempool struct {
	pool []database.SignedTx
	mu   sync.RWMutex
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add appends a transaction to the mempool and returns the new count.
func (mp *Mempool) Add(tx database.SignedTx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)

	return len(mp.pool)
}

// Delete removes the first occurrence of the transaction from the mempool.
func (mp *Mempool) Delete(tx database.SignedTx) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for i, ptx := range mp.pool {
		if ptx.Equals(tx) {
			mp.pool = append(mp.pool[:i], mp.pool[i+1:]...)
			return true
		}
	}

	return false
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}

// PickAll returns a snapshot of every pending transaction in submission
// order.
func (mp *Mempool) PickAll() []database.SignedTx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	trans := make([]database.SignedTx, len(mp.pool))
	copy(trans, mp.pool)

	return trans
}
