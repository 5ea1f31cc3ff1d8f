package state

import (
	"github.com/cockroachdb/errors"
	"github.com/hqchain/hqchain/foundation/blockchain/accounts"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
)

// ErrNotFound is returned when a queried account has never transacted.
var ErrNotFound = errors.New("not found")

// QueryAccount returns a copy of the account information.
func (s *State) QueryAccount(accountID database.AccountID) (accounts.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, exists := s.accounts.Query(accountID)
	if !exists {
		return accounts.Info{}, errors.Wrapf(ErrNotFound, "account %s", accountID)
	}

	return info, nil
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlock returns the block stored at the specified index.
func (s *State) QueryBlock(index uint64) (database.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index > s.db.LatestBlock().Index {
		return database.Block{}, errors.Wrapf(ErrNotFound, "block %d", index)
	}

	return s.db.GetBlock(index)
}
