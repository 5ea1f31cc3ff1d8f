package state

import (
	"github.com/cockroachdb/errors"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
)

// ImportChain replaces the chain with the specified records after
// validating every one of them from the genesis block on. The chain, the
// balances and the supply are replaced together, or not at all when any
// record is rejected.
func (s *State) ImportChain(records []database.BlockData) error {
	s.evHandler("state: ImportChain: started: records[%d]", len(records))
	defer s.evHandler("state: ImportChain: completed")

	if len(records) == 0 {
		return errors.New("no records to import")
	}

	blocks := make([]database.Block, len(records))
	for i, record := range records {
		blocks[i] = database.ToBlock(record)
	}

	act, supply, err := s.validateChain(blocks)
	if err != nil {
		s.evHandler("state: ImportChain: REJECTED: %s", err)
		return err
	}

	// A search running against the chain being replaced is wasted work.
	if s.Worker != nil {
		s.Worker.SignalCancelMining()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Replace(blocks); err != nil {
		return err
	}
	s.accounts.Replace(act)
	s.totalSupply = supply

	for _, block := range blocks {
		for _, tx := range block.Transactions {
			s.mempool.Delete(tx)
		}
	}

	latest := blocks[len(blocks)-1]
	s.evHandler("state: ImportChain: latestBlk[%d]: hash[%s]: supply[%d]", latest.Index, latest.Hash, supply)

	return nil
}
