package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/hqchain/hqchain/foundation/blockchain/accounts"
	"github.com/hqchain/hqchain/foundation/blockchain/consensus"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are not enough transactions.
var ErrNoTransactions = errors.New("no transactions in mempool")

// ErrSupplyCap is returned when the reward for a new block would push the
// total supply past the maximum supply.
var ErrSupplyCap = errors.New("maximum supply reached")

// =============================================================================

// Mine requests a new block. When a worker is registered the request is
// serialized through it, otherwise the block is mined on the calling
// goroutine.
func (s *State) Mine(ctx context.Context) (database.Block, error) {
	if s.Worker != nil {
		return s.Worker.Mine(ctx)
	}

	return s.MineNewBlock(ctx)
}

// MineNewBlock attempts to create a new block with a proper proof that can
// become the next block in the chain. The proof of work search runs without
// holding the state lock.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Take a snapshot of the pool. Transactions submitted from here on stay
	// in the pool for the next block.
	trans := s.mempool.PickAll()
	if len(trans) == 0 {
		return database.Block{}, ErrNoTransactions
	}

	s.mu.RLock()
	prevBlock := s.db.LatestBlock()
	supply := s.totalSupply
	s.mu.RUnlock()

	// There is no point in sealing a block that can't be accepted.
	if err := s.checkSupply(supply); err != nil {
		return database.Block{}, err
	}

	draft := database.NewBlock(prevBlock, s.beneficiaryID, trans)
	ev := consensus.EventHandler(s.evHandler)

	var block database.Block
	var proof string
	var err error

	switch consensus.AlgorithmFor(prevBlock.Index) {
	case consensus.AlgorithmPOW:
		s.evHandler("state: MineNewBlock: MINING: perform POW: blk[%d]: txs[%d]", draft.Index, len(trans))
		block, proof, err = consensus.POW(ctx, draft, s.genesis.Difficulty, ev)

	case consensus.AlgorithmPOS:
		s.evHandler("state: MineNewBlock: MINING: perform POS: blk[%d]: txs[%d]", draft.Index, len(trans))
		block, proof, err = consensus.POS(draft, s.stakes, ev)
	}

	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: validate and update database")

	if err := s.AcceptBlock(block, proof); err != nil {
		return database.Block{}, err
	}

	block.Hash = proof

	return block, nil
}

// AcceptBlock validates the block and its proof against the latest block
// in the chain. If the block passes, it becomes the latest block.
func (s *State) AcceptBlock(block database.Block, proof string) error {
	s.evHandler("state: AcceptBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.PrevBlockHash, proof, len(block.Transactions))
	defer s.evHandler("state: AcceptBlock: completed: newBlk[%s]", proof)

	return s.validateUpdateDatabase(block, proof)
}

// =============================================================================

// validateUpdateDatabase takes the block and validates the block against the
// consensus rules. If the block passes, then the state of the node is updated
// including adding the block to the chain.
func (s *State) validateUpdateDatabase(block database.Block, proof string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: validateUpdateDatabase: validate block")

	if err := s.validateBlock(s.db.LatestBlock(), block, proof, s.totalSupply); err != nil {
		return err
	}

	block.Hash = proof
	reward := s.genesis.MiningReward

	// Balances are applied to a copy so a rejected block leaves them as is.
	next := s.accounts.Clone()
	if err := next.ApplyBlock(block, reward); err != nil {
		return errors.Wrapf(err, "blk[%d]", block.Index)
	}

	s.evHandler("state: validateUpdateDatabase: write to chain")

	if err := s.db.Write(block); err != nil {
		return err
	}
	s.totalSupply += reward

	s.evHandler("state: validateUpdateDatabase: update accounts and remove from mempool")

	s.accounts.Replace(next)

	for _, tx := range block.Transactions {
		s.evHandler("state: validateUpdateDatabase: tx[%s] remove", tx)
		s.mempool.Delete(tx)
	}

	// Send an event about this new block.
	s.blockEvent(block)

	return nil
}

// validateBlock applies every rule a block must satisfy to extend the
// previous block when the supply minted so far is the specified supply.
func (s *State) validateBlock(prevBlock database.Block, block database.Block, proof string, supply uint64) error {
	if err := block.ValidateBlock(prevBlock, s.evHandler); err != nil {
		return err
	}

	s.evHandler("state: validateBlock: blk[%d]: check: proof is valid", block.Index)

	if !consensus.IsValidProof(block, proof, s.genesis.Difficulty) {
		return errors.Wrapf(database.ErrInvalidProof, "blk[%d]: proof %s", block.Index, proof)
	}

	if consensus.AlgorithmFor(prevBlock.Index) == consensus.AlgorithmPOS && block.BeneficiaryID != block.Stakeholder {
		return errors.Wrapf(database.ErrInvalidProof, "blk[%d]: beneficiary %s is not the stakeholder %s", block.Index, block.BeneficiaryID, block.Stakeholder)
	}

	s.evHandler("state: validateBlock: blk[%d]: check: transactions are signed", block.Index)

	for _, tx := range block.Transactions {
		if err := tx.Validate(); err != nil {
			return errors.Wrapf(err, "blk[%d]: tx[%s]", block.Index, tx)
		}
	}

	s.evHandler("state: validateBlock: blk[%d]: check: supply cap", block.Index)

	return s.checkSupply(supply)
}

// validateChain validates every block of the chain from the genesis block
// and returns the balances and the supply the chain produces.
func (s *State) validateChain(blocks []database.Block) (*accounts.Accounts, uint64, error) {
	if len(blocks) == 0 {
		return nil, 0, errors.New("chain has no genesis block")
	}

	if err := blocks[0].ValidateGenesis(); err != nil {
		return nil, 0, err
	}

	act := accounts.New()
	reward := s.genesis.MiningReward

	var supply uint64
	for i := 1; i < len(blocks); i++ {
		block := blocks[i]

		if err := s.validateBlock(blocks[i-1], block, block.Hash, supply); err != nil {
			return nil, 0, errors.Wrapf(err, "record %d", i)
		}

		if err := act.ApplyBlock(block, reward); err != nil {
			return nil, 0, errors.Wrapf(err, "record %d", i)
		}
		supply += reward
	}

	return act, supply, nil
}

// checkSupply validates one more block reward fits under the maximum supply.
func (s *State) checkSupply(supply uint64) error {
	reward := s.genesis.MiningReward
	if supply > s.genesis.MaxSupply || reward > s.genesis.MaxSupply-supply {
		return errors.Wrapf(ErrSupplyCap, "supply %d plus reward %d exceeds %d", supply, reward, s.genesis.MaxSupply)
	}

	return nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(database.NewBlockData(block))
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"block":%s}`, block.Hash, string(blockJSON))
}
