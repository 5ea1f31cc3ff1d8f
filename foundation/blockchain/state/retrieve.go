package state

import (
	"github.com/hqchain/hqchain/foundation/blockchain/accounts"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
	"github.com/hqchain/hqchain/foundation/blockchain/genesis"
	"github.com/hqchain/hqchain/foundation/blockchain/peer"
	"github.com/hqchain/hqchain/foundation/blockchain/stake"
)

// Listing represents a consistent view of the full chain.
type Listing struct {
	Length      int                  `json:"length"`
	Chain       []database.BlockData `json:"chain"`
	TotalSupply uint64               `json:"total_supply"`
}

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveBeneficiary returns the account receiving proof of work rewards.
func (s *State) RetrieveBeneficiary() database.AccountID {
	return s.beneficiaryID
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.LatestBlock()
}

// RetrieveTotalSupply returns the coins minted so far.
func (s *State) RetrieveTotalSupply() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.totalSupply
}

// RetrieveChain returns every block in the chain along with the supply
// taken under the same lock.
func (s *State) RetrieveChain() (Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks, err := s.db.Copy()
	if err != nil {
		return Listing{}, err
	}

	chain := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		chain[i] = database.NewBlockData(block)
	}

	listing := Listing{
		Length:      len(chain),
		Chain:       chain,
		TotalSupply: s.totalSupply,
	}

	return listing, nil
}

// RetrieveMempool returns a copy of the mempool.
func (s *State) RetrieveMempool() []database.SignedTx {
	return s.mempool.PickAll()
}

// RetrieveAccounts returns the balances of every account sorted by account.
func (s *State) RetrieveAccounts() []accounts.Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.accounts.List()
}

// RetrieveStakes returns a copy of the stakes in registration order.
func (s *State) RetrieveStakes() []stake.Stake {
	return s.stakes.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrieveStatus returns the status of this node as reported to peers.
func (s *State) RetrieveStatus() peer.PeerStatus {
	s.mu.RLock()
	latest := s.db.LatestBlock()
	supply := s.totalSupply
	s.mu.RUnlock()

	status := peer.PeerStatus{
		LatestBlockHash:   latest.Hash,
		LatestBlockNumber: latest.Index,
		TotalSupply:       supply,
		MempoolLength:     s.mempool.Count(),
		KnownPeers:        s.knownPeers.Hosts(s.host),
	}

	return status
}
