// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/hqchain/hqchain/foundation/blockchain/accounts"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
	"github.com/hqchain/hqchain/foundation/blockchain/genesis"
	"github.com/hqchain/hqchain/foundation/blockchain/mempool"
	"github.com/hqchain/hqchain/foundation/blockchain/peer"
	"github.com/hqchain/hqchain/foundation/blockchain/stake"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for serializing mining requests.
type Worker interface {
	Shutdown()
	Mine(ctx context.Context) (database.Block, error)
	SignalCancelMining()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	BeneficiaryID database.AccountID
	Host          string
	Storage       database.Storage
	Genesis       genesis.Genesis
	Stakes        *stake.Registry
	KnownPeers    *peer.PeerSet
	PeersPath     string
	EvHandler     EventHandler
}

// State manages the blockchain database.
type State struct {
	mu sync.RWMutex

	beneficiaryID database.AccountID
	host          string
	peersPath     string
	evHandler     EventHandler

	knownPeers  *peer.PeerSet
	genesis     genesis.Genesis
	mempool     *mempool.Mempool
	stakes      *stake.Registry
	db          *database.Database
	accounts    *accounts.Accounts
	totalSupply uint64

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {
	if cfg.BeneficiaryID == "" {
		return nil, errors.New("a beneficiary account is required")
	}

	if cfg.Storage == nil {
		return nil, errors.New("a storage is required")
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating genesis")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	stakes := cfg.Stakes
	if stakes == nil {
		stakes = stake.New()
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	// Access the storage for the blockchain. An empty storage is seeded
	// with the genesis block.
	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	state := State{
		beneficiaryID: cfg.BeneficiaryID,
		host:          cfg.Host,
		peersPath:     cfg.PeersPath,
		evHandler:     ev,

		knownPeers: knownPeers,
		genesis:    cfg.Genesis,
		mempool:    mempool.New(),
		stakes:     stakes,
		db:         db,
	}

	// Replay the stored blocks to rebuild the balances and the supply.
	blocks, err := db.Copy()
	if err != nil {
		return nil, err
	}

	act, supply, err := state.validateChain(blocks)
	if err != nil {
		return nil, errors.Wrap(err, "replaying stored chain")
	}
	state.accounts = act
	state.totalSupply = supply

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the database is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}
