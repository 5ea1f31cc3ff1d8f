// Package database handles all the lower level support for maintaining the
// sequence of sealed blocks that make up the blockchain.
package database

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/hqchain/hqchain/foundation/blockchain/genesis"
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// DatabaseIterator walks the stored blocks converting them into blocks.
type DatabaseIterator struct {
	iterator Iterator
}

// Next retrieves the next block from storage.
func (di *DatabaseIterator) Next() (Block, error) {
	blockData, err := di.iterator.Next()
	if err != nil {
		return Block{}, err
	}

	return ToBlock(blockData), nil
}

// Done returns the end of chain value.
func (di *DatabaseIterator) Done() bool {
	return di.iterator.Done()
}

// =============================================================================

// Database manages the sealed blocks of the chain. The genesis block is
// always present at index 0.
type Database struct {
	mu          sync.RWMutex
	genesis     genesis.Genesis
	latestBlock Block
	storage     Storage
}

// New constructs a new database. Blocks already held by the storage are
// read and their linkage validated, otherwise the genesis block is written.
func New(gen genesis.Genesis, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	db := Database{
		genesis: gen,
		storage: storage,
	}

	var latestBlock Block
	var count int

	iter := db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		switch count {
		case 0:
			if err := block.ValidateGenesis(); err != nil {
				return nil, err
			}

		default:
			if err := block.ValidateBlock(latestBlock, evHandler); err != nil {
				return nil, err
			}
		}

		latestBlock = block
		count++
	}

	if count == 0 {
		latestBlock = GenesisBlock(gen)
		if err := db.storage.Write(NewBlockData(latestBlock)); err != nil {
			return nil, errors.Wrap(err, "writing genesis block")
		}
	}

	db.latestBlock = latestBlock

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() {
	db.storage.Close()
}

// Write adds a new block to the chain and makes it the latest block.
func (db *Database) Write(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Write(NewBlockData(block)); err != nil {
		return err
	}
	db.latestBlock = block

	return nil
}

// Replace swaps the full chain for the specified blocks. The blocks must
// start with a genesis block and are expected to be validated already.
func (db *Database) Replace(blocks []Block) error {
	if len(blocks) == 0 {
		return errors.New("no blocks to replace the chain with")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Reset(); err != nil {
		return errors.Wrap(err, "resetting storage")
	}

	for _, block := range blocks {
		if err := db.storage.Write(NewBlockData(block)); err != nil {
			return errors.Wrapf(err, "writing block %d", block.Index)
		}
	}
	db.latestBlock = blocks[len(blocks)-1]

	return nil
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// ForEach returns an iterator to walk through all the blocks
// starting with the genesis block.
func (db *Database) ForEach() DatabaseIterator {
	return DatabaseIterator{iterator: db.storage.ForEach()}
}

// GetBlock searches the blockchain to locate and return the contents of the
// specified block by number.
func (db *Database) GetBlock(num uint64) (Block, error) {
	blockData, err := db.storage.GetBlock(num)
	if err != nil {
		return Block{}, err
	}

	return ToBlock(blockData), nil
}

// Copy returns every block in the chain in order.
func (db *Database) Copy() ([]Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var blocks []Block

	iter := db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}
