package database

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hqchain/hqchain/foundation/blockchain/genesis"
	"github.com/hqchain/hqchain/foundation/blockchain/signature"
)

// ErrChainLinkage is returned when a block does not extend the block it is
// validated against.
var ErrChainLinkage = errors.New("block does not link to the latest block")

// ErrInvalidProof is returned when the proof presented for a block does not
// satisfy the consensus rules for its position in the chain.
var ErrInvalidProof = errors.New("block proof is invalid")

// ErrInvalidSignature is returned when a transaction signature does not
// verify against the supplied public key.
var ErrInvalidSignature = errors.New("transaction signature verification failed")

// =============================================================================

// Block represents a group of transactions batched together. A block is a
// draft until Hash is set by the chain accepting it.
type Block struct {
	Index         uint64     // Position in the chain, genesis is 0.
	Transactions  []SignedTx // Transactions taken from the pending pool.
	TimeStamp     float64    // Seconds since the epoch when the block was built.
	PrevBlockHash string     // Hash of the previous block in the chain.
	Nonce         uint64     // Value identified to solve the POW hash. Always 0 for POS.
	Stakeholder   AccountID  // Account elected by POS. Empty for POW.
	BeneficiaryID AccountID  // Account receiving the block reward.
	Hash          string     // Sealed hash. Empty while the block is a draft.
}

// NewBlock constructs a draft block that extends the previous block.
func NewBlock(prevBlock Block, beneficiaryID AccountID, trans []SignedTx) Block {
	return Block{
		Index:         prevBlock.Index + 1,
		Transactions:  trans,
		TimeStamp:     float64(time.Now().UTC().UnixNano()) / float64(time.Second),
		PrevBlockHash: prevBlock.Hash,
		BeneficiaryID: beneficiaryID,
	}
}

// GenesisBlock constructs the sealed first block of the chain from the
// genesis settings.
func GenesisBlock(gen genesis.Genesis) Block {
	b := Block{
		Index:         0,
		Transactions:  []SignedTx{},
		TimeStamp:     float64(gen.Date.Unix()),
		PrevBlockHash: signature.ZeroHash,
	}
	b.Hash = b.ComputeHash()

	return b
}

// ComputeHash returns the hash of every field of the block except the sealed
// hash itself.
func (b Block) ComputeHash() string {
	return signature.Hash(newBlockPayload(b))
}

// ValidateBlock checks the block can be appended after the previous block:
// the index is the next number and the previous hash matches.
func (b Block) ValidateBlock(previousBlock Block, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Index)

	nextNumber := previousBlock.Index + 1
	if b.Index != nextNumber {
		return errors.Wrapf(ErrChainLinkage, "this block is not the next number, got %d, exp %d", b.Index, nextNumber)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Index)

	if b.PrevBlockHash != previousBlock.Hash {
		return errors.Wrapf(ErrChainLinkage, "parent block hash doesn't match our known parent, got %s, exp %s", b.PrevBlockHash, previousBlock.Hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block has a beneficiary", b.Index)

	if b.BeneficiaryID == "" {
		return errors.New("block has no beneficiary")
	}

	return nil
}

// ValidateGenesis checks the block has the shape of a genesis block and its
// sealed hash matches its content.
func (b Block) ValidateGenesis() error {
	switch {
	case b.Index != 0:
		return errors.Newf("genesis index must be 0, got %d", b.Index)
	case b.PrevBlockHash != signature.ZeroHash:
		return errors.Newf("genesis previous hash must be zero, got %s", b.PrevBlockHash)
	case len(b.Transactions) != 0:
		return errors.Newf("genesis can't hold transactions, got %d", len(b.Transactions))
	case b.Hash != b.ComputeHash():
		return errors.Newf("genesis hash doesn't match its content, got %s, exp %s", b.Hash, b.ComputeHash())
	}

	return nil
}

// =============================================================================

// blockPayload is the canonical hash input for a block. Fields are declared
// in lexicographic order of their JSON names and empty accounts encode as
// null.
type blockPayload struct {
	BeneficiaryID *AccountID `json:"beneficiary"`
	Index         uint64     `json:"index"`
	Nonce         uint64     `json:"nonce"`
	PrevBlockHash string     `json:"previous_hash"`
	Stakeholder   *AccountID `json:"stakeholder"`
	TimeStamp     float64    `json:"timestamp"`
	Transactions  []SignedTx `json:"transactions"`
}

func newBlockPayload(b Block) blockPayload {
	trans := b.Transactions
	if trans == nil {
		trans = []SignedTx{}
	}

	return blockPayload{
		BeneficiaryID: optional(b.BeneficiaryID),
		Index:         b.Index,
		Nonce:         b.Nonce,
		PrevBlockHash: b.PrevBlockHash,
		Stakeholder:   optional(b.Stakeholder),
		TimeStamp:     b.TimeStamp,
		Transactions:  trans,
	}
}

// optional maps an empty account to a JSON null.
func optional(a AccountID) *AccountID {
	if a == "" {
		return nil
	}

	return &a
}

// =============================================================================

// BlockData represents the external representation of a sealed block. This
// is what is stored and what is exchanged with peers and clients.
type BlockData struct {
	Index         uint64     `json:"index"`
	Transactions  []SignedTx `json:"transactions"`
	TimeStamp     float64    `json:"timestamp"`
	PrevBlockHash string     `json:"previous_hash"`
	Nonce         uint64     `json:"nonce"`
	Stakeholder   *AccountID `json:"stakeholder"`
	BeneficiaryID *AccountID `json:"beneficiary"`
	Hash          string     `json:"hash"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(block Block) BlockData {
	trans := make([]SignedTx, len(block.Transactions))
	copy(trans, block.Transactions)

	return BlockData{
		Index:         block.Index,
		Transactions:  trans,
		TimeStamp:     block.TimeStamp,
		PrevBlockHash: block.PrevBlockHash,
		Nonce:         block.Nonce,
		Stakeholder:   optional(block.Stakeholder),
		BeneficiaryID: optional(block.BeneficiaryID),
		Hash:          block.Hash,
	}
}

// ToBlock converts a BlockData into a Block. The sealed hash is carried over
// as is and must be validated by the caller.
func ToBlock(blockData BlockData) Block {
	trans := make([]SignedTx, len(blockData.Transactions))
	copy(trans, blockData.Transactions)

	var stakeholder, beneficiaryID AccountID
	if blockData.Stakeholder != nil {
		stakeholder = *blockData.Stakeholder
	}
	if blockData.BeneficiaryID != nil {
		beneficiaryID = *blockData.BeneficiaryID
	}

	return Block{
		Index:         blockData.Index,
		Transactions:  trans,
		TimeStamp:     blockData.TimeStamp,
		PrevBlockHash: blockData.PrevBlockHash,
		Nonce:         blockData.Nonce,
		Stakeholder:   stakeholder,
		BeneficiaryID: beneficiaryID,
		Hash:          blockData.Hash,
	}
}
