// Package consensus implements the proof of work and proof of stake rules
// used to seal blocks. The algorithm for a block alternates with the index
// of the block it extends.
package consensus

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
)

// ErrNoStakeholder is returned when a proof of stake block is requested and
// nothing is staked.
var ErrNoStakeholder = errors.New("no stakeholder available")

// Set of algorithms used to seal blocks.
const (
	AlgorithmPOW Algorithm = "POW"
	AlgorithmPOS Algorithm = "POS"
)

// hashLength is the number of hex characters in a sealed hash.
const hashLength = 64

// =============================================================================

// Algorithm represents the consensus algorithm sealing a block.
type Algorithm string

// AlgorithmFor returns the algorithm that seals the block extending the
// block with the specified index. An even index is extended by proof of
// work and an odd index by proof of stake.
func AlgorithmFor(prevIndex uint64) Algorithm {
	if prevIndex%2 == 0 {
		return AlgorithmPOW
	}

	return AlgorithmPOS
}

// Selector represents the behavior required to elect the stakeholder of a
// proof of stake block.
type Selector interface {
	Select() (database.AccountID, bool)
}

// EventHandler defines a function that is called when events occur while
// sealing a block.
type EventHandler func(v string, args ...any)

// =============================================================================

// POW searches for the nonce that gives the block a hash starting with
// difficulty zeros. The search starts at nonce 0 and can be cancelled
// through the context. The block is returned with the nonce set, along with
// its hash as the proof.
func POW(ctx context.Context, block database.Block, difficulty uint16, ev EventHandler) (database.Block, string, error) {
	ev("consensus: POW: MINING: started: blk[%d]", block.Index)
	defer ev("consensus: POW: MINING: completed: blk[%d]", block.Index)

	for _, tx := range block.Transactions {
		ev("consensus: POW: MINING: tx[%s]", tx)
	}

	t := time.Now()
	block.Nonce = 0

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("consensus: POW: MINING: attempts[%d]", attempts)
		}

		if err := ctx.Err(); err != nil {
			ev("consensus: POW: MINING: CANCELLED")
			return database.Block{}, "", err
		}

		hash := block.ComputeHash()
		if !IsHashSolved(difficulty, hash) {
			block.Nonce++
			continue
		}

		ev("consensus: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: nonce[%d]", block.PrevBlockHash, hash, block.Nonce)
		ev("consensus: POW: MINING: attempts[%d]: duration[%v]", attempts, time.Since(t))

		return block, hash, nil
	}
}

// POS elects a stakeholder through the selector to seal the block. The
// stakeholder also becomes the beneficiary of the block reward. The proof
// is the hash of the resulting block.
func POS(block database.Block, selector Selector, ev EventHandler) (database.Block, string, error) {
	ev("consensus: POS: started: blk[%d]", block.Index)
	defer ev("consensus: POS: completed: blk[%d]", block.Index)

	stakeholder, ok := selector.Select()
	if !ok {
		return database.Block{}, "", ErrNoStakeholder
	}

	block.Nonce = 0
	block.Stakeholder = stakeholder
	block.BeneficiaryID = stakeholder

	hash := block.ComputeHash()

	ev("consensus: POS: SELECTED: stakeholder[%s]: newBlk[%s]", stakeholder, hash)

	return block, hash, nil
}

// =============================================================================

// IsValidProof reports whether the proof seals the block under the rules of
// the algorithm for its position. The proof must always equal the hash of
// the block content. Proof of work also requires difficulty leading zeros
// and proof of stake requires a stakeholder.
func IsValidProof(block database.Block, proof string, difficulty uint16) bool {
	if block.Index == 0 {
		return false
	}

	if proof != block.ComputeHash() {
		return false
	}

	switch AlgorithmFor(block.Index - 1) {
	case AlgorithmPOW:
		return IsHashSolved(difficulty, proof)
	default:
		return block.Stakeholder != ""
	}
}

// IsHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of 0's.
func IsHashSolved(difficulty uint16, hash string) bool {
	if len(hash) != hashLength || int(difficulty) > hashLength {
		return false
	}

	return strings.HasPrefix(hash, strings.Repeat("0", int(difficulty)))
}
