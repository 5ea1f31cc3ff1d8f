// Package stake maintains the stake registry used to elect the stakeholder
// that seals a proof of stake block.
package stake

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
)

// Stake represents the amount staked by a stakeholder.
type Stake struct {
	Stakeholder database.AccountID `json:"stakeholder"`
	Amount      uint64             `json:"amount"`
}

// Registry maintains the stakes in the order stakeholders first appeared.
type Registry struct {
	mu     sync.Mutex
	order  []database.AccountID
	stakes map[database.AccountID]uint64
	total  uint64
	rnd    *rand.Rand
}

// New constructs a registry drawing from a randomly seeded source.
func New() *Registry {
	return NewWithSource(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewWithSource constructs a registry drawing from the specified source.
func NewWithSource(src rand.Source) *Registry {
	return &Registry{
		stakes: make(map[database.AccountID]uint64),
		rnd:    rand.New(src),
	}
}

// Add accumulates the amount into the stakeholder's stake, registering the
// stakeholder on first use.
func (r *Registry) Add(stakeholder database.AccountID, amount uint64) error {
	if stakeholder == "" {
		return errors.New("stakeholder is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if amount > math.MaxUint64-r.total {
		return errors.Newf("stake of %d would overflow the total stake %d", amount, r.total)
	}

	current, exists := r.stakes[stakeholder]
	if !exists {
		r.order = append(r.order, stakeholder)
	}

	r.stakes[stakeholder] = current + amount
	r.total += amount

	return nil
}

// Select draws a stakeholder with a probability proportional to its share
// of the total stake. A uniform value in [0, total) is drawn and the first
// stakeholder, in registration order, whose running sum exceeds it wins.
// It reports false when nothing is staked.
func (r *Registry) Select() (database.AccountID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.total == 0 {
		return "", false
	}

	draw := r.rnd.Uint64N(r.total)

	var sum uint64
	for _, stakeholder := range r.order {
		sum += r.stakes[stakeholder]
		if sum > draw {
			return stakeholder, true
		}
	}

	return "", false
}

// Query returns the amount staked by the stakeholder.
func (r *Registry) Query(stakeholder database.AccountID) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stakes[stakeholder]
}

// Total returns the sum of all stakes.
func (r *Registry) Total() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.total
}

// Copy returns the stakes in registration order.
func (r *Registry) Copy() []Stake {
	r.mu.Lock()
	defer r.mu.Unlock()

	stakes := make([]Stake, len(r.order))
	for i, stakeholder := range r.order {
		stakes[i] = Stake{
			Stakeholder: stakeholder,
			Amount:      r.stakes[stakeholder],
		}
	}

	return stakes
}
