package state

import (
	"github.com/hqchain/hqchain/foundation/blockchain/database"
)

// SubmitTransaction accepts a transaction from a wallet for inclusion. The
// transaction is appended to the mempool only if its signature verifies.
func (s *State) SubmitTransaction(signedTx database.SignedTx) error {
	if err := signedTx.Validate(); err != nil {
		s.evHandler("state: SubmitTransaction: REJECTED: tx[%s]: %s", signedTx, err)
		return err
	}

	n := s.mempool.Add(signedTx)

	s.evHandler("state: SubmitTransaction: tx[%s]: mempool[%d]", signedTx, n)

	return nil
}

// AddStake accumulates the amount into the stake of the stakeholder.
func (s *State) AddStake(stakeholder database.AccountID, amount uint64) error {
	if err := s.stakes.Add(stakeholder, amount); err != nil {
		return err
	}

	s.evHandler("state: AddStake: stakeholder[%s]: amount[%d]: total[%d]", stakeholder, amount, s.stakes.Total())

	return nil
}
