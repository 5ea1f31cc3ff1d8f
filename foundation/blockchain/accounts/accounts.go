// Package accounts maintains account balances.
package accounts

import (
	"math"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
)

// ErrBalanceOverflow is returned when applying a block would push a balance
// outside the int64 range.
var ErrBalanceOverflow = errors.New("balance overflow")

// Info represents information stored for an individual account. Balances
// are signed since transfers are applied without a funds check.
type Info struct {
	AccountID database.AccountID `json:"account"`
	Balance   int64              `json:"balance"`
}

// Accounts manages data related to accounts who have transacted on
// the blockchain.
type Accounts struct {
	info map[database.AccountID]Info
	mu   sync.RWMutex
}

// New constructs an empty set of accounts.
func New() *Accounts {
	return &Accounts{
		info: make(map[database.AccountID]Info),
	}
}

// Reset re-initalizes the accounts back to empty.
func (act *Accounts) Reset() {
	act.mu.Lock()
	defer act.mu.Unlock()

	act.info = make(map[database.AccountID]Info)
}

// Replace updates the accounts based on the specified accounts.
func (act *Accounts) Replace(accounts *Accounts) {
	cpy := accounts.Copy()

	act.mu.Lock()
	defer act.mu.Unlock()

	act.info = cpy
}

// Clone makes a copy of the current accounts.
func (act *Accounts) Clone() *Accounts {
	return &Accounts{
		info: act.Copy(),
	}
}

// Copy makes a copy of the current information for all accounts.
func (act *Accounts) Copy() map[database.AccountID]Info {
	act.mu.RLock()
	defer act.mu.RUnlock()

	accounts := make(map[database.AccountID]Info, len(act.info))
	for accountID, info := range act.info {
		accounts[accountID] = info
	}
	return accounts
}

// List returns the accounts sorted by account id.
func (act *Accounts) List() []Info {
	act.mu.RLock()
	defer act.mu.RUnlock()

	list := make([]Info, 0, len(act.info))
	for _, info := range act.info {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].AccountID < list[j].AccountID
	})

	return list
}

// Query returns the information for the specified account.
func (act *Accounts) Query(accountID database.AccountID) (Info, bool) {
	act.mu.RLock()
	defer act.mu.RUnlock()

	info, exists := act.info[accountID]
	return info, exists
}

// ApplyBlock moves the amount of every transaction from the sender to the
// receiver and then credits the reward to the block beneficiary. Missing
// accounts start at zero and balances are allowed to go negative. When any
// balance would overflow, nothing is applied and ErrBalanceOverflow is
// returned.
func (act *Accounts) ApplyBlock(block database.Block, reward uint64) error {
	if reward > math.MaxInt64 {
		return errors.Wrapf(ErrBalanceOverflow, "reward %d", reward)
	}

	act.mu.Lock()
	defer act.mu.Unlock()

	staged := make(map[database.AccountID]int64)
	balance := func(accountID database.AccountID) int64 {
		if bal, exists := staged[accountID]; exists {
			return bal
		}
		return act.info[accountID].Balance
	}

	credit := func(accountID database.AccountID, delta int64) error {
		bal, ok := add(balance(accountID), delta)
		if !ok {
			return errors.Wrapf(ErrBalanceOverflow, "account %s: balance %d: delta %d", accountID, balance(accountID), delta)
		}
		staged[accountID] = bal
		return nil
	}

	for _, tx := range block.Transactions {
		if tx.Amount > math.MaxInt64 {
			return errors.Wrapf(ErrBalanceOverflow, "tx[%s]: amount %d", tx, tx.Amount)
		}

		if err := credit(tx.Sender, -int64(tx.Amount)); err != nil {
			return err
		}
		if err := credit(tx.Receiver, int64(tx.Amount)); err != nil {
			return err
		}
	}

	if err := credit(block.BeneficiaryID, int64(reward)); err != nil {
		return err
	}

	for accountID, bal := range staged {
		act.info[accountID] = Info{AccountID: accountID, Balance: bal}
	}

	return nil
}

// add returns the sum and false when the sum overflows an int64.
func add(balance int64, delta int64) (int64, bool) {
	switch {
	case delta > 0 && balance > math.MaxInt64-delta:
		return 0, false
	case delta < 0 && balance < math.MinInt64-delta:
		return 0, false
	}

	return balance + delta, true
}
