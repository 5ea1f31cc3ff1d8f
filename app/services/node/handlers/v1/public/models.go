package public

import (
	"github.com/hqchain/hqchain/business/sys/validate"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
)

// newTx is what a wallet submits to be added to the mempool. Amount is a
// pointer so a zero amount still counts as present.
type newTx struct {
	Sender          database.AccountID `json:"sender" validate:"required"`
	Receiver        database.AccountID `json:"receiver" validate:"required"`
	Amount          *uint64            `json:"amount" validate:"required"`
	SenderPublicKey string             `json:"sender_public_key" validate:"required"`
	Signature       string             `json:"signature" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (ntx newTx) Validate() error {
	return validate.Check(ntx)
}

func (ntx newTx) toSignedTx() database.SignedTx {
	return database.SignedTx{
		Tx:              database.NewTx(ntx.Sender, ntx.Receiver, *ntx.Amount),
		SenderPublicKey: ntx.SenderPublicKey,
		Signature:       ntx.Signature,
	}
}

// newStake is what a client submits to stake coins.
type newStake struct {
	Stakeholder database.AccountID `json:"stakeholder" validate:"required"`
	Amount      *uint64            `json:"amount" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (ns newStake) Validate() error {
	return validate.Check(ns)
}

// =============================================================================

type status struct {
	Status string `json:"status"`
}

type mined struct {
	Index  uint64 `json:"index"`
	Hash   string `json:"hash"`
	Status string `json:"status"`
}

type tx struct {
	Sender          database.AccountID `json:"sender"`
	SenderName      string             `json:"sender_name"`
	Receiver        database.AccountID `json:"receiver"`
	ReceiverName    string             `json:"receiver_name"`
	Amount          uint64             `json:"amount"`
	SenderPublicKey string             `json:"sender_public_key"`
	Signature       string             `json:"signature"`
}

type info struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
	Balance int64              `json:"balance"`
}

type actInfo struct {
	LatestBlock string `json:"latest_block"`
	Uncommitted int    `json:"uncommitted"`
	TotalSupply uint64 `json:"total_supply"`
	Accounts    []info `json:"accounts"`
}

type stakeInfo struct {
	Stakeholder database.AccountID `json:"stakeholder"`
	Name        string             `json:"name"`
	Amount      uint64             `json:"amount"`
}
