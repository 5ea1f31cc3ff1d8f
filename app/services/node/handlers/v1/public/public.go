// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hqchain/hqchain/business/sys/metrics"
	"github.com/hqchain/hqchain/business/web/errs"
	"github.com/hqchain/hqchain/foundation/blockchain/accounts"
	"github.com/hqchain/hqchain/foundation/blockchain/consensus"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
	"github.com/hqchain/hqchain/foundation/blockchain/state"
	"github.com/hqchain/hqchain/foundation/events"
	"github.com/hqchain/hqchain/foundation/nameservice"
	"github.com/hqchain/hqchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransaction adds a new wallet transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ntx newTx
	if err := web.Decode(r, &ntx); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	signedTx := ntx.toSignedTx()

	h.Log.Infow("submit tran", "traceid", v.TraceID, "sender", h.NS.Lookup(signedTx.Sender), "receiver", h.NS.Lookup(signedTx.Receiver), "amount", signedTx.Amount)
	if err := h.State.SubmitTransaction(signedTx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := status{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine seals the transactions in the mempool into a new block.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.State.Mine(ctx)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrNoTransactions),
			errors.Is(err, state.ErrSupplyCap),
			errors.Is(err, consensus.ErrNoStakeholder),
			errors.Is(err, accounts.ErrBalanceOverflow):
			return errs.NewTrusted(err, http.StatusNotAcceptable)

		case errors.Is(err, database.ErrChainLinkage):
			return errs.NewTrusted(err, http.StatusConflict)
		}

		return err
	}

	metrics.AddMined(ctx)

	resp := mined{
		Index:  block.Index,
		Hash:   block.Hash,
		Status: fmt.Sprintf("Block #%d is mined.", block.Index),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns the full chain along with the total supply.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	listing, err := h.State.RetrieveChain()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, listing, http.StatusOK)
}

// AddStake accumulates coins into the stake of a stakeholder.
func (h Handlers) AddStake(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var ns newStake
	if err := web.Decode(r, &ns); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := h.State.AddStake(ns.Stakeholder, *ns.Amount); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := status{
		Status: "stake added",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Stakes returns the stakes in registration order.
func (h Handlers) Stakes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	stakes := h.State.RetrieveStakes()

	list := make([]stakeInfo, len(stakes))
	for i, s := range stakes {
		list[i] = stakeInfo{
			Stakeholder: s.Stakeholder,
			Name:        h.NS.Lookup(s.Stakeholder),
			Amount:      s.Amount,
		}
	}

	return web.Respond(ctx, w, list, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Mempool returns the set of pending transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	mempool := h.State.RetrieveMempool()

	trans := make([]tx, len(mempool))
	for i, tran := range mempool {
		trans[i] = tx{
			Sender:          tran.Sender,
			SenderName:      h.NS.Lookup(tran.Sender),
			Receiver:        tran.Receiver,
			ReceiverName:    h.NS.Lookup(tran.Receiver),
			Amount:          tran.Amount,
			SenderPublicKey: tran.SenderPublicKey,
			Signature:       tran.Signature,
		}
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Balances returns the current balances for all accounts or the one
// account specified.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountStr := web.Param(r, "account")

	var blkAccounts []accounts.Info
	switch accountStr {
	case "":
		blkAccounts = h.State.RetrieveAccounts()

	default:
		info, err := h.State.QueryAccount(database.AccountID(accountStr))
		if err != nil {
			if errors.Is(err, state.ErrNotFound) {
				return errs.NewTrusted(err, http.StatusNotFound)
			}
			return err
		}
		blkAccounts = []accounts.Info{info}
	}

	acts := make([]info, len(blkAccounts))
	for i, blkInfo := range blkAccounts {
		acts[i] = info{
			Account: blkInfo.AccountID,
			Name:    h.NS.Lookup(blkInfo.AccountID),
			Balance: blkInfo.Balance,
		}
	}

	ai := actInfo{
		LatestBlock: h.State.RetrieveLatestBlock().Hash,
		Uncommitted: h.State.QueryMempoolLength(),
		TotalSupply: h.State.RetrieveTotalSupply(),
		Accounts:    acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}
