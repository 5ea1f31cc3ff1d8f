// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/hqchain/hqchain/business/web/errs"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
	"github.com/hqchain/hqchain/foundation/blockchain/peer"
	"github.com/hqchain/hqchain/foundation/blockchain/state"
	"github.com/hqchain/hqchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// RegisterPeer records the node posting its address and returns the chain
// and the peers this node knows about.
func (h Handlers) RegisterPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var na nodeAddress
	if err := web.Decode(r, &na); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("register peer", "traceid", v.TraceID, "peer", na.NodeAddress)

	reg, err := h.State.RegisterPeer(peer.New(na.NodeAddress))
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, reg, http.StatusOK)
}

// Peers returns the known peers.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	peers := h.State.RetrieveKnownPeers()

	hosts := make([]string, len(peers))
	for i, pr := range peers {
		hosts[i] = pr.Host
	}

	return web.Respond(ctx, w, hosts, http.StatusOK)
}

// Sync registers this node with the node specified and replaces the local
// chain with the chain it returns once validated.
func (h Handlers) Sync(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var na nodeAddress
	if err := web.Decode(r, &na); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	listing, err := h.State.NetRegisterWithPeer(ctx, na.NodeAddress)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotAcceptable)
	}

	resp := synced{
		Length:      listing.Length,
		TotalSupply: listing.TotalSupply,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveStatus(), http.StatusOK)
}

// BlocksByNumber returns all the blocks based on the specified to/from values.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := h.State.RetrieveLatestBlock().Index

	parse := func(name string) (uint64, error) {
		str := web.Param(r, name)
		if str == "latest" || str == "" {
			return latest, nil
		}
		return strconv.ParseUint(str, 10, 64)
	}

	from, err := parse("from")
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	to, err := parse("to")
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if from > to {
		return errs.NewTrusted(errors.New("from greater than to"), http.StatusBadRequest)
	}
	if to > latest {
		to = latest
	}

	var blockData []database.BlockData
	for i := from; i <= to; i++ {
		block, err := h.State.QueryBlock(i)
		if err != nil {
			if errors.Is(err, state.ErrNotFound) {
				break
			}
			return err
		}
		blockData = append(blockData, database.NewBlockData(block))
	}

	if len(blockData) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blockData, http.StatusOK)
}
