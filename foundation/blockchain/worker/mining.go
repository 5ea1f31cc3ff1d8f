package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hqchain/hqchain/foundation/blockchain/accounts"
	"github.com/hqchain/hqchain/foundation/blockchain/consensus"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
	"github.com/hqchain/hqchain/foundation/blockchain/state"
)

// mineRequest is a request to mine the next block.
type mineRequest struct {
	ctx    context.Context
	result chan mineResult
}

// mineResult is the outcome of a mining request.
type mineResult struct {
	block database.Block
	err   error
}

// =============================================================================

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case req := <-w.mineRequests:
			if w.isShutdown() {
				req.result <- mineResult{err: ErrShutdown}
				continue
			}
			block, err := w.runMiningOperation(req.ctx)
			req.result <- mineResult{block: block, err: err}

		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation mines the next block from the transactions in the
// mempool. The search stops when the caller gives up, a cancel is signaled
// or the worker shuts down.
func (w *Worker) runMiningOperation(reqCtx context.Context) (database.Block, error) {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	// Drain the cancel mining channel before starting.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: drained cancel channel")
	default:
	}

	// Create a context so mining can be cancelled.
	ctx, cancel := context.WithCancel(reqCtx)
	defer cancel()

	// Can't return from this function until these G's are complete.
	var wg sync.WaitGroup
	wg.Add(2)

	// This G exists to cancel the mining operation.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
		case <-w.shut:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: shutdown")
		case <-ctx.Done():
		}
	}()

	var block database.Block
	var err error

	// This G is performing the mining.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		t := time.Now()
		block, err = w.state.MineNewBlock(ctx)
		duration := time.Since(t)

		w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

		if err != nil {
			switch {
			case errors.Is(err, state.ErrNoTransactions):
				w.evHandler("worker: runMiningOperation: MINING: WARNING: no transactions in mempool")
			case errors.Is(err, state.ErrSupplyCap):
				w.evHandler("worker: runMiningOperation: MINING: WARNING: maximum supply reached")
			case errors.Is(err, consensus.ErrNoStakeholder):
				w.evHandler("worker: runMiningOperation: MINING: WARNING: no stakeholder available")
			case errors.Is(err, accounts.ErrBalanceOverflow):
				w.evHandler("worker: runMiningOperation: MINING: WARNING: block overflows a balance")
			case ctx.Err() != nil:
				w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
			default:
				w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
			}
			return
		}

		w.evHandler("worker: runMiningOperation: MINING: blk[%d]: hash[%s]", block.Index, block.Hash)
	}()

	// Wait for both G's to terminate.
	wg.Wait()

	return block, err
}
