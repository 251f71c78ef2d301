// Package engine implements ChainEngine: the top-level orchestrator
// binding the pool, block store, and fork manager together, following the
// shape of domain/consensus/processes/blockprocessor's single entry point
// coordinating validation, state update, and pruning for one incoming
// block.
package engine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/daglabs/chaincore/chainblock"
	"github.com/daglabs/chaincore/chainerrors"
	"github.com/daglabs/chaincore/chainlog"
	"github.com/daglabs/chaincore/chaintx"
	"github.com/daglabs/chaincore/blockstore"
	"github.com/daglabs/chaincore/forkmgr"
	"github.com/daglabs/chaincore/pool"
)

// Config holds the engine's mining parameters.
type Config struct {
	// TransPerBlock is the number of transactions mined into each block.
	TransPerBlock int
	// Difficulty is the proof-of-work difficulty applied to every mined
	// block. chaincore has no dynamic difficulty adjustment (non-goal).
	Difficulty int
}

// DefaultConfig matches the node's documented boundary constants:
// difficulty 2 and ten transactions per block.
var DefaultConfig = Config{TransPerBlock: 10, Difficulty: 2}

// Engine is the ChainEngine.
type Engine struct {
	cfg   Config
	pool  *pool.Pool
	store *blockstore.Store
	forks *forkmgr.Manager
	log   *chainlog.Logger
}

// New constructs an Engine with the given config and logger.
func New(cfg Config, log *chainlog.Logger) *Engine {
	return &Engine{
		cfg:   cfg,
		pool:  pool.New(),
		store: blockstore.New(),
		forks: forkmgr.New(log),
		log:   log,
	}
}

func (e *Engine) prevHashOf(hash string) (string, bool) {
	b, ok := e.store.Get(hash)
	if !ok {
		return "", false
	}
	return b.PrevBlockHash, true
}

// SubmitTransaction adds tx to the pool; if enough valid transactions have
// accumulated for the longest fork, it mines and appends one or more
// blocks, returning them.
func (e *Engine) SubmitTransaction(tx chaintx.Transaction) ([]chainblock.Block, error) {
	return e.SubmitTransactionContext(context.Background(), tx)
}

// SubmitTransactionContext is SubmitTransaction with an explicit context,
// threaded through to mining so a caller can bound or cancel a
// long-running solve.
func (e *Engine) SubmitTransactionContext(ctx context.Context, tx chaintx.Transaction) ([]chainblock.Block, error) {
	if err := e.pool.Add(tx); err != nil {
		return nil, err
	}

	if e.pool.Size() < e.cfg.TransPerBlock {
		return nil, nil
	}

	valid := e.pool.ValidPrefixes(e.forks.LatestTransNoOnLongest)
	if len(valid) < e.cfg.TransPerBlock {
		return nil, nil
	}

	return e.mineAndAppend(ctx, valid)
}

// mineAndAppend repeatedly mines trans_per_block-sized blocks atop the
// longest fork's head (or genesis) until fewer than trans_per_block valid
// txs remain, hands the whole batch to ForkManager, commits the consumed
// txs, and cleans up.
func (e *Engine) mineAndAppend(ctx context.Context, valid []chaintx.Transaction) ([]chainblock.Block, error) {
	prev := chainblock.NullBlockHash
	if f, ok := e.forks.LongestFork(); ok {
		prev = f.HeadBlockHash
	}

	var mined []chainblock.Block
	var consumed []chaintx.Transaction

	for len(valid) >= e.cfg.TransPerBlock {
		batch := valid[:e.cfg.TransPerBlock]
		valid = valid[e.cfg.TransPerBlock:]

		b, err := chainblock.CreateBlock(ctx, batch, prev, e.cfg.Difficulty)
		if err != nil {
			return mined, err
		}

		mined = append(mined, b)
		consumed = append(consumed, batch...)
		prev = b.BlockHash
	}

	if len(mined) == 0 {
		return nil, nil
	}

	statuses := e.forks.AddBlocks(mined, e.store.Contains, e.store.Add)
	for _, s := range statuses {
		if !s.OK {
			e.log.Criticalf("self-mined block %s rejected by fork manager: %s", s.BlockHash, s.Err)
		}
	}

	failures := e.pool.Commit(consumed)
	if len(failures) > 0 {
		e.log.Errorf("commit left %d transactions unremoved from the pool", len(failures))
	}

	e.cleanup()

	return mined, nil
}

// SubmitExternalBlock admits a remotely-mined block, bypassing mining and
// flowing it directly into the fork manager.
func (e *Engine) SubmitExternalBlock(b chainblock.Block) error {
	if e.store.Contains(b.BlockHash) {
		return errors.Wrapf(chainerrors.ErrDuplicateBlock, "block %s", b.BlockHash)
	}

	statuses := e.forks.AddBlocks([]chainblock.Block{b}, e.store.Contains, e.store.Add)
	status := statuses[0]
	if !status.OK {
		return errors.New(status.Err)
	}

	e.pool.AbsorbConfirmed(b.Transactions)
	e.pool.Commit(b.Transactions) // tolerate "not present": node may never have seen these txs

	e.cleanup()

	return nil
}

// cleanup prunes abandoned branches and pushes their transactions back
// into the pool.
func (e *Engine) cleanup() {
	released := e.forks.Cleanup(e.prevHashOf)
	for _, hash := range released {
		b, ok := e.store.Get(hash)
		if !ok {
			continue
		}
		for _, tx := range b.Transactions {
			if err := e.pool.Add(tx); err != nil {
				if errors.Is(err, chainerrors.ErrAlreadyAdded) {
					continue // expected: still committed on the surviving longest fork
				}
				e.log.Errorf("re-adding pruned tx %s:%d: %s", tx.UserID, tx.TransNo, err)
			}
		}
		if err := e.store.Remove(hash); err != nil {
			e.log.Errorf("removing pruned block %s: %s", hash, err)
		}
	}
}

// Bootstrap returns every block and every pending transaction the engine
// currently holds, for the BLOCKS_AND_TRANS onboarding reply.
func (e *Engine) Bootstrap() ([]chainblock.Block, []chaintx.Transaction) {
	return e.store.All(), e.pool.PendingSnapshot()
}

// PendingTransactions returns a snapshot of the pool's contents, for the
// GET_UNADDED_TRANS local-interface response.
func (e *Engine) PendingTransactions() []chaintx.Transaction {
	return e.pool.PendingSnapshot()
}

// Store exposes the block store for read-only snapshotting.
func (e *Engine) Store() *blockstore.Store { return e.store }

// Forks exposes the fork manager for read-only snapshotting.
func (e *Engine) Forks() *forkmgr.Manager { return e.forks }

// Config returns the engine's mining configuration.
func (e *Engine) Config() Config { return e.cfg }
