// Package chainblock defines the block header and block types, block hash
// derivation, and mining/validation of the proof-of-work that binds a
// block's header fields together. The staged hash derivation here follows
// the same shape as mining.go's block assembly paired with
// blockvalidator's structural checks, collapsed into one package since
// chaincore has no separate consensus-state layer to hand blocks off to.
package chainblock

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/daglabs/chaincore/chainerrors"
	"github.com/daglabs/chaincore/chaintx"
	"github.com/daglabs/chaincore/puzzle"
)

// NullBlockHash is the sentinel predecessor hash denoting "no predecessor"
// (the genesis position).
const NullBlockHash = "NULL-BLOCK-HASH"

// Header holds a block's derived hash and the inputs used to derive it.
// BlockHash is derived; the rest are inputs. Immutable after construction.
type Header struct {
	BlockHash        string
	TransactionsHash string
	PrevBlockHash    string
	Timestamp        string
	Difficulty       int
	Nonce            string
}

// Block is a header plus its ordered transaction list.
type Block struct {
	Header
	Transactions []chaintx.Transaction
}

// puzzleInput concatenates the header fields that feed the proof-of-work.
func puzzleInput(transactionsHash, prevHash, timestamp string, difficulty int) string {
	return transactionsHash + prevHash + timestamp + strconv.Itoa(difficulty)
}

// nowTimestamp samples a microsecond-precision timestamp string. Kept as a
// seam (rather than calling time.Now directly inline) so tests can fake it.
var nowTimestamp = func() string {
	return strconv.FormatInt(time.Now().UnixMicro(), 10)
}

// CreateBlock mines a new block: sort txs, hash them, sample a timestamp,
// solve the proof-of-work, and derive the block hash. Mining is delegated
// to puzzle.Solve, which honors ctx cancellation.
func CreateBlock(ctx context.Context, txs []chaintx.Transaction, prevHash string, difficulty int) (Block, error) {
	sorted := make([]chaintx.Transaction, len(txs))
	copy(sorted, txs)
	chaintx.SortByUserThenNo(sorted)

	transactionsHash := chaintx.CompactHash(sorted)
	timestamp := nowTimestamp()
	input := puzzleInput(transactionsHash, prevHash, timestamp, difficulty)

	nonce, err := puzzle.Solve(ctx, input, difficulty)
	if err != nil {
		return Block{}, err
	}

	blockHash := puzzle.Hash(input + nonce)

	return Block{
		Header: Header{
			BlockHash:        blockHash,
			TransactionsHash: transactionsHash,
			PrevBlockHash:    prevHash,
			Timestamp:        timestamp,
			Difficulty:       difficulty,
			Nonce:            nonce,
		},
		Transactions: sorted,
	}, nil
}

// ValidateHashes recomputes a block's transactions_hash and block_hash and
// checks its proof-of-work.
func ValidateHashes(b Block) error {
	wantTransactionsHash := chaintx.CompactHash(b.Transactions)
	if wantTransactionsHash != b.TransactionsHash {
		return errors.Wrapf(chainerrors.ErrInvalidBlockHash,
			"transactions_hash mismatch: header claims %s, recomputed %s",
			b.TransactionsHash, wantTransactionsHash)
	}

	input := puzzleInput(b.TransactionsHash, b.PrevBlockHash, b.Timestamp, b.Difficulty)
	wantBlockHash := puzzle.Hash(input + b.Nonce)
	if wantBlockHash != b.BlockHash {
		return errors.Wrapf(chainerrors.ErrInvalidBlockHash,
			"block_hash mismatch: header claims %s, recomputed %s",
			b.BlockHash, wantBlockHash)
	}

	if !puzzle.Verify(input, b.Nonce, b.Difficulty) {
		return errors.Wrapf(chainerrors.ErrInvalidProofOfWork,
			"nonce %s does not solve difficulty %d", b.Nonce, b.Difficulty)
	}

	return nil
}

// GroupByUser splits a block's (already sorted) transactions into
// contiguous per-user runs, preserving first-seen user order. Used by
// BlockValidator to check gap-free trans_no sequencing per user.
func GroupByUser(txs []chaintx.Transaction) (order []string, groups map[string][]chaintx.Transaction) {
	groups = make(map[string][]chaintx.Transaction)
	for _, t := range txs {
		if _, ok := groups[t.UserID]; !ok {
			order = append(order, t.UserID)
		}
		groups[t.UserID] = append(groups[t.UserID], t)
	}
	return order, groups
}

// String renders a block hash for log lines and error messages.
func (b Block) String() string {
	return fmt.Sprintf("Block{%s, prev=%s, %d txs}", b.BlockHash, b.PrevBlockHash, len(b.Transactions))
}
