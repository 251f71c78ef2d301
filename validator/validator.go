// Package validator implements BlockValidator: structural and semantic
// validation of an incoming block before ForkManager admits it, following
// the staged-check shape of
// domain/consensus/processes/blockvalidator/proof_of_work.go (a sequence
// of named checks, each short-circuiting on the first failure, each
// producing a sentinel error from chainerrors wrapped with context).
package validator

import (
	"github.com/pkg/errors"

	"github.com/daglabs/chaincore/chainblock"
	"github.com/daglabs/chaincore/chainerrors"
	"github.com/daglabs/chaincore/depthindex"
	"github.com/daglabs/chaincore/useridx"
)

// Validator checks incoming blocks against the depth index (for
// predecessor presence) and the per-user index (for trans_no continuity).
type Validator struct {
	depths *depthindex.Index
	users  *useridx.Index
}

// New returns a Validator reading from the given indices. The indices are
// owned by ForkManager; Validator never mutates them.
func New(depths *depthindex.Index, users *useridx.Index) *Validator {
	return &Validator{depths: depths, users: users}
}

// ValidateIncoming runs the structural and semantic check sequence for a
// candidate block, short-circuiting on the first failure. blockKnown
// reports whether block_hash is already present in the block store (this
// is checked independent of the depth index, since a block can be
// depth-indexed as someone's predecessor before it is itself admitted).
func (v *Validator) ValidateIncoming(b chainblock.Block, blockKnown func(hash string) bool) error {
	if b.PrevBlockHash != chainblock.NullBlockHash && !v.depths.Contains(b.PrevBlockHash) {
		return errors.Wrapf(chainerrors.ErrMissingPredecessor, "block %s: predecessor %s unknown", b.BlockHash, b.PrevBlockHash)
	}

	if blockKnown(b.BlockHash) {
		return errors.Wrapf(chainerrors.ErrDuplicateBlock, "block %s", b.BlockHash)
	}

	order, groups := chainblock.GroupByUser(b.Transactions)
	for _, userID := range order {
		txs := groups[userID]
		for i := 1; i < len(txs); i++ {
			if txs[i].TransNo != txs[i-1].TransNo+1 {
				return errors.Wrapf(chainerrors.ErrUnorderedTransactions,
					"block %s: user %s has non-contiguous trans_no %d after %d",
					b.BlockHash, userID, txs[i].TransNo, txs[i-1].TransNo)
			}
		}

		first := txs[0].TransNo
		expected := v.users.Latest(userID, b.PrevBlockHash) + 1
		if first != expected {
			return chainerrors.NewTransactionNumberMismatch(userID, b.BlockHash, first, expected-1)
		}
	}

	if err := chainblock.ValidateHashes(b); err != nil {
		return err
	}

	return nil
}
