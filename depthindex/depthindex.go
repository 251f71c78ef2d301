// Package depthindex maintains each known block's depth from genesis,
// following the depth/height bookkeeping blockdag/dag.go keeps alongside
// each blockNode, collapsed here to a bare hash->depth map since chaincore
// has no blockNode graph of its own.
package depthindex

import (
	"github.com/pkg/errors"

	"github.com/daglabs/chaincore/chainblock"
	"github.com/daglabs/chaincore/chainerrors"
)

// Index maps a block hash to its depth from the NULL root (depth 1 for a
// genesis block, i.e. one whose PrevBlockHash is chainblock.NullBlockHash).
type Index struct {
	depths map[string]int
}

// New returns an empty Index.
func New() *Index {
	return &Index{depths: make(map[string]int)}
}

// Add records b's depth, computed from its predecessor's recorded depth.
// Returns ErrUnknownPredecessor if b's non-null predecessor has no
// recorded depth; the validator must admit a block's predecessor before
// the block itself, so this signals a programming error, not a normal
// validation outcome.
func (idx *Index) Add(b chainblock.Block) error {
	if b.PrevBlockHash == chainblock.NullBlockHash {
		idx.depths[b.BlockHash] = 1
		return nil
	}
	prevDepth, ok := idx.depths[b.PrevBlockHash]
	if !ok {
		return errors.Wrapf(chainerrors.ErrUnknownPredecessor, "block %s, predecessor %s", b.BlockHash, b.PrevBlockHash)
	}
	idx.depths[b.BlockHash] = prevDepth + 1
	return nil
}

// Remove deletes hash from the index. Returns ErrRemoveNonExistent if
// absent.
func (idx *Index) Remove(hash string) error {
	if _, ok := idx.depths[hash]; !ok {
		return errors.Wrapf(chainerrors.ErrRemoveNonExistent, "depth entry %s", hash)
	}
	delete(idx.depths, hash)
	return nil
}

// Depth returns the recorded depth for hash and whether it was found.
func (idx *Index) Depth(hash string) (int, bool) {
	d, ok := idx.depths[hash]
	return d, ok
}

// Contains reports whether hash has a recorded depth.
func (idx *Index) Contains(hash string) bool {
	_, ok := idx.depths[hash]
	return ok
}
