// Package blockstore implements the block-hash-to-block map, preserving
// insertion order for stable serialization and timestamp-bound queries,
// following the iteration-order guarantees blockdag/dagio.go's block index
// relies on for deterministic dumps.
package blockstore

import (
	"github.com/pkg/errors"

	"github.com/daglabs/chaincore/chainblock"
	"github.com/daglabs/chaincore/chainerrors"
)

// Store is the block_hash -> Block map.
type Store struct {
	blocks map[string]chainblock.Block
	order  []string // insertion order
}

// New returns an empty Store.
func New() *Store {
	return &Store{blocks: make(map[string]chainblock.Block)}
}

// Add inserts a block, keyed by its BlockHash.
func (s *Store) Add(b chainblock.Block) {
	if _, exists := s.blocks[b.BlockHash]; exists {
		return
	}
	s.blocks[b.BlockHash] = b
	s.order = append(s.order, b.BlockHash)
}

// Remove deletes hash from the store. Returns ErrRemoveNonExistent if
// absent.
func (s *Store) Remove(hash string) error {
	if _, ok := s.blocks[hash]; !ok {
		return errors.Wrapf(chainerrors.ErrRemoveNonExistent, "block %s", hash)
	}
	delete(s.blocks, hash)
	for i, h := range s.order {
		if h == hash {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Contains reports whether hash is known to the store.
func (s *Store) Contains(hash string) bool {
	_, ok := s.blocks[hash]
	return ok
}

// Get returns the block for hash and whether it was found.
func (s *Store) Get(hash string) (chainblock.Block, bool) {
	b, ok := s.blocks[hash]
	return b, ok
}

// BlocksAfter returns, in insertion order, every block strictly newer than
// timestamp. A nil bound returns every block.
//
// Timestamps are the microsecond-precision decimal strings Header.Timestamp
// carries; comparisons are lexical on equal-length numeric strings, which
// holds since all timestamps in one store are sampled from the same
// monotonically increasing clock within the life of a process.
func (s *Store) BlocksAfter(after *string) []chainblock.Block {
	var out []chainblock.Block
	for _, h := range s.order {
		b := s.blocks[h]
		if after == nil || b.Timestamp > *after {
			out = append(out, b)
		}
	}
	return out
}

// Len returns the number of blocks currently stored.
func (s *Store) Len() int { return len(s.order) }

// All returns every block in insertion order, for serialization.
func (s *Store) All() []chainblock.Block {
	out := make([]chainblock.Block, 0, len(s.order))
	for _, h := range s.order {
		out = append(out, s.blocks[h])
	}
	return out
}
