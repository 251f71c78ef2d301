// Package useridx implements LatestPerUserIndex: per-block maps of
// user -> last trans_no plus a prev_hash link, walked backward to answer
// "what is this user's last trans_no on this branch". This is the sole
// mechanism for per-user ordering checks against a fork. It plays the role
// domain/consensus/datastructures/blockrelationstore plays for parent-link
// bookkeeping, specialized to per-user last-seen numbers instead of parent
// hash sets.
package useridx

import (
	"github.com/pkg/errors"

	"github.com/daglabs/chaincore/chainblock"
	"github.com/daglabs/chaincore/chainerrors"
)

type entry struct {
	latest   map[string]int // user_id -> trans_no, restricted to this block's txs
	prevHash string
}

// Index is the per-block-hash registry of per-user last-trans-no maps.
type Index struct {
	entries map[string]entry
	// memo caches (blockHash, userID) -> trans_no once walked; an
	// optional optimization, not required for correctness.
	memo map[string]map[string]int
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		entries: make(map[string]entry),
		memo:    make(map[string]map[string]int),
	}
}

// Add registers block b: the map of user_id -> last trans_no appearing
// among b's own transactions, plus b's PrevBlockHash for the backward walk.
func (idx *Index) Add(b chainblock.Block) {
	latest := make(map[string]int)
	for _, tx := range b.Transactions {
		if tx.TransNo > latest[tx.UserID] || !hasUser(latest, tx.UserID) {
			latest[tx.UserID] = tx.TransNo
		}
	}
	idx.entries[b.BlockHash] = entry{latest: latest, prevHash: b.PrevBlockHash}
}

func hasUser(m map[string]int, userID string) bool {
	_, ok := m[userID]
	return ok
}

// Remove deletes hash's entry and any memo entries rooted there. Returns
// ErrRemoveNonExistent if hash was never added.
func (idx *Index) Remove(hash string) error {
	if _, ok := idx.entries[hash]; !ok {
		return errors.Wrapf(chainerrors.ErrRemoveNonExistent, "user-index entry %s", hash)
	}
	delete(idx.entries, hash)
	delete(idx.memo, hash)
	return nil
}

// Latest walks backward from startHash via prev_hash links, returning the
// first occurrence of userID's trans_no, or -1 if the walk reaches
// chainblock.NullBlockHash or an unknown hash (meaning the user never
// appeared on that branch).
func (idx *Index) Latest(userID, startHash string) int {
	if cached, ok := idx.memo[startHash]; ok {
		if v, ok := cached[userID]; ok {
			return v
		}
	}

	visited := make([]string, 0, 16)
	hash := startHash
	result := -1
	for hash != chainblock.NullBlockHash {
		e, ok := idx.entries[hash]
		if !ok {
			break
		}
		visited = append(visited, hash)
		if v, ok := e.latest[userID]; ok {
			result = v
			break
		}
		hash = e.prevHash
	}

	for _, h := range visited {
		if idx.memo[h] == nil {
			idx.memo[h] = make(map[string]int)
		}
		idx.memo[h][userID] = result
	}
	return result
}
