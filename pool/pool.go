// Package pool implements the FreeTransactionPool: the holding area for
// unconfirmed transactions that backs block creation. Its per-user
// bookkeeping (an ordered set of pending txs, a pending-number set, and a
// floor watermark) follows the shape of domain/mempool's per-owner
// descriptor maps, adapted from "transactions keyed by txid" to "per-user
// gap-free sequences".
package pool

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/daglabs/chaincore/chainerrors"
	"github.com/daglabs/chaincore/chaintx"
)

// userPool is a single user's bookkeeping: pending transactions, the set
// of pending trans_nos, and the commit floor.
type userPool struct {
	pendingTxs     []chaintx.Transaction // sorted by TransNo
	pendingNos     map[int]struct{}
	maxCommittedNo int // default -1
}

func newUserPool() *userPool {
	return &userPool{pendingNos: make(map[int]struct{}), maxCommittedNo: -1}
}

// Pool is the FreeTransactionPool.
type Pool struct {
	users       map[string]*userPool
	userOrder   []string // insertion order of users, for stable valid_prefixes output
	size        int
}

// New returns an empty Pool.
func New() *Pool {
	return &Pool{users: make(map[string]*userPool)}
}

func (p *Pool) userFor(userID string) *userPool {
	u, ok := p.users[userID]
	if !ok {
		u = newUserPool()
		p.users[userID] = u
		p.userOrder = append(p.userOrder, userID)
	}
	return u
}

// Add inserts tx into the pool, maintaining per-user sort order. It fails
// with ErrAlreadyAdded if tx.TransNo is already committed or already
// pending for that user.
func (p *Pool) Add(tx chaintx.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	u := p.userFor(tx.UserID)

	if tx.TransNo <= u.maxCommittedNo {
		return errors.Wrapf(chainerrors.ErrAlreadyAdded, "%s:%d already committed (floor %d)", tx.UserID, tx.TransNo, u.maxCommittedNo)
	}
	if _, dup := u.pendingNos[tx.TransNo]; dup {
		return errors.Wrapf(chainerrors.ErrAlreadyAdded, "%s:%d already pending", tx.UserID, tx.TransNo)
	}

	u.pendingNos[tx.TransNo] = struct{}{}
	idx := sort.Search(len(u.pendingTxs), func(i int) bool { return u.pendingTxs[i].TransNo >= tx.TransNo })
	u.pendingTxs = append(u.pendingTxs, chaintx.Transaction{})
	copy(u.pendingTxs[idx+1:], u.pendingTxs[idx:])
	u.pendingTxs[idx] = tx
	p.size++
	return nil
}

// Size returns the total number of pending transactions across all users.
func (p *Pool) Size() int { return p.size }

// LatestTransNoFunc resolves a user's last-committed trans_no on some
// target fork, -1 if the user is unknown there. ForkManager's
// LatestTransNoOnLongest satisfies this.
type LatestTransNoFunc func(userID string) int

// ValidPrefixes returns the longest contiguous run of pending txs for
// each user that immediately continues that user's
// sequence on the target fork. User order in the result follows each
// user's first-insertion order into the pool.
func (p *Pool) ValidPrefixes(latest LatestTransNoFunc) []chaintx.Transaction {
	var result []chaintx.Transaction
	for _, userID := range p.userOrder {
		u := p.users[userID]
		if len(u.pendingTxs) == 0 {
			continue
		}
		last := latest(userID)
		want := last + 1

		start := -1
		for i, tx := range u.pendingTxs {
			if tx.TransNo == want {
				start = i
				break
			}
		}
		if start == -1 {
			continue
		}

		run := []chaintx.Transaction{u.pendingTxs[start]}
		for i := start + 1; i < len(u.pendingTxs); i++ {
			if u.pendingTxs[i].TransNo != u.pendingTxs[i-1].TransNo+1 {
				break
			}
			run = append(run, u.pendingTxs[i])
		}
		result = append(result, run...)
	}
	return result
}

// Commit removes sortedTxs from the pool: for each user touched, the
// floor rises to the minimum trans_no seen in the batch for that user, and
// any remaining
// pending tx at or below that floor is dropped. It returns the subset of
// sortedTxs that could not be found in the pool (expected to be empty
// under correct callers; a non-empty result signals a consistency bug and
// should be logged, not treated as fatal).
func (p *Pool) Commit(sortedTxs []chaintx.Transaction) []chaintx.Transaction {
	var failures []chaintx.Transaction
	firstSeen := make(map[string]int)

	for _, tx := range sortedTxs {
		u, ok := p.users[tx.UserID]
		removed := false
		if ok {
			if _, pending := u.pendingNos[tx.TransNo]; pending {
				delete(u.pendingNos, tx.TransNo)
				for i, pt := range u.pendingTxs {
					if pt.TransNo == tx.TransNo {
						u.pendingTxs = append(u.pendingTxs[:i], u.pendingTxs[i+1:]...)
						break
					}
				}
				p.size--
				removed = true
			}
		}
		if !removed {
			failures = append(failures, tx)
		}

		if first, seen := firstSeen[tx.UserID]; !seen || tx.TransNo < first {
			firstSeen[tx.UserID] = tx.TransNo
		}
	}

	for userID, first := range firstSeen {
		u := p.userFor(userID)
		if first > u.maxCommittedNo {
			u.maxCommittedNo = first
		}
		p.dropAtOrBelow(u, u.maxCommittedNo)
	}

	return failures
}

func (p *Pool) dropAtOrBelow(u *userPool, floor int) {
	kept := u.pendingTxs[:0]
	for _, tx := range u.pendingTxs {
		if tx.TransNo <= floor {
			delete(u.pendingNos, tx.TransNo)
			p.size--
			continue
		}
		kept = append(kept, tx)
	}
	u.pendingTxs = kept
}

// AbsorbConfirmed raises max_committed_no for each user touched by an
// externally-confirmed block, without removing anything from the pool
// (removal happens via the subsequent Commit call).
func (p *Pool) AbsorbConfirmed(txs []chaintx.Transaction) {
	for _, tx := range txs {
		u := p.userFor(tx.UserID)
		if tx.TransNo > u.maxCommittedNo {
			u.maxCommittedNo = tx.TransNo
		}
	}
}

// PendingSnapshot returns a copy of every pending transaction, in
// per-user-insertion-order then trans_no order, for serialization (the
// GET_UNADDED_TRANS local-interface response).
func (p *Pool) PendingSnapshot() []chaintx.Transaction {
	var out []chaintx.Transaction
	for _, userID := range p.userOrder {
		out = append(out, p.users[userID].pendingTxs...)
	}
	return out
}

// MaxCommittedNo returns the commit floor recorded for userID, -1 if the
// user has never had a transaction committed.
func (p *Pool) MaxCommittedNo(userID string) int {
	u, ok := p.users[userID]
	if !ok {
		return -1
	}
	return u.maxCommittedNo
}
