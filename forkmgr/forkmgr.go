// Package forkmgr implements ForkManager: the DAG of competing branch
// tips, longest-chain selection, and pruning of abandoned branches. This
// is the heart of the engine, grounded on blockdag/dag.go's chain-selection
// logic (the "does this block extend a known tip or start a new one"
// decision) and on domain/consensus/processes/pruningmanager's
// confirmation-depth pruning.
package forkmgr

import (
	"github.com/daglabs/chaincore/chainblock"
	"github.com/daglabs/chaincore/chainlog"
	"github.com/daglabs/chaincore/depthindex"
	"github.com/daglabs/chaincore/useridx"
	"github.com/daglabs/chaincore/validator"
)

// DefaultPruneThreshold is the Bitcoin-style confirmation depth gap
// beyond which a trailing fork is abandoned.
const DefaultPruneThreshold = 6

// Fork is one view of one tip of the block DAG.
type Fork struct {
	ForkID             int
	HeadBlockHash      string
	Timestamp          string
	NumBlocks          int
	ForkStartBlockHash string
}

// Status is the per-block outcome of ForkManager.AddBlocks.
type Status struct {
	BlockHash string
	OK        bool
	Err       string
}

// Manager is the ForkManager.
type Manager struct {
	forks         map[int]*Fork
	headIndex     map[string]*Fork // block_hash -> fork currently tipped there
	longestForkID int
	hasLongest    bool
	nextForkID    int
	pruneThreshold int

	depths *depthindex.Index
	users  *useridx.Index
	valid  *validator.Validator

	log *chainlog.Logger
}

// New returns an empty Manager backed by fresh depth and per-user indices.
func New(log *chainlog.Logger) *Manager {
	depths := depthindex.New()
	users := useridx.New()
	return &Manager{
		forks:          make(map[int]*Fork),
		headIndex:      make(map[string]*Fork),
		pruneThreshold: DefaultPruneThreshold,
		depths:         depths,
		users:          users,
		valid:          validator.New(depths, users),
		log:            log,
	}
}

// Depths exposes the depth index for callers (e.g. ChainEngine snapshotting
// or tests) that need read access beyond Manager's own API.
func (m *Manager) Depths() *depthindex.Index { return m.depths }

// Users exposes the per-user index for the same reason.
func (m *Manager) Users() *useridx.Index { return m.users }

// LongestFork returns the current longest fork and whether one exists.
func (m *Manager) LongestFork() (Fork, bool) {
	if !m.hasLongest {
		return Fork{}, false
	}
	return *m.forks[m.longestForkID], true
}

// Forks returns a snapshot of every current fork, keyed by fork ID.
func (m *Manager) Forks() map[int]Fork {
	out := make(map[int]Fork, len(m.forks))
	for id, f := range m.forks {
		out[id] = *f
	}
	return out
}

// LatestTransNoOnLongest answers -1 if there is no longest fork yet,
// else the result of walking the per-user index from the longest fork's
// head.
func (m *Manager) LatestTransNoOnLongest(userID string) int {
	if !m.hasLongest {
		return -1
	}
	return m.users.Latest(userID, m.forks[m.longestForkID].HeadBlockHash)
}

// ForkManager itself doesn't own the block store, so ChainEngine supplies
// the store's membership test and insert function to AddBlocks.
//
// AddBlocks runs each block in blocksInOrder independently through
// BlockValidator, then admits it into the DAG. A validation failure is
// recorded in that block's Status and does not abort the batch.
// storeBlock persists an admitted block (so the next
// block in the same batch can refer to it as a predecessor); blockKnown
// reports whether a hash is already present in that store.
func (m *Manager) AddBlocks(blocksInOrder []chainblock.Block, blockKnown func(hash string) bool, storeBlock func(chainblock.Block)) []Status {
	statuses := make([]Status, 0, len(blocksInOrder))

	for _, b := range blocksInOrder {
		if err := m.valid.ValidateIncoming(b, blockKnown); err != nil {
			m.log.Warnf("rejected block %s: %s", b.BlockHash, err)
			statuses = append(statuses, Status{BlockHash: b.BlockHash, OK: false, Err: err.Error()})
			continue
		}

		if err := m.depths.Add(b); err != nil {
			m.log.Criticalf("depth index add failed for admitted block %s: %s", b.BlockHash, err)
			statuses = append(statuses, Status{BlockHash: b.BlockHash, OK: false, Err: err.Error()})
			continue
		}
		storeBlock(b)

		depth, _ := m.depths.Depth(b.BlockHash)

		var fork *Fork
		if parentFork, ok := m.headIndex[b.PrevBlockHash]; ok {
			delete(m.headIndex, parentFork.HeadBlockHash)
			parentFork.HeadBlockHash = b.BlockHash
			parentFork.NumBlocks = depth
			parentFork.Timestamp = b.Timestamp
			m.headIndex[b.BlockHash] = parentFork
			fork = parentFork
		} else {
			fork = &Fork{
				ForkID:             m.nextForkID,
				HeadBlockHash:      b.BlockHash,
				ForkStartBlockHash: b.BlockHash,
				NumBlocks:          depth,
				Timestamp:          b.Timestamp,
			}
			m.nextForkID++
			m.forks[fork.ForkID] = fork
			m.headIndex[b.BlockHash] = fork
		}

		if !m.hasLongest || fork.NumBlocks > m.forks[m.longestForkID].NumBlocks {
			m.longestForkID = fork.ForkID
			m.hasLongest = true
		}

		m.users.Add(b)

		statuses = append(statuses, Status{BlockHash: b.BlockHash, OK: true})
	}

	return statuses
}

// BlockHashesInFork walks from f.HeadBlockHash back to f.ForkStartBlockHash
// via prevHash lookups, inclusive of both endpoints.
func (m *Manager) BlockHashesInFork(f Fork, prevHash func(hash string) (string, bool)) []string {
	var hashes []string
	hash := f.HeadBlockHash
	for {
		hashes = append(hashes, hash)
		if hash == f.ForkStartBlockHash {
			break
		}
		prev, ok := prevHash(hash)
		if !ok {
			break
		}
		hash = prev
	}
	return hashes
}

// Cleanup prunes every fork whose NumBlocks is more than pruneThreshold
// behind the longest fork, removing their blocks from the depth and
// per-user indices and deleting the fork records. It returns the released
// block hashes (across all pruned forks) for the caller to remove from the
// block store and reintroduce to the pool.
func (m *Manager) Cleanup(prevHash func(hash string) (string, bool)) []string {
	if !m.hasLongest {
		return nil
	}
	longestDepth := m.forks[m.longestForkID].NumBlocks

	snapshot := make([]*Fork, 0, len(m.forks))
	for _, f := range m.forks {
		snapshot = append(snapshot, f)
	}

	var released []string
	for _, f := range snapshot {
		if f.ForkID == m.longestForkID {
			continue
		}
		if f.NumBlocks >= longestDepth-m.pruneThreshold {
			continue
		}

		hashes := m.BlockHashesInFork(*f, prevHash)
		for _, h := range hashes {
			if err := m.depths.Remove(h); err != nil {
				m.log.Errorf("pruning %s: %s", h, err)
			}
			if err := m.users.Remove(h); err != nil {
				m.log.Errorf("pruning %s: %s", h, err)
			}
		}
		released = append(released, hashes...)

		delete(m.headIndex, f.HeadBlockHash)
		delete(m.forks, f.ForkID)
	}

	return released
}
