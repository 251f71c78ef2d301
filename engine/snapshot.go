// Snapshot serialization for the local interface: the full chain snapshot
// (GET_BLOCKCHAIN), the pool-only view (GET_UNADDED_TRANS), and the
// block/transaction JSON shapes shared by both, plus gossip.
package engine

import (
	"github.com/daglabs/chaincore/chainblock"
	"github.com/daglabs/chaincore/chaintx"
)

// TransactionJSON is the wire shape of one transaction.
type TransactionJSON struct {
	UserID  string `json:"user_id"`
	TransNo int    `json:"trans_no"`
	TransStr string `json:"trans_str"`
}

// ToTransactionJSON converts a Transaction to its wire shape.
func ToTransactionJSON(t chaintx.Transaction) TransactionJSON {
	return TransactionJSON{UserID: t.UserID, TransNo: t.TransNo, TransStr: t.Details}
}

// FromTransactionJSON converts a wire transaction back to a Transaction.
func FromTransactionJSON(j TransactionJSON) chaintx.Transaction {
	return chaintx.New(j.UserID, j.TransNo, j.TransStr)
}

// BlockJSON is the wire shape of one block.
type BlockJSON struct {
	BlockHash        string            `json:"block_hash"`
	TransactionsHash string            `json:"transactions_hash"`
	PrevBlockHash    string            `json:"prev_block_hash"`
	Timestamp        string            `json:"timestamp"`
	Difficulty       int               `json:"difficulty"`
	Nonce            string            `json:"nonce"`
	BlockTrans       []TransactionJSON `json:"block_trans"`
}

// ToBlockJSON converts a Block to its wire shape.
func ToBlockJSON(b chainblock.Block) BlockJSON {
	trans := make([]TransactionJSON, len(b.Transactions))
	for i, t := range b.Transactions {
		trans[i] = ToTransactionJSON(t)
	}
	return BlockJSON{
		BlockHash:        b.BlockHash,
		TransactionsHash: b.TransactionsHash,
		PrevBlockHash:    b.PrevBlockHash,
		Timestamp:        b.Timestamp,
		Difficulty:       b.Difficulty,
		Nonce:            b.Nonce,
		BlockTrans:       trans,
	}
}

// FromBlockJSON converts a wire block back to a Block.
func FromBlockJSON(j BlockJSON) chainblock.Block {
	trans := make([]chaintx.Transaction, len(j.BlockTrans))
	for i, t := range j.BlockTrans {
		trans[i] = FromTransactionJSON(t)
	}
	return chainblock.Block{
		Header: chainblock.Header{
			BlockHash:        j.BlockHash,
			TransactionsHash: j.TransactionsHash,
			PrevBlockHash:    j.PrevBlockHash,
			Timestamp:        j.Timestamp,
			Difficulty:       j.Difficulty,
			Nonce:            j.Nonce,
		},
		Transactions: trans,
	}
}

// ForkJSON is one fork's directory entry.
type ForkJSON struct {
	ForkID             int    `json:"fork_id"`
	HeadBlockHash      string `json:"head_block_hash"`
	Timestamp          string `json:"timestamp"`
	NumBlocks          int    `json:"num_blocks"`
	ForkStartBlockHash string `json:"fork_start_block_hash"`
}

// ForkDataJSON is the fork directory.
type ForkDataJSON struct {
	LongestForkID int                 `json:"longest_fork_id"`
	Forks         map[int]ForkJSON    `json:"forks"`
}

// SnapshotJSON is the full chain snapshot returned by GET_BLOCKCHAIN.
type SnapshotJSON struct {
	TransPerBlock int                  `json:"trans_per_block"`
	Difficulty    int                  `json:"difficulty"`
	BlockMap      map[string]BlockJSON `json:"block_map"`
	TransData     []TransactionJSON    `json:"trans_data"`
	ForkData      ForkDataJSON         `json:"fork_data"`
}

// PoolJSON is the GET_UNADDED_TRANS response shape.
type PoolJSON struct {
	TransactionsNotYetAdded []TransactionJSON `json:"transactions_not_yet_added"`
}

// Snapshot serializes the engine's full state. A non-nil after restricts
// BlockMap to blocks strictly newer than the given microsecond-precision
// timestamp string (see blockstore.Store.BlocksAfter); nil returns all
// blocks.
func (e *Engine) Snapshot(after *string) SnapshotJSON {
	blockMap := make(map[string]BlockJSON)
	for _, b := range e.store.BlocksAfter(after) {
		blockMap[b.BlockHash] = ToBlockJSON(b)
	}

	pending := e.pool.PendingSnapshot()
	transData := make([]TransactionJSON, len(pending))
	for i, t := range pending {
		transData[i] = ToTransactionJSON(t)
	}

	forkData := ForkDataJSON{Forks: make(map[int]ForkJSON)}
	if f, ok := e.forks.LongestFork(); ok {
		forkData.LongestForkID = f.ForkID
	}
	for id, f := range e.forks.Forks() {
		forkData.Forks[id] = ForkJSON{
			ForkID:             f.ForkID,
			HeadBlockHash:      f.HeadBlockHash,
			Timestamp:          f.Timestamp,
			NumBlocks:          f.NumBlocks,
			ForkStartBlockHash: f.ForkStartBlockHash,
		}
	}

	return SnapshotJSON{
		TransPerBlock: e.cfg.TransPerBlock,
		Difficulty:    e.cfg.Difficulty,
		BlockMap:      blockMap,
		TransData:     transData,
		ForkData:      forkData,
	}
}

// PoolSnapshot serializes just the pool, for GET_UNADDED_TRANS.
func (e *Engine) PoolSnapshot() PoolJSON {
	pending := e.pool.PendingSnapshot()
	trans := make([]TransactionJSON, len(pending))
	for i, t := range pending {
		trans[i] = ToTransactionJSON(t)
	}
	return PoolJSON{TransactionsNotYetAdded: trans}
}
