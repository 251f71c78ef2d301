// Package chainerrors defines the sentinel errors the chain-state engine
// raises. Callers compare with errors.Is against the sentinels below;
// messages are wrapped with context via github.com/pkg/errors the way
// domain/consensus/ruleerrors wraps its sentinels.
package chainerrors

import "github.com/pkg/errors"

// Validator errors. Any of these short-circuits BlockValidator.ValidateIncoming
// and is recorded as a per-block status string by ForkManager.AddBlocks.
var (
	// ErrDuplicateBlock is returned when a block hash is already known to
	// the engine, either in the store or from an earlier entry in the same
	// batch.
	ErrDuplicateBlock = errors.New("duplicate block")

	// ErrMissingPredecessor is returned when a block's prev_block_hash is
	// neither NullBlockHash nor a block already admitted to the depth index.
	ErrMissingPredecessor = errors.New("missing predecessor block")

	// ErrUnorderedTransactions is returned when a block's per-user
	// transaction groups are not a gap-free ascending run.
	ErrUnorderedTransactions = errors.New("unordered transactions in block")

	// ErrTransactionNumberMismatch is returned when the first trans_no of a
	// user's group in a block does not immediately follow that user's last
	// committed trans_no on the block's target fork.
	ErrTransactionNumberMismatch = errors.New("transaction number mismatch")

	// ErrInvalidBlockHash is returned when a block's recomputed hashes
	// (transactions_hash or block_hash) don't match the header's claims.
	ErrInvalidBlockHash = errors.New("invalid block hash")

	// ErrInvalidProofOfWork is returned when a block's nonce does not solve
	// the proof-of-work puzzle at the claimed difficulty.
	ErrInvalidProofOfWork = errors.New("invalid proof of work")
)

// Pool errors.
var (
	// ErrAlreadyAdded is returned by FreeTransactionPool.Add when a
	// transaction's (user_id, trans_no) is already pending or already
	// committed on the node's longest fork. Expected during fork churn and
	// bootstrap; callers that see it during cleanup swallow it silently.
	ErrAlreadyAdded = errors.New("transaction already added")
)

// Consistency-bug signals. These are not validation outcomes; whoever
// observes one logs it (ForkManager logs ErrUnknownPredecessor at critical
// severity; index and store removal failures are logged at error severity).
var (
	// ErrRemoveNonExistent is returned by index removal when the target key
	// is absent. Observing this outside of a pruning race is a programming
	// error.
	ErrRemoveNonExistent = errors.New("remove of non-existent entry")

	// ErrUnknownPredecessor is returned by BlockDepthIndex.Add when a
	// block's non-null predecessor has no recorded depth. The validator
	// must always admit a block's predecessor before the block itself, so
	// observing this is a programming error, not a validation outcome.
	ErrUnknownPredecessor = errors.New("unknown predecessor in depth index")
)

// TransactionNumberMismatchDetail carries the (user_id, block_hash, first,
// expected - 1) tuple that the validator needs to report precisely which
// user and block disagreed, and by how much — the last field is the
// user's last trans_no already committed on the target fork, i.e.
// expected-1 where expected is the trans_no the block needed to start at.
// Use errors.As to recover it after wrapping.
type TransactionNumberMismatchDetail struct {
	UserID        string
	BlockHash     string
	First         int
	LastCommitted int
}

func (d *TransactionNumberMismatchDetail) Error() string {
	return errors.Wrapf(ErrTransactionNumberMismatch,
		"user %s in block %s: got first trans_no %d, expected %d",
		d.UserID, d.BlockHash, d.First, d.LastCommitted+1).Error()
}

// Unwrap lets errors.Is(err, ErrTransactionNumberMismatch) succeed.
func (d *TransactionNumberMismatchDetail) Unwrap() error {
	return ErrTransactionNumberMismatch
}

// NewTransactionNumberMismatch builds the detailed mismatch error a
// validator raises when a user's first trans_no in a block doesn't
// continue that user's sequence on the target fork. lastCommitted is the
// user's last trans_no already committed on the target fork (expected - 1).
func NewTransactionNumberMismatch(userID, blockHash string, first, lastCommitted int) error {
	return &TransactionNumberMismatchDetail{
		UserID:        userID,
		BlockHash:     blockHash,
		First:         first,
		LastCommitted: lastCommitted,
	}
}
