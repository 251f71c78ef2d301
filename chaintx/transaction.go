// Package chaintx defines the per-user ordered transaction record, its
// total order, and its canonical compact hash, mirroring the way
// domain/mempool's TxDesc wraps a bare transaction with ordering and
// validation concerns kept close to the type itself.
package chaintx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/daglabs/chaincore/puzzle"
)

// MaxDetailsBytes is the maximum length, in bytes, of Transaction.Details.
const MaxDetailsBytes = 64

// Transaction is a single, immutable per-user record. Its identity is the
// pair (UserID, TransNo); its total order is (UserID, TransNo) ascending.
type Transaction struct {
	UserID  string
	TransNo int
	Details string
}

// New constructs a Transaction. It does not validate; call Validate
// explicitly at ingestion boundaries, keeping construction separate from
// policy checks.
func New(userID string, transNo int, details string) Transaction {
	return Transaction{UserID: userID, TransNo: transNo, Details: details}
}

// Validate reports whether the transaction satisfies the details-length
// invariant.
func (t Transaction) Validate() error {
	if len(t.Details) > MaxDetailsBytes {
		return fmt.Errorf("transaction %s:%d details exceed %d bytes", t.UserID, t.TransNo, MaxDetailsBytes)
	}
	return nil
}

// Equal reports whether two transactions share identity and content.
func (t Transaction) Equal(o Transaction) bool {
	return t.UserID == o.UserID && t.TransNo == o.TransNo && t.Details == o.Details
}

// Less implements the total order: primarily by UserID, then by TransNo.
func (t Transaction) Less(o Transaction) bool {
	if t.UserID != o.UserID {
		return t.UserID < o.UserID
	}
	return t.TransNo < o.TransNo
}

// SortByUserThenNo sorts txs in place by (UserID, TransNo) ascending, the
// ordering required within a Block.
func SortByUserThenNo(txs []Transaction) {
	sort.Slice(txs, func(i, j int) bool { return txs[i].Less(txs[j]) })
}

// CanonicalString renders a transaction into its canonical string form,
// used as the unit of CompactHash's concatenation.
func CanonicalString(t Transaction) string {
	return fmt.Sprintf("%s: [%d] %s", t.UserID, t.TransNo, t.Details)
}

// CompactHash is the SHA-256 of the concatenation of each transaction's
// canonical string, in list order. It is permutation-sensitive: reordering
// txs changes the hash, which is what makes it suitable as a block's
// transactions_hash.
func CompactHash(txs []Transaction) string {
	var b strings.Builder
	for _, t := range txs {
		b.WriteString(CanonicalString(t))
	}
	return puzzle.Hash(b.String())
}
