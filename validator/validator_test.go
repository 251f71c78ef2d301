package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/daglabs/chaincore/chainblock"
	"github.com/daglabs/chaincore/chainerrors"
	"github.com/daglabs/chaincore/chaintx"
	"github.com/daglabs/chaincore/depthindex"
	"github.com/daglabs/chaincore/useridx"
)

func neverKnown(string) bool { return false }

func mineGenesis(t *testing.T, txs []chaintx.Transaction) chainblock.Block {
	t.Helper()
	b, err := chainblock.CreateBlock(context.Background(), txs, chainblock.NullBlockHash, 0)
	if err != nil {
		t.Fatalf("CreateBlock returned error: %s", err)
	}
	return b
}

func TestValidateIncomingAcceptsGenesis(t *testing.T) {
	depths := depthindex.New()
	users := useridx.New()
	v := New(depths, users)

	b := mineGenesis(t, []chaintx.Transaction{chaintx.New("alice", 0, "")})
	if err := v.ValidateIncoming(b, neverKnown); err != nil {
		t.Fatalf("expected genesis block to validate, got %s", err)
	}
}

func TestValidateIncomingRejectsMissingPredecessor(t *testing.T) {
	depths := depthindex.New()
	users := useridx.New()
	v := New(depths, users)

	b, err := chainblock.CreateBlock(context.Background(), []chaintx.Transaction{chaintx.New("alice", 0, "")}, "ghost", 0)
	if err != nil {
		t.Fatalf("CreateBlock returned error: %s", err)
	}
	if err := v.ValidateIncoming(b, neverKnown); !errors.Is(err, chainerrors.ErrMissingPredecessor) {
		t.Fatalf("expected ErrMissingPredecessor, got %v", err)
	}
}

func TestValidateIncomingRejectsDuplicate(t *testing.T) {
	depths := depthindex.New()
	users := useridx.New()
	v := New(depths, users)

	b := mineGenesis(t, []chaintx.Transaction{chaintx.New("alice", 0, "")})
	alwaysKnown := func(string) bool { return true }
	if err := v.ValidateIncoming(b, alwaysKnown); !errors.Is(err, chainerrors.ErrDuplicateBlock) {
		t.Fatalf("expected ErrDuplicateBlock, got %v", err)
	}
}

func TestValidateIncomingRejectsGapInUserSequence(t *testing.T) {
	depths := depthindex.New()
	users := useridx.New()
	v := New(depths, users)

	b := mineGenesis(t, []chaintx.Transaction{chaintx.New("alice", 0, ""), chaintx.New("alice", 2, "")})
	if err := v.ValidateIncoming(b, neverKnown); !errors.Is(err, chainerrors.ErrUnorderedTransactions) {
		t.Fatalf("expected ErrUnorderedTransactions, got %v", err)
	}
}

func TestValidateIncomingRejectsWrongStartingTransNo(t *testing.T) {
	depths := depthindex.New()
	users := useridx.New()
	v := New(depths, users)

	// alice's first-ever transaction must start at 0, not 1.
	b := mineGenesis(t, []chaintx.Transaction{chaintx.New("alice", 1, "")})
	if err := v.ValidateIncoming(b, neverKnown); !errors.Is(err, chainerrors.ErrTransactionNumberMismatch) {
		t.Fatalf("expected ErrTransactionNumberMismatch, got %v", err)
	}
}

func TestValidateIncomingRejectsInvalidHash(t *testing.T) {
	depths := depthindex.New()
	users := useridx.New()
	v := New(depths, users)

	b := mineGenesis(t, []chaintx.Transaction{chaintx.New("alice", 0, "")})
	b.TransactionsHash = "tampered"
	if err := v.ValidateIncoming(b, neverKnown); !errors.Is(err, chainerrors.ErrInvalidBlockHash) {
		t.Fatalf("expected ErrInvalidBlockHash, got %v", err)
	}
}

func TestValidateIncomingChecksContinuationAgainstPrevBlock(t *testing.T) {
	depths := depthindex.New()
	users := useridx.New()
	v := New(depths, users)

	genesis := mineGenesis(t, []chaintx.Transaction{chaintx.New("alice", 0, "")})
	if err := v.ValidateIncoming(genesis, neverKnown); err != nil {
		t.Fatalf("genesis should validate: %s", err)
	}
	if err := depths.Add(genesis); err != nil {
		t.Fatalf("depths.Add returned error: %s", err)
	}
	users.Add(genesis)

	next, err := chainblock.CreateBlock(context.Background(), []chaintx.Transaction{chaintx.New("alice", 1, "")}, genesis.BlockHash, 0)
	if err != nil {
		t.Fatalf("CreateBlock returned error: %s", err)
	}
	if err := v.ValidateIncoming(next, neverKnown); err != nil {
		t.Fatalf("expected alice:1 continuing alice:0 to validate, got %s", err)
	}
}
