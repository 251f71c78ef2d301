package pool

import (
	"errors"
	"testing"

	"github.com/daglabs/chaincore/chainerrors"
	"github.com/daglabs/chaincore/chaintx"
)

func alwaysUnknown(string) int { return -1 }

func TestAddThenSize(t *testing.T) {
	p := New()
	if err := p.Add(chaintx.New("alice", 0, "")); err != nil {
		t.Fatalf("Add returned error: %s", err)
	}
	if p.Size() != 1 {
		t.Fatalf("expected size 1, got %d", p.Size())
	}
}

func TestAddDuplicatePendingRejected(t *testing.T) {
	p := New()
	if err := p.Add(chaintx.New("alice", 0, "")); err != nil {
		t.Fatalf("first Add returned error: %s", err)
	}
	err := p.Add(chaintx.New("alice", 0, "different"))
	if !errors.Is(err, chainerrors.ErrAlreadyAdded) {
		t.Fatalf("expected ErrAlreadyAdded, got %v", err)
	}
	if p.Size() != 1 {
		t.Fatalf("expected size to stay 1, got %d", p.Size())
	}
}

func TestValidPrefixesSkipsGaps(t *testing.T) {
	p := New()
	mustAdd(t, p, chaintx.New("alice", 0, ""))
	mustAdd(t, p, chaintx.New("alice", 2, ""))

	valid := p.ValidPrefixes(alwaysUnknown)
	if len(valid) != 1 || valid[0].TransNo != 0 {
		t.Fatalf("expected only alice:0, got %+v", valid)
	}
}

func TestValidPrefixesTwoUserInterleave(t *testing.T) {
	p := New()
	mustAdd(t, p, chaintx.New("u1", 0, ""))
	mustAdd(t, p, chaintx.New("u2", 0, ""))
	mustAdd(t, p, chaintx.New("u1", 1, ""))
	mustAdd(t, p, chaintx.New("u2", 1, ""))

	valid := p.ValidPrefixes(alwaysUnknown)
	if len(valid) != 4 {
		t.Fatalf("expected all 4 transactions valid, got %d", len(valid))
	}
}

func TestCommitRemovesAndRaisesFloor(t *testing.T) {
	p := New()
	mustAdd(t, p, chaintx.New("alice", 0, ""))
	mustAdd(t, p, chaintx.New("alice", 1, ""))
	mustAdd(t, p, chaintx.New("alice", 2, ""))

	failures := p.Commit([]chaintx.Transaction{chaintx.New("alice", 0, ""), chaintx.New("alice", 1, "")})
	if len(failures) != 0 {
		t.Fatalf("expected no failures, got %+v", failures)
	}
	if p.Size() != 1 {
		t.Fatalf("expected 1 remaining transaction, got %d", p.Size())
	}
	if p.MaxCommittedNo("alice") != 0 {
		t.Fatalf("expected floor to be the minimum committed trans_no (0), got %d", p.MaxCommittedNo("alice"))
	}

	// A later retry of a prior tx must now be rejected.
	if err := p.Add(chaintx.New("alice", 0, "")); !errors.Is(err, chainerrors.ErrAlreadyAdded) {
		t.Fatalf("expected retry of committed tx to be rejected, got %v", err)
	}
}

func TestAbsorbConfirmedRaisesFloorWithoutRemoving(t *testing.T) {
	p := New()
	mustAdd(t, p, chaintx.New("alice", 0, ""))

	p.AbsorbConfirmed([]chaintx.Transaction{chaintx.New("alice", 5, "")})
	if p.MaxCommittedNo("alice") != 5 {
		t.Fatalf("expected floor 5, got %d", p.MaxCommittedNo("alice"))
	}
	if p.Size() != 1 {
		t.Fatalf("AbsorbConfirmed should not remove pending transactions, size is %d", p.Size())
	}
}

func mustAdd(t *testing.T, p *Pool, tx chaintx.Transaction) {
	t.Helper()
	if err := p.Add(tx); err != nil {
		t.Fatalf("Add(%+v) returned error: %s", tx, err)
	}
}
