package gossip

import (
	"testing"

	"github.com/daglabs/chaincore/chainlog"
	"github.com/daglabs/chaincore/engine"
)

func testLogger(t *testing.T) *chainlog.Logger {
	t.Helper()
	backend, err := chainlog.NewBackend("")
	if err != nil {
		t.Fatalf("NewBackend returned error: %s", err)
	}
	return backend.Logger("TEST")
}

func TestIntakeWireSubmitsGossipedTransaction(t *testing.T) {
	eng := engine.New(engine.Config{TransPerBlock: 10, Difficulty: 0}, testLogger(t))
	bus := NewLoopbackBus()
	in := NewIntake(eng, testLogger(t))

	if err := in.Wire(bus); err != nil {
		t.Fatalf("Wire returned error: %s", err)
	}

	if err := bus.PublishTransaction(engine.TransactionJSON{UserID: "alice", TransNo: 0, TransStr: ""}); err != nil {
		t.Fatalf("PublishTransaction returned error: %s", err)
	}

	pending := eng.PendingTransactions()
	if len(pending) != 1 || pending[0].UserID != "alice" {
		t.Fatalf("expected alice's transaction to land in the pool, got %+v", pending)
	}
}

func TestIntakeWireSwallowsDuplicateTransaction(t *testing.T) {
	eng := engine.New(engine.Config{TransPerBlock: 10, Difficulty: 0}, testLogger(t))
	bus := NewLoopbackBus()
	in := NewIntake(eng, testLogger(t))
	_ = in.Wire(bus)

	txJSON := engine.TransactionJSON{UserID: "alice", TransNo: 0, TransStr: ""}
	if err := bus.PublishTransaction(txJSON); err != nil {
		t.Fatalf("PublishTransaction returned error: %s", err)
	}
	// Gossip delivers at-least-once; a second delivery must not panic or
	// surface as a fatal error to the subscriber.
	if err := bus.PublishTransaction(txJSON); err != nil {
		t.Fatalf("duplicate PublishTransaction returned error: %s", err)
	}

	if len(eng.PendingTransactions()) != 1 {
		t.Fatalf("expected the duplicate to be swallowed, got %d pending", len(eng.PendingTransactions()))
	}
}

func TestIntakeWireSubmitsGossipedBlock(t *testing.T) {
	eng := engine.New(engine.Config{TransPerBlock: 10, Difficulty: 0}, testLogger(t))
	bus := NewLoopbackBus()
	in := NewIntake(eng, testLogger(t))
	_ = in.Wire(bus)

	block := mineExternalBlock(t, []engine.TransactionJSON{{UserID: "alice", TransNo: 0, TransStr: ""}})
	if err := bus.PublishBlock(block); err != nil {
		t.Fatalf("PublishBlock returned error: %s", err)
	}

	if eng.Store().Len() != 1 {
		t.Fatalf("expected 1 block absorbed into the engine, got %d", eng.Store().Len())
	}
}

func TestBootstrapAppliesBlocksThenFreeTransactions(t *testing.T) {
	eng := engine.New(engine.Config{TransPerBlock: 10, Difficulty: 0}, testLogger(t))
	in := NewIntake(eng, testLogger(t))

	block := mineExternalBlock(t, []engine.TransactionJSON{{UserID: "alice", TransNo: 0, TransStr: ""}})
	freeTxs := []engine.TransactionJSON{{UserID: "bob", TransNo: 0, TransStr: ""}}

	in.Bootstrap([]engine.BlockJSON{block}, freeTxs)

	if eng.Store().Len() != 1 {
		t.Fatalf("expected the bootstrap block to be absorbed, got %d blocks", eng.Store().Len())
	}
	pending := eng.PendingTransactions()
	if len(pending) != 1 || pending[0].UserID != "bob" {
		t.Fatalf("expected bob's free transaction to land in the pool, got %+v", pending)
	}
}

// mineExternalBlock builds a standalone Block via a throwaway engine (so the
// hashing/proof-of-work goes through the real code path) and returns its
// wire form, simulating a block mined by a remote peer.
func mineExternalBlock(t *testing.T, txs []engine.TransactionJSON) engine.BlockJSON {
	t.Helper()
	remote := engine.New(engine.Config{TransPerBlock: len(txs), Difficulty: 0}, testLogger(t))
	var mined []engine.BlockJSON
	for _, j := range txs {
		blocks, err := remote.SubmitTransaction(engine.FromTransactionJSON(j))
		if err != nil {
			t.Fatalf("SubmitTransaction returned error: %s", err)
		}
		for _, b := range blocks {
			mined = append(mined, engine.ToBlockJSON(b))
		}
	}
	if len(mined) != 1 {
		t.Fatalf("expected exactly one block to be mined on the remote engine, got %d", len(mined))
	}
	return mined[0]
}
