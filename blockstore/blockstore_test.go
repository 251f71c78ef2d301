package blockstore

import (
	"testing"

	"github.com/daglabs/chaincore/chainblock"
)

func block(hash, prev, ts string) chainblock.Block {
	return chainblock.Block{Header: chainblock.Header{BlockHash: hash, PrevBlockHash: prev, Timestamp: ts}}
}

func TestAddGetContains(t *testing.T) {
	s := New()
	s.Add(block("h1", chainblock.NullBlockHash, "1"))

	if !s.Contains("h1") {
		t.Fatal("expected store to contain h1")
	}
	got, ok := s.Get("h1")
	if !ok || got.BlockHash != "h1" {
		t.Fatalf("expected to get back h1, got %+v, %v", got, ok)
	}
}

func TestRemove(t *testing.T) {
	s := New()
	s.Add(block("h1", chainblock.NullBlockHash, "1"))
	if err := s.Remove("h1"); err != nil {
		t.Fatalf("Remove returned error: %s", err)
	}
	if s.Contains("h1") {
		t.Fatal("expected h1 to be removed")
	}
	if err := s.Remove("h1"); err == nil {
		t.Fatal("expected removing an absent hash to error")
	}
}

func TestBlocksAfterPreservesInsertionOrderAndFilters(t *testing.T) {
	s := New()
	s.Add(block("h1", chainblock.NullBlockHash, "1"))
	s.Add(block("h2", "h1", "2"))
	s.Add(block("h3", "h2", "3"))

	all := s.BlocksAfter(nil)
	if len(all) != 3 || all[0].BlockHash != "h1" || all[2].BlockHash != "h3" {
		t.Fatalf("expected insertion order h1,h2,h3, got %+v", all)
	}

	bound := "1"
	after := s.BlocksAfter(&bound)
	if len(after) != 2 || after[0].BlockHash != "h2" {
		t.Fatalf("expected h2,h3 strictly after timestamp 1, got %+v", after)
	}
}
