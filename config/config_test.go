package config

import (
	"os"
	"testing"
)

func withArgs(t *testing.T, args []string, fn func()) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"chaind"}, args...)
	defer func() { os.Args = old }()
	fn()
}

func TestParseAppliesDefaults(t *testing.T) {
	withArgs(t, nil, func() {
		cfg, err := Parse()
		if err != nil {
			t.Fatalf("Parse returned error: %s", err)
		}
		if cfg.TransPerBlock != 10 {
			t.Errorf("expected default TransPerBlock 10, got %d", cfg.TransPerBlock)
		}
		if cfg.Difficulty != 2 {
			t.Errorf("expected default Difficulty 2, got %d", cfg.Difficulty)
		}
		if cfg.HTTPListen != defaultHTTPListen {
			t.Errorf("expected default HTTPListen %q, got %q", defaultHTTPListen, cfg.HTTPListen)
		}
	})
}

func TestParseOverridesFromFlags(t *testing.T) {
	withArgs(t, []string{"--transperblock=5", "--difficulty=1", "--listen=127.0.0.1:9090"}, func() {
		cfg, err := Parse()
		if err != nil {
			t.Fatalf("Parse returned error: %s", err)
		}
		if cfg.TransPerBlock != 5 {
			t.Errorf("expected TransPerBlock 5, got %d", cfg.TransPerBlock)
		}
		if cfg.Difficulty != 1 {
			t.Errorf("expected Difficulty 1, got %d", cfg.Difficulty)
		}
		if cfg.HTTPListen != "127.0.0.1:9090" {
			t.Errorf("expected overridden HTTPListen, got %q", cfg.HTTPListen)
		}
	})
}

func TestParseSetsActiveConfig(t *testing.T) {
	withArgs(t, nil, func() {
		cfg, err := Parse()
		if err != nil {
			t.Fatalf("Parse returned error: %s", err)
		}
		if ActiveConfig() != cfg {
			t.Error("expected ActiveConfig to return the just-parsed Config")
		}
	})
}
