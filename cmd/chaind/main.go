// Command chaind runs a standalone chain-state engine node: the local
// HTTP interface plus an in-process loopback gossip bus, following
// kaspad.go's "parse config, build subsystems, wire them, serve" shape.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/daglabs/chaincore/chainlog"
	"github.com/daglabs/chaincore/config"
	"github.com/daglabs/chaincore/engine"
	"github.com/daglabs/chaincore/gossip"
	"github.com/daglabs/chaincore/peerdirectory"

	"github.com/daglabs/chaincore/api"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Parse()
	if err != nil {
		return err
	}

	logPath := ""
	if cfg.LogDir != "" {
		logPath = filepath.Join(cfg.LogDir, "chaind.log")
	}
	backend, err := chainlog.NewBackend(logPath)
	if err != nil {
		return err
	}
	defer backend.Close()

	engLog := backend.Logger(chainlog.TagEngine)
	apiLog := backend.Logger(chainlog.TagAPI)
	gossipLog := backend.Logger(chainlog.TagGossip)
	backend.SetLevels(chainlog.LevelFromString(cfg.DebugLevel))

	eng := engine.New(engine.Config{
		TransPerBlock: cfg.TransPerBlock,
		Difficulty:    cfg.Difficulty,
	}, engLog)

	bus := gossip.NewLoopbackBus()
	intake := gossip.NewIntake(eng, gossipLog)
	if err := intake.Wire(bus); err != nil {
		return err
	}

	_ = peerdirectory.New() // ready for NEW_PEER onboarding wiring

	srv := api.New(eng, bus, apiLog)

	apiLog.Infof("listening on %s", cfg.HTTPListen)
	return http.ListenAndServe(cfg.HTTPListen, srv.Router())
}
