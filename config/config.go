// Package config defines chaind's CLI configuration, following
// kasparov/kasparovd/config/config.go's Parse()/ActiveConfig() shape: a
// Config struct with go-flags struct tags, defaults assigned before
// parsing.
package config

import (
	"github.com/jessevdk/go-flags"
)

const (
	defaultLogFilename   = "chaind.log"
	defaultErrLogFilename = "chaind_err.log"
)

var (
	defaultHTTPListen  = "0.0.0.0:8080"
	defaultDebugLevel  = "info"
	defaultLogDir      = "."
	activeConfig       *Config
)

// Config defines chaind's command-line options.
type Config struct {
	HTTPListen    string `long:"listen" description:"HTTP address for the local interface to listen on"`
	TransPerBlock int    `long:"transperblock" description:"number of transactions mined per block"`
	Difficulty    int    `long:"difficulty" description:"proof-of-work difficulty (leading zero hex characters)"`
	DebugLevel    string `long:"debuglevel" description:"logging level: trace, debug, info, warn, error, critical, off"`
	LogDir        string `long:"logdir" description:"directory for rotating log files"`
}

// ActiveConfig returns the most recently parsed configuration.
func ActiveConfig() *Config { return activeConfig }

// Parse parses os.Args into a Config, applying the node's documented
// boundary defaults (difficulty 2, 10 transactions per block) where the
// caller supplies none.
func Parse() (*Config, error) {
	cfg := &Config{
		HTTPListen:    defaultHTTPListen,
		TransPerBlock: 10,
		Difficulty:    2,
		DebugLevel:    defaultDebugLevel,
		LogDir:        defaultLogDir,
	}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}
	activeConfig = cfg
	return cfg, nil
}
