// Package chainlog provides leveled, per-subsystem logging for the chain
// engine: a shared backend fans log lines out to stdout and a rotating
// log file, and each subsystem gets its own named logger whose level can
// be set independently.
package chainlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jrick/logrotate/rotator"
)

// Level controls which calls a Logger actually emits.
type Level uint32

// Log levels, most to least verbose.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

var levelNames = map[Level]string{
	LevelTrace:    "TRC",
	LevelDebug:    "DBG",
	LevelInfo:     "INF",
	LevelWarn:     "WRN",
	LevelError:    "ERR",
	LevelCritical: "CRT",
	LevelOff:      "OFF",
}

// LevelFromString maps a case-insensitive level name to a Level, defaulting
// to LevelInfo for anything unrecognized, matching logger.SetLogLevel's
// forgiving behavior.
func LevelFromString(s string) Level {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "critical":
		return LevelCritical
	case "off":
		return LevelOff
	default:
		return LevelInfo
	}
}

// Subsystem tags. One Logger is created per tag; SetLevel on a tag only
// affects that subsystem, mirroring logger.SubsystemTags.
const (
	TagEngine = "ENGN"
	TagFork   = "FORK"
	TagPool   = "POOL"
	TagValid  = "VLDT"
	TagAPI    = "APIS"
	TagGossip = "GOSS"
)

// Logger writes leveled, tagged log lines to a Backend.
type Logger struct {
	tag   string
	level Level
	back  *Backend
}

func (l *Logger) write(lvl Level, format string, args ...interface{}) {
	if lvl < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s: [%s] %s\n", levelNames[lvl], l.tag, msg)
	l.back.write(lvl, line)
}

// Tracef logs at LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) { l.write(LevelTrace, format, args...) }

// Debugf logs at LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) { l.write(LevelDebug, format, args...) }

// Infof logs at LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) { l.write(LevelInfo, format, args...) }

// Warnf logs at LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) { l.write(LevelWarn, format, args...) }

// Errorf logs at LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) { l.write(LevelError, format, args...) }

// Criticalf logs at LevelCritical. ChainEngine uses this for
// programming-invariant violations.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.write(LevelCritical, format, args...)
}

// SetLevel changes this logger's minimum emitted level.
func (l *Logger) SetLevel(level Level) { l.level = level }

// Backend is the shared sink every subsystem Logger writes through.
type Backend struct {
	mtx      sync.Mutex
	writers  []io.Writer
	rotator  *rotator.Rotator
	loggers  map[string]*Logger
}

// NewBackend creates a Backend writing to stdout and, if logPath is
// non-empty, to a rotating log file, following
// logger.InitLogRotators/initLogRotator.
func NewBackend(logPath string) (*Backend, error) {
	b := &Backend{
		writers: []io.Writer{os.Stdout},
		loggers: make(map[string]*Logger),
	}
	if logPath != "" {
		logDir, _ := filepath.Split(logPath)
		if logDir != "" {
			if err := os.MkdirAll(logDir, 0700); err != nil {
				return nil, err
			}
		}
		r, err := rotator.New(logPath, 10*1024, false, 3)
		if err != nil {
			return nil, err
		}
		b.rotator = r
	}
	return b, nil
}

func (b *Backend) write(lvl Level, line string) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	for _, w := range b.writers {
		_, _ = io.WriteString(w, line)
	}
	if b.rotator != nil {
		_, _ = b.rotator.Write([]byte(line))
	}
}

// Logger returns (creating if necessary) the Logger for the given
// subsystem tag, defaulting to LevelInfo.
func (b *Backend) Logger(tag string) *Logger {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if l, ok := b.loggers[tag]; ok {
		return l
	}
	l := &Logger{tag: tag, level: LevelInfo, back: b}
	b.loggers[tag] = l
	return l
}

// SetLevel sets the log level for a single subsystem tag, a no-op if the
// tag has no logger yet.
func (b *Backend) SetLevel(tag string, level Level) {
	b.mtx.Lock()
	l, ok := b.loggers[tag]
	b.mtx.Unlock()
	if ok {
		l.SetLevel(level)
	}
}

// SetLevels sets the log level for every subsystem tag currently
// registered, matching logger.SetLogLevels.
func (b *Backend) SetLevels(level Level) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	for _, l := range b.loggers {
		l.SetLevel(level)
	}
}

// Close closes the underlying rotator, if any.
func (b *Backend) Close() {
	if b.rotator != nil {
		b.rotator.Close()
	}
}
