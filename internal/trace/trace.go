// Package trace builds the zap logger every ThreadContext carries
// (spec.md §6 "Tracing"). The per-instruction trace line itself lives in
// internal/gvm/trace.go, next to the dispatch loop it instruments; this
// package only owns logger construction/configuration, the way a real
// service separates "how do I log" from "what do I log at this call
// site."
package trace

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction. Debug mode gets a human-readable
// console encoder at debug level, matching the teacher's
// RunProgramDebugMode; production mode gets JSON at info level.
type Config struct {
	Debug bool
	// Level overrides the debug/non-debug default when non-empty: "debug",
	// "info", "warn", "error".
	Level string
}

// New builds a *zap.SugaredLogger per cfg. The returned logger's Sync
// should be deferred by the caller (cmd/coreloop does this); ignoring
// Sync's error is conventional for stderr/stdout-backed cores since they
// aren't seekable files.
func New(cfg Config) (*zap.SugaredLogger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// Noop returns a logger that discards everything, for tests and for
// threads spawned without tracing (spec.md §6 "tracing_enabled" off).
func Noop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
