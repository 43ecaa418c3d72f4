package log

import (
	"log/slog"
	"os"
)

var (
	verbosity slog.LevelVar
	swap      = newSwapHandler(NewTerminalHandlerWithLevel(os.Stderr, &verbosity, true))
	root      = slog.New(swap)
)

func init() {
	verbosity.Set(slog.LevelInfo)
}

// Root returns the process-wide default logger.
func Root() *slog.Logger { return root }

// SetHandler replaces the handler every logger derived from Root
// dispatches through, including one obtained via WithContext before
// this call: they all resolve against the same swapHandler
// indirection rather than a handler snapshot taken at creation time.
// cmd/kanari-node does not call it; it only adjusts the default handler
// through SetVerbosity.
func SetHandler(h slog.Handler) {
	swap.store(h)
}

// SetVerbosity sets the minimum level the default terminal/logfmt
// handler emits. It has no effect after SetHandler installs a handler
// built around its own slog.LevelVar.
func SetVerbosity(l slog.Level) {
	verbosity.Set(l)
}

// WithContext returns a logger tagged with the given key/value pairs,
// the convention every package uses to get its own logger:
//
//	var logger = log.WithContext("pkg", "engine")
func WithContext(ctx ...any) *slog.Logger {
	return root.With(ctx...)
}
