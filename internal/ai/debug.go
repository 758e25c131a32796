package ai

import "sync/atomic"

// debugLogging gates the per-tick debug lines of the behavior core. Those
// run for every NPC on every tick, so callers check the flag before
// building log attributes instead of relying on the handler level.
var debugLogging atomic.Bool

// EnableDebugLogging switches per-tick debug logging. cmd/behaviord turns
// it on when the configured log level is debug.
func EnableDebugLogging(enabled bool) {
	debugLogging.Store(enabled)
}

// IsDebugEnabled reports whether per-tick debug logging is on. Guard
// debug calls with it:
//
//	if ai.IsDebugEnabled() {
//	    slog.Debug("schedule selected", "npc", n.Name(), "schedule", id)
//	}
func IsDebugEnabled() bool {
	return debugLogging.Load()
}
