package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds session-scoped logging context: which backend and
// prefixes a given Fs/ChunkStore/Checkpoint call is operating against.
// A caller attaches it to a context.Context with WithContext; the *Ctx
// logging functions read it back so every line logged with that context
// carries the same fields without callers repeating them. Nothing in
// this module attaches one itself.
type LogContext struct {
	Backend   string // blobstore backend name: memory, fsblob, s3, badger
	DataPrefix string
	LogPrefix  string
	StartTime time.Time
}

// WithContext returns a new context carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from ctx, or nil if absent.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a LogContext for a session against the named backend.
func NewLogContext(backend string) *LogContext {
	return &LogContext{Backend: backend, StartTime: time.Now()}
}

// Clone returns a copy of lc.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithPrefixes returns a copy with the data/log prefixes set.
func (lc *LogContext) WithPrefixes(dataPrefix, logPrefix string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.DataPrefix = dataPrefix
		clone.LogPrefix = logPrefix
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
