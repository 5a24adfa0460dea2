package logger

import "log/slog"

// Standard field keys for structured logging across EpochFS packages.
// Use these consistently so log lines stay greppable across backends.
const (
	KeyPath         = "path"
	KeyChunkID      = "chunk_id"
	KeyCheckpoint   = "checkpoint"
	KeyBackend      = "backend"
	KeyDataPrefix   = "data_prefix"
	KeyLogPrefix    = "log_prefix"
	KeySize         = "size"
	KeyChunkCount   = "chunk_count"
	KeyDurationMs   = "duration_ms"
	KeyError        = "error"
	KeyDeduplicated = "deduplicated"
	KeyAttempt      = "attempt"
)

// Path returns a slog.Attr for a logical file path.
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }

// ChunkID returns a slog.Attr for a content-addressed chunk id.
func ChunkID(id string) slog.Attr { return slog.String(KeyChunkID, id) }

// Checkpoint returns a slog.Attr for a checkpoint name.
func Checkpoint(name string) slog.Attr { return slog.String(KeyCheckpoint, name) }

// Backend returns a slog.Attr for the BlobStore/index backend name.
func Backend(name string) slog.Attr { return slog.String(KeyBackend, name) }

// Size returns a slog.Attr for a byte size.
func Size(n uint64) slog.Attr { return slog.Uint64(KeySize, n) }

// ChunkCount returns a slog.Attr for a number of chunks.
func ChunkCount(n int) slog.Attr { return slog.Int(KeyChunkCount, n) }

// DurationMs returns a slog.Attr for an operation duration in milliseconds.
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns a slog.Attr for an error, or a zero Attr if err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Deduplicated returns a slog.Attr noting whether a chunk write was elided.
func Deduplicated(v bool) slog.Attr { return slog.Bool(KeyDeduplicated, v) }

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr { return slog.Int(KeyAttempt, n) }
