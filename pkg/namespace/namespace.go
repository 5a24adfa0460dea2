// Package namespace defines the NamespaceIndex capability: an
// in-process key/value index mapping a path to its ordered chunk-id
// list. The index is a session-local cache of a checkpoint;
// persistence is achieved by emitting checkpoints, not by persisting
// the index itself.
package namespace

import (
	"context"

	"github.com/epochfs/epochfs/pkg/wire"
)

// Index is the NamespaceIndex capability. Implementations must support
// concurrent read queries with a single writer at a time, matching the
// conflict semantics of a `path PRIMARY KEY` table.
type Index interface {
	// CommitFile inserts path with the given chunk list. Fails with
	// epochfserr.ErrAlreadyExists if path is already present.
	CommitFile(ctx context.Context, path string, chunks wire.FileChunks) error

	// OpenFile returns the chunk list for path and true, or false if
	// path is absent.
	OpenFile(ctx context.Context, path string) (wire.FileChunks, bool, error)

	// CheckFile reports whether path is present.
	CheckFile(ctx context.Context, path string) (bool, error)

	// ListFiles returns every (path, chunks) entry, in no particular
	// order but stable within one call.
	ListFiles(ctx context.Context) ([]wire.File, error)
}

// BulkInserter is an optional capability used by the checkpoint
// engine's load() to insert every entry of a decoded Files batch as
// one write. Implementations fail on the first path collision; it is
// not required to be atomic across the whole batch with respect to a
// concurrent reader, only with respect to other writers.
type BulkInserter interface {
	BulkInsert(ctx context.Context, files []wire.File) error
}
