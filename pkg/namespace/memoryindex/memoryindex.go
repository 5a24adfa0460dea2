// Package memoryindex implements namespace.Index with a
// sync.RWMutex-guarded map, matching the in-process key/value table the
// specification describes.
package memoryindex

import (
	"context"
	"sync"

	"github.com/epochfs/epochfs/internal/logger"
	"github.com/epochfs/epochfs/pkg/epochfserr"
	"github.com/epochfs/epochfs/pkg/namespace"
	"github.com/epochfs/epochfs/pkg/wire"
)

// Index is an in-memory namespace.Index. Zero value is not usable; use
// New.
type Index struct {
	mu      sync.RWMutex
	entries map[string]wire.FileChunks
}

// New creates an empty Index.
func New() *Index {
	return &Index{entries: make(map[string]wire.FileChunks)}
}

func (idx *Index) CommitFile(ctx context.Context, path string, chunks wire.FileChunks) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.entries[path]; exists {
		return epochfserr.New("namespace.commit_file", path, "memory", epochfserr.ErrAlreadyExists)
	}
	idx.entries[path] = chunks

	logger.DebugCtx(ctx, "file committed to namespace", logger.Path(path), logger.ChunkCount(len(chunks.Ids)))
	return nil
}

func (idx *Index) OpenFile(ctx context.Context, path string) (wire.FileChunks, bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	chunks, exists := idx.entries[path]
	return chunks, exists, nil
}

func (idx *Index) CheckFile(ctx context.Context, path string) (bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	_, exists := idx.entries[path]
	return exists, nil
}

func (idx *Index) ListFiles(ctx context.Context) ([]wire.File, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	files := make([]wire.File, 0, len(idx.entries))
	for path, chunks := range idx.entries {
		files = append(files, wire.File{Path: path, Chunks: chunks})
	}
	return files, nil
}

// BulkInsert inserts every entry in files in a single write, used by
// the checkpoint engine's load() to merge a snapshot into the index
// atomically with respect to concurrent readers. It fails with
// epochfserr.ErrAlreadyExists on the first path collision; entries
// inserted before the collision remain.
func (idx *Index) BulkInsert(ctx context.Context, files []wire.File) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, f := range files {
		if _, exists := idx.entries[f.Path]; exists {
			return epochfserr.New("namespace.bulk_insert", f.Path, "memory", epochfserr.ErrAlreadyExists)
		}
		idx.entries[f.Path] = f.Chunks
	}
	return nil
}

var _ namespace.Index = (*Index)(nil)
