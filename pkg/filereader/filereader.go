// Package filereader produces a lazy byte stream over a file's chunks,
// read in order through a chunk.Store.
package filereader

import (
	"bytes"
	"context"
	"io"

	"github.com/epochfs/epochfs/pkg/chunk"
	"github.com/epochfs/epochfs/pkg/wire"
)

// Reader reads a file's chunks, in order, one at a time. It does not
// prefetch; each Next call issues exactly one ChunkStore read.
type Reader struct {
	ctx    context.Context
	store  *chunk.Store
	chunks []string
	next   int
}

// New creates a Reader over file's chunk list.
func New(ctx context.Context, store *chunk.Store, file wire.File) *Reader {
	return &Reader{ctx: ctx, store: store, chunks: file.Chunks.Ids}
}

// Next returns the bytes of the next chunk, or io.EOF once every chunk
// has been read.
func (r *Reader) Next() ([]byte, error) {
	if r.next >= len(r.chunks) {
		return nil, io.EOF
	}
	id := chunk.ID(r.chunks[r.next])
	r.next++
	return r.store.ReadChunk(r.ctx, id)
}

// Stream returns a range-over-func iterator yielding one chunk's bytes
// per step, stopping early if the error return is non-nil or the
// caller's yield function returns false.
func (r *Reader) Stream() func(yield func([]byte, error) bool) {
	return func(yield func([]byte, error) bool) {
		for {
			data, err := r.Next()
			if err == io.EOF {
				return
			}
			if !yield(data, err) {
				return
			}
			if err != nil {
				return
			}
		}
	}
}

// Read materializes every chunk into a single contiguous buffer.
// Callers opt into the memory cost of the full file.
func (r *Reader) Read() ([]byte, error) {
	var buf bytes.Buffer
	for {
		data, err := r.Next()
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
}
