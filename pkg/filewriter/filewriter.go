// Package filewriter streams arbitrary-sized byte appends into fixed
// 8 MiB content-addressed chunks through a chunk.Store, producing the
// ordered chunk list a namespace entry records for a file.
package filewriter

import (
	"context"
	"io"

	"github.com/epochfs/epochfs/internal/logger"
	"github.com/epochfs/epochfs/pkg/chunk"
	"github.com/epochfs/epochfs/pkg/wire"
)

// Writer buffers writes for one logical path and flushes full
// DEFAULT_CHUNK_SIZE chunks through a chunk.Store as they fill,
// finalizing any remainder on Close.
type Writer struct {
	ctx     context.Context
	store   *chunk.Store
	path    string
	pending [][]byte
	bufSize int
	total   uint64
	chunks  []string
	closed  bool
}

// New creates a Writer for path that writes chunks through store.
func New(ctx context.Context, store *chunk.Store, path string) *Writer {
	return &Writer{ctx: ctx, store: store, path: path}
}

// Write enqueues bytes and flushes any full chunks that result. The
// input slice is not retained past this call's flush; callers may
// reuse buf immediately after Write returns.
func (w *Writer) Write(buf []byte) error {
	if w.closed {
		return io.ErrClosedPipe
	}
	if len(buf) == 0 {
		return nil
	}

	copied := append([]byte(nil), buf...)
	w.pending = append(w.pending, copied)
	w.bufSize += len(copied)

	if w.bufSize >= chunk.DefaultChunkSize {
		return w.flush(false)
	}
	return nil
}

// Sink drains r, splitting any fragment that straddles the chunk
// boundary at the exact boundary so a ready chunk is never delayed by
// coalescing.
func (w *Writer) Sink(r io.Reader) error {
	buf := make([]byte, 64*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// concatPending flattens the queued fragments into one contiguous
// buffer. Fragments are small in number relative to chunk size (64KiB
// sink reads or caller-sized writes), so a single copy per flush is
// cheap compared to the chunk upload itself.
func (w *Writer) concatPending() []byte {
	out := make([]byte, 0, w.bufSize)
	for _, frag := range w.pending {
		out = append(out, frag...)
	}
	return out
}

func (w *Writer) flush(finish bool) error {
	view := w.concatPending()
	w.pending = nil

	offset := 0
	for w.bufSize >= chunk.DefaultChunkSize {
		piece := view[offset : offset+chunk.DefaultChunkSize]
		id, _, err := w.store.WriteChunk(w.ctx, piece)
		if err != nil {
			return err
		}
		w.chunks = append(w.chunks, string(id))
		w.total += uint64(len(piece))
		offset += chunk.DefaultChunkSize
		w.bufSize -= chunk.DefaultChunkSize
	}

	if w.bufSize == 0 {
		return nil
	}

	remainder := view[offset:]
	if finish {
		id, _, err := w.store.WriteChunk(w.ctx, remainder)
		if err != nil {
			return err
		}
		w.chunks = append(w.chunks, string(id))
		w.total += uint64(len(remainder))
		w.bufSize = 0
		return nil
	}

	w.pending = [][]byte{remainder}
	return nil
}

// Close flushes any remainder as a final chunk and returns the
// completed namespace entry.
func (w *Writer) Close() (wire.File, error) {
	if w.closed {
		return wire.File{}, io.ErrClosedPipe
	}
	if err := w.flush(true); err != nil {
		return wire.File{}, err
	}
	w.closed = true

	logger.DebugCtx(w.ctx, "file writer closed",
		logger.Path(w.path), logger.ChunkCount(len(w.chunks)), logger.Size(w.total))

	return wire.File{Path: w.path, Chunks: wire.FileChunks{Ids: w.chunks}}, nil
}

// TotalSize returns the number of bytes written so far, including any
// not yet flushed into a chunk.
func (w *Writer) TotalSize() uint64 {
	return w.total + uint64(w.bufSize)
}
