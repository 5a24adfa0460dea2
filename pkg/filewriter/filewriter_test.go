package filewriter

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epochfs/epochfs/pkg/blobstore/memory"
	"github.com/epochfs/epochfs/pkg/chunk"
)

func repeat(b byte, n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = b
	}
	return buf
}

func TestThreeWritesSpanningOneChunkBoundary(t *testing.T) {
	ctx := context.Background()
	store := chunk.New(memory.New(), "")
	w := New(ctx, store, "hello.bin")

	const threeMiB = 3 * 1024 * 1024
	require.NoError(t, w.Write(repeat('a', threeMiB)))
	require.NoError(t, w.Write(repeat('b', threeMiB)))
	require.NoError(t, w.Write(repeat('c', threeMiB)))

	file, err := w.Close()
	require.NoError(t, err)

	require.Len(t, file.Chunks.Ids, 2)

	first, err := store.ReadChunk(ctx, chunk.ID(file.Chunks.Ids[0]))
	require.NoError(t, err)
	assert.Len(t, first, chunk.DefaultChunkSize)

	second, err := store.ReadChunk(ctx, chunk.ID(file.Chunks.Ids[1]))
	require.NoError(t, err)
	assert.Len(t, second, 1*1024*1024)

	want := append(append(repeat('a', threeMiB), repeat('b', threeMiB)...), repeat('c', threeMiB)...)
	got := append(append([]byte(nil), first...), second...)
	assert.Equal(t, want, got)
}

func TestEmptyFileProducesNoChunks(t *testing.T) {
	ctx := context.Background()
	store := chunk.New(memory.New(), "")
	w := New(ctx, store, "empty.bin")

	file, err := w.Close()
	require.NoError(t, err)
	assert.Empty(t, file.Chunks.Ids)
	assert.Equal(t, "empty.bin", file.Path)
}

func TestSinkSplitsAtChunkBoundary(t *testing.T) {
	ctx := context.Background()
	store := chunk.New(memory.New(), "")
	w := New(ctx, store, "stream.bin")

	data := repeat('x', chunk.DefaultChunkSize+100)
	require.NoError(t, w.Sink(bytes.NewReader(data)))

	file, err := w.Close()
	require.NoError(t, err)
	require.Len(t, file.Chunks.Ids, 2)

	last, err := store.ReadChunk(ctx, chunk.ID(file.Chunks.Ids[1]))
	require.NoError(t, err)
	assert.Len(t, last, 100)
}

func TestWriteAfterCloseFails(t *testing.T) {
	ctx := context.Background()
	store := chunk.New(memory.New(), "")
	w := New(ctx, store, "x.bin")

	_, err := w.Close()
	require.NoError(t, err)

	err = w.Write([]byte("more"))
	assert.Error(t, err)
}

func TestTotalSizeTracksUnflushedBytes(t *testing.T) {
	ctx := context.Background()
	store := chunk.New(memory.New(), "")
	w := New(ctx, store, "partial.bin")

	require.NoError(t, w.Write(repeat('a', 1024)))
	assert.Equal(t, uint64(1024), w.TotalSize())
}
