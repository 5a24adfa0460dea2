package filereader

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epochfs/epochfs/pkg/blobstore/memory"
	"github.com/epochfs/epochfs/pkg/chunk"
	"github.com/epochfs/epochfs/pkg/filewriter"
)

func TestReadMaterializesFullContent(t *testing.T) {
	ctx := context.Background()
	store := chunk.New(memory.New(), "")

	w := filewriter.New(ctx, store, "hello.txt")
	require.NoError(t, w.Write([]byte("hello world")))
	file, err := w.Close()
	require.NoError(t, err)

	reader := New(ctx, store, file)
	data, err := reader.Read()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)
}

func TestStreamYieldsChunksInOrder(t *testing.T) {
	ctx := context.Background()
	store := chunk.New(memory.New(), "")

	threeMiB := make([]byte, 3*1024*1024)
	for i := range threeMiB {
		threeMiB[i] = 'a'
	}

	w := filewriter.New(ctx, store, "big.bin")
	require.NoError(t, w.Write(threeMiB))
	require.NoError(t, w.Write(threeMiB))
	require.NoError(t, w.Write(threeMiB))
	file, err := w.Close()
	require.NoError(t, err)
	require.Len(t, file.Chunks.Ids, 2)

	reader := New(ctx, store, file)

	var sizes []int
	for data, err := range reader.Stream() {
		require.NoError(t, err)
		sizes = append(sizes, len(data))
	}
	assert.Equal(t, []int{chunk.DefaultChunkSize, 1 * 1024 * 1024}, sizes)
}

func TestNextReturnsEOFAfterLastChunk(t *testing.T) {
	ctx := context.Background()
	store := chunk.New(memory.New(), "")

	w := filewriter.New(ctx, store, "empty.bin")
	file, err := w.Close()
	require.NoError(t, err)

	reader := New(ctx, store, file)
	_, err = reader.Next()
	assert.ErrorIs(t, err, io.EOF)
}
