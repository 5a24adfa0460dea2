package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epochfs/epochfs/pkg/blobstore/memory"
	"github.com/epochfs/epochfs/pkg/chunk"
	"github.com/epochfs/epochfs/pkg/namespace/memoryindex"
	"github.com/epochfs/epochfs/pkg/wire"
)

func TestCommitThenLoadIntoFreshIndexReproducesNamespace(t *testing.T) {
	ctx := context.Background()
	blobs := memory.New()
	store := chunk.New(blobs, "")
	index := memoryindex.New()

	require.NoError(t, index.CommitFile(ctx, "hello.txt", wire.FileChunks{Ids: []string{"c1"}}))
	require.NoError(t, index.CommitFile(ctx, "dir/nested.bin", wire.FileChunks{Ids: []string{"c2", "c3"}}))

	engine := New(blobs, store, index, "")
	name, err := engine.Commit(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, name)

	freshIndex := memoryindex.New()
	freshEngine := New(blobs, store, freshIndex, "")
	require.NoError(t, freshEngine.Load(ctx, name))

	ok, err := freshIndex.CheckFile(ctx, "hello.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	chunks, found, err := freshIndex.OpenFile(ctx, "dir/nested.bin")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"c2", "c3"}, chunks.Ids)
}

func TestCommitWritesCheckpointUnderLogPrefix(t *testing.T) {
	ctx := context.Background()
	blobs := memory.New()
	store := chunk.New(blobs, "")
	index := memoryindex.New()
	require.NoError(t, index.CommitFile(ctx, "a.txt", wire.FileChunks{Ids: []string{"c1"}}))

	engine := New(blobs, store, index, "")
	name, err := engine.Commit(ctx)
	require.NoError(t, err)

	exists, err := blobs.Exists(ctx, DefaultLogPrefix+name+".checkpoint")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLoadMergesIntoExistingIndexWithoutClearing(t *testing.T) {
	ctx := context.Background()
	blobs := memory.New()
	store := chunk.New(blobs, "")
	producer := memoryindex.New()
	require.NoError(t, producer.CommitFile(ctx, "snapshot.txt", wire.FileChunks{Ids: []string{"c1"}}))

	engine := New(blobs, store, producer, "")
	name, err := engine.Commit(ctx)
	require.NoError(t, err)

	consumer := memoryindex.New()
	require.NoError(t, consumer.CommitFile(ctx, "local-only.txt", wire.FileChunks{Ids: []string{"c9"}}))

	consumerEngine := New(blobs, store, consumer, "")
	require.NoError(t, consumerEngine.Load(ctx, name))

	ok, err := consumer.CheckFile(ctx, "local-only.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = consumer.CheckFile(ctx, "snapshot.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoadFailsOnPathConflict(t *testing.T) {
	ctx := context.Background()
	blobs := memory.New()
	store := chunk.New(blobs, "")
	producer := memoryindex.New()
	require.NoError(t, producer.CommitFile(ctx, "dup.txt", wire.FileChunks{Ids: []string{"c1"}}))

	engine := New(blobs, store, producer, "")
	name, err := engine.Commit(ctx)
	require.NoError(t, err)

	consumer := memoryindex.New()
	require.NoError(t, consumer.CommitFile(ctx, "dup.txt", wire.FileChunks{Ids: []string{"other"}}))

	consumerEngine := New(blobs, store, consumer, "")
	err = consumerEngine.Load(ctx, name)
	assert.Error(t, err)
}
