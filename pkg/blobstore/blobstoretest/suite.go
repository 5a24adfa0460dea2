// Package blobstoretest provides a shared conformance suite that every
// blobstore.BlobStore backend is expected to pass, so memory, fsblob,
// and s3 are exercised against the exact same behavioral contract.
package blobstoretest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epochfs/epochfs/pkg/blobstore"
	"github.com/epochfs/epochfs/pkg/epochfserr"
)

// Run exercises store against the full BlobStore contract. newStore is
// called once per subtest so each subtest starts from a clean backend.
func Run(t *testing.T, newStore func(t *testing.T) blobstore.BlobStore) {
	t.Helper()

	t.Run("write then read round trips", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		require.NoError(t, store.Write(ctx, "data/abc", []byte("hello world")))

		got, err := store.Read(ctx, "data/abc")
		require.NoError(t, err)
		assert.Equal(t, []byte("hello world"), got)
	})

	t.Run("read of missing name is not found", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		_, err := store.Read(ctx, "does/not/exist")
		require.Error(t, err)
		assert.True(t, errors.Is(err, epochfserr.ErrNotFound))
	})

	t.Run("exists reflects writes", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		ok, err := store.Exists(ctx, "data/xyz")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, store.Write(ctx, "data/xyz", []byte("v1")))

		ok, err = store.Exists(ctx, "data/xyz")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("write overwrites an existing object", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		require.NoError(t, store.Write(ctx, "data/abc", []byte("v1")))
		require.NoError(t, store.Write(ctx, "data/abc", []byte("v2")))

		got, err := store.Read(ctx, "data/abc")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("stat of missing name is not found", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		_, err := store.Stat(ctx, "missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, epochfserr.ErrNotFound))
	})

	t.Run("stat reports size", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		require.NoError(t, store.Write(ctx, "data/sized", []byte("twelve bytes")))

		st, err := store.Stat(ctx, "data/sized")
		require.NoError(t, err)
		assert.Equal(t, int64(len("twelve bytes")), st.Size)
		assert.NotEmpty(t, st.Etag)
	})

	t.Run("write_if_match star fails once object exists", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		require.NoError(t, store.WriteIfMatch(ctx, "metadata", []byte("first"), "*"))

		err := store.WriteIfMatch(ctx, "metadata", []byte("second"), "*")
		require.Error(t, err)
		assert.True(t, errors.Is(err, epochfserr.ErrConcurrentWriter))

		got, err := store.Read(ctx, "metadata")
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), got)
	})

	t.Run("write_if_match with current etag succeeds", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		require.NoError(t, store.WriteIfMatch(ctx, "metadata", []byte("v1"), "*"))

		st, err := store.Stat(ctx, "metadata")
		require.NoError(t, err)

		require.NoError(t, store.WriteIfMatch(ctx, "metadata", []byte("v2"), st.Etag))

		got, err := store.Read(ctx, "metadata")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("write_if_match with stale etag is concurrent writer", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		require.NoError(t, store.WriteIfMatch(ctx, "metadata", []byte("v1"), "*"))
		st, err := store.Stat(ctx, "metadata")
		require.NoError(t, err)

		require.NoError(t, store.WriteIfMatch(ctx, "metadata", []byte("v2"), st.Etag))

		err = store.WriteIfMatch(ctx, "metadata", []byte("v3"), st.Etag)
		require.Error(t, err)
		assert.True(t, errors.Is(err, epochfserr.ErrConcurrentWriter))
	})

	t.Run("list returns names with matching prefix", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		require.NoError(t, store.Write(ctx, "data/a", []byte("1")))
		require.NoError(t, store.Write(ctx, "data/b", []byte("2")))
		require.NoError(t, store.Write(ctx, "logs/c", []byte("3")))

		names, err := store.List(ctx, "data/")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"data/a", "data/b"}, names)
	})
}
