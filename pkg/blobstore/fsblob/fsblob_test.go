package fsblob

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/epochfs/epochfs/pkg/blobstore"
	"github.com/epochfs/epochfs/pkg/blobstore/blobstoretest"
)

func TestFsblobStoreConformance(t *testing.T) {
	blobstoretest.Run(t, func(t *testing.T) blobstore.BlobStore {
		store, err := New(t.TempDir())
		require.NoError(t, err)
		return store
	})
}
