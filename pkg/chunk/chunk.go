// Package chunk implements content-addressed chunk storage: the
// ChunkId format and the ChunkStore that deduplicates writes against a
// BlobStore.
package chunk

import (
	"context"
	"encoding/base64"

	"lukechampine.com/blake3"

	"github.com/epochfs/epochfs/internal/logger"
	"github.com/epochfs/epochfs/pkg/blobstore"
	"github.com/epochfs/epochfs/pkg/epochfserr"
)

// DefaultChunkSize is the target size of one data chunk (8 MiB). The
// last chunk of a file may be anywhere from 1 byte to DefaultChunkSize.
const DefaultChunkSize = 8 * 1024 * 1024

// DefaultDataPrefix is the BlobStore prefix data chunks are written
// under when a caller does not configure one explicitly.
const DefaultDataPrefix = "data/"

// ID is a content-addressed chunk identifier: the unpadded, URL-safe
// base64 encoding of the BLAKE3-256 digest of the chunk's bytes. It is
// always 43 ASCII characters from [A-Za-z0-9_-].
type ID string

// ComputeID returns the ID of data without writing anything.
func ComputeID(data []byte) ID {
	digest := blake3.Sum256(data)
	return ID(base64.RawURLEncoding.EncodeToString(digest[:]))
}

// Store writes and reads chunks by content address against a
// BlobStore, deduplicating writes: a chunk already present under its
// computed id is never re-uploaded.
type Store struct {
	blobs      blobstore.BlobStore
	dataPrefix string
}

// New creates a Store that reads and writes chunks under dataPrefix in
// blobs. An empty dataPrefix defaults to DefaultDataPrefix.
func New(blobs blobstore.BlobStore, dataPrefix string) *Store {
	if dataPrefix == "" {
		dataPrefix = DefaultDataPrefix
	}
	return &Store{blobs: blobs, dataPrefix: dataPrefix}
}

func (s *Store) name(id ID) string {
	return s.dataPrefix + string(id)
}

// WriteChunk computes data's content address, writes it if and only if
// no chunk with that address already exists, and returns the id plus
// whether the write was elided as a duplicate.
func (s *Store) WriteChunk(ctx context.Context, data []byte) (ID, bool, error) {
	id := ComputeID(data)
	name := s.name(id)

	exists, err := s.blobs.Exists(ctx, name)
	if err != nil {
		return "", false, epochfserr.Wrap("chunk.write_chunk", string(id), "", err)
	}
	if exists {
		logger.DebugCtx(ctx, "chunk deduplicated", logger.ChunkID(string(id)), logger.Size(uint64(len(data))))
		return id, true, nil
	}

	if err := s.blobs.Write(ctx, name, data); err != nil {
		return "", false, epochfserr.Wrap("chunk.write_chunk", string(id), "", err)
	}

	logger.DebugCtx(ctx, "chunk written", logger.ChunkID(string(id)), logger.Size(uint64(len(data))))
	return id, false, nil
}

// ReadChunk returns the bytes behind id.
func (s *Store) ReadChunk(ctx context.Context, id ID) ([]byte, error) {
	data, err := s.blobs.Read(ctx, s.name(id))
	if err != nil {
		return nil, epochfserr.Wrap("chunk.read_chunk", string(id), "", err)
	}
	return data, nil
}
