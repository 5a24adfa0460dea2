// Package checkpoint implements the snapshot engine: packing a
// namespace.Index into files-blobs and recording a Checkpoint pointer
// to them, plus loading a checkpoint back into an index.
package checkpoint

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/epochfs/epochfs/internal/logger"
	"github.com/epochfs/epochfs/pkg/blobstore"
	"github.com/epochfs/epochfs/pkg/chunk"
	"github.com/epochfs/epochfs/pkg/epochfserr"
	"github.com/epochfs/epochfs/pkg/namespace"
	"github.com/epochfs/epochfs/pkg/wire"
)

// DefaultLogPrefix is the BlobStore prefix checkpoint records are
// written under when a caller does not configure one explicitly.
const DefaultLogPrefix = "logs/"

// filesBlobSizeLimit is the boundary on encoded File-record bytes per
// files-blob. The boundary is checked after appending each File, so the
// actual emitted blob may slightly exceed it.
const filesBlobSizeLimit = 8 * 1024 * 1024

// Engine packs a namespace.Index into the BlobStore and recovers it.
// Files-blobs are content-addressed and go through the ChunkStore;
// the Checkpoint record itself is named by the caller (a fresh
// uuid_v7), so it is written directly against the BlobStore.
type Engine struct {
	blobs           blobstore.BlobStore
	store           *chunk.Store
	index           namespace.Index
	logPrefix       string
	filesBlobLimit  int
}

// New creates an Engine writing checkpoint records under logPrefix. An
// empty logPrefix defaults to DefaultLogPrefix.
func New(blobs blobstore.BlobStore, store *chunk.Store, index namespace.Index, logPrefix string) *Engine {
	if logPrefix == "" {
		logPrefix = DefaultLogPrefix
	}
	return &Engine{blobs: blobs, store: store, index: index, logPrefix: logPrefix, filesBlobLimit: filesBlobSizeLimit}
}

// WithFilesBlobSizeLimit overrides the default 8 MiB boundary on
// encoded File-record bytes per files-blob.
func (e *Engine) WithFilesBlobSizeLimit(limit int) *Engine {
	if limit > 0 {
		e.filesBlobLimit = limit
	}
	return e
}

func (e *Engine) name(checkpointName string) string {
	return e.logPrefix + checkpointName + ".checkpoint"
}

// Commit packs every entry currently in the index into one or more
// files-blobs, each written through the ChunkStore so two checkpoints
// over an unchanged namespace share all files-blobs, and records a
// Checkpoint pointing at the resulting chunk ids under a fresh
// uuid_v7 name.
func (e *Engine) Commit(ctx context.Context) (string, error) {
	entries, err := e.index.ListFiles(ctx)
	if err != nil {
		return "", epochfserr.Wrap("checkpoint.commit", "", "", err)
	}

	var filesChunkIds []string
	var batch []wire.File
	batchEncodedSize := 0

	flushBatch := func() error {
		if len(batch) == 0 {
			return nil
		}
		encoded, err := wire.EncodeFiles(wire.Files{Files: batch})
		if err != nil {
			return err
		}
		id, _, err := e.store.WriteChunk(ctx, encoded)
		if err != nil {
			return err
		}
		filesChunkIds = append(filesChunkIds, string(id))
		batch = nil
		batchEncodedSize = 0
		return nil
	}

	for _, entry := range entries {
		encodedLen, err := wire.EncodedSize(entry)
		if err != nil {
			return "", epochfserr.Wrap("checkpoint.commit", entry.Path, "", err)
		}

		batch = append(batch, entry)
		batchEncodedSize += encodedLen

		if batchEncodedSize >= e.filesBlobLimit {
			if err := flushBatch(); err != nil {
				return "", epochfserr.Wrap("checkpoint.commit", "", "", err)
			}
		}
	}
	if err := flushBatch(); err != nil {
		return "", epochfserr.Wrap("checkpoint.commit", "", "", err)
	}

	checkpointName := uuid.Must(uuid.NewV7()).String()
	encoded, err := wire.EncodeCheckpoint(wire.Checkpoint{Chunks: wire.FileChunks{Ids: filesChunkIds}})
	if err != nil {
		return "", epochfserr.Wrap("checkpoint.commit", checkpointName, "", err)
	}

	if err := e.blobs.Write(ctx, e.name(checkpointName), encoded); err != nil {
		return "", epochfserr.Wrap("checkpoint.commit", checkpointName, "", err)
	}

	logger.InfoCtx(ctx, "checkpoint committed",
		logger.Checkpoint(checkpointName), logger.ChunkCount(len(filesChunkIds)), logger.ChunkCount(len(entries)))

	return checkpointName, nil
}

// Load reads checkpointName, decodes its Checkpoint record, reads and
// decodes every referenced files-blob in order, and bulk-inserts every
// (path, chunks) pair into the index in a single batched write per
// files-blob. It does not clear the existing index; it merges.
func (e *Engine) Load(ctx context.Context, checkpointName string) error {
	raw, err := e.blobs.Read(ctx, e.name(checkpointName))
	if err != nil {
		return epochfserr.Wrap("checkpoint.load", checkpointName, "", err)
	}

	cp, err := wire.DecodeCheckpoint(raw)
	if err != nil {
		return epochfserr.Wrap("checkpoint.load", checkpointName, "", err)
	}

	inserter, ok := e.index.(namespace.BulkInserter)
	if !ok {
		return fmt.Errorf("checkpoint.load: namespace index does not support bulk insert")
	}

	for _, id := range cp.Chunks.Ids {
		encoded, err := e.store.ReadChunk(ctx, chunk.ID(id))
		if err != nil {
			return epochfserr.Wrap("checkpoint.load", checkpointName, "", err)
		}

		files, err := wire.DecodeFiles(encoded)
		if err != nil {
			return epochfserr.Wrap("checkpoint.load", checkpointName, "", err)
		}

		if err := inserter.BulkInsert(ctx, files.Files); err != nil {
			return epochfserr.Wrap("checkpoint.load", checkpointName, "", err)
		}
	}

	logger.InfoCtx(ctx, "checkpoint loaded", logger.Checkpoint(checkpointName), logger.ChunkCount(len(cp.Chunks.Ids)))
	return nil
}
