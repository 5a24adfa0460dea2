// Package epochfs is the public library surface: the Fs facade that
// bundles a ChunkStore, a NamespaceIndex, and a Checkpoint engine over
// a caller-supplied BlobStore.
package epochfs

import (
	"context"
	"io"

	"github.com/epochfs/epochfs/internal/logger"
	"github.com/epochfs/epochfs/pkg/blobstore"
	"github.com/epochfs/epochfs/pkg/checkpoint"
	"github.com/epochfs/epochfs/pkg/chunk"
	"github.com/epochfs/epochfs/pkg/epochfserr"
	"github.com/epochfs/epochfs/pkg/epochfsconfig"
	"github.com/epochfs/epochfs/pkg/filereader"
	"github.com/epochfs/epochfs/pkg/filewriter"
	"github.com/epochfs/epochfs/pkg/namespace"
	"github.com/epochfs/epochfs/pkg/namespace/memoryindex"
	"github.com/epochfs/epochfs/pkg/wire"
)

// metadataName is the object name of the conditionally-written
// snapshot metadata pointer used by the snapshot variant.
const metadataName = "metadata"

// Fs bundles a ChunkStore, a NamespaceIndex, and a Checkpoint engine
// over one BlobStore. The zero value is not usable; construct with
// New.
type Fs struct {
	blobs     blobstore.BlobStore
	store     *chunk.Store
	index     namespace.Index
	checkpoint *checkpoint.Engine

	// previousEtag tracks the metadata pointer's etag as of
	// construction or the last successful WriteMetadata, for the
	// optional snapshot variant's conditional write.
	previousEtag string
}

// Option configures Fs construction.
type Option func(*options)

type options struct {
	index namespace.Index
}

// WithIndex supplies a namespace.Index implementation other than the
// default in-memory one, e.g. a badgerindex.Index.
func WithIndex(index namespace.Index) Option {
	return func(o *options) { o.index = index }
}

// New constructs an Fs over blobs using cfg's prefixes and size limits.
// Construction always reads the current metadata pointer etag for the
// snapshot variant's conditional write, which is why it takes a
// context.
func New(ctx context.Context, blobs blobstore.BlobStore, cfg epochfsconfig.Config, opts ...Option) (*Fs, error) {
	cfg = cfg.WithDefaults()

	o := &options{index: memoryindex.New()}
	for _, opt := range opts {
		opt(o)
	}

	store := chunk.New(blobs, cfg.DataPrefix)
	engine := checkpoint.New(blobs, store, o.index, cfg.LogPrefix).
		WithFilesBlobSizeLimit(int(cfg.FilesBlobSizeLimit))

	fs := &Fs{blobs: blobs, store: store, index: o.index, checkpoint: engine}

	etag := ""
	if st, err := blobs.Stat(ctx, metadataName); err == nil {
		etag = st.Etag
	}
	fs.previousEtag = etag

	logger.InfoCtx(ctx, "epochfs opened", logger.Backend(""), logger.Path(cfg.DataPrefix))
	return fs, nil
}

// File is a handle bound to a path, either a Writer in progress or a
// completed entry ready to read.
type File struct {
	fs      *Fs
	path    string
	writer  *filewriter.Writer
}

// CreateFile opens path for writing. It fails with
// epochfserr.ErrAlreadyExists only at Commit time, matching the
// namespace's single conflict point; the returned handle itself never
// fails on an existing path, since nothing is inserted into the index
// until the writer is committed.
func (fs *Fs) CreateFile(ctx context.Context, path string) *File {
	return &File{fs: fs, path: path, writer: filewriter.New(ctx, fs.store, path)}
}

// Write appends bytes to an in-progress File created by CreateFile.
func (f *File) Write(buf []byte) error {
	return f.writer.Write(buf)
}

// Sink drains an external byte stream into an in-progress File.
func (f *File) Sink(r io.Reader) error {
	return f.writer.Sink(r)
}

// Commit flushes any buffered bytes and inserts the resulting chunk
// list into the namespace index under the handle's path, failing with
// epochfserr.ErrAlreadyExists on a path conflict.
func (f *File) Commit(ctx context.Context) error {
	entry, err := f.writer.Close()
	if err != nil {
		return err
	}
	return f.fs.index.CommitFile(ctx, entry.Path, entry.Chunks)
}

// Path returns the handle's logical path.
func (f *File) Path() string { return f.path }

// OpenFile returns a reader over path's committed content, or false if
// path is not present in the namespace.
func (fs *Fs) OpenFile(ctx context.Context, path string) (*filereader.Reader, bool, error) {
	chunks, found, err := fs.index.OpenFile(ctx, path)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return filereader.New(ctx, fs.store, wire.File{Path: path, Chunks: chunks}), true, nil
}

// CheckFile reports whether path is present in the namespace.
func (fs *Fs) CheckFile(ctx context.Context, path string) (bool, error) {
	return fs.index.CheckFile(ctx, path)
}

// ListFiles returns every file currently in the namespace.
func (fs *Fs) ListFiles(ctx context.Context) ([]wire.File, error) {
	return fs.index.ListFiles(ctx)
}

// Commit snapshots the current namespace into the BlobStore and
// returns the resulting checkpoint name.
func (fs *Fs) Commit(ctx context.Context) (string, error) {
	return fs.checkpoint.Commit(ctx)
}

// Load merges checkpointName's namespace into the current index. It
// does not clear existing entries.
func (fs *Fs) Load(ctx context.Context, checkpointName string) error {
	return fs.checkpoint.Load(ctx, checkpointName)
}

// WriteMetadata performs the snapshot variant's conditional pointer
// write: write_if_match("metadata", manifestRef, previous_etag). A
// lost precondition race is surfaced as epochfserr.ErrConcurrentWriter.
// On success, the tracked etag advances so a subsequent call races
// against this write instead of the one before it.
func (fs *Fs) WriteMetadata(ctx context.Context, manifestRef []byte) error {
	expected := fs.previousEtag
	if expected == "" {
		expected = "*"
	}

	if err := fs.blobs.WriteIfMatch(ctx, metadataName, manifestRef, expected); err != nil {
		return epochfserr.Wrap("fs.write_metadata", metadataName, "", err)
	}

	st, err := fs.blobs.Stat(ctx, metadataName)
	if err != nil {
		return epochfserr.Wrap("fs.write_metadata", metadataName, "", err)
	}
	fs.previousEtag = st.Etag
	return nil
}
