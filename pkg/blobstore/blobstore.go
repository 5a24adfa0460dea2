// Package blobstore defines the storage capability EpochFS is built on
// top of: a flat namespace of immutable, content-addressed blobs plus a
// small number of optionally-conditional writes used for the snapshot
// metadata pointer.
package blobstore

import "context"

// Stat describes an existing object's metadata.
type Stat struct {
	// Etag identifies the current revision of the object. Opaque;
	// callers only ever compare it for equality or pass it back as a
	// precondition to WriteIfMatch.
	Etag string

	// Size is the object's length in bytes.
	Size int64
}

// BlobStore is the storage capability every EpochFS component is built
// against. Implementations need not be content-addressed themselves;
// EpochFS only ever writes under names it already knows are unique
// (chunk ids) or names it mints itself (checkpoint names), except for
// the single conditionally-written metadata pointer used by the
// snapshot variant.
type BlobStore interface {
	// Write stores data under name, overwriting any existing object.
	Write(ctx context.Context, name string, data []byte) error

	// WriteIfMatch stores data under name only if the object's current
	// etag equals expectedEtag. Pass "*" to require that the object
	// does not exist yet. Returns epochfserr.ErrConcurrentWriter if the
	// precondition fails, or epochfserr.ErrEtagUnsupported if the
	// backend cannot evaluate the precondition at all.
	WriteIfMatch(ctx context.Context, name string, data []byte, expectedEtag string) error

	// Read returns the full contents of name. Returns
	// epochfserr.ErrNotFound if it does not exist.
	Read(ctx context.Context, name string) ([]byte, error)

	// Exists reports whether name is present.
	Exists(ctx context.Context, name string) (bool, error)

	// Stat returns metadata for name. Returns epochfserr.ErrNotFound if
	// it does not exist.
	Stat(ctx context.Context, name string) (Stat, error)

	// List returns every object name with the given prefix, in no
	// particular order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// HealthChecker is an optional capability a BlobStore backend may
// implement to report connectivity independent of any particular
// object operation.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
