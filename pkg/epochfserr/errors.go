// Package epochfserr defines the error taxonomy shared by every EpochFS
// package: sentinel values callers can match with errors.Is, plus a
// structured wrapper that attaches operational context without losing
// that matchability.
package epochfserr

import (
	"errors"
	"fmt"
)

// Sentinel errors matching the taxonomy of spec section 7. Callers
// should use errors.Is against these values; never compare error
// strings directly.
var (
	// ErrNotFound indicates a chunk or checkpoint name is absent from
	// the backing BlobStore.
	ErrNotFound = errors.New("epochfs: not found")

	// ErrAlreadyExists indicates a path conflict at create_file or
	// commit_file.
	ErrAlreadyExists = errors.New("epochfs: already exists")

	// ErrDecodeError indicates a malformed encoded payload (a Files,
	// Checkpoint, or Metadata record that failed to decode).
	ErrDecodeError = errors.New("epochfs: decode error")

	// ErrConcurrentWriter indicates a conditional metadata write lost
	// its precondition race (snapshot variant only).
	ErrConcurrentWriter = errors.New("epochfs: concurrent writer")

	// ErrEtagUnsupported indicates the backend cannot produce an etag
	// for an existing metadata object (snapshot variant only).
	ErrEtagUnsupported = errors.New("epochfs: etag unsupported by backend")

	// ErrBackend wraps an opaque error surfaced by the BlobStore or
	// index store capability.
	ErrBackend = errors.New("epochfs: backend error")
)

// Error wraps a sentinel error with the operation, the object it was
// acting on (a path or chunk id), and the backend involved, matching
// dittofs's PayloadError convention of attaching rich debugging context
// to sentinel errors without breaking errors.Is/errors.As.
type Error struct {
	// Op names the operation that failed, e.g. "chunk.write_chunk",
	// "namespace.commit_file", "checkpoint.commit".
	Op string

	// Object is the path, chunk id, or checkpoint name involved.
	Object string

	// Backend names the BlobStore/index implementation, e.g.
	// "memory", "fsblob", "s3", "badger".
	Backend string

	// Err is the wrapped sentinel error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("epochfs: %s %q: %v", e.Op, e.Object, e.Err)
	}
	return fmt.Sprintf("epochfs: %s %q (backend=%s): %v", e.Op, e.Object, e.Backend, e.Err)
}

// Unwrap returns the wrapped sentinel error so errors.Is/errors.As see
// through this wrapper.
func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error wrapping err with operational context.
func New(op, object, backend string, err error) *Error {
	return &Error{Op: op, Object: object, Backend: backend, Err: err}
}

// knownSentinels lists the taxonomy Wrap checks err against before
// falling back to ErrBackend, so an error that already carries a more
// specific meaning (e.g. ErrNotFound surfacing from a lower layer)
// keeps that identity instead of being flattened into an opaque
// backend failure.
var knownSentinels = []error{
	ErrNotFound,
	ErrAlreadyExists,
	ErrDecodeError,
	ErrConcurrentWriter,
	ErrEtagUnsupported,
}

// Wrap attaches operational context to err. If err already matches one
// of the package's sentinels, that identity is preserved; otherwise it
// is classified as ErrBackend, preserving the original error text via
// %w so errors.Is(result, ErrBackend) holds while the underlying cause
// remains inspectable.
func Wrap(op, object, backend string, err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range knownSentinels {
		if errors.Is(err, sentinel) {
			return New(op, object, backend, err)
		}
	}
	return New(op, object, backend, fmt.Errorf("%w: %v", ErrBackend, err))
}
