// Package fsblob implements a blobstore.BlobStore backed by a local
// directory tree, one file per object name. Writes land via a
// temp-file-then-rename so a reader never observes a partial object.
package fsblob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/epochfs/epochfs/pkg/blobstore"
	"github.com/epochfs/epochfs/pkg/epochfserr"
)

// Store is a local-directory implementation of BlobStore. Object names
// may contain "/"; they map directly onto subdirectories under root.
type Store struct {
	root string
}

// New creates a Store rooted at dir. The directory is created if it
// does not already exist.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, epochfserr.New("blobstore.new", dir, "fsblob", err)
	}
	return &Store{root: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// etag is the hex SHA-256 of the file contents. It is cheap enough for
// the object sizes EpochFS writes (chunks and checkpoints) and gives
// WriteIfMatch a precondition that does not depend on filesystem mtime
// resolution.
func etagOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Store) writeAtomic(name string, data []byte) error {
	path := s.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	if err := s.writeAtomic(name, data); err != nil {
		return epochfserr.Wrap("blobstore.write", name, "fsblob", err)
	}
	return nil
}

// WriteIfMatch implements the "*" precondition with os.Link, which
// fails with os.ErrExist if the destination already exists: two
// concurrent creators race for the link and exactly one wins. Etag
// preconditions other than "*" read the current contents and compare
// before replacing, which is racy under true concurrency but matches
// what a single-process local store is for (tests and small
// deployments).
func (s *Store) WriteIfMatch(ctx context.Context, name string, data []byte, expectedEtag string) error {
	path := s.path(name)

	if expectedEtag == "*" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return epochfserr.Wrap("blobstore.write_if_match", name, "fsblob", err)
		}

		tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
		if err != nil {
			return epochfserr.Wrap("blobstore.write_if_match", name, "fsblob", err)
		}
		tmpName := tmp.Name()
		defer os.Remove(tmpName)

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			return epochfserr.Wrap("blobstore.write_if_match", name, "fsblob", err)
		}
		tmp.Close()

		if err := os.Link(tmpName, path); err != nil {
			if os.IsExist(err) {
				return epochfserr.New("blobstore.write_if_match", name, "fsblob", epochfserr.ErrConcurrentWriter)
			}
			return epochfserr.Wrap("blobstore.write_if_match", name, "fsblob", err)
		}
		return nil
	}

	current, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return epochfserr.New("blobstore.write_if_match", name, "fsblob", epochfserr.ErrConcurrentWriter)
		}
		return epochfserr.Wrap("blobstore.write_if_match", name, "fsblob", err)
	}
	if etagOf(current) != expectedEtag {
		return epochfserr.New("blobstore.write_if_match", name, "fsblob", epochfserr.ErrConcurrentWriter)
	}

	if err := s.writeAtomic(name, data); err != nil {
		return epochfserr.Wrap("blobstore.write_if_match", name, "fsblob", err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, epochfserr.New("blobstore.read", name, "fsblob", epochfserr.ErrNotFound)
		}
		return nil, epochfserr.Wrap("blobstore.read", name, "fsblob", err)
	}
	return data, nil
}

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, epochfserr.Wrap("blobstore.exists", name, "fsblob", err)
	}
	return true, nil
}

func (s *Store) Stat(ctx context.Context, name string) (blobstore.Stat, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return blobstore.Stat{}, epochfserr.New("blobstore.stat", name, "fsblob", epochfserr.ErrNotFound)
		}
		return blobstore.Stat{}, epochfserr.Wrap("blobstore.stat", name, "fsblob", err)
	}
	return blobstore.Stat{Etag: etagOf(data), Size: int64(len(data))}, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, epochfserr.Wrap("blobstore.list", prefix, "fsblob", err)
	}
	return names, nil
}

// HealthCheck verifies the root directory is still reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	if _, err := os.Stat(s.root); err != nil {
		return epochfserr.Wrap("blobstore.health_check", s.root, "fsblob", err)
	}
	return nil
}

var _ blobstore.BlobStore = (*Store)(nil)
var _ blobstore.HealthChecker = (*Store)(nil)
