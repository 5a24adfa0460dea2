// Package badgerindex implements namespace.Index on top of an embedded
// BadgerDB, giving the index transactional existence-check-then-insert
// semantics for AlreadyExists conflicts instead of the in-process map
// memoryindex uses.
package badgerindex

import (
	"context"
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/epochfs/epochfs/internal/logger"
	"github.com/epochfs/epochfs/pkg/epochfserr"
	"github.com/epochfs/epochfs/pkg/namespace"
	"github.com/epochfs/epochfs/pkg/wire"
)

// Index is a BadgerDB-backed namespace.Index. Keys are raw paths;
// values are the CBOR encoding of a wire.FileChunks record.
type Index struct {
	db *badger.DB
}

// Open opens (creating if absent) a Badger database at dir.
func Open(dir string) (*Index, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, epochfserr.New("namespace.open", dir, "badger", err)
	}
	return &Index{db: db}, nil
}

// OpenInMemory opens a Badger database that never touches disk, useful
// for tests that want badgerindex's transactional semantics without a
// temp directory.
func OpenInMemory() (*Index, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, epochfserr.New("namespace.open", "", "badger", err)
	}
	return &Index{db: db}, nil
}

// Close releases the underlying database.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func (idx *Index) CommitFile(ctx context.Context, path string, chunks wire.FileChunks) error {
	encoded, err := wire.EncodeFileChunks(chunks)
	if err != nil {
		return err
	}

	err = idx.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(path)); err == nil {
			return epochfserr.ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set([]byte(path), encoded)
	})
	if err != nil {
		if errors.Is(err, epochfserr.ErrAlreadyExists) {
			return epochfserr.New("namespace.commit_file", path, "badger", epochfserr.ErrAlreadyExists)
		}
		return epochfserr.Wrap("namespace.commit_file", path, "badger", err)
	}

	logger.DebugCtx(ctx, "file committed to namespace", logger.Path(path), logger.ChunkCount(len(chunks.Ids)))
	return nil
}

func (idx *Index) OpenFile(ctx context.Context, path string) (wire.FileChunks, bool, error) {
	var chunks wire.FileChunks
	found := false

	err := idx.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := wire.DecodeFileChunks(val)
			if err != nil {
				return err
			}
			chunks = decoded
			found = true
			return nil
		})
	})
	if err != nil {
		return wire.FileChunks{}, false, epochfserr.Wrap("namespace.open_file", path, "badger", err)
	}
	return chunks, found, nil
}

func (idx *Index) CheckFile(ctx context.Context, path string) (bool, error) {
	found := false
	err := idx.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, epochfserr.Wrap("namespace.check_file", path, "badger", err)
	}
	return found, nil
}

func (idx *Index) ListFiles(ctx context.Context) ([]wire.File, error) {
	var files []wire.File

	err := idx.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			path := string(item.KeyCopy(nil))

			err := item.Value(func(val []byte) error {
				chunks, err := wire.DecodeFileChunks(val)
				if err != nil {
					return err
				}
				files = append(files, wire.File{Path: path, Chunks: chunks})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, epochfserr.Wrap("namespace.list_files", "", "badger", err)
	}
	return files, nil
}

// BulkInsert inserts every entry of files in a single Badger
// transaction, failing on the first path collision.
func (idx *Index) BulkInsert(ctx context.Context, files []wire.File) error {
	var conflictPath string

	err := idx.db.Update(func(txn *badger.Txn) error {
		for _, f := range files {
			if _, err := txn.Get([]byte(f.Path)); err == nil {
				conflictPath = f.Path
				return epochfserr.ErrAlreadyExists
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			encoded, err := wire.EncodeFileChunks(f.Chunks)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(f.Path), encoded); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, epochfserr.ErrAlreadyExists) {
			return epochfserr.New("namespace.bulk_insert", conflictPath, "badger", epochfserr.ErrAlreadyExists)
		}
		return epochfserr.Wrap("namespace.bulk_insert", "", "badger", err)
	}
	return nil
}

var _ namespace.Index = (*Index)(nil)
var _ namespace.BulkInserter = (*Index)(nil)
