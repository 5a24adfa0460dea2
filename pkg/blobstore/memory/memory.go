// Package memory implements an in-memory blobstore.BlobStore, useful
// for tests and for single-process deployments that do not need
// durability across restarts.
package memory

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/epochfs/epochfs/pkg/blobstore"
	"github.com/epochfs/epochfs/pkg/epochfserr"
)

type object struct {
	data []byte
	rev  uint64
}

// Store is a sync.RWMutex-guarded map implementation of BlobStore.
// Etags are the object's monotonically increasing revision counter
// formatted as a decimal string, so WriteIfMatch can be evaluated
// without any backend round trip.
type Store struct {
	mu      sync.RWMutex
	objects map[string]*object
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{objects: make(map[string]*object)}
}

func etagOf(rev uint64) string {
	return strconv.FormatUint(rev, 10)
}

func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, exists := s.objects[name]
	if !exists {
		s.objects[name] = &object{data: append([]byte(nil), data...), rev: 1}
		return nil
	}
	obj.data = append([]byte(nil), data...)
	obj.rev++
	return nil
}

func (s *Store) WriteIfMatch(ctx context.Context, name string, data []byte, expectedEtag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, exists := s.objects[name]

	if expectedEtag == "*" {
		if exists {
			return epochfserr.New("blobstore.write_if_match", name, "memory", epochfserr.ErrConcurrentWriter)
		}
		s.objects[name] = &object{data: append([]byte(nil), data...), rev: 1}
		return nil
	}

	if !exists {
		return epochfserr.New("blobstore.write_if_match", name, "memory", epochfserr.ErrConcurrentWriter)
	}
	if etagOf(obj.rev) != expectedEtag {
		return epochfserr.New("blobstore.write_if_match", name, "memory", epochfserr.ErrConcurrentWriter)
	}

	obj.data = append([]byte(nil), data...)
	obj.rev++
	return nil
}

func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, exists := s.objects[name]
	if !exists {
		return nil, epochfserr.New("blobstore.read", name, "memory", epochfserr.ErrNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.objects[name]
	return exists, nil
}

func (s *Store) Stat(ctx context.Context, name string) (blobstore.Stat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, exists := s.objects[name]
	if !exists {
		return blobstore.Stat{}, epochfserr.New("blobstore.stat", name, "memory", epochfserr.ErrNotFound)
	}
	return blobstore.Stat{Etag: etagOf(obj.rev), Size: int64(len(obj.data))}, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.objects))
	for name := range s.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names, nil
}

// HealthCheck always succeeds; there is no backend connection to lose.
func (s *Store) HealthCheck(ctx context.Context) error {
	return nil
}

var _ blobstore.BlobStore = (*Store)(nil)
var _ blobstore.HealthChecker = (*Store)(nil)
