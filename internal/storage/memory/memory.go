package memory

import (
	"context"
	"sync"

	"aieni/internal/storage"
)

// Store is a process-local KV. Values are copied in and out so callers
// cannot alias stored bytes.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Mutate holds the write lock for the whole read-modify-write.
func (s *Store) Mutate(_ context.Context, key string, fn storage.MutateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	next, err := fn(append([]byte(nil), v...), ok)
	if err != nil || next == nil {
		return err
	}
	s.data[key] = append([]byte(nil), next...)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }
