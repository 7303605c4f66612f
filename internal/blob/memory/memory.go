package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"aieni/internal/blob"
	"aieni/internal/sentinel"
)

type object struct {
	data        []byte
	contentType string
}

type Store struct {
	mu      sync.RWMutex
	objects map[string]object
}

func New() *Store {
	return &Store{objects: make(map[string]object)}
}

func (s *Store) Put(_ context.Context, key, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{data: bytes.Clone(data), contentType: contentType}
	return nil
}

func (s *Store) Get(_ context.Context, key string) (blob.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[key]
	if !ok {
		return blob.Object{}, sentinel.ErrNotFound
	}
	return blob.Object{
		Body:        io.NopCloser(bytes.NewReader(o.data)),
		ContentType: o.contentType,
		Size:        int64(len(o.data)),
	}, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
