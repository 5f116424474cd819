package blobstore

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/tradehub/internal/common"
)

type object struct {
	contentType string
	data        []byte
}

// MemoryStore keeps objects in process memory; URLs use the memory:// scheme.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]object
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]object)}
}

func (s *MemoryStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{contentType: contentTypeOrDefault(contentType), data: append([]byte(nil), data...)}
	return nil
}

func (s *MemoryStore) URL(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok {
		return "", common.ErrorNotFound
	}
	return "memory://" + key, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Get returns a stored object and its content type.
func (s *MemoryStore) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[key]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), o.data...), o.contentType, true
}
