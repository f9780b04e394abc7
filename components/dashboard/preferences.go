package dashboard

import (
	"context"
	"sync"
)

const anonymousViewer = "anonymous"

// InMemoryLayoutStore provides a concurrency-safe LayoutStore keyed by the
// bearer token on the request context.
type InMemoryLayoutStore struct {
	mu    sync.RWMutex
	data  map[string]LayoutDocument
	saves int
}

// NewInMemoryLayoutStore creates an empty layout store.
func NewInMemoryLayoutStore() *InMemoryLayoutStore {
	return &InMemoryLayoutStore{
		data: make(map[string]LayoutDocument),
	}
}

// LoadLayout returns the stored layout or ErrLayoutNotFound.
func (s *InMemoryLayoutStore) LoadLayout(ctx context.Context) (LayoutDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.data[s.key(ctx)]
	if !ok {
		return LayoutDocument{}, ErrLayoutNotFound
	}
	return cloneLayout(doc), nil
}

// SaveLayout persists doc for the viewer.
func (s *InMemoryLayoutStore) SaveLayout(ctx context.Context, doc LayoutDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[s.key(ctx)] = cloneLayout(doc)
	s.saves++
	return nil
}

// Saves counts successful SaveLayout calls.
func (s *InMemoryLayoutStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *InMemoryLayoutStore) key(ctx context.Context) string {
	if token := BearerTokenFrom(ctx); token != "" {
		return token
	}
	return anonymousViewer
}
