// Package memory stores snapshots in-memory for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopsage/crawler/internal/snapshot"
)

// Store is an in-memory snapshot.Store.
type Store struct {
	mu   sync.RWMutex
	data map[string]snapshot.Snapshot
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		data: make(map[string]snapshot.Snapshot),
	}
}

// Put replaces the stored snapshot for siteKey.
func (s *Store) Put(_ context.Context, siteKey string, snap snapshot.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[siteKey] = snap
	return nil
}

// Get returns a copy of the stored snapshot, or (nil, nil) when absent.
func (s *Store) Get(_ context.Context, siteKey string) (*snapshot.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.data[siteKey]
	if !ok {
		return nil, nil
	}
	cp := snap
	return &cp, nil
}

// Keys lists all stored site keys in sorted order.
func (s *Store) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
