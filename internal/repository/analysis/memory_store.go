package analysis

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]Record),
	}
}

func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	rec, err := validate(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rec.ProjectID] = rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, projectID string) (Record, error) {
	if s == nil {
		return Record{}, fmt.Errorf("store is nil")
	}
	key, err := projectKey(projectID)
	if err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.data))
	for _, rec := range s.data {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out, nil
}
