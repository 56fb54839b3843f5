package geocache

import (
	"context"
	"sync"

	"walkroute/internal/model"
)

// Memory is the default in-process backend.
type Memory struct {
	mu sync.RWMutex
	m  map[string]model.Coordinate
}

func NewMemory() *Memory {
	return &Memory{m: map[string]model.Coordinate{}}
}

func (s *Memory) Get(_ context.Context, key string) (model.Coordinate, bool, error) {
	s.mu.RLock()
	c, ok := s.m[key]
	s.mu.RUnlock()
	return c, ok, nil
}

func (s *Memory) Put(_ context.Context, key string, c model.Coordinate) error {
	s.mu.Lock()
	if _, ok := s.m[key]; !ok {
		s.m[key] = c
	}
	s.mu.Unlock()
	return nil
}

// Len reports the number of cached entries.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
