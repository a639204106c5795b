// Package memory is a ttl map for the response cache.
package memory

import (
	"sync"
	"time"
)

type item struct {
	content   []byte
	expiresAt time.Time
}

// Storage ...
type Storage struct {
	mu sync.Mutex
	m  map[string]item
}

// NewStorage creates new instance of Storage.
func NewStorage() *Storage {
	return &Storage{
		m: make(map[string]item),
	}
}

// Get returns the content stored for key, or nil if absent or expired.
func (s *Storage) Get(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.m[key]
	if !ok {
		return nil
	}

	if time.Now().After(v.expiresAt) {
		delete(s.m, key)
		return nil
	}

	return v.content
}

// Set stores content for key for the given duration.
func (s *Storage) Set(key string, content []byte, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[key] = item{
		content:   content,
		expiresAt: time.Now().Add(duration),
	}
}
