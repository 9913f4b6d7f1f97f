package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultMemorySize = 1024
	// memoryMaxTTL caps entries stored without expiry.
	memoryMaxTTL = 7 * 24 * time.Hour
)

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryStore is an in-process LRU Store. Entries expire individually.
type MemoryStore struct {
	lru *lru.LRU[string, memoryEntry]
	now func() time.Time
}

// NewMemoryStore creates a store holding at most size entries.
func NewMemoryStore(size int) *MemoryStore {
	if size <= 0 {
		size = defaultMemorySize
	}

	return &MemoryStore{
		lru: lru.NewLRU[string, memoryEntry](size, nil, memoryMaxTTL),
		now: time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	entry, ok := s.lru.Get(key)
	if !ok {
		return nil, false, nil
	}

	if !entry.expires.IsZero() && !s.now().Before(entry.expires) {
		s.lru.Remove(key)
		return nil, false, nil
	}

	return entry.value, true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expires = s.now().Add(ttl)
	}

	s.lru.Add(key, entry)

	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.lru.Remove(k)
	}

	return nil
}
