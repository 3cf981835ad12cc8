package adapter

import (
	"context"
	"sync"
	"time"

	"sop-quiz/internal/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no per-entry expiry
}

// MemoryCacheAdapter is a bounded in-process domain.Cache. The least recently
// used entry is evicted once size is reached.
type MemoryCacheAdapter struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

// NewMemoryCacheAdapter creates a cache holding at most size entries. A
// positive defaultTTL bounds the lifetime of every entry.
func NewMemoryCacheAdapter(size int, defaultTTL time.Duration) *MemoryCacheAdapter {
	return &MemoryCacheAdapter{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, defaultTTL),
		now: time.Now,
	}
}

func (m *MemoryCacheAdapter) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lru.Get(key)
	if !ok {
		return "", domain.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.lru.Remove(key)
		return "", domain.ErrCacheMiss
	}
	return entry.value, nil
}

func (m *MemoryCacheAdapter) Set(_ context.Context, key string, value string, expiration time.Duration) error {
	entry := memoryEntry{value: value}
	if expiration > 0 {
		entry.expiresAt = m.now().Add(expiration)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Add(key, entry)
	return nil
}

func (m *MemoryCacheAdapter) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Remove(key)
	return nil
}

func (m *MemoryCacheAdapter) Ping(context.Context) error {
	return nil
}

// Len reports the number of cached entries, expired ones included until
// they are looked up or purged.
func (m *MemoryCacheAdapter) Len() int {
	return m.lru.Len()
}

// NoopCacheAdapter never stores anything; every Get is a miss.
type NoopCacheAdapter struct{}

func NewNoopCacheAdapter() domain.Cache { return NoopCacheAdapter{} }

func (NoopCacheAdapter) Get(context.Context, string) (string, error) {
	return "", domain.ErrCacheMiss
}

func (NoopCacheAdapter) Set(context.Context, string, string, time.Duration) error { return nil }
func (NoopCacheAdapter) Delete(context.Context, string) error                   { return nil }
func (NoopCacheAdapter) Ping(context.Context) error                             { return nil }
