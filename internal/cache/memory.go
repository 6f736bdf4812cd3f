package cache

import (
	"context"
	"sync"

	"github.com/sells-group/vc-enrich/internal/model"
)

// MemoryStore is a process-local Store. It has no size bound; expired
// entries are removed only when a Get finds them.
type MemoryStore struct {
	opts options

	mu      sync.Mutex
	entries map[string]model.CacheEntry
}

// NewMemory creates an empty MemoryStore.
func NewMemory(opts ...Option) *MemoryStore {
	return &MemoryStore{
		opts:    buildOptions(opts),
		entries: make(map[string]model.CacheEntry),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*model.EnrichmentResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if entry.Expired(m.opts.now(), m.opts.ttl) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return clone(entry.Payload), true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, result *model.EnrichmentResult) error {
	entry := model.CacheEntry{Key: key, Payload: clone(result), StoredAt: m.opts.now()}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Evict(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, fresh or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStore) Close() error { return nil }
