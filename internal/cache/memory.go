package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/ppiankov/worldclock/internal/model"
)

// MemoryStore keeps snapshots in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	cache *gocache.Cache
}

// NewMemoryStore creates a memory store. Entries expire after expiration;
// zero or less keeps them until replaced.
func NewMemoryStore(expiration time.Duration) *MemoryStore {
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	return &MemoryStore{
		cache: gocache.New(expiration, 10*time.Minute),
	}
}

// LoadAll returns every unexpired snapshot
func (m *MemoryStore) LoadAll(ctx context.Context) (map[string]model.PageSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	items := m.cache.Items()
	out := make(map[string]model.PageSnapshot, len(items))
	for name, item := range items {
		if snap, ok := item.Object.(model.PageSnapshot); ok {
			out[name] = snap
		}
	}
	return out, nil
}

// ReplaceAll swaps the whole collection under the write lock
func (m *MemoryStore) ReplaceAll(ctx context.Context, snapshots map[string]model.PageSnapshot) error {
	m.put(stampAll(snapshots, nowFunc()))
	return nil
}

// put stores snapshots as given, without stamping
func (m *MemoryStore) put(snapshots map[string]model.PageSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache.Flush()
	for name, snap := range snapshots {
		m.cache.Set(name, snap, gocache.DefaultExpiration)
	}
}

// clear drops everything
func (m *MemoryStore) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Flush()
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}
