package cache

import (
	"context"
	"errors"

	"github.com/ppiankov/worldclock/internal/model"
)

// LayeredStore fronts a persistent store with a memory layer. The memory
// layer only serves hits within one process, so it pays off for long-lived
// callers and not for a single CLI run.
type LayeredStore struct {
	memory  *MemoryStore
	backend Store
}

// NewLayeredStore creates a layered store over backend
func NewLayeredStore(memory *MemoryStore, backend Store) *LayeredStore {
	return &LayeredStore{
		memory:  memory,
		backend: backend,
	}
}

// LoadAll checks memory first, then the backend
func (l *LayeredStore) LoadAll(ctx context.Context) (map[string]model.PageSnapshot, error) {
	snaps, err := l.memory.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(snaps) > 0 {
		return snaps, nil
	}

	snaps, err = l.backend.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	// Promote to memory, keeping the backend's timestamps
	l.memory.put(snaps)
	return snaps, nil
}

// ReplaceAll writes the backend and drops the memory layer, so the next load
// sees exactly what was persisted
func (l *LayeredStore) ReplaceAll(ctx context.Context, snapshots map[string]model.PageSnapshot) error {
	if err := l.backend.ReplaceAll(ctx, snapshots); err != nil {
		return err
	}
	l.memory.clear()
	return nil
}

// Close closes both layers
func (l *LayeredStore) Close() error {
	return errors.Join(l.memory.Close(), l.backend.Close())
}
