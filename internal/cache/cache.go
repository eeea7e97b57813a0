// Package cache persists page snapshots between runs and decides when they
// must be refreshed.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/ppiankov/worldclock/internal/model"
)

// Store persists page snapshots keyed by page name
type Store interface {
	// LoadAll returns every stored snapshot
	LoadAll(ctx context.Context) (map[string]model.PageSnapshot, error)

	// ReplaceAll atomically swaps the stored collection for snapshots,
	// stamping each with the write time and its record count
	ReplaceAll(ctx context.Context, snapshots map[string]model.PageSnapshot) error

	// Close releases the store's resources
	Close() error
}

// ErrUnknownDriver is returned by Open for an unsupported driver name
var ErrUnknownDriver = errors.New("unknown cache driver")

// nowFunc is the write clock, replaced in tests
var nowFunc = time.Now

// stampAll returns copies of snapshots stamped with now
func stampAll(snapshots map[string]model.PageSnapshot, now time.Time) map[string]model.PageSnapshot {
	stamped := make(map[string]model.PageSnapshot, len(snapshots))
	for name, snap := range snapshots {
		stamped[name] = snap.Stamped(now)
	}
	return stamped
}
