package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ppiankov/worldclock/internal/model"
	"github.com/rotisserie/eris"
)

// DiskStore keeps all snapshots in one JSON file
type DiskStore struct {
	path string
	mu   sync.Mutex
}

// NewDiskStore creates a disk store backed by path
func NewDiskStore(path string) *DiskStore {
	return &DiskStore{path: path}
}

type diskFile struct {
	Version int                           `json:"version"`
	Pages   map[string]model.PageSnapshot `json:"pages"`
}

const diskFileVersion = 1

// LoadAll reads the file. A missing file is an empty cache.
func (d *DiskStore) LoadAll(ctx context.Context) (map[string]model.PageSnapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]model.PageSnapshot{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "disk: read %s", d.path)
	}

	var file diskFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "disk: decode %s", d.path)
	}
	if file.Pages == nil {
		file.Pages = map[string]model.PageSnapshot{}
	}
	return file.Pages, nil
}

// ReplaceAll writes a temp file next to the target and renames it into place
func (d *DiskStore) ReplaceAll(ctx context.Context, snapshots map[string]model.PageSnapshot) error {
	data, err := json.MarshalIndent(diskFile{
		Version: diskFileVersion,
		Pages:   stampAll(snapshots, nowFunc()),
	}, "", "  ")
	if err != nil {
		return eris.Wrap(err, "disk: encode snapshots")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return eris.Wrapf(err, "disk: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".worldclock-*.tmp")
	if err != nil {
		return eris.Wrap(err, "disk: create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "disk: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "disk: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "disk: close temp file")
	}
	if err := os.Rename(tmp.Name(), d.path); err != nil {
		return eris.Wrapf(err, "disk: replace %s", d.path)
	}
	return nil
}

// Close is a no-op
func (d *DiskStore) Close() error {
	return nil
}
