package cache

import (
	"context"
	"strings"

	"github.com/ppiankov/worldclock/internal/model"
	"github.com/rotisserie/eris"
)

// Open creates the store described by cfg
func Open(ctx context.Context, cfg model.CacheConfig) (Store, error) {
	var (
		backend Store
		err     error
	)

	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		backend, err = NewSQLiteStore(ctx, cfg.Path)
	case "disk", "file", "json":
		backend = NewDiskStore(cfg.Path)
	case "redis":
		backend, err = NewRedisStore(RedisConfig{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
	case "memory":
		return NewMemoryStore(0), nil
	default:
		return nil, eris.Wrapf(ErrUnknownDriver, "cache: driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Memory {
		return NewLayeredStore(NewMemoryStore(cfg.TTL()), backend), nil
	}
	return backend, nil
}
