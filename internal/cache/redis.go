package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ppiankov/worldclock/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Key      string // Hash holding one field per page
}

// connectionTimeout bounds the initial ping
const connectionTimeout = 5 * time.Second

// RedisStore keeps snapshots in a single Redis hash
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Address == "" {
		return nil, eris.New("redis: address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrapf(err, "redis: ping %s", cfg.Address)
	}

	return NewRedisStoreFromClient(client, cfg.Key), nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "worldclock:city_data"
	}
	return &RedisStore{client: client, key: key}
}

// LoadAll reads every field of the hash
func (r *RedisStore) LoadAll(ctx context.Context) (map[string]model.PageSnapshot, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, eris.Wrapf(err, "redis: hgetall %s", r.key)
	}

	out := make(map[string]model.PageSnapshot, len(fields))
	for name, raw := range fields {
		var snap model.PageSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			return nil, eris.Wrapf(err, "redis: decode %s", name)
		}
		out[name] = snap
	}
	return out, nil
}

// ReplaceAll deletes and rewrites the hash inside MULTI/EXEC
func (r *RedisStore) ReplaceAll(ctx context.Context, snapshots map[string]model.PageSnapshot) error {
	stamped := stampAll(snapshots, nowFunc())

	values := make(map[string]interface{}, len(stamped))
	for name, snap := range stamped {
		data, err := json.Marshal(snap)
		if err != nil {
			return eris.Wrapf(err, "redis: encode %s", name)
		}
		values[name] = string(data)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(values) > 0 {
			pipe.HSet(ctx, r.key, values)
		}
		return nil
	})
	return eris.Wrapf(err, "redis: replace %s", r.key)
}

// Close closes the client
func (r *RedisStore) Close() error {
	return r.client.Close()
}
