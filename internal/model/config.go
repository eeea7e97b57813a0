package model

import "time"

// Config holds the complete runtime configuration
type Config struct {
	Catalog      string             `yaml:"catalog" mapstructure:"catalog"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// HTTPConfig configures page fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the snapshot store
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	TTLMinutes int    `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
	Driver     string `yaml:"driver" mapstructure:"driver"` // sqlite, disk, redis, memory
	Path       string `yaml:"path" mapstructure:"path"`     // sqlite database or disk file
	Memory     bool   `yaml:"memory" mapstructure:"memory"` // in-process front layer, for long-lived callers

	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password,omitempty" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
	RedisKey      string `yaml:"redis_key" mapstructure:"redis_key"`
}

// TTL returns the configured time-to-live
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// ConcurrencyConfig configures parallel page downloads
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig configures per-domain request pacing
type RateLimitingConfig struct {
	RequestsPerSecond float64          `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int              `yaml:"burst_size" mapstructure:"burst_size"`
	Hosts             []HostRateConfig `yaml:"hosts,omitempty" mapstructure:"hosts"`
}

// HostRateConfig overrides the request pacing for one host
type HostRateConfig struct {
	Host              string  `yaml:"host" mapstructure:"host"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size,omitempty" mapstructure:"burst_size"`
}

// OutputConfig configures presentation
type OutputConfig struct {
	Sort    string `yaml:"sort" mapstructure:"sort"` // name or offset
	JSON    string `yaml:"json,omitempty" mapstructure:"json"`
	Merge   bool   `yaml:"merge" mapstructure:"merge"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// DefaultTTLMinutes is the cache time-to-live used when none is configured
const DefaultTTLMinutes = 8 * 60

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Catalog: "urls.txt",
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "worldclock/0.1 (+https://github.com/ppiankov/worldclock)",
			MaxBodyBytes:  4_000_000,
			MaxRetries:    2,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:    false,
			TTLMinutes: DefaultTTLMinutes,
			Driver:     "sqlite",
			Path:       "worldclock.db",
			Memory:     false,
			RedisAddr:  "localhost:6379",
			RedisKey:   "worldclock:city_data",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Output: OutputConfig{
			Sort: "name",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
