package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/worldclock/internal/catalog"
	"github.com/ppiankov/worldclock/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	cfg, err := loadSettings(viper.New())
	require.NoError(t, err)

	assert.Equal(t, model.DefaultConfig(), cfg)
	assert.Equal(t, 480*time.Minute, cfg.Cache.TTL())
}

func TestLoadSettings_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
catalog: /etc/worldclock/urls.txt
http:
  timeout: 45s
cache:
  enabled: true
  driver: redis
  ttl_minutes: 60
output:
  sort: offset
log:
  level: debug
  format: json
`), 0644))

	t.Setenv("WORLDCLOCK_CACHE_TTL_MINUTES", "90")

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("WORLDCLOCK")
	v.SetEnvKeyReplacer(keyReplacer)
	v.AutomaticEnv()

	cfg, err := loadSettings(v)
	require.NoError(t, err)

	assert.Equal(t, "/etc/worldclock/urls.txt", cfg.Catalog)
	assert.Equal(t, 45*time.Second, cfg.HTTP.Timeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, 90, cfg.Cache.TTLMinutes)
	assert.Equal(t, "offset", cfg.Output.Sort)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched keys keep their defaults
	assert.Equal(t, model.DefaultConfig().HTTP.UserAgent, cfg.HTTP.UserAgent)
	assert.Equal(t, "worldclock:city_data", cfg.Cache.RedisKey)
}

func TestLoadSettings_HostRates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rate_limiting:
  requests_per_second: 1
  hosts:
    - host: www.timeanddate.com
      requests_per_second: 0.5
    - host: mirror.example
      requests_per_second: 10
      burst_size: 5
`), 0644))

	v := viper.New()
	v.SetConfigFile(path)
	cfg, err := loadSettings(v)
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.RateLimiting.RequestsPerSecond)
	assert.Equal(t, []model.HostRateConfig{
		{Host: "www.timeanddate.com", RequestsPerSecond: 0.5},
		{Host: "mirror.example", RequestsPerSecond: 10, BurstSize: 5},
	}, cfg.RateLimiting.Hosts)
}

func TestLoadSettings_Invalid(t *testing.T) {
	v := viper.New()
	v.Set("output.sort", "population")
	_, err := loadSettings(v)
	assert.Error(t, err)

	v = viper.New()
	v.Set("cache.ttl_minutes", -5)
	_, err = loadSettings(v)
	assert.Error(t, err)

	v = viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = loadSettings(v)
	assert.Error(t, err)
}

func TestWriteDefaultConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, writeDefaultConfig(path))

	v := viper.New()
	v.SetConfigFile(path)
	cfg, err := loadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig(), cfg)

	err = writeDefaultConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(model.LogConfig{Level: "debug", Format: "json"}))
	require.NoError(t, InitLogger(model.LogConfig{Level: "warn", Format: "console"}))
	assert.Error(t, InitLogger(model.LogConfig{Level: "chatty"}))
}

func TestParseLegacyArgs(t *testing.T) {
	tests := []struct {
		args    []string
		want    legacyArgs
		wantErr bool
	}{
		{nil, legacyArgs{}, false},
		{[]string{"cache"}, legacyArgs{useCache: true}, false},
		{[]string{"use_cache", "ttl=480"}, legacyArgs{useCache: true, ttlMinutes: 480, ttlSet: true}, false},
		{[]string{"ttl=0"}, legacyArgs{ttlSet: true}, false},
		{[]string{"ttl=eight"}, legacyArgs{}, true},
		{[]string{"ttl"}, legacyArgs{}, true},
		{[]string{"ttl=-1"}, legacyArgs{}, true},
		{[]string{"verbose"}, legacyArgs{}, true},
	}

	for _, tt := range tests {
		got, err := parseLegacyArgs(tt.args)
		if tt.wantErr {
			assert.Error(t, err, "%v", tt.args)
			continue
		}
		require.NoError(t, err, "%v", tt.args)
		assert.Equal(t, tt.want, got, "%v", tt.args)
	}
}

func TestPrintCacheStatus(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cached := map[string]model.PageSnapshot{
		"Europe": {LastUpdated: now.Add(-time.Hour).Format(time.RFC3339)},
	}
	cat := catalog.Catalog{"Europe": "https://www.timeanddate.com/worldclock/europe.html"}
	cfg := model.CacheConfig{Driver: "sqlite", TTLMinutes: 480}

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	printCacheStatus(cmd, cached, cat, cfg, now)
	assert.Contains(t, buf.String(), "Pages:    1 cached, 1 in catalog")
	assert.Contains(t, buf.String(), "Cache age = 1h0m0s; TTL (Time To Live) = 8h0m0s; Cache expired: false.")
	assert.Contains(t, buf.String(), "served from the cache")

	buf.Reset()
	cat["Asia"] = "https://www.timeanddate.com/worldclock/asia.html"
	printCacheStatus(cmd, cached, cat, cfg, now)
	assert.Contains(t, buf.String(), "Next run downloads every page (size-mismatch,incomplete)")
}
