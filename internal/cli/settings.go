package cli

import (
	"errors"
	"strconv"
	"strings"

	"github.com/ppiankov/worldclock/internal/model"
	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// loadSettings layers the config file, WORLDCLOCK_* variables and bound
// flags over the built-in defaults
func loadSettings(v *viper.Viper) (*model.Config, error) {
	setDefaults(v, model.DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if _, err := model.ParseSortMode(cfg.Output.Sort); err != nil {
		return nil, eris.Wrap(err, "config: output.sort")
	}
	if cfg.Cache.TTLMinutes < 0 {
		return nil, eris.Errorf("config: cache.ttl_minutes must not be negative, got %d", cfg.Cache.TTLMinutes)
	}
	return cfg, nil
}

// setDefaults registers every key so environment variables are picked up
// even when neither file nor flag mentions them
func setDefaults(v *viper.Viper, d *model.Config) {
	v.SetDefault("catalog", d.Catalog)

	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("http.max_body_bytes", d.HTTP.MaxBodyBytes)
	v.SetDefault("http.max_retries", d.HTTP.MaxRetries)
	v.SetDefault("http.respect_robots", d.HTTP.RespectRobots)
	v.SetDefault("http.http_proxy", d.HTTP.HTTPProxy)
	v.SetDefault("http.https_proxy", d.HTTP.HTTPSProxy)
	v.SetDefault("http.no_proxy", d.HTTP.NoProxy)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl_minutes", d.Cache.TTLMinutes)
	v.SetDefault("cache.driver", d.Cache.Driver)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("cache.memory", d.Cache.Memory)
	v.SetDefault("cache.redis_addr", d.Cache.RedisAddr)
	v.SetDefault("cache.redis_password", d.Cache.RedisPassword)
	v.SetDefault("cache.redis_db", d.Cache.RedisDB)
	v.SetDefault("cache.redis_key", d.Cache.RedisKey)

	v.SetDefault("concurrency.workers", d.Concurrency.Workers)
	v.SetDefault("rate_limiting.requests_per_second", d.RateLimiting.RequestsPerSecond)
	v.SetDefault("rate_limiting.burst_size", d.RateLimiting.BurstSize)

	v.SetDefault("output.sort", d.Output.Sort)
	v.SetDefault("output.json", d.Output.JSON)
	v.SetDefault("output.merge", d.Output.Merge)
	v.SetDefault("output.verbose", d.Output.Verbose)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// bindFlags binds each named flag to a viper key
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
}

// InitLogger replaces the global zap logger
func InitLogger(cfg model.LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}

// legacyArgs is the positional interface of the first release:
// any argument containing "cache" turns the cache on and ttl=N sets the TTL
type legacyArgs struct {
	useCache   bool
	ttlMinutes int
	ttlSet     bool
}

func parseLegacyArgs(args []string) (legacyArgs, error) {
	var out legacyArgs
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "ttl"):
			_, raw, ok := strings.Cut(arg, "=")
			minutes, err := strconv.Atoi(strings.TrimSpace(raw))
			if !ok || err != nil || minutes < 0 {
				return out, eris.Errorf("invalid %q: provide the time-to-live in minutes, e.g. ttl=480", arg)
			}
			out.ttlMinutes = minutes
			out.ttlSet = true
		case strings.Contains(arg, "cache"):
			out.useCache = true
		default:
			return out, eris.Errorf("unknown argument %q", arg)
		}
	}
	return out, nil
}
