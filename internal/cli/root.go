package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/worldclock/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X ...cli.Version=..."
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool

	// settings is resolved before any subcommand runs
	settings *model.Config

	// keyReplacer maps config keys to WORLDCLOCK_* variable names
	keyReplacer = strings.NewReplacer(".", "_")
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "worldclock",
	Short: "worldclock - city UTC offsets scraped from world clock pages",
	Long: `worldclock downloads world clock pages, works out each city's UTC offset
from the local time shown next to it, and optionally keeps the result in a
cache that is reused until it expires or the page list changes.

Pages are listed in a catalog file of name=url lines.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings(viper.GetViper())
		if err != nil {
			return err
		}
		if err := InitLogger(cfg.Log); err != nil {
			return err
		}
		settings = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "worldclock %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := model.DefaultConfig()
	flags := rootCmd.PersistentFlags()

	// Global flags
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.worldclock/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.String("log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	flags.String("log-format", defaults.Log.Format, "log format (console, json)")

	// Catalog and store flags, shared by clocks and cache
	flags.String("catalog", defaults.Catalog, "catalog file of name=url lines")
	flags.Int("ttl", defaults.Cache.TTLMinutes, "cache time-to-live in minutes")
	flags.String("store", defaults.Cache.Driver, "cache store (sqlite, disk, redis, memory)")
	flags.String("store-path", defaults.Cache.Path, "sqlite database or disk cache file")
	flags.String("redis-addr", defaults.Cache.RedisAddr, "redis address for the redis store")

	// Bind flags to viper
	bindFlags(flags, map[string]string{
		"verbose":    "output.verbose",
		"log-level":  "log.level",
		"log-format": "log.format",
		"catalog":    "catalog",
		"ttl":        "cache.ttl_minutes",
		"store":      "cache.driver",
		"store-path": "cache.path",
		"redis-addr": "cache.redis_addr",
	})

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".worldclock"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("WORLDCLOCK")
	viper.SetEnvKeyReplacer(keyReplacer)
	viper.AutomaticEnv()
}
