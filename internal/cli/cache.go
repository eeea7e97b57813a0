package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/worldclock/internal/cache"
	"github.com/ppiankov/worldclock/internal/catalog"
	"github.com/ppiankov/worldclock/internal/model"
	"github.com/spf13/cobra"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the snapshot cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the cached snapshots would be reused",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		cat, err := catalog.Load(settings.Catalog)
		if err != nil {
			return err
		}

		store, err := cache.Open(ctx, settings.Cache)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		cached, err := store.LoadAll(ctx)
		if err != nil {
			return err
		}

		printCacheStatus(cmd, cached, cat, settings.Cache, time.Now())
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		store, err := cache.Open(ctx, settings.Cache)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if err := store.ReplaceAll(ctx, map[string]model.PageSnapshot{}); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %s cache\n", settings.Cache.Driver)
		return nil
	},
}

func printCacheStatus(cmd *cobra.Command, cached map[string]model.PageSnapshot, cat catalog.Catalog, cfg model.CacheConfig, now time.Time) {
	out := cmd.OutOrStdout()
	decision := cache.Decide(cached, cat, cfg.TTL(), now)

	_, _ = fmt.Fprintf(out, "Store:    %s\n", cfg.Driver)
	_, _ = fmt.Fprintf(out, "Pages:    %d cached, %d in catalog\n", len(cached), cat.Len())
	_, _ = fmt.Fprintln(out, decision)
	if decision.Invalid {
		_, _ = fmt.Fprintf(out, "Next run downloads every page (%s)\n", decision.Reasons)
	} else {
		_, _ = fmt.Fprintln(out, "Next run is served from the cache")
	}
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
