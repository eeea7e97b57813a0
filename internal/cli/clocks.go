package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/worldclock/internal/cache"
	"github.com/ppiankov/worldclock/internal/catalog"
	"github.com/ppiankov/worldclock/internal/model"
	"github.com/ppiankov/worldclock/internal/pipeline"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runTimeout time.Duration

// clocksCmd represents the clocks command
var clocksCmd = &cobra.Command{
	Use:   "clocks [cache] [ttl=N]",
	Short: "Download the catalog's clock pages and print every city's UTC offset",
	Long: `Clocks reads the catalog, downloads each world clock page in parallel and
prints the cities found on it with their UTC offset, local time and DST flag.

With the cache enabled the stored snapshots are reused while they are younger
than the TTL and cover exactly the catalog's pages; otherwise every page is
downloaded again and, if all pages succeed, the cache is replaced.

The positional arguments "cache" and "ttl=N" are accepted as shorthand for
--cache and --ttl.

Example:
  worldclock clocks
  worldclock clocks --cache --ttl 60 --sort offset
  worldclock clocks use_cache ttl=480
  worldclock clocks --merge --json clocks.json`,
	RunE: runClocks,
}

func init() {
	rootCmd.AddCommand(clocksCmd)

	defaults := model.DefaultConfig()
	flags := clocksCmd.Flags()

	flags.Bool("cache", defaults.Cache.Enabled, "reuse cached snapshots while valid")
	flags.String("sort", defaults.Output.Sort, "record order (name, offset)")
	flags.Bool("merge", defaults.Output.Merge, "print all pages as one table")
	flags.String("json", "", "also write snapshots to this JSON file")
	flags.Int("concurrency", defaults.Concurrency.Workers, "pages downloaded in parallel")
	flags.DurationVar(&runTimeout, "timeout", 2*time.Minute, "overall run timeout")
	flags.Duration("page-timeout", defaults.HTTP.Timeout, "timeout for a single page request")
	flags.String("ua", defaults.HTTP.UserAgent, "HTTP User-Agent")
	flags.Int64("max-bytes", defaults.HTTP.MaxBodyBytes, "max response bytes to read per page")
	flags.Bool("no-robots", false, "ignore robots.txt")
	flags.String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	flags.String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	bindFlags(flags, map[string]string{
		"cache":        "cache.enabled",
		"sort":         "output.sort",
		"merge":        "output.merge",
		"json":         "output.json",
		"concurrency":  "concurrency.workers",
		"page-timeout": "http.timeout",
		"ua":           "http.user_agent",
		"max-bytes":    "http.max_body_bytes",
		"http-proxy":   "http.http_proxy",
		"https-proxy":  "http.https_proxy",
	})
}

func runClocks(cmd *cobra.Command, args []string) error {
	legacy, err := parseLegacyArgs(args)
	if err != nil {
		return err
	}

	cfg := *settings
	if legacy.useCache {
		cfg.Cache.Enabled = true
	}
	if legacy.ttlSet {
		cfg.Cache.TTLMinutes = legacy.ttlMinutes
	}
	if noRobots, _ := cmd.Flags().GetBool("no-robots"); noRobots {
		cfg.HTTP.RespectRobots = false
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return err
	}
	if cat.Len() == 0 {
		zap.L().Warn("catalog has no pages", zap.String("catalog", cfg.Catalog))
	}

	var store cache.Store
	if cfg.Cache.Enabled {
		store, err = cache.Open(ctx, cfg.Cache)
		if err != nil {
			return eris.Wrap(err, "open cache")
		}
		defer func() { _ = store.Close() }()
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Catalog:      %s (%d pages)\n", cfg.Catalog, cat.Len())
		fmt.Fprintf(os.Stderr, "Workers:      %d\n", cfg.Concurrency.Workers)
		fmt.Fprintf(os.Stderr, "Cache:        %v (%s, ttl %s)\n", cfg.Cache.Enabled, cfg.Cache.Driver, cfg.Cache.TTL())
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.NewPipeline(&cfg, store)
	if err != nil {
		return err
	}

	result, err := p.Load(ctx, cat, pipeline.LoadOptions{
		UseCache: cfg.Cache.Enabled,
		TTL:      cfg.Cache.TTL(),
	})
	if err != nil {
		return err
	}

	renderer := pipeline.NewRenderer(cmd.OutOrStdout())
	if cfg.Output.Merge {
		renderer.RenderMerged(pipeline.Merged(p.Mode(), result.Snapshots))
	} else {
		renderer.RenderTables(result.Snapshots)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout())
	renderer.RenderSummary(result)

	if cfg.Output.JSON != "" {
		if err := renderer.RenderJSON(result.Snapshots, cfg.Output.JSON); err != nil {
			return err
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", cfg.Output.JSON)
		}
	}

	if len(result.Snapshots) == 0 && len(result.Failures) > 0 {
		return eris.Errorf("all %d pages failed", len(result.Failures))
	}
	return nil
}
