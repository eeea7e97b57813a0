package pipeline

import (
	"context"
	"time"

	"github.com/ppiankov/worldclock/internal/cache"
	"github.com/ppiankov/worldclock/internal/catalog"
	"github.com/ppiankov/worldclock/internal/extract"
	"github.com/ppiankov/worldclock/internal/model"
	"github.com/ppiankov/worldclock/internal/worker"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Pipeline downloads clock pages and reuses cached snapshots when they are
// still valid
type Pipeline struct {
	fetcher   *Fetcher
	extractor *extract.Extractor
	processor *worker.PageProcessor
	store     cache.Store
	mode      model.SortMode
	now       func() time.Time
}

// NewPipeline creates a pipeline from cfg. store may be nil when caching is
// off.
func NewPipeline(cfg *model.Config, store cache.Store) (*Pipeline, error) {
	mode, err := model.ParseSortMode(cfg.Output.Sort)
	if err != nil {
		return nil, err
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	for _, h := range cfg.RateLimiting.Hosts {
		limiter.SetHostRate(h.Host, h.RequestsPerSecond, h.BurstSize)
	}
	p := &Pipeline{
		fetcher:   NewFetcher(cfg.HTTP, limiter),
		extractor: extract.NewExtractor(),
		store:     store,
		mode:      mode,
		now:       time.Now,
	}
	p.processor = worker.NewPageProcessor(p, cfg.Concurrency.Workers)
	return p, nil
}

// WithClock pins the instant offsets and cache age are computed against
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	p.extractor = extract.NewExtractorAt(now)
	return p
}

// Mode returns the record order used for every snapshot
func (p *Pipeline) Mode() model.SortMode {
	return p.mode
}

// FetchPage downloads one page and extracts its snapshot
func (p *Pipeline) FetchPage(ctx context.Context, pageURL string) (model.PageSnapshot, error) {
	fetched, err := p.fetcher.FetchWithRetry(ctx, pageURL)
	if err != nil {
		return model.PageSnapshot{}, err
	}

	snap, err := p.extractor.SnapshotFromHTML(fetched.HTML, pageURL, p.mode)
	if err != nil {
		return model.PageSnapshot{}, eris.Wrapf(err, "parse %s", pageURL)
	}

	zap.L().Debug("page extracted",
		zap.String("url", pageURL),
		zap.String("final_url", fetched.FinalURL),
		zap.Int("status", fetched.Meta.StatusCode),
		zap.String("content_type", fetched.Meta.ContentType),
		zap.String("last_modified", fetched.Meta.LastModified),
		zap.String("etag", fetched.Meta.ETag),
		zap.Int("cities", snap.Records.Len()))
	return snap, nil
}

// DownloadAll fetches every catalog page concurrently. Failed pages are
// logged and returned separately; they never stop the others.
func (p *Pipeline) DownloadAll(ctx context.Context, cat catalog.Catalog) (map[string]model.PageSnapshot, map[string]error) {
	snapshots := make(map[string]model.PageSnapshot, len(cat))
	failures := make(map[string]error)

	for _, res := range p.processor.ProcessCatalog(ctx, cat) {
		if res.Error != nil {
			zap.L().Warn("page download failed",
				zap.String("page", res.Name),
				zap.String("url", res.URL),
				zap.Error(res.Error))
			failures[res.Name] = res.Error
			continue
		}
		snapshots[res.Name] = res.Snapshot
	}
	return snapshots, failures
}

// LoadOptions selects the cache behaviour of Load
type LoadOptions struct {
	UseCache bool
	TTL      time.Duration
}

// RunResult is the outcome of Load
type RunResult struct {
	Snapshots map[string]model.PageSnapshot
	Failures  map[string]error
	Decision  *cache.Decision // nil when the cache was not consulted
	FromCache bool
	Persisted bool
}

// Load returns one snapshot per catalog page. With the cache enabled it
// serves the stored snapshots while they are valid and otherwise downloads
// everything again, persisting the result only if every page succeeded.
func (p *Pipeline) Load(ctx context.Context, cat catalog.Catalog, opts LoadOptions) (*RunResult, error) {
	if !opts.UseCache || p.store == nil {
		snapshots, failures := p.DownloadAll(ctx, cat)
		return &RunResult{Snapshots: snapshots, Failures: failures}, nil
	}

	cached, err := p.store.LoadAll(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "load cache")
	}

	decision := cache.Decide(cached, cat, opts.TTL, p.now())
	zap.L().Info("cache decision",
		zap.Bool("invalid", decision.Invalid),
		zap.Stringer("reasons", decision.Reasons),
		zap.Duration("age", decision.Age.Round(time.Second)),
		zap.Duration("ttl", decision.TTL))

	if !decision.Invalid {
		return &RunResult{
			Snapshots: p.reorder(cached),
			Failures:  map[string]error{},
			Decision:  &decision,
			FromCache: true,
		}, nil
	}

	snapshots, failures := p.DownloadAll(ctx, cat)
	result := &RunResult{
		Snapshots: snapshots,
		Failures:  failures,
		Decision:  &decision,
	}

	if len(failures) > 0 {
		zap.L().Warn("refresh incomplete, cache left unchanged",
			zap.Int("failed", len(failures)),
			zap.Int("pages", cat.Len()))
		return result, nil
	}

	if err := p.store.ReplaceAll(ctx, snapshots); err != nil {
		return nil, eris.Wrap(err, "write cache")
	}
	result.Persisted = true
	return result, nil
}

// reorder applies the pipeline's sort mode to snapshots written under
// another one
func (p *Pipeline) reorder(snapshots map[string]model.PageSnapshot) map[string]model.PageSnapshot {
	out := make(map[string]model.PageSnapshot, len(snapshots))
	for name, snap := range snapshots {
		if snap.Records == nil || snap.Records.Mode() != p.mode {
			snap.Records = model.MergeSnapshots(p.mode, snap)
		}
		out[name] = snap
	}
	return out
}

// Merged unions every snapshot into one record set, visiting pages in
// name order so the first page alphabetically wins a duplicate city
func Merged(mode model.SortMode, snapshots map[string]model.PageSnapshot) *model.RecordSet {
	ordered := make([]model.PageSnapshot, 0, len(snapshots))
	for _, name := range sortedNames(snapshots) {
		ordered = append(ordered, snapshots[name])
	}
	return model.MergeSnapshots(mode, ordered...)
}
