package worker

import (
	"context"
	"sort"

	"github.com/ppiankov/worldclock/internal/catalog"
	"github.com/ppiankov/worldclock/internal/model"
)

// Downloader fetches and extracts one clock page
type Downloader interface {
	FetchPage(ctx context.Context, pageURL string) (model.PageSnapshot, error)
}

// PageJob downloads one catalog entry
type PageJob struct {
	Name       string
	URL        string
	Downloader Downloader
}

// Execute runs the download
func (j *PageJob) Execute(ctx context.Context) Result {
	snap, err := j.Downloader.FetchPage(ctx, j.URL)
	return &PageResult{
		Name:     j.Name,
		URL:      j.URL,
		Snapshot: snap,
		Error:    err,
	}
}

// PageResult is the outcome of one PageJob
type PageResult struct {
	Name     string
	URL      string
	Snapshot model.PageSnapshot
	Error    error
}

// GetError returns the download error, if any
func (r *PageResult) GetError() error {
	return r.Error
}

// PageProcessor downloads a whole catalog concurrently
type PageProcessor struct {
	downloader  Downloader
	concurrency int
}

// NewPageProcessor creates a processor running at most concurrency downloads
func NewPageProcessor(downloader Downloader, concurrency int) *PageProcessor {
	return &PageProcessor{
		downloader:  downloader,
		concurrency: concurrency,
	}
}

// ProcessCatalog downloads every page in cat. One failing page never
// affects the others; results come back sorted by page name.
func (b *PageProcessor) ProcessCatalog(ctx context.Context, cat catalog.Catalog) []*PageResult {
	if len(cat) == 0 {
		return []*PageResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	names := cat.Names()
	for _, name := range names {
		if !pool.Submit(&PageJob{Name: name, URL: cat[name], Downloader: b.downloader}) {
			break
		}
	}

	var results []Result
	if ctx.Err() != nil {
		results = pool.Shutdown()
	} else {
		results = pool.Wait()
	}

	pages := make([]*PageResult, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, result := range results {
		page := result.(*PageResult)
		seen[page.Name] = true
		pages = append(pages, page)
	}

	// Jobs dropped by cancellation still get a result
	for _, name := range names {
		if seen[name] {
			continue
		}
		err := context.Cause(ctx)
		if err == nil {
			err = context.Canceled
		}
		pages = append(pages, &PageResult{Name: name, URL: cat[name], Error: err})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Name < pages[j].Name })
	return pages
}
