package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/worldclock/internal/model"
	"github.com/ppiankov/worldclock/internal/util"
	"github.com/ppiankov/worldclock/internal/worker"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrDisallowed is returned when robots.txt forbids a page
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError is a non-2xx response
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.Status)
}

// Retryable reports whether the server may answer differently later
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// fetchSleepFunc is the backoff sleep, replaced in tests
var fetchSleepFunc = time.Sleep

const (
	maxRedirects = 3
	retryBackoff = 500 * time.Millisecond
)

// Fetcher downloads clock pages
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	maxRetries int
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
}

// NewFetcher creates a fetcher from cfg. limiter may be nil.
func NewFetcher(cfg model.HTTPConfig, limiter *worker.Limiter) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(util.ProxySettings{
		HTTPProxy:  cfg.HTTPProxy,
		HTTPSProxy: cfg.HTTPSProxy,
		NoProxy:    cfg.NoProxy,
	})

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return eris.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = model.DefaultConfig().HTTP.MaxBodyBytes
	}

	f := &Fetcher{
		httpClient: client,
		userAgent:  cfg.UserAgent,
		maxBytes:   maxBytes,
		maxRetries: cfg.MaxRetries,
		limiter:    limiter,
	}
	if cfg.RespectRobots {
		f.robots = util.NewRobotsChecker(client, cfg.UserAgent, cfg.Timeout)
	}
	return f
}

// FetchResult is a downloaded page
type FetchResult struct {
	HTML     string
	Meta     model.FetchMeta
	FinalURL string
}

// FetchWithRetry downloads rawURL, retrying transport failures, 429 and
// 5xx responses with exponential backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	backoff := retryBackoff
	for attempt := 0; ; attempt++ {
		result, retryable, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		if !retryable || attempt >= f.maxRetries || ctx.Err() != nil {
			return nil, err
		}

		zap.L().Debug("retrying page fetch",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		fetchSleepFunc(backoff)
		backoff *= 2
	}
}

// fetchOnce also reports whether the failure is worth retrying
func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*FetchResult, bool, error) {
	var crawlDelay time.Duration
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, false, err
		}
		if !allowed {
			return nil, false, eris.Wrapf(ErrDisallowed, "fetch %s", rawURL)
		}
		crawlDelay = delay
	}

	if f.limiter != nil {
		if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
			return nil, false, eris.Wrapf(err, "rate limit %s", rawURL)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, eris.Wrapf(err, "fetch %s", rawURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		se := &StatusError{URL: rawURL, Code: resp.StatusCode, Status: resp.Status}
		return nil, se.Retryable(), se
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, false, eris.Wrapf(err, "read body %s", rawURL)
	}
	if int64(len(body)) > f.maxBytes {
		zap.L().Warn("page truncated",
			zap.String("url", rawURL),
			zap.Int64("max_bytes", f.maxBytes))
		body = body[:f.maxBytes]
	}

	return &FetchResult{
		HTML: string(body),
		Meta: model.FetchMeta{
			StatusCode:   resp.StatusCode,
			ContentType:  resp.Header.Get("Content-Type"),
			LastModified: resp.Header.Get("Last-Modified"),
			ETag:         resp.Header.Get("ETag"),
		},
		FinalURL: resp.Request.URL.String(),
	}, false, nil
}
