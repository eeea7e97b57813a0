package worker

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/worldclock/internal/catalog"
	"github.com/ppiankov/worldclock/internal/model"
)

// mockDownloader implements Downloader
type mockDownloader struct {
	failOn string
	delay  time.Duration
	calls  atomic.Int32
}

func (m *mockDownloader) FetchPage(ctx context.Context, pageURL string) (model.PageSnapshot, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return model.PageSnapshot{}, ctx.Err()
		}
	}
	if m.failOn != "" && strings.Contains(pageURL, m.failOn) {
		return model.PageSnapshot{}, errors.New("connection refused")
	}

	records := model.NewRecordSet(model.SortByName)
	records.Insert(model.CityRecord{Name: "UTC"})
	return model.PageSnapshot{SourceURI: pageURL, Records: records}, nil
}

func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		"Europe":  "https://www.timeanddate.com/worldclock/europe.html",
		"Asia":    "https://www.timeanddate.com/worldclock/asia.html",
		"Pacific": "https://www.timeanddate.com/worldclock/pacific.html",
	}
}

func TestPageProcessor_ProcessCatalog(t *testing.T) {
	downloader := &mockDownloader{delay: 10 * time.Millisecond}
	processor := NewPageProcessor(downloader, 2)

	results := processor.ProcessCatalog(context.Background(), testCatalog())

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	wantOrder := []string{"Asia", "Europe", "Pacific"}
	for i, res := range results {
		if res.Name != wantOrder[i] {
			t.Errorf("result %d: expected %s, got %s", i, wantOrder[i], res.Name)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Name, res.Error)
		}
		if res.Snapshot.SourceURI != res.URL {
			t.Errorf("snapshot for %s carries %q", res.Name, res.Snapshot.SourceURI)
		}
	}

	if got := downloader.calls.Load(); got != 3 {
		t.Errorf("expected 3 downloads, got %d", got)
	}
}

func TestPageProcessor_FailureIsolated(t *testing.T) {
	processor := NewPageProcessor(&mockDownloader{failOn: "asia"}, 3)

	results := processor.ProcessCatalog(context.Background(), testCatalog())
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for _, res := range results {
		failed := res.GetError() != nil
		if failed != (res.Name == "Asia") {
			t.Errorf("%s: failed=%v", res.Name, failed)
		}
	}
}

func TestPageProcessor_EmptyCatalog(t *testing.T) {
	processor := NewPageProcessor(&mockDownloader{}, 2)

	results := processor.ProcessCatalog(context.Background(), catalog.Catalog{})
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestPageProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewPageProcessor(&mockDownloader{delay: time.Second}, 1)

	done := make(chan []*PageResult)
	go func() { done <- processor.ProcessCatalog(ctx, testCatalog()) }()

	select {
	case results := <-done:
		if len(results) != 3 {
			t.Fatalf("expected a result per page, got %d", len(results))
		}
		for _, res := range results {
			if res.Error == nil {
				t.Errorf("%s: expected cancellation error", res.Name)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ProcessCatalog ignored cancellation")
	}
}

func TestPageProcessor_CancelledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	downloader := &mockDownloader{delay: 5 * time.Second}
	processor := NewPageProcessor(downloader, 1)

	done := make(chan []*PageResult)
	go func() { done <- processor.ProcessCatalog(ctx, testCatalog()) }()

	deadline := time.Now().Add(time.Second)
	for downloader.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no download started")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case results := <-done:
		if len(results) != 3 {
			t.Fatalf("expected a result per page, got %d", len(results))
		}
		for _, res := range results {
			if !errors.Is(res.Error, context.Canceled) {
				t.Errorf("%s: expected context.Canceled, got %v", res.Name, res.Error)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ProcessCatalog kept running after cancellation")
	}
}
