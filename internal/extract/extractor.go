// Package extract turns world clock page markup into city records.
package extract

import (
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/worldclock/internal/model"
	"golang.org/x/net/html"
)

// UTCInfoURL is the link attached to the synthetic UTC record
const UTCInfoURL = "https://www.timeanddate.com/time/aboututc.html"

// Extractor correlates city fragments on a world clock page.
//
// A city on the page looks like this:
//
//	<td>
//	  <a href="/worldclock/new-zealand/auckland">Auckland</a>
//	  <span id=p26s class=wds> *</span>
//	</td>
//	<td id=p26 class=rbi>Thu 9:00 p.m.</td>
//
// The anchor carries name and link, the first element with id 26 carries the
// DST marker and the second one the local time.
type Extractor struct {
	now func() time.Time
}

// NewExtractor creates an extractor that resolves offsets against the
// current time
func NewExtractor() *Extractor {
	return &Extractor{now: time.Now}
}

// NewExtractorAt creates an extractor that resolves offsets against a fixed
// clock
func NewExtractorAt(now func() time.Time) *Extractor {
	return &Extractor{now: now}
}

// Extract walks doc in document order and returns the city records it finds.
// The synthetic UTC record is not included.
func (e *Extractor) Extract(doc *html.Node, pageURL string, mode model.SortMode) *model.RecordSet {
	w := &walker{
		records: model.NewRecordSet(mode),
		base:    pageBase(pageURL),
		now:     e.now().UTC(),
		pending: model.CityRecord{ID: -1, Sort: mode},
	}
	w.walk(doc)
	return w.records
}

// Snapshot extracts doc and wraps the records, plus the UTC record, into a
// page snapshot
func (e *Extractor) Snapshot(doc *html.Node, pageURL string, mode model.SortMode) model.PageSnapshot {
	records := model.NewRecordSet(mode)
	records.Insert(UTCRecord(mode))
	for _, r := range e.Extract(doc, pageURL, mode).Records() {
		records.Insert(r)
	}

	return model.PageSnapshot{
		SourceURI: pageURL,
		Records:   records,
	}
}

// SnapshotFromHTML parses content and builds its snapshot
func (e *Extractor) SnapshotFromHTML(content string, pageURL string, mode model.SortMode) (model.PageSnapshot, error) {
	doc, err := ParseHTML(content)
	if err != nil {
		return model.PageSnapshot{}, err
	}
	return e.Snapshot(doc, pageURL, mode), nil
}

// UTCRecord returns the record every page snapshot starts with
func UTCRecord(mode model.SortMode) model.CityRecord {
	return model.CityRecord{
		ID:   -1,
		Name: "UTC",
		URL:  UTCInfoURL,
		Sort: mode,
	}
}

type walker struct {
	records *model.RecordSet
	base    *url.URL
	now     time.Time
	pending model.CityRecord
}

func (w *walker) walk(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.visit(c)
		w.walk(c)
	}
}

func (w *walker) visit(n *html.Node) {
	if n.Type != html.ElementNode {
		return
	}

	if isElement(n, "a") {
		w.pending.Name = FlatText(n)
		w.pending.URL = w.resolve(n)
		return
	}

	id, ok := CorrelationID(n)
	if !ok {
		return
	}

	if id != w.pending.ID {
		w.pending.ID = id
		w.pending.IsDST = strings.Contains(FlatText(n), "*")
		return
	}

	w.pending.TimeString = FlatText(n)
	w.pending.UTCOffset, _ = ResolveTimeString(w.pending.TimeString, w.now)
	w.records.Insert(w.pending)
}

// resolve builds the anchor's absolute URL. It returns "" when the anchor
// has no usable href or the page URL has no host.
func (w *walker) resolve(a *html.Node) string {
	href, ok := GetAttribute(a, "href")
	if !ok || w.base == nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return w.base.ResolveReference(ref).String()
}

func pageBase(pageURL string) *url.URL {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil
	}
	return &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
}
