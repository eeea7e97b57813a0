package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ppiankov/worldclock/internal/model"
	"github.com/rotisserie/eris"
)

// Renderer prints snapshots. It never modifies them.
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer writing to out
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// RenderTables prints one table per page, pages in name order
func (r *Renderer) RenderTables(snapshots map[string]model.PageSnapshot) {
	for i, name := range sortedNames(snapshots) {
		if i > 0 {
			_, _ = fmt.Fprintln(r.out)
		}
		snap := snapshots[name]
		_, _ = fmt.Fprintf(r.out, "%s (%d cities) %s\n", name, snap.Records.Len(), snap.SourceURI)
		if snap.LastUpdated != "" {
			_, _ = fmt.Fprintf(r.out, "cached at %s\n", snap.LastUpdated)
		}
		r.renderRecords(snap.Records)
	}
}

// RenderMerged prints a single table of all cities across pages
func (r *Renderer) RenderMerged(records *model.RecordSet) {
	_, _ = fmt.Fprintf(r.out, "All pages (%d cities)\n", records.Len())
	r.renderRecords(records)
}

func (r *Renderer) renderRecords(records *model.RecordSet) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"City", "UTC Offset", "Local Time", "DST"})

	for _, c := range records.Records() {
		dst := ""
		if c.IsDST {
			dst = "yes"
		}
		t.AppendRow(table.Row{c.Name, c.UTCOffset.String(), c.TimeString, dst})
	}

	t.Render()
}

// RenderSummary prints the run outcome: where the data came from and which
// pages failed
func (r *Renderer) RenderSummary(result *RunResult) {
	source := "downloaded"
	if result.FromCache {
		source = "served from cache"
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Pages:\t%d %s\n", len(result.Snapshots), source)
	if result.Decision != nil {
		_, _ = fmt.Fprintf(w, "Cache:\t%s\n", result.Decision)
		if !result.FromCache {
			_, _ = fmt.Fprintf(w, "Cache updated:\t%t\n", result.Persisted)
		}
	}
	failed := make([]string, 0, len(result.Failures))
	for name := range result.Failures {
		failed = append(failed, name)
	}
	sort.Strings(failed)
	for _, name := range failed {
		_, _ = fmt.Fprintf(w, "Failed:\t%s: %v\n", name, result.Failures[name])
	}
	_ = w.Flush()
}

// RenderJSON writes snapshots to path as a JSON object keyed by page name
func (r *Renderer) RenderJSON(snapshots map[string]model.PageSnapshot, path string) error {
	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal snapshots")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return eris.Wrapf(err, "create dir %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}

func sortedNames(snapshots map[string]model.PageSnapshot) []string {
	names := make([]string, 0, len(snapshots))
	for name := range snapshots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
