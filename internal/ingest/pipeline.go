// Package ingest is the shared tail end of every *2mimir command: it
// turns a batch of already-enriched place.Members records into
// search.Doc values and drives them through the lifecycle manager's
// Init/Insert/Publish protocol (spec.md §4.G), with the progress-bar and
// colorized summary output common to all four CLIs.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/tesseract-hub/mimir-geocoder/internal/geofinder"
	"github.com/tesseract-hub/mimir-geocoder/internal/lifecycle"
	"github.com/tesseract-hub/mimir-geocoder/internal/place"
	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

// ToDoc renders a place.Members value into the map[string]any shape the
// backend ports expect. It round-trips through the variant's own
// MarshalJSON/UnmarshalJSON-compatible field names rather than
// duplicating them here, so the wire shape stays defined in one place.
func ToDoc(m place.Members) (search.Doc, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("ingest: encoding %s: %w", m.ID(), err)
	}
	var doc search.Doc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("ingest: decoding %s: %w", m.ID(), err)
	}
	return doc, nil
}

// FromDoc decodes a backend-bound Doc back into dst, the inverse of
// ToDoc, by round-tripping it through dst's own UnmarshalJSON.
func FromDoc(doc search.Doc, dst place.Members) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("ingest: encoding doc: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("ingest: decoding doc: %w", err)
	}
	return nil
}

// LoadAdminGeoFinder rebuilds an admin spatial index from whatever
// admin documents are already published at index, so street/addr/poi/
// stop ingestion can locate records inside an administrative hierarchy
// without re-parsing or re-ingesting admins. A missing or empty admin
// index degrades to an empty geofinder (every record then gets no
// admin stack) rather than failing the whole run, since forward/reverse
// admin coverage is a quality concern, not a correctness one.
func LoadAdminGeoFinder(ctx context.Context, lister search.Lister, index string) *geofinder.AdminGeoFinder {
	geo := geofinder.NewBuilder()
	for doc, err := range lister.List(ctx, index) {
		if err != nil {
			continue
		}
		a := &place.Admin{}
		if err := FromDoc(doc, a); err != nil {
			continue
		}
		geo.Add(a)
	}
	geo.Build()
	return geo
}

// Bar returns a progress bar writing to stderr, or nil when stderr
// isn't a terminal (piped output, CI runs) so callers can pass it
// straight to Add without a nil check at every call site.
func Bar(total int, description string) *progressbar.ProgressBar {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(!color.NoColor),
	)
}

// Add advances bar by n, doing nothing if bar is nil.
func Add(bar *progressbar.ProgressBar, n int) {
	if bar != nil {
		_ = bar.Add(n)
	}
}

// Publish runs the full three-phase lifecycle over an in-memory batch
// of already-enriched records: Init a fresh container for (doctype,
// dataset), stream every record through Insert, then Publish it live.
// Callers must run internal/enrich.Normalize over records before
// calling Publish — weight can't be rescaled once documents have left
// the batch, since the docs channel that Insert drains has no way to
// revisit an already-sent document.
func Publish(ctx context.Context, mgr *lifecycle.Manager, doctype, dataset string, vis lifecycle.Visibility, records []place.Members, bar *progressbar.ProgressBar) (search.BulkOutcome, string, error) {
	schema, ok := search.SchemaFor(doctype)
	if !ok {
		return search.BulkOutcome{}, "", fmt.Errorf("ingest: unknown doctype %q", doctype)
	}
	handle, err := mgr.Init(ctx, doctype, dataset, vis, schema)
	if err != nil {
		return search.BulkOutcome{}, "", fmt.Errorf("ingest: init %s/%s: %w", doctype, dataset, err)
	}

	docs := make(chan search.Doc, 64)
	convErr := make(chan error, 1)
	go func() {
		defer close(docs)
		for _, r := range records {
			d, err := ToDoc(r)
			if err != nil {
				convErr <- err
				return
			}
			select {
			case docs <- d:
				Add(bar, 1)
			case <-ctx.Done():
				return
			}
		}
	}()

	outcome, err := handle.Insert(ctx, docs, search.DefaultBatchConfig())
	if err != nil {
		return outcome, handle.IndexName(), fmt.Errorf("ingest: insert %s/%s: %w", doctype, dataset, err)
	}
	select {
	case err := <-convErr:
		return outcome, handle.IndexName(), fmt.Errorf("ingest: %s/%s: %w", doctype, dataset, err)
	default:
	}

	if err := handle.Publish(ctx); err != nil {
		return outcome, handle.IndexName(), fmt.Errorf("ingest: publish %s/%s: %w", doctype, dataset, err)
	}
	return outcome, handle.IndexName(), nil
}

// PrintOutcome writes a colorized one-line ingestion summary to stderr.
func PrintOutcome(doctype, dataset, index string, o search.BulkOutcome) {
	line := fmt.Sprintf("%s/%s -> %s: %d created, %d updated, %d skipped, %d deleted",
		doctype, dataset, index, o.Created, o.Updated, o.Skipped, o.Deleted)
	if len(o.Errors) == 0 {
		color.New(color.FgGreen).Fprintln(os.Stderr, "✓ "+line)
		return
	}
	color.New(color.FgYellow).Fprintf(os.Stderr, "⚠ %s (%d item errors)\n", line, len(o.Errors))
}
