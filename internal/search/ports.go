// Package search implements the domain ports of spec.md §4.F/§9 against
// Typesense: storage (index/alias lifecycle), bulk insertion, structured
// search, get-by-id, list, and backend status. Every port below is a
// plain Go interface — the Go rendering of the source's capability
// traits (REDESIGN FLAG 1); Go interfaces are already object-safe, so
// there is no ErasedX wrapper layer to port.
package search

import "context"

// Doc is a backend-bound document: a plain JSON-ish map, since the
// search backend's wire protocol is schemaless from the adapter's point
// of view. internal/ingest.ToDoc builds it from a place.Members value.
type Doc map[string]any

// Schema describes one doctype's backend collection: field list plus
// backend-specific settings, consumed here at index-creation time.
type Schema struct {
	Name   string
	Fields []Field
}

// Field is one schema field declaration.
type Field struct {
	Name     string
	Type     string
	Facet    bool
	Optional bool
	Index    bool
}

// Storage creates and destroys timestamped indices and rotates aliases.
// Grounded on original_source libs/mimir2/src/domain/ports/storage.rs.
type Storage interface {
	CreateIndex(ctx context.Context, name string, schema Schema) error
	DeleteIndex(ctx context.Context, name string) error
	AddAlias(ctx context.Context, alias, index string) error
	RemoveAlias(ctx context.Context, alias string) error
	ResolveAlias(ctx context.Context, alias string) (index string, ok bool, err error)
}

// ItemError is one failing document in a bulk batch (§7 kind 4: partial
// bulk failures never abort the whole batch).
type ItemError struct {
	ID    string
	Short string
	Long  string
}

// BulkOutcome aggregates a bulk insertion's per-batch results.
type BulkOutcome struct {
	Created int
	Updated int
	Skipped int
	Deleted int
	Errors  []ItemError
}

// Add merges another outcome's counters and errors into this one.
func (o *BulkOutcome) Add(other BulkOutcome) {
	o.Created += other.Created
	o.Updated += other.Updated
	o.Skipped += other.Skipped
	o.Deleted += other.Deleted
	o.Errors = append(o.Errors, other.Errors...)
}

// Inserter writes one batch of documents into an index. The Typesense
// adapter stamps indexed_at the way the original backend's ingest
// pipeline did; InsertBatch itself does not retry, BulkInsert retries
// failed batches with bounded backoff.
type Inserter interface {
	InsertBatch(ctx context.Context, index string, docs []Doc) (BulkOutcome, error)
}

// Query is the already-built backend query handed to Search; the shape
// produced by internal/dsl.
type Query struct {
	Raw     map[string]any
	Limit   int
	Offset  int
	Explain bool
}

// Hit is one search result: the raw document plus the backend's score
// and, when Query.Explain was set, a scoring breakdown.
type Hit struct {
	Doc        Doc
	Score      float64
	Explain    map[string]any
}

// SearchResult is the typed response of a Search call.
type SearchResult struct {
	Hits  []Hit
	Total int
}

// Searcher executes a structured query across a set of indices.
type Searcher interface {
	Search(ctx context.Context, indices []string, q Query) (SearchResult, error)
}

// Getter multi-gets documents by id across a set of indices.
type Getter interface {
	GetByID(ctx context.Context, indices []string, ids []string) (map[string]Doc, error)
}

// Lister opens a paginated scroll over one index, yielding every
// document. It follows the Go 1.23 range-over-func iterator shape
// (REDESIGN FLAG 3): the caller ranges over List's return value.
type Lister interface {
	List(ctx context.Context, index string) func(yield func(Doc, error) bool)
}

// Health is the backend health reported by Status.
type Health string

const (
	HealthOK   Health = "ok"
	HealthFail Health = "fail"
)

// BackendStatus is the backend half of spec.md §4.K's aggregated status.
type BackendStatus struct {
	Health  Health
	Version string
}

// StatusReporter reports backend health and version.
type StatusReporter interface {
	Status(ctx context.Context) (BackendStatus, error)
}

// Backend is the full capability set the lifecycle manager and the
// geocode/status handlers are built against. A concrete adapter (e.g.
// *Typesense) implements all of it; tests use the in-memory Fake.
type Backend interface {
	Storage
	Inserter
	Searcher
	Getter
	Lister
	StatusReporter
}
