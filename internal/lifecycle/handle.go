package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tesseract-hub/mimir-geocoder/internal/apierror"
	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

// Visibility controls which alias levels Publish rotates (spec.md §4.G:
// "private indices skip the first two alias levels and only attach the
// dataset-qualified alias").
type Visibility int

const (
	Public Visibility = iota
	Private
)

type state int

const (
	stateEmpty state = iota
	statePopulated
	statePublished
)

// Handle is the single-owner container handle returned by Init. Go has
// no linear types, so "must-use" is enforced by API shape: Publish
// takes the handle by pointer and panics on a second call, matching the
// source's must-use contract closely enough to catch programmer error
// rather than silently double-publishing. A handle that is simply
// dropped without Publish leaves its index orphaned — cleanup is out of
// scope, per spec.md §4.G.
type Handle struct {
	manager *Manager
	doctype string
	dataset string
	vis     Visibility
	index   string
	debugID string
	state   state
}

// Manager is the index lifecycle manager of spec.md §4.G, composing a
// search.Backend's Storage/Inserter ports.
type Manager struct {
	backend search.Backend
	now     func() time.Time
}

// NewManager builds a lifecycle Manager over a search backend. now
// defaults to time.Now but is overridable by tests for deterministic
// timestamped index names.
func NewManager(backend search.Backend, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{backend: backend, now: now}
}

// Init creates a new timestamped container for (doctype, dataset) and
// returns a handle carrying its storage reference — phase 1 of the
// three-phase protocol.
func (m *Manager) Init(ctx context.Context, doctype, dataset string, vis Visibility, schema search.Schema) (*Handle, error) {
	name := RootDoctypeDatasetTimestamp(doctype, dataset, m.now())
	if err := m.backend.CreateIndex(ctx, name, schema); err != nil {
		return nil, err
	}
	return &Handle{
		manager: m,
		doctype: doctype,
		dataset: dataset,
		vis:     vis,
		index:   name,
		debugID: uuid.NewString(),
		state:   stateEmpty,
	}, nil
}

// IndexName returns the handle's physical (timestamped) index name.
func (h *Handle) IndexName() string { return h.index }

// Insert streams docs into the handle's container in batches — phase 2,
// chainable (insert then update on the same handle).
func (h *Handle) Insert(ctx context.Context, docs <-chan search.Doc, cfg search.BatchConfig) (search.BulkOutcome, error) {
	if h.state == statePublished {
		panic(fmt.Sprintf("lifecycle: Insert called on published handle %s", h.debugID))
	}
	outcome, err := search.BulkInsert(ctx, h.manager.backend, h.index, docs, cfg)
	if err != nil {
		return outcome, err
	}
	h.state = statePopulated
	return outcome, nil
}

// Publish atomically re-points the alias levels appropriate to the
// handle's visibility from the previous generation to this handle's
// index, then deletes every previous index for the same (doctype,
// dataset) — phase 3. Calling Publish twice on the same handle panics.
func (h *Handle) Publish(ctx context.Context) error {
	if h.state == statePublished {
		panic(fmt.Sprintf("lifecycle: Publish called twice on handle %s", h.debugID))
	}

	aliases := h.aliasLevels()

	previous := map[string]bool{}
	for _, alias := range aliases {
		if idx, ok, err := h.manager.backend.ResolveAlias(ctx, alias); err == nil && ok && idx != h.index {
			if dt, ds, ok := SplitIndexName(idx); ok && dt == h.doctype && ds == h.dataset {
				previous[idx] = true
			}
		}
	}

	for _, alias := range aliases {
		if err := h.manager.backend.AddAlias(ctx, alias, h.index); err != nil {
			return apierror.Wrap(apierror.ContainerLifecycle, "publish_alias_failed", err)
		}
	}

	h.state = statePublished

	for idx := range previous {
		_ = h.manager.backend.DeleteIndex(ctx, idx)
	}
	return nil
}

// aliasLevels returns the alias names this handle's Publish will rotate,
// respecting the private-visibility skip rule.
func (h *Handle) aliasLevels() []string {
	if h.vis == Private {
		return []string{RootDoctypeDataset(h.doctype, h.dataset)}
	}
	return Aliases(h.doctype, h.dataset)
}
