// Package template implements the component/index template installer
// of spec.md §4.H. Typesense has no backend-side template registry, so
// "installing" a template here means reading the JSON fragment into an
// in-memory Store whose Apply layers it onto a search.Schema — install
// is idempotent simply because it is a pure local read, not a mutation
// of backend state. Nothing in the ingestion path calls Install or
// Apply: internal/ingest creates indices from search.SchemaFor's base
// schemas, so installed overrides do not reach CreateIndex.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

// Override is one JSON template file's content: additional or
// overriding fields layered onto a base search.Schema, keyed by the
// file stem (the doctype name), per spec.md §4.H "template names are
// the file stem".
type Override struct {
	Fields []search.Field `json:"fields"`
}

// Store holds every installed override, indexed by doctype.
type Store struct {
	overrides map[string]Override
}

// Install walks dir/components and dir/indices, reading every *.json
// file into the Store keyed by its file stem. Re-running Install
// against the same directory is idempotent: it only replaces the
// in-memory map, never touches a backend resource.
func Install(dir string) (*Store, error) {
	s := &Store{overrides: make(map[string]Override)}
	for _, sub := range []string{"components", "indices"} {
		path := filepath.Join(dir, sub)
		entries, err := os.ReadDir(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("template: reading %s: %w", path, err)
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
				continue
			}
			stem := e.Name()[:len(e.Name())-len(filepath.Ext(e.Name()))]
			raw, err := os.ReadFile(filepath.Join(path, e.Name()))
			if err != nil {
				return nil, fmt.Errorf("template: reading %s: %w", e.Name(), err)
			}
			var o Override
			if err := json.Unmarshal(raw, &o); err != nil {
				return nil, fmt.Errorf("template: parsing %s: %w", e.Name(), err)
			}
			s.overrides[stem] = o
		}
	}
	return s, nil
}

// Apply layers any installed override for doctype onto base, appending
// extra fields. Returns base unchanged if no override was installed.
func (s *Store) Apply(doctype string, base search.Schema) search.Schema {
	o, ok := s.overrides[doctype]
	if !ok {
		return base
	}
	merged := base
	merged.Fields = append(append([]search.Field{}, base.Fields...), o.Fields...)
	return merged
}
