// Package enrich implements the per-record ingestion enricher of
// spec.md §4.E: admin stack lookup, authoritative-code override,
// country-code derivation, label building, weight derivation, and POI
// address reverse-geocoding.
package enrich

import (
	"context"
	"fmt"

	"github.com/tesseract-hub/mimir-geocoder/internal/dsl"
	"github.com/tesseract-hub/mimir-geocoder/internal/geofinder"
	"github.com/tesseract-hub/mimir-geocoder/internal/label"
	"github.com/tesseract-hub/mimir-geocoder/internal/place"
	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

// isoAlpha2Key is the admin.Codes key carrying the ISO 3166-1 alpha-2
// country code, per spec.md §3 invariant 3.
const isoAlpha2Key = "ISO3166-1:alpha2"

// Enricher holds the shared, read-only resources every enrichment call
// needs: the admin spatial index and the search port used for POI
// address reverse-geocoding.
type Enricher struct {
	Geo                *geofinder.AdminGeoFinder
	Search             search.Searcher
	ReverseAddrIndices []string
	ReverseRadiusM     float64
}

// AdminStack point-locates coord and applies any authoritative
// per-level override (step 2 of spec.md §4.E): an authoritative code
// (e.g. INSEE) replaces the geofinder-found admin at that level while
// every other level is kept as found.
func (e *Enricher) AdminStack(coord place.Coord, authoritative map[uint32]*place.Admin) []*place.Admin {
	stack := e.Geo.Query(coord)
	if len(authoritative) == 0 {
		return stack
	}
	out := make([]*place.Admin, len(stack))
	copy(out, stack)
	for i, a := range out {
		if override, ok := authoritative[a.Level]; ok {
			out[i] = override
		}
	}
	return out
}

// CountryCodes derives the ordered, de-duplicated set of ISO alpha-2
// country codes from an admin stack (spec.md §3 invariant 3).
func CountryCodes(stack []*place.Admin) []string {
	var out []string
	seen := map[string]bool{}
	for _, a := range stack {
		cc, ok := a.Codes[isoAlpha2Key]
		if !ok || cc == "" || seen[cc] {
			continue
		}
		seen[cc] = true
		out = append(out, cc)
	}
	return out
}

// smallestEnclosingCity returns the city-type admin in stack, or nil.
// Spec.md §3 invariant 2 guarantees at most one per stack.
func smallestEnclosingCity(stack []*place.Admin) *place.Admin {
	for _, a := range stack {
		if a.IsCity() {
			return a
		}
	}
	return nil
}

// EnrichStreet computes admins, country codes, label, and weight for a
// freshly parsed Street.
func (e *Enricher) EnrichStreet(s *place.Street, authoritative map[uint32]*place.Admin) {
	stack := e.AdminStack(s.Coord(), authoritative)
	s.SetAdmins(stack)
	s.AdministrativeRegions = stack
	s.CountryCodes = CountryCodes(stack)
	s.SetLabel(label.Street(s.Name, stack, s.CountryCodes))

	if city := smallestEnclosingCity(stack); city != nil {
		s.SetWeight(city.Weight(), city.Normalized())
	}
}

// EnrichAddr computes admins, country codes, label, and weight for a
// freshly parsed Addr, inheriting the embedded street's admin stack.
func (e *Enricher) EnrichAddr(a *place.Addr, authoritative map[uint32]*place.Admin) {
	e.EnrichStreet(&a.Street, authoritative)
	stack := a.Street.Admins()
	a.SetAdmins(stack)
	a.CountryCodes = a.Street.CountryCodes
	lbl, name := label.Address(a.HouseNumber, a.Street.Name, stack, a.CountryCodes)
	a.SetLabel(lbl)
	a.Name = name
	a.SetWeight(a.Street.Weight(), a.Street.Normalized())
}

// EnrichAdmin computes country codes and label for a cosmogony/OSM
// admin; weight is carried as-is from the source (population-derived),
// only the normalization flag is stamped by the ingestion pass that
// follows (internal/enrich does not itself normalize — normalization
// runs once over the full dataset, see Normalize).
func (e *Enricher) EnrichAdmin(a *place.Admin) {
	stack := e.AdminStack(a.Coord(), nil)
	a.SetAdmins(stack)
	a.CountryCodes = CountryCodes(append(stack, a))
	if a.Label() == "" {
		a.SetLabel(a.Name)
	}
}

// poiWeight derives a POI's weight from an "importance" OSM tag when
// present, falling back to the enclosing admin's weight (spec.md §4.E
// step 5: "POIs compute weight from OSM tags + enclosing admin weight").
func poiWeight(p *place.Poi, stack []*place.Admin) (float64, bool) {
	if raw, ok := p.Properties["importance"]; ok {
		var imp float64
		if _, err := fmt.Sscanf(raw, "%g", &imp); err == nil {
			return imp, true
		}
	}
	if city := smallestEnclosingCity(stack); city != nil {
		return city.Weight() * 0.5, city.Normalized()
	}
	return 0, false
}

// EnrichPoi computes admins, country codes, label, weight, and attempts
// a reverse-geocode of the POI's address (spec.md §4.E step 6).
func (e *Enricher) EnrichPoi(ctx context.Context, p *place.Poi, authoritative map[uint32]*place.Admin) {
	stack := e.AdminStack(p.Coord(), authoritative)
	p.SetAdmins(stack)
	p.CountryCodes = CountryCodes(stack)
	if p.Label() == "" {
		p.SetLabel(label.Street(p.Name, stack, p.CountryCodes))
	}
	if w, normalized := poiWeight(p, stack); normalized {
		p.SetWeight(w, normalized)
	}

	if e.Search == nil || len(e.ReverseAddrIndices) == 0 {
		return
	}
	q := dsl.BuildReverse(p.Coord(), e.ReverseRadiusM, dsl.Filter{Limit: 1})
	res, err := e.Search.Search(ctx, e.ReverseAddrIndices, q)
	if err != nil || len(res.Hits) == 0 {
		return
	}
	addr, ok := decodeAddress(res.Hits[0].Doc)
	if ok {
		p.Address = addr
	}
}

// decodeAddress turns a raw search hit back into a Street or Addr,
// based on its "type" discriminator, mirroring place.Poi.DecodeAddress.
func decodeAddress(doc search.Doc) (place.Members, bool) {
	t, _ := doc["type"].(string)
	switch place.Kind(t) {
	case place.KindStreet:
		s := &place.Street{Name: stringField(doc, "name")}
		s.SetLabel(stringField(doc, "label"))
		return s, true
	case place.KindAddr:
		a := &place.Addr{HouseNumber: stringField(doc, "house_number")}
		a.SetLabel(stringField(doc, "label"))
		return a, true
	default:
		return nil, false
	}
}

func stringField(doc search.Doc, key string) string {
	v, _ := doc[key].(string)
	return v
}

// EnrichStop computes admins, country codes, and label for a freshly
// parsed transit Stop. Weight is not in the original spec's per-variant
// list; this derives it from the enclosing city's weight scaled by how
// many lines the stop serves, so busier interchanges outrank single-line
// stops within the same city.
func (e *Enricher) EnrichStop(s *place.Stop) {
	stack := e.AdminStack(s.Coord(), nil)
	s.SetAdmins(stack)
	s.CountryCodes = CountryCodes(stack)
	if s.Label() == "" {
		s.SetLabel(label.Street(s.Name, stack, s.CountryCodes))
	}
	if city := smallestEnclosingCity(stack); city != nil {
		factor := 1.0 + float64(len(s.Lines))
		s.SetWeight(city.Weight()*factor, city.Normalized())
	}
}

// Normalize rescales weight across an entire ingested batch to [0,1]
// and stamps every record Normalized (Open Question 4): serialization
// refuses to emit a weight until this has run.
func Normalize(records []place.Members) {
	max := 0.0
	for _, r := range records {
		if w := r.Weight(); w > max {
			max = w
		}
	}
	if max <= 0 {
		for _, r := range records {
			r.SetWeight(0, true)
		}
		return
	}
	for _, r := range records {
		r.SetWeight(r.Weight()/max, true)
	}
}
