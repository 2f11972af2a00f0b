package geocode

import "github.com/tesseract-hub/mimir-geocoder/internal/lifecycle"

// docTypes lists every doctype in the fixed order their indices are
// queried (admins, then streets, then the rest).
var docTypes = []string{"admin", "street", "addr", "poi", "stop"}

// queryTypeToDoctype maps the HTTP API's type[] vocabulary (§6) to the
// internal doctype used in index naming.
func queryTypeToDoctype(t string) (string, bool) {
	switch t {
	case "zone":
		return "admin", true
	case "street":
		return "street", true
	case "house":
		return "addr", true
	case "poi":
		return "poi", true
	case "public_transport:stop_area":
		return "stop", true
	default:
		return "", false
	}
}

// resolveDoctypes turns the requested type[] filter into the doctype
// set to search, defaulting to every doctype when none is given.
func resolveDoctypes(types []string) []string {
	if len(types) == 0 {
		return docTypes
	}
	var out []string
	seen := map[string]bool{}
	for _, t := range types {
		dt, ok := queryTypeToDoctype(t)
		if !ok || seen[dt] {
			continue
		}
		seen[dt] = true
		out = append(out, dt)
	}
	return out
}

// indicesFor computes the stable alias names to search: the doctype-wide
// public alias for every requested doctype, plus — only when the caller
// requested _all_data — the dataset-qualified aliases named by
// ptDatasets (stop) and poiDatasets (poi), which is how private
// datasets become reachable at all (§4.G: a private container only
// ever gets its dataset-level alias, never the doctype/global ones).
func indicesFor(doctypes, ptDatasets, poiDatasets []string, allData bool) []string {
	var out []string
	for _, dt := range doctypes {
		out = append(out, lifecycle.RootDoctype(dt))
	}
	if !allData {
		return out
	}
	for _, dt := range doctypes {
		var scoped []string
		switch dt {
		case "stop":
			scoped = ptDatasets
		case "poi":
			scoped = poiDatasets
		}
		for _, ds := range scoped {
			out = append(out, lifecycle.RootDoctypeDataset(dt, ds))
		}
	}
	return out
}
