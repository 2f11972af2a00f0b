// Package lifecycle implements the index lifecycle manager of spec.md
// §4.G: the three-phase Init/Insert/Publish protocol with atomic
// 3-level alias rotation, grounded on original_source
// libs/mimir2/src/domain/model/configuration.rs (index/alias naming
// helpers) and libs/mimir2/src/domain/ports/primary/generate_index.rs
// (the phase protocol itself).
package lifecycle

import (
	"fmt"
	"regexp"
	"time"
)

const rootAlias = "munin"

// RootDoctypeDatasetTimestamp builds the physical, timestamped index
// name: munin_<doctype>_<dataset>_YYYYMMDD_HHMMSS_ffffff. Timestamp
// resolution is microseconds so multiple same-second publishes remain
// distinguishable.
func RootDoctypeDatasetTimestamp(doctype, dataset string, at time.Time) string {
	utc := at.UTC()
	stamp := fmt.Sprintf("%s_%06d", utc.Format("20060102_150405"), utc.Nanosecond()/1000)
	return fmt.Sprintf("%s_%s_%s_%s", rootAlias, doctype, dataset, stamp)
}

// RootDoctypeDataset builds the dataset-level alias: munin_<doctype>_<dataset>.
func RootDoctypeDataset(doctype, dataset string) string {
	return fmt.Sprintf("%s_%s_%s", rootAlias, doctype, dataset)
}

// RootDoctype builds the doctype-level alias: munin_<doctype>.
func RootDoctype(doctype string) string {
	return fmt.Sprintf("%s_%s", rootAlias, doctype)
}

// Root is the global alias: munin.
func Root() string { return rootAlias }

// Aliases returns the three alias levels that Publish rotates for a
// (doctype, dataset) pair, in the order they must all agree (§3
// invariant 7): global, doctype, dataset.
func Aliases(doctype, dataset string) []string {
	return []string{Root(), RootDoctype(doctype), RootDoctypeDataset(doctype, dataset)}
}

// splitIndexName extracts (doctype, dataset) from a physical index name
// of the form munin_<doctype>_<dataset>_<timestamp...>, ported from the
// source's regex `[^_]+_([^_]+)_([^_]+)_*`.
var splitIndexName = regexp.MustCompile(`^[^_]+_([^_]+)_([^_]+)_.*$`)

// SplitIndexName parses a physical index name back into its
// (doctype, dataset) components. ok is false if the name does not
// match the expected shape.
func SplitIndexName(name string) (doctype, dataset string, ok bool) {
	m := splitIndexName.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
