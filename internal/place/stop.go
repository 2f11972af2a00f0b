package place

import (
	"encoding/json"
	"sort"
)

// Stop is a public-transport stop area or stop point.
type Stop struct {
	Common

	CommercialModes []string
	PhysicalModes   []string
	Comments        []string
	Codes           map[string]string
	Lines           []string
	FeedPublishers  []string
	Coverages       []string
	Timezone        string
}

// Kind implements Members.
func (s *Stop) Kind() Kind { return KindStop }

type stopJSON struct {
	commonJSON
	CommercialModes []string          `json:"commercial_modes,omitempty"`
	PhysicalModes   []string          `json:"physical_modes,omitempty"`
	Comments        []string          `json:"comments,omitempty"`
	Codes           map[string]string `json:"codes,omitempty"`
	Lines           []string          `json:"lines,omitempty"`
	FeedPublishers  []string          `json:"feed_publishers,omitempty"`
	Coverages       []string          `json:"coverages,omitempty"`
	Timezone        string            `json:"timezone,omitempty"`
	Type            Kind              `json:"type"`
}

func (s Stop) MarshalJSON() ([]byte, error) {
	return json.Marshal(stopJSON{
		commonJSON:      s.Common.toJSON(),
		CommercialModes: s.CommercialModes,
		PhysicalModes:   s.PhysicalModes,
		Comments:        s.Comments,
		Codes:           s.Codes,
		Lines:           s.Lines,
		FeedPublishers:  s.FeedPublishers,
		Coverages:       s.Coverages,
		Timezone:        s.Timezone,
		Type:            KindStop,
	})
}

func (s *Stop) UnmarshalJSON(data []byte) error {
	var j stopJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	s.Common.fromJSON(j.commonJSON)
	s.CommercialModes = j.CommercialModes
	s.PhysicalModes = j.PhysicalModes
	s.Comments = j.Comments
	s.Codes = j.Codes
	s.Lines = j.Lines
	s.FeedPublishers = j.FeedPublishers
	s.Coverages = j.Coverages
	s.Timezone = j.Timezone
	return nil
}

// MergeCoverage adds dataset names to Coverages, keeping the set sorted
// and unique (scenario 4 of spec §8: a stop ingested under two datasets
// carries the union of both in a single document).
func (s *Stop) MergeCoverage(datasets ...string) {
	seen := make(map[string]bool, len(s.Coverages))
	for _, d := range s.Coverages {
		seen[d] = true
	}
	for _, d := range datasets {
		if !seen[d] {
			s.Coverages = append(s.Coverages, d)
			seen[d] = true
		}
	}
	sort.Strings(s.Coverages)
}
