package place

import "encoding/json"

// Admin is an administrative region: country, region, department, city...
type Admin struct {
	Common

	Insee    string
	Level    uint32
	Type     ZoneType
	Boundary *MultiPolygon
	ParentID string
	Codes    map[string]string
	Names    NameMap
	Labels   NameMap
	Bbox     *Rect
}

// Kind implements Members.
func (a *Admin) Kind() Kind { return KindAdmin }

// IsCity reports whether this admin is a city-level zone (spec §4.B/§3
// invariant 2 uses "city level" as the unit of admin-stack dedup).
func (a *Admin) IsCity() bool { return a.Type == ZoneCity }

type adminJSON struct {
	commonJSON
	Insee    string            `json:"insee,omitempty"`
	Level    uint32            `json:"level"`
	ZoneType ZoneType          `json:"zone_type"`
	Boundary *MultiPolygon     `json:"boundary,omitempty"`
	ParentID string            `json:"parent_id,omitempty"`
	Codes    map[string]string `json:"codes,omitempty"`
	Names    NameMap           `json:"names,omitempty"`
	Labels   NameMap           `json:"labels,omitempty"`
	Bbox     *Rect             `json:"bbox,omitempty"`
	Type     Kind              `json:"type"`
}

// MarshalJSON discriminates the tagged variant by a "type" field.
func (a Admin) MarshalJSON() ([]byte, error) {
	return json.Marshal(adminJSON{
		commonJSON: a.Common.toJSON(),
		Insee:      a.Insee,
		Level:      a.Level,
		ZoneType:   a.Type,
		Boundary:   a.Boundary,
		ParentID:   a.ParentID,
		Codes:      a.Codes,
		Names:      a.Names,
		Labels:     a.Labels,
		Bbox:       a.Bbox,
		Type:       KindAdmin,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (a *Admin) UnmarshalJSON(data []byte) error {
	var j adminJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	a.Common.fromJSON(j.commonJSON)
	a.Insee = j.Insee
	a.Level = j.Level
	a.Type = j.ZoneType
	a.Boundary = j.Boundary
	a.ParentID = j.ParentID
	a.Codes = j.Codes
	a.Names = j.Names
	a.Labels = j.Labels
	a.Bbox = j.Bbox
	return nil
}
