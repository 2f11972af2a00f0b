package place

import "encoding/json"

// Street is a named way enclosed by one or more administrative regions.
type Street struct {
	Common

	AdministrativeRegions []*Admin
}

// Kind implements Members.
func (s *Street) Kind() Kind { return KindStreet }

type streetJSON struct {
	commonJSON
	AdministrativeRegions []*Admin `json:"administrative_regions,omitempty"`
	Type                  Kind     `json:"type"`
}

func (s Street) MarshalJSON() ([]byte, error) {
	return json.Marshal(streetJSON{
		commonJSON:            s.Common.toJSON(),
		AdministrativeRegions: s.AdministrativeRegions,
		Type:                  KindStreet,
	})
}

func (s *Street) UnmarshalJSON(data []byte) error {
	var j streetJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	s.Common.fromJSON(j.commonJSON)
	s.AdministrativeRegions = j.AdministrativeRegions
	return nil
}
