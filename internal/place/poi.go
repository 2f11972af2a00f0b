package place

import "encoding/json"

// PoiType is a small id/name pair classifying a point of interest.
type PoiType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Poi is a point of interest, optionally carrying a reverse-geocoded
// address and nested children (e.g. entrances, sub-venues).
type Poi struct {
	Common

	PoiType    PoiType
	Properties map[string]string
	Address    Members
	Children   []*Poi

	rawAddress json.RawMessage
}

// Kind implements Members.
func (p *Poi) Kind() Kind { return KindPoi }

type poiJSON struct {
	commonJSON
	PoiType    PoiType            `json:"poi_type"`
	Properties map[string]string  `json:"properties,omitempty"`
	Address    json.RawMessage    `json:"address,omitempty"`
	Children   []*Poi             `json:"children,omitempty"`
	Type       Kind               `json:"type"`
}

func (p Poi) MarshalJSON() ([]byte, error) {
	var addr json.RawMessage
	if p.Address != nil {
		b, err := json.Marshal(p.Address)
		if err != nil {
			return nil, err
		}
		addr = b
	}
	return json.Marshal(poiJSON{
		commonJSON: p.Common.toJSON(),
		PoiType:    p.PoiType,
		Properties: p.Properties,
		Address:    addr,
		Children:   p.Children,
		Type:       KindPoi,
	})
}

// UnmarshalJSON decodes everything except Address, whose concrete
// variant (Street or Addr) is only known to the caller; callers that
// need it should decode p.Address's raw bytes themselves via a second
// pass using DecodeAddress.
func (p *Poi) UnmarshalJSON(data []byte) error {
	var j poiJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	p.Common.fromJSON(j.commonJSON)
	p.PoiType = j.PoiType
	p.Properties = j.Properties
	p.Children = j.Children
	p.rawAddress = j.Address
	return nil
}

// DecodeAddress decodes the raw address payload captured during
// UnmarshalJSON into either a Street or an Addr, based on its "type"
// field, and assigns it to p.Address.
func (p *Poi) DecodeAddress() error {
	if len(p.rawAddress) == 0 {
		return nil
	}
	var disc struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(p.rawAddress, &disc); err != nil {
		return err
	}
	switch disc.Type {
	case KindStreet:
		var s Street
		if err := json.Unmarshal(p.rawAddress, &s); err != nil {
			return err
		}
		p.Address = &s
	case KindAddr:
		var a Addr
		if err := json.Unmarshal(p.rawAddress, &a); err != nil {
			return err
		}
		p.Address = &a
	}
	return nil
}
