package place

import "encoding/json"

// Addr is a house-numbered address on a Street.
type Addr struct {
	Common

	HouseNumber string
	Street      Street
}

// Kind implements Members.
func (a *Addr) Kind() Kind { return KindAddr }

type addrJSON struct {
	commonJSON
	HouseNumber string `json:"house_number"`
	Street      Street `json:"street"`
	Type        Kind   `json:"type"`
}

func (a Addr) MarshalJSON() ([]byte, error) {
	return json.Marshal(addrJSON{
		commonJSON:  a.Common.toJSON(),
		HouseNumber: a.HouseNumber,
		Street:      a.Street,
		Type:        KindAddr,
	})
}

func (a *Addr) UnmarshalJSON(data []byte) error {
	var j addrJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	a.Common.fromJSON(j.commonJSON)
	a.HouseNumber = j.HouseNumber
	a.Street = j.Street
	return nil
}
