// Package place defines the tagged-variant place model shared by every
// doctype the platform ingests and serves: Admin, Street, Addr, Poi, Stop.
package place

import (
	"encoding/json"
	"sort"
)

// Kind discriminates the five place variants. Serialized as the JSON
// "type" field.
type Kind string

const (
	KindAdmin Kind = "admin"
	KindPoi   Kind = "poi"
	KindStop  Kind = "public_transport:stop_area"
	KindStreet Kind = "street"
	KindAddr  Kind = "house"
)

// ZoneType classifies an Admin's place in the administrative hierarchy.
type ZoneType string

const (
	ZoneSuburb         ZoneType = "suburb"
	ZoneCityDistrict   ZoneType = "city_district"
	ZoneCity           ZoneType = "city"
	ZoneStateDistrict  ZoneType = "state_district"
	ZoneState          ZoneType = "state"
	ZoneCountryRegion  ZoneType = "country_region"
	ZoneCountry        ZoneType = "country"
	ZoneNonAdmin       ZoneType = "non_administrative"
)

// NameMap is an i18n mapping from language code to string.
type NameMap map[string]string

// Members is the capability interface every place variant implements.
// It is the Go rendering of the source's Members trait: a plain
// interface, not a trait-object wrapper, since Go interfaces are
// already object-safe.
type Members interface {
	Kind() Kind
	ID() string
	SetLabel(string)
	Label() string
	SetAdmins([]*Admin)
	Admins() []*Admin
	Coord() Coord
	SetDistance(meters float64)
	Distance() float64
	SetContext(map[string]any)
	Context() map[string]any
	Weight() float64
	SetWeight(w float64, normalized bool)
	Normalized() bool
}

// Common holds the attributes shared by every place variant (spec §3).
type Common struct {
	IDValue      string         `json:"id"`
	LabelValue   string         `json:"label"`
	Name         string         `json:"name"`
	CoordValue   Coord          `json:"coord"`
	ApproxCoord  *Rect          `json:"approx_coord,omitempty"`
	WeightValue  float64        `json:"-"`
	IsNormalized bool           `json:"-"`
	ZipCodes     []string       `json:"zip_codes,omitempty"`
	CountryCodes []string       `json:"country_codes,omitempty"`
	AdminsValue  []*Admin       `json:"admins,omitempty"`
	DistanceM    float64        `json:"distance,omitempty"`
	ContextValue map[string]any `json:"context,omitempty"`
}

func (c *Common) ID() string                { return c.IDValue }
func (c *Common) SetLabel(l string)         { c.LabelValue = l }
func (c *Common) Label() string             { return c.LabelValue }
func (c *Common) SetAdmins(a []*Admin)      { c.AdminsValue = a }
func (c *Common) Admins() []*Admin          { return c.AdminsValue }
func (c *Common) Coord() Coord              { return c.CoordValue }
func (c *Common) SetDistance(m float64)     { c.DistanceM = m }
func (c *Common) Distance() float64         { return c.DistanceM }
func (c *Common) SetContext(v map[string]any) { c.ContextValue = v }
func (c *Common) Context() map[string]any   { return c.ContextValue }
func (c *Common) Weight() float64           { return c.WeightValue }
func (c *Common) Normalized() bool          { return c.IsNormalized }

// SetWeight stamps the weight together with the normalization flag (Open
// Question 4): serialization refuses to emit a weight that was never
// marked normalized.
func (c *Common) SetWeight(w float64, normalized bool) {
	c.WeightValue = w
	c.IsNormalized = normalized
}

// SetZipCodes stores the zip codes sorted ascending and de-duplicated,
// per spec invariant 5.
func (c *Common) SetZipCodes(codes []string) {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, z := range codes {
		if z == "" || seen[z] {
			continue
		}
		seen[z] = true
		out = append(out, z)
	}
	sort.Strings(out)
	c.ZipCodes = out
}

// commonJSON is the wire shape of Common, adding the fields that need
// custom gating (weight, normalized) on top of the plain struct tags.
type commonJSON struct {
	ID           string         `json:"id"`
	Label        string         `json:"label"`
	Name         string         `json:"name"`
	Coord        Coord          `json:"coord"`
	ApproxCoord  *Rect          `json:"approx_coord,omitempty"`
	Weight       *float64       `json:"weight,omitempty"`
	Normalized   bool           `json:"normalized"`
	ZipCodes     []string       `json:"zip_codes,omitempty"`
	CountryCodes []string       `json:"country_codes,omitempty"`
	Admins       []*Admin       `json:"admins,omitempty"`
	Distance     float64        `json:"distance,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
}

func (c Common) toJSON() commonJSON {
	out := commonJSON{
		ID:           c.IDValue,
		Label:        c.LabelValue,
		Name:         c.Name,
		Coord:        c.CoordValue,
		ApproxCoord:  c.ApproxCoord,
		Normalized:   c.IsNormalized,
		ZipCodes:     c.ZipCodes,
		CountryCodes: c.CountryCodes,
		Admins:       c.AdminsValue,
		Distance:     c.DistanceM,
		Context:      c.ContextValue,
	}
	if c.IsNormalized {
		w := c.WeightValue
		out.Weight = &w
	}
	return out
}

func (c *Common) fromJSON(j commonJSON) {
	c.IDValue = j.ID
	c.LabelValue = j.Label
	c.Name = j.Name
	c.CoordValue = j.Coord
	c.ApproxCoord = j.ApproxCoord
	c.IsNormalized = j.Normalized
	if j.Weight != nil {
		c.WeightValue = *j.Weight
	}
	c.ZipCodes = j.ZipCodes
	c.CountryCodes = j.CountryCodes
	c.AdminsValue = j.Admins
	c.DistanceM = j.Distance
	c.ContextValue = j.Context
}

// Geometry renders a geometry-bearing Place as a GeoJSON Feature's
// geometry: the point coordinate, or for an Admin with a boundary and
// boundary=true requested, the boundary multi-polygon.
func Geometry(m Members, includeBoundary bool) json.RawMessage {
	if a, ok := m.(*Admin); ok && includeBoundary && a.Boundary != nil {
		b, _ := json.Marshal(struct {
			Type        string       `json:"type"`
			Coordinates MultiPolygon `json:"coordinates"`
		}{"MultiPolygon", *a.Boundary})
		return b
	}
	c := m.Coord()
	b, _ := json.Marshal(struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	}{"Point", []float64{c.Lon, c.Lat}})
	return b
}
