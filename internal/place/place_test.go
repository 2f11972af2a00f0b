package place

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordUnmarshalBothForms(t *testing.T) {
	cases := []struct {
		name string
		json string
		want Coord
	}{
		{"struct form", `{"lon":2.35,"lat":48.85}`, Coord{Lon: 2.35, Lat: 48.85}},
		{"tuple form", `[2.35,48.85]`, Coord{Lon: 2.35, Lat: 48.85}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c Coord
			require.NoError(t, json.Unmarshal([]byte(tc.json), &c))
			assert.Equal(t, tc.want, c)
		})
	}
}

func TestCoordUnmarshalRejectsOtherShapes(t *testing.T) {
	var c Coord
	err := json.Unmarshal([]byte(`"2.35,48.85"`), &c)
	assert.Error(t, err)
}

func TestWeightOmittedUntilNormalized(t *testing.T) {
	a := &Admin{Type: ZoneCity}
	a.IDValue = "admin:1"
	a.SetWeight(42, false)

	b, err := json.Marshal(a)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	_, hasWeight := raw["weight"]
	assert.False(t, hasWeight, "un-normalized weight must not be serialized")
	assert.Equal(t, false, raw["normalized"])

	a.SetWeight(42, true)
	b, err = json.Marshal(a)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, float64(42), raw["weight"])
	assert.Equal(t, true, raw["normalized"])
}

func TestSetZipCodesSortsAndDedupes(t *testing.T) {
	c := &Common{}
	c.SetZipCodes([]string{"77000", "75001", "77000", "", "75001"})
	assert.Equal(t, []string{"75001", "77000"}, c.ZipCodes)
}

func TestAdminRoundTrip(t *testing.T) {
	a := &Admin{
		Insee: "77316",
		Level: 8,
		Type:  ZoneCity,
	}
	a.IDValue = "admin:77316"
	a.LabelValue = "Livry-sur-Seine"
	a.SetWeight(0.5, true)

	b, err := json.Marshal(a)
	require.NoError(t, err)

	var got Admin
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, a.IDValue, got.ID())
	assert.Equal(t, a.LabelValue, got.Label())
	assert.True(t, got.IsCity())
	assert.Equal(t, 0.5, got.Weight())
}

func TestStopMergeCoverageUnion(t *testing.T) {
	s := &Stop{Coverages: []string{"corse"}}
	s.MergeCoverage("limousin", "corse")
	assert.Equal(t, []string{"corse", "limousin"}, s.Coverages)
}

var _ Members = (*Admin)(nil)
var _ Members = (*Street)(nil)
var _ Members = (*Addr)(nil)
var _ Members = (*Poi)(nil)
var _ Members = (*Stop)(nil)
