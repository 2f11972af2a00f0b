// Package dsl builds a structured backend query from a text query,
// optional focus coordinate, optional shape filter, and the weighted
// settings of spec.md §4.I — grounded on original_source
// libs/mimir2/src/adapters/primary/common/dsl.rs (query construction)
// and libs/bragi/src/query_settings.rs (the TOML settings schema,
// canonical per Open Question 1).
package dsl

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// TypeQueryBoosts weights the type-prior disjunction (spec §4.I).
type TypeQueryBoosts struct {
	Address float64 `toml:"address"`
	Admin   float64 `toml:"admin"`
	Stop    float64 `toml:"stop"`
	Poi     float64 `toml:"poi"`
	Street  float64 `toml:"street"`
}

// TypeQuery is the type-prior clause settings.
type TypeQuery struct {
	GlobalBoost float64         `toml:"global_boost"`
	Boosts      TypeQueryBoosts `toml:"boosts"`
}

// StringQueryBoosts weights each text-matchable field.
type StringQueryBoosts struct {
	Name               float64 `toml:"name"`
	Label              float64 `toml:"label"`
	LabelPrefix        float64 `toml:"label.prefix"`
	ZipCodes           float64 `toml:"zip_codes"`
	HouseNumber        float64 `toml:"house_number"`
	LabelNgram         float64 `toml:"label.ngram"`
	LabelNgramWithCoord float64 `toml:"label.ngram_with_coord"`
}

// StringQuery is the mandatory text-match clause settings.
type StringQuery struct {
	Global float64           `toml:"global"`
	Boosts StringQueryBoosts `toml:"boosts"`
}

// DecayFunc selects the proximity decay curve shape.
type DecayFunc string

const (
	DecayGauss  DecayFunc = "gauss"
	DecayExp    DecayFunc = "exp"
	DecayLinear DecayFunc = "linear"
)

// Decay parameterizes the proximity decay function; scale/offset are in
// kilometers, Decay is the curve's value at scale+offset, in (0,1).
type Decay struct {
	Func   DecayFunc `toml:"func"`
	Scale  float64   `toml:"scale"`
	Offset float64   `toml:"offset"`
	Decay  float64   `toml:"decay"`
}

// Proximity is the proximity-boost clause settings.
type Proximity struct {
	Weight      float64 `toml:"weight"`
	WeightFuzzy float64 `toml:"weight_fuzzy"`
	Decay       Decay   `toml:"decay"`
}

// BuildWeight is one radius band's weight modifier (admin multiplier,
// factor, and the value used when a document lacks a weight).
type BuildWeight struct {
	Admin   float64 `toml:"admin"`
	Factor  float64 `toml:"factor"`
	Missing float64 `toml:"missing"`
}

// Weights holds the three radius-band weight modifiers.
type Weights struct {
	MaxRadius      BuildWeight `toml:"max_radius"`
	MinRadiusPrefix BuildWeight `toml:"min_radius_prefix"`
	MinRadiusFuzzy BuildWeight `toml:"min_radius_fuzzy"`
}

// ImportanceQuery is the admin-weight/proximity boost clause settings.
type ImportanceQuery struct {
	Proximity Proximity `toml:"proximity"`
	Weights   Weights   `toml:"weights"`
}

// ReverseQuery is the reverse-geocoder's search radius, in meters.
type ReverseQuery struct {
	Radius float64 `toml:"radius"`
}

// Settings is the full TOML-backed QuerySettings schema (Open Question
// 1: this schema is canonical over the older JSON-backed one).
type Settings struct {
	TypeQuery       TypeQuery       `toml:"type_query"`
	StringQuery     StringQuery     `toml:"string_query"`
	ImportanceQuery ImportanceQuery `toml:"importance_query"`
	ReverseQuery    ReverseQuery    `toml:"reverse_query"`
}

// Default returns a complete, internally consistent Settings value —
// loading it must always succeed for every documented binary (spec.md
// §8 universal invariant 6).
func Default() Settings {
	return Settings{
		TypeQuery: TypeQuery{
			GlobalBoost: 1.0,
			Boosts: TypeQueryBoosts{
				Address: 1.0, Admin: 1.0, Stop: 1.0, Poi: 1.0, Street: 1.0,
			},
		},
		StringQuery: StringQuery{
			Global: 1.0,
			Boosts: StringQueryBoosts{
				Name: 1.0, Label: 1.0, LabelPrefix: 1.5,
				ZipCodes: 1.0, HouseNumber: 1.0,
				LabelNgram: 0.8, LabelNgramWithCoord: 0.8,
			},
		},
		ImportanceQuery: ImportanceQuery{
			Proximity: Proximity{
				Weight:      0.2,
				WeightFuzzy: 0.1,
				Decay:       Decay{Func: DecayGauss, Scale: 50, Offset: 1, Decay: 0.5},
			},
			Weights: Weights{
				MaxRadius:       BuildWeight{Admin: 2.0, Factor: 1.0, Missing: 0.0},
				MinRadiusPrefix: BuildWeight{Admin: 1.0, Factor: 0.5, Missing: 0.0},
				MinRadiusFuzzy:  BuildWeight{Admin: 1.0, Factor: 0.3, Missing: 0.0},
			},
		},
		ReverseQuery: ReverseQuery{Radius: 1000},
	}
}

// Load reads Settings from a TOML file at path.
func Load(path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("dsl: reading settings %s: %w", path, err)
	}
	s := Default()
	if err := toml.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("dsl: parsing settings %s: %w", path, err)
	}
	return s, nil
}
