package dsl

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-hub/mimir-geocoder/internal/place"
)

func TestDefaultSettingsIsLoadable(t *testing.T) {
	s := Default()
	assert.Equal(t, DecayGauss, s.ImportanceQuery.Proximity.Decay.Func)
	assert.Greater(t, s.ReverseQuery.Radius, 0.0)
}

func TestLoadParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/query.toml"
	content := `
[type_query]
global_boost = 2.0
[type_query.boosts]
address = 1.1
admin = 1.2
stop = 1.0
poi = 1.0
street = 1.0
[string_query]
global = 1.0
[string_query.boosts]
name = 1.0
label = 1.0
"label.prefix" = 1.5
zip_codes = 1.0
house_number = 1.0
"label.ngram" = 0.8
"label.ngram_with_coord" = 0.8
[importance_query.proximity]
weight = 0.2
weight_fuzzy = 0.1
[importance_query.proximity.decay]
func = "exp"
scale = 10
offset = 1
decay = 0.5
[importance_query.weights.max_radius]
admin = 2.0
factor = 1.0
missing = 0.0
[importance_query.weights.min_radius_prefix]
admin = 1.0
factor = 0.5
missing = 0.0
[importance_query.weights.min_radius_fuzzy]
admin = 1.0
factor = 0.3
missing = 0.0
[reverse_query]
radius = 500
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.TypeQuery.GlobalBoost)
	assert.Equal(t, DecayExp, s.ImportanceQuery.Proximity.Decay.Func)
	assert.Equal(t, 500.0, s.ReverseQuery.Radius)
}

func TestBuildForwardIncludesTextClause(t *testing.T) {
	q := BuildForward("rivoli", Filter{Limit: 5}, Default())
	assert.Equal(t, "rivoli", q.Raw["q"])
	assert.Contains(t, q.Raw["query_by"], "label")
	assert.Equal(t, 5, q.Limit)
}

func TestBuildForwardWithFocusAddsProximitySort(t *testing.T) {
	focus := &place.Coord{Lon: 2.35, Lat: 48.85}
	q := BuildForward("rivoli", Filter{Focus: focus}, Default())
	assert.Contains(t, q.Raw["sort_by"], "coord(48.85,2.35)")
}

func TestBuildForwardWithDatasetFilter(t *testing.T) {
	q := BuildForward("x", Filter{Datasets: []string{"fr", "be"}}, Default())
	assert.Equal(t, "dataset:[fr,be]", q.Raw["filter_by"])
}

func TestBuildReverseUsesRadiusAndSort(t *testing.T) {
	q := BuildReverse(place.Coord{Lon: 2.33027, Lat: 48.85406}, 1000, Filter{})
	assert.Contains(t, q.Raw["filter_by"], "coord:(48.85406, 2.33027, 1 km)")
	assert.Equal(t, "coord(48.85406,2.33027):asc", q.Raw["sort_by"])
}

func TestBuildFeatureCombinesIDsAndDatasets(t *testing.T) {
	q := BuildFeature([]string{"admin:1", "admin:2"}, []string{"fr"})
	assert.Equal(t, "id:[admin:1,admin:2] && dataset:[fr]", q.Raw["filter_by"])
}

func TestAdminWeightRankIsMonotonic(t *testing.T) {
	s := Default()
	low := AdminWeightRank(0.01, s)
	high := AdminWeightRank(0.9, s)
	assert.Less(t, low, high)
}
