package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coordDoc(id, label string, lat, lon float64) Doc {
	return Doc{
		"id":    id,
		"label": label,
		"coord": map[string]any{"lon": lon, "lat": lat},
	}
}

func TestFakeSearchFiltersByGeoRadius(t *testing.T) {
	fake := NewFake()
	ctx := context.Background()
	require.NoError(t, fake.CreateIndex(ctx, "idx", Schema{}))

	// near: ~100m from the reverse point; far: well outside 500m.
	near := coordDoc("near", "Rue de Rivoli", 48.85406, 2.33027)
	far := coordDoc("far", "Rue Lointaine", 48.9, 2.6)
	_, err := fake.InsertBatch(ctx, "idx", []Doc{near, far})
	require.NoError(t, err)

	q := Query{Raw: map[string]any{
		"q":         "*",
		"query_by":  "label",
		"filter_by": "coord:(48.85406, 2.33027, 0.5 km)",
		"sort_by":   "coord(48.85406,2.33027):asc",
	}, Limit: 10}

	result, err := fake.Search(ctx, []string{"idx"}, q)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "near", result.Hits[0].Doc["id"])
}

func TestFakeSearchSortsByAscendingDistance(t *testing.T) {
	fake := NewFake()
	ctx := context.Background()
	require.NoError(t, fake.CreateIndex(ctx, "idx", Schema{}))

	closer := coordDoc("closer", "A", 48.8541, 2.3303)
	farther := coordDoc("farther", "B", 48.86, 2.35)
	_, err := fake.InsertBatch(ctx, "idx", []Doc{farther, closer})
	require.NoError(t, err)

	q := Query{Raw: map[string]any{
		"q":        "*",
		"query_by": "label",
		"sort_by":  "coord(48.85406,2.33027):asc",
	}, Limit: 10}

	result, err := fake.Search(ctx, []string{"idx"}, q)
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "closer", result.Hits[0].Doc["id"])
	assert.Equal(t, "farther", result.Hits[1].Doc["id"])
}
