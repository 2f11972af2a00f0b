package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIndexNamingRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 5, 10, 30, 0, 123000, time.UTC)
	name := RootDoctypeDatasetTimestamp("admin", "fr", ts)
	assert.Equal(t, "munin_admin_fr_20260305_103000_000123", name)

	doctype, dataset, ok := SplitIndexName(name)
	require.True(t, ok)
	assert.Equal(t, "admin", doctype)
	assert.Equal(t, "fr", dataset)
}

func TestAliasesOrderedGlobalDoctypeDataset(t *testing.T) {
	got := Aliases("admin", "fr")
	assert.Equal(t, []string{"munin", "munin_admin", "munin_admin_fr"}, got)
}

func TestPublishRotatesAllThreeLevelsAndDeletesPrevious(t *testing.T) {
	fake := search.NewFake()
	mgr := NewManager(fake, fixedNow(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	first, err := mgr.Init(ctx, "admin", "fr", Public, search.Schema{})
	require.NoError(t, err)
	docs := make(chan search.Doc, 1)
	docs <- search.Doc{"id": "admin:1"}
	close(docs)
	_, err = first.Insert(ctx, docs, search.DefaultBatchConfig())
	require.NoError(t, err)
	require.NoError(t, first.Publish(ctx))

	for _, alias := range []string{"munin", "munin_admin", "munin_admin_fr"} {
		idx, ok, err := fake.ResolveAlias(ctx, alias)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, first.IndexName(), idx)
	}

	mgr2 := NewManager(fake, fixedNow(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))
	second, err := mgr2.Init(ctx, "admin", "fr", Public, search.Schema{})
	require.NoError(t, err)
	docs2 := make(chan search.Doc, 1)
	docs2 <- search.Doc{"id": "admin:2"}
	close(docs2)
	_, err = second.Insert(ctx, docs2, search.DefaultBatchConfig())
	require.NoError(t, err)
	require.NoError(t, second.Publish(ctx))

	idx, ok, err := fake.ResolveAlias(ctx, "munin_admin_fr")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second.IndexName(), idx)

	got, err := fake.GetByID(ctx, []string{first.IndexName()}, []string{"admin:1"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPrivateVisibilitySkipsGlobalAndDoctypeAlias(t *testing.T) {
	fake := search.NewFake()
	mgr := NewManager(fake, fixedNow(time.Now()))
	ctx := context.Background()

	h, err := mgr.Init(ctx, "stop", "internal-feed", Private, search.Schema{})
	require.NoError(t, err)
	require.NoError(t, h.Publish(ctx))

	_, ok, _ := fake.ResolveAlias(ctx, "munin")
	assert.False(t, ok)
	_, ok, _ = fake.ResolveAlias(ctx, "munin_stop")
	assert.False(t, ok)
	idx, ok, _ := fake.ResolveAlias(ctx, "munin_stop_internal-feed")
	assert.True(t, ok)
	assert.Equal(t, h.IndexName(), idx)
}

func TestDoublePublishPanics(t *testing.T) {
	fake := search.NewFake()
	mgr := NewManager(fake, fixedNow(time.Now()))
	ctx := context.Background()

	h, err := mgr.Init(ctx, "admin", "fr", Public, search.Schema{})
	require.NoError(t, err)
	require.NoError(t, h.Publish(ctx))

	assert.Panics(t, func() { _ = h.Publish(ctx) })
}
