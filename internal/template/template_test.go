package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

func TestInstallIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "indices"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "indices", "admin.json"),
		[]byte(`{"fields":[{"name":"extra_field","type":"string","optional":true}]}`),
		0o644,
	))

	s1, err := Install(dir)
	require.NoError(t, err)
	s2, err := Install(dir)
	require.NoError(t, err)

	base := search.Schema{Name: "admin", Fields: []search.Field{{Name: "id", Type: "string"}}}
	m1 := s1.Apply("admin", base)
	m2 := s2.Apply("admin", base)
	assert.Equal(t, m1, m2)
	assert.Len(t, m1.Fields, 2)
}

func TestApplyWithoutOverrideReturnsBase(t *testing.T) {
	s, err := Install(t.TempDir())
	require.NoError(t, err)
	base := search.Schema{Name: "street"}
	assert.Equal(t, base, s.Apply("street", base))
}
