package ntfs

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-hub/mimir-geocoder/internal/place"
)

const stopsTxt = `stop_id,stop_name,stop_lat,stop_lon,location_type,parent_station,stop_timezone
SA1,Gare Centrale,48.85,2.35,1,,Europe/Paris
SP1,Gare Centrale - Quai A,48.851,2.351,0,SA1,
SP2,Gare Centrale - Quai B,48.849,2.349,0,SA1,
`

const stopLinesTxt = `stop_id,line_id,commercial_mode,physical_mode
SP1,L1,Metro,metro
SP2,L2,Bus,bus
SA1,L1,Metro,metro
`

func buildArchive(t *testing.T, files map[string]string) *zip.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return zr
}

func TestParseAggregatesChildModesAndLines(t *testing.T) {
	zr := buildArchive(t, map[string]string{"stops.txt": stopsTxt, "stop_lines.txt": stopLinesTxt})

	var stops []*place.Stop
	for s, err := range Parse(zr) {
		require.NoError(t, err)
		stops = append(stops, s)
	}
	require.Len(t, stops, 1)
	s := stops[0]
	assert.Equal(t, "stop_area:SA1", s.ID())
	assert.Equal(t, "Gare Centrale", s.Name)
	assert.Equal(t, []string{"L1", "L2"}, s.Lines)
	assert.Equal(t, []string{"bus", "metro"}, s.PhysicalModes)
	assert.Equal(t, []string{"Bus", "Metro"}, s.CommercialModes)
	assert.Equal(t, "Europe/Paris", s.Timezone)
	assert.Equal(t, place.Coord{Lon: 2.35, Lat: 48.85}, s.Coord())
}

func TestParseOnlyEmitsStopAreas(t *testing.T) {
	zr := buildArchive(t, map[string]string{"stops.txt": stopsTxt, "stop_lines.txt": stopLinesTxt})
	for s, err := range Parse(zr) {
		require.NoError(t, err)
		assert.NotEqual(t, "SP1", s.ID())
		assert.NotEqual(t, "SP2", s.ID())
	}
}

func TestParseAveragesChildCoordWhenAreaHasNone(t *testing.T) {
	noCoordStops := `stop_id,stop_name,stop_lat,stop_lon,location_type,parent_station,stop_timezone
SA2,Place Sans Coord,0,0,1,,
SP3,Enfant A,10,20,0,SA2,
SP4,Enfant B,20,30,0,SA2,
`
	zr := buildArchive(t, map[string]string{"stops.txt": noCoordStops, "stop_lines.txt": stopLinesTxt})
	var stops []*place.Stop
	for s, err := range Parse(zr) {
		require.NoError(t, err)
		stops = append(stops, s)
	}
	require.Len(t, stops, 1)
	assert.Equal(t, place.Coord{Lon: 25, Lat: 15}, stops[0].Coord())
}

func TestParseMissingFileErrors(t *testing.T) {
	zr := buildArchive(t, map[string]string{"stops.txt": stopsTxt})
	var gotErr bool
	for _, err := range Parse(zr) {
		if err != nil {
			gotErr = true
		}
	}
	assert.True(t, gotErr)
}

const feedInfoXML = `<?xml version="1.0"?>
<feed_info>
  <feed_publisher_name>Ile-de-France Mobilites</feed_publisher_name>
</feed_info>
`

func TestParseAttachesFeedPublisherFromXML(t *testing.T) {
	zr := buildArchive(t, map[string]string{
		"stops.txt":      stopsTxt,
		"stop_lines.txt": stopLinesTxt,
		"feed_info.xml":  feedInfoXML,
	})
	var stops []*place.Stop
	for s, err := range Parse(zr) {
		require.NoError(t, err)
		stops = append(stops, s)
	}
	require.Len(t, stops, 1)
	assert.Equal(t, []string{"Ile-de-France Mobilites"}, stops[0].FeedPublishers)
}

func TestParseWithoutFeedInfoLeavesPublishersNil(t *testing.T) {
	zr := buildArchive(t, map[string]string{"stops.txt": stopsTxt, "stop_lines.txt": stopLinesTxt})
	var stops []*place.Stop
	for s, err := range Parse(zr) {
		require.NoError(t, err)
		stops = append(stops, s)
	}
	require.Len(t, stops, 1)
	assert.Nil(t, stops[0].FeedPublishers)
}
