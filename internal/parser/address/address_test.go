package address

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-hub/mimir-geocoder/internal/place"
)

const banoCSV = `id,house_number,street,zip,city,src,lat,lon
771234567X,12,Rue de Paris,77000;77001,Melun,bano,48.5,2.6
771239999X,14,,75000,Fake-City,bano,48.5,2.6
short,1,Rue Courte,75000,Paris,bano,48.85,2.35
`

func collectBano(t *testing.T) []*BanoRecord {
	var out []*BanoRecord
	for rec, err := range ParseBano(strings.NewReader(banoCSV)) {
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func TestParseBanoSkipsRowsWithoutStreet(t *testing.T) {
	recs := collectBano(t)
	for _, r := range recs {
		assert.NotEqual(t, "Fake-City", r.Addr.Street.Name)
	}
}

func TestParseBanoBuildsIDAndInsee(t *testing.T) {
	recs := collectBano(t)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, "77123", rec.Insee)
	assert.Equal(t, "addr:2.6;48.5:12", rec.Addr.ID())
	assert.Equal(t, "street:771234567X", rec.Addr.Street.ID())
	assert.Equal(t, []string{"77000", "77001"}, rec.Addr.ZipCodes)
	assert.Equal(t, place.Coord{Lon: 2.6, Lat: 48.5}, rec.Addr.Coord())
}

func TestParseBanoRejectsTooShortID(t *testing.T) {
	found := false
	for _, err := range ParseBano(strings.NewReader(banoCSV)) {
		if err != nil {
			found = true
		}
	}
	assert.True(t, found)
}

const openAddressCSV = `id,street,postcode,district,region,city,number,unit,lat,lon
osm:way:1,Rue de la Paix,75002,,IDF,Paris,10,,48.869,2.331
osm:way:2,,75002,,IDF,Paris,10,,48.869,2.331
`

func TestParseOpenAddressSkipsRowsWithoutStreet(t *testing.T) {
	var addrs []*place.Addr
	for a, err := range ParseOpenAddress(strings.NewReader(openAddressCSV), 0) {
		require.NoError(t, err)
		addrs = append(addrs, a)
	}
	require.Len(t, addrs, 1)
	assert.Equal(t, "Rue de la Paix", addrs[0].Street.Name)
	assert.Equal(t, []string{"75002"}, addrs[0].ZipCodes)
}

func TestParseOpenAddressIDPrecisionTruncates(t *testing.T) {
	var addrs []*place.Addr
	for a, err := range ParseOpenAddress(strings.NewReader(openAddressCSV), 3) {
		require.NoError(t, err)
		addrs = append(addrs, a)
	}
	require.Len(t, addrs, 1)
	assert.Equal(t, "addr:2.331;48.869:10", addrs[0].ID())
}

func TestParseBanoMissingHeaderColumnErrors(t *testing.T) {
	bad := "id,street,lat,lon\n1,Rue,1,1\n"
	var gotErr bool
	for _, err := range ParseBano(strings.NewReader(bad)) {
		if err != nil {
			gotErr = true
		}
	}
	assert.True(t, gotErr)
}
