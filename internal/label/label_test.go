package label

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tesseract-hub/mimir-geocoder/internal/place"
)

func city(label string, zips ...string) *place.Admin {
	a := &place.Admin{Type: place.ZoneCity}
	a.LabelValue = label
	a.ZipCodes = zips
	return a
}

func TestStreetLabelOmitsEmptyParens(t *testing.T) {
	got := Street("Rue de Rivoli", nil, nil)
	assert.Equal(t, "Rue de Rivoli", got)
}

func TestStreetLabelWithCity(t *testing.T) {
	admins := []*place.Admin{city("Paris")}
	got := Street("Rue de Rivoli", admins, []string{"FR"})
	assert.Equal(t, "Rue de Rivoli (Paris)", got)
}

func TestStreetLabelFRAppendsPostcode(t *testing.T) {
	admins := []*place.Admin{city("Paris", "75001")}
	got := Street("Rue de Rivoli", admins, []string{"FR"})
	assert.Equal(t, "Rue de Rivoli (Paris 75001)", got)
}

func TestStreetLabelNonFRNoPostcode(t *testing.T) {
	admins := []*place.Admin{city("Berlin", "10117")}
	got := Street("Unter den Linden", admins, []string{"DE"})
	assert.Equal(t, "Unter den Linden (Berlin)", got)
}

func TestAddressLabelAndName(t *testing.T) {
	admins := []*place.Admin{city("Livry-sur-Seine", "77000")}
	lbl, name := Address("10", "Place de la Mairie", admins, []string{"FR"})
	assert.Equal(t, "10 Place de la Mairie, Livry-sur-Seine 77000", lbl)
	assert.Equal(t, "10 Place de la Mairie", name)
}

func TestAddressLabelDedupesRepeatedCity(t *testing.T) {
	admins := []*place.Admin{city("Paris"), city("Paris")}
	lbl, _ := Address("1", "Rue de Rivoli", admins, nil)
	assert.Equal(t, "1 Rue de Rivoli, Paris", lbl)
}
