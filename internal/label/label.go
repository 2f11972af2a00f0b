// Package label builds display labels for streets and addresses from
// house numbers, street names, and the enclosing administrative stack.
// Every function here is pure: identical inputs always produce
// identical outputs (spec.md §4.C).
package label

import (
	"fmt"
	"strings"

	"github.com/tesseract-hub/mimir-geocoder/internal/place"
)

// cityLabels returns the unique labels of city-type admins in admins,
// in ascending level order (largest first), comma-joined.
func cityLabels(admins []*place.Admin) string {
	var labels []string
	seen := map[string]bool{}
	for _, a := range admins {
		if !a.IsCity() || seen[a.Label()] {
			continue
		}
		seen[a.Label()] = true
		labels = append(labels, a.Label())
	}
	return strings.Join(labels, ", ")
}

// firstPostcode returns the first zip code found among admins, or "".
func firstPostcode(admins []*place.Admin) string {
	for _, a := range admins {
		if len(a.ZipCodes) > 0 {
			return a.ZipCodes[0]
		}
	}
	return ""
}

// countryIsFR reports whether any country_code in codes is "FR".
func countryIsFR(countryCodes []string) bool {
	for _, cc := range countryCodes {
		if cc == "FR" {
			return true
		}
	}
	return false
}

// Street builds "<street_name> (<city_labels>)", omitting the
// parenthesized part entirely when there are no city labels. For
// country code FR, the first postcode is appended after the city name
// inside the parentheses.
func Street(name string, admins []*place.Admin, countryCodes []string) string {
	cities := cityLabels(admins)
	if cities == "" {
		return name
	}
	if countryIsFR(countryCodes) {
		if pc := firstPostcode(admins); pc != "" {
			return fmt.Sprintf("%s (%s %s)", name, cities, pc)
		}
	}
	return fmt.Sprintf("%s (%s)", name, cities)
}

// Address builds "<house_number> <street_name>, <city_labels>" and its
// paired Name "<house_number> <street_name>".
func Address(houseNumber, streetName string, admins []*place.Admin, countryCodes []string) (label, name string) {
	name = strings.TrimSpace(fmt.Sprintf("%s %s", houseNumber, streetName))
	cities := cityLabels(admins)
	if cities == "" {
		return name, name
	}
	if countryIsFR(countryCodes) {
		if pc := firstPostcode(admins); pc != "" {
			return fmt.Sprintf("%s, %s %s", name, cities, pc), name
		}
	}
	return fmt.Sprintf("%s, %s", name, cities), name
}
