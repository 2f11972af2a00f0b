// Package address parses the BANO and OpenAddresses CSV exports into
// place.Addr records (spec.md §4.D). Grounded on the original bano.rs
// and openaddresses.rs: both formats carry a house number, a street
// name, a postcode, a city, and a coordinate, and both derive the
// address id from the coordinate plus a sanitized house number rather
// than from any id column the source file itself provides.
package address

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tesseract-hub/mimir-geocoder/internal/place"
)

var sanitizer = strings.NewReplacer(
	" ", "", "\t", "", "\r", "", "\n", "",
	"/", "-", ".", "-", ":", "-", ";", "-",
)

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func splitZip(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ";")
}

func newStreet(name string, coord place.Coord, zip []string) place.Street {
	s := place.Street{Name: name}
	s.Common.CoordValue = coord
	s.SetZipCodes(zip)
	return s
}

// BanoRecord pairs a parsed Addr with the INSEE code its source row
// carried, so a caller can look up the authoritative admin for that
// commune and override the geofinder stack at that admin's level
// before enrichment, the same precedence bano.rs's into_addr gives the
// INSEE code over geofinder containment.
type BanoRecord struct {
	Addr  *place.Addr
	Insee string
}

var banoHeader = []string{"id", "house_number", "street", "zip", "city", "src", "lat", "lon"}

// ParseBano reads a BANO CSV stream (header row: id,house_number,
// street,zip,city,src,lat,lon) and yields one BanoRecord per row with
// a non-empty street name, skipping malformed rows with a descriptive
// error rather than aborting the whole stream.
func ParseBano(r io.Reader) func(yield func(*BanoRecord, error) bool) {
	return func(yield func(*BanoRecord, error) bool) {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cols, err := header(cr, banoHeader)
		if err != nil {
			yield(nil, err)
			return
		}
		for {
			row, err := cr.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				if !yield(nil, fmt.Errorf("address: bano: reading row: %w", err)) {
					return
				}
				continue
			}
			rec, err := banoRow(row, cols)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if rec == nil {
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func banoRow(row []string, cols map[string]int) (*BanoRecord, error) {
	id := field(row, cols, "id")
	street := field(row, cols, "street")
	if street == "" {
		return nil, nil
	}

	insee, err := banoInsee(id)
	if err != nil {
		return nil, err
	}
	fantoir, err := banoFantoir(id)
	if err != nil {
		return nil, err
	}

	lat, lon, err := parseLatLon(field(row, cols, "lat"), field(row, cols, "lon"))
	if err != nil {
		return nil, fmt.Errorf("address: bano %q: %w", id, err)
	}

	houseNumber := field(row, cols, "house_number")
	zip := splitZip(field(row, cols, "zip"))
	coord := place.Coord{Lon: lon, Lat: lat}

	s := newStreet(street, coord, zip)
	s.Common.IDValue = "street:" + fantoir

	addr := &place.Addr{HouseNumber: houseNumber, Street: s}
	addr.Common.CoordValue = coord
	addr.SetZipCodes(zip)
	addr.Common.IDValue = fmt.Sprintf("addr:%s;%s:%s", formatCoord(lon), formatCoord(lat), sanitizer.Replace(houseNumber))

	return &BanoRecord{Addr: addr, Insee: insee}, nil
}

// banoInsee extracts the 5-digit INSEE commune code from a BANO id's
// leading digits, stripped of leading zeros, mirroring bano.rs's
// Bano::insee.
func banoInsee(id string) (string, error) {
	if len(id) < 5 {
		return "", fmt.Errorf("address: bano id %q shorter than an insee code", id)
	}
	return strings.TrimLeft(id[:5], "0"), nil
}

// banoFantoir extracts the 10-character FANTOIR street code from a
// BANO id, mirroring bano.rs's Bano::fantoir.
func banoFantoir(id string) (string, error) {
	if len(id) < 10 {
		return "", fmt.Errorf("address: bano id %q shorter than a fantoir code", id)
	}
	return id[:10], nil
}

var openAddressHeader = []string{"id", "street", "postcode", "district", "region", "city", "number", "unit", "lat", "lon"}

// ParseOpenAddress reads an OpenAddresses CSV stream (header row:
// id,street,postcode,district,region,city,number,unit,lat,lon) and
// yields one Addr per row with a non-empty street name. idPrecision
// rounds the lon/lat fraction baked into the address id to that many
// decimals, mirroring openaddresses.rs's into_addr id_precision
// parameter (0 disables rounding).
func ParseOpenAddress(r io.Reader, idPrecision int) func(yield func(*place.Addr, error) bool) {
	return func(yield func(*place.Addr, error) bool) {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cols, err := header(cr, openAddressHeader)
		if err != nil {
			yield(nil, err)
			return
		}
		for {
			row, err := cr.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				if !yield(nil, fmt.Errorf("address: openaddresses: reading row: %w", err)) {
					return
				}
				continue
			}
			addr, err := openAddressRow(row, cols, idPrecision)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if addr == nil {
				continue
			}
			if !yield(addr, nil) {
				return
			}
		}
	}
}

func openAddressRow(row []string, cols map[string]int, idPrecision int) (*place.Addr, error) {
	street := field(row, cols, "street")
	if street == "" {
		return nil, nil
	}
	id := field(row, cols, "id")

	lat, lon, err := parseLatLon(field(row, cols, "lat"), field(row, cols, "lon"))
	if err != nil {
		return nil, fmt.Errorf("address: openaddresses %q: %w", id, err)
	}

	number := field(row, cols, "number")
	zip := splitZip(field(row, cols, "postcode"))
	coord := place.Coord{Lon: lon, Lat: lat}

	s := newStreet(street, coord, zip)
	s.Common.IDValue = "street:" + id

	addr := &place.Addr{HouseNumber: number, Street: s}
	addr.Common.CoordValue = coord
	addr.SetZipCodes(zip)
	addr.Common.IDValue = fmt.Sprintf("addr:%s;%s:%s", formatPrecise(lon, idPrecision), formatPrecise(lat, idPrecision), sanitizer.Replace(number))

	return addr, nil
}

func formatPrecise(v float64, precision int) string {
	if precision <= 0 {
		return formatCoord(v)
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

func parseLatLon(latS, lonS string) (lat, lon float64, err error) {
	lat, err1 := strconv.ParseFloat(latS, 64)
	lon, err2 := strconv.ParseFloat(lonS, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("invalid coordinate lat=%q lon=%q", latS, lonS)
	}
	if !(place.Coord{Lon: lon, Lat: lat}).Valid() {
		return 0, 0, fmt.Errorf("coordinate out of range lat=%v lon=%v", lat, lon)
	}
	return lat, lon, nil
}

// header reads the CSV header row and maps each of want's column
// names (case-insensitive) to its position, so files whose columns
// aren't in the canonical order still parse.
func header(cr *csv.Reader, want []string) (map[string]int, error) {
	row, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("address: reading header: %w", err)
	}
	cols := make(map[string]int, len(row))
	for i, name := range row {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, w := range want {
		if _, ok := cols[w]; !ok {
			return nil, fmt.Errorf("address: header missing required column %q", w)
		}
	}
	return cols, nil
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
