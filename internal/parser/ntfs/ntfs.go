// Package ntfs reconciles a zipped NTFS transit archive's stop areas
// and their child stop points into place.Stop records (spec.md §4.D).
// The original_source's ntfs2mimir crate — which walks the full NTFS
// join graph (stop_times → trips → routes → lines/physical_modes) —
// isn't part of the retrieval, so this package reads a flattened join
// table instead of reproducing that graph walk: a stop_lines.txt file
// carrying one row per (stop, line, commercial_mode, physical_mode)
// tuple, which is the information that graph walk ultimately produces.
package ntfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/tesseract-hub/mimir-geocoder/internal/place"
)

const (
	locationTypeStopPoint = 0
	locationTypeStopArea  = 1
)

type stopRow struct {
	id, name, parent, timezone string
	lat, lon                   float64
	locationType               int
}

type lineRow struct {
	stopID, lineID, commercialMode, physicalMode string
}

// Parse reads stops.txt and stop_lines.txt from zr and yields one
// place.Stop per stop area (location_type=1), its coordinate averaged
// from its child stop points' coordinates when it has none of its own,
// and its CommercialModes/PhysicalModes/Lines aggregated (deduplicated,
// sorted) across both the area's own rows and every child stop point's
// rows.
func Parse(zr *zip.Reader) func(yield func(*place.Stop, error) bool) {
	return func(yield func(*place.Stop, error) bool) {
		stops, err := readStops(zr)
		if err != nil {
			yield(nil, err)
			return
		}
		lines, err := readLines(zr)
		if err != nil {
			yield(nil, err)
			return
		}
		publishers := readFeedPublishers(zr)

		byID := make(map[string]stopRow, len(stops))
		var order []string
		for _, s := range stops {
			byID[s.id] = s
			order = append(order, s.id)
		}

		children := make(map[string][]string)
		for _, s := range stops {
			if s.locationType == locationTypeStopPoint && s.parent != "" {
				children[s.parent] = append(children[s.parent], s.id)
			}
		}

		modes := make(map[string]map[string]bool)
		commercial := make(map[string]map[string]bool)
		served := make(map[string]map[string]bool)
		for _, l := range lines {
			if _, ok := modes[l.stopID]; !ok {
				modes[l.stopID] = map[string]bool{}
				commercial[l.stopID] = map[string]bool{}
				served[l.stopID] = map[string]bool{}
			}
			if l.physicalMode != "" {
				modes[l.stopID][l.physicalMode] = true
			}
			if l.commercialMode != "" {
				commercial[l.stopID][l.commercialMode] = true
			}
			if l.lineID != "" {
				served[l.stopID][l.lineID] = true
			}
		}

		for _, id := range order {
			row := byID[id]
			if row.locationType != locationTypeStopArea {
				continue
			}

			members := append([]string{id}, children[id]...)
			physicalSet, commercialSet, lineSet := map[string]bool{}, map[string]bool{}, map[string]bool{}
			for _, m := range members {
				for k := range modes[m] {
					physicalSet[k] = true
				}
				for k := range commercial[m] {
					commercialSet[k] = true
				}
				for k := range served[m] {
					lineSet[k] = true
				}
			}

			coord := stopCoord(row, children[id], byID)
			s := &place.Stop{
				PhysicalModes:   sortedKeys(physicalSet),
				CommercialModes: sortedKeys(commercialSet),
				Lines:           sortedKeys(lineSet),
				FeedPublishers:  publishers,
				Timezone:        row.timezone,
			}
			s.Common.IDValue = "stop_area:" + row.id
			s.Name = row.name
			s.Common.CoordValue = coord
			if !yield(s, nil) {
				return
			}
		}
	}
}

// stopCoord returns the stop area's own coordinate if present,
// otherwise the average of its child stop points' coordinates.
func stopCoord(area stopRow, childIDs []string, byID map[string]stopRow) place.Coord {
	if area.lat != 0 || area.lon != 0 {
		return place.Coord{Lon: area.lon, Lat: area.lat}
	}
	if len(childIDs) == 0 {
		return place.Coord{}
	}
	var sumLon, sumLat float64
	for _, id := range childIDs {
		c := byID[id]
		sumLon += c.lon
		sumLat += c.lat
	}
	n := float64(len(childIDs))
	return place.Coord{Lon: sumLon / n, Lat: sumLat / n}
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func openCSV(zr *zip.Reader, name string) (*csv.Reader, func() error, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("ntfs: opening %s: %w", name, err)
	}
	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	return cr, f.Close, nil
}

func csvHeader(cr *csv.Reader, want []string) (map[string]int, error) {
	row, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("ntfs: reading header: %w", err)
	}
	cols := make(map[string]int, len(row))
	for i, name := range row {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, w := range want {
		if _, ok := cols[w]; !ok {
			return nil, fmt.Errorf("ntfs: header missing required column %q", w)
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

// readFeedPublishers reads the optional feed_info.xml some NTFS
// exports ship alongside the CSV tables and returns every
// feed_publisher_name element's text, or nil if the file is absent.
func readFeedPublishers(zr *zip.Reader) []string {
	f, err := zr.Open("feed_info.xml")
	if err != nil {
		return nil
	}
	defer f.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(f); err != nil {
		return nil
	}
	var out []string
	for _, el := range doc.FindElements("//feed_publisher_name") {
		if t := strings.TrimSpace(el.Text()); t != "" {
			out = append(out, t)
		}
	}
	return out
}

var stopsHeader = []string{"stop_id", "stop_name", "stop_lat", "stop_lon", "location_type"}

func readStops(zr *zip.Reader) ([]stopRow, error) {
	cr, closeFn, err := openCSV(zr, "stops.txt")
	if err != nil {
		return nil, err
	}
	defer closeFn()

	cols, err := csvHeader(cr, stopsHeader)
	if err != nil {
		return nil, err
	}

	var out []stopRow
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("ntfs: stops.txt: %w", err)
		}
		lat, _ := strconv.ParseFloat(field(row, cols, "stop_lat"), 64)
		lon, _ := strconv.ParseFloat(field(row, cols, "stop_lon"), 64)
		locType, _ := strconv.Atoi(field(row, cols, "location_type"))
		out = append(out, stopRow{
			id:           field(row, cols, "stop_id"),
			name:         field(row, cols, "stop_name"),
			parent:       field(row, cols, "parent_station"),
			timezone:     field(row, cols, "stop_timezone"),
			lat:          lat,
			lon:          lon,
			locationType: locType,
		})
	}
}

var linesHeader = []string{"stop_id", "line_id"}

func readLines(zr *zip.Reader) ([]lineRow, error) {
	cr, closeFn, err := openCSV(zr, "stop_lines.txt")
	if err != nil {
		return nil, err
	}
	defer closeFn()

	cols, err := csvHeader(cr, linesHeader)
	if err != nil {
		return nil, err
	}

	var out []lineRow
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("ntfs: stop_lines.txt: %w", err)
		}
		out = append(out, lineRow{
			stopID:         field(row, cols, "stop_id"),
			lineID:         field(row, cols, "line_id"),
			commercialMode: field(row, cols, "commercial_mode"),
			physicalMode:   field(row, cols, "physical_mode"),
		})
	}
}
