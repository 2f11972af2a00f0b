// Command osm2mimir reads an OSM entity stream and indexes it as admin
// (fallback), street, and poi documents (spec.md §4.D/§4.G). It reads
// the newline-delimited JSON rendering of OSM nodes/ways/relations that
// internal/parser/osmpbf.JSONSource understands — the retrieval pack
// carries no .osm.pbf binary decoder, so this is the concrete Source
// this build wires the parser's port to (see DESIGN.md).
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/tesseract-hub/mimir-geocoder/internal/enrich"
	"github.com/tesseract-hub/mimir-geocoder/internal/geofinder"
	"github.com/tesseract-hub/mimir-geocoder/internal/ingest"
	"github.com/tesseract-hub/mimir-geocoder/internal/lifecycle"
	"github.com/tesseract-hub/mimir-geocoder/internal/parser/osmpbf"
	"github.com/tesseract-hub/mimir-geocoder/internal/place"
	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

func main() {
	flags := pflag.NewFlagSet("osm2mimir", pflag.ExitOnError)
	input := flags.StringP("input", "i", "", "newline-delimited JSON OSM entity stream")
	connectionString := flags.StringP("connection-string", "c", "http://localhost:8108", "search backend URL")
	apiKey := flags.String("api-key", "", "search backend API key")
	dataset := flags.StringP("dataset", "d", "fr", "dataset name")
	adminLevels := flags.UintSlice("admin-level", []uint{8, 7, 6, 5, 4, 3, 2}, "OSM admin_level values treated as administrative boundaries")
	excludedHighways := flags.StringSlice("exclude-highway", []string{"footway", "path", "steps", "cycleway", "service", "track"}, "highway tag values excluded from street extraction")
	poiConfigPath := flags.String("poi-config", "", "TOML file of POI whitelist/blacklist TagRule entries (defaults built in if empty)")
	skipAdmins := flags.Bool("skip-admins", false, "skip the admin-fallback pass (use when cosmogony already covers this area)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("osm2mimir: %v", err)
	}
	if *input == "" {
		log.Fatal("osm2mimir: -i/--input is required")
	}

	ctx := context.Background()
	backend := search.New(*connectionString, *apiKey, 30*time.Second)
	mgr := lifecycle.NewManager(backend, nil)

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("osm2mimir: opening %s: %v", *input, err)
	}
	defer f.Close()
	src, err := osmpbf.LoadJSONSource(f)
	if err != nil {
		log.Fatalf("osm2mimir: %v", err)
	}

	levels := make([]uint32, len(*adminLevels))
	for i, l := range *adminLevels {
		levels[i] = uint32(l)
	}
	matcher := osmpbf.NewAdminMatcher(levels)

	var fallbackAdmins []*place.Admin
	if !*skipAdmins {
		for a, err := range osmpbf.ParseAdmins(src, matcher) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "osm2mimir: skipping admin relation: %v\n", err)
				continue
			}
			fallbackAdmins = append(fallbackAdmins, a)
		}
	}

	geo := ingest.LoadAdminGeoFinder(ctx, backend, "munin_admin")
	for _, a := range fallbackAdmins {
		geo.Add(a)
	}
	geo.Build()
	enricher := &enrich.Enricher{Geo: geo}

	if len(fallbackAdmins) > 0 {
		bar := ingest.Bar(len(fallbackAdmins), "enriching fallback admins")
		records := make([]place.Members, 0, len(fallbackAdmins))
		for _, a := range fallbackAdmins {
			enricher.EnrichAdmin(a)
			records = append(records, a)
			ingest.Add(bar, 1)
		}
		enrich.Normalize(records)
		pubBar := ingest.Bar(len(records), "publishing fallback admins")
		outcome, index, err := ingest.Publish(ctx, mgr, "admin", *dataset, lifecycle.Public, records, pubBar)
		if err != nil {
			log.Fatalf("osm2mimir: %v", err)
		}
		ingest.PrintOutcome("admin", *dataset, index, outcome)
	}

	indexStreets(ctx, mgr, enricher, geo, src, *excludedHighways, *dataset)
	indexPois(ctx, mgr, enricher, src, *poiConfigPath, *dataset)
}

func indexStreets(ctx context.Context, mgr *lifecycle.Manager, enricher *enrich.Enricher, geo *geofinder.AdminGeoFinder, src osmpbf.Source, excludedHighways []string, dataset string) {
	var streets []*place.Street
	for s, err := range osmpbf.ParseStreets(src, geo, excludedHighways) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "osm2mimir: skipping street: %v\n", err)
			continue
		}
		streets = append(streets, s)
	}
	if len(streets) == 0 {
		return
	}

	bar := ingest.Bar(len(streets), "enriching streets")
	records := make([]place.Members, 0, len(streets))
	for _, s := range streets {
		enricher.EnrichStreet(s, nil)
		records = append(records, s)
		ingest.Add(bar, 1)
	}
	enrich.Normalize(records)
	pubBar := ingest.Bar(len(records), "publishing streets")
	outcome, index, err := ingest.Publish(ctx, mgr, "street", dataset, lifecycle.Public, records, pubBar)
	if err != nil {
		log.Fatalf("osm2mimir: %v", err)
	}
	ingest.PrintOutcome("street", dataset, index, outcome)
}

func indexPois(ctx context.Context, mgr *lifecycle.Manager, enricher *enrich.Enricher, src osmpbf.Source, poiConfigPath, dataset string) {
	whitelist, blacklist := osmpbf.DefaultPOIWhitelist, osmpbf.DefaultPOIBlacklist
	if poiConfigPath != "" {
		w, b, err := osmpbf.LoadPOIConfig(poiConfigPath)
		if err != nil {
			log.Fatalf("osm2mimir: %v", err)
		}
		whitelist, blacklist = w, b
	}

	var pois []*place.Poi
	for p, err := range osmpbf.ParsePois(src, whitelist, blacklist) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "osm2mimir: skipping poi: %v\n", err)
			continue
		}
		pois = append(pois, p)
	}
	if len(pois) == 0 {
		return
	}

	bar := ingest.Bar(len(pois), "enriching pois")
	records := make([]place.Members, 0, len(pois))
	for _, p := range pois {
		enricher.EnrichPoi(ctx, p, nil)
		records = append(records, p)
		ingest.Add(bar, 1)
	}
	enrich.Normalize(records)
	pubBar := ingest.Bar(len(records), "publishing pois")
	outcome, index, err := ingest.Publish(ctx, mgr, "poi", dataset, lifecycle.Public, records, pubBar)
	if err != nil {
		log.Fatalf("osm2mimir: %v", err)
	}
	ingest.PrintOutcome("poi", dataset, index, outcome)
}
