// Command ntfs2mimir reads a zipped NTFS transit export and indexes its
// stop areas as stop documents (spec.md §4.D/§4.G). Flags follow the
// original_source's stops2mimir.rs binary: -i/--input, -c/--connection-string,
// -d/--dataset.
package main

import (
	"archive/zip"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/tesseract-hub/mimir-geocoder/internal/enrich"
	"github.com/tesseract-hub/mimir-geocoder/internal/ingest"
	"github.com/tesseract-hub/mimir-geocoder/internal/lifecycle"
	"github.com/tesseract-hub/mimir-geocoder/internal/parser/ntfs"
	"github.com/tesseract-hub/mimir-geocoder/internal/place"
	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

func main() {
	flags := pflag.NewFlagSet("ntfs2mimir", pflag.ExitOnError)
	input := flags.StringP("input", "i", "", "NTFS zip archive")
	connectionString := flags.StringP("connection-string", "c", "http://localhost:8108", "search backend URL")
	apiKey := flags.String("api-key", "", "search backend API key")
	dataset := flags.StringP("dataset", "d", "fr", "dataset name")
	adminIndex := flags.String("admin-index", "munin_admin", "admin alias/index to resolve stops' admin stack against")
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("ntfs2mimir: %v", err)
	}
	if *input == "" {
		log.Fatal("ntfs2mimir: -i/--input is required")
	}

	ctx := context.Background()
	backend := search.New(*connectionString, *apiKey, 30*time.Second)
	mgr := lifecycle.NewManager(backend, nil)

	st, err := os.Stat(*input)
	if err != nil {
		log.Fatalf("ntfs2mimir: %v", err)
	}
	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("ntfs2mimir: opening %s: %v", *input, err)
	}
	defer f.Close()
	zr, err := zip.NewReader(f, st.Size())
	if err != nil {
		log.Fatalf("ntfs2mimir: reading zip: %v", err)
	}

	geo := ingest.LoadAdminGeoFinder(ctx, backend, *adminIndex)
	enricher := &enrich.Enricher{Geo: geo}

	var stops []*place.Stop
	for s, err := range ntfs.Parse(zr) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "ntfs2mimir: skipping stop: %v\n", err)
			continue
		}
		stops = append(stops, s)
	}
	if len(stops) == 0 {
		log.Fatal("ntfs2mimir: no stop areas parsed")
	}

	bar := ingest.Bar(len(stops), "enriching stops")
	records := make([]place.Members, 0, len(stops))
	for _, s := range stops {
		enricher.EnrichStop(s)
		s.MergeCoverage(*dataset)
		records = append(records, s)
		ingest.Add(bar, 1)
	}
	enrich.Normalize(records)

	pubBar := ingest.Bar(len(records), "publishing stops")
	outcome, index, err := ingest.Publish(ctx, mgr, "stop", *dataset, lifecycle.Public, records, pubBar)
	if err != nil {
		log.Fatalf("ntfs2mimir: %v", err)
	}
	ingest.PrintOutcome("stop", *dataset, index, outcome)
}
