// Command cosmogony2mimir reads a cosmogony newline-delimited JSON zone
// stream and indexes it as admin documents (spec.md §4.D/§4.G). Flags
// mirror the original_source's cosmogony2mimir.rs binary: -i/--input,
// -c/--connection-string, -d/--dataset, --mappings/--settings (accepted
// for flag-surface parity, the backend adapter composes schemas itself
// rather than reading Elasticsearch mapping/settings JSON), -s/-r for
// shard/replica counts, and a repeatable -l/--lang.
package main

import (
	"bufio"
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
	"github.com/tesseract-hub/mimir-geocoder/internal/parser/cosmogony"
	"github.com/tesseract-hub/mimir-geocoder/internal/place"
	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

func main() {
	flags := pflag.NewFlagSet("cosmogony2mimir", pflag.ExitOnError)
	input := flags.StringP("input", "i", "", "cosmogony newline-delimited JSON file")
	connectionString := flags.StringP("connection-string", "c", "http://localhost:8108", "search backend URL")
	apiKey := flags.String("api-key", "", "search backend API key")
	dataset := flags.StringP("dataset", "d", "fr", "dataset name")
	_ = flags.String("mappings", "./config/admin/mappings.json", "unused, accepted for CLI parity")
	_ = flags.String("settings", "./config/admin/settings.json", "unused, accepted for CLI parity")
	_ = flags.IntP("nb-shards", "s", 1, "unused, accepted for CLI parity")
	_ = flags.IntP("nb-replicas", "r", 0, "unused, accepted for CLI parity")
	langs := flags.StringSliceP("lang", "l", nil, "language codes used to build i18n names and labels")
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("cosmogony2mimir: %v", err)
	}
	if *input == "" {
		log.Fatal("cosmogony2mimir: -i/--input is required")
	}

	ctx := context.Background()
	backend := search.New(*connectionString, *apiKey, 30*time.Second)
	mgr := lifecycle.NewManager(backend, nil)

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("cosmogony2mimir: opening %s: %v", *input, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var admins []*place.Admin
	for a, err := range cosmogony.Parse(cosmogony.LineScanner(scanner), *langs) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "cosmogony2mimir: skipping zone: %v\n", err)
			continue
		}
		admins = append(admins, a)
	}
	if len(admins) == 0 {
		log.Fatal("cosmogony2mimir: no admin zones parsed")
	}

	geo := geofinder.NewBuilder()
	for _, a := range admins {
		geo.Add(a)
	}
	geo.Build()
	enricher := &enrich.Enricher{Geo: geo}

	bar := ingest.Bar(len(admins), "enriching admins")
	records := make([]place.Members, 0, len(admins))
	for _, a := range admins {
		enricher.EnrichAdmin(a)
		records = append(records, a)
		ingest.Add(bar, 1)
	}
	enrich.Normalize(records)

	pubBar := ingest.Bar(len(records), "publishing admins")
	outcome, index, err := ingest.Publish(ctx, mgr, "admin", *dataset, lifecycle.Public, records, pubBar)
	if err != nil {
		log.Fatalf("cosmogony2mimir: %v", err)
	}
	ingest.PrintOutcome("admin", *dataset, index, outcome)
}
