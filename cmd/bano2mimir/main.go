// Command bano2mimir reads a BANO (or, with --open-addresses, an
// OpenAddresses) CSV export and indexes it as addr documents (spec.md
// §4.D/§4.G). Flags follow the original_source's bano2mimir.rs binary:
// -i/--input, -c/--connection-string, -d/--dataset.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/tesseract-hub/mimir-geocoder/internal/enrich"
	"github.com/tesseract-hub/mimir-geocoder/internal/ingest"
	"github.com/tesseract-hub/mimir-geocoder/internal/lifecycle"
	"github.com/tesseract-hub/mimir-geocoder/internal/parser/address"
	"github.com/tesseract-hub/mimir-geocoder/internal/place"
	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

func main() {
	flags := pflag.NewFlagSet("bano2mimir", pflag.ExitOnError)
	input := flags.StringP("input", "i", "", "BANO or OpenAddresses CSV file")
	connectionString := flags.StringP("connection-string", "c", "http://localhost:8108", "search backend URL")
	apiKey := flags.String("api-key", "", "search backend API key")
	dataset := flags.StringP("dataset", "d", "fr", "dataset name")
	adminIndex := flags.String("admin-index", "munin_admin", "admin alias/index to resolve addresses' admin stack against")
	openAddresses := flags.Bool("open-addresses", false, "parse input as an OpenAddresses export instead of BANO")
	idPrecision := flags.Int("id-precision", 0, "OpenAddresses address id coordinate precision (0 = unbounded)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("bano2mimir: %v", err)
	}
	if *input == "" {
		log.Fatal("bano2mimir: -i/--input is required")
	}

	ctx := context.Background()
	backend := search.New(*connectionString, *apiKey, 30*time.Second)
	mgr := lifecycle.NewManager(backend, nil)

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("bano2mimir: opening %s: %v", *input, err)
	}
	defer f.Close()

	geo := ingest.LoadAdminGeoFinder(ctx, backend, *adminIndex)
	byInsee := inseeIndex(geo.All())
	enricher := &enrich.Enricher{Geo: geo}

	var addrs []*place.Addr
	overrides := map[*place.Addr]*place.Admin{}
	if *openAddresses {
		for a, err := range address.ParseOpenAddress(f, *idPrecision) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "bano2mimir: skipping row: %v\n", err)
				continue
			}
			addrs = append(addrs, a)
		}
	} else {
		for rec, err := range address.ParseBano(f) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "bano2mimir: skipping row: %v\n", err)
				continue
			}
			addrs = append(addrs, rec.Addr)
			if admin, ok := byInsee[rec.Insee]; ok {
				overrides[rec.Addr] = admin
			}
		}
	}
	if len(addrs) == 0 {
		log.Fatal("bano2mimir: no addresses parsed")
	}

	bar := ingest.Bar(len(addrs), "enriching addresses")
	records := make([]place.Members, 0, len(addrs))
	for _, a := range addrs {
		var authoritative map[uint32]*place.Admin
		if admin, ok := overrides[a]; ok {
			authoritative = map[uint32]*place.Admin{admin.Level: admin}
		}
		enricher.EnrichAddr(a, authoritative)
		records = append(records, a)
		ingest.Add(bar, 1)
	}
	enrich.Normalize(records)

	pubBar := ingest.Bar(len(records), "publishing addresses")
	outcome, index, err := ingest.Publish(ctx, mgr, "addr", *dataset, lifecycle.Public, records, pubBar)
	if err != nil {
		log.Fatalf("bano2mimir: %v", err)
	}
	ingest.PrintOutcome("addr", *dataset, index, outcome)
}

// inseeIndex indexes admins by INSEE code, the authoritative join key
// bano.rs uses to override the geofinder-found admin at that admin's
// own level (spec.md §4.D).
func inseeIndex(admins []*place.Admin) map[string]*place.Admin {
	out := make(map[string]*place.Admin, len(admins))
	for _, a := range admins {
		if a.Insee != "" {
			out[a.Insee] = a
		}
	}
	return out
}
