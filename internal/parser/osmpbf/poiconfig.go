package osmpbf

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// poiConfigFile is the on-disk shape of a POI tag-rule configuration:
// a whitelist and blacklist of TagRule entries, the Go rendering of the
// original_source's poi2mimir rules.yml (any key/value OSM tag pair
// maps to a poi_type id/name, or excludes the entity entirely).
type poiConfigFile struct {
	Whitelist []TagRule `toml:"whitelist"`
	Blacklist []TagRule `toml:"blacklist"`
}

// LoadPOIConfig reads a TOML file of whitelist/blacklist TagRule
// entries for ParsePois.
func LoadPOIConfig(path string) (whitelist, blacklist []TagRule, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("osmpbf: reading poi config %s: %w", path, err)
	}
	var cfg poiConfigFile
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("osmpbf: parsing poi config %s: %w", path, err)
	}
	return cfg.Whitelist, cfg.Blacklist, nil
}

// DefaultPOIWhitelist is the fallback rule set used when no --poi-config
// file is given: a small, commonly useful set of amenity/shop/leisure
// tags, mirroring the category breadth of poi2mimir's bundled defaults
// without reproducing its exact (larger) list.
var DefaultPOIWhitelist = []TagRule{
	{Key: "amenity", Value: "restaurant", PoiTypeID: "amenity:restaurant", PoiTypeName: "Restaurant"},
	{Key: "amenity", Value: "cafe", PoiTypeID: "amenity:cafe", PoiTypeName: "Cafe"},
	{Key: "amenity", Value: "pharmacy", PoiTypeID: "amenity:pharmacy", PoiTypeName: "Pharmacy"},
	{Key: "amenity", Value: "school", PoiTypeID: "amenity:school", PoiTypeName: "School"},
	{Key: "amenity", Value: "hospital", PoiTypeID: "amenity:hospital", PoiTypeName: "Hospital"},
	{Key: "shop", Value: "", PoiTypeID: "shop", PoiTypeName: "Shop"},
	{Key: "leisure", Value: "park", PoiTypeID: "leisure:park", PoiTypeName: "Park"},
	{Key: "tourism", Value: "hotel", PoiTypeID: "tourism:hotel", PoiTypeName: "Hotel"},
}

// DefaultPOIBlacklist excludes disused/construction-tagged entities
// regardless of which whitelist rule would otherwise match.
var DefaultPOIBlacklist = []TagRule{
	{Key: "disused", Value: ""},
	{Key: "construction", Value: ""},
}
