package search

// pointer returns a pointer to v, carried forward from the teacher's
// internal/clients/typesense.go helper of the same name: the
// typesense-go API expects optional struct fields as pointers.
func pointer[T any](v T) *T { return &v }

// AdminSchema, StreetSchema, AddrSchema, PoiSchema, StopSchema are the
// backend collection schemas for the five doctypes, replacing the
// teacher's ProductsSchema/CustomersSchema/OrdersSchema/CategoriesSchema
// (internal/clients/typesense.go) with the geocoding domain's five
// variants. Index creation uses them as they are; no on-disk template
// override is merged into them before CreateIndex.
var (
	AdminSchema = Schema{
		Name: "admin",
		Fields: []Field{
			{Name: "id", Type: "string"},
			{Name: "label", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "coord", Type: "geopoint"},
			{Name: "insee", Type: "string", Optional: true},
			{Name: "level", Type: "int32", Facet: true},
			{Name: "zone_type", Type: "string", Facet: true},
			{Name: "zip_codes", Type: "string[]", Facet: true, Optional: true},
			{Name: "country_codes", Type: "string[]", Facet: true, Optional: true},
			{Name: "weight", Type: "float", Optional: true},
		},
	}

	StreetSchema = Schema{
		Name: "street",
		Fields: []Field{
			{Name: "id", Type: "string"},
			{Name: "label", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "coord", Type: "geopoint"},
			{Name: "zip_codes", Type: "string[]", Facet: true, Optional: true},
			{Name: "country_codes", Type: "string[]", Facet: true, Optional: true},
			{Name: "weight", Type: "float", Optional: true},
		},
	}

	AddrSchema = Schema{
		Name: "addr",
		Fields: []Field{
			{Name: "id", Type: "string"},
			{Name: "label", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "coord", Type: "geopoint"},
			{Name: "house_number", Type: "string", Optional: true},
			{Name: "zip_codes", Type: "string[]", Facet: true, Optional: true},
			{Name: "country_codes", Type: "string[]", Facet: true, Optional: true},
			{Name: "weight", Type: "float", Optional: true},
		},
	}

	PoiSchema = Schema{
		Name: "poi",
		Fields: []Field{
			{Name: "id", Type: "string"},
			{Name: "label", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "coord", Type: "geopoint"},
			{Name: "poi_type.id", Type: "string", Facet: true, Optional: true},
			{Name: "poi_type.name", Type: "string", Facet: true, Optional: true},
			{Name: "zip_codes", Type: "string[]", Facet: true, Optional: true},
			{Name: "country_codes", Type: "string[]", Facet: true, Optional: true},
			{Name: "weight", Type: "float", Optional: true},
		},
	}

	StopSchema = Schema{
		Name: "stop",
		Fields: []Field{
			{Name: "id", Type: "string"},
			{Name: "label", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "coord", Type: "geopoint"},
			{Name: "commercial_modes", Type: "string[]", Facet: true, Optional: true},
			{Name: "physical_modes", Type: "string[]", Facet: true, Optional: true},
			{Name: "coverages", Type: "string[]", Facet: true, Optional: true},
			{Name: "weight", Type: "float", Optional: true},
		},
	}
)

// SchemaFor returns the base schema for a doctype name, as used by
// internal/ingest.Publish (and so by the four ingestion CLIs) when
// creating a new container.
func SchemaFor(doctype string) (Schema, bool) {
	switch doctype {
	case "admin":
		return AdminSchema, true
	case "street":
		return StreetSchema, true
	case "addr":
		return AddrSchema, true
	case "poi":
		return PoiSchema, true
	case "stop":
		return StopSchema, true
	default:
		return Schema{}, false
	}
}
