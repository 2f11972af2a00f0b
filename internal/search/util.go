package search

import (
	"encoding/json"
	"strings"

	"github.com/tesseract-hub/mimir-geocoder/internal/apierror"
)

// splitLines splits a newline-delimited export dump into lines,
// tolerating a trailing newline.
func splitLines(raw string) []string {
	return strings.Split(strings.TrimRight(raw, "\n"), "\n")
}

// decodeDoc parses one NDJSON line of an export dump into a Doc.
func decodeDoc(line string) (Doc, error) {
	var d Doc
	if err := json.Unmarshal([]byte(line), &d); err != nil {
		return nil, apierror.Wrap(apierror.Deserialization, "bad_export_line", err)
	}
	return d, nil
}
