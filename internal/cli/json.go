package cli

import (
	"encoding/json"
	"io"
)

// writeJSON encodes v as indented JSON. Record data and file paths are
// written as-is, so HTML escaping is off.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
