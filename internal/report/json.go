package report

import (
	"encoding/json"
	"io"
)

// WriteJSON writes the report as indented JSON. The field order is fixed by
// the model, so equal reports serialize to equal bytes.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
