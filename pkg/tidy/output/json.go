package output

import (
	"bytes"
	"encoding/json"
)

// JSONFormatter writes one indented JSON document.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(structured(r))
}

// structured is the value encoded by the json and yaml formatters.
func structured(r *Report) any {
	if r.Data != nil {
		return r.Data
	}
	return r.records()
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)
