// Package jsonx holds the JSON helpers used for history files, local state
// and terraform version output.
package jsonx

import (
	"bytes"
	"encoding/json"
)

func Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

// Marshal encodes v on a single line without escaping <, > and &, so that
// expressions like a && b stay readable in files.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
