// Package json wraps goccy/go-json for the reports slabpool writes.
package json

import (
	"io"

	gojson "github.com/goccy/go-json"
)

// Unmarshal is a drop-in replacement for encoding/json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// WriteIndent writes v to w as indented JSON followed by a newline.
func WriteIndent(w io.Writer, v interface{}) error {
	enc := gojson.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
