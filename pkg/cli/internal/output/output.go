// Package output provides common output formatting utilities.
package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSON writes indented JSON to w.
func JSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// JSONLine writes v as one line of compact JSON, for streamed output.
func JSONLine(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}

// Warn prints a warning message to w, usually stderr.
func Warn(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "Warning: "+format+"\n", args...)
}
