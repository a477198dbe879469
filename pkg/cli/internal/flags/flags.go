// Package flags provides reusable flag types for CLI commands.
package flags

import (
	"fmt"
	"strings"

	"github.com/getmockd/wsecho/pkg/cli/internal/parse"
)

// Header is a repeatable "key:value" flag. Each value is checked when the
// flag is parsed and commas are kept as part of the value.
type Header []string

// String joins the collected values for help output.
func (h *Header) String() string {
	if h == nil || len(*h) == 0 {
		return ""
	}
	return "[" + strings.Join(*h, "; ") + "]"
}

// Set validates and appends one header.
func (h *Header) Set(value string) error {
	parts := parse.HeaderParts(value)
	if len(parts) != 2 || parts[0] == "" {
		return fmt.Errorf("invalid header %q (expected key:value)", value)
	}
	*h = append(*h, value)
	return nil
}

// Type is the placeholder shown in usage text.
func (h *Header) Type() string {
	return "key:value"
}

// Values returns the raw header strings.
func (h *Header) Values() []string {
	if h == nil {
		return nil
	}
	return []string(*h)
}
