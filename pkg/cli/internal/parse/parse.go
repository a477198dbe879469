// Package parse provides string parsing utilities for CLI commands.
package parse

import (
	"fmt"
	"net/http"
	"os"
	"strings"
)

// KeyValue parses a "key:value" or "key=value" string.
// If delimiters are provided, uses the first one found; otherwise defaults to ':'.
// Returns the key, value, and a boolean indicating success.
func KeyValue(s string, delimiters ...rune) (key, value string, ok bool) {
	if len(delimiters) == 0 {
		delimiters = []rune{':'}
	}

	for i, c := range s {
		for _, d := range delimiters {
			if c == d {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}

// HeaderParts splits a header string into [key, value] for use with http.Header.
// Returns a slice with one element (just key) if no delimiter found.
func HeaderParts(s string) []string {
	key, value, ok := KeyValue(s, ':')
	if !ok {
		return []string{s}
	}
	return []string{strings.TrimSpace(key), strings.TrimSpace(value)}
}

// HTTPHeader builds request headers from "key:value" strings.
func HTTPHeader(headers []string) (http.Header, error) {
	h := http.Header{}
	for _, raw := range headers {
		parts := HeaderParts(raw)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid header %q (expected key:value)", raw)
		}
		h.Add(parts[0], parts[1])
	}
	return h, nil
}

// Message returns the message argument, loading it from a file when it
// starts with '@'. A literal leading '@' is written as "@@".
func Message(arg string) (string, error) {
	if !strings.HasPrefix(arg, "@") {
		return arg, nil
	}
	if strings.HasPrefix(arg, "@@") {
		return arg[1:], nil
	}
	data, err := os.ReadFile(arg[1:])
	if err != nil {
		return "", fmt.Errorf("failed to read message file: %w", err)
	}
	return string(data), nil
}
