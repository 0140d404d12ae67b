package exporter

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidIdentifier is returned for identifiers that cannot name a file
var ErrInvalidIdentifier = errors.New("exporter: invalid identifier")

// ErrUnsupportedFormat is returned by ParseFormat for unknown formats
var ErrUnsupportedFormat = errors.New("exporter: unsupported format")

// Format names an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx" in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnsupportedFormat, s)
	}
}

// Result describes one written export
type Result struct {
	Identifier string `json:"identifier"`
	Format     Format `json:"format"`
	Path       string `json:"path,omitempty"`
	Rows       int    `json:"rows"`
	Columns    int    `json:"columns"`
	Bytes      int64  `json:"bytes"`
	Compressed bool   `json:"compressed,omitempty"`
}

// SanitizeIdentifier validates an export identifier for use as a file stem.
// Surrounding space is trimmed; separators, parent references and control
// characters are rejected.
func SanitizeIdentifier(identifier string) (string, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	}
	if id == "." || strings.Contains(id, "..") || strings.ContainsAny(id, `/\:`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)
		}
	}
	return id, nil
}

// FileName returns the download name for identifier in format f
func FileName(identifier string, f Format) string {
	return identifier + "." + string(f)
}
