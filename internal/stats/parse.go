package stats

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrNotNumeric is returned by ParseE when a label carries no numeral
var ErrNotNumeric = errors.New("stats: label has no numeric value")

// statPattern matches the shortest non-digit prefix followed by a numeral made of
// digits and thousands separators with an optional fractional part.
var statPattern = regexp.MustCompile(`^([^0-9]*?)([\d,]+(?:\.\d+)?)`)

// ParsedStat is the numeric core of a display label plus its decoration
type ParsedStat struct {
	Prefix           string  `json:"prefix"`
	Number           float64 `json:"number"`
	FractionalDigits int     `json:"fractionalDigits"`
	Suffix           string  `json:"suffix"`
}

// Parse extracts the first numeral of s. ok is false when s has no numeral,
// in which case callers should display s unchanged.
func Parse(s string) (ParsedStat, bool) {
	m := statPattern.FindStringSubmatchIndex(s)
	if m == nil {
		return ParsedStat{}, false
	}

	prefix := s[m[2]:m[3]]
	numeral := s[m[4]:m[5]]

	n, err := strconv.ParseFloat(strings.ReplaceAll(numeral, ",", ""), 64)
	if err != nil || math.IsNaN(n) {
		return ParsedStat{}, false
	}

	digits := 0
	if _, frac, found := strings.Cut(numeral, "."); found {
		digits = len(frac)
	}

	return ParsedStat{
		Prefix:           prefix,
		Number:           n,
		FractionalDigits: digits,
		Suffix:           s[m[5]:],
	}, true
}

// ParseE is Parse with the NotNumeric outcome reported as ErrNotNumeric
func ParseE(s string) (ParsedStat, error) {
	p, ok := Parse(s)
	if !ok {
		return ParsedStat{}, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	return p, nil
}
