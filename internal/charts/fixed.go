package charts

import (
	"math"
	"strconv"
	"strings"

	"energypolicy/internal/tabular"
)

// ToFixed renders v with exactly digits decimals. Exact binary ties round
// away from zero, so ToFixed(2.5, 0) is "3" and ToFixed(1.25, 1) is "1.3".
// Magnitudes of 1e21 and above fall back to tabular.FormatNumber.
func ToFixed(v float64, digits int) string {
	if digits < 0 {
		digits = 0
	}
	if digits > 100 {
		digits = 100
	}
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.Abs(v) >= 1e21 || math.IsInf(v, 0) {
		return tabular.FormatNumber(v)
	}
	if v == 0 {
		v = 0 // drop the sign of -0
	}

	if isTie(v, digits) {
		scale := math.Pow10(digits)
		up := math.Floor(math.Abs(v)*scale) + 1
		s := strconv.FormatFloat(up/scale, 'f', digits, 64)
		if v < 0 {
			return "-" + s
		}
		return s
	}
	return strconv.FormatFloat(v, 'f', digits, 64)
}

// isTie reports whether the exact decimal expansion of v has a 5 followed
// only by zeros right after the requested digits
func isTie(v float64, digits int) bool {
	exact := strconv.FormatFloat(math.Abs(v), 'f', 1100, 64)
	dot := strings.IndexByte(exact, '.')
	rest := strings.TrimRight(exact[dot+1+digits:], "0")
	return rest == "5"
}
