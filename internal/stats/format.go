package stats

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"energypolicy/internal/charts"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Format renders v with the label's decoration, en-US digit grouping and
// exactly FractionalDigits decimals.
func (p ParsedStat) Format(v float64) string {
	return p.Prefix + FormatGrouped(v, p.FractionalDigits) + p.Suffix
}

// String renders the final value, which is the label in canonical grouping
func (p ParsedStat) String() string {
	return p.Format(p.Number)
}

// FormatGrouped renders v with en-US thousands separators and a fixed number
// of fractional digits. Ties round away from zero, as toLocaleString does;
// the x/text formatter alone would round them to even.
func FormatGrouped(v float64, fractionalDigits int) string {
	if fractionalDigits < 0 {
		fractionalDigits = 0
	}
	if rounded, err := strconv.ParseFloat(charts.ToFixed(v, fractionalDigits), 64); err == nil {
		v = rounded
	}
	return printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(fractionalDigits),
		number.MaxFractionDigits(fractionalDigits),
	))
}
