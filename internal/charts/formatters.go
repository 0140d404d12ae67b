package charts

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency abbreviates dollars with B, M or K suffixes
func FormatCurrency(v float64) string {
	switch {
	case v >= 1e9:
		return "$" + ToFixed(v/1e9, 1) + "B"
	case v >= 1e6:
		return "$" + ToFixed(v/1e6, 1) + "M"
	case v >= 1e3:
		return "$" + ToFixed(v/1e3, 1) + "K"
	}
	return "$" + ToFixed(v, 2)
}

func FormatCentsPerKwh(v float64) string { return ToFixed(v, 1) + "¢/kWh" }

func FormatDollarsPerMmbtu(v float64) string { return "$" + ToFixed(v, 2) + "/MMBtu" }

func FormatDollarsPerMwh(v float64) string { return "$" + ToFixed(v, 0) + "/MWh" }

func FormatTwh(v float64) string { return ToFixed(v, 0) + " TWh" }

func FormatGw(v float64) string { return ToFixed(v, 1) + " GW" }

func FormatMmt(v float64) string { return ToFixed(v, 0) + " MMT" }

func FormatPercent(v float64) string { return ToFixed(v, 1) + "%" }

func FormatMinutes(v float64) string { return ToFixed(v, 0) + " min" }

func FormatLbsPerMwh(v float64) string { return ToFixed(v, 0) + " lbs/MWh" }

func FormatWPerSqm(v float64) string { return ToFixed(v, 1) + " W/m²" }

// FormatCount groups thousands en-US style with at most three decimals
func FormatCount(v float64) string {
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// FormatTonsThousands renders a tonnage with M or K abbreviations
func FormatTonsThousands(v float64) string {
	switch {
	case v >= 1e6:
		return ToFixed(v/1e6, 1) + "M tons"
	case v >= 1e3:
		return ToFixed(v/1e3, 0) + "K tons"
	}
	return ToFixed(v, 0) + " tons"
}

// FormatThousandAcres takes thousands of acres
func FormatThousandAcres(v float64) string {
	if v >= 1e3 {
		return ToFixed(v/1e3, 1) + "M acres"
	}
	return ToFixed(v, 0) + "k acres"
}

// Formatter renders one axis or tooltip value
type Formatter func(float64) string

var formatters = map[string]Formatter{
	"currency":          FormatCurrency,
	"cents_per_kwh":     FormatCentsPerKwh,
	"dollars_per_mmbtu": FormatDollarsPerMmbtu,
	"dollars_per_mwh":   FormatDollarsPerMwh,
	"twh":               FormatTwh,
	"gw":                FormatGw,
	"mmt":               FormatMmt,
	"percent":           FormatPercent,
	"minutes":           FormatMinutes,
	"count":             FormatCount,
	"lbs_per_mwh":       FormatLbsPerMwh,
	"tons_thousands":    FormatTonsThousands,
	"thousand_acres":    FormatThousandAcres,
	"w_per_sqm":         FormatWPerSqm,
}

// unitAliases maps the unit strings datasets declare to formatter names
var unitAliases = map[string]string{
	"$":       "currency",
	"¢/kWh":   "cents_per_kwh",
	"$/MMBtu": "dollars_per_mmbtu",
	"$/MWh":   "dollars_per_mwh",
	"TWh":     "twh",
	"GW":      "gw",
	"MMT":     "mmt",
	"%":       "percent",
	"min":     "minutes",
	"lbs/MWh": "lbs_per_mwh",
	"W/m²":    "w_per_sqm",
	"W/m2":    "w_per_sqm",
}

// FormatterFor looks a formatter up by unit name, e.g. "cents_per_kwh", or by
// a dataset unit such as "$/MWh"
func FormatterFor(unit string) (Formatter, bool) {
	if name, ok := unitAliases[unit]; ok {
		unit = name
	}
	f, ok := formatters[unit]
	return f, ok
}
