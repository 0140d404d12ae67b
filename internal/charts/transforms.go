package charts

import (
	"sort"
	"strings"

	"energypolicy/internal/tabular"
)

// AdjustForInflation converts a nominal value to base-year dollars
func AdjustForInflation(nominal, yearCPI, baseCPI float64) float64 {
	return nominal * baseCPI / yearCPI
}

// MillionKwhToTwh converts million kWh to TWh
func MillionKwhToTwh(v float64) float64 {
	return v / 1e6
}

// ThousandTonsToMmt converts thousand tons to million metric tons
func ThousandTonsToMmt(v float64) float64 {
	return v / 1000
}

// PercentShare is part/total as a percentage, 0 for a zero total
func PercentShare(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

// FilterByYearRange keeps records whose numeric "year" lies in [start, end].
// Records without a numeric year are dropped.
func FilterByYearRange(records []tabular.Value, start, end int) []tabular.Value {
	out := make([]tabular.Value, 0, len(records))
	for _, rec := range records {
		y, ok := numberAt(rec, "year")
		if ok && y >= float64(start) && y <= float64(end) {
			out = append(out, rec)
		}
	}
	return out
}

// SortByFieldDesc returns a copy of records ordered by the numeric field,
// largest first. The sort is stable and records without a numeric value keep
// their relative order after all numeric ones.
func SortByFieldDesc(records []tabular.Value, field string) []tabular.Value {
	out := make([]tabular.Value, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := numberAt(out[i], field)
		b, bok := numberAt(out[j], field)
		switch {
		case aok && bok:
			return a > b
		case aok:
			return true
		default:
			return false
		}
	})
	return out
}

// MapNumber returns rec with the number at path replaced by fn(number).
// Objects along the path are copied; rec is left untouched. A missing or
// non-numeric leaf returns rec unchanged.
func MapNumber(rec tabular.Value, path string, fn func(float64) float64) tabular.Value {
	head, rest, nested := strings.Cut(path, tabular.PathSeparator)
	obj, ok := rec.AsObject()
	if !ok {
		return rec
	}
	child, ok := obj.Get(head)
	if !ok {
		return rec
	}

	var next tabular.Value
	if nested {
		next = MapNumber(child, rest, fn)
	} else {
		n, ok := child.AsNumber()
		if !ok {
			return rec
		}
		next = tabular.Number(fn(n))
	}

	out := tabular.NewObject()
	for _, k := range obj.Keys() {
		v, _ := obj.Get(k)
		if k == head {
			v = next
		}
		out.Set(k, v)
	}
	return tabular.ObjectValue(out)
}

func numberAt(rec tabular.Value, path string) (float64, bool) {
	v, ok := rec.Lookup(path)
	if !ok {
		return 0, false
	}
	return v.AsNumber()
}
