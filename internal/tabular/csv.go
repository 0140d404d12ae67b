package tabular

import (
	"strings"
)

// ToCSV renders rows as CSV text: a header of escaped column names followed by
// one line per row. Lines are separated by "\n" with no trailing newline.
// An empty batch renders as "" rather than a header-only document.
func ToCSV(rows []FlatRow) string {
	if len(rows) == 0 {
		return ""
	}

	cols := ColumnsOf(rows)

	var b strings.Builder
	writeLine(&b, cols)
	for _, row := range rows {
		b.WriteByte('\n')
		for j, col := range cols {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(EscapeField(row.vals[col]))
		}
	}
	return b.String()
}

// ExportCSV flattens records and renders them as CSV
func ExportCSV(records []Value) string {
	return ToCSV(Flatten(records))
}

func writeLine(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(EscapeField(f))
	}
}

// EscapeField quotes a field when it contains a comma, a double quote or a
// newline, doubling any inner quotes. Other fields pass through unchanged.
func EscapeField(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
