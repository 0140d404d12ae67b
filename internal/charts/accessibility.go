package charts

import (
	"strings"

	"energypolicy/internal/tabular"
)

// ChartAriaLabel describes a chart for screen readers. timeRange is optional.
func ChartAriaLabel(title, description, timeRange string) string {
	parts := []string{"Chart: " + title + ".", description}
	if timeRange != "" {
		parts = append(parts, "Time range: "+timeRange+".")
	}
	return strings.Join(parts, " ")
}

// DataSummary joins a chart's key findings into one sentence sequence
func DataSummary(title string, highlights []string) string {
	return title + ". Key findings: " + strings.Join(highlights, ". ") + "."
}

// AxisLabel renders "name (unit)"
func AxisLabel(name, unit string) string {
	return name + " (" + unit + ")"
}

// Column selects one record path for a DataTable
type Column struct {
	Key    string `json:"key"`
	Header string `json:"header"`
}

// DataTable is the text alternative shown beside a chart
type DataTable struct {
	Caption string     `json:"caption"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// DataTableFromRecords tabulates records over cols. With no cols, every
// flattened path becomes a column headed by its path. Numbers in the first
// column render plainly (years), numbers elsewhere with en-US grouping.
func DataTableFromRecords(caption string, records []tabular.Value, cols []Column) DataTable {
	if len(cols) == 0 {
		for _, key := range tabular.ColumnsOf(tabular.Flatten(records)) {
			cols = append(cols, Column{Key: key, Header: key})
		}
	}

	table := DataTable{
		Caption: caption,
		Headers: make([]string, len(cols)),
		Rows:    make([][]string, 0, len(records)),
	}
	for i, c := range cols {
		table.Headers[i] = c.Header
		if c.Header == "" {
			table.Headers[i] = c.Key
		}
	}

	for _, rec := range records {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = cellText(rec, c.Key, j == 0)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func cellText(rec tabular.Value, key string, first bool) string {
	v, ok := rec, true
	if key != "" {
		v, ok = rec.Lookup(key)
	}
	if !ok {
		return ""
	}
	if n, isNum := v.AsNumber(); isNum {
		if first {
			return tabular.FormatNumber(n)
		}
		return FormatCount(n)
	}
	return tabular.LeafString(v)
}
