package tabular

import (
	"strings"
)

// PathSeparator joins parent and child keys in flattened column names
const PathSeparator = "."

// ArrayElementSeparator joins stringified array elements in a single cell
const ArrayElementSeparator = "; "

// FlatRow maps dotted paths to stringified leaf values, remembering the order
// in which paths were first produced.
type FlatRow struct {
	keys []string
	vals map[string]string
}

// NewFlatRow builds a row from alternating key/value pairs. A trailing key
// without a value is ignored.
func NewFlatRow(pairs ...string) FlatRow {
	row := FlatRow{vals: make(map[string]string, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		row.set(pairs[i], pairs[i+1])
	}
	return row
}

// Get returns the cell for key
func (r FlatRow) Get(key string) (string, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Value returns the cell for key, or "" when the row has no such column
func (r FlatRow) Value(key string) string {
	return r.vals[key]
}

// Keys returns the row's paths in construction order
func (r FlatRow) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of cells
func (r FlatRow) Len() int { return len(r.keys) }

// Map returns a copy of the row as a plain map
func (r FlatRow) Map() map[string]string {
	out := make(map[string]string, len(r.vals))
	for k, v := range r.vals {
		out[k] = v
	}
	return out
}

func (r *FlatRow) set(key, value string) {
	if r.vals == nil {
		r.vals = make(map[string]string)
	}
	if _, exists := r.vals[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = value
}

// Flatten converts each record into a FlatRow, preserving input order.
// Records are only read.
func Flatten(records []Value) []FlatRow {
	rows := make([]FlatRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, FlattenRecord(rec))
	}
	return rows
}

// FlattenRecord walks nested objects and produces one cell per leaf.
// A record that is not an object yields a single cell under the empty path.
func FlattenRecord(rec Value) FlatRow {
	row := FlatRow{vals: make(map[string]string)}
	walk(rec, "", &row)
	return row
}

func walk(v Value, prefix string, row *FlatRow) {
	obj, ok := v.AsObject()
	if !ok {
		row.set(prefix, LeafString(v))
		return
	}
	for _, key := range obj.keys {
		path := key
		if prefix != "" {
			path = prefix + PathSeparator + key
		}
		walk(obj.vals[key], path, row)
	}
}

// LeafString stringifies a leaf. Null maps to "", arrays are joined with
// ArrayElementSeparator, and objects nested inside arrays become compact JSON.
func LeafString(v Value) string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return FormatNumber(v.n)
	case KindString:
		return v.s
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, item := range v.arr {
			parts[i] = elementString(item)
		}
		return strings.Join(parts, ArrayElementSeparator)
	case KindObject:
		return compactJSON(v)
	default:
		return ""
	}
}

func elementString(v Value) string {
	switch v.kind {
	case KindArray, KindObject:
		return compactJSON(v)
	default:
		return LeafString(v)
	}
}

func compactJSON(v Value) string {
	b, err := v.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}

// ColumnSet is the ordered union of FlatRow keys
type ColumnSet []string

// ColumnsOf returns every key of every row in first-seen order: row 0's keys in
// their construction order, then keys first introduced by row 1, and so on.
func ColumnsOf(rows []FlatRow) ColumnSet {
	seen := make(map[string]struct{})
	cols := make(ColumnSet, 0)
	for _, row := range rows {
		for _, key := range row.keys {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			cols = append(cols, key)
		}
	}
	return cols
}

// Matrix projects rows onto cols; missing cells are "".
func Matrix(rows []FlatRow, cols ColumnSet) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		line := make([]string, len(cols))
		for j, col := range cols {
			line[j] = row.vals[col]
		}
		out[i] = line
	}
	return out
}
