package tabular

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCSV_Empty(t *testing.T) {
	assert.Equal(t, "", ToCSV(nil))
	assert.Equal(t, "", ToCSV([]FlatRow{}))
	assert.Equal(t, "", ExportCSV(nil))
}

func TestToCSV_HeaderAndRows(t *testing.T) {
	records := decodeFixture(t, `[{"a":1,"b":{"c":2}}, {"a":3,"b":{"c":4,"d":5}}]`)

	got := ExportCSV(records)

	assert.Equal(t, "a,b.c,b.d\n1,2,\n3,4,5", got)
	assert.False(t, strings.HasSuffix(got, "\n"))
}

func TestEscapeField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"", ""},
		{" leading space", " leading space"},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say ""hi"""`},
		{"line1\nline2", "\"line1\nline2\""},
		{"carriage\rreturn", "carriage\rreturn"},
		{`"`, `""""`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeField(tt.in))
		})
	}
}

func TestToCSV_RoundTripsThroughStandardReader(t *testing.T) {
	tricky := []string{
		"Texas, ERCOT",
		`12" pipe`,
		"multi\nline",
		`all, "three"` + "\nkinds",
		"¢/kWh",
		"plain",
	}

	records := make([]Value, 0, len(tricky))
	for _, s := range tricky {
		records = append(records, Obj(F("label", String(s)), F("note, with comma", String(s))))
	}

	out := ExportCSV(records)

	r := csv.NewReader(strings.NewReader(out))
	parsed, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, len(tricky)+1)

	assert.Equal(t, []string{"label", "note, with comma"}, parsed[0])
	for i, s := range tricky {
		assert.Equal(t, []string{s, s}, parsed[i+1], "row %d", i)
	}
}

func TestToCSV_MissingKeysRenderEmpty(t *testing.T) {
	rows := []FlatRow{
		NewFlatRow("region", "ERCOT"),
		NewFlatRow("margin", "14.2"),
	}

	assert.Equal(t, "region,margin\nERCOT,\n,14.2", ToCSV(rows))
}
