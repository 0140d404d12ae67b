package charts

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energypolicy/internal/tabular"
)

func TestToFixed(t *testing.T) {
	tests := []struct {
		v      float64
		digits int
		want   string
	}{
		{0, 2, "0.00"},
		{math.Copysign(0, -1), 1, "0.0"},
		{2.5, 0, "3"},
		{-2.5, 0, "-3"},
		{1.25, 1, "1.3"},
		{1.005, 2, "1.00"}, // 1.005 is stored just below the tie
		{16.04, 1, "16.0"},
		{1234.5678, 2, "1234.57"},
		{-0.04, 1, "-0.0"},
		{1e21, 2, "1e+21"},
		{42, -1, "42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToFixed(tt.v, tt.digits), "ToFixed(%v, %d)", tt.v, tt.digits)
	}
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"currency billions", FormatCurrency(2.34e9), "$2.3B"},
		{"currency millions", FormatCurrency(5e6), "$5.0M"},
		{"currency thousands", FormatCurrency(1500), "$1.5K"},
		{"currency small", FormatCurrency(12.3), "$12.30"},
		{"cents", FormatCentsPerKwh(16.04), "16.0¢/kWh"},
		{"mmbtu", FormatDollarsPerMmbtu(2.28), "$2.28/MMBtu"},
		{"mwh", FormatDollarsPerMwh(45.4), "$45/MWh"},
		{"twh", FormatTwh(4178.2), "4178 TWh"},
		{"gw", FormatGw(12.34), "12.3 GW"},
		{"mmt", FormatMmt(1340.4), "1340 MMT"},
		{"percent", FormatPercent(4.55), "4.5%"},
		{"minutes", FormatMinutes(549.6), "550 min"},
		{"count", FormatCount(1234567), "1,234,567"},
		{"count fraction", FormatCount(1234.56789), "1,234.568"},
		{"lbs", FormatLbsPerMwh(823.2), "823 lbs/MWh"},
		{"tons millions", FormatTonsThousands(2.5e6), "2.5M tons"},
		{"tons thousands", FormatTonsThousands(45200), "45K tons"},
		{"tons", FormatTonsThousands(999), "999 tons"},
		{"acres millions", FormatThousandAcres(1500), "1.5M acres"},
		{"acres", FormatThousandAcres(820), "820k acres"},
		{"power density", FormatWPerSqm(6.63), "6.6 W/m²"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestFormatterFor(t *testing.T) {
	f, ok := FormatterFor("cents_per_kwh")
	require.True(t, ok)
	assert.Equal(t, "12.0¢/kWh", f(12))

	_, ok = FormatterFor("furlongs")
	assert.False(t, ok)
}

func TestAccessibilityText(t *testing.T) {
	assert.Equal(t,
		"Chart: Reserve Margins. Line chart of summer reserve margins. Time range: 2013-2023.",
		ChartAriaLabel("Reserve Margins", "Line chart of summer reserve margins.", "2013-2023"))
	assert.Equal(t,
		"Chart: Reserve Margins. Line chart.",
		ChartAriaLabel("Reserve Margins", "Line chart.", ""))
	assert.Equal(t,
		"LCOE. Key findings: Solar fell 83%. Wind fell 63%.",
		DataSummary("LCOE", []string{"Solar fell 83%", "Wind fell 63%"}))
	assert.Equal(t, "Price (¢/kWh)", AxisLabel("Price", "¢/kWh"))
}

func records(t *testing.T, doc string) []tabular.Value {
	t.Helper()
	recs, err := tabular.DecodeRecords(strings.NewReader(doc))
	require.NoError(t, err)
	return recs
}

func TestDataTableFromRecords(t *testing.T) {
	recs := records(t, `[
		{"year": 2022, "capacity": 12500.5, "region": "ERCOT", "notes": null},
		{"year": 2023, "capacity": 13020, "region": "PJM"}
	]`)

	t.Run("explicit columns", func(t *testing.T) {
		got := DataTableFromRecords("Capacity by year", recs, []Column{
			{Key: "year", Header: "Year"},
			{Key: "capacity", Header: "Capacity (MW)"},
			{Key: "region"},
		})
		want := DataTable{
			Caption: "Capacity by year",
			Headers: []string{"Year", "Capacity (MW)", "region"},
			Rows: [][]string{
				{"2022", "12,500.5", "ERCOT"},
				{"2023", "13,020", "PJM"},
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("DataTableFromRecords mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("derived columns", func(t *testing.T) {
		got := DataTableFromRecords("c", recs, nil)
		assert.Equal(t, []string{"year", "capacity", "region", "notes"}, got.Headers)
		assert.Equal(t, []string{"2023", "13,020", "PJM", ""}, got.Rows[1])
	})

	t.Run("nested paths", func(t *testing.T) {
		nested := records(t, `[{"period": {"year": 2020}, "price": {"res": 13.15}}]`)
		got := DataTableFromRecords("n", nested, nil)
		assert.Equal(t, []string{"period.year", "price.res"}, got.Headers)
		assert.Equal(t, [][]string{{"2020", "13.15"}}, got.Rows)
	})

	t.Run("scalar records", func(t *testing.T) {
		got := DataTableFromRecords("s", records(t, `[1500, 2500]`), nil)
		assert.Equal(t, []string{""}, got.Headers)
		assert.Equal(t, [][]string{{"1500"}, {"2500"}}, got.Rows)
	})
}

func TestTransforms(t *testing.T) {
	assert.InDelta(t, 150.0, AdjustForInflation(100, 200, 300), 1e-9)
	assert.InDelta(t, 4.178, MillionKwhToTwh(4178000), 1e-9)
	assert.InDelta(t, 1.34, ThousandTonsToMmt(1340), 1e-9)
	assert.InDelta(t, 25.0, PercentShare(1, 4), 1e-9)
	assert.Equal(t, 0.0, PercentShare(5, 0))
}

func TestFilterByYearRange(t *testing.T) {
	recs := records(t, `[{"year":2018},{"year":2020},{"year":"2021"},{"year":2022},{"x":1},{"year":2025}]`)
	got := FilterByYearRange(recs, 2019, 2022)
	require.Len(t, got, 2)
	y0, _ := got[0].Lookup("year")
	y1, _ := got[1].Lookup("year")
	n0, _ := y0.AsNumber()
	n1, _ := y1.AsNumber()
	assert.Equal(t, []float64{2020, 2022}, []float64{n0, n1})
}

func TestSortByFieldDesc(t *testing.T) {
	recs := records(t, `[
		{"id":"a","v":1},
		{"id":"b","v":"n/a"},
		{"id":"c","v":3},
		{"id":"d"},
		{"id":"e","v":3}
	]`)
	got := SortByFieldDesc(recs, "v")

	ids := make([]string, len(got))
	for i, r := range got {
		v, _ := r.Lookup("id")
		ids[i], _ = v.AsString()
	}
	assert.Equal(t, []string{"c", "e", "a", "b", "d"}, ids)

	first, _ := recs[0].Lookup("id")
	s, _ := first.AsString()
	assert.Equal(t, "a", s, "input must not be reordered")
}

func TestMapNumber(t *testing.T) {
	rec := records(t, `[{"year":2020,"margin":{"actual":15,"reference":null},"label":"ERCOT"}]`)[0]
	double := func(v float64) float64 { return v * 2 }

	tests := []struct {
		name string
		path string
		want string
	}{
		{"top level", "year", `{"year":4040,"margin":{"actual":15,"reference":null},"label":"ERCOT"}`},
		{"nested", "margin.actual", `{"year":2020,"margin":{"actual":30,"reference":null},"label":"ERCOT"}`},
		{"null leaf", "margin.reference", `{"year":2020,"margin":{"actual":15,"reference":null},"label":"ERCOT"}`},
		{"string leaf", "label", `{"year":2020,"margin":{"actual":15,"reference":null},"label":"ERCOT"}`},
		{"missing", "cost", `{"year":2020,"margin":{"actual":15,"reference":null},"label":"ERCOT"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MapNumber(rec, tt.path, double).MarshalJSON()
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}

	orig, err := rec.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"year":2020,"margin":{"actual":15,"reference":null},"label":"ERCOT"}`, string(orig))
}

func TestFormatterForDatasetUnits(t *testing.T) {
	tests := []struct {
		unit string
		v    float64
		want string
	}{
		{"$/MWh", 60.5, "$61/MWh"},
		{"¢/kWh", 12.4, "12.4¢/kWh"},
		{"%", 15.2, "15.2%"},
		{"W/m2", 1000, "1000.0 W/m²"},
	}
	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			f, ok := FormatterFor(tt.unit)
			require.True(t, ok)
			assert.Equal(t, tt.want, f(tt.v))
		})
	}
}
