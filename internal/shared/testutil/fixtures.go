package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"energypolicy/internal/datasets"
)

// LCOEDoc is a small market-trends envelope with nested-free numeric records
const LCOEDoc = `{
  "id": "lcoe",
  "title": "Levelized Cost of Electricity",
  "source": {"agency": "Lazard", "dataset": "LCOE+", "url": "https://www.lazard.com", "accessDate": "2025-01-10"},
  "units": {"cost": "$/MWh"},
  "caveats": ["Unsubsidized estimates."],
  "lastUpdated": "2025-01-10",
  "data": [
    {"year": 2010, "technology": "Solar PV", "cost": 248},
    {"year": 2023, "technology": "Solar PV", "cost": 60.5}
  ]
}`

// ReserveMarginsDoc has nested objects and a null leaf
const ReserveMarginsDoc = `{
  "id": "reserve-margins",
  "title": "Reserve Margins by Region",
  "source": {"agency": "NERC", "dataset": "Summer Reliability Assessment", "url": "https://www.nerc.com", "accessDate": "2024-06-01"},
  "units": {"margin": "%"},
  "lastUpdated": "2024-06-01",
  "data": [
    {"year": 2022, "region": "ERCOT", "margin": {"actual": 15.2, "reference": 13.75}},
    {"year": 2023, "region": "PJM, East", "margin": {"actual": 20, "reference": null}}
  ]
}`

// DefaultDocs maps dataset ids to the fixture documents above
func DefaultDocs() map[string]string {
	return map[string]string{
		"lcoe":            LCOEDoc,
		"reserve-margins": ReserveMarginsDoc,
	}
}

// DatasetFS lays docs out the way the data directory does. Keys must be
// catalogue ids.
func DatasetFS(t testing.TB, docs map[string]string) fstest.MapFS {
	t.Helper()
	fsys := fstest.MapFS{}
	for id, doc := range docs {
		fsys[datasetPath(t, id)] = &fstest.MapFile{Data: []byte(doc)}
	}
	return fsys
}

// WriteDataDir writes docs below a fresh temporary data directory and returns it
func WriteDataDir(t testing.TB, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for id, doc := range docs {
		file := filepath.Join(dir, filepath.FromSlash(datasetPath(t, id)))
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			t.Fatalf("create %s: %v", filepath.Dir(file), err)
		}
		if err := os.WriteFile(file, []byte(doc), 0644); err != nil {
			t.Fatalf("write %s: %v", file, err)
		}
	}
	return dir
}

func datasetPath(t testing.TB, id string) string {
	t.Helper()
	ds, ok := datasets.Lookup(id)
	if !ok {
		t.Fatalf("unknown dataset id %q", id)
	}
	return ds.Path()
}
