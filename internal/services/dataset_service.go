package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"energypolicy/internal/charts"
	"energypolicy/internal/datasets"
	apperrors "energypolicy/internal/errors"
	"energypolicy/internal/infrastructure"
	"energypolicy/internal/tabular"
)

// CategoryInfo is a site section with the datasets it lists
type CategoryInfo struct {
	datasets.Category
	Datasets  []string `json:"datasets"`
	Available int      `json:"available"`
}

// TableView is the accessible alternative to a dataset's chart
type TableView struct {
	ID        string            `json:"id"`
	AriaLabel string            `json:"ariaLabel"`
	Summary   string            `json:"summary"`
	Table     charts.DataTable  `json:"table"`
	Units     map[string]string `json:"units,omitempty"`
}

// DatasetService serves processed datasets from a Store
type DatasetService struct {
	store   *datasets.Store
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewDatasetService creates a dataset service. metrics may be nil.
func NewDatasetService(store *datasets.Store, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *DatasetService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &DatasetService{
		store:   store,
		logger:  logger.With(slog.String("service", "dataset")),
		metrics: metrics,
	}
}

// Preload reads the whole catalogue into the store cache and returns the
// number of datasets found on disk.
func (s *DatasetService) Preload(ctx context.Context) (int, error) {
	envs, err := s.store.LoadAll(ctx)
	if err != nil {
		msg := "dataset preload failed"
		if apperrors.IsType(err, apperrors.ErrTypeParsing) {
			msg = "dataset file is corrupted"
		}
		s.logger.ErrorContext(ctx, msg, slog.String("error", err.Error()))
		return 0, err
	}
	s.logger.InfoContext(ctx, "datasets preloaded",
		slog.Int("loaded", len(envs)),
		slog.Int("catalogued", len(datasets.Catalog())))
	return len(envs), nil
}

// Categories lists the site sections in navigation order
func (s *DatasetService) Categories(ctx context.Context) []CategoryInfo {
	available := make(map[string]bool)
	for _, ds := range s.store.Available() {
		available[ds.ID] = true
	}

	cats := datasets.Categories()
	out := make([]CategoryInfo, 0, len(cats))
	for _, c := range cats {
		info := CategoryInfo{Category: c, Datasets: []string{}}
		for _, ds := range datasets.InCategory(c.Slug) {
			info.Datasets = append(info.Datasets, ds.ID)
			if available[ds.ID] {
				info.Available++
			}
		}
		out = append(out, info)
	}
	return out
}

// List summarizes the datasets on disk, optionally limited to one category
func (s *DatasetService) List(ctx context.Context, category string) ([]datasets.Summary, error) {
	list := datasets.Catalog()
	if category != "" {
		if _, ok := datasets.CategoryBySlug(category); !ok {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
		}
		list = datasets.InCategory(category)
	}

	out := make([]datasets.Summary, 0, len(list))
	for _, ds := range list {
		env, err := s.store.Load(ctx, ds.ID)
		if errors.Is(err, datasets.ErrDatasetNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, env.Summarize(ds.Category))
	}
	return out, nil
}

// Get returns a dataset envelope
func (s *DatasetService) Get(ctx context.Context, id string) (*datasets.Envelope, error) {
	env, err := s.store.Load(ctx, id)
	s.metrics.RecordDatasetLoad(ctx, id, err)
	if err != nil {
		if !errors.Is(err, datasets.ErrDatasetNotFound) {
			s.logger.ErrorContext(ctx, "dataset load failed",
				slog.String("dataset", id),
				slog.String("error", err.Error()))
		}
		return nil, err
	}
	return env, nil
}

// TableQuery narrows and reshapes a dataset table. The zero value returns
// the dataset as stored.
type TableQuery struct {
	From, To  int     // inclusive year bounds, 0 for open
	SortBy    string  // numeric path, largest first
	ShareOf   string  // adds a percent-of-total column for this path
	Normalize bool    // million kWh to TWh, thousand tons to MMT
	BaseCPI   float64 // restates dollar columns of records carrying "cpi"
}

// Validate rejects inverted year ranges and negative CPI
func (q TableQuery) Validate() error {
	if q.From != 0 && q.To != 0 && q.From > q.To {
		return fmt.Errorf("%w: from %d is after to %d", ErrInvalidTableQuery, q.From, q.To)
	}
	if q.BaseCPI < 0 {
		return fmt.Errorf("%w: base CPI must not be negative", ErrInvalidTableQuery)
	}
	return nil
}

// Table builds the accessible data table of a dataset. Columns with a
// declared unit are headed "path (unit)".
func (s *DatasetService) Table(ctx context.Context, id string, q TableQuery) (*TableView, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	env, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	records, units := reshape(env.Data, env.Units, q)

	var cols []charts.Column
	for _, key := range tabular.ColumnsOf(tabular.Flatten(records)) {
		header := key
		if unit, ok := units[key]; ok && unit != "" {
			header = charts.AxisLabel(key, unit)
		}
		cols = append(cols, charts.Column{Key: key, Header: header})
	}

	table := charts.DataTableFromRecords(env.Title, records, cols)
	if q.ShareOf != "" {
		addShareColumn(&table, records, q.ShareOf)
	}

	return &TableView{
		ID:        env.ID,
		AriaLabel: charts.ChartAriaLabel(env.Title, describeSource(env.Source), yearRange(records)),
		Summary:   charts.DataSummary(env.Title, highlights(records, cols, units)),
		Table:     table,
		Units:     units,
	}, nil
}

// reshape applies q to records and returns the units that describe the result
func reshape(records []tabular.Value, units map[string]string, q TableQuery) ([]tabular.Value, map[string]string) {
	if q.From != 0 || q.To != 0 {
		from, to := q.From, q.To
		if from == 0 {
			from = math.MinInt32
		}
		if to == 0 {
			to = math.MaxInt32
		}
		records = charts.FilterByYearRange(records, from, to)
	}

	out := make(map[string]string, len(units))
	for k, v := range units {
		out[k] = v
	}

	if q.Normalize {
		for key, unit := range units {
			conv, target, ok := normalizer(unit)
			if !ok {
				continue
			}
			records = mapAll(records, key, func(_ tabular.Value) func(float64) float64 { return conv })
			out[key] = target
		}
	}

	if q.BaseCPI > 0 {
		for key, unit := range out {
			if !strings.HasPrefix(unit, "$") {
				continue
			}
			records = mapAll(records, key, func(rec tabular.Value) func(float64) float64 {
				cpi, ok := numberField(rec, "cpi")
				if !ok || cpi == 0 {
					return nil
				}
				return func(v float64) float64 { return charts.AdjustForInflation(v, cpi, q.BaseCPI) }
			})
		}
	}

	if q.SortBy != "" {
		records = charts.SortByFieldDesc(records, q.SortBy)
	}
	return records, out
}

func normalizer(unit string) (func(float64) float64, string, bool) {
	switch strings.ToLower(unit) {
	case "million kwh":
		return charts.MillionKwhToTwh, "TWh", true
	case "thousand tons", "thousand short tons", "thousand metric tons":
		return charts.ThousandTonsToMmt, "MMT", true
	}
	return nil, "", false
}

// mapAll rewrites path in every record with the function pick returns for
// it; a nil function leaves the record alone.
func mapAll(records []tabular.Value, path string, pick func(tabular.Value) func(float64) float64) []tabular.Value {
	out := make([]tabular.Value, len(records))
	for i, rec := range records {
		out[i] = rec
		if fn := pick(rec); fn != nil {
			out[i] = charts.MapNumber(rec, path, fn)
		}
	}
	return out
}

func addShareColumn(table *charts.DataTable, records []tabular.Value, path string) {
	var total float64
	for _, rec := range records {
		if v, ok := numberField(rec, path); ok {
			total += v
		}
	}
	table.Headers = append(table.Headers, charts.AxisLabel(path+" share", "%"))
	for i, rec := range records {
		cell := ""
		if v, ok := numberField(rec, path); ok {
			cell = charts.FormatPercent(charts.PercentShare(v, total))
		}
		table.Rows[i] = append(table.Rows[i], cell)
	}
}

// highlights describes the unit-bearing values of the latest record
func highlights(records []tabular.Value, cols []charts.Column, units map[string]string) []string {
	if len(records) == 0 {
		return []string{"No records in the selected range"}
	}

	latest := records[len(records)-1]
	best, found := 0.0, false
	for _, rec := range records {
		if y, ok := numberField(rec, "year"); ok && (!found || y > best) {
			latest, best, found = rec, y, true
		}
	}

	var out []string
	for _, c := range cols {
		unit, ok := units[c.Key]
		if !ok || unit == "" {
			continue
		}
		v, ok := numberField(latest, c.Key)
		if !ok {
			continue
		}
		text := charts.FormatCount(v) + " " + unit
		if f, ok := charts.FormatterFor(unit); ok {
			text = f(v)
		}
		line := c.Key + ": " + text
		if found {
			line = c.Key + " in " + tabular.FormatNumber(best) + ": " + text
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		out = append(out, fmt.Sprintf("%d records", len(records)))
	}
	return out
}

func numberField(rec tabular.Value, path string) (float64, bool) {
	v, ok := rec.Lookup(path)
	if !ok {
		return 0, false
	}
	return v.AsNumber()
}

func describeSource(src datasets.Source) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{src.Agency, src.Dataset} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "Source unavailable."
	}
	return "Source: " + strings.Join(parts, ", ") + "."
}

// yearRange returns "first-last" over numeric year fields, or "" when the
// records carry none.
func yearRange(records []tabular.Value) string {
	var lo, hi float64
	found := false
	for _, rec := range records {
		v, ok := rec.Lookup("year")
		if !ok {
			continue
		}
		y, ok := v.AsNumber()
		if !ok {
			continue
		}
		if !found || y < lo {
			lo = y
		}
		if !found || y > hi {
			hi = y
		}
		found = true
	}
	if !found {
		return ""
	}
	if lo == hi {
		return tabular.FormatNumber(lo)
	}
	return tabular.FormatNumber(lo) + "-" + tabular.FormatNumber(hi)
}
