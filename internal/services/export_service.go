package services

import (
	"context"
	"log/slog"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"energypolicy/internal/config"
	"energypolicy/internal/datasets"
	"energypolicy/internal/exporter"
	"energypolicy/internal/infrastructure"
	"energypolicy/internal/tabular"
)

// DefaultExportConcurrency bounds parallel file exports in WriteAll
const DefaultExportConcurrency = 4

// ExportService turns datasets into CSV and XLSX downloads or files
type ExportService struct {
	datasets *DatasetService
	csv      *exporter.CSVWriter
	xlsx     *exporter.XLSXWriter
	logger   *slog.Logger
}

// NewExportService creates an export service writing files under paths
func NewExportService(ds *DatasetService, paths *config.Paths, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *ExportService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &ExportService{
		datasets: ds,
		csv:      exporter.NewCSVWriter(paths, logger, metrics),
		xlsx:     exporter.NewXLSXWriter(paths, logger, metrics),
		logger:   logger.With(slog.String("service", "export")),
	}
}

// CSV renders a dataset as a CSV document
func (s *ExportService) CSV(ctx context.Context, id string) (string, int, error) {
	env, err := s.datasets.Get(ctx, id)
	if err != nil {
		return "", 0, err
	}
	return tabular.ExportCSV(env.Data), env.Records(), nil
}

// Workbook renders a dataset as an Excel workbook with a Source sheet
func (s *ExportService) Workbook(ctx context.Context, id string) (*excelize.File, int, error) {
	env, err := s.datasets.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	f, err := exporter.Build(env.Data, metadataFor(env))
	if err != nil {
		return nil, 0, err
	}
	return f, env.Records(), nil
}

// WriteFile exports one dataset to the export directory
func (s *ExportService) WriteFile(ctx context.Context, id string, format exporter.Format, opts exporter.WriteOptions) (*exporter.Result, error) {
	env, err := s.datasets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch format {
	case exporter.FormatCSV:
		return s.csv.WriteDataset(ctx, id, env.Data, opts)
	case exporter.FormatXLSX:
		return s.xlsx.WriteDataset(ctx, id, env.Data, metadataFor(env))
	default:
		return nil, ErrUnsupportedFormat
	}
}

// WriteAll exports ids concurrently, or every dataset on disk when ids is
// empty. Results follow the order of ids. The first failure cancels the rest.
func (s *ExportService) WriteAll(ctx context.Context, ids []string, format exporter.Format, opts exporter.WriteOptions, concurrency int) ([]*exporter.Result, error) {
	if len(ids) == 0 {
		for _, ds := range s.datasets.store.Available() {
			ids = append(ids, ds.ID)
		}
		if len(ids) == 0 {
			return nil, ErrNoDatasets
		}
	}
	if concurrency <= 0 {
		concurrency = DefaultExportConcurrency
	}

	results := make([]*exporter.Result, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, id := range ids {
		g.Go(func() error {
			res, err := s.WriteFile(gctx, id, format, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "export batch complete",
		slog.Int("datasets", len(results)),
		slog.String("format", string(format)))
	return results, nil
}

func metadataFor(env *datasets.Envelope) *exporter.Metadata {
	return &exporter.Metadata{
		Title:       env.Title,
		Agency:      env.Source.Agency,
		Dataset:     env.Source.Dataset,
		URL:         env.Source.URL,
		LastUpdated: env.LastUpdated,
		Units:       env.Units,
		Caveats:     env.Caveats,
	}
}
