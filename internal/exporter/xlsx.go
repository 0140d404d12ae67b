package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"energypolicy/internal/config"
	"energypolicy/internal/infrastructure"
	"energypolicy/internal/tabular"
)

const (
	dataSheet   = "Data"
	sourceSheet = "Source"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Metadata is written to the Source sheet of a workbook
type Metadata struct {
	Title       string
	Agency      string
	Dataset     string
	URL         string
	LastUpdated string
	Units       map[string]string
	Caveats     []string
}

// XLSXWriter renders flattened datasets as Excel workbooks
type XLSXWriter struct {
	paths   *config.Paths
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewXLSXWriter creates a workbook writer. metrics may be nil.
func NewXLSXWriter(paths *config.Paths, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *XLSXWriter {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &XLSXWriter{
		paths:   paths,
		logger:  logger.With(slog.String("component", "xlsx_writer")),
		metrics: metrics,
	}
}

// Build lays the flattened table out on the Data sheet, header in row 1.
// Cells whose text is the canonical rendering of a number are stored as
// numbers. meta, when non-nil, fills a Source sheet.
func Build(records []tabular.Value, meta *Metadata) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	rows := tabular.Flatten(records)
	cols := tabular.ColumnsOf(rows)

	for i, name := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetCellValue(dataSheet, cell, name); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	for r, line := range tabular.Matrix(rows, cols) {
		for c, text := range line {
			if text == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				_ = f.Close()
				return nil, err
			}
			if err := f.SetCellValue(dataSheet, cell, cellValue(text)); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
	}

	if len(cols) > 0 {
		if err := f.SetPanes(dataSheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	if meta != nil {
		if err := writeSource(f, meta); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	return f, nil
}

// cellValue keeps text unless it round-trips exactly through a float, so
// identifiers like "007" stay strings
func cellValue(text string) interface{} {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || tabular.FormatNumber(v) != text {
		return text
	}
	return v
}

func writeSource(f *excelize.File, meta *Metadata) error {
	if _, err := f.NewSheet(sourceSheet); err != nil {
		return err
	}

	pairs := [][2]string{
		{"Title", meta.Title},
		{"Agency", meta.Agency},
		{"Dataset", meta.Dataset},
		{"URL", meta.URL},
		{"Last updated", meta.LastUpdated},
	}

	units := make([]string, 0, len(meta.Units))
	for k := range meta.Units {
		units = append(units, k)
	}
	sort.Strings(units)
	for _, k := range units {
		pairs = append(pairs, [2]string{"Unit: " + k, meta.Units[k]})
	}
	for i, c := range meta.Caveats {
		pairs = append(pairs, [2]string{fmt.Sprintf("Caveat %d", i+1), c})
	}

	row := 1
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		if err := f.SetSheetRow(sourceSheet, fmt.Sprintf("A%d", row), &[]interface{}{p[0], p[1]}); err != nil {
			return err
		}
		row++
	}
	return nil
}

// WriteDataset writes records to {identifier}.xlsx in the export directory
func (x *XLSXWriter) WriteDataset(ctx context.Context, identifier string, records []tabular.Value, meta *Metadata) (*Result, error) {
	res, err := x.writeDataset(ctx, identifier, records, meta)
	rows, n := 0, 0
	if res != nil {
		rows, n = res.Rows, int(res.Bytes)
	}
	x.metrics.RecordExport(ctx, identifier, string(FormatXLSX), rows, n, err)
	return res, err
}

func (x *XLSXWriter) writeDataset(ctx context.Context, identifier string, records []tabular.Value, meta *Metadata) (*Result, error) {
	id, err := SanitizeIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath := x.paths.GetExportPath(FileName(id, FormatXLSX))
	x.logger.InfoContext(ctx, "Writing XLSX export",
		slog.String("identifier", id),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := Build(records, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to build workbook: %w", err)
	}
	defer f.Close()

	if err := f.SaveAs(fullPath); err != nil {
		return nil, fmt.Errorf("failed to save workbook: %w", err)
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, err
	}

	return &Result{
		Identifier: id,
		Format:     FormatXLSX,
		Path:       fullPath,
		Rows:       len(records),
		Columns:    len(tabular.ColumnsOf(tabular.Flatten(records))),
		Bytes:      info.Size(),
	}, nil
}

// WriteXLSXResponse streams the workbook as a download named {identifier}.xlsx
func WriteXLSXResponse(w http.ResponseWriter, identifier string, f *excelize.File) (int64, error) {
	id, err := SanitizeIdentifier(identifier)
	if err != nil {
		return 0, err
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", contentDisposition(FileName(id, FormatXLSX)))
	w.WriteHeader(http.StatusOK)
	return f.WriteTo(w)
}
