package exporter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/gzip"

	"energypolicy/internal/config"
	"energypolicy/internal/infrastructure"
	"energypolicy/internal/tabular"
)

// utf8BOM helps spreadsheet applications detect UTF-8
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var gzipWriters = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, gzip.DefaultCompression)
		return w
	},
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool
	Gzip      bool
}

// CSVWriter writes flattened datasets into the export directory
type CSVWriter struct {
	paths   *config.Paths
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewCSVWriter creates a new CSV writer instance. metrics may be nil.
func NewCSVWriter(paths *config.Paths, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *CSVWriter {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &CSVWriter{
		paths:   paths,
		logger:  logger.With(slog.String("component", "csv_writer")),
		metrics: metrics,
	}
}

// Encode writes the CSV document for records to dst and returns the number
// of bytes handed to dst.
func Encode(dst io.Writer, records []tabular.Value, opts WriteOptions) (int64, error) {
	doc := tabular.ExportCSV(records)

	cw := &countingWriter{w: dst}
	var out io.Writer = cw
	var zw *gzip.Writer
	if opts.Gzip {
		zw = gzipWriters.Get().(*gzip.Writer)
		zw.Reset(cw)
		defer gzipWriters.Put(zw)
		out = zw
	}

	if opts.BOMPrefix && doc != "" {
		if _, err := out.Write(utf8BOM); err != nil {
			return cw.n, fmt.Errorf("failed to write BOM: %w", err)
		}
	}
	if _, err := io.WriteString(out, doc); err != nil {
		return cw.n, fmt.Errorf("failed to write csv: %w", err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return cw.n, fmt.Errorf("failed to finish gzip stream: %w", err)
		}
	}
	return cw.n, nil
}

// WriteDataset writes records to {identifier}.csv, or {identifier}.csv.gz
// when opts.Gzip is set, in the export directory.
func (w *CSVWriter) WriteDataset(ctx context.Context, identifier string, records []tabular.Value, opts WriteOptions) (*Result, error) {
	res, err := w.writeDataset(ctx, identifier, records, opts)
	rows, n := 0, 0
	if res != nil {
		rows, n = res.Rows, int(res.Bytes)
	}
	w.metrics.RecordExport(ctx, identifier, string(FormatCSV), rows, n, err)
	return res, err
}

func (w *CSVWriter) writeDataset(ctx context.Context, identifier string, records []tabular.Value, opts WriteOptions) (*Result, error) {
	id, err := SanitizeIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := FileName(id, FormatCSV)
	if opts.Gzip {
		name += ".gz"
	}
	fullPath := w.paths.GetExportPath(name)

	w.logger.InfoContext(ctx, "Writing CSV export",
		slog.String("identifier", id),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(records)),
		slog.Bool("gzip", opts.Gzip))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	n, err := Encode(file, records, opts)
	if cerr := file.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close file: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return nil, err
	}

	return &Result{
		Identifier: id,
		Format:     FormatCSV,
		Path:       fullPath,
		Rows:       len(records),
		Columns:    len(tabular.ColumnsOf(tabular.Flatten(records))),
		Bytes:      n,
		Compressed: opts.Gzip,
	}, nil
}

// WriteCSVResponse sends csv as a download named {identifier}.csv
func WriteCSVResponse(w http.ResponseWriter, identifier, csv string) error {
	id, err := SanitizeIdentifier(identifier)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/csv;charset=utf-8")
	w.Header().Set("Content-Disposition", contentDisposition(FileName(id, FormatCSV)))
	w.WriteHeader(http.StatusOK)
	_, err = io.WriteString(w, csv)
	return err
}

// ReadGzip returns the decompressed content of a .csv.gz export
func ReadGzip(r io.Reader) ([]byte, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func contentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
