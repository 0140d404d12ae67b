// Package exporter writes flattened datasets to files and HTTP responses.
//
// CSVWriter produces the document built by tabular.ExportCSV, optionally with
// a UTF-8 BOM for spreadsheet applications and optionally gzip-compressed
// ({identifier}.csv.gz). XLSXWriter lays the same table out on an Excel
// workbook with a second sheet carrying the dataset's source citation.
//
//	paths, _ := config.ResolvePaths(cfg.Paths)
//	w := exporter.NewCSVWriter(paths, logger, metrics)
//	res, err := w.WriteDataset(ctx, "reserve-margins", env.Data, exporter.WriteOptions{BOMPrefix: true})
//
// Identifiers become file stems, so SanitizeIdentifier rejects anything with
// path separators or parent references.
package exporter
