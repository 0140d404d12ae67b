package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"energypolicy/internal/config"
	"energypolicy/internal/datasets"
	"energypolicy/internal/exporter"
	"energypolicy/internal/infrastructure"
	"energypolicy/internal/services"
	"energypolicy/internal/validation"
)

// exportOptions holds the flags shared by the export commands
type exportOptions struct {
	dataDir     string
	outDir      string
	format      string
	gzip        bool
	bom         bool
	concurrency int
	logLevel    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &exportOptions{}

	root := &cobra.Command{
		Use:   "export [ids...]",
		Short: "Export processed energy datasets to CSV or XLSX",
		Long: `Export flattens processed dataset files into spreadsheet-friendly tables.
With no ids every dataset found in the data directory is exported.

Example:
  export lcoe reserve-margins --format csv --gzip --out ./exports`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}

	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", config.DefaultDataDir, "Directory containing processed/<category>/<id>.json")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.Flags().StringVarP(&opts.outDir, "out", "o", config.DefaultExportDir, "Directory to write exports to")
	root.Flags().StringVarP(&opts.format, "format", "f", string(exporter.FormatCSV), "Export format: csv or xlsx")
	root.Flags().BoolVar(&opts.gzip, "gzip", false, "Gzip-compress CSV output")
	root.Flags().BoolVar(&opts.bom, "bom", false, "Prefix CSV output with a UTF-8 byte order mark")
	root.Flags().IntVar(&opts.concurrency, "concurrency", services.DefaultExportConcurrency, "Maximum datasets exported in parallel")

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List known datasets and whether their files are present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.OutOrStdout(), opts)
		},
	})

	return root
}

func newLogger(level string) *slog.Logger {
	return infrastructure.NewLogger(os.Stderr, level)
}

func runExport(ctx context.Context, out io.Writer, opts *exportOptions, ids []string) error {
	format, err := exporter.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.gzip && format != exporter.FormatCSV {
		return fmt.Errorf("--gzip is only supported for csv exports")
	}

	paths, err := config.ResolvePaths(config.PathsConfig{DataDir: opts.dataDir, ExportDir: opts.outDir})
	if err != nil {
		return err
	}

	logger := newLogger(opts.logLevel)
	v := validation.NewFileValidator(logger)
	if _, err := v.ValidateDataDirectory(paths.DataDir); err != nil {
		return err
	}
	if err := v.ValidateOutputDirectory(paths.ExportDir); err != nil {
		return err
	}

	store := datasets.NewStore(os.DirFS(paths.DataDir), logger)
	ds := services.NewDatasetService(store, logger, nil)
	exports := services.NewExportService(ds, paths, logger, nil)

	results, err := exports.WriteAll(ctx, ids, format, exporter.WriteOptions{BOMPrefix: opts.bom, Gzip: opts.gzip}, opts.concurrency)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	for _, res := range results {
		fmt.Fprintf(out, "%-28s %5d rows %3d cols %9d bytes  %s\n", res.Identifier, res.Rows, res.Columns, res.Bytes, res.Path)
	}
	fmt.Fprintf(out, "exported %d dataset(s) to %s\n", len(results), paths.ExportDir)
	return nil
}

func runList(out io.Writer, opts *exportOptions) error {
	paths, err := config.ResolvePaths(config.PathsConfig{DataDir: opts.dataDir})
	if err != nil {
		return err
	}

	store := datasets.NewStore(os.DirFS(paths.DataDir), newLogger(opts.logLevel))
	present := make(map[string]bool)
	for _, d := range store.Available() {
		present[d.ID] = true
	}

	for _, c := range datasets.Categories() {
		fmt.Fprintf(out, "%s (%s)\n", c.Title, c.Slug)
		for _, d := range datasets.InCategory(c.Slug) {
			status := "missing"
			if present[d.ID] {
				status = "available"
			}
			fmt.Fprintf(out, "  %-28s %s\n", d.ID, status)
		}
	}
	fmt.Fprintf(out, "%d/%d datasets available in %s\n", len(present), len(datasets.Catalog()), paths.DataDir)
	return nil
}
