package services

import (
	"errors"

	"energypolicy/internal/datasets"
	"energypolicy/internal/exporter"
	"energypolicy/internal/stats"
)

// Dataset errors
var (
	ErrDatasetNotFound  = datasets.ErrDatasetNotFound
	ErrCategoryNotFound = errors.New("category not found")
	ErrNoDatasets       = errors.New("no datasets available")

	ErrInvalidTableQuery = errors.New("invalid table query")
)

// Export errors
var (
	ErrUnsupportedFormat = exporter.ErrUnsupportedFormat
	ErrInvalidIdentifier = exporter.ErrInvalidIdentifier
)

// Statistic errors
var (
	ErrNotNumeric      = stats.ErrNotNumeric
	ErrEmptyLabel      = errors.New("statistic label is empty")
	ErrInvalidDuration = errors.New("animation duration must not be negative")
)
