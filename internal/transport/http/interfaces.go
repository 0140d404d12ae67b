package http

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/xuri/excelize/v2"

	"energypolicy/internal/datasets"
	"energypolicy/internal/eia"
	"energypolicy/internal/services"
	"energypolicy/internal/stats"
)

// DatasetServiceInterface defines the dataset read operations
type DatasetServiceInterface interface {
	Categories(ctx context.Context) []services.CategoryInfo
	List(ctx context.Context, category string) ([]datasets.Summary, error)
	Get(ctx context.Context, id string) (*datasets.Envelope, error)
	Table(ctx context.Context, id string, q services.TableQuery) (*services.TableView, error)
}

// ExportServiceInterface defines the download renderings of a dataset
type ExportServiceInterface interface {
	CSV(ctx context.Context, id string) (string, int, error)
	Workbook(ctx context.Context, id string) (*excelize.File, int, error)
}

// StatsServiceInterface defines statistic label operations
type StatsServiceInterface interface {
	Parse(label string) (services.StatView, error)
	CountUp(ctx context.Context, req services.CountUpRequest) (*stats.Animation, stats.ParsedStat, error)
}

// HealthServiceInterface defines health reporting
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() services.VersionInfo
}

// EIAClientInterface defines the upstream statistics API
type EIAClientInterface interface {
	Configured() bool
	Fetch(ctx context.Context, p eia.Params) (json.RawMessage, error)
}
