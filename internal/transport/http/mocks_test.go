package http

import (
	"context"
	"io"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/mock"
	"github.com/xuri/excelize/v2"

	"energypolicy/internal/datasets"
	"energypolicy/internal/eia"
	apierrors "energypolicy/internal/errors"
	"energypolicy/internal/services"
	"energypolicy/internal/stats"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testErrorHandler() *apierrors.ErrorHandler {
	return apierrors.NewErrorHandler(testLogger(), false)
}

// MockDatasetService is a mock implementation of DatasetServiceInterface
type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) Categories(ctx context.Context) []services.CategoryInfo {
	args := m.Called(ctx)
	return args.Get(0).([]services.CategoryInfo)
}

func (m *MockDatasetService) List(ctx context.Context, category string) ([]datasets.Summary, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datasets.Summary), args.Error(1)
}

func (m *MockDatasetService) Get(ctx context.Context, id string) (*datasets.Envelope, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datasets.Envelope), args.Error(1)
}

func (m *MockDatasetService) Table(ctx context.Context, id string, q services.TableQuery) (*services.TableView, error) {
	args := m.Called(ctx, id, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TableView), args.Error(1)
}

// MockExportService is a mock implementation of ExportServiceInterface
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) CSV(ctx context.Context, id string) (string, int, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Int(1), args.Error(2)
}

func (m *MockExportService) Workbook(ctx context.Context, id string) (*excelize.File, int, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).(*excelize.File), args.Int(1), args.Error(2)
}

// MockHealthService is a mock implementation of HealthServiceInterface
type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) HealthCheck(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

func (m *MockHealthService) LivenessCheck(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

func (m *MockHealthService) Version() services.VersionInfo {
	return m.Called().Get(0).(services.VersionInfo)
}

// MockStatsService is a mock implementation of StatsServiceInterface
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) Parse(label string) (services.StatView, error) {
	args := m.Called(label)
	return args.Get(0).(services.StatView), args.Error(1)
}

func (m *MockStatsService) CountUp(ctx context.Context, req services.CountUpRequest) (*stats.Animation, stats.ParsedStat, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Get(1).(stats.ParsedStat), args.Error(2)
	}
	return args.Get(0).(*stats.Animation), args.Get(1).(stats.ParsedStat), args.Error(2)
}

// MockEIAClient is a mock implementation of EIAClientInterface
type MockEIAClient struct {
	mock.Mock
}

func (m *MockEIAClient) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockEIAClient) Fetch(ctx context.Context, p eia.Params) (json.RawMessage, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
