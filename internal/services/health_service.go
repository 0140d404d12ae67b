package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"energypolicy/internal/datasets"
	"energypolicy/internal/infrastructure"
)

// Health status values
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusAlive    = "alive"
)

// DatasetAvailability reports which catalogue entries exist on disk
type DatasetAvailability interface {
	Available() []datasets.Dataset
}

// HealthService provides health check functionality
type HealthService struct {
	version       string
	buildTime     string
	store         DatasetAvailability
	eiaConfigured bool
	startTime     time.Time
	logger        *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Runtime   *infrastructure.RuntimeStats `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth     `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VersionInfo describes the running build
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// NewHealthService creates a new health service
func NewHealthService(version, buildTime string, store DatasetAvailability, eiaConfigured bool, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("service", "health"))

	logger.Info("Health service initialized",
		slog.String("version", version),
		slog.Bool("eia_configured", eiaConfigured))

	return &HealthService{
		version:       version,
		buildTime:     buildTime,
		store:         store,
		eiaConfigured: eiaConfigured,
		startTime:     time.Now(),
		logger:        logger,
	}
}

// HealthCheck reports dataset availability, proxy configuration and runtime
// counters. Missing datasets degrade the service; a missing API key only
// disables the proxy.
func (s *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	available := len(s.store.Available())
	total := len(datasets.Catalog())

	status := StatusHealthy
	dataHealth := ServiceHealth{Status: StatusHealthy}
	switch {
	case available == 0:
		status = StatusDegraded
		dataHealth = ServiceHealth{Status: StatusDegraded, Message: "no processed datasets found"}
	case available < total:
		dataHealth.Message = fmt.Sprintf("%d/%d datasets available", available, total)
	}

	eiaHealth := ServiceHealth{Status: StatusHealthy}
	if !s.eiaConfigured {
		eiaHealth = ServiceHealth{Status: "disabled", Message: "EIA API key not configured"}
	}

	rt := infrastructure.CollectRuntimeStats(s.startTime)
	if status != StatusHealthy {
		s.logger.WarnContext(ctx, "health check degraded",
			slog.Int("datasets_available", available),
			slog.Int("datasets_total", total))
	}

	return HealthStatus{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Runtime:   &rt,
		Services: map[string]ServiceHealth{
			"datasets": dataHealth,
			"eia":      eiaHealth,
		},
	}
}

// LivenessCheck reports that the process is serving
func (s *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now().UTC(),
		Version:   s.version,
	}
}

// Version describes the running build
func (s *HealthService) Version() VersionInfo {
	return VersionInfo{
		Version:   s.version,
		BuildTime: s.buildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
