package config

import "time"

// Application constants
const (
	AppName     = "U.S. Energy Policy Data"
	AppVersion  = "1.0.0"
	ServiceName = "energypolicy"

	// Upstream statistics API
	EIABaseURL          = "https://api.eia.gov/v2"
	DataRefreshInterval = 24 * time.Hour

	DefaultHTTPTimeout    = 30 * time.Second
	DefaultRequestTimeout = 60 * time.Second

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// File Paths (relative to the base directory)
	DefaultDataDir   = "data"
	DefaultExportDir = "exports"
	DefaultLogsDir   = "logs"

	DefaultLogLevel = "info"

	// Count-up animation
	DefaultAnimationDuration = 1500 * time.Millisecond
	DefaultFrameInterval     = 16 * time.Millisecond
)

// API routes
const (
	APIBasePath       = "/api"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	CountUpEndpoint   = "/ws/count-up"
	EIAProxyEndpoint  = "/api/eia"
	DatasetsEndpoint  = "/api/datasets"
	CategoryEndpoint  = "/api/categories"
	StatParseEndpoint = "/api/stats/parse"
)
