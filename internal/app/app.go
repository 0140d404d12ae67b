package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"energypolicy/internal/config"
	"energypolicy/internal/datasets"
	"energypolicy/internal/eia"
	apierrors "energypolicy/internal/errors"
	"energypolicy/internal/infrastructure"
	customMiddleware "energypolicy/internal/middleware"
	"energypolicy/internal/services"
	handlers "energypolicy/internal/transport/http"
	"energypolicy/internal/validation"
)

// BuildTime is set at link time with -ldflags "-X energypolicy/internal/app.BuildTime=..."
var BuildTime = ""

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics

	dataFS     fs.FS
	httpClient *http.Client
	listener   net.Listener
	serveErr   chan error
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Store    *datasets.Store
	Datasets *services.DatasetService
	Exports  *services.ExportService
	Stats    *services.StatsService
	Health   *services.HealthService
	EIA      *eia.Client
}

// Option customizes an Application built by New
type Option func(*Application)

// WithDataFS replaces the data directory with fsys
func WithDataFS(fsys fs.FS) Option {
	return func(a *Application) { a.dataFS = fsys }
}

// WithEIAHTTPClient sets the HTTP client used for upstream statistics calls
func WithEIAHTTPClient(c *http.Client) Option {
	return func(a *Application) { a.httpClient = c }
}

// NewApplication loads configuration from the environment and builds the
// application around it
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New creates an application instance with dependency injection
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelCfg := infrastructure.DefaultOTelConfig(cfg.Telemetry.ServiceName, config.AppVersion, cfg.Telemetry.Environment)
	otelCfg.EnableTracing = cfg.Telemetry.TracingEnabled
	otelCfg.EnableMetrics = cfg.Telemetry.MetricsEnabled
	otelProviders, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.dataFS == nil {
		a.dataFS = os.DirFS(paths.DataDir)
	}

	a.initializeServices()
	a.setupRouter()
	a.createServer()

	return a, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() {
	store := datasets.NewStore(a.dataFS, a.Logger)
	datasetService := services.NewDatasetService(store, a.Logger, a.Metrics)

	eiaOpts := []eia.Option{eia.WithLogger(a.Logger), eia.WithMetrics(a.Metrics)}
	if a.httpClient != nil {
		eiaOpts = append(eiaOpts, eia.WithHTTPClient(a.httpClient))
	}
	eiaClient := eia.NewClient(a.Config.EIA, eiaOpts...)

	a.Services = &ServiceContainer{
		Store:    store,
		Datasets: datasetService,
		Exports:  services.NewExportService(datasetService, a.Paths, a.Logger, a.Metrics),
		Stats:    services.NewStatsService(a.Config.Animation, a.Logger),
		Health:   services.NewHealthService(config.AppVersion, BuildTime, store, eiaClient.Configured(), a.Logger),
		EIA:      eiaClient,
	}
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
	} else {
		r.Use(otelMiddleware.Handler)
	}

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(apierrors.RecoveryMiddleware(errorHandler))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(a.getCORSConfig()))

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// The count-up socket outlives the request timeout
	statsHandler := handlers.NewStatsHandler(
		a.Services.Stats,
		a.Config.WebSocket,
		a.Config.Security.AllowedOrigins,
		a.Metrics,
		a.Logger,
		errorHandler,
	)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Get(config.CountUpEndpoint, statsHandler.CountUp)

	r.Method(http.MethodGet, config.MetricsEndpoint, handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, errorHandler))

	a.setupAPIRoutes(r, statsHandler, errorHandler)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, statsHandler *handlers.StatsHandler, errorHandler *apierrors.ErrorHandler) {
	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		r.Use(customMiddleware.Compress(5, "application/json", "text/csv"))

		healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		datasetHandler := handlers.NewDatasetHandler(a.Services.Datasets, a.Services.Exports, a.Metrics, a.Logger, errorHandler)
		r.Get("/categories", datasetHandler.ListCategories)
		r.Mount("/datasets", datasetHandler.Routes())

		r.Get("/stats/parse", statsHandler.ParseStat)

		r.Method(http.MethodGet, "/eia", handlers.NewEIAHandler(a.Services.EIA, a.Config.EIA, a.Logger))
	})
}

// getCORSConfig allows the configured origins, or the local development
// servers when CORS is not explicitly configured
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}

	if a.Config.Security.EnableCORS && len(a.Config.Security.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = a.Config.Security.AllowedOrigins
	} else {
		port := a.Config.Server.Port
		cfg.AllowedOrigins = []string{
			fmt.Sprintf("http://localhost:%d", port),
			fmt.Sprintf("http://127.0.0.1:%d", port),
		}
		if a.isDevelopmentMode() {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
		}
	}

	a.Logger.Info("CORS configured", slog.Any("allowed_origins", cfg.AllowedOrigins))
	return cfg
}

func (a *Application) isDevelopmentMode() bool {
	return strings.EqualFold(a.Config.Telemetry.Environment, "development")
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Addr returns the bound listen address once Start has returned
func (a *Application) Addr() string {
	if a.listener == nil {
		return a.Server.Addr
	}
	return a.listener.Addr().String()
}

// Start preloads the datasets and starts serving. A serve failure after
// startup calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	loaded, err := a.Services.Datasets.Preload(ctx)
	if err != nil {
		a.Logger.WarnContext(ctx, "Dataset preload incomplete",
			slog.Int("loaded", loaded),
			slog.String("error", err.Error()))
	} else {
		a.Logger.InfoContext(ctx, "Datasets preloaded", slog.Int("loaded", loaded))
	}

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	l, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = l
	a.serveErr = make(chan error, 1)

	go func() {
		err := a.Server.Serve(l)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			a.serveErr <- err
			cancel()
		}
		close(a.serveErr)
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", "http://"+l.Addr().String()))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	var serveErr error
	if a.serveErr != nil {
		serveErr = <-a.serveErr
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return serveErr
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext serves until ctx is cancelled or the server fails, then shuts
// down gracefully
func (a *Application) RunContext(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.InfoContext(ctx, "Received shutdown signal")

	return a.Stop(ctx)
}

// performStartupHealthCheck reports missing data and unwritable output
// directories. Problems are warnings; the server still starts.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string
	v := validation.NewFileValidator(a.Logger)

	if _, err := v.ValidateDataDirectory(a.Paths.DataDir); err != nil {
		warnings = append(warnings, err.Error())
	}
	for _, dir := range []string{a.Paths.ExportDir, a.Paths.LogsDir} {
		if err := v.ValidateOutputDirectory(dir); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	available := len(a.Services.Store.Available())
	if available == 0 {
		warnings = append(warnings, "no datasets available")
	}

	if !a.Services.EIA.Configured() {
		a.Logger.InfoContext(ctx, "EIA API key not configured; proxy disabled")
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed", slog.Int("datasets", available))
	return nil
}
