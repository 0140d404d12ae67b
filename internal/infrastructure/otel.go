package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
)

// MeterName scopes every instrument created by the service
const MeterName = "energypolicy"

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns metrics on, tracing off
func DefaultOTelConfig(serviceName, version, environment string) *OTelConfig {
	return &OTelConfig{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    environment,
		TraceExporter:  "stdout",
		MetricExporter: "prometheus",
		EnableMetrics:  true,
		EnableTracing:  false,
		SampleRatio:    1.0,
	}
}

// InitializeOTel sets up tracing and metrics. With metrics disabled the
// returned Meter is a no-op so callers can create instruments unconditionally.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		return nil, errors.New("otel config is required")
	}
	if logger == nil {
		logger = GetLogger()
	}

	ctx := context.Background()
	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{
		Logger: logger,
		Meter:  noop.NewMeterProvider().Meter(MeterName),
		Tracer: otel.Tracer(MeterName),
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return nil
}

func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		// A private registry keeps repeated initialization (tests) from
		// colliding on the global default registerer.
		registry := prometheus.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
		otel.SetMeterProvider(mp)
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))
	return nil
}

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Export metrics
	ExportsTotal       metric.Int64Counter
	ExportRowsTotal    metric.Int64Counter
	ExportBytesTotal   metric.Int64Counter
	ExportErrorsTotal  metric.Int64Counter
	DatasetLoadsTotal  metric.Int64Counter
	DatasetLoadErrors  metric.Int64Counter

	// Upstream proxy metrics
	EIARequestsTotal   metric.Int64Counter
	EIAFailuresTotal   metric.Int64Counter
	EIARequestDuration metric.Float64Histogram

	// Count-up stream metrics
	AnimationStreamsTotal  metric.Int64Counter
	AnimationFramesTotal   metric.Int64Counter
	AnimationActiveStreams metric.Int64UpDownCounter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		m    BusinessMetrics
		errs []error
	)

	counter := func(name, desc string, opts ...metric.Int64CounterOption) metric.Int64Counter {
		c, err := meter.Int64Counter(name, append(opts, metric.WithDescription(desc))...)
		errs = append(errs, err)
		return c
	}
	histogram := func(name, desc string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		errs = append(errs, err)
		return h
	}
	gauge := func(name, desc string) metric.Int64UpDownCounter {
		g, err := meter.Int64UpDownCounter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return g
	}

	m.HTTPRequestsTotal = counter("http_requests_total", "Total number of HTTP requests")
	m.HTTPRequestDuration = histogram("http_request_duration_seconds", "HTTP request duration in seconds")
	m.HTTPActiveRequests = gauge("http_active_requests", "Number of active HTTP requests")

	m.ExportsTotal = counter("exports_total", "Total number of dataset exports")
	m.ExportRowsTotal = counter("export_rows_total", "Total number of rows written by exports")
	m.ExportBytesTotal = counter("export_bytes_total", "Total bytes written by exports", metric.WithUnit("By"))
	m.ExportErrorsTotal = counter("export_errors_total", "Total number of failed exports")
	m.DatasetLoadsTotal = counter("dataset_loads_total", "Total number of dataset loads")
	m.DatasetLoadErrors = counter("dataset_load_errors_total", "Total number of failed dataset loads")

	m.EIARequestsTotal = counter("eia_requests_total", "Total number of upstream statistics API calls")
	m.EIAFailuresTotal = counter("eia_failures_total", "Total number of failed upstream statistics API calls")
	m.EIARequestDuration = histogram("eia_request_duration_seconds", "Upstream statistics API latency in seconds")

	m.AnimationStreamsTotal = counter("countup_streams_total", "Total number of count-up streams started")
	m.AnimationFramesTotal = counter("countup_frames_total", "Total number of count-up frames sent")
	m.AnimationActiveStreams = gauge("countup_active_streams", "Number of open count-up streams")

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}

// NoopBusinessMetrics returns instruments that record nothing
func NoopBusinessMetrics() *BusinessMetrics {
	m, _ := CreateBusinessMetrics(noop.NewMeterProvider().Meter(MeterName))
	return m
}

// RecordExport records one finished export
func (m *BusinessMetrics) RecordExport(ctx context.Context, dataset, format string, rows, bytes int, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("dataset", dataset),
		attribute.String("format", format),
	)
	if err != nil {
		m.ExportErrorsTotal.Add(ctx, 1, attrs)
		return
	}
	m.ExportsTotal.Add(ctx, 1, attrs)
	m.ExportRowsTotal.Add(ctx, int64(rows), attrs)
	m.ExportBytesTotal.Add(ctx, int64(bytes), attrs)
}

// RecordDatasetLoad records one dataset read through the service layer
func (m *BusinessMetrics) RecordDatasetLoad(ctx context.Context, dataset string, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("dataset", dataset))
	m.DatasetLoadsTotal.Add(ctx, 1, attrs)
	if err != nil {
		m.DatasetLoadErrors.Add(ctx, 1, attrs)
	}
}

// RecordUpstreamCall records one upstream statistics API call
func (m *BusinessMetrics) RecordUpstreamCall(ctx context.Context, route string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("route", route))
	m.EIARequestsTotal.Add(ctx, 1, attrs)
	m.EIARequestDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		m.EIAFailuresTotal.Add(ctx, 1, attrs)
	}
}

// StreamStarted records a count-up stream opening. The returned func records
// it closing.
func (m *BusinessMetrics) StreamStarted(ctx context.Context) func() {
	if m == nil {
		return func() {}
	}
	m.AnimationStreamsTotal.Add(ctx, 1)
	m.AnimationActiveStreams.Add(ctx, 1)
	return func() { m.AnimationActiveStreams.Add(ctx, -1) }
}

// RecordFrame records one count-up frame sent to a client
func (m *BusinessMetrics) RecordFrame(ctx context.Context, final bool) {
	if m == nil {
		return
	}
	m.AnimationFramesTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("final", final)))
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %w", errors.Join(errs...))
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// AddSpanEvent adds an event to the current span
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}
