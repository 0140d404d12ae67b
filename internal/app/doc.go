// Package app wires configuration, logging, telemetry, services and HTTP
// handlers into one Application and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration (defaults, config.yaml, EPD_* environment)
//  2. Initialize the slog logger and resolve the data, export and log directories
//  3. Initialize OpenTelemetry and the business metrics
//  4. Create the dataset store, services and the statistics API client
//  5. Build the chi router and the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests within
// Server.ShutdownTimeout and flushes the telemetry providers. RunContext does
// the same for a caller-supplied context.
//
// # Routing
//
// Every route passes RequestID, RealIP, OTel, StructuredLogger, RecoveryMiddleware,
// SecurityHeaders, CORS and the rate limiter. Routes under /api additionally
// get the request Timeout and response compression; the count-up socket and
// /metrics do not.
package app
