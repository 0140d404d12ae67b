// Package services implements the business logic behind the HTTP handlers
// and the export command. Handlers depend on interfaces satisfied by these
// types, so each can be replaced by a mock in transport tests.
//
// # Available Services
//
//	- DatasetService: categories, dataset listings, envelopes and accessible tables
//	- ExportService: CSV and XLSX downloads and batch file exports
//	- StatsService: statistic label parsing and count-up animations
//	- HealthService: liveness, health and version reporting
//
// # Error Handling
//
// Services return the sentinels in errors.go, wrapped with context. Callers
// match them with errors.Is:
//
//	env, err := svc.Get(ctx, id)
//	if errors.Is(err, services.ErrDatasetNotFound) {
//	    // 404
//	}
package services
