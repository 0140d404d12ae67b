// Package http implements the HTTP handlers of the service. Handlers stay
// thin: they parse the request, call a service through an interface and
// render the result with go-chi/render.
//
// # Routes
//
//	GET /api/health, /api/health/live, /api/version   HealthHandler
//	GET /api/categories                                DatasetHandler.ListCategories
//	GET /api/datasets[?category=]                      DatasetHandler.ListDatasets
//	GET /api/datasets/{id}                             DatasetHandler.GetDataset
//	GET /api/datasets/{id}/table                       DatasetHandler.GetTable
//	GET /api/datasets/{id}/export.csv                  DatasetHandler.ExportCSV
//	GET /api/datasets/{id}/export.xlsx                 DatasetHandler.ExportXLSX
//	GET /api/stats/parse?s=                            StatsHandler.ParseStat
//	GET /ws/count-up?s=&duration=&reducedMotion=       StatsHandler.CountUp
//	GET /api/eia?route=...                             EIAHandler
//	GET /metrics                                       MetricsHandler
//
// # Errors
//
// Failures are rendered as RFC 7807 problem documents through
// errors.ErrorHandler, after serviceError has mapped service sentinels to
// API errors. The EIA proxy keeps a flat {"error": message} body.
//
// # Count-up stream
//
// The socket carries JSON messages {"type": ..., "data": ...}: one "start"
// with the parsed statistic and duration, then "frame" messages ending with
// one whose final flag is set, then a normal close.
package http
