// Package config loads the service configuration.
//
// # Configuration Sources
//
// Values are layered in increasing order of precedence:
//
//	1. Default()
//	2. config.yaml (or the file named by EPD_CONFIG_FILE)
//	3. Environment variables
//
// # Environment Variables
//
// Variables follow envconfig naming under the EPD prefix:
//
//	EPD_SERVER_PORT=8080
//	EPD_LOGGING_LEVEL=debug
//	EPD_PATHS_DATA_DIR=/srv/energy/data
//	EPD_EIA_API_KEY=...
//	EPD_ANIMATION_REDUCED_MOTION=true
//
// EIA_API_KEY is honoured when EPD_EIA_API_KEY is unset.
//
// # Path Management
//
// ResolvePaths turns the configured directories into absolute paths:
//
//	paths, err := config.ResolvePaths(cfg.Paths)
//	out := paths.GetExportPath("lcoe.csv")
package config
