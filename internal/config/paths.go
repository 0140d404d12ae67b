package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds resolved absolute directories
type Paths struct {
	BaseDir   string
	DataDir   string
	ExportDir string
	LogsDir   string
}

// ResolvePaths turns the configured directories into absolute paths.
// Relative entries are joined to BaseDir, or to the working directory when
// BaseDir is empty.
func ResolvePaths(pc PathsConfig) (*Paths, error) {
	base := pc.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(dir, fallback string) string {
		if dir == "" {
			dir = fallback
		}
		if filepath.IsAbs(dir) {
			return filepath.Clean(dir)
		}
		return filepath.Join(base, dir)
	}

	return &Paths{
		BaseDir:   base,
		DataDir:   resolve(pc.DataDir, DefaultDataDir),
		ExportDir: resolve(pc.ExportDir, DefaultExportDir),
		LogsDir:   resolve(pc.LogsDir, DefaultLogsDir),
	}, nil
}

// EnsureDirectories creates the writable directories. The data directory is
// read-only input and is not created.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ExportDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// GetExportPath returns the path for an exported file
func (p *Paths) GetExportPath(filename string) string {
	return filepath.Join(p.ExportDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved directories
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("exports", p.ExportDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Bool("data_dir_exists", FileExists(p.DataDir)))
}
