package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrDirectoryMissing is returned when a required input directory does not exist
var ErrDirectoryMissing = errors.New("directory does not exist")

// datasetPattern matches processed dataset files below the data directory
const datasetPattern = "processed/*/*.json"

// FileValidator checks the directories the server and export tool depend on
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateDataDirectory checks that dir exists and returns the number of
// processed dataset files in it. An empty directory is not an error.
func (v *FileValidator) ValidateDataDirectory(dir string) (int, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Error("Data directory does not exist",
			slog.String("directory", dir))
		return 0, fmt.Errorf("data %w: %s", ErrDirectoryMissing, dir)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Data path is not a directory",
			slog.String("path", dir))
		return 0, fmt.Errorf("%s is not a directory", dir)
	}

	n, err := v.CountFiles(dir, datasetPattern)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		v.logger.Warn("No processed datasets found",
			slog.String("directory", dir),
			slog.String("pattern", datasetPattern))
		return 0, nil
	}

	v.logger.Debug("Data directory validated",
		slog.String("directory", dir),
		slog.Int("files_found", n))
	return n, nil
}

// ValidateOutputDirectory ensures dir exists, creating it if needed, and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// CountFiles counts regular files matching a glob pattern below dir
func (v *FileValidator) CountFiles(dir string, pattern string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}

	count := 0
	for _, match := range matches {
		info, err := os.Stat(match)
		if err == nil && !info.IsDir() {
			count++
		}
	}
	return count, nil
}
