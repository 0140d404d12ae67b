package validation

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
}

func TestFileValidator_ValidateDataDirectory(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T) string
		wantCount int
		wantErr   error
		errSubstr string
	}{
		{
			name: "datasets present",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, filepath.Join(dir, "processed", "market-trends", "lcoe.json"))
				writeFile(t, filepath.Join(dir, "processed", "land-use", "power-density.json"))
				writeFile(t, filepath.Join(dir, "processed", "land-use", "notes.txt"))
				require.NoError(t, os.MkdirAll(filepath.Join(dir, "processed", "reliability", "dir.json"), 0755))
				return dir
			},
			wantCount: 2,
		},
		{
			name:      "empty directory",
			setup:     func(t *testing.T) string { return t.TempDir() },
			wantCount: 0,
		},
		{
			name:    "missing directory",
			setup:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent") },
			wantErr: ErrDirectoryMissing,
		},
		{
			name: "path is a file",
			setup: func(t *testing.T) string {
				file := filepath.Join(t.TempDir(), "data")
				writeFile(t, file)
				return file
			},
			errSubstr: "is not a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewFileValidator(discardLogger())
			n, err := v.ValidateDataDirectory(tt.setup(t))

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errSubstr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantCount, n)
			}
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil)

	t.Run("creates nested directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "exports", "csv")
		require.NoError(t, v.ValidateOutputDirectory(dir))
		assert.DirExists(t, dir)
		assert.NoFileExists(t, filepath.Join(dir, ".write_test"))
	})

	t.Run("parent is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "blocker")
		writeFile(t, file)
		err := v.ValidateOutputDirectory(filepath.Join(file, "exports"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create output directory")
	})
}
