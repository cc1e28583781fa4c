package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains the working directories used by the service
type Paths struct {
	TempDir  string
	CleanDir string
	LogsDir  string
}

// GetPaths resolves the working directories from configuration. Relative
// locations are resolved against the current working directory.
func (c *Config) GetPaths() (*Paths, error) {
	tempDir, err := filepath.Abs(c.Paths.TempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve temp dir: %w", err)
	}

	logsDir := c.Paths.LogsDir
	if logsDir == "" {
		logsDir = filepath.Dir(c.Logging.FilePath)
	}
	logsDir, err = filepath.Abs(logsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve logs dir: %w", err)
	}

	return &Paths{
		TempDir:  tempDir,
		CleanDir: filepath.Join(tempDir, "clean"),
		LogsDir:  logsDir,
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.TempDir, p.CleanDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// CleanFilePath returns the output location of a corrected file. The id
// keeps concurrent requests for the same input name apart.
func (p *Paths) CleanFilePath(id, originalName string) string {
	base := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "dataset"
	}
	return filepath.Join(p.CleanDir, fmt.Sprintf("%s_clean_%s", id, base))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
