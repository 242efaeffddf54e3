package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"ivtcli/internal/config"
)

// Manager writes generated files below the configured output directory
type Manager struct {
	paths *config.Paths
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths) *Manager {
	return &Manager{paths: paths}
}

// Resolve returns the absolute location of an output file
func (m *Manager) Resolve(path string) string {
	if m.paths == nil {
		return path
	}
	return m.paths.OutputPath(path)
}

// WriteFile writes data atomically: a temp file in the same directory is renamed over the target
func (m *Manager) WriteFile(path string, data []byte) (string, error) {
	return m.WriteWith(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteWith streams content produced by write into path atomically.
// On any error the target is left untouched.
func (m *Manager) WriteWith(path string, write func(io.Writer) error) (string, error) {
	fullPath := m.Resolve(path)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	slog.Debug("Wrote file", slog.String("path", fullPath))
	return fullPath, nil
}

// FileExists checks if a file exists at the given output path
func (m *Manager) FileExists(path string) bool {
	_, err := os.Stat(m.Resolve(path))
	return err == nil
}
