// Package workspace manages the scratch directory of a single analysis run.
// Each run gets its own directory (deepdoc-<run-id>) under the base dir,
// holding capability intermediates, and is removed again on cleanup.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/deepdoc/internal/logfields"
)

// Manager owns one run's scratch directory.
type Manager struct {
	baseDir string
	runID   string
	dir     string
}

// NewManager creates a manager rooted at baseDir, or the system temp dir when
// baseDir is empty. The run ID keys the scratch directory so concurrent runs
// never collide.
func NewManager(baseDir, runID string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir, runID: runID}
}

// Create makes the scratch directory. Calling it twice is an error.
func (m *Manager) Create() error {
	if m.dir != "" {
		return fmt.Errorf("workspace already created at %s", m.dir)
	}
	dir := filepath.Join(m.baseDir, fmt.Sprintf("deepdoc-%s", m.runID))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create workspace directory: %w", err)
	}
	m.dir = dir
	slog.Debug("Created workspace", logfields.Path(dir), logfields.RunID(m.runID))
	return nil
}

// Path returns the scratch directory, or "" before Create.
func (m *Manager) Path() string {
	return m.dir
}

// CreateSubdir makes a named subdirectory inside the scratch dir, typically
// one per focus area.
func (m *Manager) CreateSubdir(name string) (string, error) {
	if m.dir == "" {
		return "", fmt.Errorf("workspace not created")
	}
	subdir := filepath.Join(m.dir, name)
	if err := os.MkdirAll(subdir, 0o750); err != nil {
		return "", fmt.Errorf("create workspace subdirectory: %w", err)
	}
	return subdir, nil
}

// Cleanup removes the scratch directory. Idempotent: a second call is a
// no-op, so it is safe both deferred and on explicit abort paths.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
