package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/manuscript/internal/logfields"
)

// ErrNotCreated is returned when a workspace is used before Create.
var ErrNotCreated = errors.New("workspace not created")

// Manager owns one scratch directory.
type Manager struct {
	baseDir    string
	dir        string
	persistent bool
	logger     *slog.Logger
}

// NewManager returns a manager for an ephemeral directory under baseDir
// (os.TempDir when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir, logger: slog.Default()}
}

// NewPersistentManager returns a manager for the fixed directory
// baseDir/subdir, which Cleanup leaves in place.
func NewPersistentManager(baseDir, subdir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if subdir == "" {
		subdir = ".manuscript-work"
	}
	return &Manager{
		baseDir:    baseDir,
		dir:        filepath.Join(baseDir, subdir),
		persistent: true,
		logger:     slog.Default(),
	}
}

// WithLogger sets the logger used for lifecycle messages.
func (m *Manager) WithLogger(logger *slog.Logger) *Manager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Create makes the workspace directory.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.dir, 0o750); err != nil {
			return fmt.Errorf("failed to create persistent workspace: %w", err)
		}
		m.logger.Debug("Using persistent workspace", logfields.Path(m.dir))
		return nil
	}

	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace base: %w", err)
	}
	dir, err := os.MkdirTemp(m.baseDir, "manuscript-")
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	m.dir = dir
	m.logger.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// Path returns the workspace directory, empty before Create.
func (m *Manager) Path() string {
	return m.dir
}

// WriteFile writes data to name inside the workspace and returns its path.
func (m *Manager) WriteFile(name string, data []byte) (string, error) {
	if m.dir == "" {
		return "", ErrNotCreated
	}
	path := filepath.Join(m.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

// Cleanup removes an ephemeral workspace. Persistent workspaces are kept.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if m.persistent {
		m.logger.Debug("Keeping persistent workspace", logfields.Path(m.dir))
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to clean up workspace: %w", err)
	}
	m.logger.Debug("Removed workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
