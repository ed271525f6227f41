package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/eric-edouard/life-recorder/internal/audio"
	"github.com/eric-edouard/life-recorder/internal/metrics"
)

// IoError is returned when a staged file cannot be created or written
type IoError struct {
	Op   string // create, write, sync or close
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("failed to %s staged file %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}

// StagedFile is a fully written WAV object on local disk
type StagedFile struct {
	Path      string
	BaseID    string
	RequestID string
	Size      int64
}

// Manager writes and removes staged files inside a single directory
type Manager struct {
	dir     string
	logger  *slog.Logger
	metrics *metrics.Metrics
	newID   func() string
}

// NewManager creates the staging directory if needed and returns a manager for it
func NewManager(dir string, logger *slog.Logger, m *metrics.Metrics) (*Manager, error) {
	if dir == "" {
		return nil, fmt.Errorf("staging directory cannot be empty")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create staging directory %s: %w", dir, err)
	}

	return &Manager{
		dir:     dir,
		logger:  logger,
		metrics: m,
		newID:   uuid.NewString,
	}, nil
}

// Dir returns the staging directory
func (m *Manager) Dir() string {
	return m.dir
}

// Stage writes env to a new file named after baseID. The file is closed
// before the path is returned; on failure nothing is left on disk.
func (m *Manager) Stage(baseID string, env audio.Envelope) (*StagedFile, error) {
	requestID := m.newID()
	path := filepath.Join(m.dir, fmt.Sprintf("%s_%s.wav", baseID, requestID))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, &IoError{Op: "create", Path: path, Err: err}
	}

	if _, err := env.WriteTo(file); err != nil {
		file.Close()
		m.discard(path)
		return nil, &IoError{Op: "write", Path: path, Err: err}
	}

	if err := file.Sync(); err != nil {
		file.Close()
		m.discard(path)
		return nil, &IoError{Op: "sync", Path: path, Err: err}
	}

	if err := file.Close(); err != nil {
		m.discard(path)
		return nil, &IoError{Op: "close", Path: path, Err: err}
	}

	m.metrics.RecordStaged()
	m.logger.Debug("Staged audio clip",
		slog.String("path", path),
		slog.Int64("size_bytes", env.Size()),
	)

	return &StagedFile{
		Path:      path,
		BaseID:    baseID,
		RequestID: requestID,
		Size:      env.Size(),
	}, nil
}

// Release removes a staged file. Failures are logged and counted, never returned.
func (m *Manager) Release(path string) {
	err := os.Remove(path)
	if err == nil {
		m.logger.Debug("Removed staged file", slog.String("path", path))
		return
	}

	if errors.Is(err, fs.ErrNotExist) {
		return
	}

	m.metrics.RecordCleanupFailure()
	m.logger.Warn("Failed to remove staged file",
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
}

// WithStaged stages env, runs fn with the staged file and releases it on every
// exit path. If staging fails fn is not called and the IoError is returned.
func (m *Manager) WithStaged(baseID string, env audio.Envelope, fn func(*StagedFile) error) error {
	staged, err := m.Stage(baseID, env)
	if err != nil {
		return err
	}
	defer m.Release(staged.Path)

	return fn(staged)
}

// discard removes a partially written file
func (m *Manager) discard(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.metrics.RecordCleanupFailure()
		m.logger.Warn("Failed to remove partial staged file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}
