package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// stagedNamePattern matches {DD}_{MM}_{YYYY}_{HH}_{MM}_{SS}_{uuid}.wav
var stagedNamePattern = regexp.MustCompile(
	`^\d{2}_\d{2}_\d{4}_\d{2}_\d{2}_\d{2}_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.wav$`)

// CleanStaleResult contains the outcome of a stale file cleanup
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes staged files older than maxAge. These are left behind only
// when a previous process died between staging and release. Files that do not
// follow the staged naming scheme are never touched.
func (m *Manager) CleanStale(ctx context.Context, maxAge time.Duration) CleanStaleResult {
	result := CleanStaleResult{}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: m.dir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}

		if entry.IsDir() || !stagedNamePattern.MatchString(entry.Name()) {
			continue
		}

		path := filepath.Join(m.dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			continue
		}

		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			m.metrics.RecordCleanupFailure()
			m.logger.Warn("Failed to remove stale staged file",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}

		result.Removed = append(result.Removed, path)
		m.logger.Info("Removed stale staged file",
			slog.String("path", path),
			slog.Duration("age", time.Since(info.ModTime())),
		)
	}

	m.metrics.RecordStaleRemoved(len(result.Removed))
	return result
}
