package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"productivity_agent/pkg"
)

// JSONArchiver keeps one JSON file per session under baseDir
type JSONArchiver struct {
	baseDir string
}

// NewJSONArchiver creates a file based archiver
func NewJSONArchiver(baseDir string) *JSONArchiver {
	return &JSONArchiver{
		baseDir: baseDir,
	}
}

func (j *JSONArchiver) path(sessionID string) string {
	return filepath.Join(j.baseDir, fmt.Sprintf("%s.json", sessionID))
}

// Archive writes the snapshot, replacing any previous file for the session
func (j *JSONArchiver) Archive(ctx context.Context, sessionID string, export pkg.SessionExport) error {
	if err := os.MkdirAll(j.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	data, err := sonic.ConfigStd.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session archive: %w", err)
	}

	// Write via temp file + rename
	tmp := j.path(sessionID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write session archive: %w", err)
	}
	if err := os.Rename(tmp, j.path(sessionID)); err != nil {
		return fmt.Errorf("failed to replace session archive: %w", err)
	}

	return nil
}

// Load reads the snapshot of a session
func (j *JSONArchiver) Load(ctx context.Context, sessionID string) (*pkg.SessionExport, error) {
	data, err := os.ReadFile(j.path(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to read session archive: %w", err)
	}

	var export pkg.SessionExport
	if err := sonic.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse session archive: %w", err)
	}

	return &export, nil
}

// Close is a no-op; files are not held open between calls
func (j *JSONArchiver) Close() error {
	return nil
}
