package storage

import (
	"context"
	"errors"

	"productivity_agent/pkg"
	"productivity_agent/src/model"
)

// ErrArchiveNotFound is returned by Load when no snapshot exists for a session
var ErrArchiveNotFound = errors.New("session archive not found")

// Archiver persists session snapshots outside the process
type Archiver interface {
	Archive(ctx context.Context, sessionID string, export pkg.SessionExport) error
	Load(ctx context.Context, sessionID string) (*pkg.SessionExport, error)
	Close() error
}

// NewArchiver selects an archiver from the storage config.
// Redis wins over the JSON directory; with neither configured it returns nil, nil.
func NewArchiver(ctx context.Context, cfg model.StorageConfig) (Archiver, error) {
	switch {
	case cfg.RedisURL != "":
		archiver, err := NewRedisArchiver(ctx, cfg.RedisURL, cfg.ArchiveTTL)
		if err != nil {
			return nil, err
		}
		return archiver, nil
	case cfg.ArchiveDir != "":
		return NewJSONArchiver(cfg.ArchiveDir), nil
	default:
		return nil, nil
	}
}
