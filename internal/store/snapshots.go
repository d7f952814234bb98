// Package store persists engine state outside the process: the serialised
// index snapshot on disk and document metadata in PostgreSQL.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/docsift/docsift/internal/engine/snapshot"
	"github.com/docsift/docsift/pkg/config"
)

var (
	// ErrNoSnapshot is returned by Load when no snapshot file exists yet.
	ErrNoSnapshot = errors.New("store: no snapshot file")
	// ErrStaleSnapshot is returned by Load when the snapshot file is older
	// than the configured maximum age. The caller should rebuild from the
	// source corpus.
	ErrStaleSnapshot = errors.New("store: snapshot is stale")
)

// FileStore reads and writes the snapshot file. Writes go through a temp
// file and rename, so readers never observe a half-written snapshot.
type FileStore struct {
	path   string
	maxAge time.Duration
	logger *slog.Logger
}

// NewFileStore creates a FileStore for the configured snapshot path.
func NewFileStore(cfg config.SnapshotConfig) *FileStore {
	return &FileStore{
		path:   cfg.Path,
		maxAge: cfg.MaxAge,
		logger: slog.Default().With("component", "snapshot-store"),
	}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string { return s.path }

// Save encodes the snapshot and writes it atomically.
func (s *FileStore) Save(snap *snapshot.Snapshot) error {
	data, err := snapshot.Encode(snap)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("renaming snapshot file: %w", err)
	}
	s.logger.Info("snapshot saved",
		"path", s.path,
		"bytes", len(data),
		"docs", snap.DocCount(),
	)
	return nil
}

// Load reads and decodes the snapshot file. It fails with ErrNoSnapshot if
// the file does not exist, ErrStaleSnapshot if it is older than the
// configured maximum age, and a *snapshot.DecodeError (wrapped) on corrupt
// or foreign bytes. In every failure case the caller's recovery is the
// same: rebuild from source documents.
func (s *FileStore) Load() (*snapshot.Snapshot, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("checking snapshot file: %w", err)
	}
	if s.maxAge > 0 && time.Since(info.ModTime()) > s.maxAge {
		return nil, fmt.Errorf("%w: written %s ago", ErrStaleSnapshot,
			time.Since(info.ModTime()).Round(time.Minute))
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot %s: %w", s.path, err)
	}
	s.logger.Info("snapshot loaded",
		"path", s.path,
		"docs", snap.DocCount(),
		"built_at", snap.BuiltAt,
	)
	return snap, nil
}
