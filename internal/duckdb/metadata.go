package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

func (fp FileFingerprint) modTime() string {
	return fp.ModTime.UTC().Format(time.RFC3339Nano)
}

// ImportCurrent reports whether the last import of kind for an organism
// came from a file with the same size and modification time.
func (s *Store) ImportCurrent(ctx context.Context, organism, kind string, fp FileFingerprint) (bool, error) {
	var size int64
	var modTime string
	err := s.db.QueryRowContext(ctx,
		"SELECT size, mod_time FROM imports WHERE organism=? AND kind=?", organism, kind).Scan(&size, &modTime)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query imports: %w", err)
	}
	return size == fp.Size && modTime == fp.modTime(), nil
}

// RecordImport stores the fingerprint of an imported source file.
func (s *Store) RecordImport(ctx context.Context, organism, kind string, fp FileFingerprint) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO imports (organism, kind, path, size, mod_time) VALUES (?, ?, ?, ?, ?)",
		organism, kind, fp.Path, fp.Size, fp.modTime())
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}
