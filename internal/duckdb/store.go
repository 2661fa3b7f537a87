// Package duckdb stores organism metadata (chromosomes, genes, exons) and
// optionally guide databases in DuckDB.
package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"

	goduckdb "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

// Store manages a DuckDB connection for guide metadata.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path, logger: zap.NewNop()}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// SetLogger sets the logger for store operations.
func (s *Store) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path ("" for in-memory).
func (s *Store) Path() string {
	return s.path
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS chromosomes (
		accession VARCHAR,
		name VARCHAR,
		organism VARCHAR,
		PRIMARY KEY (organism, accession)
	)`,
	`CREATE TABLE IF NOT EXISTS genes (
		entrez_id BIGINT,
		gene_symbol VARCHAR,
		chromosome VARCHAR,
		start_pos BIGINT,
		end_pos BIGINT,
		sense BOOLEAN
	)`,
	`CREATE TABLE IF NOT EXISTS exons (
		entrez_id BIGINT,
		exon_number INTEGER,
		chromosome VARCHAR,
		product VARCHAR,
		start_pos BIGINT,
		end_pos BIGINT,
		sense BOOLEAN
	)`,
	`CREATE TABLE IF NOT EXISTS layouts (
		organism VARCHAR,
		enzyme VARCHAR,
		rank INTEGER,
		accession VARCHAR,
		length BIGINT,
		PRIMARY KEY (organism, enzyme, rank)
	)`,
	`CREATE TABLE IF NOT EXISTS guides (
		organism VARCHAR,
		enzyme VARCHAR,
		id BIGINT,
		name VARCHAR,
		accession VARCHAR,
		start_pos BIGINT,
		end_pos BIGINT,
		sense BOOLEAN,
		sequence VARCHAR,
		cutting_efficiency DOUBLE,
		specificity DOUBLE,
		off_targets BLOB
	)`,
	`CREATE TABLE IF NOT EXISTS imports (
		organism VARCHAR,
		kind VARCHAR,
		path VARCHAR,
		size BIGINT,
		mod_time VARCHAR,
		PRIMARY KEY (organism, kind)
	)`,
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// appendRows bulk-loads rows into table using the DuckDB Appender API.
func (s *Store) appendRows(table string, n int, row func(i int) []driver.Value) error {
	if n == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i := 0; i < n; i++ {
		if err := appender.AppendRow(row(i)...); err != nil {
			return fmt.Errorf("append %s row: %w", table, err)
		}
	}

	return appender.Flush()
}
