package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/inodb/vibe-guidescan/internal/genome"
	"github.com/inodb/vibe-guidescan/internal/guide"
)

// ReplaceLayout stores the chromosome order of an organism/enzyme guide database.
func (s *Store) ReplaceLayout(organism, enzyme string, chroms []genome.Chromosome) error {
	if _, err := s.db.Exec("DELETE FROM layouts WHERE organism=? AND enzyme=?", organism, enzyme); err != nil {
		return fmt.Errorf("clear layout: %w", err)
	}
	return s.appendRows("layouts", len(chroms), func(i int) []driver.Value {
		return []driver.Value{organism, enzyme, int32(i), chroms[i].Accession, chroms[i].Length}
	})
}

// ChromosomeLengths returns the ordered genome layout of a guide database.
func (s *Store) ChromosomeLengths(ctx context.Context, organism, enzyme string) ([]genome.Chromosome, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT accession, length FROM layouts WHERE organism=? AND enzyme=? ORDER BY rank", organism, enzyme)
	if err != nil {
		return nil, fmt.Errorf("query layout: %w", err)
	}
	defer rows.Close()

	var chroms []genome.Chromosome
	for rows.Next() {
		var c genome.Chromosome
		if err := rows.Scan(&c.Accession, &c.Length); err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		chroms = append(chroms, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate layout: %w", err)
	}
	return chroms, nil
}

// ClearGuides removes the guides of an organism/enzyme database.
func (s *Store) ClearGuides(organism, enzyme string) error {
	_, err := s.db.Exec("DELETE FROM guides WHERE organism=? AND enzyme=?", organism, enzyme)
	return err
}

// WriteGuides appends guides in one transaction. Absent scores are stored as NULL.
func (s *Store) WriteGuides(ctx context.Context, organism, enzyme string, guides []*guide.Candidate) error {
	if len(guides) == 0 {
		return nil
	}

	var next int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT coalesce(max(id) + 1, 0) FROM guides WHERE organism=? AND enzyme=?", organism, enzyme).Scan(&next); err != nil {
		return fmt.Errorf("next guide id: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO guides
		(organism, enzyme, id, name, accession, start_pos, end_pos, sense, sequence, cutting_efficiency, specificity, off_targets)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, g := range guides {
		if _, err := stmt.ExecContext(ctx,
			organism, enzyme, next+int64(i), g.Name, g.Accession, g.Start, g.End, g.Strand.IsForward(),
			g.Sequence, nullFloat(g.CuttingEfficiency), nullFloat(g.Specificity), g.OffTargets,
		); err != nil {
			return fmt.Errorf("insert guide %s: %w", g.Name, err)
		}
	}
	return tx.Commit()
}

// FetchCandidates streams guides on accession overlapping the 0-based
// half-open interval [start, end), in position then insertion order.
func (s *Store) FetchCandidates(ctx context.Context, organism, enzyme, accession string, start, end int64) (guide.Iterator, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, accession, start_pos, end_pos, sense, sequence,
		cutting_efficiency, specificity, off_targets
		FROM guides
		WHERE organism=? AND enzyme=? AND accession=? AND start_pos < ? AND end_pos > ?
		ORDER BY start_pos, id`, organism, enzyme, accession, end, start)
	if err != nil {
		return nil, fmt.Errorf("query guides: %w", err)
	}
	return &rowIterator{rows: rows}, nil
}

// GuideCount returns the number of guides in an organism/enzyme database.
func (s *Store) GuideCount(ctx context.Context, organism, enzyme string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM guides WHERE organism=? AND enzyme=?", organism, enzyme).Scan(&n)
	return n, err
}

// Database names one organism/enzyme guide database.
type Database struct {
	Organism string
	Enzyme   string
}

// Databases lists the organism/enzyme pairs with a stored layout.
func (s *Store) Databases(ctx context.Context) ([]Database, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT organism, enzyme FROM layouts ORDER BY organism, enzyme")
	if err != nil {
		return nil, fmt.Errorf("query databases: %w", err)
	}
	defer rows.Close()

	var dbs []Database
	for rows.Next() {
		var d Database
		if err := rows.Scan(&d.Organism, &d.Enzyme); err != nil {
			return nil, fmt.Errorf("scan database: %w", err)
		}
		dbs = append(dbs, d)
	}
	return dbs, rows.Err()
}

// rowIterator adapts *sql.Rows to guide.Iterator.
type rowIterator struct {
	rows *sql.Rows
}

func (it *rowIterator) Next() (*guide.Candidate, error) {
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate guides: %w", err)
		}
		return nil, nil
	}

	var c guide.Candidate
	var name sql.NullString
	var forward bool
	var ce, spec sql.NullFloat64
	if err := it.rows.Scan(&name, &c.Accession, &c.Start, &c.End, &forward, &c.Sequence, &ce, &spec, &c.OffTargets); err != nil {
		return nil, fmt.Errorf("scan guide: %w", err)
	}
	c.Name = name.String
	c.Strand = genome.Reverse
	if forward {
		c.Strand = genome.Forward
	}
	if ce.Valid {
		c.CuttingEfficiency = &ce.Float64
	}
	if spec.Valid {
		c.Specificity = &spec.Float64
	}
	return &c, nil
}

func (it *rowIterator) Close() error {
	return it.rows.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
