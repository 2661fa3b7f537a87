package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/inodb/vibe-guidescan/internal/cache"
)

// ReplaceChromosomes replaces the chromosome names registered for an organism.
func (s *Store) ReplaceChromosomes(organism string, names []cache.ChromosomeName) error {
	if _, err := s.db.Exec("DELETE FROM chromosomes WHERE organism=?", organism); err != nil {
		return fmt.Errorf("clear chromosomes: %w", err)
	}

	// Duplicate accessions would violate the primary key; keep the first.
	seen := make(map[string]bool, len(names))
	unique := names[:0:0]
	for _, n := range names {
		if !seen[n.Accession] {
			seen[n.Accession] = true
			unique = append(unique, n)
		}
	}

	return s.appendRows("chromosomes", len(unique), func(i int) []driver.Value {
		return []driver.Value{unique[i].Accession, unique[i].Name, organism}
	})
}

// ChromosomeNames returns the accession -> display name ("chr" + name) map
// for an organism.
func (s *Store) ChromosomeNames(ctx context.Context, organism string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT accession, 'chr' || name FROM chromosomes WHERE organism=?", organism)
	if err != nil {
		return nil, fmt.Errorf("query chromosomes: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var acc, display string
		if err := rows.Scan(&acc, &display); err != nil {
			return nil, fmt.Errorf("scan chromosome: %w", err)
		}
		names[acc] = display
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chromosomes: %w", err)
	}
	return names, nil
}

// Organisms returns the organisms with registered chromosomes.
func (s *Store) Organisms(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT organism FROM chromosomes ORDER BY organism")
	if err != nil {
		return nil, fmt.Errorf("query organisms: %w", err)
	}
	defer rows.Close()

	var organisms []string
	for rows.Next() {
		var o string
		if err := rows.Scan(&o); err != nil {
			return nil, fmt.Errorf("scan organism: %w", err)
		}
		organisms = append(organisms, o)
	}
	return organisms, rows.Err()
}
