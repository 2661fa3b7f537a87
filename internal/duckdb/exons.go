package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/inodb/vibe-guidescan/internal/cache"
)

// ReplaceExons replaces the exons on an organism's chromosomes. Exons are
// stored 1-based inclusive.
func (s *Store) ReplaceExons(organism string, exons []*cache.Exon) error {
	if _, err := s.db.Exec("DELETE FROM exons WHERE chromosome IN ("+organismChromosomes+")", organism); err != nil {
		return fmt.Errorf("clear exons: %w", err)
	}
	return s.appendRows("exons", len(exons), func(i int) []driver.Value {
		e := exons[i]
		return []driver.Value{e.EntrezID, int32(e.Number), e.Chrom, e.Product, e.Start + 1, e.End, e.Forward}
	})
}

// ExonIntervals returns every exon of an organism as 0-based half-open intervals.
func (s *Store) ExonIntervals(ctx context.Context, organism string) ([]*cache.Exon, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entrez_id, exon_number, chromosome, product, start_pos, end_pos, sense
		FROM exons WHERE chromosome IN (`+organismChromosomes+`)
		ORDER BY chromosome, start_pos, exon_number`, organism)
	if err != nil {
		return nil, fmt.Errorf("query exons: %w", err)
	}
	defer rows.Close()

	var exons []*cache.Exon
	for rows.Next() {
		var e cache.Exon
		if err := rows.Scan(&e.EntrezID, &e.Number, &e.Chrom, &e.Product, &e.Start, &e.End, &e.Forward); err != nil {
			return nil, fmt.Errorf("scan exon: %w", err)
		}
		e.Start--
		exons = append(exons, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exons: %w", err)
	}
	return exons, nil
}
