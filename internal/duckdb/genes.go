package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"

	"github.com/inodb/vibe-guidescan/internal/cache"
	"github.com/inodb/vibe-guidescan/internal/region"
)

// organismChromosomes selects the accessions registered for an organism.
const organismChromosomes = "SELECT accession FROM chromosomes WHERE organism=?"

// ReplaceGenes replaces the genes on an organism's chromosomes.
func (s *Store) ReplaceGenes(organism string, genes []*cache.Gene) error {
	if _, err := s.db.Exec("DELETE FROM genes WHERE chromosome IN ("+organismChromosomes+")", organism); err != nil {
		return fmt.Errorf("clear genes: %w", err)
	}
	return s.appendRows("genes", len(genes), func(i int) []driver.Value {
		g := genes[i]
		return []driver.Value{g.EntrezID, g.Symbol, g.Chrom, g.Start, g.End, g.Forward}
	})
}

// Resolve looks up a gene by Entrez ID (a bare integer) or symbol.
// Regions use the chromosome display name and 1-based inclusive bounds.
func (s *Store) Resolve(ctx context.Context, organism, token string) (region.Region, bool, error) {
	query := `SELECT genes.gene_symbol, 'chr' || chromosomes.name, genes.start_pos, genes.end_pos
		FROM genes JOIN chromosomes ON genes.chromosome = chromosomes.accession
		WHERE chromosomes.organism = ?`

	var arg any = token
	if id, err := strconv.ParseInt(token, 10, 64); err == nil {
		query += " AND genes.entrez_id = ?"
		arg = id
	} else {
		query += " AND genes.gene_symbol = ?"
	}
	query += " ORDER BY genes.entrez_id LIMIT 1"

	var r region.Region
	err := s.db.QueryRowContext(ctx, query, organism, arg).Scan(&r.Name, &r.Chrom, &r.Start, &r.End)
	if errors.Is(err, sql.ErrNoRows) {
		return region.Region{}, false, nil
	}
	if err != nil {
		return region.Region{}, false, fmt.Errorf("resolve gene %q: %w", token, err)
	}
	return r, true, nil
}

// GeneCount returns the number of genes stored for an organism.
func (s *Store) GeneCount(ctx context.Context, organism string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM genes WHERE chromosome IN ("+organismChromosomes+")", organism).Scan(&n)
	return n, err
}
