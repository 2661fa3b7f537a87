// Package cache holds the read-mostly annotation data used during guide
// queries: exon interval indexes, chromosome name registries and the keyed
// caches that share them between queries.
package cache

// Gene represents an annotated gene locus.
type Gene struct {
	EntrezID int64  // NCBI Gene ID
	Symbol   string // Gene symbol or synonym (e.g., CNE1)
	Chrom    string // Chromosome accession
	Start    int64  // 1-based
	End      int64  // 1-based, inclusive
	Forward  bool   // Sense strand
}

// Exon represents a single annotated exon.
type Exon struct {
	EntrezID int64
	Chrom    string // Chromosome accession
	Start    int64  // 0-based, inclusive
	End      int64  // 0-based, exclusive
	Number   int    // Exon number (1-based)
	Product  string // Transcript product name
	Forward  bool
}

// Overlaps returns true if the exon overlaps the half-open interval [start, end).
func (e *Exon) Overlaps(start, end int64) bool {
	return e.Start < end && e.End > start
}
