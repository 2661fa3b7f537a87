// Package guide defines candidate guide records as fetched from a genome
// store and the sequence utilities used to filter them.
package guide

import (
	"fmt"

	"github.com/inodb/vibe-guidescan/internal/genome"
)

// Candidate is one putative guide RNA locus.
type Candidate struct {
	Name      string // Record name from the store, if any
	Accession string // Chromosome accession
	Start     int64  // 0-based, inclusive
	End       int64  // 0-based, exclusive
	Strand    genome.Strand
	Sequence  string // Forward-strand sequence including the PAM

	// Scores are nil when the store has no value for the record.
	CuttingEfficiency *float64
	Specificity       *float64

	// OffTargets is the packed off-target blob (raw little-endian int64s).
	OffTargets []byte
}

// Enzyme describes the PAM geometry of a nuclease.
type Enzyme struct {
	Name        string
	PAM         string
	PAMPosition PAMPosition
	GuideLength int  // Protospacer length including the PAM
	HasScores   bool // Specificity and cutting-efficiency are defined
}

// PAMPosition places the PAM relative to the protospacer.
type PAMPosition string

const (
	PAM3Prime PAMPosition = "3prime"
	PAM5Prime PAMPosition = "5prime"
)

// Protospacer returns seq with the PAM removed.
func (e Enzyme) Protospacer(seq string) string {
	n := len(e.PAM)
	if n > len(seq) {
		return ""
	}
	if e.PAMPosition == PAM5Prime {
		return seq[n:]
	}
	return seq[:len(seq)-n]
}

// Span is the distance from an off-target's stored position to its far end.
func (e Enzyme) Span() int64 {
	return int64(e.GuideLength) - 1
}

// RecordError reports a stored record that could not be converted to a
// candidate.
type RecordError struct {
	Name      string
	Accession string
	Start     int64 // 0-based
	Err       error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %s at %s:%d: %v", e.Name, e.Accession, e.Start+1, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Iterator streams candidates from a genome store. Next returns nil, nil
// once the candidates are exhausted.
type Iterator interface {
	Next() (*Candidate, error)
	Close() error
}

// SliceIterator iterates over an in-memory candidate list.
type SliceIterator struct {
	candidates []*Candidate
	pos        int
}

// NewSliceIterator creates an iterator over candidates.
func NewSliceIterator(candidates []*Candidate) *SliceIterator {
	return &SliceIterator{candidates: candidates}
}

// Next returns the next candidate, or nil at the end.
func (it *SliceIterator) Next() (*Candidate, error) {
	if it.pos >= len(it.candidates) {
		return nil, nil
	}
	c := it.candidates[it.pos]
	it.pos++
	return c, nil
}

// Close is a no-op.
func (it *SliceIterator) Close() error { return nil }
