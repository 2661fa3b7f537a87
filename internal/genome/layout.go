// Package genome maps between flattened-genome coordinates and
// (chromosome, offset, strand) positions.
package genome

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOutOfRange reports a flattened coordinate beyond the genome length.
var ErrOutOfRange = errors.New("coordinate out of genome range")

// Strand is '+' (forward) or '-' (reverse).
type Strand byte

const (
	Forward Strand = '+'
	Reverse Strand = '-'
)

func (s Strand) String() string { return string(rune(s)) }

// IsForward returns true for the forward strand.
func (s Strand) IsForward() bool { return s == Forward }

// Chromosome is one entry of the ordered genome layout.
type Chromosome struct {
	Accession string
	Length    int64
}

// Position is a strand-aware offset within a chromosome.
type Position struct {
	Accession string
	Offset    int64
	Strand    Strand
}

// Layout is the fixed chromosome order of a genome store together with its
// prefix sums. A Layout is read-only once built.
type Layout struct {
	chroms []Chromosome
	prefix []int64 // prefix[i] = sum of lengths before chroms[i]
	total  int64
	index  map[string]int
}

// NewLayout builds a layout from chromosomes in store order.
func NewLayout(chroms []Chromosome) (*Layout, error) {
	l := &Layout{
		chroms: make([]Chromosome, len(chroms)),
		prefix: make([]int64, len(chroms)),
		index:  make(map[string]int, len(chroms)),
	}
	copy(l.chroms, chroms)

	for i, c := range l.chroms {
		if c.Length <= 0 {
			return nil, fmt.Errorf("chromosome %s: non-positive length %d", c.Accession, c.Length)
		}
		if _, dup := l.index[c.Accession]; dup {
			return nil, fmt.Errorf("chromosome %s: duplicate accession", c.Accession)
		}
		l.index[c.Accession] = i
		l.prefix[i] = l.total
		l.total += c.Length
	}
	return l, nil
}

// Chromosomes returns the chromosomes in layout order.
func (l *Layout) Chromosomes() []Chromosome {
	out := make([]Chromosome, len(l.chroms))
	copy(out, l.chroms)
	return out
}

// TotalLength returns the summed length of all chromosomes.
func (l *Layout) TotalLength() int64 { return l.total }

// Delimiter returns the sentinel separating runs in packed off-target lists.
func (l *Layout) Delimiter() int64 { return -(l.total + 1) }

// Length returns the length of the named chromosome.
func (l *Layout) Length(accession string) (int64, bool) {
	i, ok := l.index[accession]
	if !ok {
		return 0, false
	}
	return l.chroms[i].Length, true
}

// Contains reports whether accession is part of the layout.
func (l *Layout) Contains(accession string) bool {
	_, ok := l.index[accession]
	return ok
}

// ToGenomic converts a signed flattened coordinate to a chromosome position.
// Positive values are on the forward strand; zero and negative values are on
// the reverse strand. The returned offset is the remainder after subtracting
// the lengths of all preceding chromosomes.
func (l *Layout) ToGenomic(pos int64) (Position, error) {
	strand := Reverse
	x := pos
	if pos > 0 {
		strand = Forward
	} else {
		x = -pos
	}
	// -MinInt64 overflows and stays negative.
	if x < 0 || x >= l.total {
		return Position{}, fmt.Errorf("%w: |%d| >= %d", ErrOutOfRange, pos, l.total)
	}

	// Last chromosome whose prefix sum is <= x. Equivalent to subtracting
	// lengths while x >= the current chromosome length.
	i := sort.Search(len(l.prefix), func(i int) bool { return l.prefix[i] > x }) - 1
	return Position{
		Accession: l.chroms[i].Accession,
		Offset:    x - l.prefix[i],
		Strand:    strand,
	}, nil
}

// Absolute converts a chromosome position back to a signed flattened coordinate.
func (l *Layout) Absolute(accession string, offset int64, strand Strand) (int64, error) {
	i, ok := l.index[accession]
	if !ok {
		return 0, fmt.Errorf("unknown chromosome %q", accession)
	}
	if offset < 0 || offset >= l.chroms[i].Length {
		return 0, fmt.Errorf("%w: offset %d on %s (length %d)", ErrOutOfRange, offset, accession, l.chroms[i].Length)
	}
	x := l.prefix[i] + offset
	if strand == Reverse {
		return -x, nil
	}
	return x, nil
}
