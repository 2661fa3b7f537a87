package cache

import (
	"fmt"
	"sort"
)

// CutOffset is the distance in bases between the PAM-proximal end of a
// protospacer and the modeled nuclease cut site.
const CutOffset = 6

// AnnotationMode selects which window of a guide is tested against exons.
type AnnotationMode int

const (
	// AnnotateCutSite tests a single base at the modeled cut site.
	AnnotateCutSite AnnotationMode = iota
	// AnnotateSpan tests the whole guide span.
	AnnotateSpan
)

// ParseAnnotationMode parses "cut-site" or "span".
func ParseAnnotationMode(s string) (AnnotationMode, error) {
	switch s {
	case "", "cut-site":
		return AnnotateCutSite, nil
	case "span":
		return AnnotateSpan, nil
	}
	return AnnotateCutSite, fmt.Errorf("unknown annotation mode %q", s)
}

// AnnotationIndex provides exon overlap queries indexed by chromosome accession.
type AnnotationIndex struct {
	trees map[string]*IntervalTree
}

// NewAnnotationIndex builds one interval tree per chromosome.
func NewAnnotationIndex(exons []*Exon) *AnnotationIndex {
	byChrom := make(map[string][]*Exon)
	for _, e := range exons {
		byChrom[e.Chrom] = append(byChrom[e.Chrom], e)
	}

	idx := &AnnotationIndex{trees: make(map[string]*IntervalTree, len(byChrom))}
	for chrom, es := range byChrom {
		idx.trees[chrom] = BuildIntervalTree(es)
	}
	return idx
}

// Query returns exons on chrom overlapping [start, end). Overlapping
// isoforms may yield repeated exon numbers.
func (idx *AnnotationIndex) Query(chrom string, start, end int64) []*Exon {
	tree, ok := idx.trees[chrom]
	if !ok {
		return nil
	}
	return tree.FindOverlaps(start, end)
}

// Annotate returns "Exon N of PRODUCT" labels for a guide at the 0-based
// half-open interval [start, end).
func (idx *AnnotationIndex) Annotate(chrom string, start, end int64, forward bool, mode AnnotationMode) []string {
	var wStart, wEnd int64
	switch mode {
	case AnnotateSpan:
		wStart, wEnd = start-1, end
	default:
		wStart, wEnd = CutSiteWindow(start, end, forward)
	}

	exons := idx.Query(chrom, wStart, wEnd)
	sort.SliceStable(exons, func(i, j int) bool {
		if exons[i].Start != exons[j].Start {
			return exons[i].Start < exons[j].Start
		}
		return exons[i].Number < exons[j].Number
	})

	labels := make([]string, 0, len(exons))
	for _, e := range exons {
		labels = append(labels, fmt.Sprintf("Exon %d of %s", e.Number, e.Product))
	}
	return labels
}

// CutSiteWindow returns the single-base window at the modeled cut site:
// CutOffset bases before the 3' end on the forward strand, CutOffset bases
// after the 5' start on the reverse strand.
func CutSiteWindow(start, end int64, forward bool) (int64, int64) {
	if forward {
		return end - CutOffset - 1, end - CutOffset
	}
	return start + CutOffset, start + CutOffset + 1
}

// ExonCount returns the total number of indexed exons.
func (idx *AnnotationIndex) ExonCount() int {
	n := 0
	for _, t := range idx.trees {
		n += t.Len()
	}
	return n
}

// Chromosomes returns a sorted list of indexed chromosomes.
func (idx *AnnotationIndex) Chromosomes() []string {
	chroms := make([]string, 0, len(idx.trees))
	for chrom := range idx.trees {
		chroms = append(chroms, chrom)
	}
	sort.Strings(chroms)
	return chroms
}
