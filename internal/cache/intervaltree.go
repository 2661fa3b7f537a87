package cache

import "sort"

// IntervalTree provides O(log n + k) overlap queries using a sorted-slice approach.
// Exons are loaded once and never modified after build.
type IntervalTree struct {
	exons  []*Exon
	maxEnd []int64 // maxEnd[i] = max(End) for exons[:i+1]
}

// BuildIntervalTree creates an interval tree from a slice of exons.
func BuildIntervalTree(exons []*Exon) *IntervalTree {
	if len(exons) == 0 {
		return &IntervalTree{}
	}

	sorted := make([]*Exon, len(exons))
	copy(sorted, exons)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	// Prefix-max array: any exon at or before i ends no later than maxEnd[i].
	maxEnd := make([]int64, len(sorted))
	maxEnd[0] = sorted[0].End
	for i := 1; i < len(sorted); i++ {
		maxEnd[i] = max(maxEnd[i-1], sorted[i].End)
	}

	return &IntervalTree{exons: sorted, maxEnd: maxEnd}
}

// Len returns the number of exons in the tree.
func (t *IntervalTree) Len() int {
	return len(t.exons)
}

// FindOverlaps returns all exons overlapping the half-open interval [start, end),
// in ascending start order.
func (t *IntervalTree) FindOverlaps(start, end int64) []*Exon {
	if len(t.exons) == 0 || start >= end {
		return nil
	}

	// Candidates are exons with Start < end.
	hi := sort.Search(len(t.exons), func(i int) bool {
		return t.exons[i].Start >= end
	})

	// Skip the prefix whose exons all end at or before start.
	lo := sort.Search(hi, func(i int) bool {
		return t.maxEnd[i] > start
	})

	var result []*Exon
	for i := lo; i < hi; i++ {
		if t.exons[i].End > start {
			result = append(result, t.exons[i])
		}
	}
	return result
}
