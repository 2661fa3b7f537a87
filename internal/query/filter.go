package query

import (
	"fmt"
	"sort"

	"github.com/inodb/vibe-guidescan/internal/guide"
	"github.com/inodb/vibe-guidescan/internal/region"
)

// filter applies containment, score, GC, annotation and pattern predicates,
// then orders and pages the survivors.
type filter struct {
	region  region.Region
	opts    Options
	scored  bool
	pattern *guide.Pattern
}

func newFilter(enzyme guide.Enzyme, r region.Region, opts Options) (*filter, error) {
	if opts.Offset < 0 || opts.TopN < 0 {
		return nil, fmt.Errorf("negative offset %d or limit %d", opts.Offset, opts.TopN)
	}
	f := &filter{region: r, opts: opts, scored: enzyme.HasScores}
	if opts.PatternAvoid != "" {
		p, err := guide.CompilePattern(opts.PatternAvoid)
		if err != nil {
			return nil, fmt.Errorf("pattern_avoid: %w", err)
		}
		f.pattern = p
	}
	return f, nil
}

func (f *filter) keep(r *Result) bool {
	// Guides straddling the region edge are excluded, not clipped.
	if r.Start < f.region.Start || r.End > f.region.End {
		return false
	}
	if f.scored {
		if !atLeast(r.Specificity, f.opts.MinSpecificity) ||
			!atLeast(r.CuttingEfficiency, f.opts.MinCuttingEfficiency) {
			return false
		}
	}
	if f.opts.MinGC != nil && r.GCContent < *f.opts.MinGC {
		return false
	}
	if f.opts.MaxGC != nil && r.GCContent > *f.opts.MaxGC {
		return false
	}
	if f.opts.FilterAnnotated && r.Annotations == "" {
		return false
	}
	if f.pattern != nil && f.pattern.Matches(r.Sequence) {
		return false
	}
	return true
}

// atLeast reports whether v satisfies an optional lower bound. An absent
// value fails an active bound.
func atLeast(v, bound *float64) bool {
	if bound == nil {
		return true
	}
	return v != nil && *v >= *bound
}

func (f *filter) apply(results []*Result) []*Result {
	kept := make([]*Result, 0, len(results))
	for _, r := range results {
		if f.keep(r) {
			kept = append(kept, r)
		}
	}

	Sort(kept, f.opts.Ordering)

	if f.opts.Offset > 0 {
		kept = kept[min(f.opts.Offset, len(kept)):]
	}
	if f.opts.TopN > 0 && len(kept) > f.opts.TopN {
		kept = kept[:f.opts.TopN]
	}
	return kept
}

// Sort orders results in place. Ties keep their current (fetch) order.
func Sort(results []*Result, ordering Ordering) {
	switch ordering {
	case OrderFetch:
	case OrderLegacy:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].NOffTargets < results[j].NOffTargets
		})
	default:
		sort.SliceStable(results, func(i, j int) bool {
			a, b := results[i], results[j]
			if c := compareScore(a.Specificity, b.Specificity); c != 0 {
				return c > 0
			}
			return a.NOffTargets < b.NOffTargets
		})
	}
}

// compareScore orders present scores before absent ones, higher first.
func compareScore(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a > *b:
		return 1
	case *a < *b:
		return -1
	}
	return 0
}
