package query

import (
	"strconv"
	"strings"

	"github.com/inodb/vibe-guidescan/internal/cache"
	"github.com/inodb/vibe-guidescan/internal/genome"
	"github.com/inodb/vibe-guidescan/internal/guide"
	"github.com/inodb/vibe-guidescan/internal/offtarget"
)

// processor turns one fetched candidate into a Result. It only reads shared
// state and is safe to call from several workers.
type processor struct {
	enzyme        guide.Enzyme
	offset        int64
	layout        *genome.Layout
	names         *cache.ChromosomeNames
	index         *cache.AnnotationIndex
	mode          cache.AnnotationMode
	display       string
	summary       []int
	maxMismatches int
	regionString  string
}

func (p *processor) process(c *guide.Candidate) (*Result, error) {
	offTargets, matches, err := p.offTargets(c)
	if err != nil {
		return nil, &DecodeError{Guide: c.Name, Accession: c.Accession, Start: c.Start, Err: err}
	}

	labels := p.index.Annotate(c.Accession, c.Start, c.End, c.Strand.IsForward(), p.mode)

	return &Result{
		ID:                c.Name,
		Coordinate:        genome.FormatCoordinate(p.display, c.Start, c.End, c.Strand, p.offset),
		Sequence:          c.Sequence,
		Chromosome:        p.display,
		Accession:         c.Accession,
		Start:             c.Start + 1,
		End:               c.End,
		Direction:         c.Strand.String(),
		CuttingEfficiency: c.CuttingEfficiency,
		Specificity:       c.Specificity,
		GCContent:         guide.GCContent(p.enzyme.Protospacer(c.Sequence)),
		OffTargets:        offTargets,
		NOffTargets:       len(offTargets),
		OffTargetSummary:  p.summarize(offTargets),
		Annotations:       strings.Join(labels, ";"),
		RegionString:      p.regionString,
		Matches:           matches,
	}, nil
}

// offTargets decodes and maps a candidate's off-targets. Distance-0 hits
// (the guide itself) are counted in matches but not listed; hits on
// chromosomes without a display name (scaffolds, contigs) are dropped.
func (p *processor) offTargets(c *guide.Candidate) ([]OffTarget, []int, error) {
	hits, err := offtarget.Decode(c.OffTargets, p.layout.Delimiter())
	if err != nil {
		return nil, nil, err
	}

	matches := make([]int, max(p.maxMismatches, 0)+1)
	offTargets := make([]OffTarget, 0, len(hits))
	for _, h := range hits {
		if h.Distance == 0 {
			matches[0]++
			continue
		}
		pos, err := p.layout.ToGenomic(h.Coord)
		if err != nil {
			return nil, nil, err
		}
		display, ok := p.names.Display(pos.Accession)
		if !ok {
			continue
		}

		if h.Distance < int64(len(matches)) {
			matches[h.Distance]++
		}
		offTargets = append(offTargets, OffTarget{
			Position:     pos.Offset,
			Chromosome:   strings.TrimPrefix(display, "chr"),
			Accession:    pos.Accession,
			Direction:    pos.Strand.String(),
			Distance:     h.Distance,
			RegionString: genome.OffTargetRegion(display, pos.Offset, pos.Strand, p.enzyme.Span()),
		})
	}
	return offTargets, matches, nil
}

// summarize renders "d:n" counts for the reported distances, joined by '|'.
func (p *processor) summarize(offTargets []OffTarget) string {
	counts := make(map[int64]int, len(p.summary))
	for _, o := range offTargets {
		counts[o.Distance]++
	}
	parts := make([]string, len(p.summary))
	for i, d := range p.summary {
		parts[i] = strconv.Itoa(d) + ":" + strconv.Itoa(counts[int64(d)])
	}
	return strings.Join(parts, "|")
}
