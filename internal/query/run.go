package query

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inodb/vibe-guidescan/internal/region"
)

// Request is a batch query over a region list.
type Request struct {
	Organism string
	Enzyme   string
	Input    string // region text, or a path to a .txt/.bed/.gtf/.gff file
	Flanking int64  // when > 0, query the flanks instead of the regions
	Options  Options
}

// RegionHits holds the results for one named region.
type RegionHits struct {
	Region string    `json:"region"`
	Hits   []*Result `json:"hits"`
}

// Response is the outcome of a batch query. Regions without hits are omitted.
type Response struct {
	ID       string                 `json:"id"`
	Organism string                 `json:"organism"`
	Enzyme   string                 `json:"enzyme"`
	Queries  map[string]*RegionHits `json:"queries"`

	// Order lists region names with hits in input order.
	Order []string `json:"-"`
}

// Run parses the request input and queries every region.
func (e *Engine) Run(ctx context.Context, req Request) (*Response, error) {
	regions, err := region.Parse(ctx, req.Input, req.Organism, e.stores.Lookup)
	if err != nil {
		return nil, fmt.Errorf("parse regions: %w", err)
	}

	if req.Flanking > 0 {
		lengthOf, err := e.lengthOf(ctx, req.Organism, req.Enzyme)
		if err != nil {
			return nil, err
		}
		regions = region.Flank(regions, req.Flanking, lengthOf)
	}

	resp := &Response{
		ID:       uuid.NewString(),
		Organism: req.Organism,
		Enzyme:   req.Enzyme,
		Queries:  make(map[string]*RegionHits),
	}
	for _, r := range regions {
		hits, err := e.Query(ctx, req.Organism, req.Enzyme, r, req.Options)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", r.Name, err)
		}
		if len(hits) == 0 {
			continue
		}
		if _, seen := resp.Queries[r.Name]; !seen {
			resp.Order = append(resp.Order, r.Name)
		}
		resp.Queries[r.Name] = &RegionHits{Region: hits[0].RegionString, Hits: hits}
	}

	e.logger.Info("batch query complete",
		zap.String("id", resp.ID),
		zap.String("organism", req.Organism),
		zap.String("enzyme", req.Enzyme),
		zap.Int("regions", len(regions)),
		zap.Int("with_hits", len(resp.Order)))
	return resp, nil
}

// lengthOf returns a chromosome-length lookup accepting display names or accessions.
func (e *Engine) lengthOf(ctx context.Context, organism, enzyme string) (func(string) (int64, bool), error) {
	enz, err := e.Enzyme(enzyme)
	if err != nil {
		return nil, err
	}
	names, err := e.ChromosomeNames(ctx, organism)
	if err != nil {
		return nil, err
	}
	layout, err := e.Layout(ctx, organism, enz.Name)
	if err != nil {
		return nil, err
	}
	return func(chrom string) (int64, bool) {
		acc, _, ok := resolveChromosome(names, chrom)
		if !ok {
			return 0, false
		}
		return layout.Length(acc)
	}, nil
}
