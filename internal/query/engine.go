// Package query answers region queries against a guide database: it decodes
// each candidate's off-targets, annotates cut sites, and filters and ranks
// the candidates.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-guidescan/internal/cache"
	"github.com/inodb/vibe-guidescan/internal/genome"
	"github.com/inodb/vibe-guidescan/internal/guide"
	"github.com/inodb/vibe-guidescan/internal/offtarget"
	"github.com/inodb/vibe-guidescan/internal/region"
)

// GenomeStore serves candidate guides and the genome layout of a guide database.
type GenomeStore interface {
	// FetchCandidates streams guides on accession overlapping the 0-based
	// half-open interval [start, end).
	FetchCandidates(ctx context.Context, organism, enzyme, accession string, start, end int64) (guide.Iterator, error)
	ChromosomeLengths(ctx context.Context, organism, enzyme string) ([]genome.Chromosome, error)
}

// ChromosomeRegistry maps chromosome accessions to display names.
type ChromosomeRegistry interface {
	ChromosomeNames(ctx context.Context, organism string) (map[string]string, error)
}

// AnnotationStore provides exon intervals for an organism.
type AnnotationStore interface {
	ExonIntervals(ctx context.Context, organism string) ([]*cache.Exon, error)
}

// Stores groups the collaborators an Engine reads from. Annotations and
// Lookup are optional.
type Stores struct {
	Genome      GenomeStore
	Names       ChromosomeRegistry
	Annotations AnnotationStore
	Lookup      region.Lookup
}

// Settings configures an Engine.
type Settings struct {
	Enzymes          map[string]guide.Enzyme
	Offset           func(organism, enzyme string) int64 // legacy coordinate offset; nil means 0
	SummaryDistances []int
	MaxMismatches    int
	Workers          int // 0 uses runtime.NumCPU()
	CacheSize        int // entries per cache
}

// Engine runs guide queries. It is safe for concurrent use; the layout,
// chromosome-name and annotation caches are shared read-only between queries.
type Engine struct {
	stores   Stores
	settings Settings
	logger   *zap.Logger

	layouts *cache.Keyed[*genome.Layout]
	names   *cache.Keyed[*cache.ChromosomeNames]
	indexes *cache.Keyed[*cache.AnnotationIndex]
}

// NewEngine creates an engine over the given stores.
func NewEngine(stores Stores, settings Settings) (*Engine, error) {
	if stores.Genome == nil || stores.Names == nil {
		return nil, fmt.Errorf("query engine requires a genome store and a chromosome registry")
	}
	if settings.CacheSize <= 0 {
		settings.CacheSize = 8
	}

	e := &Engine{stores: stores, settings: settings, logger: zap.NewNop()}
	var err error
	if e.layouts, err = cache.NewKeyed[*genome.Layout](settings.CacheSize); err != nil {
		return nil, err
	}
	if e.names, err = cache.NewKeyed[*cache.ChromosomeNames](settings.CacheSize); err != nil {
		return nil, err
	}
	if e.indexes, err = cache.NewKeyed[*cache.AnnotationIndex](settings.CacheSize); err != nil {
		return nil, err
	}
	return e, nil
}

// SetLogger sets the logger for query diagnostics.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Enzyme returns the configured enzyme definition.
func (e *Engine) Enzyme(name string) (guide.Enzyme, error) {
	enz, ok := e.settings.Enzymes[strings.ToLower(name)]
	if !ok {
		return guide.Enzyme{}, fmt.Errorf("%w: %q", ErrUnknownEnzyme, name)
	}
	return enz, nil
}

// Layout returns the cached genome layout of an organism/enzyme database.
func (e *Engine) Layout(ctx context.Context, organism, enzyme string) (*genome.Layout, error) {
	return e.layouts.Get(organism+"/"+enzyme, func() (*genome.Layout, error) {
		chroms, err := e.stores.Genome.ChromosomeLengths(ctx, organism, enzyme)
		if err != nil {
			return nil, fmt.Errorf("load genome layout for %s/%s: %w", organism, enzyme, err)
		}
		if len(chroms) == 0 {
			return nil, fmt.Errorf("empty genome layout for %s/%s", organism, enzyme)
		}
		e.logger.Debug("loaded genome layout",
			zap.String("organism", organism),
			zap.String("enzyme", enzyme),
			zap.Int("chromosomes", len(chroms)))
		return genome.NewLayout(chroms)
	})
}

// ChromosomeNames returns the cached chromosome-name registry of an organism.
func (e *Engine) ChromosomeNames(ctx context.Context, organism string) (*cache.ChromosomeNames, error) {
	return e.names.Get(organism, func() (*cache.ChromosomeNames, error) {
		m, err := e.stores.Names.ChromosomeNames(ctx, organism)
		if err != nil {
			return nil, fmt.Errorf("load chromosome names for %s: %w", organism, err)
		}
		return cache.NewChromosomeNames(m), nil
	})
}

// AnnotationIndex returns the cached exon index of an organism.
func (e *Engine) AnnotationIndex(ctx context.Context, organism string) (*cache.AnnotationIndex, error) {
	return e.indexes.Get(organism, func() (*cache.AnnotationIndex, error) {
		if e.stores.Annotations == nil {
			return cache.NewAnnotationIndex(nil), nil
		}
		exons, err := e.stores.Annotations.ExonIntervals(ctx, organism)
		if err != nil {
			return nil, fmt.Errorf("load exons for %s: %w", organism, err)
		}
		idx := cache.NewAnnotationIndex(exons)
		e.logger.Debug("built annotation index",
			zap.String("organism", organism),
			zap.Int("exons", idx.ExonCount()))
		return idx, nil
	})
}

// resolveChromosome accepts a display name or an accession.
func resolveChromosome(names *cache.ChromosomeNames, chrom string) (accession, display string, ok bool) {
	if acc, ok := names.Accession(chrom); ok {
		return acc, chrom, true
	}
	if d, ok := names.Display(chrom); ok {
		return chrom, d, true
	}
	return "", "", false
}

// Query returns the ranked guides lying entirely within r (1-based
// inclusive). An unknown chromosome or a region starting outside the
// chromosome yields an empty result, not an error; a region ending past the
// chromosome is clipped to its length.
func (e *Engine) Query(ctx context.Context, organism, enzymeName string, r region.Region, opts Options) ([]*Result, error) {
	started := time.Now()

	enzyme, err := e.Enzyme(enzymeName)
	if err != nil {
		return nil, err
	}
	f, err := newFilter(enzyme, r, opts)
	if err != nil {
		return nil, err
	}

	names, err := e.ChromosomeNames(ctx, organism)
	if err != nil {
		return nil, err
	}
	acc, display, ok := resolveChromosome(names, r.Chrom)
	if !ok {
		e.logger.Debug("unknown chromosome", zap.String("organism", organism), zap.String("chrom", r.Chrom))
		return nil, nil
	}

	layout, err := e.Layout(ctx, organism, enzyme.Name)
	if err != nil {
		return nil, err
	}
	length, ok := layout.Length(acc)
	if !ok || r.Start < 1 || r.Start > length || r.Start > r.End {
		e.logger.Debug("region outside chromosome", zap.String("region", r.String()))
		return nil, nil
	}
	// A region running past the chromosome end is clipped to it.
	r.End = min(r.End, length)
	f.region = r

	index, err := e.AnnotationIndex(ctx, organism)
	if err != nil {
		return nil, err
	}

	p := &processor{
		enzyme:        enzyme,
		offset:        e.offset(organism, enzyme.Name),
		layout:        layout,
		names:         names,
		index:         index,
		mode:          opts.Annotation,
		display:       display,
		summary:       e.settings.SummaryDistances,
		maxMismatches: e.settings.MaxMismatches,
		regionString:  genome.FormatRegion(display, r.Start, r.End),
	}

	it, err := e.stores.Genome.FetchCandidates(ctx, organism, enzyme.Name, acc, r.Start-1, r.End)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	defer it.Close()

	processed, err := e.processAll(ctx, it, p)
	if err != nil {
		return nil, err
	}

	results := f.apply(processed)
	e.logger.Debug("query complete",
		zap.String("organism", organism),
		zap.String("enzyme", enzyme.Name),
		zap.String("region", p.regionString),
		zap.Int("fetched", len(processed)),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(started)))
	return results, nil
}

func (e *Engine) offset(organism, enzyme string) int64 {
	if e.settings.Offset == nil {
		return 0
	}
	return e.settings.Offset(organism, enzyme)
}

// processAll streams candidates from it through the worker pool and returns
// the processed results in fetch order. The first error cancels the fetch.
func (e *Engine) processAll(ctx context.Context, it guide.Iterator, p *processor) ([]*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	items := make(chan WorkItem, 64)
	g.Go(func() error {
		defer close(items)
		for seq := 0; ; seq++ {
			c, err := it.Next()
			if err != nil {
				return fetchError(err)
			}
			if c == nil {
				return nil
			}
			select {
			case items <- WorkItem{Seq: seq, Candidate: c}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	var out []*Result
	collectErr := OrderedCollect(parallelProcess(items, e.settings.Workers, p.process), func(r WorkResult) error {
		if r.Err != nil {
			cancel()
			return r.Err
		}
		out = append(out, r.Result)
		return nil
	})
	if collectErr != nil {
		g.Wait()
		return nil, collectErr
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// fetchError reports a store record whose off-target tag could not be read
// as a decode failure of that guide.
func fetchError(err error) error {
	var re *guide.RecordError
	if errors.As(err, &re) && errors.Is(re.Err, offtarget.ErrMalformed) {
		return &DecodeError{Guide: re.Name, Accession: re.Accession, Start: re.Start, Err: re.Err}
	}
	return fmt.Errorf("fetch candidates: %w", err)
}
