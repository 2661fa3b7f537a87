package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-guidescan/internal/cache"
	"github.com/inodb/vibe-guidescan/internal/output"
	"github.com/inodb/vibe-guidescan/internal/query"
)

type queryFlags struct {
	organism        string
	enzyme          string
	format          string
	outputFile      string
	ordering        string
	annotation      string
	patternAvoid    string
	flanking        int64
	offset          int
	topN            int
	filterAnnotated bool
	minSpecificity  float64
	minEfficiency   float64
	minGC           float64
	maxGC           float64
}

func newQueryCmd(a *app) *cobra.Command {
	var f queryFlags

	cmd := &cobra.Command{
		Use:   "query [flags] <regions>",
		Short: "Find ranked guides in genomic regions",
		Long: `Find guides lying entirely within each region and rank them.

<regions> is either a file (.txt, .bed, .gtf or .gff, optionally gzipped)
or literal text with one region per line: chrom:start-end (1-based,
inclusive), an Entrez gene ID or a gene symbol.`,
		Example: `  vibe-guidescan query --organism sacCer3 chrIV:1000-2000
  vibe-guidescan query --organism sacCer3 --min-specificity 0.2 --top-n 5 CNE1
  vibe-guidescan query --organism hg38 --enzyme cas12a --flanking 500 regions.bed
  vibe-guidescan query --organism sacCer3 -f tab -o hits.tsv genes.txt
  vibe-guidescan query --organism sacCer3 --offset 10 --top-n 10 -f csv CNE1`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request(cmd, args[0], a)
			if err != nil {
				return err
			}

			engine, store, err := a.newEngine()
			if err != nil {
				return err
			}
			defer store.Close()

			resp, err := engine.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.logger.Info("query finished",
				zap.String("id", resp.ID),
				zap.Int("regions_with_hits", len(resp.Order)))

			out, closeOut, err := openOutput(f.outputFile)
			if err != nil {
				return err
			}
			defer closeOut()
			return writeResponse(out, f.format, resp, a.cfg.Query.MaxMismatches)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.organism, "organism", "", "Organism, e.g. sacCer3 (required)")
	fl.StringVar(&f.enzyme, "enzyme", "cas9", "Enzyme")
	fl.StringVarP(&f.format, "output-format", "f", "json", "Output format: json, tab, csv, bed, succinct")
	fl.StringVarP(&f.outputFile, "output", "o", "", "Output file (default: stdout)")
	fl.StringVar(&f.ordering, "ordering", "default", "Ordering: default, legacy, fetch")
	fl.StringVar(&f.annotation, "annotation", "", "Annotation window: cut-site, span (default from config)")
	fl.StringVar(&f.patternAvoid, "pattern-avoid", "", "Drop guides containing this IUPAC pattern on either strand")
	fl.Int64Var(&f.flanking, "flanking", 0, "Query the flanks of each region instead of the region")
	fl.IntVar(&f.offset, "offset", 0, "Skip the first N ranked guides of each region")
	fl.IntVar(&f.topN, "top-n", 0, "Keep at most N guides per region (0: all)")
	fl.BoolVar(&f.filterAnnotated, "filter-annotated", false, "Keep only guides cutting within an exon")
	fl.Float64Var(&f.minSpecificity, "min-specificity", 0, "Minimum specificity score")
	fl.Float64Var(&f.minEfficiency, "min-cutting-efficiency", 0, "Minimum cutting-efficiency score")
	fl.Float64Var(&f.minGC, "min-gc", 0, "Minimum GC content of the protospacer")
	fl.Float64Var(&f.maxGC, "max-gc", 1, "Maximum GC content of the protospacer")
	_ = cmd.MarkFlagRequired("organism")

	return cmd
}

// request builds a query request. Score and GC bounds are only active when
// their flags are set.
func (f *queryFlags) request(cmd *cobra.Command, input string, a *app) (query.Request, error) {
	ordering, err := query.ParseOrdering(f.ordering)
	if err != nil {
		return query.Request{}, &usageError{err: err}
	}
	annotation := f.annotation
	if annotation == "" {
		annotation = a.cfg.Query.Annotation
	}
	mode, err := cache.ParseAnnotationMode(annotation)
	if err != nil {
		return query.Request{}, &usageError{err: err}
	}
	if f.topN < 0 || f.offset < 0 || f.flanking < 0 {
		return query.Request{}, &usageError{err: fmt.Errorf("--top-n, --offset and --flanking must not be negative")}
	}

	opts := query.Options{
		FilterAnnotated: f.filterAnnotated,
		PatternAvoid:    f.patternAvoid,
		Ordering:        ordering,
		Offset:          f.offset,
		TopN:            f.topN,
		Annotation:      mode,
	}
	changed := cmd.Flags().Changed
	if changed("min-specificity") {
		opts.MinSpecificity = &f.minSpecificity
	}
	if changed("min-cutting-efficiency") {
		opts.MinCuttingEfficiency = &f.minEfficiency
	}
	if changed("min-gc") {
		opts.MinGC = &f.minGC
	}
	if changed("max-gc") {
		opts.MaxGC = &f.maxGC
	}

	return query.Request{
		Organism: f.organism,
		Enzyme:   f.enzyme,
		Input:    input,
		Flanking: f.flanking,
		Options:  opts,
	}, nil
}

// openOutput returns stdout or a created file and its close function.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	out, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return out, func() { out.Close() }, nil
}

func writeResponse(w io.Writer, format string, resp *query.Response, maxDistance int) error {
	switch format {
	case "json":
		return output.WriteJSON(w, resp)
	case "tab":
		tw := output.NewTabWriter(w)
		if err := tw.WriteResponse(resp); err != nil {
			return err
		}
		return tw.Flush()
	case "csv":
		cw := output.NewCSVWriter(w)
		if err := cw.WriteResponse(resp); err != nil {
			return err
		}
		return cw.Flush()
	case "bed":
		bw := output.NewBEDWriter(w)
		if err := bw.WriteResponse(resp); err != nil {
			return err
		}
		return bw.Flush()
	case "succinct":
		sw := output.NewSuccinctWriter(w, maxDistance)
		if err := sw.WriteHeader(); err != nil {
			return err
		}
		for _, name := range resp.Order {
			for _, r := range resp.Queries[name].Hits {
				if err := sw.Write(r); err != nil {
					return err
				}
			}
		}
		return sw.Flush()
	}
	return &usageError{err: fmt.Errorf("unknown output format %q", format)}
}
