package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-guidescan/internal/bam"
	"github.com/inodb/vibe-guidescan/internal/cache"
	"github.com/inodb/vibe-guidescan/internal/output"
	"github.com/inodb/vibe-guidescan/internal/query"
	"github.com/inodb/vibe-guidescan/internal/region"
)

// decodeOrganism keys the single database a decode run reads.
const decodeOrganism = "decode"

func newDecodeCmd(a *app) *cobra.Command {
	var (
		regions    []string
		enzyme     string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "decode [flags] <guides.bam> <chr2acc>",
		Short: "Write per-guide off-target match counts as CSV",
		Long: `Decode every guide in a BAM/SAM guide database and write one CSV row per
guide with its match counts at each distance, distance 0 included, in
file order. Without --region every named chromosome is decoded.`,
		Example: `  vibe-guidescan decode sacCer3.bam chr2acc --region chrI:1-5000
  vibe-guidescan decode -o decoded.csv sacCer3.bam chr2acc`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guidesPath, namesPath := args[0], args[1]

			names, err := cache.LoadChromosomeNames(namesPath)
			if err != nil {
				return err
			}
			accToDisplay := make(staticNames, len(names))
			for _, n := range names {
				accToDisplay[n.Accession] = n.Display()
			}

			regs, err := decodeRegions(cmd, guidesPath, regions, accToDisplay)
			if err != nil {
				return err
			}

			store := bam.NewStore(func(string, string) (string, error) { return guidesPath, nil })
			store.SetLogger(a.logger)
			engine, err := query.NewEngine(query.Stores{Genome: store, Names: accToDisplay}, a.settings())
			if err != nil {
				return err
			}
			engine.SetLogger(a.logger)

			out, closeOut, err := openOutput(outputFile)
			if err != nil {
				return err
			}
			defer closeOut()

			w := output.NewSuccinctWriter(out, a.cfg.Query.MaxMismatches)
			if err := w.WriteHeader(); err != nil {
				return err
			}
			total := 0
			for _, r := range regs {
				hits, err := engine.Query(cmd.Context(), decodeOrganism, enzyme, r, query.Options{Ordering: query.OrderFetch})
				if err != nil {
					return fmt.Errorf("decode %s: %w", r.Name, err)
				}
				for _, h := range hits {
					if err := w.Write(h); err != nil {
						return err
					}
				}
				total += len(hits)
			}
			a.logger.Info("decoded guides",
				zap.String("database", guidesPath),
				zap.Int("regions", len(regs)),
				zap.Int("guides", total))
			return w.Flush()
		},
	}

	cmd.Flags().StringArrayVar(&regions, "region", nil, "Region chrom:start-end (repeatable)")
	cmd.Flags().StringVar(&enzyme, "enzyme", "cas9", "Enzyme the database was built for")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// decodeRegions parses --region values, or covers every named chromosome of
// the database when none are given.
func decodeRegions(cmd *cobra.Command, guidesPath string, values []string, names staticNames) ([]region.Region, error) {
	if len(values) > 0 {
		return region.ParseText(cmd.Context(), strings.Join(values, "\n"), decodeOrganism, nil)
	}

	f, err := bam.Open(guidesPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var regs []region.Region
	for _, c := range f.Chromosomes() {
		display, ok := names[c.Accession]
		if !ok {
			continue
		}
		regs = append(regs, region.Region{Name: display, Chrom: display, Start: 1, End: c.Length})
	}
	return regs, nil
}
