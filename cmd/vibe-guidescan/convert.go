package main

import (
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-guidescan/internal/bam"
	"github.com/inodb/vibe-guidescan/internal/guide"
)

// convertBatch is the number of guides written per transaction.
const convertBatch = 10_000

func newConvertCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <organism> <enzyme> <guides.bam>",
		Short: "Load a BAM/SAM guide database into DuckDB",
		Long: `Copy the genome layout and every guide record of a BAM or SAM guide
database into the metadata database, replacing any guides already stored for
the organism/enzyme pair. Set guides.backend to "duckdb" to query them.`,
		Example: `  vibe-guidescan convert sacCer3 cas9 cas9_sacCer3_all_guides.bam`,
		Args:    exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			organism, enzyme, path := args[0], args[1], args[2]
			if _, err := a.cfg.Enzyme(enzyme); err != nil {
				return &usageError{err: err}
			}

			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			f, err := bam.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			a.logger.Info("converting guide database",
				zap.String("path", path),
				zap.String("size", humanize.Bytes(uint64(info.Size()))),
				zap.String("organism", organism),
				zap.String("enzyme", enzyme))

			start := time.Now()
			if err := store.ReplaceLayout(organism, enzyme, f.Chromosomes()); err != nil {
				return err
			}
			if err := store.ClearGuides(organism, enzyme); err != nil {
				return err
			}

			ctx := cmd.Context()
			total := 0
			batch := make([]*guide.Candidate, 0, convertBatch)
			flush := func() error {
				if len(batch) == 0 {
					return nil
				}
				if err := store.WriteGuides(ctx, organism, enzyme, batch); err != nil {
					return err
				}
				total += len(batch)
				batch = batch[:0]
				if total%(10*convertBatch) == 0 {
					a.logger.Info("converted guides", zap.String("guides", humanize.Comma(int64(total))))
				}
				return nil
			}

			err = f.Scan(ctx, func(c *guide.Candidate) error {
				batch = append(batch, c)
				if len(batch) == convertBatch {
					return flush()
				}
				return nil
			})
			if err != nil {
				return err
			}
			if err := flush(); err != nil {
				return err
			}

			a.logger.Info("conversion complete",
				zap.String("guides", humanize.Comma(int64(total))),
				zap.Int("chromosomes", len(f.Chromosomes())),
				zap.Duration("elapsed", time.Since(start)))
			return nil
		},
	}
	return cmd
}
