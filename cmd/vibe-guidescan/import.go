package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-guidescan/internal/cache"
	"github.com/inodb/vibe-guidescan/internal/duckdb"
)

// Import kinds recorded in the imports table.
const (
	importChromosomes = "chromosomes"
	importAnnotations = "annotations"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		namesPath string
		gtfPath   string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "import [flags] <organism>",
		Short: "Import chromosome names and gene annotations for an organism",
		Long: `Load a chr2acc (or UCSC chromAlias) file and an NCBI RefSeq GTF into the
metadata database. Source files are fingerprinted by size and modification
time; unchanged files are skipped unless --force is given.`,
		Example: `  vibe-guidescan import sacCer3 --chr2acc chr2acc --gtf GCF_000146045.2_R64_genomic.gtf.gz
  vibe-guidescan import hg38 --chr2acc hg38.chromAlias.txt --gtf hg38.ncbiRefSeq.gtf.gz --force`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			im := &importer{store: store, logger: a.logger, organism: args[0], force: force}
			names, changed, err := im.chromosomes(cmd.Context(), namesPath)
			if err != nil {
				return err
			}
			if gtfPath == "" {
				return nil
			}
			im.force = im.force || changed
			return im.annotations(cmd.Context(), gtfPath, names)
		},
	}

	cmd.Flags().StringVar(&namesPath, "chr2acc", "", "chr2acc or chromAlias file (required)")
	cmd.Flags().StringVar(&gtfPath, "gtf", "", "NCBI RefSeq GTF file, optionally gzipped")
	cmd.Flags().BoolVar(&force, "force", false, "Re-import even if the source files are unchanged")
	_ = cmd.MarkFlagRequired("chr2acc")
	return cmd
}

type importer struct {
	store    *duckdb.Store
	logger   *zap.Logger
	organism string
	force    bool
}

// chromosomes imports the chromosome-name file and reports whether the
// stored names changed.
func (im *importer) chromosomes(ctx context.Context, path string) ([]cache.ChromosomeName, bool, error) {
	names, err := cache.LoadChromosomeNames(path)
	if err != nil {
		return nil, false, err
	}
	if len(names) == 0 {
		return nil, false, fmt.Errorf("%s: no chromosome names found", path)
	}

	current, err := im.current(ctx, importChromosomes, path)
	if err != nil || current {
		return names, false, err
	}

	if err := im.store.ReplaceChromosomes(im.organism, names); err != nil {
		return nil, false, err
	}
	if err := im.record(ctx, importChromosomes, path); err != nil {
		return nil, false, err
	}
	im.logger.Info("imported chromosome names",
		zap.String("organism", im.organism),
		zap.Int("chromosomes", cache.RegistryFrom(names).Len()))
	return names, true, nil
}

// annotations imports genes and exons on the named chromosomes.
func (im *importer) annotations(ctx context.Context, path string, names []cache.ChromosomeName) error {
	current, err := im.current(ctx, importAnnotations, path)
	if err != nil || current {
		return err
	}

	accessions := make([]string, len(names))
	for i, n := range names {
		accessions[i] = n.Accession
	}

	start := time.Now()
	loader := cache.NewGTFLoader(path, accessions)
	loader.SetLogger(im.logger)
	ann, err := loader.Load()
	if err != nil {
		return err
	}

	if err := im.store.ReplaceGenes(im.organism, ann.Genes); err != nil {
		return err
	}
	if err := im.store.ReplaceExons(im.organism, ann.Exons); err != nil {
		return err
	}
	if err := im.record(ctx, importAnnotations, path); err != nil {
		return err
	}
	im.logger.Info("imported annotations",
		zap.String("organism", im.organism),
		zap.String("genes", humanize.Comma(int64(len(ann.Genes)))),
		zap.String("exons", humanize.Comma(int64(len(ann.Exons)))),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// current reports whether path was already imported unchanged. It is
// always false with --force.
func (im *importer) current(ctx context.Context, kind, path string) (bool, error) {
	if im.force {
		return false, nil
	}
	fp, err := duckdb.StatFile(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	ok, err := im.store.ImportCurrent(ctx, im.organism, kind, fp)
	if err != nil {
		return false, err
	}
	if ok {
		im.logger.Info("source unchanged, skipping",
			zap.String("organism", im.organism),
			zap.String("kind", kind),
			zap.String("path", path),
			zap.String("size", humanize.Bytes(uint64(fp.Size))))
	}
	return ok, nil
}

func (im *importer) record(ctx context.Context, kind, path string) error {
	fp, err := duckdb.StatFile(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	return im.store.RecordImport(ctx, im.organism, kind, fp)
}
