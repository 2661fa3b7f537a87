package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inodb/vibe-guidescan/internal/cache"
	"github.com/inodb/vibe-guidescan/internal/genome"
	"github.com/inodb/vibe-guidescan/internal/guide"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedYeast(t *testing.T, s *Store) {
	t.Helper()
	require.NoError(t, s.ReplaceChromosomes("sacCer3", []cache.ChromosomeName{
		{Accession: "NC_001133.9", Name: "I"},
		{Accession: "NC_001134.8", Name: "II"},
		{Accession: "NC_001133.9", Name: "dup"},
	}))
	require.NoError(t, s.ReplaceGenes("sacCer3", []*cache.Gene{
		{EntrezID: 851203, Symbol: "CNE1", Chrom: "NC_001133.9", Start: 37464, End: 38972, Forward: true},
		{EntrezID: 851203, Symbol: "FUN48", Chrom: "NC_001133.9", Start: 37464, End: 38972, Forward: true},
	}))
	require.NoError(t, s.ReplaceExons("sacCer3", []*cache.Exon{
		{EntrezID: 851203, Chrom: "NC_001133.9", Start: 37463, End: 38972, Number: 1, Product: "calnexin", Forward: true},
	}))
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
	assert.Equal(t, "", s.Path())
}

func TestOpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "guidescan.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestChromosomeNames(t *testing.T) {
	s := openInMemory(t)
	seedYeast(t, s)

	names, err := s.ChromosomeNames(context.Background(), "sacCer3")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"NC_001133.9": "chrI", "NC_001134.8": "chrII"}, names)

	names, err = s.ChromosomeNames(context.Background(), "hg38")
	require.NoError(t, err)
	assert.Empty(t, names)

	orgs, err := s.Organisms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"sacCer3"}, orgs)
}

func TestResolve(t *testing.T) {
	s := openInMemory(t)
	seedYeast(t, s)
	ctx := context.Background()

	for _, token := range []string{"CNE1", "851203"} {
		r, ok, err := s.Resolve(ctx, "sacCer3", token)
		require.NoError(t, err)
		require.True(t, ok, token)
		assert.Equal(t, "CNE1", r.Name)
		assert.Equal(t, "chrI", r.Chrom)
		assert.Equal(t, int64(37464), r.Start)
		assert.Equal(t, int64(38972), r.End)
	}

	r, ok, err := s.Resolve(ctx, "sacCer3", "FUN48")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "FUN48", r.Name)

	_, ok, err = s.Resolve(ctx, "sacCer3", "NOPE")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Resolve(ctx, "hg38", "CNE1")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.GeneCount(ctx, "sacCer3")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestExonIntervals(t *testing.T) {
	s := openInMemory(t)
	seedYeast(t, s)

	exons, err := s.ExonIntervals(context.Background(), "sacCer3")
	require.NoError(t, err)
	require.Len(t, exons, 1)
	assert.Equal(t, int64(37463), exons[0].Start)
	assert.Equal(t, int64(38972), exons[0].End)
	assert.Equal(t, 1, exons[0].Number)
	assert.Equal(t, "calnexin", exons[0].Product)

	// Re-import replaces rather than appends.
	require.NoError(t, s.ReplaceExons("sacCer3", nil))
	exons, err = s.ExonIntervals(context.Background(), "sacCer3")
	require.NoError(t, err)
	assert.Empty(t, exons)
}

func TestLayoutRoundTrip(t *testing.T) {
	s := openInMemory(t)
	chroms := []genome.Chromosome{{Accession: "NC_001133.9", Length: 230218}, {Accession: "NC_001134.8", Length: 813184}}
	require.NoError(t, s.ReplaceLayout("sacCer3", "cas9", chroms))

	got, err := s.ChromosomeLengths(context.Background(), "sacCer3", "cas9")
	require.NoError(t, err)
	assert.Equal(t, chroms, got)

	dbs, err := s.Databases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Database{{Organism: "sacCer3", Enzyme: "cas9"}}, dbs)
}

func TestGuidesFetch(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()
	spec := 0.9

	guides := []*guide.Candidate{
		{Name: "g2", Accession: "NC_1", Start: 30, End: 53, Strand: genome.Reverse, Sequence: "CCTAAAAAAAAAAAAAAAAAAAA"},
		{Name: "g1", Accession: "NC_1", Start: 10, End: 33, Strand: genome.Forward, Sequence: "AAAAAAAAAAAAAAAAAAAAAGG",
			Specificity: &spec, OffTargets: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{Name: "far", Accession: "NC_1", Start: 500, End: 523, Strand: genome.Forward},
		{Name: "other", Accession: "NC_2", Start: 10, End: 33, Strand: genome.Forward},
	}
	require.NoError(t, s.WriteGuides(ctx, "sacCer3", "cas9", guides))

	it, err := s.FetchCandidates(ctx, "sacCer3", "cas9", "NC_1", 0, 100)
	require.NoError(t, err)
	defer it.Close()

	var got []*guide.Candidate
	for {
		c, err := it.Next()
		require.NoError(t, err)
		if c == nil {
			break
		}
		got = append(got, c)
	}

	require.Len(t, got, 2)
	assert.Equal(t, "g1", got[0].Name)
	assert.Equal(t, genome.Forward, got[0].Strand)
	require.NotNil(t, got[0].Specificity)
	assert.InDelta(t, 0.9, *got[0].Specificity, 1e-9)
	assert.Nil(t, got[0].CuttingEfficiency)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, got[0].OffTargets)
	assert.Equal(t, "g2", got[1].Name)
	assert.Equal(t, genome.Reverse, got[1].Strand)

	n, err := s.GuideCount(ctx, "sacCer3", "cas9")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	require.NoError(t, s.ClearGuides("sacCer3", "cas9"))
	n, err = s.GuideCount(ctx, "sacCer3", "cas9")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestImportFingerprints(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	now := time.Now()
	fp := FileFingerprint{Path: "/data/sacCer3.gtf.gz", Size: 1000, ModTime: now}

	ok, err := s.ImportCurrent(ctx, "sacCer3", "gtf", fp)
	require.NoError(t, err)
	assert.False(t, ok, "nothing imported yet")

	require.NoError(t, s.RecordImport(ctx, "sacCer3", "gtf", fp))
	ok, err = s.ImportCurrent(ctx, "sacCer3", "gtf", fp)
	require.NoError(t, err)
	assert.True(t, ok)

	changed := fp
	changed.Size = 9999
	ok, err = s.ImportCurrent(ctx, "sacCer3", "gtf", changed)
	require.NoError(t, err)
	assert.False(t, ok)

	changed = fp
	changed.ModTime = now.Add(time.Hour)
	ok, err = s.ImportCurrent(ctx, "sacCer3", "gtf", changed)
	require.NoError(t, err)
	assert.False(t, ok)

	// Recording again replaces the fingerprint.
	require.NoError(t, s.RecordImport(ctx, "sacCer3", "gtf", changed))
	ok, err = s.ImportCurrent(ctx, "sacCer3", "gtf", changed)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	fp, err := StatFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), fp.Size)
	assert.Equal(t, path, fp.Path)

	_, err = StatFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
