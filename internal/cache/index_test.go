package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex() *AnnotationIndex {
	return NewAnnotationIndex([]*Exon{
		{Chrom: "NC_1", Start: 100, End: 200, Number: 2, Product: "alpha, transcript variant X1"},
		{Chrom: "NC_1", Start: 100, End: 200, Number: 1, Product: "alpha"},
		{Chrom: "NC_1", Start: 500, End: 600, Number: 3, Product: "beta"},
		{Chrom: "NC_2", Start: 0, End: 50, Number: 1, Product: "gamma"},
	})
}

func TestParseAnnotationMode(t *testing.T) {
	m, err := ParseAnnotationMode("")
	require.NoError(t, err)
	assert.Equal(t, AnnotateCutSite, m)

	m, err = ParseAnnotationMode("span")
	require.NoError(t, err)
	assert.Equal(t, AnnotateSpan, m)

	_, err = ParseAnnotationMode("exon")
	assert.Error(t, err)
}

func TestCutSiteWindow(t *testing.T) {
	s, e := CutSiteWindow(1000, 1023, true)
	assert.Equal(t, int64(1016), s)
	assert.Equal(t, int64(1017), e)

	s, e = CutSiteWindow(1000, 1023, false)
	assert.Equal(t, int64(1006), s)
	assert.Equal(t, int64(1007), e)
}

func TestAnnotate_CutSite(t *testing.T) {
	idx := testIndex()

	// Forward guide [190, 207): cut window [200, 201) misses the exon ending at 200.
	assert.Empty(t, idx.Annotate("NC_1", 190, 207, true, AnnotateCutSite))

	// Forward guide [183, 206): cut window [199, 200) hits both isoforms.
	labels := idx.Annotate("NC_1", 183, 206, true, AnnotateCutSite)
	assert.Equal(t, []string{"Exon 1 of alpha", "Exon 2 of alpha, transcript variant X1"}, labels)

	// Reverse guide starting at 494: window [500, 501).
	assert.Equal(t, []string{"Exon 3 of beta"}, idx.Annotate("NC_1", 494, 517, false, AnnotateCutSite))
	assert.Empty(t, idx.Annotate("NC_1", 493, 516, false, AnnotateCutSite))
}

func TestAnnotate_Span(t *testing.T) {
	idx := testIndex()

	// Span window starts one base before the guide.
	assert.Equal(t, []string{"Exon 3 of beta"}, idx.Annotate("NC_1", 600, 620, true, AnnotateSpan))
	assert.Empty(t, idx.Annotate("NC_1", 601, 620, true, AnnotateSpan))
}

func TestAnnotate_UnknownChromosome(t *testing.T) {
	assert.Empty(t, testIndex().Annotate("NC_9", 0, 100, true, AnnotateSpan))
}

func TestAnnotationIndex_Stats(t *testing.T) {
	idx := testIndex()
	assert.Equal(t, 4, idx.ExonCount())
	assert.Equal(t, []string{"NC_1", "NC_2"}, idx.Chromosomes())
}
