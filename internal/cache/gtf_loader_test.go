package cache

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGTF = `#gtf-version 2.2
#!genome-build R64
NC_001133.9	RefSeq	gene	37464	38972	.	+	.	gene_id "CNE1"; transcript_id ""; db_xref "GeneID:851203"; gbkey "Gene"; gene "CNE1"; gene_synonym "FUN48"; gene_biotype "protein_coding";
NC_001133.9	RefSeq	exon	37464	38972	.	+	.	gene_id "CNE1"; transcript_id "NM_001178153.1"; db_xref "GeneID:851203"; gene "CNE1"; product "calnexin"; exon_number "1";
NC_001133.9	RefSeq	CDS	37464	38969	.	+	0	gene_id "CNE1"; transcript_id "NM_001178153.1"; db_xref "GeneID:851203"; product "calnexin"; exon_number "1";
NC_001134.8	RefSeq	exon	1000	1100	.	-	.	gene_id "X"; transcript_id "NM_1"; db_xref "GeneID:7"; gene "X"; exon_number "1";
NW_000001.1	RefSeq	gene	1	50	.	+	.	gene_id "SCAF"; db_xref "GeneID:99"; gene "SCAF";
broken line
`

func TestParseAttributes(t *testing.T) {
	attrs := parseAttributes(`gene_id "CNE1"; db_xref "GeneID:851203"; db_xref "SGD:S000000091"; product "calnexin precursor";`)

	assert.Equal(t, []string{"CNE1"}, attrs["gene_id"])
	assert.Equal(t, []string{"GeneID:851203", "SGD:S000000091"}, attrs["db_xref"])
	assert.Equal(t, []string{"calnexin precursor"}, attrs["product"])
}

func TestGTFLoader_ParseGTF(t *testing.T) {
	loader := NewGTFLoader("", []string{"NC_001133.9", "NC_001134.8"})
	ann, err := loader.parseGTF(strings.NewReader(testGTF))
	require.NoError(t, err)

	require.Len(t, ann.Genes, 2)
	assert.Equal(t, "CNE1", ann.Genes[0].Symbol)
	assert.Equal(t, "FUN48", ann.Genes[1].Symbol)
	for _, g := range ann.Genes {
		assert.Equal(t, int64(851203), g.EntrezID)
		assert.Equal(t, "NC_001133.9", g.Chrom)
		assert.Equal(t, int64(37464), g.Start)
		assert.Equal(t, int64(38972), g.End)
		assert.True(t, g.Forward)
	}

	// Exon without product is skipped; scaffold features are filtered out.
	require.Len(t, ann.Exons, 1)
	e := ann.Exons[0]
	assert.Equal(t, int64(37463), e.Start)
	assert.Equal(t, int64(38972), e.End)
	assert.Equal(t, 1, e.Number)
	assert.Equal(t, "calnexin", e.Product)
}

func TestGTFLoader_NoAccessionFilter(t *testing.T) {
	ann, err := NewGTFLoader("", nil).parseGTF(strings.NewReader(testGTF))
	require.NoError(t, err)
	assert.Len(t, ann.Genes, 3)
}

func TestGTFLoader_ExonWithoutNumber(t *testing.T) {
	gtf := "NC_1\tRefSeq\texon\t1\t10\t.\t+\t.\tdb_xref \"GeneID:1\"; product \"p\";\n"
	_, err := NewGTFLoader("", nil).parseGTF(strings.NewReader(gtf))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestGTFLoader_LoadGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.gtf.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(testGTF))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	ann, err := NewGTFLoader(path, []string{"NC_001133.9"}).Load()
	require.NoError(t, err)
	assert.Len(t, ann.Genes, 2)
	assert.Len(t, ann.Exons, 1)
}

func TestParseLine_Invalid(t *testing.T) {
	_, err := parseLine("chr1\tsrc\tgene")
	assert.Error(t, err)
	_, err = parseLine("chr1\tsrc\tgene\tx\t10\t.\t+\t.")
	assert.Error(t, err)
}
