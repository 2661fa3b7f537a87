package guide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevComp(t *testing.T) {
	assert.Equal(t, "CCN", RevComp("NGG"))
	assert.Equal(t, "ACGT", RevComp("ACGT"))
	assert.Equal(t, "BAAA", RevComp("TTTV"))
	assert.Equal(t, "acgN", RevComp("Xcgt"))
	assert.Equal(t, "", RevComp(""))
}

func TestGCContent(t *testing.T) {
	assert.InDelta(t, 0.5, GCContent("ACGT"), 1e-9)
	assert.InDelta(t, 1.0, GCContent("gcGC"), 1e-9)
	assert.Equal(t, 0.0, GCContent(""))
}

func TestPattern_NGG(t *testing.T) {
	p, err := CompilePattern("ngg")
	require.NoError(t, err)
	assert.Equal(t, "NGG", p.String())

	tests := []struct {
		name string
		seq  string
		want bool
	}{
		{"forward hit", "TTTTAGGT", true},
		{"reverse complement hit", "CCTAAAAA", true},
		{"CCA is revcomp of TGG", "TTCCATTT", true},
		{"no hit", "ATATATAT", false},
		{"ambiguous base in sequence", "TTTNGNG", false},
		{"too short", "GG", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Matches(tt.seq))
		})
	}
}

func TestPattern_V(t *testing.T) {
	p, err := CompilePattern("TTTV")
	require.NoError(t, err)

	assert.True(t, p.Matches("TTTA"))
	assert.False(t, p.Matches("TTTT"))
	assert.True(t, p.Matches("CCAAAACC"), "reverse complement BAAA")
	assert.False(t, p.Matches("AAAAAAAA"))
}

func TestCompilePattern_Invalid(t *testing.T) {
	_, err := CompilePattern("")
	assert.Error(t, err)
	_, err = CompilePattern("NGZ")
	assert.Error(t, err)
}

func TestEnzyme_Protospacer(t *testing.T) {
	cas9 := Enzyme{PAM: "NGG", PAMPosition: PAM3Prime, GuideLength: 23}
	assert.Equal(t, "ACGTACGTAC", cas9.Protospacer("ACGTACGTACAGG"))
	assert.Equal(t, int64(22), cas9.Span())

	cas12a := Enzyme{PAM: "TTTV", PAMPosition: PAM5Prime}
	assert.Equal(t, "ACGT", cas12a.Protospacer("TTTAACGT"))
	assert.Equal(t, "", cas12a.Protospacer("TTT"))
}
