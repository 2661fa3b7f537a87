package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChromosomeNames_Chr2Acc(t *testing.T) {
	input := "#Chromosome\tAccession.version\nI\tNC_001133.9\nII\tNC_001134.8\n\nMT\tNC_001224.1\n"
	names, err := ParseChromosomeNames(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, names, 3)
	assert.Equal(t, ChromosomeName{Accession: "NC_001133.9", Name: "I"}, names[0])
	assert.Equal(t, "chrMT", names[2].Display())
}

func TestParseChromosomeNames_ChromAlias(t *testing.T) {
	input := "# ucsc\tassembly\tgenbank\trefseq\nchrI\tI\tBK006935.2\tNC_001133.9\nchrUn\tUn\tX\t\n"
	names, err := ParseChromosomeNames(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, names, 1, "rows without an accession are skipped")
	assert.Equal(t, "I", names[0].Name)
	assert.Equal(t, "NC_001133.9", names[0].Accession)
}

func TestParseChromosomeNames_Errors(t *testing.T) {
	_, err := ParseChromosomeNames(strings.NewReader("#foo\tbar\nI\tNC_1\n"))
	assert.Error(t, err)

	_, err = ParseChromosomeNames(strings.NewReader("I\tNC_1\n"))
	assert.Error(t, err)
}

func TestChromosomeNames_Registry(t *testing.T) {
	reg := RegistryFrom([]ChromosomeName{
		{Accession: "NC_001133.9", Name: "I"},
		{Accession: "NC_001134.8", Name: "II"},
	})
	assert.Equal(t, 2, reg.Len())

	d, ok := reg.Display("NC_001133.9")
	assert.True(t, ok)
	assert.Equal(t, "chrI", d)

	a, ok := reg.Accession("chrII")
	assert.True(t, ok)
	assert.Equal(t, "NC_001134.8", a)

	_, ok = reg.Display("NW_000001.1")
	assert.False(t, ok)
}
