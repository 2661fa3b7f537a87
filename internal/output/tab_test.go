package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-guidescan/internal/query"
)

func f64(v float64) *float64 { return &v }

func testResponse() *query.Response {
	fwd := &query.Result{
		ID:                "g1",
		Coordinate:        "chrI:11-33:+",
		Sequence:          "GGGGCCCCAAAATTTTGGGGAGG",
		Chromosome:        "chrI",
		Accession:         "NC_001133.9",
		Start:             11,
		End:               33,
		Direction:         "+",
		Specificity:       f64(0.75),
		CuttingEfficiency: f64(0.5),
		GCContent:         0.6,
		OffTargets: []query.OffTarget{
			{Position: 500, Chromosome: "II", Accession: "NC_001134.8", Direction: "-", Distance: 2, RegionString: "chrII:501-523"},
		},
		NOffTargets:      1,
		OffTargetSummary: "2:1|3:0",
		Annotations:      "Exon 1 of calnexin",
		RegionString:     "chrI:1-100",
		Matches:          []int{1, 0, 1, 0},
	}
	rev := &query.Result{
		ID:               "g2",
		Coordinate:       "chrI:41-63:-",
		Sequence:         "ACGTTT",
		Chromosome:       "chrI",
		Accession:        "NC_001133.9",
		Start:            41,
		End:              63,
		Direction:        "-",
		OffTargetSummary: "2:0|3:0",
		RegionString:     "chrI:1-100",
		Matches:          []int{1},
	}
	return &query.Response{
		ID:       "3f1c2d4e-0000-4000-8000-000000000000",
		Organism: "sacCer3",
		Enzyme:   "cas9",
		Queries: map[string]*query.RegionHits{
			"chrI:1-100": {Region: "chrI:1-100", Hits: []*query.Result{fwd, rev}},
		},
		Order: []string{"chrI:1-100"},
	}
}

func TestTabWriter_WriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Flush())

	header := buf.String()
	assert.True(t, strings.HasPrefix(header, "#Region\t"))
	for _, col := range []string{"ID", "Coordinate", "Specificity", "Off_target_summary", "Annotations"} {
		assert.Contains(t, header, col)
	}
}

func TestTabWriter_WriteResponse(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf)

	require.NoError(t, w.WriteResponse(testResponse()))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, []string{
		"chrI:1-100", "g1", "chrI:11-33:+", "GGGGCCCCAAAATTTTGGGGAGG", "+",
		"0.75", "0.5", "0.6000", "1", "2:1|3:0", "Exon 1 of calnexin",
	}, strings.Split(lines[1], "\t"))

	fields := strings.Split(lines[2], "\t")
	assert.Equal(t, "-", fields[5], "absent specificity")
	assert.Equal(t, "-", fields[6], "absent cutting efficiency")
	assert.Equal(t, "-", fields[10], "no annotations")
}
