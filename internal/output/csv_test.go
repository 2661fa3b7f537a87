package output

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-guidescan/internal/query"
)

func TestCSVWriter_WriteResponse(t *testing.T) {
	resp := testResponse()
	resp.Queries["chrII:1-50"] = &query.RegionHits{Region: "chrII:1-50", Hits: []*query.Result{{
		ID:           "g3",
		Coordinate:   "chrII:5-27:+",
		Sequence:     "TTTTAGG",
		Direction:    "+",
		RegionString: "chrII:1-50",
	}}}
	resp.Order = append(resp.Order, "chrII:1-50")

	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.WriteResponse(resp))
	require.NoError(t, w.Flush())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{
		"Region-name", "gRNA-ID", "gRNA-Seq", "Number of off-targets", "Off-target summary",
		"Cutting efficiency", "Specificity", "Rank", "Coordinates", "Strand", "Annotations",
	}, rows[0])
	assert.Equal(t, []string{
		"chrI:1-100", "chrI:1-100.1", "GGGGCCCCAAAATTTTGGGGAGG", "1", "2:1|3:0",
		"0.5", "0.75", "1", "chrI:11-33:+", "+", "Exon 1 of calnexin",
	}, rows[1])
	assert.Equal(t, []string{
		"chrI:1-100", "chrI:1-100.2", "ACGTTT", "0", "2:0|3:0",
		"", "", "2", "chrI:41-63:-", "-", "",
	}, rows[2])
	assert.Equal(t, "chrII:1-50.1", rows[3][1], "rank restarts per region")
	assert.Equal(t, "1", rows[3][7])
}
