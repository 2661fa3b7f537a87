package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/inodb/vibe-guidescan/internal/query"
)

var csvHeader = []string{
	"Region-name",
	"gRNA-ID",
	"gRNA-Seq",
	"Number of off-targets",
	"Off-target summary",
	"Cutting efficiency",
	"Specificity",
	"Rank",
	"Coordinates",
	"Strand",
	"Annotations",
}

// CSVWriter writes ranked guides, one row per hit. Ranks restart at 1 for
// each region, and each guide is named after its region and rank.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter creates a new ranked CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// WriteHeader writes the column names.
func (cw *CSVWriter) WriteHeader() error {
	return cw.w.Write(csvHeader)
}

// Write writes the result ranked rank within its region.
func (cw *CSVWriter) Write(r *query.Result, rank int) error {
	return cw.w.Write([]string{
		r.RegionString,
		r.RegionString + "." + strconv.Itoa(rank),
		r.Sequence,
		strconv.Itoa(r.NOffTargets),
		r.OffTargetSummary,
		csvScore(r.CuttingEfficiency),
		csvScore(r.Specificity),
		strconv.Itoa(rank),
		r.Coordinate,
		r.Direction,
		r.Annotations,
	})
}

// WriteResponse writes the header and every hit in region input order.
func (cw *CSVWriter) WriteResponse(resp *query.Response) error {
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	for _, name := range resp.Order {
		for i, r := range resp.Queries[name].Hits {
			if err := cw.Write(r, i+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes buffered rows and reports any write error.
func (cw *CSVWriter) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}

func csvScore(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
