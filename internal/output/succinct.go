package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/inodb/vibe-guidescan/internal/genome"
	"github.com/inodb/vibe-guidescan/internal/guide"
	"github.com/inodb/vibe-guidescan/internal/query"
)

// SuccinctWriter writes one CSV row per guide with per-distance match
// counts, distance 0 included.
type SuccinctWriter struct {
	w         *csv.Writer
	distances int
}

// NewSuccinctWriter creates a writer reporting distances 0 through maxDistance.
func NewSuccinctWriter(w io.Writer, maxDistance int) *SuccinctWriter {
	return &SuccinctWriter{w: csv.NewWriter(w), distances: max(maxDistance, 0) + 1}
}

// WriteHeader writes the column names.
func (sw *SuccinctWriter) WriteHeader() error {
	header := []string{"id", "sequence", "chromosome", "position", "sense"}
	for d := range sw.distances {
		header = append(header, fmt.Sprintf("distance_%d_matches", d))
	}
	header = append(header, "specificity")
	return sw.w.Write(header)
}

// Write writes one result. The sequence is reported on the forward
// genomic strand regardless of the guide's direction.
func (sw *SuccinctWriter) Write(r *query.Result) error {
	seq := r.Sequence
	if r.Direction == genome.Reverse.String() {
		seq = guide.RevComp(seq)
	}

	row := []string{r.ID, seq, r.Accession, strconv.FormatInt(r.Start, 10), r.Direction}
	for d := range sw.distances {
		n := 0
		if d < len(r.Matches) {
			n = r.Matches[d]
		}
		row = append(row, strconv.Itoa(n))
	}
	specificity := ""
	if r.Specificity != nil {
		specificity = strconv.FormatFloat(*r.Specificity, 'f', -1, 64)
	}
	row = append(row, specificity)
	return sw.w.Write(row)
}

// Flush flushes buffered rows and reports any write error.
func (sw *SuccinctWriter) Flush() error {
	sw.w.Flush()
	return sw.w.Error()
}
