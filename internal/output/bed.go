package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/inodb/vibe-guidescan/internal/query"
)

// BEDWriter writes guides as a BED6 track: 0-based start, the queried
// region as the feature name, and a zero score.
type BEDWriter struct {
	w *bufio.Writer
}

// NewBEDWriter creates a new BED writer.
func NewBEDWriter(w io.Writer) *BEDWriter {
	return &BEDWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the track line.
func (bw *BEDWriter) WriteHeader() error {
	_, err := bw.w.WriteString("track name=\"guideRNAs\"\n")
	return err
}

// Write writes a single result.
func (bw *BEDWriter) Write(r *query.Result) error {
	_, err := fmt.Fprintf(bw.w, "%s\t%d\t%d\t%s\t0\t%s\n",
		r.Chromosome, r.Start-1, r.End, r.RegionString, r.Direction)
	return err
}

// WriteResponse writes the track line and every hit in region input order.
func (bw *BEDWriter) WriteResponse(resp *query.Response) error {
	if err := bw.WriteHeader(); err != nil {
		return err
	}
	for _, name := range resp.Order {
		for _, r := range resp.Queries[name].Hits {
			if err := bw.Write(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (bw *BEDWriter) Flush() error {
	return bw.w.Flush()
}
