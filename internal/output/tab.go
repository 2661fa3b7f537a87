// Package output provides query result formatters.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-guidescan/internal/query"
)

// TabWriter writes guide results in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Region",
			"ID",
			"Coordinate",
			"Sequence",
			"Direction",
			"Specificity",
			"Cutting_efficiency",
			"GC_content",
			"N_off_targets",
			"Off_target_summary",
			"Annotations",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single result for the named region.
func (tw *TabWriter) Write(regionName string, r *query.Result) error {
	annotations := r.Annotations
	if annotations == "" {
		annotations = "-"
	}

	values := []string{
		regionName,
		r.ID,
		r.Coordinate,
		r.Sequence,
		r.Direction,
		formatScore(r.Specificity),
		formatScore(r.CuttingEfficiency),
		strconv.FormatFloat(r.GCContent, 'f', 4, 64),
		strconv.Itoa(r.NOffTargets),
		r.OffTargetSummary,
		annotations,
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteResponse writes the header and every hit of a batch response in
// region input order.
func (tw *TabWriter) WriteResponse(resp *query.Response) error {
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, name := range resp.Order {
		for _, r := range resp.Queries[name].Hits {
			if err := tw.Write(name, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// formatScore renders an optional score, "-" when absent.
func formatScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
