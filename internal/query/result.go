package query

import (
	"errors"
	"fmt"

	"github.com/inodb/vibe-guidescan/internal/cache"
)

// ErrMalformedEncoding is matched by every *DecodeError.
var ErrMalformedEncoding = errors.New("malformed off-target encoding")

// ErrUnknownEnzyme reports an enzyme with no configured definition.
var ErrUnknownEnzyme = errors.New("unknown enzyme")

// DecodeError reports a guide whose off-target list could not be decoded or
// mapped onto the genome layout. It fails the whole query.
type DecodeError struct {
	Guide     string
	Accession string
	Start     int64
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("guide %q at %s:%d: %v", e.Guide, e.Accession, e.Start+1, e.Err)
}

// Unwrap exposes both ErrMalformedEncoding and the underlying cause.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrMalformedEncoding, e.Err}
}

// Ordering selects the result sort order.
type Ordering int

const (
	// OrderDefault sorts by specificity (desc, absent last), then off-target count (asc).
	OrderDefault Ordering = iota
	// OrderLegacy sorts by off-target count (asc), then fetch order.
	OrderLegacy
	// OrderFetch keeps the store's fetch order.
	OrderFetch
)

// ParseOrdering parses "default", "legacy" or "fetch".
func ParseOrdering(s string) (Ordering, error) {
	switch s {
	case "", "default":
		return OrderDefault, nil
	case "legacy":
		return OrderLegacy, nil
	case "fetch":
		return OrderFetch, nil
	}
	return OrderDefault, fmt.Errorf("unknown ordering %q", s)
}

// Options are the caller-supplied filters and ordering of a query.
// Nil bounds are inactive.
type Options struct {
	MinSpecificity       *float64
	MinCuttingEfficiency *float64
	MinGC                *float64
	MaxGC                *float64
	FilterAnnotated      bool
	PatternAvoid         string
	Ordering             Ordering
	Offset               int // ranked results skipped before TopN applies
	TopN                 int // 0 keeps every result
	Annotation           cache.AnnotationMode
}

// OffTarget is one decoded off-target site.
type OffTarget struct {
	Position     int64  `json:"position"`
	Chromosome   string `json:"chromosome"` // display name without the "chr" prefix
	Accession    string `json:"accession"`
	Direction    string `json:"direction"`
	Distance     int64  `json:"distance"`
	RegionString string `json:"region-string"`
}

// Result is one ranked guide.
type Result struct {
	ID                string      `json:"id"`
	Coordinate        string      `json:"coordinate"`
	Sequence          string      `json:"sequence"`
	Chromosome        string      `json:"chromosome"`
	Accession         string      `json:"accession"`
	Start             int64       `json:"start"` // 1-based inclusive
	End               int64       `json:"end"`   // 1-based inclusive
	Direction         string      `json:"direction"`
	CuttingEfficiency *float64    `json:"cutting-efficiency"`
	Specificity       *float64    `json:"specificity"`
	GCContent         float64     `json:"gc-content"`
	OffTargets        []OffTarget `json:"off-targets"`
	NOffTargets       int         `json:"n-off-targets"`
	OffTargetSummary  string      `json:"off-target-summary"`
	Annotations       string      `json:"annotations"`
	RegionString      string      `json:"region-string"`

	// Matches counts named-chromosome hits by distance, 0 through the
	// configured maximum, distance 0 included.
	Matches []int `json:"-"`
}
