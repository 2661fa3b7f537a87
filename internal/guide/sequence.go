package guide

import (
	"fmt"
	"strings"
)

var iupacMask [256]byte // bit0=A bit1=C bit2=G bit3=T

var complement [256]byte

func init() {
	set := func(c byte, bits byte) {
		iupacMask[c] = bits
		iupacMask[c+'a'-'A'] = bits
	}
	set('A', 1)
	set('C', 2)
	set('G', 4)
	set('T', 8)
	set('U', 8)
	set('R', 1|4)     // A/G
	set('Y', 2|8)     // C/T
	set('S', 2|4)     // C/G
	set('W', 1|8)     // A/T
	set('K', 4|8)     // G/T
	set('M', 1|2)     // A/C
	set('B', 2|4|8)   // C/G/T
	set('D', 1|4|8)   // A/G/T
	set('H', 1|2|8)   // A/C/T
	set('V', 1|2|4)   // A/C/G
	set('N', 1|2|4|8) // any

	pairs := []string{"AT", "CG", "GC", "TA", "RY", "YR", "SS", "WW", "KM", "MK", "BV", "VB", "DH", "HD", "NN"}
	for _, p := range pairs {
		complement[p[0]] = p[1]
		complement[p[0]+'a'-'A'] = p[1] + 'a' - 'A'
	}
}

// RevComp returns the reverse complement of seq. Unknown bases become N.
func RevComp(seq string) string {
	n := len(seq)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		c := complement[seq[n-1-i]]
		if c == 0 {
			c = 'N'
		}
		out[i] = c
	}
	return string(out)
}

// GCContent returns the fraction of G/C bases in seq, or 0 for an empty sequence.
func GCContent(seq string) float64 {
	if len(seq) == 0 {
		return 0
	}
	gc := 0
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'G', 'C', 'g', 'c':
			gc++
		}
	}
	return float64(gc) / float64(len(seq))
}

// Pattern is a compiled IUPAC pattern matched on both strands.
type Pattern struct {
	forward []byte
	reverse []byte
}

// CompilePattern validates an IUPAC pattern such as "NGG" or "TTTV".
func CompilePattern(p string) (*Pattern, error) {
	if p == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	p = strings.ToUpper(p)
	for i := 0; i < len(p); i++ {
		if iupacMask[p[i]] == 0 {
			return nil, fmt.Errorf("invalid IUPAC code %q in pattern %q", p[i], p)
		}
	}
	return &Pattern{forward: []byte(p), reverse: []byte(RevComp(p))}, nil
}

// String returns the pattern as given (upper-cased).
func (p *Pattern) String() string {
	return string(p.forward)
}

// Matches reports whether seq contains any expansion of the pattern or of its
// reverse complement. Ambiguous bases in seq never match.
func (p *Pattern) Matches(seq string) bool {
	return contains(seq, p.forward) || contains(seq, p.reverse)
}

func contains(seq string, pat []byte) bool {
	n, m := len(seq), len(pat)
	for i := 0; i+m <= n; i++ {
		ok := true
		for j := 0; j < m; j++ {
			if !baseMatch(seq[i+j], pat[j]) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// baseMatch returns true if pattern base p admits sequence base g.
func baseMatch(g, p byte) bool {
	switch g {
	case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
		return iupacMask[p]&iupacMask[g] != 0
	}
	return false
}
