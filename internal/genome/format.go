package genome

import "fmt"

// FormatCoordinate renders a 0-indexed half-open [start, end) interval as
// "{chrom}:{start+1+offset}-{end+offset}:{strand}". offset is the legacy
// per-(organism, enzyme) position correction.
func FormatCoordinate(chrom string, start, end int64, strand Strand, offset int64) string {
	return fmt.Sprintf("%s:%d-%d:%s", chrom, start+1+offset, end+offset, strand)
}

// FormatRegion renders a 1-indexed inclusive region as "{chrom}:{start}-{end}".
func FormatRegion(chrom string, start, end int64) string {
	return fmt.Sprintf("%s:%d-%d", chrom, start, end)
}

// OffTargetRegion renders the 1-indexed span of an off-target match.
// On the forward strand pos is the 0-indexed inclusive end of the match; on
// the reverse strand it is the 0-indexed start. span is the guide length
// including the PAM, minus one.
func OffTargetRegion(chrom string, pos int64, strand Strand, span int64) string {
	if strand == Forward {
		end := pos + 1
		return FormatRegion(chrom, end-span, end)
	}
	start := pos + 1
	return FormatRegion(chrom, start, start+span)
}
