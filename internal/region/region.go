// Package region parses region lists (freeform text, BED, GTF/GFF) into
// named 1-based inclusive genomic intervals.
package region

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/brentp/xopen"
)

// Region is a named genomic interval with 1-based inclusive bounds.
type Region struct {
	Name  string
	Chrom string // Display name (e.g. chrI) or accession
	Start int64
	End   int64
}

// String formats the region as chrom:start-end.
func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End)
}

// Lookup resolves gene symbols and Entrez IDs to regions.
type Lookup interface {
	// Resolve returns the region for token; ok is false if nothing matches.
	Resolve(ctx context.Context, organism, token string) (r Region, ok bool, err error)
}

var (
	textRe = regexp.MustCompile(`^(\S+):(\d+)-(\d+)`)
	bedRe  = regexp.MustCompile(`^(\S+)\s+(\d+)\s+(\d+)\s*(\S*)`)
	gtfRe  = regexp.MustCompile(`^(\S+)\t(\S+)\t(\S+)\t(\d+)\t(\d+)`)
)

type lineParser func(ctx context.Context, line string) (Region, bool, error)

// Parse treats textOrPath as a file path if it exists, otherwise as freeform text.
func Parse(ctx context.Context, textOrPath, organism string, lookup Lookup) ([]Region, error) {
	if _, err := os.Stat(textOrPath); err == nil {
		return ParseFile(ctx, textOrPath, organism, lookup)
	}
	return ParseText(ctx, textOrPath, organism, lookup)
}

// ParseText parses freeform lines: chr:start-end literals, Entrez IDs or gene symbols.
// Lines that do not resolve are dropped.
func ParseText(ctx context.Context, text, organism string, lookup Lookup) ([]Region, error) {
	return parseLines(ctx, strings.NewReader(text), textParser(organism, lookup))
}

// ParseFile parses a region file selected by extension: .txt, .bed, .gtf or
// .gff, each optionally gzipped.
func ParseFile(ctx context.Context, path, organism string, lookup Lookup) ([]Region, error) {
	var parse lineParser
	switch ext := filepath.Ext(strings.TrimSuffix(path, ".gz")); ext {
	case ".txt":
		parse = textParser(organism, lookup)
	case ".bed":
		parse = parseBEDLine
	case ".gtf", ".gff":
		parse = parseGTFLine
	default:
		return nil, fmt.Errorf("unrecognized region file extension %q", ext)
	}

	r, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("open region file: %w", err)
	}
	defer r.Close()

	regions, err := parseLines(ctx, r, parse)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return regions, nil
}

func parseLines(ctx context.Context, reader io.Reader, parse lineParser) ([]Region, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var regions []Region
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r, ok, err := parse(ctx, line)
		if err != nil {
			return nil, err
		}
		if ok {
			regions = append(regions, r)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan regions: %w", err)
	}
	return regions, nil
}

func textParser(organism string, lookup Lookup) lineParser {
	return func(ctx context.Context, line string) (Region, bool, error) {
		line = strings.ReplaceAll(line, ",", "")
		if m := textRe.FindStringSubmatch(line); m != nil {
			start, end, ok := parseBounds(m[2], m[3])
			if !ok {
				return Region{}, false, nil
			}
			return Region{Name: line, Chrom: m[1], Start: start, End: end}, true, nil
		}
		if lookup == nil {
			return Region{}, false, nil
		}
		r, ok, err := lookup.Resolve(ctx, organism, line)
		if err != nil {
			return Region{}, false, fmt.Errorf("resolve %q: %w", line, err)
		}
		return r, ok, nil
	}
}

// parseBEDLine reads a 0-based half-open BED line with an optional name column.
func parseBEDLine(_ context.Context, line string) (Region, bool, error) {
	m := bedRe.FindStringSubmatch(line)
	if m == nil {
		return Region{}, false, nil
	}
	start, end, ok := parseBounds(m[2], m[3])
	if !ok {
		return Region{}, false, nil
	}
	r := Region{Name: m[4], Chrom: m[1], Start: start + 1, End: end}
	if r.Name == "" {
		r.Name = r.String()
	}
	return r, true, nil
}

// parseGTFLine reads the 1-based inclusive bounds of a GTF/GFF feature line.
func parseGTFLine(_ context.Context, line string) (Region, bool, error) {
	m := gtfRe.FindStringSubmatch(line)
	if m == nil {
		return Region{}, false, nil
	}
	start, end, ok := parseBounds(m[4], m[5])
	if !ok {
		return Region{}, false, nil
	}
	r := Region{Chrom: m[1], Start: start, End: end}
	r.Name = r.String()
	return r, true, nil
}

func parseBounds(s, e string) (int64, int64, bool) {
	start, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	end, err := strconv.ParseInt(e, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

// Flank replaces each region by its left and right flanks of the given width,
// clipped to [1, chromosome length]. lengthOf reports chromosome lengths; an
// unknown chromosome leaves the right flank unclipped. A non-positive
// flanking returns regions unchanged.
func Flank(regions []Region, flanking int64, lengthOf func(chrom string) (int64, bool)) []Region {
	if flanking <= 0 {
		return regions
	}
	out := make([]Region, 0, 2*len(regions))
	for _, r := range regions {
		rightEnd := r.End + flanking
		if n, ok := lengthOf(r.Chrom); ok {
			rightEnd = min(n, rightEnd)
		}
		out = append(out,
			Region{Name: r.Name + ":left-flank", Chrom: r.Chrom, Start: max(1, r.Start-flanking), End: r.Start},
			Region{Name: r.Name + ":right-flank", Chrom: r.Chrom, Start: r.End, End: rightEnd},
		)
	}
	return out
}
