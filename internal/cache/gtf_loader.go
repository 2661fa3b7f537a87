package cache

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/brentp/xopen"
	"go.uber.org/zap"
)

// GTFLoader loads gene and exon annotations from NCBI RefSeq GTF files.
type GTFLoader struct {
	path       string
	accessions map[string]bool
	logger     *zap.Logger
}

// Annotations holds the genes and exons read from a GTF file.
type Annotations struct {
	Genes []*Gene
	Exons []*Exon
}

// NewGTFLoader creates a loader that keeps only features on the given
// chromosome accessions. An empty list keeps every feature.
func NewGTFLoader(path string, accessions []string) *GTFLoader {
	l := &GTFLoader{path: path, logger: zap.NewNop()}
	if len(accessions) > 0 {
		l.accessions = make(map[string]bool, len(accessions))
		for _, a := range accessions {
			l.accessions[a] = true
		}
	}
	return l
}

// SetLogger sets the logger for progress reporting.
func (l *GTFLoader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Load parses the GTF file (plain or gzipped).
func (l *GTFLoader) Load() (*Annotations, error) {
	r, err := xopen.Ropen(l.path)
	if err != nil {
		return nil, fmt.Errorf("open GTF file: %w", err)
	}
	defer r.Close()

	return l.parseGTF(r)
}

// gtfFeature represents a parsed GTF line.
type gtfFeature struct {
	chrom       string
	featureType string
	start       int64
	end         int64
	forward     bool
	attributes  map[string][]string
}

// first returns the first value of an attribute, or "".
func (f *gtfFeature) first(key string) string {
	if vs := f.attributes[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// entrezIDs returns the NCBI Gene IDs from db_xref attributes.
func (f *gtfFeature) entrezIDs() []int64 {
	var ids []int64
	for _, x := range f.attributes["db_xref"] {
		rest, ok := strings.CutPrefix(x, "GeneID:")
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (l *GTFLoader) parseGTF(reader io.Reader) (*Annotations, error) {
	scanner := bufio.NewScanner(reader)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	ann := &Annotations{}
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		feat, err := parseLine(line)
		if err != nil {
			continue // Skip malformed lines
		}
		if l.accessions != nil && !l.accessions[feat.chrom] {
			continue
		}

		switch feat.featureType {
		case "gene":
			ann.Genes = append(ann.Genes, geneRows(feat)...)
		case "exon":
			exons, err := exonRows(feat)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			ann.Exons = append(ann.Exons, exons...)
		}

		if lineNum%100_000 == 0 {
			l.logger.Info("parsing annotations",
				zap.Int("line", lineNum),
				zap.Int("genes", len(ann.Genes)),
				zap.Int("exons", len(ann.Exons)))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan GTF: %w", err)
	}
	return ann, nil
}

// geneRows emits one gene per (GeneID, symbol) pair; synonyms resolve to
// the same locus as the primary symbol.
func geneRows(feat *gtfFeature) []*Gene {
	symbol := feat.first("gene")
	if symbol == "" {
		return nil
	}
	symbols := append([]string{symbol}, feat.attributes["gene_synonym"]...)

	var genes []*Gene
	for _, id := range feat.entrezIDs() {
		for _, s := range symbols {
			genes = append(genes, &Gene{
				EntrezID: id,
				Symbol:   s,
				Chrom:    feat.chrom,
				Start:    feat.start,
				End:      feat.end,
				Forward:  feat.forward,
			})
		}
	}
	return genes
}

// exonRows converts a 1-based inclusive exon line to 0-based half-open exons.
// Exons without a product are not annotatable and are skipped.
func exonRows(feat *gtfFeature) ([]*Exon, error) {
	product := feat.first("product")
	if product == "" {
		return nil, nil
	}
	num, err := strconv.Atoi(feat.first("exon_number"))
	if err != nil {
		return nil, fmt.Errorf("exon without valid exon_number: %w", err)
	}

	var exons []*Exon
	for _, id := range feat.entrezIDs() {
		exons = append(exons, &Exon{
			EntrezID: id,
			Chrom:    feat.chrom,
			Start:    feat.start - 1,
			End:      feat.end,
			Number:   num,
			Product:  product,
			Forward:  feat.forward,
		})
	}
	return exons, nil
}

// parseLine parses a single GTF line.
func parseLine(line string) (*gtfFeature, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, fmt.Errorf("invalid GTF line: expected at least 8 fields, got %d", len(fields))
	}

	start, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}
	end, err := strconv.ParseInt(strings.TrimSpace(fields[4]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}

	feat := &gtfFeature{
		chrom:       strings.TrimSpace(fields[0]),
		featureType: strings.TrimSpace(fields[2]),
		start:       start,
		end:         end,
		forward:     strings.TrimSpace(fields[6]) == "+",
	}
	if len(fields) > 8 {
		feat.attributes = parseAttributes(fields[8])
	}
	return feat, nil
}

// parseAttributes parses the GTF attribute column.
// Format: key "value"; key "value"; ... Repeated keys keep every value in order.
func parseAttributes(attrStr string) map[string][]string {
	attrs := make(map[string][]string)

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, ok := strings.Cut(part, " ")
		if !ok {
			continue
		}
		value = strings.ReplaceAll(strings.TrimSpace(value), "\"", "")
		attrs[key] = append(attrs[key], value)
	}

	return attrs
}
