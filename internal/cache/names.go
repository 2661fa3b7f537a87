package cache

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/brentp/xopen"
)

// ChromosomeName pairs an accession with its short name (without "chr").
type ChromosomeName struct {
	Accession string
	Name      string
}

// Display returns the display name, e.g. "chrI".
func (c ChromosomeName) Display() string {
	return "chr" + c.Name
}

// ChromosomeNames maps accessions to display names and back. Accessions
// absent from the registry are unplaced scaffolds or contigs.
type ChromosomeNames struct {
	toDisplay   map[string]string
	toAccession map[string]string
}

// NewChromosomeNames builds a registry from accession -> display name pairs.
func NewChromosomeNames(accToDisplay map[string]string) *ChromosomeNames {
	n := &ChromosomeNames{
		toDisplay:   make(map[string]string, len(accToDisplay)),
		toAccession: make(map[string]string, len(accToDisplay)),
	}
	for acc, display := range accToDisplay {
		n.toDisplay[acc] = display
		n.toAccession[display] = acc
	}
	return n
}

// Display returns the display name for an accession.
func (n *ChromosomeNames) Display(accession string) (string, bool) {
	d, ok := n.toDisplay[accession]
	return d, ok
}

// Accession returns the accession for a display name.
func (n *ChromosomeNames) Accession(display string) (string, bool) {
	a, ok := n.toAccession[display]
	return a, ok
}

// Len returns the number of named chromosomes.
func (n *ChromosomeNames) Len() int {
	return len(n.toDisplay)
}

// chromosome-name column -> accession column, for chr2acc and chromAlias files.
var nameColumns = []struct{ name, accession string }{
	{"chromosome", "accession.version"},
	{"ucsc", "refseq"},
}

// LoadChromosomeNames reads a chr2acc or chromAlias file (optionally gzipped).
func LoadChromosomeNames(path string) ([]ChromosomeName, error) {
	r, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("open chromosome names file: %w", err)
	}
	defer r.Close()

	names, err := ParseChromosomeNames(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return names, nil
}

// ParseChromosomeNames parses tab-delimited chr2acc/chromAlias content.
// The first '#' line is the header; rows with an empty name or accession are skipped.
func ParseChromosomeNames(reader io.Reader) ([]ChromosomeName, error) {
	scanner := bufio.NewScanner(reader)

	var header []string
	nameCol, accCol := -1, -1
	var names []ChromosomeName

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			if header != nil {
				continue
			}
			for _, h := range strings.Split(strings.TrimLeft(line, "#"), "\t") {
				header = append(header, strings.ToLower(strings.TrimSpace(h)))
			}
			for _, cols := range nameColumns {
				n, a := indexOf(header, cols.name), indexOf(header, cols.accession)
				if n >= 0 && a >= 0 {
					nameCol, accCol = n, a
				}
			}
			if nameCol < 0 {
				return nil, fmt.Errorf("no recognizable header in %q", line)
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if header == nil {
			return nil, fmt.Errorf("no header found")
		}

		fields := strings.Split(line, "\t")
		if nameCol >= len(fields) || accCol >= len(fields) {
			continue
		}
		name := strings.TrimPrefix(strings.TrimSpace(fields[nameCol]), "chr")
		acc := strings.TrimSpace(fields[accCol])
		if name == "" || acc == "" {
			continue
		}
		names = append(names, ChromosomeName{Accession: acc, Name: name})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan chromosome names: %w", err)
	}
	return names, nil
}

// RegistryFrom builds a registry from parsed names.
func RegistryFrom(names []ChromosomeName) *ChromosomeNames {
	m := make(map[string]string, len(names))
	for _, n := range names {
		m[n.Accession] = n.Display()
	}
	return NewChromosomeNames(m)
}

func indexOf(values []string, want string) int {
	for i, v := range values {
		if v == want {
			return i
		}
	}
	return -1
}
