package bam

import (
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/bam"
)

// BuildIndex writes path.bai for a coordinate-sorted BAM file and returns
// the index path.
func BuildIndex(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open BAM: %w", err)
	}
	defer f.Close()

	br, err := bam.NewReader(f, 1)
	if err != nil {
		return "", fmt.Errorf("read BAM header: %w", err)
	}
	defer br.Close()

	var idx bam.Index
	for {
		rec, err := br.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read BAM: %w", err)
		}
		if err := idx.Add(rec, br.LastChunk()); err != nil {
			return "", fmt.Errorf("index record %s: %w", rec.Name, err)
		}
	}

	out := path + ".bai"
	w, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("create index: %w", err)
	}
	if err := bam.WriteIndex(w, &idx); err != nil {
		w.Close()
		return "", fmt.Errorf("write index: %w", err)
	}
	return out, w.Close()
}
