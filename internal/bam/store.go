// Package bam serves guide candidates from Guidescan2-style BAM/SAM guide
// databases, using the .bai index for region fetches when one is present.
package bam

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/bgzf/index"
	"github.com/biogo/hts/sam"
	"go.uber.org/zap"

	"github.com/inodb/vibe-guidescan/internal/genome"
	"github.com/inodb/vibe-guidescan/internal/guide"
	"github.com/inodb/vibe-guidescan/internal/offtarget"
)

// Record tags carrying the packed off-targets and the two scores.
var (
	offTargetTag   = sam.NewTag("of")
	efficiencyTag  = sam.NewTag("ds")
	specificityTag = sam.NewTag("cs")
)

// PathResolver returns the guide database file for an organism/enzyme pair.
type PathResolver func(organism, enzyme string) (string, error)

// Store implements the genome store over BAM/SAM files.
type Store struct {
	resolve PathResolver
	logger  *zap.Logger
}

// NewStore creates a store resolving database paths with resolve.
func NewStore(resolve PathResolver) *Store {
	return &Store{resolve: resolve, logger: zap.NewNop()}
}

// SetLogger sets the logger for store operations.
func (s *Store) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// ChromosomeLengths returns the reference order and lengths from the file header.
func (s *Store) ChromosomeLengths(_ context.Context, organism, enzyme string) ([]genome.Chromosome, error) {
	path, err := s.resolve(organism, enzyme)
	if err != nil {
		return nil, err
	}
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Chromosomes(), nil
}

// FetchCandidates streams records on accession overlapping the 0-based
// half-open interval [start, end). An accession missing from the header
// yields an empty iterator.
func (s *Store) FetchCandidates(ctx context.Context, organism, enzyme, accession string, start, end int64) (guide.Iterator, error) {
	path, err := s.resolve(organism, enzyme)
	if err != nil {
		return nil, err
	}
	f, err := Open(path)
	if err != nil {
		return nil, err
	}

	it, err := f.Fetch(ctx, accession, start, end)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.logger.Debug("fetching guides",
		zap.String("path", path),
		zap.String("accession", accession),
		zap.Int64("start", start),
		zap.Int64("end", end),
		zap.Bool("indexed", f.idx != nil))
	return it, nil
}

// recordReader is satisfied by both *bam.Reader and *sam.Reader.
type recordReader interface {
	Header() *sam.Header
	Read() (*sam.Record, error)
}

// File is an open guide database.
type File struct {
	path   string
	file   *os.File
	reader recordReader
	br     *bam.Reader // nil for SAM
	idx    *bam.Index  // nil when no .bai exists
}

// Open opens a .bam or .sam guide database, loading path.bai if present.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open guide database: %w", err)
	}

	gf := &File{path: path, file: f}
	if strings.HasSuffix(path, ".sam") {
		sr, err := sam.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("read SAM header %s: %w", path, err)
		}
		gf.reader = sr
		return gf, nil
	}

	br, err := bam.NewReader(f, 1)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read BAM header %s: %w", path, err)
	}
	gf.reader, gf.br = br, br

	if idx, err := readIndex(path + ".bai"); err == nil {
		gf.idx = idx
	} else if !errors.Is(err, os.ErrNotExist) {
		gf.Close()
		return nil, err
	}
	return gf, nil
}

func readIndex(path string) (*bam.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	idx, err := bam.ReadIndex(f)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}
	return idx, nil
}

// Close releases the underlying file.
func (f *File) Close() error {
	if f.br != nil {
		f.br.Close()
	}
	return f.file.Close()
}

// Chromosomes returns the header references in file order.
func (f *File) Chromosomes() []genome.Chromosome {
	refs := f.reader.Header().Refs()
	chroms := make([]genome.Chromosome, len(refs))
	for i, r := range refs {
		chroms[i] = genome.Chromosome{Accession: r.Name(), Length: int64(r.Len())}
	}
	return chroms
}

// Fetch returns an iterator over records overlapping [start, end) on
// accession. The iterator owns f and closes it.
func (f *File) Fetch(ctx context.Context, accession string, start, end int64) (guide.Iterator, error) {
	filter := func(rec *sam.Record) bool {
		return rec.Ref != nil && rec.Ref.Name() == accession &&
			int64(rec.Pos) < end && int64(rec.End()) > start
	}

	if f.idx == nil {
		return &scanIterator{ctx: ctx, file: f, keep: filter}, nil
	}

	var ref *sam.Reference
	for _, r := range f.reader.Header().Refs() {
		if r.Name() == accession {
			ref = r
			break
		}
	}
	if ref == nil {
		return &emptyIterator{file: f}, nil
	}

	chunks, err := f.idx.Chunks(ref, int(start), int(end))
	if errors.Is(err, index.ErrNoReference) || errors.Is(err, index.ErrInvalid) {
		return &emptyIterator{file: f}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index chunks %s:%d-%d: %w", accession, start, end, err)
	}

	bi, err := bam.NewIterator(f.br, chunks)
	if err != nil {
		return nil, fmt.Errorf("seek %s:%d-%d: %w", accession, start, end, err)
	}
	return &indexIterator{ctx: ctx, file: f, it: bi, keep: filter}, nil
}

// Scan calls fn for every mapped record in file order.
func (f *File) Scan(ctx context.Context, fn func(*guide.Candidate) error) error {
	it := &scanIterator{ctx: ctx, file: f, keep: func(rec *sam.Record) bool { return rec.Ref != nil }}
	for {
		c, err := it.Next()
		if err != nil {
			return err
		}
		if c == nil {
			return nil
		}
		if err := fn(c); err != nil {
			return err
		}
	}
}

type scanIterator struct {
	ctx  context.Context
	file *File
	keep func(*sam.Record) bool
}

func (it *scanIterator) Next() (*guide.Candidate, error) {
	for {
		if err := it.ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := it.file.reader.Read()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", it.file.path, err)
		}
		if it.keep(rec) {
			return toCandidate(rec)
		}
	}
}

func (it *scanIterator) Close() error { return it.file.Close() }

type indexIterator struct {
	ctx  context.Context
	file *File
	it   *bam.Iterator
	keep func(*sam.Record) bool
}

func (it *indexIterator) Next() (*guide.Candidate, error) {
	for it.it.Next() {
		if err := it.ctx.Err(); err != nil {
			return nil, err
		}
		if rec := it.it.Record(); it.keep(rec) {
			return toCandidate(rec)
		}
	}
	if err := it.it.Error(); err != nil {
		return nil, fmt.Errorf("read %s: %w", it.file.path, err)
	}
	return nil, nil
}

func (it *indexIterator) Close() error {
	it.it.Close()
	return it.file.Close()
}

type emptyIterator struct {
	file *File
}

func (it *emptyIterator) Next() (*guide.Candidate, error) { return nil, nil }
func (it *emptyIterator) Close() error                    { return it.file.Close() }

// toCandidate converts an alignment record to a candidate. Records store the
// forward genomic sequence; reverse-strand guides are reverse-complemented
// into guide orientation.
func toCandidate(rec *sam.Record) (*guide.Candidate, error) {
	c := &guide.Candidate{
		Name:      rec.Name,
		Accession: rec.Ref.Name(),
		Start:     int64(rec.Pos),
		End:       int64(rec.End()),
		Strand:    genome.Forward,
		Sequence:  string(rec.Seq.Expand()),
	}
	if rec.Flags&sam.Reverse != 0 {
		c.Strand = genome.Reverse
		c.Sequence = guide.RevComp(c.Sequence)
	}

	c.CuttingEfficiency = floatTag(rec, efficiencyTag)
	c.Specificity = floatTag(rec, specificityTag)

	blob, err := offTargetBlob(rec)
	if err != nil {
		return nil, &guide.RecordError{Name: rec.Name, Accession: c.Accession, Start: c.Start, Err: err}
	}
	c.OffTargets = blob
	return c, nil
}

// floatTag returns a numeric tag value, or nil if the tag is absent.
func floatTag(rec *sam.Record, tag sam.Tag) *float64 {
	aux := rec.AuxFields.Get(tag)
	if aux == nil {
		return nil
	}
	var v float64
	switch x := aux.Value().(type) {
	case float32:
		v = float64(x)
	case float64:
		v = x
	case int8:
		v = float64(x)
	case uint8:
		v = float64(x)
	case int16:
		v = float64(x)
	case uint16:
		v = float64(x)
	case int32:
		v = float64(x)
	case uint32:
		v = float64(x)
	default:
		return nil
	}
	return &v
}

// offTargetBlob returns the raw packed off-target bytes. The tag holds the
// packed array as hex text (type Z or H); raw byte values are passed through.
// Every guide record carries the tag, so a missing one is malformed.
func offTargetBlob(rec *sam.Record) ([]byte, error) {
	aux := rec.AuxFields.Get(offTargetTag)
	if aux == nil {
		return nil, fmt.Errorf("%w: missing of tag", offtarget.ErrMalformed)
	}
	switch v := aux.Value().(type) {
	case string:
		return decodeHex(v)
	case []byte:
		if isHex(v) {
			return decodeHex(string(v))
		}
		return v, nil
	}
	return nil, fmt.Errorf("%w: unsupported of tag type %c", offtarget.ErrMalformed, aux.Type())
}

func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: of tag: %v", offtarget.ErrMalformed, err)
	}
	return b, nil
}

func isHex(b []byte) bool {
	if len(b)%2 != 0 {
		return false
	}
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
