// Package offtarget decodes the packed off-target lists attached to guide records.
//
// A packed list is a flat array of little-endian int64 values. The array is
// split into runs by a delimiter value; the last element of each run is the
// edit distance shared by every other element of that run:
//
//	c1 c2 ... ck d DELIM c1 ... d DELIM ...
package offtarget

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// wordSize is the width of one packed value in bytes.
const wordSize = 8

// ErrMalformed reports a packed list that cannot be decoded.
var ErrMalformed = errors.New("malformed off-target encoding")

// Hit is one decoded off-target: an absolute signed genome coordinate and
// the edit distance it was found at.
type Hit struct {
	Distance int64
	Coord    int64
}

// Group is a set of coordinates sharing one edit distance.
type Group struct {
	Distance int64
	Coords   []int64
}

// Decode unpacks blob into hits, preserving input order.
// A trailing run without a delimiter is decoded like a terminated one.
func Decode(blob []byte, delim int64) ([]Hit, error) {
	if len(blob)%wordSize != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of %d", ErrMalformed, len(blob), wordSize)
	}

	n := len(blob) / wordSize
	var hits []Hit
	runStart := 0
	for i := 0; i <= n; i++ {
		atEnd := i == n
		if !atEnd && readWord(blob, i) != delim {
			continue
		}
		if atEnd && runStart == n {
			break
		}
		if i == runStart {
			return nil, fmt.Errorf("%w: empty run at word %d", ErrMalformed, i)
		}

		dist := readWord(blob, i-1)
		if dist < 0 {
			return nil, fmt.Errorf("%w: negative distance %d at word %d", ErrMalformed, dist, i-1)
		}
		for j := runStart; j < i-1; j++ {
			hits = append(hits, Hit{Distance: dist, Coord: readWord(blob, j)})
		}
		runStart = i + 1
	}
	return hits, nil
}

// DecodeHex decodes the hex text form stored in alignment tags.
func DecodeHex(s string, delim int64) ([]Hit, error) {
	blob, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Decode(blob, delim)
}

// Encode packs groups, terminating every run with delim.
func Encode(groups []Group, delim int64) []byte {
	size := 0
	for _, g := range groups {
		size += len(g.Coords) + 2
	}
	blob := make([]byte, 0, size*wordSize)
	for _, g := range groups {
		for _, c := range g.Coords {
			blob = binary.LittleEndian.AppendUint64(blob, uint64(c))
		}
		blob = binary.LittleEndian.AppendUint64(blob, uint64(g.Distance))
		blob = binary.LittleEndian.AppendUint64(blob, uint64(delim))
	}
	return blob
}

// EncodeHex is Encode followed by hex encoding.
func EncodeHex(groups []Group, delim int64) string {
	return hex.EncodeToString(Encode(groups, delim))
}

// Flatten expands groups into the hit order Decode produces.
func Flatten(groups []Group) []Hit {
	var hits []Hit
	for _, g := range groups {
		for _, c := range g.Coords {
			hits = append(hits, Hit{Distance: g.Distance, Coord: c})
		}
	}
	return hits
}

func readWord(blob []byte, i int) int64 {
	return int64(binary.LittleEndian.Uint64(blob[i*wordSize:]))
}
