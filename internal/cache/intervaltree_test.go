package cache

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalTree_Empty(t *testing.T) {
	tree := BuildIntervalTree(nil)
	assert.Equal(t, 0, tree.Len())
	assert.Nil(t, tree.FindOverlaps(0, 100))
}

func TestIntervalTree_HalfOpenBoundaries(t *testing.T) {
	tree := BuildIntervalTree([]*Exon{{Start: 10, End: 20, Number: 1}})

	assert.Empty(t, tree.FindOverlaps(0, 10), "query ending at exon start")
	assert.Empty(t, tree.FindOverlaps(20, 30), "query starting at exon end")
	assert.Len(t, tree.FindOverlaps(9, 11), 1)
	assert.Len(t, tree.FindOverlaps(19, 20), 1)
	assert.Empty(t, tree.FindOverlaps(15, 15), "empty query")
}

func TestIntervalTree_NestedAndOverlapping(t *testing.T) {
	exons := []*Exon{
		{Start: 100, End: 1000, Number: 1},
		{Start: 150, End: 200, Number: 2},
		{Start: 300, End: 400, Number: 3},
		{Start: 2000, End: 2100, Number: 4},
	}
	tree := BuildIntervalTree(exons)
	require.Equal(t, 4, tree.Len())

	got := tree.FindOverlaps(350, 351)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, 3, got[1].Number)

	got = tree.FindOverlaps(1500, 2050)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Number)
}

func TestIntervalTree_MatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	exons := make([]*Exon, 500)
	for i := range exons {
		start := rng.Int63n(10000)
		exons[i] = &Exon{Start: start, End: start + 1 + rng.Int63n(300), Number: i}
	}
	tree := BuildIntervalTree(exons)

	for q := 0; q < 200; q++ {
		start := rng.Int63n(10500)
		end := start + 1 + rng.Int63n(50)

		want := 0
		for _, e := range exons {
			if e.Overlaps(start, end) {
				want++
			}
		}
		assert.Len(t, tree.FindOverlaps(start, end), want, "query [%d,%d)", start, end)
	}
}
