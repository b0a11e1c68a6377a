package generator

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRand_ResumesFromCount(t *testing.T) {
	full := NewRand(7, 0)
	var draws []uint64
	for i := 0; i < 10; i++ {
		draws = append(draws, full.Uint64())
	}
	assert.Equal(t, int64(10), full.Count())

	resumed := NewRand(7, 4)
	for i := 4; i < 10; i++ {
		assert.Equal(t, draws[i], resumed.Uint64(), "draw %d", i)
	}
}

func TestRand_SeedsDiffer(t *testing.T) {
	assert.NotEqual(t, NewRand(1, 0).Uint64(), NewRand(2, 0).Uint64())
	assert.NotEqual(t, deriveSeed(1, 0), deriveSeed(1, 1))
	assert.Equal(t, deriveSeed(9, 3, 4), deriveSeed(9, 3, 4))
}

func TestRand_Bounds(t *testing.T) {
	r := NewRand(99, 0)
	for i := 0; i < 10000; i++ {
		n := r.IntN(7)
		require.GreaterOrEqual(t, n, 0)
		require.Less(t, n, 7)

		f := r.Float64()
		require.GreaterOrEqual(t, f, 0.0)
		require.Less(t, f, 1.0)
	}
	assert.Panics(t, func() { r.IntN(0) })
}

func TestPickWeighted_Converges(t *testing.T) {
	weights := []float64{1, 2, 5}
	counts := make([]int, len(weights))
	r := NewRand(12345, 0)

	const draws = 100000
	for i := 0; i < draws; i++ {
		counts[pickWeighted(r, weights)]++
	}
	assert.Equal(t, int64(draws), r.Count(), "one draw per pick")

	for i, w := range weights {
		got := float64(counts[i]) / draws
		assert.InDelta(t, w/8, got, 0.01, "slot %d", i)
	}
}

func TestPickWeighted_SingleCandidate(t *testing.T) {
	r := NewRand(1, 0)
	for i := 0; i < 100; i++ {
		assert.Equal(t, 0, pickWeighted(r, []float64{0.25}))
	}
}

func TestShuffleOrder(t *testing.T) {
	order := shuffleOrder(55, 20)
	require.Len(t, order, 20)
	assert.Equal(t, order, shuffleOrder(55, 20), "same seed, same permutation")
	assert.NotEqual(t, order, shuffleOrder(56, 20))

	sorted := append([]int(nil), order...)
	sort.Ints(sorted)
	for i, v := range sorted {
		assert.Equal(t, i, v)
	}
}
