package generator

import "math/bits"

const golden = 0x9E3779B97F4A7C15

// Rand is a counter-based SplitMix64 generator. Its entire state is the
// (seed, count) pair: the n-th draw is a pure function of seed and n, so a
// persisted pair resumes the exact same stream and replay costs nothing.
type Rand struct {
	seed  uint64
	count uint64
}

// NewRand resumes the stream of seed after count draws
func NewRand(seed, count int64) *Rand {
	return &Rand{seed: uint64(seed), count: uint64(count)}
}

// Uint64 returns the next value of the stream
func (r *Rand) Uint64() uint64 {
	r.count++
	return mix64(r.seed + r.count*golden)
}

// IntN returns a value in [0, n). n must be positive.
func (r *Rand) IntN(n int) int {
	if n <= 0 {
		panic("generator: IntN with non-positive bound")
	}
	hi, _ := bits.Mul64(r.Uint64(), uint64(n))
	return int(hi)
}

// Float64 returns a value in [0, 1)
func (r *Rand) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Seed returns the stream seed
func (r *Rand) Seed() int64 {
	return int64(r.seed)
}

// Count returns the number of draws taken so far
func (r *Rand) Count() int64 {
	return int64(r.count)
}

func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// deriveSeed folds parts into a new seed; used for per-slot and per-cycle streams
func deriveSeed(seed int64, parts ...uint64) int64 {
	z := uint64(seed)
	for _, p := range parts {
		z = mix64(z ^ mix64(p+golden))
	}
	return int64(z)
}
