package domain

import (
	"math"
	"unicode/utf16"
)

const (
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223
	lcgModulus    = 1 << 32
)

// Rand is a seeded linear congruential generator. Two instances built from
// the same seed string produce the same sequence forever; replays and bot
// decisions depend on that.
type Rand struct {
	state uint64
}

// NewRand seeds a generator from an arbitrary string.
func NewRand(seed string) *Rand {
	return &Rand{state: hashSeed(seed)}
}

// hashSeed folds the UTF-16 code units of seed into a 32-bit signed hash
// (h*31 + c with wraparound) and returns its absolute value.
func hashSeed(seed string) uint64 {
	var h int32
	for _, c := range utf16.Encode([]rune(seed)) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return uint64(v)
}

// Float64 returns the next value in [0, 1).
func (r *Rand) Float64() float64 {
	r.state = (r.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(r.state) / lcgModulus
}

// IntRange returns an integer in [min, max].
func (r *Rand) IntRange(min, max int) int {
	return int(math.Floor(r.Float64()*float64(max-min+1))) + min
}

// Bool returns true with probability one half.
func (r *Rand) Bool() bool {
	return r.Float64() < 0.5
}

// Shuffle returns a Fisher-Yates permutation of in; in is left untouched.
func Shuffle[T any](r *Rand, in []T) []T {
	out := append([]T(nil), in...)
	for i := len(out) - 1; i > 0; i-- {
		j := r.IntRange(0, i)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Choice picks one element uniformly. in must not be empty.
func Choice[T any](r *Rand, in []T) T {
	return in[r.IntRange(0, len(in)-1)]
}
