// Package rng provides the deterministic pseudo-random generator used for
// run content generation. Streams are a pure function of seed and call
// order, so a shared seed reproduces the same run on every client.
package rng

import "errors"

// ErrEmptyPick is returned when Pick is called with no candidates. Callers
// treat it as a content bug, not a runtime condition.
var ErrEmptyPick = errors.New("rng: pick from empty slice")

const uint32Span = float64(1 << 32)

// Rand is a Mulberry32 generator over a 32-bit state word.
type Rand struct {
	state uint32
}

// New constructs a generator from the given seed.
func New(seed uint32) *Rand {
	return &Rand{state: seed}
}

// Next returns the next float64 in [0, 1). The fully mixed word becomes
// the next state, so consecutive draws chain through the mix.
func (r *Rand) Next() float64 {
	t := r.state + 0x6d2b79f5
	t = imul(t^(t>>15), t|1)
	t ^= t + imul(t^(t>>7), t|61)
	r.state = t
	return float64(t^(t>>14)) / uint32Span
}

// Int returns an integer in [min, max] inclusive. Reversed bounds are
// swapped rather than rejected.
func (r *Rand) Int(min, max int) int {
	if max < min {
		min, max = max, min
	}
	span := max - min + 1
	return min + int(r.Next()*float64(span))
}

// Pick returns a uniformly chosen element of values.
func Pick[T any](r *Rand, values []T) (T, error) {
	var zero T
	if len(values) == 0 {
		return zero, ErrEmptyPick
	}
	return values[r.Int(0, len(values)-1)], nil
}

// ShuffleInPlace permutes values with a Fisher-Yates walk driven by r.
func ShuffleInPlace[T any](r *Rand, values []T) {
	for i := len(values) - 1; i > 0; i-- {
		j := r.Int(0, i)
		values[i], values[j] = values[j], values[i]
	}
}

// SeedFrom mixes the given parts into a single derived seed. Generators
// built from different part tuples do not trivially correlate, which keeps
// per-stage and per-pool sampling independent of sampling order elsewhere.
func SeedFrom(parts ...uint32) uint32 {
	var seed uint32
	for _, part := range parts {
		seed ^= part + 0x9e3779b9 + (seed << 6) + (seed >> 2)
	}
	return seed
}

func imul(a, b uint32) uint32 {
	return a * b
}
