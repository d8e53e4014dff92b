// Package prg provides the seeded pseudo-random generator handed to every
// trial and generator function. There is no process-wide generator: each
// owner creates its own from an explicit seed, so runs are reproducible and
// generators never contend across goroutines.
package prg

import (
	"math"
	"math/rand/v2"
)

// PRG is a deterministic pseudo-random generator. It is not safe for
// concurrent use; each trial owns one.
type PRG struct {
	seed uint64
	rng  *rand.Rand
}

// New returns a generator seeded with seed. Two generators built from the
// same seed produce the same sequence.
func New(seed uint64) *PRG {
	return &PRG{
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, seed^0xdeadbeef)),
	}
}

// Seed returns the seed the generator was created with.
func (p *PRG) Seed() uint64 { return p.seed }

// Bernoulli returns true with probability prob.
func (p *PRG) Bernoulli(prob float64) bool {
	return p.rng.Float64() < prob
}

// Uniform returns a double in [0, 1).
func (p *PRG) Uniform() float64 {
	return p.rng.Float64()
}

// Double returns a double in [min, max). If min == max it returns min.
func (p *PRG) Double(min, max float64) float64 {
	if max <= min {
		return min
	}
	f := p.rng.Float64()
	var v float64
	if span := max - min; !math.IsInf(span, 0) {
		v = min + span*f
	} else {
		// Interpolate when the span itself overflows, as in
		// [-MaxFloat64, MaxFloat64].
		v = min*(1-f) + max*f
	}
	if v >= max {
		return math.Nextafter(max, min)
	}
	return v
}

// Int returns an int in [min, max], both inclusive.
func (p *PRG) Int(min, max int) int {
	if max <= min {
		return min
	}
	span := uint64(int64(max) - int64(min))
	if span == ^uint64(0) {
		return int(int64(p.rng.Uint64()))
	}
	return int(int64(min) + int64(p.rng.Uint64N(span+1)))
}

// Index returns an int in [0, n). It panics if n <= 0.
func (p *PRG) Index(n int) int {
	return p.rng.IntN(n)
}

// Shuffle pseudo-randomizes the order of n elements using swap.
func (p *PRG) Shuffle(n int, swap func(i, j int)) {
	p.rng.Shuffle(n, swap)
}
