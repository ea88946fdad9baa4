package common

import "time"

// SeededRNG implements a Mulberry32 seeded pseudo-random number generator.
// Noise buffers are generated from it so a given seed always yields the same
// texture.
type SeededRNG struct {
	state       uint32
	initialSeed uint32
}

// NewSeededRNG creates a new seeded random number generator.
func NewSeededRNG(seed uint32) *SeededRNG {
	return &SeededRNG{
		state:       seed,
		initialSeed: seed,
	}
}

// NewTimeSeededRNG seeds the generator from the wall clock.
func NewTimeSeededRNG() *SeededRNG {
	return NewSeededRNG(ClockSeed(time.Now()))
}

// Reset rewinds the generator to its initial seed.
func (r *SeededRNG) Reset() {
	r.state = r.initialSeed
}

// Seed returns the seed the generator was created with.
func (r *SeededRNG) Seed() uint32 {
	return r.initialSeed
}

// Random returns the next value in [0, 1).
func (r *SeededRNG) Random() float64 {
	r.state += 0x6D2B79F5
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// Bipolar returns the next value in [-1, 1).
func (r *SeededRNG) Bipolar() float64 {
	return r.Random()*2 - 1
}

// ClockSeed folds a timestamp into a 32-bit seed.
func ClockSeed(t time.Time) uint32 {
	n := uint64(t.UnixNano())
	seed := uint32(n) ^ uint32(n>>32)
	seed = (seed ^ (seed >> 16)) * 0x85ebca6b
	seed = (seed ^ (seed >> 13)) * 0xc2b2ae35
	return seed ^ (seed >> 16)
}
