package engine

import "math/rand"

// RNG is the music randomizer. It wraps math/rand.Rand and is reseeded from
// the engine clock once per level-script run, not per track.
type RNG struct {
	seed int64
	src  *rand.Rand
}

// NewRNG creates a randomizer from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Reseed folds tick into the current seed and restarts the sequence.
func (r *RNG) Reseed(tick int64) {
	r.seed ^= tick
	r.src = rand.New(rand.NewSource(r.seed))
}

// Intn returns a random integer in [0, n). n must be positive.
func (r *RNG) Intn(n int) int {
	return r.src.Intn(n)
}

// Seed returns the seed the current sequence started from.
func (r *RNG) Seed() int64 {
	return r.seed
}
