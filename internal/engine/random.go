package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// SeededRandom is the deterministic game.Random used by runners. Its state
// serializes so a replay can resume from any logged command.
type SeededRandom struct {
	src *rand.PCG
	rng *rand.Rand
}

// NewSeededRandom creates a PCG-backed random source.
func NewSeededRandom(seed uint64) *SeededRandom {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &SeededRandom{src: src, rng: rand.New(src)}
}

// Float64 returns a value in [0, 1).
func (r *SeededRandom) Float64() float64 {
	return r.rng.Float64()
}

// D rolls a die with the given number of sides.
func (r *SeededRandom) D(sides int) int {
	if sides <= 0 {
		return 0
	}
	return r.rng.IntN(sides) + 1
}

// Range returns an integer in [min, max].
func (r *SeededRandom) Range(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + r.rng.IntN(max-min+1)
}

// Shuffle permutes n elements.
func (r *SeededRandom) Shuffle(n int, swap func(i, j int)) {
	r.rng.Shuffle(n, swap)
}

// State returns the serialized generator state.
func (r *SeededRandom) State() ([]byte, error) {
	return r.src.MarshalBinary()
}

// Restore resets the generator to a serialized state.
func (r *SeededRandom) Restore(state []byte) error {
	if err := r.src.UnmarshalBinary(state); err != nil {
		return fmt.Errorf("restore random state: %w", err)
	}
	return nil
}

// countingRandom records whether a command drew any randomness.
type countingRandom struct {
	game.Random
	draws int
}

func (r *countingRandom) Float64() float64 {
	r.draws++
	return r.Random.Float64()
}

func (r *countingRandom) D(sides int) int {
	r.draws++
	return r.Random.D(sides)
}

func (r *countingRandom) Range(min, max int) int {
	r.draws++
	return r.Random.Range(min, max)
}

func (r *countingRandom) Shuffle(n int, swap func(i, j int)) {
	r.draws++
	r.Random.Shuffle(n, swap)
}

// NewSeed generates a match seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
