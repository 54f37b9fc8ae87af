package core

import (
	"math/rand"

	"github.com/chewxy/math32"
)

// TwoPi is the angle scale applied to the azimuth sample
const TwoPi float32 = 6.283185

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float32
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler with its own generator seeded with seed
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// NewStreamSampler derives an independent, reproducible stream for one worker or tile.
// The same (master, index) pair always yields the same sequence.
func NewStreamSampler(master int64, index int) *RandomSampler {
	return NewSeededSampler(streamSeed(master, index))
}

// streamSeed mixes the master seed and stream index with a splitmix64 finalizer
// so neighbouring indices do not produce correlated sources.
func streamSeed(master int64, index int) int64 {
	z := uint64(master) + uint64(index+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}

// Get1D returns a random float32 in [0, 1)
func (r *RandomSampler) Get1D() float32 {
	return r.random.Float32()
}

// SampleCosineHemisphere returns a cosine-weighted direction around a unit normal.
// p is the azimuth in [0, 2π) and c the uniform height sample in [0, 1).
// The basis flips sign with normal.Z so it never degenerates when normal.Z is near -1.
func SampleCosineHemisphere(normal Vec3, p, c float32) Vec3 {
	s := math32.Sqrt(1 - c)
	g := float32(1)
	if normal.Z < 0 {
		g = -1
	}
	u := -1 / (g + normal.Z)
	v := normal.X * normal.Y * u

	tangent := NewVec3(v, g+normal.Y*normal.Y*u, -normal.Y)
	bitangent := NewVec3(1+g*normal.X*normal.X*u, g*v, -g*normal.X)

	return tangent.Multiply(math32.Cos(p) * s).
		Add(bitangent.Multiply(math32.Sin(p) * s)).
		Add(normal.Multiply(math32.Sqrt(c)))
}
