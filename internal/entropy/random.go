// Package entropy provides the draw sources level builds consume.
// Seeded sources make level layout reproducible; seed 0 asks for a fresh
// seed from crypto/rand.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	mrand "math/rand"
)

// Source is a uniform random source: Intn in [0,n), Float64 in [0,1).
type Source interface {
	Intn(n int) int
	Float64() float64
}

// ResolveSeed returns seed unchanged unless it is 0, in which case a random
// non-zero seed is generated.
func ResolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	for seed == 0 {
		seed = cryptoRandInt63()
	}
	slog.Debug("generated level seed", "seed", seed)
	return seed
}

// NewSeeded returns a math/rand generator for the resolved seed.
func NewSeeded(seed int64) *mrand.Rand {
	return mrand.New(mrand.NewSource(ResolveSeed(seed)))
}

// cryptoRandInt63 reads a non-negative int64 from crypto/rand.
func cryptoRandInt63() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand does not fail on supported platforms.
		panic(err)
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}
