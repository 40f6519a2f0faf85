package entropy

import (
	"cmp"
	"math"
	mrand "math/rand"
	"slices"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// NoiseConfig tunes the noise field behind NoiseSource.
type NoiseConfig struct {
	Rows        int     // Board height
	Cols        int     // Board width; Intn walks the field row-major
	Frequency   float64 // Base sampling frequency
	Octaves     int
	Persistence float64 // Amplitude falloff per octave
}

// DefaultNoiseConfig returns settings that give a few hills and lakes on a
// 12x12 board.
func DefaultNoiseConfig(rows, cols int) NoiseConfig {
	return NoiseConfig{
		Rows:        rows,
		Cols:        cols,
		Frequency:   0.18,
		Octaves:     3,
		Persistence: 0.5,
	}
}

// NoiseSource answers Intn from an opensimplex noise field instead of a
// uniform generator, so neighboring cells draw similar values. Each Intn call
// advances one board cell in row-major order, wrapping after the last cell.
// Float64 (height jitter) comes from a seeded uniform generator.
//
// Octave noise clusters around its mean, so raw values would almost never
// reach the lowest or highest draws. The field is rank-normalized over the
// board instead: Intn(n) splits the cells, ordered by noise value, into n
// equal bands. Every draw in [0,n) occurs about equally often.
type NoiseSource struct {
	jitter *mrand.Rand
	rank   []int // rank of each cell's noise value, row-major
	cell   int
}

// NewNoiseSource samples the noise field for a cfg.Rows x cfg.Cols board.
// Both the field and the jitter are derived from seed.
func NewNoiseSource(seed int64, cfg NoiseConfig) *NoiseSource {
	if cfg.Rows <= 0 || cfg.Cols <= 0 {
		panic("entropy: noise source needs positive board dimensions")
	}
	if cfg.Octaves <= 0 {
		cfg.Octaves = 1
	}
	seed = ResolveSeed(seed)
	noise := opensimplex.NewNormalized(seed)

	n := cfg.Rows * cfg.Cols
	values := make([]float64, n)
	for i := range values {
		row, col := i/cfg.Cols, i%cfg.Cols
		// Hex axial → cartesian: x = q + r*0.5, y = r * sqrt(3)/2
		x := float64(row) + float64(col)*0.5
		y := float64(col) * math.Sqrt(3.0) / 2.0
		values[i] = octaveNoise(noise, x, y, cfg.Octaves, cfg.Frequency, cfg.Persistence)
	}

	// Ties keep row-major order so the ranking is deterministic.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(values[a], values[b])
	})
	rank := make([]int, n)
	for r, cell := range order {
		rank[cell] = r
	}

	return &NoiseSource{
		jitter: mrand.New(mrand.NewSource(seed + 1)),
		rank:   rank,
	}
}

// Intn returns a value in [0,n) for the next board cell.
func (s *NoiseSource) Intn(n int) int {
	if n <= 0 {
		panic("entropy: invalid argument to Intn")
	}
	r := s.rank[s.cell]
	s.cell = (s.cell + 1) % len(s.rank)
	return r * n / len(s.rank)
}

// Float64 returns uniform jitter in [0,1).
func (s *NoiseSource) Float64() float64 {
	return s.jitter.Float64()
}

// Reset rewinds the walk to the first board cell.
func (s *NoiseSource) Reset() {
	s.cell = 0
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

var (
	_ Source = (*NoiseSource)(nil)
	_ Source = (*mrand.Rand)(nil)
)
