package world

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource replays fixed draws and jitter values.
type scriptedSource struct {
	ints   []int
	floats []float64
}

func (s *scriptedSource) Intn(n int) int {
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v
}

func (s *scriptedSource) Float64() float64 {
	if len(s.floats) == 0 {
		return 0.5
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func TestCategoryForDraw_Boundaries(t *testing.T) {
	want := map[int]TileCategory{
		0: TileHill,
		1: TileWater, 2: TileWater, 3: TileWater, 4: TileWater,
		5: TileGrass, 6: TileGrass,
		7: TileHill, 8: TileHill, 9: TileHill,
	}
	for draw, cat := range want {
		assert.Equal(t, cat, CategoryForDraw(draw), "draw %d", draw)
	}
}

func TestCategoryForDraw_PanicsOutOfRange(t *testing.T) {
	assert.Panics(t, func() { CategoryForDraw(-1) })
	assert.Panics(t, func() { CategoryForDraw(10) })
}

func TestClassify_Heights(t *testing.T) {
	// Float64 of 0.5 sits exactly on the base height.
	src := &scriptedSource{ints: []int{2, 5, 8, 0}}
	assert.Equal(t, Tile{Category: TileWater, Height: 0.05, Water: true}, Classify(src))
	assert.Equal(t, Tile{Category: TileGrass, Height: 0.1}, Classify(src))
	assert.Equal(t, Tile{Category: TileHill, Height: 0.2}, Classify(src))
	assert.Equal(t, Tile{Category: TileHill, Height: 0.2}, Classify(src))
}

func TestClassify_JitterBounds(t *testing.T) {
	src := &scriptedSource{ints: []int{6, 6, 9, 9}, floats: []float64{0, 0.999999, 0, 0.999999}}

	lo := Classify(src)
	hi := Classify(src)
	assert.InDelta(t, 0.05, lo.Height, 1e-6)
	assert.InDelta(t, 0.15, hi.Height, 1e-5)

	lo = Classify(src)
	hi = Classify(src)
	assert.InDelta(t, 0.1, lo.Height, 1e-6)
	assert.InDelta(t, 0.3, hi.Height, 1e-5)
}

func TestClassify_OnlyWaterIsTagged(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		tile := Classify(rng)
		assert.Equal(t, tile.Category == TileWater, tile.Water)
		switch tile.Category {
		case TileWater:
			assert.Equal(t, float32(0.05), tile.Height)
		case TileGrass:
			assert.InDelta(t, 0.1, tile.Height, 0.05+1e-6)
		case TileHill:
			assert.InDelta(t, 0.2, tile.Height, 0.1+1e-6)
		}
	}
}

func TestTileCategoryString(t *testing.T) {
	assert.Equal(t, "Water", TileWater.String())
	assert.Equal(t, "Grass", TileGrass.String())
	assert.Equal(t, "Hill", TileHill.String())
	assert.Equal(t, "Unknown", TileCategory(42).String())
}

func TestParsePalette(t *testing.T) {
	p, err := ParsePalette([]string{"#ff0000", "#00ff00", "#0000ff"})
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", p.Color(TileWater).Hex())
	assert.Equal(t, "#0000ff", p.Color(TileHill).Hex())

	_, err = ParsePalette([]string{"#ff0000"})
	assert.ErrorContains(t, err, "needs 3 colors")

	_, err = ParsePalette([]string{"#ff0000", "green", "#0000ff"})
	assert.ErrorContains(t, err, "palette color 1")
}

func TestDefaultPalette(t *testing.T) {
	p := DefaultPalette()
	assert.Equal(t, DefaultPaletteHex[0], p.Color(TileWater).Hex())
	assert.Equal(t, DefaultPaletteHex[2], p.Color(TileHill).Hex())
}
