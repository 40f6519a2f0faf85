// Tile classification: a uniform draw in [0,10) picks a category and the
// category picks a height.
package world

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// DrawRange is the exclusive upper bound of a classifier draw.
const DrawRange = 10

// Source supplies the random draws the classifier and builder consume.
// *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// TileCategory classifies a board tile.
type TileCategory uint8

const (
	TileWater TileCategory = iota // Low and flat; tagged for ripple animation
	TileGrass                     // Rough ground with a little jitter
	TileHill                      // Tall, widest jitter

	tileCategoryCount
)

// Height rules per category: base height plus uniform jitter in [-j, +j).
var tileHeights = [tileCategoryCount]struct{ base, jitter float32 }{
	TileWater: {0.05, 0},
	TileGrass: {0.1, 0.05},
	TileHill:  {0.2, 0.1},
}

// Tile is the outcome of one classification.
type Tile struct {
	Category TileCategory `json:"category"`
	Height   float32      `json:"height"`
	Water    bool         `json:"water"`
}

// CategoryForDraw maps a draw in [0,10) to a category.
// 1..4 is water, 5..6 is grass, and 0 or 7..9 is hill. The draw==0 case
// falls through to hill, not water.
func CategoryForDraw(draw int) TileCategory {
	switch {
	case draw < 0 || draw >= DrawRange:
		panic(fmt.Sprintf("world: tile draw %d outside [0,%d)", draw, DrawRange))
	case draw > 0 && draw < 5:
		return TileWater
	case draw >= 5 && draw < 7:
		return TileGrass
	default:
		return TileHill
	}
}

// Valid reports whether c is one of the defined categories.
func (c TileCategory) Valid() bool {
	return c < tileCategoryCount
}

// HeightFor returns the height of a tile of category c, drawing jitter from src.
func HeightFor(c TileCategory, src Source) float32 {
	if !c.Valid() {
		panic(fmt.Sprintf("world: unknown tile category %d", c))
	}
	rule := tileHeights[c]
	if rule.jitter == 0 {
		return rule.base
	}
	return rule.base + rule.jitter*(2*float32(src.Float64())-1)
}

// Classify draws a category from src and derives its height.
func Classify(src Source) Tile {
	c := CategoryForDraw(src.Intn(DrawRange))
	return Tile{
		Category: c,
		Height:   HeightFor(c, src),
		Water:    c == TileWater,
	}
}

// String returns a human-readable name for a tile category.
func (c TileCategory) String() string {
	switch c {
	case TileWater:
		return "Water"
	case TileGrass:
		return "Grass"
	case TileHill:
		return "Hill"
	default:
		return "Unknown"
	}
}

// Palette holds the display color of each tile category.
type Palette [tileCategoryCount]colorful.Color

// DefaultPaletteHex is the stock board palette: pastel skin, pastel pink, pale grass.
var DefaultPaletteHex = [tileCategoryCount]string{"#ffdbcc", "#fee1e8", "#e5f0a0"}

// ParsePalette parses one hex color string per category.
func ParsePalette(hex []string) (Palette, error) {
	var p Palette
	if len(hex) != len(p) {
		return p, fmt.Errorf("palette needs %d colors, got %d", len(p), len(hex))
	}
	for i, s := range hex {
		c, err := colorful.Hex(s)
		if err != nil {
			return p, fmt.Errorf("palette color %d (%q): %w", i, s, err)
		}
		p[i] = c
	}
	return p, nil
}

// DefaultPalette returns the stock board palette.
func DefaultPalette() Palette {
	p, err := ParsePalette(DefaultPaletteHex[:])
	if err != nil {
		panic(err)
	}
	return p
}

// Color returns the color for category c.
func (p Palette) Color(c TileCategory) colorful.Color {
	return p[c]
}
