// Level building: classify every board cell, place a tile on it, and share
// one bevel hex mesh across all of them.
package world

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// LevelConfig holds level build parameters.
type LevelConfig struct {
	Rows       int     // Board rows (q range)
	Cols       int     // Board columns (r range)
	Size       float32 // Hex spacing scale passed to Center
	MeshRadius float32 // Circumradius of the shared tile mesh
	MeshHeight float32 // Prism height of the shared tile mesh
	Bevel      float32 // Bevel factor in (0,1): inner ring radius over MeshRadius
	Palette    Palette
}

// DefaultLevelConfig returns the stock 12x12 board.
func DefaultLevelConfig() LevelConfig {
	return LevelConfig{
		Rows:       12,
		Cols:       12,
		Size:       1.0,
		MeshRadius: 1.0,
		MeshHeight: 0.3,
		Bevel:      0.925,
		Palette:    DefaultPalette(),
	}
}

// SmallTestConfig returns a tiny board for tests and quick iteration.
func SmallTestConfig() LevelConfig {
	cfg := DefaultLevelConfig()
	cfg.Rows = 3
	cfg.Cols = 3
	return cfg
}

// Validate reports configuration values BuildLevel cannot work with.
func (cfg LevelConfig) Validate() error {
	var errs []error
	if cfg.Rows <= 0 || cfg.Cols <= 0 {
		errs = append(errs, fmt.Errorf("board dimensions must be positive, got %dx%d", cfg.Rows, cfg.Cols))
	}
	if !(cfg.Size > 0) {
		errs = append(errs, fmt.Errorf("size must be positive, got %v", cfg.Size))
	}
	if !(cfg.MeshRadius > 0) || !(cfg.MeshHeight > 0) {
		errs = append(errs, fmt.Errorf("mesh radius and height must be positive, got %v and %v", cfg.MeshRadius, cfg.MeshHeight))
	}
	if !(cfg.Bevel > 0 && cfg.Bevel < 1) {
		errs = append(errs, fmt.Errorf("bevel must be in (0,1), got %v", cfg.Bevel))
	}
	return errors.Join(errs...)
}

// Placement asks the scene layer to instance the shared mesh at Position.
type Placement struct {
	Coord       HexCoord       `json:"coord"`
	Row         int            `json:"row"`
	Col         int            `json:"col"`
	Position    [3]float32     `json:"position"`
	BevelHeight float32        `json:"bevel_height"`
	Category    TileCategory   `json:"category"`
	Color       colorful.Color `json:"-"`
	Water       bool           `json:"water"` // Animate with RippleOffset
	Mesh        *HexMesh       `json:"-"`
}

// Level is the output of one build.
type Level struct {
	Board      *Board
	Mesh       *HexMesh
	Placements []Placement
}

// BuildLevel builds a board of cfg.Rows x cfg.Cols tiles, drawing every
// classification from src in row-major order. The same src state always
// yields the same level. Panics if cfg is invalid; call cfg.Validate first
// for untrusted input.
func BuildLevel(cfg LevelConfig, src Source) *Level {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("world: %v", err))
	}

	tiles := make([][]Tile, cfg.Rows)
	for row := range tiles {
		tiles[row] = make([]Tile, cfg.Cols)
		for col := range tiles[row] {
			tiles[row][col] = Classify(src)
		}
	}
	return AssembleLevel(cfg, tiles)
}

// AssembleLevel lays out already classified tiles: it generates the shared
// mesh once, records the board and emits one placement per tile.
// tiles must be cfg.Rows x cfg.Cols.
func AssembleLevel(cfg LevelConfig, tiles [][]Tile) *Level {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("world: %v", err))
	}
	if len(tiles) != cfg.Rows {
		panic(fmt.Sprintf("world: have %d tile rows, want %d", len(tiles), cfg.Rows))
	}

	mesh := NewHexMesh(cfg.MeshHeight, cfg.MeshRadius, cfg.Bevel)
	lvl := &Level{
		Board:      NewBoard(cfg.Rows, cfg.Cols),
		Mesh:       mesh,
		Placements: make([]Placement, 0, cfg.Rows*cfg.Cols),
	}

	for row := 0; row < cfg.Rows; row++ {
		if len(tiles[row]) != cfg.Cols {
			panic(fmt.Sprintf("world: tile row %d has %d columns, want %d", row, len(tiles[row]), cfg.Cols))
		}
		for col := 0; col < cfg.Cols; col++ {
			tile := tiles[row][col]
			coord := NewHexCoord(row, col)
			pos := Center(cfg.Size, coord, [3]float32{0, tile.Height, 0})

			lvl.Board.Set(row, col, Cell{Height: tile.Height})
			lvl.Placements = append(lvl.Placements, Placement{
				Coord:       coord,
				Row:         row,
				Col:         col,
				Position:    pos,
				BevelHeight: cfg.MeshHeight,
				Category:    tile.Category,
				Color:       cfg.Palette.Color(tile.Category),
				Water:       tile.Water,
				Mesh:        mesh,
			})
		}
	}

	return lvl
}

// Tiles returns the classification of every cell, row-major.
func (l *Level) Tiles() [][]Tile {
	tiles := make([][]Tile, l.Board.Rows)
	for i := range tiles {
		tiles[i] = make([]Tile, l.Board.Cols)
	}
	for _, p := range l.Placements {
		tiles[p.Row][p.Col] = Tile{
			Category: p.Category,
			Height:   l.Board.Cells[p.Row][p.Col].Height,
			Water:    p.Water,
		}
	}
	return tiles
}

// WaterPlacements returns the placements tagged for ripple animation.
func (l *Level) WaterPlacements() []Placement {
	var water []Placement
	for _, p := range l.Placements {
		if p.Water {
			water = append(water, p)
		}
	}
	return water
}

// CategoryCounts returns a summary of tile category distribution.
func (l *Level) CategoryCounts() map[TileCategory]int {
	counts := make(map[TileCategory]int)
	for _, p := range l.Placements {
		counts[p.Category]++
	}
	return counts
}
