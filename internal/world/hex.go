// Package world provides the hex board: coordinates, bevel-hex mesh geometry,
// tile classification, and the level builder.
// Uses axial coordinates (q, r) with the cube coordinate s kept alongside.
package world

// HexCoord represents a position on the hex grid.
// Invariant: Q + R + S == 0. Always build one with NewHexCoord.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
	S int `json:"s"`
}

// NewHexCoord builds a coordinate from (q, r), deriving s = -q - r.
func NewHexCoord(q, r int) HexCoord {
	return HexCoord{Q: q, R: r, S: -q - r}
}

// Origin returns the centre of an unbounded hex grid.
func Origin() HexCoord {
	return HexCoord{}
}

// Direction enumerates the ways to step from one hex to another.
type Direction uint8

const (
	DirNone      Direction = iota // Stay in place
	DirNorth                      // (q, r-1)
	DirSouth                      // (q, r+1)
	DirNortheast                  // (q+1, r-1)
	DirSouthwest                  // (q-1, r+1)
	DirSoutheast                  // (q+1, r)
	DirNorthwest                  // (q-1, r)
)

// BoardDirections are the three directions the board's neighbor model uses,
// in the order Neighbors yields them.
var BoardDirections = [3]Direction{DirNorth, DirSouth, DirNortheast}

// RingDirections walks the full six-hex ring clockwise from North.
var RingDirections = [6]Direction{DirNorth, DirNortheast, DirSoutheast, DirSouth, DirSouthwest, DirNorthwest}

var directionOffsets = [...]struct{ dq, dr int }{
	DirNone:      {0, 0},
	DirNorth:     {0, -1},
	DirSouth:     {0, 1},
	DirNortheast: {1, -1},
	DirSouthwest: {-1, 1},
	DirSoutheast: {1, 0},
	DirNorthwest: {-1, 0},
}

// Opposite returns the direction pointing back. Opposite is an involution.
func (d Direction) Opposite() Direction {
	switch d {
	case DirNorth:
		return DirSouth
	case DirSouth:
		return DirNorth
	case DirNortheast:
		return DirSouthwest
	case DirSouthwest:
		return DirNortheast
	case DirSoutheast:
		return DirNorthwest
	case DirNorthwest:
		return DirSoutheast
	default:
		return DirNone
	}
}

// String returns a human-readable direction name.
func (d Direction) String() string {
	switch d {
	case DirNone:
		return "none"
	case DirNorth:
		return "north"
	case DirSouth:
		return "south"
	case DirNortheast:
		return "northeast"
	case DirSouthwest:
		return "southwest"
	case DirSoutheast:
		return "southeast"
	case DirNorthwest:
		return "northwest"
	default:
		return "unknown"
	}
}

// Neighbor returns the coordinate one step in direction d.
func (h HexCoord) Neighbor(d Direction) HexCoord {
	if int(d) >= len(directionOffsets) {
		panic("world: invalid direction")
	}
	off := directionOffsets[d]
	return NewHexCoord(h.Q+off.dq, h.R+off.dr)
}

// Neighbors returns the board-model neighbors: North, South, Northeast.
func (h HexCoord) Neighbors() []HexCoord {
	result := make([]HexCoord, 0, len(BoardDirections))
	for _, d := range BoardDirections {
		result = append(result, h.Neighbor(d))
	}
	return result
}

// AllNeighbors returns the six adjacent hex coordinates, clockwise from North.
func (h HexCoord) AllNeighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, d := range RingDirections {
		result[i] = h.Neighbor(d)
	}
	return result
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	// Max of the three absolute differences in cube coordinates.
	return max(abs(a.Q-b.Q), abs(a.R-b.R), abs(a.S-b.S))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
