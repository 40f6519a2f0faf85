package world

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allDirections = []Direction{DirNone, DirNorth, DirSouth, DirNortheast, DirSouthwest, DirSoutheast, DirNorthwest}

func TestNewHexCoord_ZeroSum(t *testing.T) {
	for q := -20; q <= 20; q++ {
		for r := -20; r <= 20; r++ {
			c := NewHexCoord(q, r)
			assert.Zero(t, c.Q+c.R+c.S, "coord %+v", c)
		}
	}
}

func TestOrigin(t *testing.T) {
	assert.Equal(t, HexCoord{Q: 0, R: 0, S: 0}, Origin())
	assert.Equal(t, NewHexCoord(0, 0), Origin())
}

func TestNeighbor_Offsets(t *testing.T) {
	c := NewHexCoord(3, -2)
	assert.Equal(t, NewHexCoord(3, -3), c.Neighbor(DirNorth))
	assert.Equal(t, NewHexCoord(3, -1), c.Neighbor(DirSouth))
	assert.Equal(t, NewHexCoord(4, -3), c.Neighbor(DirNortheast))
	assert.Equal(t, c, c.Neighbor(DirNone))
}

func TestNeighbor_RandomWalkKeepsInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	current := Origin()
	for i := 0; i < 1000; i++ {
		current = current.Neighbor(allDirections[rng.Intn(len(allDirections))])
		require.Zero(t, current.Q+current.R+current.S)
	}
}

func TestOpposite_Involution(t *testing.T) {
	for _, d := range allDirections {
		assert.Equal(t, d, d.Opposite().Opposite(), "direction %s", d)
	}
	assert.Equal(t, DirSouth, DirNorth.Opposite())
	assert.Equal(t, DirSouthwest, DirNortheast.Opposite())
	assert.Equal(t, DirNone, DirNone.Opposite())
}

func TestNeighbor_OppositeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		c := NewHexCoord(rng.Intn(200)-100, rng.Intn(200)-100)
		for _, d := range allDirections {
			assert.Equal(t, c, c.Neighbor(d).Neighbor(d.Opposite()), "coord %+v direction %s", c, d)
		}
	}
}

func TestNeighbors_BoardModel(t *testing.T) {
	c := NewHexCoord(-4, 9)
	got := c.Neighbors()
	require.Len(t, got, 3)
	assert.Equal(t, []HexCoord{
		c.Neighbor(DirNorth),
		c.Neighbor(DirSouth),
		c.Neighbor(DirNortheast),
	}, got)

	// Each call is independent of the last.
	got[0] = Origin()
	assert.Equal(t, c.Neighbor(DirNorth), c.Neighbors()[0])
}

func TestAllNeighbors_AreAtDistanceOne(t *testing.T) {
	c := NewHexCoord(2, 5)
	seen := make(map[HexCoord]bool)
	for _, n := range c.AllNeighbors() {
		assert.Equal(t, 1, Distance(c, n))
		seen[n] = true
	}
	assert.Len(t, seen, 6)
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 0, Distance(Origin(), Origin()))
	assert.Equal(t, 3, Distance(Origin(), NewHexCoord(3, -3)))
	assert.Equal(t, 4, Distance(NewHexCoord(-2, 0), NewHexCoord(2, -1)))
	assert.Equal(t, Distance(NewHexCoord(1, 7), NewHexCoord(-3, 2)), Distance(NewHexCoord(-3, 2), NewHexCoord(1, 7)))
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "north", DirNorth.String())
	assert.Equal(t, "northeast", DirNortheast.String())
	assert.Equal(t, "unknown", Direction(99).String())
}
