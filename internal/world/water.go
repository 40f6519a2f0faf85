package world

import "math"

// RippleOffset returns the vertical offset of a water tile at (x, z) at
// time t seconds. Three sinusoids of different speed and heading are summed;
// the result stays within [-0.45, 0.15].
func RippleOffset(t, x, z float32) float32 {
	sin := func(v float32) float32 { return float32(math.Sin(float64(v))) }
	cos := func(v float32) float32 { return float32(math.Cos(float64(v))) }

	r1 := sin(t/2+x/3+z/3)*0.1 - 0.05
	r2 := cos(t+x/3-z/4)*0.1 - 0.05
	r3 := sin(t*2+x/5-z/7)*0.1 - 0.05
	return r1 + r2 + r3
}

// ApplyRipple returns the position of p at time t. Non-water placements are
// returned unchanged. The ripple replaces the tile's resting height, as the
// water surface is what moves.
func ApplyRipple(p Placement, t float32) [3]float32 {
	if !p.Water {
		return p.Position
	}
	pos := p.Position
	pos[1] = RippleOffset(t, pos[0], pos[2])
	return pos
}
