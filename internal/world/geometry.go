// Bevel-hex geometry: world-space centres and the canonical tile mesh.
//
// Layout is flat-top, which is what the neighbor naming assumes:
// North is -Z, Northeast is +X/-Z.
//
//	horiz spacing = 3/2 * size
//	vert spacing  = sqrt(3) * size
package world

import (
	"fmt"
	"math"
)

// Vertex counts of one bevel hex, section by section.
const (
	hexCorners = 6

	topVerts    = 1 + hexCorners // centre + inner ring
	bevelVerts  = 2 * hexCorners // inner ring + outer ring
	sideVerts   = 2 * hexCorners // outer ring at the bevel foot + outer ring at the base
	bottomVerts = 1 + hexCorners // centre + outer ring

	// BevelHexVertexCount is the number of vertices one bevel hex appends.
	BevelHexVertexCount = topVerts + bevelVerts + sideVerts + bottomVerts

	// BevelHexIndexCount is the number of indices one bevel hex appends.
	BevelHexIndexCount = 3 * (hexCorners + 2*hexCorners + 2*hexCorners + hexCorners)
)

var sqrt3 = float32(math.Sqrt(3))

// Center converts an axial coordinate to its world-space centre, scaled by
// size, with offset added directly. The offset's Y carries per-cell height.
func Center(size float32, c HexCoord, offset [3]float32) [3]float32 {
	q := float32(c.Q)
	r := float32(c.R)
	x := size * 1.5 * q
	z := size * sqrt3 * (r + q/2)
	return [3]float32{x + offset[0], offset[1], z + offset[2]}
}

// corner returns the unit vector towards corner i of a flat-top hex.
func corner(i int) (cos, sin float32) {
	rad := math.Pi / 180 * float64(60*(i%hexCorners))
	return float32(math.Cos(rad)), float32(math.Sin(rad))
}

// bevelDrop is how far the outer ring sits below the top face.
// The bevel slopes at 45 degrees unless the prism is too short for it.
func bevelDrop(radius, bevel, height float32) float32 {
	return min(radius*(1-bevel), height)
}

func checkBevelParams(radius, bevel, height float32) {
	if !(radius > 0) || !(bevel > 0 && bevel < 1) || !(height > 0) {
		panic(fmt.Sprintf("world: invalid bevel hex params radius=%v bevel=%v height=%v", radius, bevel, height))
	}
}

// BevelHexagonPoints appends the vertex positions of a bevel hex prism
// centred on c. The top sits at height, the base at y=0. Sections are
// appended in order: top fan, bevel band, side band, bottom fan.
func BevelHexagonPoints(dst [][3]float32, radius, bevel float32, c HexCoord, height float32) [][3]float32 {
	checkBevelParams(radius, bevel, height)

	centre := Center(radius, c, [3]float32{})
	inner := radius * bevel
	foot := height - bevelDrop(radius, bevel, height)

	ring := func(rad, y float32) {
		for i := 0; i < hexCorners; i++ {
			cs, sn := corner(i)
			dst = append(dst, [3]float32{centre[0] + rad*cs, y, centre[2] + rad*sn})
		}
	}

	// Top fan.
	dst = append(dst, [3]float32{centre[0], height, centre[2]})
	ring(inner, height)

	// Bevel band.
	ring(inner, height)
	ring(radius, foot)

	// Side band.
	ring(radius, foot)
	ring(radius, 0)

	// Bottom fan.
	dst = append(dst, [3]float32{centre[0], 0, centre[2]})
	ring(radius, 0)

	return dst
}

// BevelHexagonNormals appends one normal per vertex, in the same order as
// BevelHexagonPoints.
func BevelHexagonNormals(dst [][3]float32) [][3]float32 {
	up := [3]float32{0, 1, 0}
	down := [3]float32{0, -1, 0}
	diag := float32(1 / math.Sqrt2)

	dst = append(dst, up)
	for i := 0; i < hexCorners; i++ {
		dst = append(dst, up)
	}

	for band := 0; band < 2; band++ {
		for i := 0; i < hexCorners; i++ {
			cs, sn := corner(i)
			dst = append(dst, [3]float32{cs * diag, diag, sn * diag})
		}
	}

	for band := 0; band < 2; band++ {
		for i := 0; i < hexCorners; i++ {
			cs, sn := corner(i)
			dst = append(dst, [3]float32{cs, 0, sn})
		}
	}

	dst = append(dst, down)
	for i := 0; i < hexCorners; i++ {
		dst = append(dst, down)
	}

	return dst
}

// BevelHexagonUVs appends planar XZ texture coordinates mapping the hex
// footprint into the unit square.
func BevelHexagonUVs(dst [][2]float32, radius, bevel float32) [][2]float32 {
	uv := func(rad float32, i int) [2]float32 {
		cs, sn := corner(i)
		k := rad / radius
		return [2]float32{0.5 + 0.5*k*cs, 0.5 + 0.5*k*sn}
	}
	ring := func(rad float32) {
		for i := 0; i < hexCorners; i++ {
			dst = append(dst, uv(rad, i))
		}
	}
	inner := radius * bevel

	dst = append(dst, [2]float32{0.5, 0.5})
	ring(inner)
	ring(inner)
	ring(radius)
	ring(radius)
	ring(radius)
	dst = append(dst, [2]float32{0.5, 0.5})
	ring(radius)
	return dst
}

// BevelHexagonIndices appends the triangle list for one bevel hex whose
// vertices start at base. Triangles wind counter-clockwise seen from outside.
func BevelHexagonIndices(dst []uint32, base uint32) []uint32 {
	const (
		topCentre    = 0
		topRing      = 1
		bevelInner   = topVerts
		bevelOuter   = bevelInner + hexCorners
		sideUpper    = topVerts + bevelVerts
		sideLower    = sideUpper + hexCorners
		bottomCentre = topVerts + bevelVerts + sideVerts
		bottomRing   = bottomCentre + 1
	)
	next := func(i int) int { return (i + 1) % hexCorners }
	tri := func(a, b, c int) {
		dst = append(dst, base+uint32(a), base+uint32(b), base+uint32(c))
	}
	// band stitches an upper ring to a lower ring.
	band := func(upper, lower int) {
		for i := 0; i < hexCorners; i++ {
			j := next(i)
			tri(upper+i, lower+j, lower+i)
			tri(upper+i, upper+j, lower+j)
		}
	}

	for i := 0; i < hexCorners; i++ {
		tri(topCentre, topRing+next(i), topRing+i)
	}
	band(bevelInner, bevelOuter)
	band(sideUpper, sideLower)
	for i := 0; i < hexCorners; i++ {
		tri(bottomCentre, bottomRing+i, bottomRing+next(i))
	}

	return dst
}

// HexMesh is the vertex buffer of one canonical bevel hex. A level builds it
// once and every placement references the same instance.
type HexMesh struct {
	Height float32 `json:"height"`
	Radius float32 `json:"radius"`
	Bevel  float32 `json:"bevel"`

	Positions [][3]float32 `json:"positions"`
	Normals   [][3]float32 `json:"normals"`
	UVs       [][2]float32 `json:"uvs"`
	Indices   []uint32     `json:"indices"`
}

// NewHexMesh generates the bevel hex prototype at the origin.
func NewHexMesh(height, radius, bevel float32) *HexMesh {
	m := &HexMesh{
		Height:    height,
		Radius:    radius,
		Bevel:     bevel,
		Positions: make([][3]float32, 0, BevelHexVertexCount),
		Normals:   make([][3]float32, 0, BevelHexVertexCount),
		UVs:       make([][2]float32, 0, BevelHexVertexCount),
		Indices:   make([]uint32, 0, BevelHexIndexCount),
	}
	m.Positions = BevelHexagonPoints(m.Positions, radius, bevel, Origin(), height)
	m.Normals = BevelHexagonNormals(m.Normals)
	m.UVs = BevelHexagonUVs(m.UVs, radius, bevel)
	m.Indices = BevelHexagonIndices(m.Indices, 0)
	return m
}

// VertexCount returns the number of vertices in the mesh.
func (m *HexMesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of triangles in the mesh.
func (m *HexMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// ByteSize returns the size of the packed vertex and index buffers.
func (m *HexMesh) ByteSize() uint64 {
	const f32 = 4
	per := 3*f32 + 3*f32 + 2*f32
	return uint64(len(m.Positions)*per + len(m.Indices)*4)
}

// Validate checks the buffer invariants: attribute counts agree, the index
// list is whole triangles and every index is in range.
func (m *HexMesh) Validate() error {
	n := len(m.Positions)
	if n == 0 {
		return fmt.Errorf("mesh has no vertices")
	}
	if len(m.Normals) != n {
		return fmt.Errorf("normals: have %d, want %d", len(m.Normals), n)
	}
	if len(m.UVs) != n {
		return fmt.Errorf("uvs: have %d, want %d", len(m.UVs), n)
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a multiple of 3", len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("index %d at position %d out of range (%d vertices)", idx, i, n)
		}
	}
	return nil
}
