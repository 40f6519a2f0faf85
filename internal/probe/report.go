package probe

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// Report holds terrain statistics derived from a LevelSnapshot.
// Computed locally, no further requests.
type Report struct {
	Cells      int
	Counts     map[string]int // per category name
	WaterShare float64        // fraction of cells tagged water
	MinHeight  float32
	MaxHeight  float32
	MeanHeight float64
	SpawnWater bool // spawn cell is a water tile
	Problems   []string
}

// Analyze computes a Report and checks the snapshot for inconsistencies
// between status, board and placements.
func Analyze(snap *LevelSnapshot) *Report {
	r := &Report{
		Cells:     len(snap.Placements),
		Counts:    make(map[string]int),
		MinHeight: float32(math.Inf(1)),
		MaxHeight: float32(math.Inf(-1)),
	}

	if r.Cells != snap.Status.Cells {
		r.problem("status reports %d cells, level has %d placements", snap.Status.Cells, r.Cells)
	}
	if snap.Board.Rows*snap.Board.Cols > 1 && snap.Board.Bonus == snap.Board.Spawn {
		r.problem("bonus cell (%d,%d) is the spawn cell", snap.Board.Bonus[0], snap.Board.Bonus[1])
	}
	if len(snap.Board.Heights) != snap.Board.Rows {
		r.problem("board has %d height rows, want %d", len(snap.Board.Heights), snap.Board.Rows)
	}

	var water int
	var sum float64
	for i, p := range snap.Placements {
		r.Counts[p.Category]++
		if p.Water {
			water++
		}
		if p.Q+p.R+p.S != 0 {
			r.problem("placement %d has coord (%d,%d,%d) off the zero-sum plane", i, p.Q, p.R, p.S)
		}

		if p.Row < 0 || p.Row >= len(snap.Board.Heights) || p.Col < 0 || p.Col >= len(snap.Board.Heights[p.Row]) {
			r.problem("placement %d at (%d,%d) is off the board", i, p.Row, p.Col)
			continue
		}
		h := snap.Board.Heights[p.Row][p.Col]
		if p.Position[1] != h {
			r.problem("placement (%d,%d) sits at y=%v, board height %v", p.Row, p.Col, p.Position[1], h)
		}
		r.MinHeight = min(r.MinHeight, h)
		r.MaxHeight = max(r.MaxHeight, h)
		sum += float64(h)

		if p.Row == snap.Board.Spawn[0] && p.Col == snap.Board.Spawn[1] {
			r.SpawnWater = p.Water
		}
	}

	for name, n := range snap.Status.Categories {
		if r.Counts[name] != n {
			r.problem("status reports %d %s tiles, level has %d", n, name, r.Counts[name])
		}
	}

	if r.Cells > 0 {
		r.WaterShare = float64(water) / float64(r.Cells)
		r.MeanHeight = sum / float64(r.Cells)
	} else {
		r.MinHeight, r.MaxHeight = 0, 0
	}
	return r
}

func (r *Report) problem(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// Healthy reports whether Analyze found no inconsistencies.
func (r *Report) Healthy() bool {
	return len(r.Problems) == 0
}

// Format renders the report as plain text for the terminal.
func Format(snap *LevelSnapshot, r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Level %s (seed %d, %s terrain, built %s)\n",
		snap.Status.LevelID, snap.Status.Seed, snap.Status.Terrain, snap.Status.Built)
	fmt.Fprintf(&b, "Board %dx%d, %s cells, spawn (%d,%d), bonus (%d,%d)\n",
		snap.Board.Rows, snap.Board.Cols, humanize.Comma(int64(r.Cells)),
		snap.Board.Spawn[0], snap.Board.Spawn[1], snap.Board.Bonus[0], snap.Board.Bonus[1])
	fmt.Fprintf(&b, "Mesh %d vertices, %d triangles, %s\n",
		snap.Status.Mesh.Vertices, snap.Status.Mesh.Triangles, snap.Status.Mesh.Size)
	for _, name := range []string{"Water", "Grass", "Hill"} {
		fmt.Fprintf(&b, "  %-6s %4d\n", name, r.Counts[name])
	}
	fmt.Fprintf(&b, "Water share %.0f%%, heights %.3f..%.3f (mean %.3f)\n",
		r.WaterShare*100, r.MinHeight, r.MaxHeight, r.MeanHeight)
	if r.SpawnWater {
		b.WriteString("Spawn cell is water\n")
	}
	if r.Healthy() {
		b.WriteString("OK\n")
	} else {
		for _, p := range r.Problems {
			fmt.Fprintf(&b, "PROBLEM: %s\n", p)
		}
	}
	return b.String()
}
