package world

import "fmt"

// Cell is one board position. Height is the top of the tile at that position.
type Cell struct {
	Height float32 `json:"height"`
}

// Board holds the per-cell heights of a level, row-major.
// Rows and columns follow the (q, r) ranges the level was built from:
// row i, column j is the hex NewHexCoord(i, j).
type Board struct {
	Rows  int      `json:"rows"`
	Cols  int      `json:"cols"`
	Cells [][]Cell `json:"cells"`
}

// NewBoard creates a zero-height board of the given dimensions.
func NewBoard(rows, cols int) *Board {
	b := &Board{
		Rows:  rows,
		Cols:  cols,
		Cells: make([][]Cell, rows),
	}
	for i := range b.Cells {
		b.Cells[i] = make([]Cell, cols)
	}
	return b
}

// InBounds returns true if (row, col) is on the board.
func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.Rows && col >= 0 && col < b.Cols
}

// At returns the cell at (row, col), or false if out of bounds.
func (b *Board) At(row, col int) (Cell, bool) {
	if !b.InBounds(row, col) {
		return Cell{}, false
	}
	return b.Cells[row][col], true
}

// Set stores a cell at (row, col). Panics if out of bounds.
func (b *Board) Set(row, col int, c Cell) {
	b.Cells[row][col] = c
}

// StandingHeight returns the vertical position for an entity resting on
// (row, col), lifted by lift above the tile top.
func (b *Board) StandingHeight(row, col int, lift float32) (float32, bool) {
	c, ok := b.At(row, col)
	if !ok {
		return 0, false
	}
	return c.Height + lift, true
}

// SpawnCell returns the centre cell, where a player starts a level.
func (b *Board) SpawnCell() (row, col int) {
	return b.Rows / 2, b.Cols / 2
}

// RandomCellExcluding picks a uniformly random cell other than (exRow, exCol).
// On a one-cell board the only cell is returned.
func (b *Board) RandomCellExcluding(src Source, exRow, exCol int) (row, col int) {
	if b.Rows*b.Cols <= 1 {
		return 0, 0
	}
	for {
		row = src.Intn(b.Rows)
		col = src.Intn(b.Cols)
		if row != exRow || col != exCol {
			return row, col
		}
	}
}

// CellCount returns the total number of cells on the board.
func (b *Board) CellCount() int {
	return b.Rows * b.Cols
}

// String returns a summary of the board.
func (b *Board) String() string {
	return fmt.Sprintf("Board(%dx%d, cells=%d)", b.Rows, b.Cols, b.CellCount())
}
