// Package grid holds the cave geometry shared by the world, the axiom
// translator and the agent: 1-indexed cells, orientations and 4-neighbourhoods.
package grid

import (
	"errors"
	"fmt"
	"sort"

	"wumpusworld.ai/internal/sim/mathx"
)

var ErrOutOfBounds = errors.New("cell out of bounds")

// Cell is a (column, row) pair. Row grows northwards; (1,1) is the start.
type Cell struct {
	Col int
	Row int
}

var Start = Cell{Col: 1, Row: 1}

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.Col, c.Row) }

// Less orders cells lexicographically by (Col, Row).
func (c Cell) Less(o Cell) bool {
	if c.Col != o.Col {
		return c.Col < o.Col
	}
	return c.Row < o.Row
}

func (c Cell) Add(dc, dr int) Cell { return Cell{Col: c.Col + dc, Row: c.Row + dr} }

func InBounds(c Cell, n int) bool {
	return c.Col >= 1 && c.Col <= n && c.Row >= 1 && c.Row <= n
}

// Check returns ErrOutOfBounds (wrapped with the cell) for cells outside [1,n]².
func Check(c Cell, n int) error {
	if !InBounds(c, n) {
		return fmt.Errorf("%w: %s on %dx%d grid", ErrOutOfBounds, c, n, n)
	}
	return nil
}

// Neighbors returns the in-bounds 4-neighbours of c in (Col, Row) order.
func Neighbors(c Cell, n int) []Cell {
	out := make([]Cell, 0, 4)
	for _, o := range [...]Orientation{West, South, North, East} {
		nb := c.Step(o)
		if InBounds(nb, n) {
			out = append(out, nb)
		}
	}
	return out
}

func Adjacent(a, b Cell) bool {
	return mathx.AbsInt(a.Col-b.Col)+mathx.AbsInt(a.Row-b.Row) == 1
}

// Cells lists every cell of an n×n grid, column-major.
func Cells(n int) []Cell {
	out := make([]Cell, 0, n*n)
	for col := 1; col <= n; col++ {
		for row := 1; row <= n; row++ {
			out = append(out, Cell{Col: col, Row: row})
		}
	}
	return out
}

func SortCells(cells []Cell) {
	sort.Slice(cells, func(i, j int) bool { return cells[i].Less(cells[j]) })
}

// Set is a small cell set with deterministic iteration via Sorted.
type Set map[Cell]struct{}

func NewSet(cells ...Cell) Set {
	s := make(Set, len(cells))
	for _, c := range cells {
		s[c] = struct{}{}
	}
	return s
}

func (s Set) Add(c Cell)    { s[c] = struct{}{} }
func (s Set) Len() int      { return len(s) }
func (s Set) Remove(c Cell) { delete(s, c) }

func (s Set) Has(c Cell) bool {
	_, ok := s[c]
	return ok
}

func (s Set) Sorted() []Cell {
	out := make([]Cell, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	SortCells(out)
	return out
}
