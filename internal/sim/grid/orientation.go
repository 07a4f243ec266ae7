package grid

import (
	"fmt"
	"strings"

	"wumpusworld.ai/internal/sim/mathx"
)

// Orientation is cyclic: a left turn adds one, a right turn subtracts one.
type Orientation int

const (
	East Orientation = iota
	North
	West
	South
)

var orientationNames = [...]string{"EAST", "NORTH", "WEST", "SOUTH"}

func (o Orientation) String() string {
	if o < East || o > South {
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
	return orientationNames[o]
}

func ParseOrientation(s string) (Orientation, error) {
	for i, name := range orientationNames {
		if strings.EqualFold(s, name) {
			return Orientation(i), nil
		}
	}
	return East, fmt.Errorf("unknown orientation %q", s)
}

func (o Orientation) Left() Orientation  { return Orientation(mathx.Mod(int(o)+1, 4)) }
func (o Orientation) Right() Orientation { return Orientation(mathx.Mod(int(o)-1, 4)) }

// Delta is the (dCol, dRow) unit step for o.
func (o Orientation) Delta() (int, int) {
	switch mathx.Mod(int(o), 4) {
	case 0:
		return 1, 0
	case 1:
		return 0, 1
	case 2:
		return -1, 0
	default:
		return 0, -1
	}
}

// Step returns the cell one unit ahead of c; it may lie outside the grid.
func (c Cell) Step(o Orientation) Cell {
	dc, dr := o.Delta()
	return c.Add(dc, dr)
}

// Toward reports the orientation pointing from a to b when both share a row
// or a column; ok is false for equal cells and for cells off any axis.
func Toward(a, b Cell) (o Orientation, ok bool) {
	switch {
	case a == b:
		return East, false
	case a.Row == b.Row && b.Col > a.Col:
		return East, true
	case a.Row == b.Row:
		return West, true
	case a.Col == b.Col && b.Row > a.Row:
		return North, true
	case a.Col == b.Col:
		return South, true
	}
	return East, false
}

// Ray lists the cells strictly ahead of c in direction o up to the grid edge.
func Ray(c Cell, o Orientation, n int) []Cell {
	var out []Cell
	for cur := c.Step(o); InBounds(cur, n); cur = cur.Step(o) {
		out = append(out, cur)
	}
	return out
}
