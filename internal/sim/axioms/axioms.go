// Package axioms turns grid geometry and percepts into sentences for the
// logic engine.
package axioms

import (
	"fmt"

	"wumpusworld.ai/internal/logic"
	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/grid"
)

// Atom prefixes.
const (
	Pit    = "P"
	Wumpus = "W"
	Breeze = "B"
	Stench = "S"
)

// Namer spells atom names for one grid size. Coordinates are concatenated on
// grids up to 9x9 (P12) and separated by an underscore above (P10_3), which
// keeps names unambiguous and parseable.
type Namer struct{ n int }

func NewNamer(n int) Namer { return Namer{n: n} }

func (nm Namer) Name(prefix string, c grid.Cell) string {
	if nm.n >= 10 {
		return fmt.Sprintf("%s%d_%d", prefix, c.Col, c.Row)
	}
	return fmt.Sprintf("%s%d%d", prefix, c.Col, c.Row)
}

func (nm Namer) Atom(prefix string, c grid.Cell) logic.Atom {
	return logic.A(nm.Name(prefix, c))
}

// Background returns the fixed axioms for an n x n cave: one breeze and one
// stench biconditional per cell, and the facts that the start cell holds no
// pit and no wumpus.
func Background(n int) []logic.Expr {
	nm := NewNamer(n)
	cells := grid.Cells(n)
	out := make([]logic.Expr, 0, 2*len(cells)+2)
	for _, c := range cells {
		out = append(out,
			around(nm, Breeze, Pit, c, n),
			around(nm, Stench, Wumpus, c, n),
		)
	}
	out = append(out,
		logic.Neg(nm.Atom(Pit, grid.Start)),
		logic.Neg(nm.Atom(Wumpus, grid.Start)),
	)
	return out
}

// around is sense(c) <=> hazard(nb1) | hazard(nb2) | ...; with no neighbour
// the disjunction is False.
func around(nm Namer, sense, hazard string, c grid.Cell, n int) logic.Expr {
	nbs := grid.Neighbors(c, n)
	xs := make([]logic.Expr, len(nbs))
	for i, nb := range nbs {
		xs[i] = nm.Atom(hazard, nb)
	}
	return logic.Equiv(nm.Atom(sense, c), logic.Disj(xs...))
}

// OneWumpus states that exactly one cell other than the start holds the
// wumpus. It lets the agent pin the wumpus down from two stenches.
func OneWumpus(n int) []logic.Expr {
	nm := NewNamer(n)
	var cells []grid.Cell
	for _, c := range grid.Cells(n) {
		if c != grid.Start {
			cells = append(cells, c)
		}
	}
	some := make([]logic.Expr, len(cells))
	for i, c := range cells {
		some[i] = nm.Atom(Wumpus, c)
	}
	out := []logic.Expr{logic.Disj(some...)}
	for i := range cells {
		for j := i + 1; j < len(cells); j++ {
			out = append(out, logic.Disj(
				logic.Neg(nm.Atom(Wumpus, cells[i])),
				logic.Neg(nm.Atom(Wumpus, cells[j])),
			))
		}
	}
	return out
}

// FactOptions carries what the agent already knows outside the logic engine.
type FactOptions struct {
	// WumpusDead suppresses stench facts: a dead wumpus stops smelling, so a
	// fresh ~S would contradict stench observed before the kill.
	WumpusDead bool
}

// Facts translates the percept observed at c. Bump, scream and glitter
// drive the agent directly and produce no sentences.
func Facts(n int, c grid.Cell, p protocol.Percept, opts FactOptions) []logic.Expr {
	nm := NewNamer(n)
	out := make([]logic.Expr, 0, 2)
	if !opts.WumpusDead && !p.Scream {
		out = append(out, logic.Lit(nm.Name(Stench, c), p.Stench))
	}
	out = append(out, logic.Lit(nm.Name(Breeze, c), p.Breeze))
	return out
}

// Safe is the query that c holds neither hazard; once the wumpus is dead
// only pits matter.
func Safe(n int, c grid.Cell, wumpusDead bool) logic.Expr {
	nm := NewNamer(n)
	if wumpusDead {
		return logic.Neg(nm.Atom(Pit, c))
	}
	return logic.Conj(logic.Neg(nm.Atom(Pit, c)), logic.Neg(nm.Atom(Wumpus, c)))
}

// WumpusAt is the query that the wumpus sits on c.
func WumpusAt(n int, c grid.Cell) logic.Expr {
	return NewNamer(n).Atom(Wumpus, c)
}

// TellAll tells every sentence, stopping at the first failure.
func TellAll(kb *logic.KB, es []logic.Expr) error {
	for _, e := range es {
		if err := kb.Tell(e); err != nil {
			return err
		}
	}
	return nil
}
