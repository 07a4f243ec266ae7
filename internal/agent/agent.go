// Package agent is the knowledge-based Wumpus World player. A Context owns
// one episode's knowledge base, random source and bookkeeping; contexts share
// nothing, so episodes can run side by side.
package agent

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"wumpusworld.ai/internal/logic"
	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/axioms"
	"wumpusworld.ai/internal/sim/grid"
)

type Context struct {
	cfg Config
	n   int
	kb  *logic.KB
	rng *rand.Rand
	log *zap.Logger

	// The agent's own model of its body, updated from its actions and the
	// bump percept.
	loc        grid.Cell
	facing     grid.Orientation
	hasArrow   bool
	hasGold    bool
	wumpusDead bool

	visited grid.Set
	pending []protocol.Action
	last    protocol.Action

	gambles    int
	retreating bool
}

// New builds a context and tells the background axioms.
func New(cfg Config) (*Context, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	kb := logic.NewKB(logic.WithMethod(cfg.Method), logic.WithEnumerationLimit(cfg.EnumerationLimit))
	if err := axioms.TellAll(kb, axioms.Background(cfg.GridSize)); err != nil {
		return nil, fmt.Errorf("tell background: %w", err)
	}
	if cfg.AssumeOneWumpus {
		if err := axioms.TellAll(kb, axioms.OneWumpus(cfg.GridSize)); err != nil {
			return nil, fmt.Errorf("tell one wumpus: %w", err)
		}
	}
	return &Context{
		cfg:      cfg,
		n:        cfg.GridSize,
		kb:       kb,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		log:      cfg.Logger,
		loc:      grid.Start,
		facing:   grid.East,
		hasArrow: true,
		visited:  grid.NewSet(),
	}, nil
}

func (c *Context) Location() grid.Cell        { return c.loc }
func (c *Context) Facing() grid.Orientation   { return c.facing }
func (c *Context) HasGold() bool              { return c.hasGold }
func (c *Context) HasArrow() bool             { return c.hasArrow }
func (c *Context) Gambles() int               { return c.gambles }
func (c *Context) Visited() []grid.Cell       { return c.visited.Sorted() }
func (c *Context) Pending() []protocol.Action { return append([]protocol.Action(nil), c.pending...) }
func (c *Context) Knowledge() *logic.KB       { return c.kb }

// Next consumes this turn's percept and returns the action to take.
func (c *Context) Next(p protocol.Percept) (protocol.Action, error) {
	c.observe(p)
	c.visited.Add(c.loc)
	facts := axioms.Facts(c.n, c.loc, p, axioms.FactOptions{WumpusDead: c.wumpusDead})
	if err := axioms.TellAll(c.kb, facts); err != nil {
		return "", fmt.Errorf("tell percept %s at %s: %w", p, c.loc, err)
	}

	a, why := c.decide(p)
	c.log.Debug("agent action",
		zap.String("cell", c.loc.String()),
		zap.String("facing", c.facing.String()),
		zap.String("percept", p.String()),
		zap.String("action", string(a)),
		zap.String("why", why),
	)
	c.emit(a)
	return a, nil
}

// observe mirrors the effect of the previous action. A bump means the last
// move did not happen.
func (c *Context) observe(p protocol.Percept) {
	switch c.last {
	case protocol.ActMove:
		if !p.Bump {
			c.loc = c.loc.Step(c.facing)
		} else {
			c.pending = nil
		}
	case protocol.ActTurnLeft:
		c.facing = c.facing.Left()
	case protocol.ActTurnRight:
		c.facing = c.facing.Right()
	}
	if p.Scream && !c.wumpusDead {
		c.wumpusDead = true
		c.log.Debug("wumpus dead", zap.String("cell", c.loc.String()))
	}
}

func (c *Context) emit(a protocol.Action) {
	c.last = a
	switch a {
	case protocol.ActShoot:
		c.hasArrow = false
	case protocol.ActGrab:
		c.hasGold = true
	}
}

func (c *Context) pop() protocol.Action {
	a := c.pending[0]
	c.pending = c.pending[1:]
	return a
}

func (c *Context) enqueue(acts []protocol.Action) protocol.Action {
	c.pending = append(c.pending[:0], acts...)
	return c.pop()
}

func (c *Context) decide(p protocol.Percept) (protocol.Action, string) {
	if p.Glitter && !c.hasGold {
		c.pending = nil
		return protocol.ActGrab, "glitter"
	}
	if c.hasGold {
		return c.homeward(), "carrying gold"
	}
	if c.retreating {
		return c.homeward(), "retreat"
	}
	if len(c.pending) > 0 {
		return c.pop(), "plan"
	}

	safe := c.safeFrontier()
	for _, cell := range safe {
		if grid.Adjacent(cell, c.loc) {
			return c.enqueue(stepActions(c.facing, c.loc, cell)), "safe " + cell.String()
		}
	}

	if a, ok := c.hunt(); ok {
		return a, "hunt"
	}

	if c.cfg.Fallback == FallbackExplore {
		if route, ok := c.routeToSafe(safe); ok {
			return c.enqueue(routeActions(c.facing, route)), "route " + route[len(route)-1].String()
		}
		if c.gambles < c.cfg.MaxGambles {
			c.gambles++
			return c.gamble(), fmt.Sprintf("gamble %d/%d", c.gambles, c.cfg.MaxGambles)
		}
	}
	c.retreating = true
	return c.homeward(), "retreat"
}

// Frontier lists the unvisited neighbours of visited cells, sorted.
func (c *Context) Frontier() []grid.Cell {
	f := grid.NewSet()
	for v := range c.visited {
		for _, nb := range grid.Neighbors(v, c.n) {
			if !c.visited.Has(nb) {
				f.Add(nb)
			}
		}
	}
	return f.Sorted()
}

// safeFrontier keeps the frontier cells whose safety is entailed.
func (c *Context) safeFrontier() []grid.Cell {
	var out []grid.Cell
	for _, cell := range c.Frontier() {
		if c.kb.Ask(axioms.Safe(c.n, cell, c.wumpusDead)) == logic.Entailed {
			out = append(out, cell)
		}
	}
	return out
}

// hunt turns toward and shoots a wumpus whose cell is entailed and in line.
func (c *Context) hunt() (protocol.Action, bool) {
	if !c.hasArrow || c.wumpusDead {
		return "", false
	}
	for _, cell := range grid.Cells(c.n) {
		o, inLine := grid.Toward(c.loc, cell)
		if !inLine {
			continue
		}
		if c.kb.Ask(axioms.WumpusAt(c.n, cell)) != logic.Entailed {
			continue
		}
		acts := append(turnsToFace(c.facing, o), protocol.ActShoot)
		return c.enqueue(acts), true
	}
	return "", false
}

// gamble draws a random rotation or move. Moves are offered only when the
// cell ahead is inside the cave.
func (c *Context) gamble() protocol.Action {
	choices := []protocol.Action{protocol.ActTurnLeft, protocol.ActTurnRight}
	if grid.InBounds(c.loc.Step(c.facing), c.n) {
		choices = append(choices, protocol.ActMove)
	}
	return choices[c.rng.Intn(len(choices))]
}

// homeward follows the route to the start over visited cells and climbs.
func (c *Context) homeward() protocol.Action {
	if len(c.pending) > 0 {
		return c.pop()
	}
	if c.loc == grid.Start {
		return protocol.ActClimb
	}
	route := shortestRoute(c.n, c.loc, grid.Start, c.visited)
	if route == nil {
		// Unreachable: every visited cell was entered from a visited cell.
		return protocol.ActClimb
	}
	return c.enqueue(routeActions(c.facing, route))
}
