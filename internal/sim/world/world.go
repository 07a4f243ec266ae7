// Package world holds the Wumpus World state and its transition rules. A
// World is driven by one goroutine: Percept and Apply alternate, and
// readers take a Snapshot between turns.
package world

import (
	"fmt"
	"math/rand"

	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/grid"
)

// Agent is the world-side body of the agent.
type Agent struct {
	Loc      grid.Cell
	Facing   grid.Orientation
	Alive    bool
	HasArrow bool
	InCave   bool
	Bump     bool
}

type Wumpus struct {
	Loc   grid.Cell
	Alive bool
}

type Gold struct {
	Loc     grid.Cell
	Grabbed bool
}

// Layout places hazards explicitly instead of drawing them from the seed.
type Layout struct {
	Pits   []grid.Cell
	Wumpus grid.Cell
	Gold   grid.Cell
}

type World struct {
	cfg Config

	pits     grid.Set
	wumpus   Wumpus
	screamed bool
	gold     Gold
	agent    Agent

	turn     int
	score    int
	terminal protocol.Reason
}

// New draws a fresh episode from cfg.Seed. The random source is consumed
// here only: one Bernoulli trial per non-start cell in column-major order,
// then the wumpus cell, then the gold cell.
func New(cfg Config) (*World, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	candidates := nonStartCells(cfg.GridSize)

	var l Layout
	for _, c := range candidates {
		if rng.Float64() < cfg.PitProbability {
			l.Pits = append(l.Pits, c)
		}
	}
	l.Wumpus = candidates[rng.Intn(len(candidates))]
	l.Gold = candidates[rng.Intn(len(candidates))]
	return newWorld(cfg, l), nil
}

// NewFromLayout builds an episode with the given placements. Hazards and
// gold must be in bounds and off the start cell.
func NewFromLayout(cfg Config, l Layout) (*World, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	check := func(what string, c grid.Cell) error {
		if err := grid.Check(c, cfg.GridSize); err != nil {
			return fmt.Errorf("%s: %w", what, err)
		}
		if c == grid.Start {
			return fmt.Errorf("%w: %s on the start cell", ErrInvalidConfig, what)
		}
		return nil
	}
	for _, p := range l.Pits {
		if err := check("pit", p); err != nil {
			return nil, err
		}
	}
	if err := check("wumpus", l.Wumpus); err != nil {
		return nil, err
	}
	if err := check("gold", l.Gold); err != nil {
		return nil, err
	}
	return newWorld(cfg, l), nil
}

func newWorld(cfg Config, l Layout) *World {
	return &World{
		cfg:    cfg,
		pits:   grid.NewSet(l.Pits...),
		wumpus: Wumpus{Loc: l.Wumpus, Alive: true},
		gold:   Gold{Loc: l.Gold},
		agent: Agent{
			Loc:      grid.Start,
			Facing:   grid.East,
			Alive:    true,
			HasArrow: true,
			InCave:   true,
		},
	}
}

func nonStartCells(n int) []grid.Cell {
	all := grid.Cells(n)
	out := make([]grid.Cell, 0, len(all)-1)
	for _, c := range all {
		if c != grid.Start {
			out = append(out, c)
		}
	}
	return out
}

func (w *World) Config() Config { return w.cfg }
func (w *World) Turn() int      { return w.turn }
func (w *World) Score() int     { return w.score }

// Terminal reports the terminal reason once the episode has ended.
func (w *World) Terminal() (protocol.Reason, bool) {
	return w.terminal, w.terminal != protocol.ReasonNone
}

// Percept is computed from the current state only.
func (w *World) Percept() protocol.Percept {
	a := w.agent
	p := protocol.Percept{
		Bump:   a.Bump,
		Scream: w.screamed,
	}
	for _, nb := range grid.Neighbors(a.Loc, w.cfg.GridSize) {
		if w.pits.Has(nb) {
			p.Breeze = true
		}
	}
	if w.wumpus.Alive && (a.Loc == w.wumpus.Loc || grid.Adjacent(a.Loc, w.wumpus.Loc)) {
		p.Stench = true
	}
	if a.Loc == w.gold.Loc && !w.gold.Grabbed && !w.goldInPit() {
		p.Glitter = true
	}
	return p
}

func (w *World) goldInPit() bool { return w.pits.Has(w.gold.Loc) }

// CellInfo describes what a cell holds.
type CellInfo struct {
	Pit    bool
	Wumpus bool
	Gold   bool
	Agent  bool
}

// Inspect reports the contents of c; cells outside the grid are an error.
func (w *World) Inspect(c grid.Cell) (CellInfo, error) {
	if err := grid.Check(c, w.cfg.GridSize); err != nil {
		return CellInfo{}, err
	}
	return CellInfo{
		Pit:    w.pits.Has(c),
		Wumpus: w.wumpus.Loc == c,
		Gold:   w.gold.Loc == c && !w.gold.Grabbed,
		Agent:  w.agent.Loc == c,
	}, nil
}
