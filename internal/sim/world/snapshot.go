package world

import (
	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/grid"
)

// Snapshot is a value copy of the full state. Renderers and observers read
// snapshots; they never hold the World.
type Snapshot struct {
	Config   Config
	Turn     int
	Score    int
	Agent    Agent
	Wumpus   Wumpus
	Screamed bool
	Gold     Gold
	Pits     []grid.Cell
	Terminal protocol.Reason
}

func (w *World) Snapshot() Snapshot {
	return Snapshot{
		Config:   w.cfg,
		Turn:     w.turn,
		Score:    w.score,
		Agent:    w.agent,
		Wumpus:   w.wumpus,
		Screamed: w.screamed,
		Gold:     w.gold,
		Pits:     w.pits.Sorted(),
		Terminal: w.terminal,
	}
}

func cellPair(c grid.Cell) [2]int { return [2]int{c.Col, c.Row} }

// Obs converts the snapshot into its wire form.
func (s Snapshot) Obs() protocol.StateObs {
	pits := make([][2]int, 0, len(s.Pits))
	for _, p := range s.Pits {
		pits = append(pits, cellPair(p))
	}
	return protocol.StateObs{
		GridSize:    s.Config.GridSize,
		Turn:        s.Turn,
		Score:       s.Score,
		Agent:       cellPair(s.Agent.Loc),
		Facing:      s.Agent.Facing.String(),
		Alive:       s.Agent.Alive,
		HasArrow:    s.Agent.HasArrow,
		InCave:      s.Agent.InCave,
		Wumpus:      cellPair(s.Wumpus.Loc),
		WumpusAlive: s.Wumpus.Alive,
		Gold:        cellPair(s.Gold.Loc),
		GoldGrabbed: s.Gold.Grabbed,
		Pits:        pits,
	}
}
