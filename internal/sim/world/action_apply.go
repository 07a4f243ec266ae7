package world

import (
	"fmt"

	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/grid"
)

// Score deltas.
const (
	StepCost   = -1
	ArrowCost  = -10
	DeathCost  = -1000
	GoldReward = 1000
)

// Outcome summarises one applied action.
type Outcome struct {
	Action   protocol.Action
	Turn     int
	Delta    int
	Score    int
	Bumped   bool
	Killed   bool
	Terminal protocol.Reason
}

// Apply executes one action. Every call costs StepCost and advances the turn
// exactly once. Walls, empty shots, grabbing nothing and climbing away from
// the start cell are ordinary no-ops; only calling Apply after the episode
// ended, or with an unknown action, is an error.
func (w *World) Apply(a protocol.Action) (Outcome, error) {
	if w.terminal != protocol.ReasonNone {
		return Outcome{}, fmt.Errorf("apply %s: %w", a, ErrEpisodeOver)
	}
	if !a.Valid() {
		return Outcome{}, fmt.Errorf("apply: %w: %q", protocol.ErrUnknownAction, string(a))
	}

	before := w.score
	out := Outcome{Action: a}
	w.turn++
	w.score += StepCost
	w.agent.Bump = false

	switch a {
	case protocol.ActTurnLeft:
		w.agent.Facing = w.agent.Facing.Left()
	case protocol.ActTurnRight:
		w.agent.Facing = w.agent.Facing.Right()
	case protocol.ActMove:
		w.move()
		out.Bumped = w.agent.Bump
	case protocol.ActGrab:
		if w.agent.Loc == w.gold.Loc && !w.gold.Grabbed && !w.goldInPit() {
			w.gold.Grabbed = true
		}
	case protocol.ActShoot:
		out.Killed = w.shoot()
	case protocol.ActClimb:
		w.climb()
	}

	out.Turn = w.turn
	out.Score = w.score
	out.Delta = w.score - before
	out.Terminal = w.terminal
	return out, nil
}

func (w *World) move() {
	next := w.agent.Loc.Step(w.agent.Facing)
	if !grid.InBounds(next, w.cfg.GridSize) {
		w.agent.Bump = true
		return
	}
	w.agent.Loc = next
	if w.pits.Has(next) || (w.wumpus.Alive && w.wumpus.Loc == next) {
		w.agent.Alive = false
		w.score += DeathCost
		w.terminal = protocol.ReasonDied
	}
}

func (w *World) shoot() bool {
	if !w.agent.HasArrow {
		return false
	}
	w.agent.HasArrow = false
	w.score += ArrowCost
	if !w.wumpus.Alive {
		return false
	}
	for _, c := range grid.Ray(w.agent.Loc, w.agent.Facing, w.cfg.GridSize) {
		if c == w.wumpus.Loc {
			w.wumpus.Alive = false
			w.screamed = true
			return true
		}
	}
	return false
}

func (w *World) climb() {
	if w.agent.Loc != grid.Start {
		return
	}
	w.agent.InCave = false
	if w.gold.Grabbed {
		w.score += GoldReward
		w.terminal = protocol.ReasonClimbedWithGold
		return
	}
	w.terminal = protocol.ReasonClimbedEmpty
}

// EndTurnLimit closes a running episode that ran out of turns. It changes no
// score and is a no-op once the episode has ended.
func (w *World) EndTurnLimit() {
	if w.terminal == protocol.ReasonNone {
		w.terminal = protocol.ReasonTurnLimit
	}
}
