package world

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/grid"
)

func cell(c, r int) grid.Cell { return grid.Cell{Col: c, Row: r} }

func mustLayout(t *testing.T, l Layout) *World {
	t.Helper()
	w, err := NewFromLayout(Config{GridSize: 4}, l)
	require.NoError(t, err)
	return w
}

func apply(t *testing.T, w *World, acts ...protocol.Action) Outcome {
	t.Helper()
	var out Outcome
	for _, a := range acts {
		var err error
		out, err = w.Apply(a)
		require.NoError(t, err, a)
	}
	return out
}

func TestNew_ValidatesConfig(t *testing.T) {
	for _, cfg := range []Config{
		{GridSize: 1},
		{GridSize: 4, PitProbability: -0.1},
		{GridSize: 4, PitProbability: 1.5},
	} {
		_, err := New(cfg)
		assert.True(t, errors.Is(err, ErrInvalidConfig), "%+v: %v", cfg, err)
	}
	w, err := New(Config{Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, DefaultGridSize, w.Config().GridSize)
}

func TestNew_DeterministicBySeed(t *testing.T) {
	cfg := Config{Seed: 99, GridSize: 5, PitProbability: 0.3}
	a, err := New(cfg)
	require.NoError(t, err)
	b, err := New(cfg)
	require.NoError(t, err)
	if diff := cmp.Diff(a.Snapshot(), b.Snapshot()); diff != "" {
		t.Fatalf("same seed, different worlds (-a +b):\n%s", diff)
	}
	assert.Equal(t, a.Digest(), b.Digest())

	seen := map[string]bool{}
	for seed := int64(0); seed < 20; seed++ {
		w, err := New(Config{Seed: seed, GridSize: 4, PitProbability: 0.2})
		require.NoError(t, err)
		seen[w.Digest()] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestNew_StartCellNeverHazard(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		w, err := New(Config{Seed: seed, GridSize: 4, PitProbability: 1})
		require.NoError(t, err)
		s := w.Snapshot()
		assert.NotEqual(t, grid.Start, s.Wumpus.Loc)
		assert.NotEqual(t, grid.Start, s.Gold.Loc)
		assert.Len(t, s.Pits, 15)
		for _, p := range s.Pits {
			assert.NotEqual(t, grid.Start, p)
		}
	}
}

func TestNoPits_NoBreezeAnywhere(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		w, err := New(Config{Seed: seed, GridSize: 4, PitProbability: 0})
		require.NoError(t, err)
		require.Empty(t, w.Snapshot().Pits)
		for _, c := range grid.Cells(4) {
			w.agent.Loc = c
			assert.False(t, w.Percept().Breeze, "seed %d cell %s", seed, c)
		}
	}
}

func TestNewFromLayout_Rejects(t *testing.T) {
	_, err := NewFromLayout(Config{GridSize: 4}, Layout{Wumpus: cell(5, 1), Gold: cell(2, 2)})
	assert.True(t, errors.Is(err, grid.ErrOutOfBounds), "%v", err)

	_, err = NewFromLayout(Config{GridSize: 4}, Layout{Wumpus: cell(2, 1), Gold: cell(2, 2), Pits: []grid.Cell{grid.Start}})
	assert.True(t, errors.Is(err, ErrInvalidConfig), "%v", err)
}

func TestInitialState(t *testing.T) {
	w := mustLayout(t, Layout{Wumpus: cell(3, 3), Gold: cell(4, 4)})
	s := w.Snapshot()
	assert.Equal(t, Agent{Loc: grid.Start, Facing: grid.East, Alive: true, HasArrow: true, InCave: true}, s.Agent)
	assert.Zero(t, s.Score)
	assert.Zero(t, s.Turn)
	assert.Equal(t, protocol.Percept{}, w.Percept())
	_, done := w.Terminal()
	assert.False(t, done)
}

func TestPercept_BreezeStenchGlitter(t *testing.T) {
	w := mustLayout(t, Layout{Pits: []grid.Cell{cell(3, 1)}, Wumpus: cell(1, 3), Gold: cell(2, 2)})

	apply(t, w, protocol.ActMove) // (2,1), next to the pit
	assert.Equal(t, protocol.Percept{Breeze: true}, w.Percept())

	apply(t, w, protocol.ActTurnLeft, protocol.ActMove) // (2,2): gold, next to nothing lethal
	assert.Equal(t, protocol.Percept{Glitter: true}, w.Percept())

	apply(t, w, protocol.ActTurnLeft, protocol.ActMove) // (1,2): wumpus above
	assert.Equal(t, protocol.Percept{Stench: true}, w.Percept())
}

func TestMove_IntoWallBumps(t *testing.T) {
	w := mustLayout(t, Layout{Wumpus: cell(4, 4), Gold: cell(4, 3)})
	apply(t, w, protocol.ActTurnRight) // South
	before := w.Score()

	out := apply(t, w, protocol.ActMove)
	assert.True(t, out.Bumped)
	assert.Equal(t, grid.Start, w.Snapshot().Agent.Loc)
	assert.Equal(t, before-1, w.Score())
	assert.Equal(t, -1, out.Delta)
	assert.True(t, w.Percept().Bump)

	apply(t, w, protocol.ActTurnLeft)
	assert.False(t, w.Percept().Bump)
}

func TestShoot_KillsWumpusAndScreamIsSticky(t *testing.T) {
	w := mustLayout(t, Layout{Wumpus: cell(4, 2), Gold: cell(1, 4)})
	// (1,1) -> (2,1) -> north to (2,2) -> face east.
	apply(t, w, protocol.ActMove, protocol.ActTurnLeft, protocol.ActMove, protocol.ActTurnRight)
	require.Equal(t, cell(2, 2), w.Snapshot().Agent.Loc)
	require.Equal(t, grid.East, w.Snapshot().Agent.Facing)

	before := w.Score()
	out := apply(t, w, protocol.ActShoot)
	assert.True(t, out.Killed)
	assert.Equal(t, before-11, w.Score())
	assert.False(t, w.Snapshot().Wumpus.Alive)
	assert.True(t, w.Percept().Scream)

	for _, a := range []protocol.Action{protocol.ActMove, protocol.ActTurnLeft, protocol.ActShoot, protocol.ActGrab} {
		apply(t, w, a)
		assert.True(t, w.Percept().Scream, "after %s", a)
		assert.False(t, w.Percept().Stench)
	}
}

func TestShoot_MissesAndEmptyQuiver(t *testing.T) {
	w := mustLayout(t, Layout{Wumpus: cell(3, 3), Gold: cell(4, 4)})
	out := apply(t, w, protocol.ActShoot)
	assert.False(t, out.Killed)
	assert.Equal(t, -11, w.Score())
	assert.False(t, w.Percept().Scream)

	out = apply(t, w, protocol.ActShoot)
	assert.Equal(t, -1, out.Delta)
	assert.Equal(t, -12, w.Score())
}

func TestMove_IntoPitDies(t *testing.T) {
	w := mustLayout(t, Layout{Pits: []grid.Cell{cell(2, 1)}, Wumpus: cell(4, 4), Gold: cell(3, 3)})
	out := apply(t, w, protocol.ActMove)
	assert.Equal(t, protocol.ReasonDied, out.Terminal)
	assert.Equal(t, -1001, w.Score())
	assert.False(t, w.Snapshot().Agent.Alive)

	_, err := w.Apply(protocol.ActClimb)
	assert.True(t, errors.Is(err, ErrEpisodeOver))
	assert.Equal(t, 1, w.Turn())
	assert.Equal(t, -1001, w.Score())
}

func TestMove_IntoDeadWumpusIsSafe(t *testing.T) {
	w := mustLayout(t, Layout{Wumpus: cell(2, 1), Gold: cell(3, 3)})
	apply(t, w, protocol.ActShoot, protocol.ActMove)
	_, done := w.Terminal()
	assert.False(t, done)
	assert.Equal(t, cell(2, 1), w.Snapshot().Agent.Loc)
}

func TestGrab_GoldInPitIsUngrabbable(t *testing.T) {
	w := mustLayout(t, Layout{Pits: []grid.Cell{cell(2, 1)}, Wumpus: cell(4, 4), Gold: cell(2, 1)})
	w.agent.Loc = cell(2, 1) // placed directly for the check
	assert.False(t, w.Percept().Glitter)
	apply(t, w, protocol.ActGrab)
	assert.False(t, w.Snapshot().Gold.Grabbed)
}

func TestClimb(t *testing.T) {
	w := mustLayout(t, Layout{Wumpus: cell(4, 4), Gold: cell(3, 3)})
	apply(t, w, protocol.ActMove, protocol.ActClimb)
	_, done := w.Terminal()
	assert.False(t, done, "climb away from start is a no-op")
	assert.True(t, w.Snapshot().Agent.InCave)

	apply(t, w, protocol.ActTurnLeft, protocol.ActTurnLeft, protocol.ActMove)
	out := apply(t, w, protocol.ActClimb)
	assert.Equal(t, protocol.ReasonClimbedEmpty, out.Terminal)
	assert.Equal(t, -6, w.Score())
	assert.False(t, w.Snapshot().Agent.InCave)
}

func TestFullEpisode_ClimbedWithGold(t *testing.T) {
	w := mustLayout(t, Layout{Wumpus: cell(4, 4), Gold: cell(2, 1)})
	script := []protocol.Action{
		protocol.ActMove,
		protocol.ActGrab,
		protocol.ActTurnLeft, protocol.ActTurnLeft,
		protocol.ActMove,
		protocol.ActClimb,
	}
	var out Outcome
	for i, a := range script {
		if i == 1 {
			assert.True(t, w.Percept().Glitter)
		}
		out = apply(t, w, a)
	}
	assert.True(t, w.Snapshot().Gold.Grabbed)
	assert.Equal(t, protocol.ReasonClimbedWithGold, out.Terminal)
	assert.Equal(t, 1000-len(script), w.Score())
	assert.Equal(t, len(script), w.Turn())
}

func TestApply_UnknownAction(t *testing.T) {
	w := mustLayout(t, Layout{Wumpus: cell(4, 4), Gold: cell(3, 3)})
	_, err := w.Apply(protocol.Action("JUMP"))
	assert.True(t, errors.Is(err, protocol.ErrUnknownAction))
	assert.Zero(t, w.Turn())
}

func TestEndTurnLimit(t *testing.T) {
	w := mustLayout(t, Layout{Wumpus: cell(4, 4), Gold: cell(3, 3)})
	apply(t, w, protocol.ActTurnLeft)
	w.EndTurnLimit()
	r, done := w.Terminal()
	assert.True(t, done)
	assert.Equal(t, protocol.ReasonTurnLimit, r)
	assert.Equal(t, -1, w.Score())
}

func TestInspect(t *testing.T) {
	w := mustLayout(t, Layout{Pits: []grid.Cell{cell(3, 1)}, Wumpus: cell(4, 4), Gold: cell(3, 3)})
	info, err := w.Inspect(cell(3, 1))
	require.NoError(t, err)
	assert.Equal(t, CellInfo{Pit: true}, info)
	_, err = w.Inspect(cell(0, 1))
	assert.True(t, errors.Is(err, grid.ErrOutOfBounds))
}

func TestDigest_ChangesWithState(t *testing.T) {
	w := mustLayout(t, Layout{Wumpus: cell(4, 4), Gold: cell(3, 3)})
	d0 := w.Digest()
	assert.Len(t, d0, 64)
	apply(t, w, protocol.ActTurnLeft)
	d1 := w.Digest()
	assert.NotEqual(t, d0, d1)
	assert.Equal(t, d1, w.Snapshot().Digest())
}

func TestSnapshot_Obs(t *testing.T) {
	w := mustLayout(t, Layout{Pits: []grid.Cell{cell(3, 1), cell(2, 4)}, Wumpus: cell(4, 4), Gold: cell(3, 3)})
	obs := w.Snapshot().Obs()
	assert.Equal(t, [2]int{1, 1}, obs.Agent)
	assert.Equal(t, "EAST", obs.Facing)
	assert.Equal(t, [][2]int{{2, 4}, {3, 1}}, obs.Pits)
}
