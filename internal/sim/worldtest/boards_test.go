package worldtest

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpusworld.ai/internal/agent"
	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/grid"
	"wumpusworld.ai/internal/sim/world"
)

// classic is the textbook 4x4 layout.
const classic = `
. . . P
W G P .
. . . .
A . P .
`

func c(col, row int) grid.Cell { return grid.Cell{Col: col, Row: row} }

func TestParseBoard(t *testing.T) {
	cfg, l, err := ParseBoard(classic)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.GridSize)
	want := world.Layout{
		Pits:   []grid.Cell{c(4, 4), c(3, 3), c(3, 1)},
		Wumpus: c(1, 3),
		Gold:   c(2, 3),
	}
	if diff := cmp.Diff(want, l); diff != "" {
		t.Fatalf("layout (-want +got):\n%s", diff)
	}

	_, l, err = ParseBoard("W GP\nA .")
	require.NoError(t, err)
	assert.Equal(t, c(2, 2), l.Gold)
	assert.Equal(t, []grid.Cell{c(2, 2)}, l.Pits)
}

func TestParseBoard_Rejects(t *testing.T) {
	bad := []string{
		"A",
		". .\nA",
		"W G\nA X",
		". G\nA .",
		"W G\nA W",
		"A G\n. W",
	}
	for _, b := range bad {
		_, _, err := ParseBoard(b)
		assert.True(t, errors.Is(err, ErrBadBoard), "%q: %v", b, err)
	}
}

func TestClassic_ScriptedWalk(t *testing.T) {
	h := NewHarness(t, classic, nil)
	assert.Equal(t, protocol.Percept{}, h.W.Percept())

	assert.Equal(t, protocol.Percept{Breeze: true}, h.Apply(protocol.ActMove))
	assert.Equal(t, protocol.Percept{}, h.Apply(protocol.ActTurnLeft, protocol.ActTurnLeft, protocol.ActMove))
	assert.Equal(t, protocol.Percept{Stench: true}, h.Apply(protocol.ActTurnRight, protocol.ActMove))
	assert.Equal(t, protocol.Percept{}, h.Apply(protocol.ActTurnRight, protocol.ActMove))
	assert.Equal(t, protocol.Percept{Breeze: true, Stench: true, Glitter: true},
		h.Apply(protocol.ActTurnLeft, protocol.ActMove))

	assert.Equal(t, protocol.Percept{Breeze: true, Stench: true}, h.Apply(protocol.ActGrab))
	assert.Equal(t, protocol.Percept{Breeze: true, Scream: true},
		h.Apply(protocol.ActTurnLeft, protocol.ActShoot))

	// The scream stays on for the rest of the episode.
	assert.Equal(t, protocol.Percept{Scream: true}, h.Apply(protocol.ActTurnLeft, protocol.ActMove))
	assert.Equal(t, protocol.Percept{Breeze: true, Scream: true}, h.Apply(protocol.ActMove))
	assert.Equal(t, protocol.Percept{Scream: true}, h.Apply(protocol.ActTurnRight, protocol.ActMove))
	h.Apply(protocol.ActClimb)

	reason, done := h.W.Terminal()
	require.True(t, done)
	assert.Equal(t, protocol.ReasonClimbedWithGold, reason)
	assert.Len(t, h.Actions, 19)
	assert.Equal(t, -19+world.ArrowCost+world.GoldReward, h.W.Score())
}

func TestClassic_AgentNeverDiesWithoutGambling(t *testing.T) {
	for seed := int64(1); seed <= 8; seed++ {
		h := NewHarness(t, classic, func(cfg *agent.Config) { cfg.Seed = seed })
		reason := h.Run(300)
		if reason == protocol.ReasonDied {
			assert.Positive(t, h.Agent.Gambles(), "seed %d died on a provably safe route: %v", seed, h.Actions)
		}
	}
}

func TestOpenBoard_AgentFindsGold(t *testing.T) {
	h := NewHarness(t, `
. . . W
. . G .
. . . .
A . . .
`, nil)
	assert.Equal(t, protocol.ReasonClimbedWithGold, h.Run(300))
	assert.Zero(t, h.Agent.Gambles())
	assert.Greater(t, h.W.Score(), 900)
}

func TestGoldInPit_AgentLeavesEmptyHanded(t *testing.T) {
	// The gold sits in the only pit; it never glitters and the agent can
	// never prove its cell safe.
	h := NewHarness(t, `
. . . .
. . . W
. . GP .
A . . .
`, func(cfg *agent.Config) { cfg.Fallback = agent.FallbackRetreat })
	reason := h.Run(300)
	assert.Equal(t, protocol.ReasonClimbedEmpty, reason)
	for _, p := range h.Percepts {
		assert.False(t, p.Glitter)
	}
}

func TestDeterminism_SameBoardSameDigests(t *testing.T) {
	run := func() *Harness {
		h := NewHarness(t, classic, func(cfg *agent.Config) { cfg.Seed = 42 })
		h.Run(300)
		return h
	}
	a, b := run(), run()
	assert.Equal(t, a.Actions, b.Actions)
	if diff := cmp.Diff(a.Digests, b.Digests); diff != "" {
		t.Fatalf("digest streams differ (-first +second):\n%s", diff)
	}
}
