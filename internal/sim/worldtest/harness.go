// Package worldtest drives a world and an agent through scripted boards
// using exported APIs only.
package worldtest

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"wumpusworld.ai/internal/agent"
	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/grid"
	"wumpusworld.ai/internal/sim/world"
)

var ErrBadBoard = errors.New("bad board")

// ParseBoard reads a square board drawn top row first. Each cell is one
// whitespace-separated token built from P (pit), W (wumpus), G (gold), A
// (agent, start cell only) or "." for empty; "GP" puts the gold in a pit.
func ParseBoard(s string) (world.Config, world.Layout, error) {
	var rows [][]string
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if f := strings.Fields(line); len(f) > 0 {
			rows = append(rows, f)
		}
	}
	n := len(rows)
	if n < 2 {
		return world.Config{}, world.Layout{}, fmt.Errorf("%w: %d rows", ErrBadBoard, n)
	}

	var (
		l            world.Layout
		wumpus, gold int
		cfg          = world.Config{GridSize: n}
	)
	for i, f := range rows {
		if len(f) != n {
			return cfg, l, fmt.Errorf("%w: row %d has %d cells, want %d", ErrBadBoard, i+1, len(f), n)
		}
		row := n - i
		for j, tok := range f {
			c := grid.Cell{Col: j + 1, Row: row}
			if tok == "." {
				continue
			}
			for _, r := range tok {
				switch r {
				case 'P':
					l.Pits = append(l.Pits, c)
				case 'W':
					l.Wumpus = c
					wumpus++
				case 'G':
					l.Gold = c
					gold++
				case 'A':
					if c != grid.Start {
						return cfg, l, fmt.Errorf("%w: agent at %s", ErrBadBoard, c)
					}
				default:
					return cfg, l, fmt.Errorf("%w: token %q at %s", ErrBadBoard, tok, c)
				}
			}
		}
	}
	if wumpus != 1 || gold != 1 {
		return cfg, l, fmt.Errorf("%w: %d wumpus and %d gold, want one each", ErrBadBoard, wumpus, gold)
	}
	return cfg, l, nil
}

// Harness pairs a world built from a board with a fresh agent.
type Harness struct {
	T     *testing.T
	W     *world.World
	Agent *agent.Context

	Actions  []protocol.Action
	Percepts []protocol.Percept
	Digests  []string
}

// NewHarness builds the board. mut may adjust the agent config before the
// agent is created.
func NewHarness(t *testing.T, board string, mut func(*agent.Config)) *Harness {
	t.Helper()
	cfg, l, err := ParseBoard(board)
	if err != nil {
		t.Fatalf("ParseBoard: %v", err)
	}
	w, err := world.NewFromLayout(cfg, l)
	if err != nil {
		t.Fatalf("world.NewFromLayout: %v", err)
	}
	acfg := agent.Config{
		GridSize:        cfg.GridSize,
		Seed:            1,
		MaxGambles:      agent.DefaultMaxGambles,
		AssumeOneWumpus: true,
	}
	if mut != nil {
		mut(&acfg)
	}
	a, err := agent.New(acfg)
	if err != nil {
		t.Fatalf("agent.New: %v", err)
	}
	return &Harness{T: t, W: w, Agent: a}
}

// Apply bypasses the agent and feeds scripted actions to the world. It
// returns the percept after the last one.
func (h *Harness) Apply(acts ...protocol.Action) protocol.Percept {
	h.T.Helper()
	for _, a := range acts {
		h.apply(a)
	}
	return h.W.Percept()
}

func (h *Harness) apply(a protocol.Action) world.Outcome {
	h.T.Helper()
	out, err := h.W.Apply(a)
	if err != nil {
		h.T.Fatalf("apply %s at turn %d: %v", a, h.W.Turn()+1, err)
	}
	h.Actions = append(h.Actions, a)
	h.Digests = append(h.Digests, h.W.Digest())
	return out
}

// Step lets the agent choose one action and applies it.
func (h *Harness) Step() world.Outcome {
	h.T.Helper()
	p := h.W.Percept()
	a, err := h.Agent.Next(p)
	if err != nil {
		h.T.Fatalf("agent at turn %d: %v", h.W.Turn()+1, err)
	}
	h.Percepts = append(h.Percepts, p)
	return h.apply(a)
}

// Run steps the agent until the episode ends, failing the test after
// maxTurns.
func (h *Harness) Run(maxTurns int) protocol.Reason {
	h.T.Helper()
	for i := 0; i < maxTurns; i++ {
		if reason, done := h.W.Terminal(); done {
			return reason
		}
		h.Step()
	}
	if reason, done := h.W.Terminal(); done {
		return reason
	}
	h.T.Fatalf("episode still running after %d turns; actions %v", maxTurns, h.Actions)
	return protocol.ReasonNone
}
