package episode

import (
	"errors"
	"fmt"

	"wumpusworld.ai/internal/agent"
	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/tuning"
	"wumpusworld.ai/internal/sim/world"
)

var ErrReplayMismatch = errors.New("replay mismatch")

type ReplayOptions struct {
	// CheckAgent re-runs the agent from the header parameters and requires
	// it to choose every logged action again.
	CheckAgent bool
}

// Replay rebuilds the world from h, re-applies every logged action and
// compares percepts, scores, terminal flags and digests turn by turn. When
// res is non-nil the final result is compared too.
func Replay(h protocol.EpisodeHeader, turns []protocol.TurnRecord, res *protocol.ResultMsg, opts ReplayOptions) (Result, error) {
	ep := tuning.FromHeader(h)
	w, err := world.New(ep.World())
	if err != nil {
		return Result{}, fmt.Errorf("rebuild world: %w", err)
	}
	if got := w.Digest(); got != h.StartDigest {
		return Result{}, fmt.Errorf("%w: start digest %s, log has %s", ErrReplayMismatch, got, h.StartDigest)
	}

	var ag *agent.Context
	if opts.CheckAgent {
		if err := ep.Validate(); err != nil {
			return Result{}, fmt.Errorf("rebuild agent: %w", err)
		}
		if ag, err = agent.New(ep.AgentConfig()); err != nil {
			return Result{}, fmt.Errorf("rebuild agent: %w", err)
		}
	}

	for _, tr := range turns {
		p := w.Percept()
		if p != tr.Percept {
			return resultOf(w, h.EpisodeID), fmt.Errorf("%w: turn %d percept %s, log has %s", ErrReplayMismatch, tr.Turn, p, tr.Percept)
		}
		if ag != nil {
			a, err := ag.Next(p)
			if err != nil {
				return resultOf(w, h.EpisodeID), fmt.Errorf("turn %d agent: %w", tr.Turn, err)
			}
			if a != tr.Action {
				return resultOf(w, h.EpisodeID), fmt.Errorf("%w: turn %d agent chose %s, log has %s", ErrReplayMismatch, tr.Turn, a, tr.Action)
			}
		}
		out, err := w.Apply(tr.Action)
		if err != nil {
			return resultOf(w, h.EpisodeID), fmt.Errorf("turn %d: %w", tr.Turn, err)
		}
		switch {
		case out.Turn != tr.Turn:
			return resultOf(w, h.EpisodeID), fmt.Errorf("%w: turn %d replayed as %d", ErrReplayMismatch, tr.Turn, out.Turn)
		case out.Score != tr.Score:
			return resultOf(w, h.EpisodeID), fmt.Errorf("%w: turn %d score %d, log has %d", ErrReplayMismatch, tr.Turn, out.Score, tr.Score)
		case out.Terminal != tr.Terminal:
			return resultOf(w, h.EpisodeID), fmt.Errorf("%w: turn %d terminal %q, log has %q", ErrReplayMismatch, tr.Turn, out.Terminal, tr.Terminal)
		}
		if got := w.Digest(); got != tr.Digest {
			return resultOf(w, h.EpisodeID), fmt.Errorf("%w: turn %d digest %s, log has %s", ErrReplayMismatch, tr.Turn, got, tr.Digest)
		}
	}

	if res == nil {
		return resultOf(w, h.EpisodeID), nil
	}
	if _, done := w.Terminal(); !done && h.MaxTurns > 0 && w.Turn() >= h.MaxTurns {
		w.EndTurnLimit()
	}
	got := resultOf(w, h.EpisodeID)
	want := Result{
		EpisodeID:      res.EpisodeID,
		Seed:           res.Seed,
		GridSize:       res.GridSize,
		PitProbability: res.PitProbability,
		Score:          res.Score,
		Turns:          res.Turns,
		Reason:         res.Reason,
		ArrowUsed:      res.ArrowUsed,
		GoldGrabbed:    res.GoldGrabbed,
		Digest:         res.Digest,
	}
	if got != want {
		return got, fmt.Errorf("%w: result %+v, log has %+v", ErrReplayMismatch, got, want)
	}
	return got, nil
}
