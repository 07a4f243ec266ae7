package episode

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	turnlog "wumpusworld.ai/internal/persistence/log"
	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/tuning"
)

type BatchOptions struct {
	// Parallel caps concurrent episodes; 0 means unlimited.
	Parallel int
	Logger   *zap.Logger
	// LogDir, when set, gets one turn log per episode.
	LogDir string
	Index  Index
}

// RunBatch plays independent episodes concurrently. Each owns its world,
// agent and random sources, so results match sequential runs. Results keep
// the order of eps. The first failing episode cancels the rest.
func RunBatch(ctx context.Context, eps []tuning.Episode, opts BatchOptions) ([]Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]Result, len(eps))

	g, ctx := errgroup.WithContext(ctx)
	if opts.Parallel > 0 {
		g.SetLimit(opts.Parallel)
	}
	for i, ep := range eps {
		i, ep := i, ep
		g.Go(func() error {
			r, err := NewRunner(ep, logger)
			if err != nil {
				return fmt.Errorf("episode seed %d: %w", ep.Seed, err)
			}
			r.EpisodeID = uuid.NewString()
			r.Index = opts.Index
			if opts.LogDir != "" {
				tl := turnlog.NewTurnLogger(opts.LogDir, r.EpisodeID)
				defer tl.Close()
				r.TurnLog = tl
			}
			res, err := r.Run(ctx)
			if err != nil {
				return fmt.Errorf("episode seed %d: %w", ep.Seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Seeds expands base into n episodes with consecutive seeds starting at
// base.Seed. An explicit agent seed is dropped so each episode derives its
// own.
func Seeds(base tuning.Episode, n int) []tuning.Episode {
	out := make([]tuning.Episode, n)
	for i := range out {
		ep := base
		ep.Seed = base.Seed + int64(i)
		ep.Agent.Seed = 0
		out[i] = ep
	}
	return out
}

type Summary struct {
	Episodes  int
	Wins      int
	Deaths    int
	Empty     int
	TurnLimit int
	MeanScore float64
	BestScore int
}

func Summarize(results []Result) Summary {
	var s Summary
	total := 0
	for i, r := range results {
		s.Episodes++
		total += r.Score
		if i == 0 || r.Score > s.BestScore {
			s.BestScore = r.Score
		}
		switch r.Reason {
		case protocol.ReasonClimbedWithGold:
			s.Wins++
		case protocol.ReasonDied:
			s.Deaths++
		case protocol.ReasonClimbedEmpty:
			s.Empty++
		case protocol.ReasonTurnLimit:
			s.TurnLimit++
		}
	}
	if s.Episodes > 0 {
		s.MeanScore = float64(total) / float64(s.Episodes)
	}
	return s
}
