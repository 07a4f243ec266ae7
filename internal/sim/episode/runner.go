// Package episode drives one world and one agent through a full episode and
// fans the turns out to the optional log, observer and index sinks.
package episode

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wumpusworld.ai/internal/agent"
	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/tuning"
	"wumpusworld.ai/internal/sim/world"
)

// TurnLog receives the header, every turn and the result of an episode.
type TurnLog interface {
	WriteHeader(protocol.EpisodeHeader) error
	WriteTurn(protocol.TurnRecord) error
	WriteResult(protocol.ResultMsg) error
	Path() string
}

// Observer receives read-only state after every turn.
type Observer interface {
	Begin(protocol.EpisodeHeader)
	Publish(protocol.ObserverMsg)
}

// Index stores finished episodes.
type Index interface {
	RecordEpisode(res protocol.ResultMsg, logPath string) error
}

// Result is reported once per episode.
type Result struct {
	EpisodeID      string
	Seed           int64
	GridSize       int
	PitProbability float64
	Score          int
	Turns          int
	Reason         protocol.Reason
	ArrowUsed      bool
	GoldGrabbed    bool
	Digest         string
}

func (r Result) Msg() protocol.ResultMsg {
	return protocol.ResultMsg{
		Type:           protocol.TypeResult,
		EpisodeID:      r.EpisodeID,
		Seed:           r.Seed,
		GridSize:       r.GridSize,
		PitProbability: r.PitProbability,
		Score:          r.Score,
		Turns:          r.Turns,
		Reason:         r.Reason,
		ArrowUsed:      r.ArrowUsed,
		GoldGrabbed:    r.GoldGrabbed,
		Digest:         r.Digest,
	}
}

func resultOf(w *world.World, id string) Result {
	s := w.Snapshot()
	return Result{
		EpisodeID:      id,
		Seed:           s.Config.Seed,
		GridSize:       s.Config.GridSize,
		PitProbability: s.Config.PitProbability,
		Score:          s.Score,
		Turns:          s.Turn,
		Reason:         s.Terminal,
		ArrowUsed:      !s.Agent.HasArrow,
		GoldGrabbed:    s.Gold.Grabbed,
		Digest:         s.Digest(),
	}
}

type Runner struct {
	World  *world.World
	Agent  *agent.Context
	Logger *zap.Logger

	TurnLog  TurnLog
	Observer Observer
	Index    Index

	// MaxTurns ends the episode with TURN_LIMIT; 0 means no cap.
	MaxTurns int
	// EpisodeID is generated on Run when empty.
	EpisodeID string
	// Params is echoed into the log header.
	Params protocol.AgentParams
}

// NewRunner builds the world and agent for ep. Sinks are attached by the
// caller.
func NewRunner(ep tuning.Episode, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ep.Validate(); err != nil {
		return nil, err
	}
	w, err := world.New(ep.World())
	if err != nil {
		return nil, err
	}
	cfg := ep.AgentConfig()
	cfg.Logger = logger.Named("agent")
	a, err := agent.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Runner{
		World:    w,
		Agent:    a,
		Logger:   logger,
		MaxTurns: ep.MaxTurns,
		Params:   ep.Params(),
	}, nil
}

func (r *Runner) header() protocol.EpisodeHeader {
	cfg := r.World.Config()
	return protocol.EpisodeHeader{
		Type:            protocol.TypeEpisode,
		ProtocolVersion: protocol.Version,
		EpisodeID:       r.EpisodeID,
		Seed:            cfg.Seed,
		GridSize:        cfg.GridSize,
		PitProbability:  cfg.PitProbability,
		MaxTurns:        r.MaxTurns,
		Agent:           r.Params,
		StartDigest:     r.World.Digest(),
	}
}

func (r *Runner) publish(rec *protocol.TurnRecord) {
	if r.Observer == nil {
		return
	}
	r.Observer.Publish(protocol.ObserverMsg{
		Type:            protocol.TypeObserve,
		ProtocolVersion: protocol.Version,
		EpisodeID:       r.EpisodeID,
		State:           r.World.Snapshot().Obs(),
		Turn:            rec,
	})
}

// Run plays the episode to its end. Cancelling ctx stops it between turns;
// the partial result is returned with ctx's error.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if r.EpisodeID == "" {
		r.EpisodeID = uuid.NewString()
	}
	log = log.With(zap.String("episode_id", r.EpisodeID))

	h := r.header()
	if r.TurnLog != nil {
		if err := r.TurnLog.WriteHeader(h); err != nil {
			return resultOf(r.World, r.EpisodeID), fmt.Errorf("write header: %w", err)
		}
	}
	if r.Observer != nil {
		r.Observer.Begin(h)
		r.publish(nil)
	}
	log.Debug("episode start",
		zap.Int64("seed", h.Seed),
		zap.Int("grid_size", h.GridSize),
		zap.Float64("pit_probability", h.PitProbability),
	)

	for {
		if _, done := r.World.Terminal(); done {
			break
		}
		if err := ctx.Err(); err != nil {
			return resultOf(r.World, r.EpisodeID), err
		}
		if r.MaxTurns > 0 && r.World.Turn() >= r.MaxTurns {
			r.World.EndTurnLimit()
			break
		}

		p := r.World.Percept()
		a, err := r.Agent.Next(p)
		if err != nil {
			return resultOf(r.World, r.EpisodeID), fmt.Errorf("turn %d: %w", r.World.Turn()+1, err)
		}
		out, err := r.World.Apply(a)
		if err != nil {
			return resultOf(r.World, r.EpisodeID), fmt.Errorf("turn %d: %w", r.World.Turn()+1, err)
		}

		rec := protocol.TurnRecord{
			Type:     protocol.TypeTurn,
			Turn:     out.Turn,
			Percept:  p,
			Action:   a,
			Score:    out.Score,
			Terminal: out.Terminal,
			Digest:   r.World.Digest(),
		}
		if r.TurnLog != nil {
			if err := r.TurnLog.WriteTurn(rec); err != nil {
				return resultOf(r.World, r.EpisodeID), fmt.Errorf("write turn %d: %w", rec.Turn, err)
			}
		}
		r.publish(&rec)
	}

	res := resultOf(r.World, r.EpisodeID)
	msg := res.Msg()
	logPath := ""
	if r.TurnLog != nil {
		if err := r.TurnLog.WriteResult(msg); err != nil {
			return res, fmt.Errorf("write result: %w", err)
		}
		logPath = r.TurnLog.Path()
	}
	if r.Index != nil {
		if err := r.Index.RecordEpisode(msg, logPath); err != nil {
			log.Warn("index episode", zap.Error(err))
		}
	}
	log.Info("episode over",
		zap.String("reason", string(res.Reason)),
		zap.Int("score", res.Score),
		zap.Int("turns", res.Turns),
		zap.Bool("gold", res.GoldGrabbed),
	)
	return res, nil
}
