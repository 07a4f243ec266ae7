// Command wumpus plays, batches and inspects Wumpus World episodes.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"wumpusworld.ai/internal/sim/tuning"
)

const defaultConfigPath = "configs/episode.yaml"

var (
	configPath string
	envFile    string
	verbose    bool
	logFormat  string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wumpus",
	Short: "Wumpus World simulator with a propositional-logic agent",
	Long: `wumpus runs a knowledge-based agent through seeded Wumpus World caves.

Episode parameters come from a YAML file, then a .env file and the
WUMPUS_* environment variables, then command-line flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		switch logFormat {
		case "console":
			config.Encoding = "console"
			config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		case "json":
		default:
			return fmt.Errorf("unknown --log-format %q", logFormat)
		}
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", defaultConfigPath, "episode YAML config (missing default file means built-in defaults)")
	pf.StringVar(&envFile, "env-file", ".env", "optional .env file with WUMPUS_* overrides")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging, one line per agent decision")
	pf.StringVar(&logFormat, "log-format", "console", "log encoding: console or json")

	rootCmd.AddCommand(runCmd, batchCmd, askCmd, statsCmd)
}

// episodeFlags are the per-episode overrides shared by run and batch.
type episodeFlags struct {
	seed       int64
	gridSize   int
	pitProb    float64
	maxTurns   int
	fallback   string
	maxGambles int
	agentSeed  int64
	method     string
	oneWumpus  bool
}

func (f *episodeFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.Int64Var(&f.seed, "seed", 0, "world seed")
	fl.IntVar(&f.gridSize, "grid-size", 0, "grid side N (>= 2)")
	fl.Float64Var(&f.pitProb, "pit-prob", 0, "pit probability per non-start cell")
	fl.IntVar(&f.maxTurns, "max-turns", 0, "turn cap, 0 for none")
	fl.StringVar(&f.fallback, "fallback", "", "explore or retreat")
	fl.IntVar(&f.maxGambles, "max-gambles", 0, "random steps allowed when nothing is provably safe")
	fl.Int64Var(&f.agentSeed, "agent-seed", 0, "agent random seed, 0 derives it from --seed")
	fl.StringVar(&f.method, "method", "", "entailment method: auto, enumerate or dpll")
	fl.BoolVar(&f.oneWumpus, "one-wumpus", true, "tell the agent there is exactly one wumpus")
}

// loadEpisode layers config file, env and changed flags, in that order.
func (f *episodeFlags) loadEpisode(cmd *cobra.Command) (tuning.Episode, error) {
	ep, err := tuning.Load(configPath)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") && configPath == defaultConfigPath {
		ep, err = tuning.Defaults(), nil
	}
	if err != nil {
		return ep, err
	}
	if err := ep.ApplyEnv(envFile); err != nil {
		return ep, err
	}

	fl := cmd.Flags()
	if fl.Changed("seed") {
		ep.Seed = f.seed
	}
	if fl.Changed("grid-size") {
		ep.GridSize = f.gridSize
	}
	if fl.Changed("pit-prob") {
		ep.PitProbability = f.pitProb
	}
	if fl.Changed("max-turns") {
		ep.MaxTurns = f.maxTurns
	}
	if fl.Changed("fallback") {
		ep.Agent.Fallback = f.fallback
	}
	if fl.Changed("max-gambles") {
		ep.Agent.MaxGambles = f.maxGambles
	}
	if fl.Changed("agent-seed") {
		ep.Agent.Seed = f.agentSeed
	}
	if fl.Changed("method") {
		ep.Agent.Method = f.method
	}
	if fl.Changed("one-wumpus") {
		ep.Agent.OneWumpus = f.oneWumpus
	}
	if err := ep.Validate(); err != nil {
		return ep, err
	}
	return ep, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
