package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wumpusworld.ai/internal/persistence/indexdb"
	"wumpusworld.ai/internal/sim/episode"
)

var (
	batchFlags     episodeFlags
	batchCount     int
	batchParallel  int
	batchLogDir    string
	batchIndexPath string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Play episodes for consecutive seeds in parallel and summarise them",
	Args:  cobra.NoArgs,
	RunE:  runBatch,
}

func init() {
	batchFlags.register(batchCmd)
	fl := batchCmd.Flags()
	fl.IntVarP(&batchCount, "count", "n", 100, "number of episodes, seeds start at --seed")
	fl.IntVar(&batchParallel, "parallel", 8, "episodes run at once, 0 for unlimited")
	fl.StringVar(&batchLogDir, "log-dir", "", "write one zstd turn log per episode under this directory")
	fl.StringVar(&batchIndexPath, "index", "", "record every result in this SQLite index")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchCount <= 0 {
		return fmt.Errorf("--count must be positive, got %d", batchCount)
	}
	ep, err := batchFlags.loadEpisode(cmd)
	if err != nil {
		return err
	}

	opts := episode.BatchOptions{
		Parallel: batchParallel,
		Logger:   logger,
		LogDir:   batchLogDir,
	}
	if batchIndexPath != "" {
		idx, err := indexdb.OpenSQLite(batchIndexPath, indexdb.WithLogger(logger.Named("index")))
		if err != nil {
			return err
		}
		defer idx.Close()
		opts.Index = idx
	}

	results, err := episode.RunBatch(cmd.Context(), episode.Seeds(ep, batchCount), opts)
	if err != nil {
		return err
	}
	s := episode.Summarize(results)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "episodes: %d  seeds: %d..%d\n", s.Episodes, ep.Seed, ep.Seed+int64(batchCount)-1)
	fmt.Fprintf(out, "gold: %d  died: %d  empty: %d  turn_limit: %d\n", s.Wins, s.Deaths, s.Empty, s.TurnLimit)
	fmt.Fprintf(out, "mean_score: %.2f  best_score: %d\n", s.MeanScore, s.BestScore)
	return nil
}
