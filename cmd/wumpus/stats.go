package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"wumpusworld.ai/internal/persistence/indexdb"
)

var (
	statsIndexPath string
	statsRecent    int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the episodes recorded in an index",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	fl := statsCmd.Flags()
	fl.StringVar(&statsIndexPath, "index", "data/index.sqlite", "SQLite index written by run/batch --index")
	fl.IntVar(&statsRecent, "recent", 10, "list this many recent episodes")
}

func runStats(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(statsIndexPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("no index at %s: record episodes with run or batch --index first", statsIndexPath)
		}
		return err
	}
	ctx := cmd.Context()
	idx, err := indexdb.OpenSQLite(statsIndexPath)
	if err != nil {
		return err
	}
	defer idx.Close()

	st, err := idx.Stats(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "episodes: %d  gold: %d  died: %d  empty: %d  turn_limit: %d\n", st.Episodes, st.Wins, st.Deaths, st.Empty, st.TurnLimit)
	fmt.Fprintf(out, "mean_score: %.2f  best_score: %d\n", st.MeanScore, st.BestScore)
	if statsRecent <= 0 || st.Episodes == 0 {
		return nil
	}

	rows, err := idx.Recent(ctx, statsRecent)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EPISODE\tSEED\tGRID\tREASON\tSCORE\tTURNS\tLOG")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%d\t%d\t%s\n", r.EpisodeID, r.Seed, r.GridSize, r.Reason, r.Score, r.Turns, r.LogPath)
	}
	return tw.Flush()
}
