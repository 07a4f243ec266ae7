package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	turnlog "wumpusworld.ai/internal/persistence/log"
	"wumpusworld.ai/internal/sim/episode"
)

func main() {
	var (
		logPath    = flag.String("log", "", "path to one <episode-id>.jsonl.zst turn log")
		logDir     = flag.String("dir", "", "log directory; replays every episodes/*.jsonl.zst under it")
		checkAgent = flag.Bool("agent", true, "re-run the agent and require the logged actions")
	)
	flag.Parse()

	var files []string
	switch {
	case *logPath != "":
		files = []string{*logPath}
	case *logDir != "":
		var err error
		files, err = listEpisodeFiles(filepath.Join(*logDir, "episodes"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "list episodes:", err)
			os.Exit(1)
		}
		if len(files) == 0 {
			fmt.Fprintln(os.Stderr, "no turn logs found in", *logDir)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "missing -log or -dir")
		os.Exit(2)
	}

	failed := 0
	for _, path := range files {
		if err := replayFile(path, *checkAgent); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "replay failed: %d of %d episodes\n", failed, len(files))
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d episodes\n", len(files))
}

func listEpisodeFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		if name := e.Name(); strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func replayFile(path string, checkAgent bool) error {
	ep, err := turnlog.ReadEpisode(path)
	if err != nil {
		return err
	}
	res, err := episode.Replay(ep.Header, ep.Turns, ep.Result, episode.ReplayOptions{CheckAgent: checkAgent})
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	status := "complete"
	if ep.Result == nil {
		status = "truncated"
	}
	fmt.Printf("episode=%s seed=%d turns=%d score=%d reason=%s %s\n",
		ep.Header.EpisodeID, ep.Header.Seed, res.Turns, res.Score, res.Reason, status)
	return nil
}
