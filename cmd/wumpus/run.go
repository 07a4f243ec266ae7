package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wumpusworld.ai/internal/persistence/indexdb"
	turnlog "wumpusworld.ai/internal/persistence/log"
	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/episode"
	"wumpusworld.ai/internal/transport/observer"
)

var (
	runFlags     episodeFlags
	runLogDir    string
	runIndexPath string
	runObserve   string
	runPace      time.Duration
	runHold      time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play one episode and print its result",
	Long: `Plays one episode to its end. With --log-dir the turns are written to
<log-dir>/episodes/<episode-id>.jsonl.zst for the replay tool; with --observe
a read-only websocket stream is served on a loopback address.`,
	Args: cobra.NoArgs,
	RunE: runEpisode,
}

func init() {
	runFlags.register(runCmd)
	fl := runCmd.Flags()
	fl.StringVar(&runLogDir, "log-dir", "", "write a zstd turn log under this directory")
	fl.StringVar(&runIndexPath, "index", "", "record the result in this SQLite index")
	fl.StringVar(&runObserve, "observe", "", "serve the observer stream on this loopback address, e.g. 127.0.0.1:8081")
	fl.DurationVar(&runPace, "pace", 0, "pause after each turn so observers can follow")
	fl.DurationVar(&runHold, "hold", 0, "keep the observer server up this long after the episode ends")
}

// pacedObserver slows the episode down to a watchable speed.
type pacedObserver struct {
	*observer.Hub
	ctx   context.Context
	delay time.Duration
}

func (p pacedObserver) Publish(m protocol.ObserverMsg) {
	p.Hub.Publish(m)
	if p.delay <= 0 {
		return
	}
	select {
	case <-time.After(p.delay):
	case <-p.ctx.Done():
	}
}

func runEpisode(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ep, err := runFlags.loadEpisode(cmd)
	if err != nil {
		return err
	}

	r, err := episode.NewRunner(ep, logger)
	if err != nil {
		return err
	}
	r.EpisodeID = uuid.NewString()

	if runLogDir != "" {
		tl := turnlog.NewTurnLogger(runLogDir, r.EpisodeID)
		defer func() {
			if err := tl.Close(); err != nil {
				logger.Warn("close turn log", zap.Error(err))
			}
		}()
		r.TurnLog = tl
	}

	if runIndexPath != "" {
		idx, err := indexdb.OpenSQLite(runIndexPath, indexdb.WithLogger(logger.Named("index")))
		if err != nil {
			return err
		}
		defer idx.Close()
		r.Index = idx
	}

	if runObserve != "" {
		hub := observer.NewHub(logger.Named("observer"))
		stop, err := serveObserver(ctx, hub, runObserve)
		if err != nil {
			return err
		}
		defer stop()
		r.Observer = pacedObserver{Hub: hub, ctx: ctx, delay: runPace}
	}

	res, err := r.Run(ctx)
	if err != nil {
		return err
	}
	printResult(cmd, res)
	if r.TurnLog != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "log: %s\n", r.TurnLog.Path())
	}

	if runObserve != "" && runHold > 0 {
		select {
		case <-time.After(runHold):
		case <-ctx.Done():
		}
	}
	return nil
}

// serveObserver listens on a loopback address only. The returned func stops
// the server and disconnects every client.
func serveObserver(ctx context.Context, hub *observer.Hub, addr string) (func(), error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("observe address: %w", err)
	}
	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return nil, fmt.Errorf("observe address %s is not loopback", addr)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Handler:           hub.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("observer server", zap.Error(err))
		}
	}()
	logger.Info("observer listening",
		zap.String("bootstrap", "http://"+ln.Addr().String()+observer.BootstrapPath),
		zap.String("ws", "ws://"+ln.Addr().String()+observer.WSPath),
	)
	return func() {
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-done
	}, nil
}

func printResult(cmd *cobra.Command, res episode.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "episode: %s\n", res.EpisodeID)
	fmt.Fprintf(out, "seed: %d  grid: %dx%d  pit_probability: %g\n", res.Seed, res.GridSize, res.GridSize, res.PitProbability)
	fmt.Fprintf(out, "result: %s  score: %d  turns: %d  gold: %t  arrow_used: %t\n",
		res.Reason, res.Score, res.Turns, res.GoldGrabbed, res.ArrowUsed)
}
