// Package indexdb keeps a queryable SQLite index of finished episodes. The
// turn logs stay the source of truth; the index only stores results.
package indexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"wumpusworld.ai/internal/protocol"
)

const schemaVersion = "1"

// timeLayout keeps a fixed width so recorded_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var ErrClosed = errors.New("index closed")

// EpisodeRow is one indexed episode.
type EpisodeRow struct {
	EpisodeID      string  `db:"episode_id"`
	Seed           int64   `db:"seed"`
	GridSize       int     `db:"grid_size"`
	PitProbability float64 `db:"pit_probability"`
	Score          int     `db:"score"`
	Turns          int     `db:"turns"`
	Reason         string  `db:"reason"`
	ArrowUsed      bool    `db:"arrow_used"`
	GoldGrabbed    bool    `db:"gold_grabbed"`
	Digest         string  `db:"digest"`
	LogPath        string  `db:"log_path"`
	RecordedAt     string  `db:"recorded_at"`
}

// Stats aggregates every indexed episode.
type Stats struct {
	Episodes  int     `db:"episodes"`
	Wins      int     `db:"wins"`
	Deaths    int     `db:"deaths"`
	Empty     int     `db:"empty"`
	TurnLimit int     `db:"turn_limit"`
	MeanScore float64 `db:"mean_score"`
	BestScore int     `db:"best_score"`
}

// WriterStats reports the writer goroutine's counters.
type WriterStats struct {
	Written    uint64
	Failed     uint64
	QueueDepth int
}

type SQLiteIndex struct {
	db  *sqlx.DB
	log *zap.Logger

	mu     sync.RWMutex
	closed bool
	ch     chan req
	wg     sync.WaitGroup
	once   sync.Once

	written atomic.Uint64
	failed  atomic.Uint64
}

type req struct {
	row  EpisodeRow
	done chan struct{}
}

type Option func(*SQLiteIndex)

func WithLogger(l *zap.Logger) Option {
	return func(s *SQLiteIndex) {
		if l != nil {
			s.log = l
		}
	}
}

func OpenSQLite(path string, opts ...Option) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragmas: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s := &SQLiteIndex{
		db:  db,
		log: zap.NewNop(),
		ch:  make(chan req, 1024),
	}
	for _, o := range opts {
		o(s)
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func migrate(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS episodes (
		episode_id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		grid_size INTEGER NOT NULL,
		pit_probability REAL NOT NULL,
		score INTEGER NOT NULL,
		turns INTEGER NOT NULL,
		reason TEXT NOT NULL,
		arrow_used INTEGER NOT NULL,
		gold_grabbed INTEGER NOT NULL,
		digest TEXT NOT NULL,
		log_path TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_episodes_recorded ON episodes(recorded_at);
	CREATE INDEX IF NOT EXISTS idx_episodes_seed ON episodes(seed, grid_size);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	_, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version',?)`, schemaVersion)
	return err
}

// RowFromResult builds the index row for a finished episode. logPath may be
// empty when no turn log was written.
func RowFromResult(res protocol.ResultMsg, logPath string) EpisodeRow {
	return EpisodeRow{
		EpisodeID:      res.EpisodeID,
		Seed:           res.Seed,
		GridSize:       res.GridSize,
		PitProbability: res.PitProbability,
		Score:          res.Score,
		Turns:          res.Turns,
		Reason:         string(res.Reason),
		ArrowUsed:      res.ArrowUsed,
		GoldGrabbed:    res.GoldGrabbed,
		Digest:         res.Digest,
		LogPath:        logPath,
		RecordedAt:     time.Now().UTC().Format(timeLayout),
	}
}

// RecordEpisode queues res for the writer goroutine. It blocks while the
// queue is full.
func (s *SQLiteIndex) RecordEpisode(res protocol.ResultMsg, logPath string) error {
	return s.send(req{row: RowFromResult(res, logPath)})
}

// Flush waits until everything queued before it is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if err := s.send(req{done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) send(r req) error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	s.ch <- r
	return nil
}

// Close drains the queue and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriterStats() WriterStats {
	return WriterStats{
		Written:    s.written.Load(),
		Failed:     s.failed.Load(),
		QueueDepth: len(s.ch),
	}
}

func (s *SQLiteIndex) loop() {
	insert, err := s.db.PrepareNamed(`INSERT OR REPLACE INTO episodes
		(episode_id, seed, grid_size, pit_probability, score, turns, reason,
		 arrow_used, gold_grabbed, digest, log_path, recorded_at)
		VALUES (:episode_id, :seed, :grid_size, :pit_probability, :score, :turns, :reason,
		 :arrow_used, :gold_grabbed, :digest, :log_path, :recorded_at)`)
	if err != nil {
		s.log.Error("prepare episode insert", zap.Error(err))
	} else {
		defer insert.Close()
	}

	for r := range s.ch {
		batch := []req{r}
	drain:
		for len(batch) < 256 {
			select {
			case more, ok := <-s.ch:
				if !ok {
					break drain
				}
				batch = append(batch, more)
			default:
				break drain
			}
		}
		s.commit(insert, batch)
	}
}

// commit writes one batch in a single transaction and then releases any
// Flush waiters in it.
func (s *SQLiteIndex) commit(insert *sqlx.NamedStmt, batch []req) {
	var rows []EpisodeRow
	for _, r := range batch {
		if r.done == nil {
			rows = append(rows, r.row)
		}
	}
	defer func() {
		for _, r := range batch {
			if r.done != nil {
				close(r.done)
			}
		}
	}()
	if len(rows) == 0 {
		return
	}
	if insert == nil {
		s.failed.Add(uint64(len(rows)))
		return
	}

	tx, err := s.db.Beginx()
	if err != nil {
		s.failed.Add(uint64(len(rows)))
		s.log.Warn("index begin", zap.Error(err))
		return
	}
	stmt := tx.NamedStmt(insert)
	for _, row := range rows {
		if _, err := stmt.Exec(row); err != nil {
			_ = tx.Rollback()
			s.failed.Add(uint64(len(rows)))
			s.log.Warn("index insert", zap.String("episode_id", row.EpisodeID), zap.Error(err))
			return
		}
	}
	if err := tx.Commit(); err != nil {
		s.failed.Add(uint64(len(rows)))
		s.log.Warn("index commit", zap.Error(err))
		return
	}
	s.written.Add(uint64(len(rows)))
}

// Recent lists up to limit episodes, most recently written first.
func (s *SQLiteIndex) Recent(ctx context.Context, limit int) ([]EpisodeRow, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []EpisodeRow
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM episodes ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent episodes: %w", err)
	}
	return out, nil
}

// Episode looks one episode up by id. It returns sql.ErrNoRows when absent.
func (s *SQLiteIndex) Episode(ctx context.Context, id string) (EpisodeRow, error) {
	var row EpisodeRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM episodes WHERE episode_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return row, err
	}
	if err != nil {
		return row, fmt.Errorf("episode %s: %w", id, err)
	}
	return row, nil
}

func (s *SQLiteIndex) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.GetContext(ctx, &st, `SELECT
		COUNT(*) AS episodes,
		COALESCE(SUM(reason = ?), 0) AS wins,
		COALESCE(SUM(reason = ?), 0) AS deaths,
		COALESCE(SUM(reason = ?), 0) AS empty,
		COALESCE(SUM(reason = ?), 0) AS turn_limit,
		COALESCE(AVG(score), 0.0) AS mean_score,
		COALESCE(MAX(score), 0) AS best_score
		FROM episodes`,
		string(protocol.ReasonClimbedWithGold),
		string(protocol.ReasonDied),
		string(protocol.ReasonClimbedEmpty),
		string(protocol.ReasonTurnLimit),
	)
	if err != nil {
		return st, fmt.Errorf("episode stats: %w", err)
	}
	return st, nil
}
