package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"wumpusworld.ai/internal/protocol"
)

// JSONLZstdWriter appends one JSON value per line to a zstd-compressed file.
// The file is created on the first Write.
type JSONLZstdWriter struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewJSONLZstdWriter(path string) *JSONLZstdWriter {
	return &JSONLZstdWriter{path: path}
}

func (w *JSONLZstdWriter) Path() string { return w.path }

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		if err := w.openLocked(); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) openLocked() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 32*1024)
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

// EpisodePath is where an episode's turn log lives under dir.
func EpisodePath(dir, episodeID string) string {
	return filepath.Join(dir, "episodes", episodeID+".jsonl.zst")
}

// TurnLogger writes an episode header, one line per turn and a closing
// result line.
type TurnLogger struct{ w *JSONLZstdWriter }

func NewTurnLogger(dir, episodeID string) *TurnLogger {
	return &TurnLogger{w: NewJSONLZstdWriter(EpisodePath(dir, episodeID))}
}

func (l *TurnLogger) WriteHeader(v protocol.EpisodeHeader) error { return l.w.Write(v) }
func (l *TurnLogger) WriteTurn(v protocol.TurnRecord) error      { return l.w.Write(v) }
func (l *TurnLogger) WriteResult(v protocol.ResultMsg) error     { return l.w.Write(v) }
func (l *TurnLogger) Path() string                               { return l.w.Path() }
func (l *TurnLogger) Close() error                               { return l.w.Close() }
