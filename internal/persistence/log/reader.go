package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"wumpusworld.ai/internal/protocol"
)

var ErrMalformedLog = errors.New("malformed turn log")

// Episode is a fully decoded turn log. Result is nil when the log was cut
// short.
type Episode struct {
	Header protocol.EpisodeHeader
	Turns  []protocol.TurnRecord
	Result *protocol.ResultMsg
}

// ReadEpisode decodes and schema-validates every line of the log at path.
func ReadEpisode(path string) (Episode, error) {
	var ep Episode
	f, err := os.Open(path)
	if err != nil {
		return ep, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return ep, err
	}
	defer dec.Close()

	ep, err = decodeEpisode(dec)
	if err != nil {
		return ep, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return ep, nil
}

// Reader yields the schema-validated lines of a decompressed turn log.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &Reader{sc: sc}
}

// Line is the 1-based number of the line last returned by Next.
func (r *Reader) Line() int { return r.line }

// Next returns the next line and its envelope. It returns io.EOF at the end.
func (r *Reader) Next() (protocol.BaseMessage, []byte, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return protocol.BaseMessage{}, nil, err
		}
		return protocol.BaseMessage{}, nil, io.EOF
	}
	r.line++
	raw := append([]byte(nil), r.sc.Bytes()...)
	base, err := protocol.ValidateMessage(raw)
	if err != nil {
		return base, nil, fmt.Errorf("line %d: %w", r.line, err)
	}
	return base, raw, nil
}

func decodeEpisode(src io.Reader) (Episode, error) {
	var ep Episode
	r := NewReader(src)
	for {
		base, raw, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ep, err
		}
		line := r.Line()
		switch {
		case line == 1 && base.Type != protocol.TypeEpisode:
			return ep, fmt.Errorf("%w: line 1 is %s, want %s", ErrMalformedLog, base.Type, protocol.TypeEpisode)
		case ep.Result != nil:
			return ep, fmt.Errorf("%w: line %d after %s", ErrMalformedLog, line, protocol.TypeResult)
		}
		switch base.Type {
		case protocol.TypeEpisode:
			if line != 1 {
				return ep, fmt.Errorf("%w: second header at line %d", ErrMalformedLog, line)
			}
			err = json.Unmarshal(raw, &ep.Header)
		case protocol.TypeTurn:
			var tr protocol.TurnRecord
			if err = json.Unmarshal(raw, &tr); err == nil {
				if tr.Turn != len(ep.Turns)+1 {
					return ep, fmt.Errorf("%w: line %d has turn %d, want %d", ErrMalformedLog, line, tr.Turn, len(ep.Turns)+1)
				}
				ep.Turns = append(ep.Turns, tr)
			}
		case protocol.TypeResult:
			var res protocol.ResultMsg
			if err = json.Unmarshal(raw, &res); err == nil {
				ep.Result = &res
			}
		default:
			return ep, fmt.Errorf("%w: unexpected %s at line %d", ErrMalformedLog, base.Type, line)
		}
		if err != nil {
			return ep, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if r.Line() == 0 {
		return ep, fmt.Errorf("%w: empty", ErrMalformedLog)
	}
	return ep, nil
}
