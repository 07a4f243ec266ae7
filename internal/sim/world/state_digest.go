package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Digest is the SHA-256 of the canonical state. Two worlds with equal digests
// are indistinguishable to the agent and to the scorer.
func (w *World) Digest() string { return w.Snapshot().Digest() }

func (s Snapshot) Digest() string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteI64(h, &tmp, s.Config.Seed)
	digestWriteI64(h, &tmp, int64(s.Config.GridSize))
	digestWriteU64(h, &tmp, math.Float64bits(s.Config.PitProbability))
	digestWriteI64(h, &tmp, int64(s.Turn))
	digestWriteI64(h, &tmp, int64(s.Score))

	digestWriteI64(h, &tmp, int64(s.Agent.Loc.Col))
	digestWriteI64(h, &tmp, int64(s.Agent.Loc.Row))
	h.Write([]byte{
		byte(s.Agent.Facing),
		boolByte(s.Agent.Alive),
		boolByte(s.Agent.HasArrow),
		boolByte(s.Agent.InCave),
		boolByte(s.Agent.Bump),
	})

	digestWriteI64(h, &tmp, int64(s.Wumpus.Loc.Col))
	digestWriteI64(h, &tmp, int64(s.Wumpus.Loc.Row))
	h.Write([]byte{boolByte(s.Wumpus.Alive), boolByte(s.Screamed)})

	digestWriteI64(h, &tmp, int64(s.Gold.Loc.Col))
	digestWriteI64(h, &tmp, int64(s.Gold.Loc.Row))
	h.Write([]byte{boolByte(s.Gold.Grabbed)})

	// Pits are sorted by Snapshot.
	digestWriteU64(h, &tmp, uint64(len(s.Pits)))
	for _, p := range s.Pits {
		digestWriteI64(h, &tmp, int64(p.Col))
		digestWriteI64(h, &tmp, int64(p.Row))
	}
	h.Write([]byte(s.Terminal))

	return hex.EncodeToString(h.Sum(nil))
}
