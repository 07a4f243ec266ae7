package agent

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"wumpusworld.ai/internal/logic"
	"wumpusworld.ai/internal/sim/mathx"
)

var ErrInvalidConfig = errors.New("invalid agent config")

// Fallback is what the agent does when no adjacent cell is provably safe.
type Fallback string

const (
	// FallbackExplore walks to a distant safe frontier cell, then gambles a
	// bounded number of random steps, then retreats.
	FallbackExplore Fallback = "explore"
	// FallbackRetreat goes home and climbs out empty-handed.
	FallbackRetreat Fallback = "retreat"
)

func ParseFallback(s string) (Fallback, error) {
	switch f := Fallback(s); f {
	case FallbackExplore, FallbackRetreat:
		return f, nil
	case "":
		return FallbackExplore, nil
	}
	return "", fmt.Errorf("%w: fallback %q", ErrInvalidConfig, s)
}

const (
	DefaultMaxGambles = 8

	seedSalt = 0x5741474e54 // "WAGNT"
)

type Config struct {
	GridSize int
	// Seed drives the random fallback only.
	Seed       int64
	Fallback   Fallback
	MaxGambles int

	// AssumeOneWumpus adds the exactly-one-wumpus axioms, which the world
	// always satisfies and which make hunting possible.
	AssumeOneWumpus bool

	EnumerationLimit int
	Method           logic.Method

	Logger *zap.Logger
}

// SeedFor derives the agent's random stream from the world seed so both are
// reproducible from one number yet independent.
func SeedFor(worldSeed int64) int64 { return mathx.DeriveSeed(worldSeed, seedSalt) }

func (c *Config) applyDefaults() {
	if c.Fallback == "" {
		c.Fallback = FallbackExplore
	}
	if c.EnumerationLimit <= 0 {
		c.EnumerationLimit = logic.DefaultEnumerationLimit
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

func (c Config) validate() error {
	if c.GridSize < 2 {
		return fmt.Errorf("%w: grid_size %d < 2", ErrInvalidConfig, c.GridSize)
	}
	if _, err := ParseFallback(string(c.Fallback)); err != nil {
		return err
	}
	if c.MaxGambles < 0 {
		return fmt.Errorf("%w: max_gambles %d < 0", ErrInvalidConfig, c.MaxGambles)
	}
	return nil
}
