package world

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidConfig = errors.New("invalid world config")
	ErrEpisodeOver   = errors.New("episode is over")
)

const (
	DefaultGridSize       = 4
	DefaultPitProbability = 0.2
)

// Config is everything an episode is reproducible from.
type Config struct {
	Seed           int64
	GridSize       int
	PitProbability float64
}

func (c *Config) applyDefaults() {
	if c.GridSize == 0 {
		c.GridSize = DefaultGridSize
	}
}

func (c Config) Validate() error {
	if c.GridSize < 2 {
		return fmt.Errorf("%w: grid_size %d < 2", ErrInvalidConfig, c.GridSize)
	}
	if math.IsNaN(c.PitProbability) || c.PitProbability < 0 || c.PitProbability > 1 {
		return fmt.Errorf("%w: pit_probability %v outside [0,1]", ErrInvalidConfig, c.PitProbability)
	}
	return nil
}
