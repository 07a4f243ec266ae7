// Package tuning loads episode parameters from YAML, a .env file and the
// environment, in increasing order of precedence.
package tuning

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"wumpusworld.ai/internal/agent"
	"wumpusworld.ai/internal/logic"
	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/world"
)

var ErrInvalid = errors.New("invalid episode tuning")

type Episode struct {
	Seed           int64   `yaml:"seed"`
	GridSize       int     `yaml:"grid_size"`
	PitProbability float64 `yaml:"pit_probability"`
	// MaxTurns caps an episode; 0 means no cap.
	MaxTurns int `yaml:"max_turns"`

	Agent Agent `yaml:"agent"`
}

type Agent struct {
	Fallback   string `yaml:"fallback"`
	MaxGambles int    `yaml:"max_gambles"`
	// Seed 0 derives the agent's stream from the episode seed.
	Seed             int64  `yaml:"seed"`
	OneWumpus        bool   `yaml:"one_wumpus"`
	EnumerationLimit int    `yaml:"enumeration_limit"`
	Method           string `yaml:"method"`
}

func Defaults() Episode {
	return Episode{
		Seed:           1,
		GridSize:       world.DefaultGridSize,
		PitProbability: world.DefaultPitProbability,
		MaxTurns:       1000,
		Agent: Agent{
			Fallback:         string(agent.FallbackExplore),
			MaxGambles:       agent.DefaultMaxGambles,
			OneWumpus:        true,
			EnumerationLimit: logic.DefaultEnumerationLimit,
			Method:           logic.MethodAuto.String(),
		},
	}
}

// Load reads path over Defaults; keys missing from the file keep their
// default values.
func Load(path string) (Episode, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Environment keys.
const (
	EnvSeed           = "WUMPUS_SEED"
	EnvGridSize       = "WUMPUS_GRID_SIZE"
	EnvPitProbability = "WUMPUS_PIT_PROBABILITY"
	EnvMaxTurns       = "WUMPUS_MAX_TURNS"
	EnvFallback       = "WUMPUS_FALLBACK"
)

var envKeys = []string{EnvSeed, EnvGridSize, EnvPitProbability, EnvMaxTurns, EnvFallback}

// ApplyEnv overlays values from dotenvPath (if it exists) and then from the
// process environment.
func (t *Episode) ApplyEnv(dotenvPath string) error {
	vals := map[string]string{}
	if dotenvPath != "" {
		m, err := godotenv.Read(dotenvPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read %s: %w", dotenvPath, err)
		}
		for k, v := range m {
			vals[k] = v
		}
	}
	for _, k := range envKeys {
		if v, ok := os.LookupEnv(k); ok {
			vals[k] = v
		}
	}
	return t.apply(vals)
}

func (t *Episode) apply(vals map[string]string) error {
	for _, k := range envKeys {
		v, ok := vals[k]
		if !ok {
			continue
		}
		var err error
		switch k {
		case EnvSeed:
			t.Seed, err = strconv.ParseInt(v, 10, 64)
		case EnvGridSize:
			t.GridSize, err = strconv.Atoi(v)
		case EnvPitProbability:
			t.PitProbability, err = strconv.ParseFloat(v, 64)
		case EnvMaxTurns:
			t.MaxTurns, err = strconv.Atoi(v)
		case EnvFallback:
			t.Agent.Fallback = v
		}
		if err != nil {
			return fmt.Errorf("%s=%q: %w", k, v, err)
		}
	}
	return nil
}

func (t Episode) Validate() error {
	switch {
	case t.GridSize < 2:
		return fmt.Errorf("%w: grid_size %d < 2", ErrInvalid, t.GridSize)
	case math.IsNaN(t.PitProbability) || t.PitProbability < 0 || t.PitProbability > 1:
		return fmt.Errorf("%w: pit_probability %v outside [0,1]", ErrInvalid, t.PitProbability)
	case t.MaxTurns < 0:
		return fmt.Errorf("%w: max_turns %d < 0", ErrInvalid, t.MaxTurns)
	case t.Agent.MaxGambles < 0:
		return fmt.Errorf("%w: agent.max_gambles %d < 0", ErrInvalid, t.Agent.MaxGambles)
	case t.Agent.EnumerationLimit < 0 || t.Agent.EnumerationLimit > 30:
		return fmt.Errorf("%w: agent.enumeration_limit %d outside [0,30]", ErrInvalid, t.Agent.EnumerationLimit)
	}
	if _, err := agent.ParseFallback(t.Agent.Fallback); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := parseMethod(t.Agent.Method); err != nil {
		return err
	}
	return nil
}

func parseMethod(s string) (logic.Method, error) {
	m, err := logic.ParseMethod(s)
	if err != nil {
		return m, fmt.Errorf("%w: agent.method %q", ErrInvalid, s)
	}
	return m, nil
}

func (t Episode) World() world.Config {
	return world.Config{Seed: t.Seed, GridSize: t.GridSize, PitProbability: t.PitProbability}
}

// AgentSeed resolves the agent's random seed.
func (t Episode) AgentSeed() int64 {
	if t.Agent.Seed != 0 {
		return t.Agent.Seed
	}
	return agent.SeedFor(t.Seed)
}

// AgentConfig assumes t has been validated.
func (t Episode) AgentConfig() agent.Config {
	fb, _ := agent.ParseFallback(t.Agent.Fallback)
	m, _ := parseMethod(t.Agent.Method)
	return agent.Config{
		GridSize:         t.GridSize,
		Seed:             t.AgentSeed(),
		Fallback:         fb,
		MaxGambles:       t.Agent.MaxGambles,
		AssumeOneWumpus:  t.Agent.OneWumpus,
		EnumerationLimit: t.Agent.EnumerationLimit,
		Method:           m,
	}
}

// Params echoes the resolved agent settings into a log header.
func (t Episode) Params() protocol.AgentParams {
	fb, _ := agent.ParseFallback(t.Agent.Fallback)
	m, _ := parseMethod(t.Agent.Method)
	return protocol.AgentParams{
		Fallback:         string(fb),
		MaxGambles:       t.Agent.MaxGambles,
		AgentSeed:        t.AgentSeed(),
		EnumerationLimit: t.Agent.EnumerationLimit,
		OneWumpus:        t.Agent.OneWumpus,
		Method:           m.String(),
	}
}

// FromHeader rebuilds the tuning a turn log was recorded with.
func FromHeader(h protocol.EpisodeHeader) Episode {
	return Episode{
		Seed:           h.Seed,
		GridSize:       h.GridSize,
		PitProbability: h.PitProbability,
		MaxTurns:       h.MaxTurns,
		Agent: Agent{
			Fallback:         h.Agent.Fallback,
			MaxGambles:       h.Agent.MaxGambles,
			Seed:             h.Agent.AgentSeed,
			OneWumpus:        h.Agent.OneWumpus,
			EnumerationLimit: h.Agent.EnumerationLimit,
			Method:           h.Agent.Method,
		},
	}
}
