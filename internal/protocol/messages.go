package protocol

// AgentParams echoes the agent configuration into logs so a replay can rebuild it.
type AgentParams struct {
	Fallback         string `json:"fallback"`
	MaxGambles       int    `json:"max_gambles"`
	AgentSeed        int64  `json:"agent_seed"`
	EnumerationLimit int    `json:"enumeration_limit"`
	OneWumpus        bool   `json:"one_wumpus"`
	Method           string `json:"method"`
}

// EpisodeHeader is the first line of a turn log.
type EpisodeHeader struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	EpisodeID       string      `json:"episode_id"`
	Seed            int64       `json:"seed"`
	GridSize        int         `json:"grid_size"`
	PitProbability  float64     `json:"pit_probability"`
	MaxTurns        int         `json:"max_turns"`
	Agent           AgentParams `json:"agent"`
	StartDigest     string      `json:"start_digest"`
}

// TurnRecord is one line per turn: the percept the agent saw, the action it
// chose and the state after the action was applied.
type TurnRecord struct {
	Type     string  `json:"type"`
	Turn     int     `json:"turn"`
	Percept  Percept `json:"percept"`
	Action   Action  `json:"action"`
	Score    int     `json:"score"`
	Terminal Reason  `json:"terminal,omitempty"`
	Digest   string  `json:"digest"`
}

// ResultMsg closes a turn log and is what indexes store.
type ResultMsg struct {
	Type           string  `json:"type"`
	EpisodeID      string  `json:"episode_id"`
	Seed           int64   `json:"seed"`
	GridSize       int     `json:"grid_size"`
	PitProbability float64 `json:"pit_probability"`
	Score          int     `json:"score"`
	Turns          int     `json:"turns"`
	Reason         Reason  `json:"reason"`
	ArrowUsed      bool    `json:"arrow_used"`
	GoldGrabbed    bool    `json:"gold_grabbed"`
	Digest         string  `json:"digest"`
}

// StateObs is the read-only world view handed to observers.
type StateObs struct {
	GridSize    int      `json:"grid_size"`
	Turn        int      `json:"turn"`
	Score       int      `json:"score"`
	Agent       [2]int   `json:"agent"`
	Facing      string   `json:"facing"`
	Alive       bool     `json:"alive"`
	HasArrow    bool     `json:"has_arrow"`
	InCave      bool     `json:"in_cave"`
	Wumpus      [2]int   `json:"wumpus"`
	WumpusAlive bool     `json:"wumpus_alive"`
	Gold        [2]int   `json:"gold"`
	GoldGrabbed bool     `json:"gold_grabbed"`
	Pits        [][2]int `json:"pits"`
}

// ObserverMsg is pushed to observer clients after every turn.
type ObserverMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	EpisodeID       string      `json:"episode_id"`
	State           StateObs    `json:"state"`
	Turn            *TurnRecord `json:"turn,omitempty"`
}

// SubscribeMsg opens an observer stream.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// BootstrapResponse answers GET /observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string        `json:"protocol_version"`
	Episode         EpisodeHeader `json:"episode"`
	Latest          *ObserverMsg  `json:"latest,omitempty"`
}
