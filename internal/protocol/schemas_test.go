package protocol_test

import (
	"encoding/json"
	"strings"
	"testing"

	"wumpusworld.ai/internal/protocol"
)

const digest = "0000000000000000000000000000000000000000000000000000000000000000"

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestSchemas_ValidateSamples(t *testing.T) {
	header := protocol.EpisodeHeader{
		Type:            protocol.TypeEpisode,
		ProtocolVersion: protocol.Version,
		EpisodeID:       "ep-1",
		Seed:            1337,
		GridSize:        4,
		PitProbability:  0.2,
		MaxTurns:        200,
		Agent:           protocol.AgentParams{Fallback: "explore", MaxGambles: 8, AgentSeed: 42, EnumerationLimit: 16, OneWumpus: true, Method: "auto"},
		StartDigest:     digest,
	}
	turn := protocol.TurnRecord{
		Type:     protocol.TypeTurn,
		Turn:     1,
		Percept:  protocol.Percept{Stench: true},
		Action:   protocol.ActShoot,
		Score:    -11,
		Terminal: protocol.ReasonNone,
		Digest:   digest,
	}
	result := protocol.ResultMsg{
		Type:      protocol.TypeResult,
		EpisodeID: "ep-1",
		GridSize:  4,
		Score:     985,
		Turns:     15,
		Reason:    protocol.ReasonClimbedWithGold,
		Digest:    digest,
	}
	obs := protocol.ObserverMsg{
		Type:            protocol.TypeObserve,
		ProtocolVersion: protocol.Version,
		EpisodeID:       "ep-1",
		State: protocol.StateObs{
			GridSize: 4, Turn: 1, Score: -11, Agent: [2]int{1, 1}, Facing: "EAST",
			Alive: true, InCave: true, Wumpus: [2]int{3, 1}, Gold: [2]int{2, 3},
			Pits: [][2]int{{3, 3}},
		},
		Turn: &turn,
	}

	cases := []struct {
		name string
		v    any
	}{
		{protocol.SchemaEpisode, header},
		{protocol.SchemaTurn, turn},
		{protocol.SchemaResult, result},
		{protocol.SchemaObserve, obs},
	}
	for _, c := range cases {
		if err := protocol.Validate(c.name, mustJSON(t, c.v)); err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
	}

	base, err := protocol.ValidateMessage(mustJSON(t, turn))
	if err != nil || base.Type != protocol.TypeTurn {
		t.Fatalf("ValidateMessage: %+v, %v", base, err)
	}
}

func TestSchemas_RejectBadSamples(t *testing.T) {
	bad := map[string]string{
		protocol.SchemaTurn:    `{"type":"TURN","turn":1,"percept":[true,false],"action":"MOVE","score":-1,"digest":"` + digest + `"}`,
		protocol.SchemaResult:  `{"type":"RESULT","episode_id":"x","seed":1,"grid_size":4,"pit_probability":0.2,"score":0,"turns":1,"reason":"QUIT","arrow_used":false,"gold_grabbed":false,"digest":"` + digest + `"}`,
		protocol.SchemaEpisode: `{"type":"EPISODE","protocol_version":"1.0","episode_id":"x","seed":1,"grid_size":1,"pit_probability":0.2,"max_turns":0,"agent":{"fallback":"explore","max_gambles":0,"agent_seed":0,"enumeration_limit":16},"start_digest":"` + digest + `"}`,
	}
	for name, raw := range bad {
		if err := protocol.Validate(name, []byte(raw)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	turnAction := `{"type":"TURN","turn":1,"percept":[false,false,false,false,false],"action":"JUMP","score":-1,"digest":"abc"}`
	if err := protocol.Validate(protocol.SchemaTurn, []byte(turnAction)); err == nil || !strings.Contains(err.Error(), "turn.schema.json") {
		t.Fatalf("expected turn schema error, got %v", err)
	}
	if _, err := protocol.ValidateMessage([]byte(`{"type":"HELLO"}`)); err == nil {
		t.Fatalf("expected unknown type error")
	}
}
