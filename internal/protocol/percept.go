package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Percept is the five-bit sensation delivered to the agent each turn. On the
// wire it is the ordered tuple [breeze, stench, bump, scream, glitter].
type Percept struct {
	Breeze  bool
	Stench  bool
	Bump    bool
	Scream  bool
	Glitter bool
}

func (p Percept) Tuple() [5]bool {
	return [5]bool{p.Breeze, p.Stench, p.Bump, p.Scream, p.Glitter}
}

func PerceptFromTuple(t [5]bool) Percept {
	return Percept{Breeze: t[0], Stench: t[1], Bump: t[2], Scream: t[3], Glitter: t[4]}
}

func (p Percept) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Tuple())
}

func (p *Percept) UnmarshalJSON(b []byte) error {
	var raw []bool
	if err := json.Unmarshal(b, &raw); err != nil || len(raw) != 5 {
		return ErrBadPercept
	}
	*p = PerceptFromTuple([5]bool{raw[0], raw[1], raw[2], raw[3], raw[4]})
	return nil
}

// String lists the set bits, e.g. "breeze,glitter"; "none" when all are clear.
func (p Percept) String() string {
	names := []string{"breeze", "stench", "bump", "scream", "glitter"}
	var on []string
	for i, v := range p.Tuple() {
		if v {
			on = append(on, names[i])
		}
	}
	if len(on) == 0 {
		return "none"
	}
	return strings.Join(on, ",")
}

// Action is the agent's move for one turn.
type Action string

const (
	ActMove      Action = "MOVE"
	ActTurnLeft  Action = "ROTATE_LEFT"
	ActTurnRight Action = "ROTATE_RIGHT"
	ActGrab      Action = "GRAB"
	ActShoot     Action = "SHOOT"
	ActClimb     Action = "CLIMB"
)

var Actions = []Action{ActMove, ActTurnLeft, ActTurnRight, ActGrab, ActShoot, ActClimb}

func (a Action) Valid() bool {
	for _, k := range Actions {
		if a == k {
			return true
		}
	}
	return false
}

// ParseAction accepts the wire symbols case-insensitively.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

func (a *Action) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseAction(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Reason says why an episode ended.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonDied            Reason = "DIED"
	ReasonClimbedWithGold Reason = "CLIMBED_WITH_GOLD"
	ReasonClimbedEmpty    Reason = "CLIMBED_EMPTY"
	ReasonTurnLimit       Reason = "TURN_LIMIT"
)

func ParseReason(s string) (Reason, error) {
	switch r := Reason(strings.ToUpper(s)); r {
	case ReasonDied, ReasonClimbedWithGold, ReasonClimbedEmpty, ReasonTurnLimit:
		return r, nil
	}
	return ReasonNone, fmt.Errorf("%w: %q", ErrUnknownReason, s)
}
