// Package bridge implements the German Bridge rule and session engine: deck
// handling, bid legality, trick resolution, and scoring, wrapped in a
// mutex-guarded Game state machine that funnels every player action through
// a single authoritative owner.
package bridge

import "german-bridge/card"

// PlayerID is a session identifier, stable across reconnects. The engine
// treats it as an opaque comparable key; the connection manager is the
// only component that maps it to a live socket.
type PlayerID string

// Phase is the game's top-level state.
type Phase byte

const (
	PhaseBidding Phase = iota
	PhasePlaying
	PhaseRoundComplete
	PhaseGameComplete
)

var phaseNames = map[Phase]string{
	PhaseBidding:       "Bidding",
	PhasePlaying:       "Playing",
	PhaseRoundComplete: "RoundComplete",
	PhaseGameComplete:  "GameComplete",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "?"
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// Trick is one card played per seated player, in play order.
type Trick []card.Play[PlayerID]

// RoundResult records one completed round for the game's history block.
type RoundResult struct {
	RoundNumber int                  `json:"round_number"`
	Bids        map[PlayerID]int     `json:"bids"`
	TricksWon   map[PlayerID]int     `json:"tricks_won"`
	ScoreDeltas map[PlayerID]int     `json:"score_deltas"`
}

// PlayerCount is the seat count a lobby is configured for.
type PlayerCount int

const (
	Three PlayerCount = 3
	Four  PlayerCount = 4
)

func (p PlayerCount) String() string {
	switch p {
	case Three:
		return "Three"
	case Four:
		return "Four"
	default:
		return "?"
	}
}

func (p PlayerCount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

func (p *PlayerCount) UnmarshalJSON(data []byte) error {
	name, err := unquoteJSON(data)
	if err != nil {
		return err
	}
	switch name {
	case "Three":
		*p = Three
	case "Four":
		*p = Four
	default:
		return InvalidStateError("unknown player_count " + name)
	}
	return nil
}

// Settings configures a game at creation time (spec.md LobbySettings).
type Settings struct {
	PlayerCount     PlayerCount `json:"player_count"`
	TurnTimeoutSecs int         `json:"turn_timeout_secs"`
	AllowReconnect  bool        `json:"allow_reconnect"`
}

// Validate enforces the bounds from spec.md §3 (LobbySettings).
func (s Settings) Validate() error {
	if s.PlayerCount != Three && s.PlayerCount != Four {
		return InvalidStateError("player_count must be Three or Four")
	}
	if s.TurnTimeoutSecs < 10 || s.TurnTimeoutSecs > 120 {
		return InvalidStateError("turn_timeout_secs must be in [10,120]")
	}
	return nil
}

// MaxPlayers derives the lobby capacity from PlayerCount.
func (s Settings) MaxPlayers() int {
	return int(s.PlayerCount)
}
