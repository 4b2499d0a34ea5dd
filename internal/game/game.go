package game

import "encoding/json"

// GameInfo describes a game type for the lobby.
type GameInfo struct {
	Name       string `json:"name"`
	MinPlayers int    `json:"minPlayers"`
	MaxPlayers int    `json:"maxPlayers"`
}

// MatchConfig holds settings for creating a new match.
type MatchConfig struct {
	PlayerIDs []PlayerID
	Seed      uint64
	Options   json.RawMessage
}

// PlayerResult holds the outcome for one player.
type PlayerResult struct {
	PlayerID PlayerID `json:"playerId"`
	Rank     int      `json:"rank"` // 1 = first place
	Score    int      `json:"score"`
}

// Outcome is what a match reports once it is over.
type Outcome struct {
	Winners []PlayerID `json:"winners,omitempty"`
	Draw    bool       `json:"draw,omitempty"`
}

// DispatchResult is the type-erased result of running one command.
type DispatchResult struct {
	Success bool
	Events  []Event
	Err     error
}

// LogEntry is one replayable step: the command and the random state it ran with.
type LogEntry struct {
	Seq         uint64  `json:"seq"`
	Command     Command `json:"command"`
	RandomState []byte  `json:"randomState"`
}

// Game describes a game type (dice combat, tic-tac-toe, ...).
type Game interface {
	Info() GameInfo
	NewMatch(config MatchConfig) (Match, error)
}

// Match is one in-progress game session. Implementations are not safe for
// concurrent use; callers serialize Dispatch.
type Match interface {
	View(playerID PlayerID) any
	// ViewEvents filters a command's events down to what playerID may see.
	ViewEvents(events []Event, playerID PlayerID) []Event
	Dispatch(cmd Command) DispatchResult
	IsOver() bool
	Results() []PlayerResult
	Log() []LogEntry
	// MarshalJSON / UnmarshalJSON support for persistence
	MarshalJSON() ([]byte, error)
	UnmarshalJSON(data []byte) error
}

// Replayer is implemented by games that can rebuild a match from its setup
// config and command log.
type Replayer interface {
	ReplayMatch(config MatchConfig, entries []LogEntry) (Match, error)
}
