package game

import "encoding/json"

// Random is the injected source of randomness. Replaying a command with the
// same random state must reproduce the same events.
type Random interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// D rolls a die with the given number of sides, returning 1..sides.
	D(sides int) int
	// Range returns an integer in [min, max].
	Range(min, max int) int
	// Shuffle permutes n elements through swap.
	Shuffle(n int, swap func(i, j int))
}

// DomainCore is the per-game plug-in the pipeline is generic over. Reduce must
// return a new core and never mutate its input.
type DomainCore[C any] interface {
	Setup(playerIDs []PlayerID, random Random, options json.RawMessage) (C, error)
	Validate(state MatchState[C], cmd Command) error
	Execute(state MatchState[C], cmd Command, random Random) ([]Event, error)
	Reduce(core C, evt Event) (C, error)
	PlayerView(state MatchState[C], viewerID PlayerID) any
	IsGameOver(core C) (Outcome, bool)
}

// SystemEventHandler is implemented by domains that continue their own logic
// when a system event is folded (an interaction resolves, a window closes).
type SystemEventHandler[C any] interface {
	HandleSystemEvent(state MatchState[C], evt Event, random Random) ([]Event, error)
}
