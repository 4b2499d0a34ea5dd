package systems

import (
	"encoding/json"

	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// CheatHandler is implemented by games that support debug cheats.
type CheatHandler[C any] interface {
	Cheat(state game.MatchState[C], playerID game.PlayerID, action string, params json.RawMessage, random game.Random) ([]game.Event, error)
}

// Cheat gates CHEAT commands behind a host switch and hands them to the game.
type Cheat[C any] struct {
	enabled bool
	handler CheatHandler[C]
}

// NewCheat creates the cheat system. handler may be nil.
func NewCheat[C any](enabled bool, handler CheatHandler[C]) *Cheat[C] {
	return &Cheat[C]{enabled: enabled, handler: handler}
}

func (s *Cheat[C]) Name() string { return "cheat" }

func (s *Cheat[C]) BeforeCommand(ctx engine.HookContext[C]) engine.HookResult {
	if ctx.Command.Type != CommandCheat {
		return engine.Continue()
	}
	if !s.enabled {
		return engine.Halt(engine.Reject(engine.CodeDisabled, "cheats are disabled"))
	}
	if s.handler == nil {
		return engine.Halt(engine.Reject(engine.CodeDisabled, "game has no cheats"))
	}
	p, err := game.DecodePayload[CheatPayload](ctx.Command.Payload)
	if err != nil {
		return engine.Halt(engine.Reject(engine.CodeInvalid, err.Error()))
	}
	events, err := s.handler.Cheat(ctx.State, ctx.Command.PlayerID, p.Action, p.Params, ctx.Random)
	if err != nil {
		if _, ok := engine.AsRejection(err); ok {
			return engine.Halt(err)
		}
		return engine.Halt(engine.Reject(engine.CodeInvalid, err.Error()))
	}
	if ctx.Logger != nil {
		ctx.Logger.WithField("action", p.Action).Warn("cheat used")
	}
	events = append(events, game.MustEvent(game.EventCheatUsed, game.CheatUsedPayload{
		PlayerID: ctx.Command.PlayerID,
		Action:   p.Action,
	}, 0))
	return engine.Handled(events...)
}
