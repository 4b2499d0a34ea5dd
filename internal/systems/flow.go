package systems

import (
	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// FlowHooks is implemented by games that use phases. Phase names and order are
// the game's; the flow system only drives the transitions.
type FlowHooks[C any] interface {
	InitialPhase() string
	NextPhase(state game.MatchState[C], from string) string
	// CanAdvance vetoes ADVANCE_PHASE. Returning a rejection surfaces it as is.
	CanAdvance(state game.MatchState[C], playerID game.PlayerID, from string) error
	OnPhaseExit(state game.MatchState[C], from, to string, random game.Random) ([]game.Event, error)
	OnPhaseEnter(state game.MatchState[C], phase string, random game.Random) ([]game.Event, error)
	// AutoAdvance reports phases that pass on their own once entered.
	AutoAdvance(state game.MatchState[C], phase string) bool
}

// Flow is the phase state machine. A transition exits its source phase, waits
// until no interaction or response window is open, then enters the target.
type Flow[C any] struct {
	hooks FlowHooks[C]
}

// NewFlow creates the flow system over a game's hooks.
func NewFlow[C any](hooks FlowHooks[C]) *Flow[C] {
	return &Flow[C]{hooks: hooks}
}

func (f *Flow[C]) Name() string { return "flow" }

func (f *Flow[C]) InitSys(sys game.SysState) game.SysState {
	sys.Phase = game.PhaseState{Current: f.hooks.InitialPhase()}
	return sys
}

func (f *Flow[C]) BeforeCommand(ctx engine.HookContext[C]) engine.HookResult {
	if ctx.Command.Type != CommandAdvancePhase {
		return engine.Continue()
	}
	sys := ctx.State.Sys
	if sys.GameOver != nil {
		return engine.Halt(engine.Reject(engine.CodeGameOver, "game is over"))
	}
	if sys.Phase.Pending != nil {
		return engine.Halt(engine.Reject(engine.CodeBlocked, "phase transition in progress"))
	}
	from := sys.Phase.Current
	if err := f.hooks.CanAdvance(ctx.State, ctx.Command.PlayerID, from); err != nil {
		if _, ok := engine.AsRejection(err); ok {
			return engine.Halt(err)
		}
		return engine.Halt(engine.Reject(engine.CodeInvalid, err.Error()))
	}
	return engine.Handled(f.exiting(ctx.State, from))
}

func (f *Flow[C]) exiting(state game.MatchState[C], from string) game.Event {
	to := f.hooks.NextPhase(state, from)
	return game.MustEvent(game.EventPhaseExiting, game.PhasePayload{From: from, To: to}, 0)
}

func (f *Flow[C]) AfterCommand(ctx engine.HookContext[C]) ([]game.Event, error) {
	sys := ctx.State.Sys
	if sys.GameOver != nil {
		return nil, nil
	}

	if pending := sys.Phase.Pending; pending != nil {
		if containsEvent(ctx.Events, game.EventPhaseExiting) {
			events, err := f.hooks.OnPhaseExit(ctx.State, pending.From, pending.To, ctx.Random)
			if err != nil {
				return nil, err
			}
			if len(events) > 0 {
				return events, nil
			}
		}
		if transitionBlocked(sys) {
			return nil, nil
		}
		return []game.Event{
			game.MustEvent(game.EventPhaseChanged, game.PhasePayload{From: pending.From, To: pending.To}, 0),
		}, nil
	}

	if containsEvent(ctx.Events, game.EventPhaseChanged) {
		phase := sys.Phase.Current
		events, err := f.hooks.OnPhaseEnter(ctx.State, phase, ctx.Random)
		if err != nil {
			return nil, err
		}
		return append(events, game.MustEvent(game.EventPhaseEntered, game.PhaseEnteredPayload{Phase: phase}, 0)), nil
	}

	if len(ctx.Events) > 0 && !transitionBlocked(sys) && f.hooks.AutoAdvance(ctx.State, sys.Phase.Current) {
		return []game.Event{f.exiting(ctx.State, sys.Phase.Current)}, nil
	}
	return nil, nil
}

func (f *Flow[C]) Fold(sys game.SysState, evt game.Event) (game.SysState, error) {
	switch evt.Type {
	case game.EventPhaseExiting:
		p, err := game.DecodePayload[game.PhasePayload](evt.Payload)
		if err != nil {
			return sys, err
		}
		sys.Phase = game.PhaseState{
			Current: sys.Phase.Current,
			Pending: &game.PhaseTransition{From: p.From, To: p.To},
		}
	case game.EventPhaseChanged:
		p, err := game.DecodePayload[game.PhasePayload](evt.Payload)
		if err != nil {
			return sys, err
		}
		sys.Phase = game.PhaseState{Current: p.To}
	}
	return sys, nil
}

// transitionBlocked reports whether a pending transition must wait.
func transitionBlocked(sys game.SysState) bool {
	return sys.GameOver != nil || sys.Interaction.Current != nil || sys.ResponseWindow.Current != nil
}
