package systems

import (
	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// Options configures the default system set.
type Options struct {
	CheatsEnabled bool
	UndoDepth     int
	// Undoable filters which commands take an undo snapshot. Nil uses the
	// undo system's default.
	Undoable         func(cmdType string) bool
	LogLimit         int
	Tutorials        []TutorialScript
	ResponseTriggers []ResponseTrigger
	// PassThrough lists commands accepted while an interaction is pending.
	PassThrough  []string
	StepReducers map[string]StepReducer
}

// Defaults builds the standard systems for a domain in their fixed order:
// log, undo, cheat, tutorial, interaction, response window, flow, rematch.
// Flow, response window and cheat wire in only when the domain implements
// the matching hooks.
func Defaults[C any](domain game.DomainCore[C], opts Options) []engine.System {
	interaction := NewInteraction[C](opts.PassThrough...)
	for name, r := range opts.StepReducers {
		interaction.RegisterStepReducer(name, r)
	}

	var cheats CheatHandler[C]
	if h, ok := domain.(CheatHandler[C]); ok {
		cheats = h
	}

	out := []engine.System{
		NewLog(opts.LogLimit),
		NewUndo[C](opts.UndoDepth, opts.Undoable),
		NewCheat[C](opts.CheatsEnabled, cheats),
		NewTutorial[C](opts.Tutorials...),
		interaction,
	}
	if hooks, ok := domain.(ResponseHooks[C]); ok {
		out = append(out, NewResponseWindow[C](hooks, opts.ResponseTriggers...))
	}
	if hooks, ok := domain.(FlowHooks[C]); ok {
		out = append(out, NewFlow[C](hooks))
	}
	return append(out, NewRematch[C]())
}
