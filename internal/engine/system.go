package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// System is a cross-cutting module that owns one sys slice. A system
// participates in the pipeline by implementing any of the hook interfaces
// below; the pipeline calls hooks in registration order.
type System interface {
	Name() string
}

// HookContext is what a hook sees. State is read-only for hooks: changes are
// expressed as events and folded by the pipeline.
type HookContext[C any] struct {
	State     game.MatchState[C]
	Command   game.Command
	Random    game.Random
	PlayerIDs []game.PlayerID
	// Events holds the events folded in the round that triggered an
	// AfterCommand call. It is empty for BeforeCommand.
	Events []game.Event
	// RandomDrawn reports whether the command has drawn from Random so far.
	RandomDrawn bool
	Logger      logrus.FieldLogger
}

// HookResult is returned by BeforeCommand. A non-nil Err halts the command.
// Handled means the system consumed the command and the domain is skipped.
type HookResult struct {
	Handled bool
	Events  []game.Event
	Err     error
}

// Continue is the zero result: the command proceeds untouched.
func Continue() HookResult { return HookResult{} }

// Halt stops the command with err.
func Halt(err error) HookResult { return HookResult{Err: err} }

// Handled consumes the command, emitting events.
func Handled(events ...game.Event) HookResult {
	return HookResult{Handled: true, Events: events}
}

// BeforeCommandHook runs before domain validation.
type BeforeCommandHook[C any] interface {
	BeforeCommand(ctx HookContext[C]) HookResult
}

// EventFolder folds events into the system's own slice. It must return a new
// SysState built from sys and must not write other systems' slices.
type EventFolder interface {
	Fold(sys game.SysState, evt game.Event) (game.SysState, error)
}

// AfterCommandHook runs after each folded round and may emit continuation events.
type AfterCommandHook[C any] interface {
	AfterCommand(ctx HookContext[C]) ([]game.Event, error)
}

// SysInitializer seeds a system's slice when a match is created.
type SysInitializer interface {
	InitSys(sys game.SysState) game.SysState
}
