package systems

import (
	"slices"

	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// DefaultUndoDepth is the number of snapshots kept when none is configured.
const DefaultUndoDepth = 10

// Undo snapshots state before undoable commands and restores the latest
// snapshot on request. With more than one player an opponent must approve.
type Undo[C any] struct {
	depth    int
	undoable func(cmdType string) bool
}

// NewUndo creates the undo system. A nil undoable marks every command
// undoable except the host-level ones (rematch, tutorial, cheat, expire).
func NewUndo[C any](depth int, undoable func(cmdType string) bool) *Undo[C] {
	if depth <= 0 {
		depth = DefaultUndoDepth
	}
	return &Undo[C]{depth: depth, undoable: undoable}
}

func (s *Undo[C]) Name() string { return "undo" }

func (s *Undo[C]) BeforeCommand(ctx engine.HookContext[C]) engine.HookResult {
	cmd := ctx.Command
	undo := ctx.State.Sys.Undo

	switch cmd.Type {
	case CommandUndoRequest, CommandUndoApprove, CommandUndoReject, CommandUndoCancel:
		if ctx.State.Sys.GameOver != nil {
			return engine.Halt(engine.Reject(engine.CodeGameOver, "game is over"))
		}
	default:
		if !s.isUndoable(cmd.Type) {
			return engine.Continue()
		}
		snapshot, err := engine.Snapshot(ctx.State, cmd)
		if err != nil {
			return engine.Halt(engine.Invariantf("snapshot: %v", err))
		}
		return engine.HookResult{Events: []game.Event{
			game.MustEvent(game.EventUndoSnapshot, game.UndoSnapshotPayload{Snapshot: snapshot}, 0),
		}}
	}

	switch cmd.Type {
	case CommandUndoRequest:
		if len(undo.Snapshots) == 0 {
			return engine.Halt(engine.Reject(engine.CodeInvalid, "nothing to undo"))
		}
		if undo.Request != nil {
			return engine.Halt(engine.Reject(engine.CodeInvalid, "undo already requested"))
		}
		if len(ctx.PlayerIDs) <= 1 {
			return engine.Handled(restoreEvent(undo))
		}
		return engine.Handled(game.MustEvent(game.EventUndoRequested, game.UndoRequestPayload{PlayerID: cmd.PlayerID}, 0))

	case CommandUndoApprove, CommandUndoReject:
		if undo.Request == nil {
			return engine.Halt(engine.Reject(engine.CodeInvalid, "no undo requested"))
		}
		if cmd.PlayerID == undo.Request.PlayerID {
			return engine.Halt(engine.Reject(engine.CodeUnauthorized, "cannot answer your own undo request"))
		}
		if cmd.Type == CommandUndoReject {
			return engine.Handled(game.MustEvent(game.EventUndoRejected, game.UndoRequestPayload{PlayerID: cmd.PlayerID}, 0))
		}
		return engine.Handled(restoreEvent(undo))

	default: // CommandUndoCancel
		if undo.Request == nil {
			return engine.Halt(engine.Reject(engine.CodeInvalid, "no undo requested"))
		}
		if cmd.PlayerID != undo.Request.PlayerID {
			return engine.Halt(engine.Reject(engine.CodeUnauthorized, "not your undo request"))
		}
		return engine.Handled(game.MustEvent(game.EventUndoCancelled, game.UndoRequestPayload{PlayerID: cmd.PlayerID}, 0))
	}
}

func (s *Undo[C]) isUndoable(cmdType string) bool {
	if s.undoable == nil {
		return !IsHostCommand(cmdType)
	}
	return s.undoable(cmdType)
}

// IsHostCommand reports commands that act on the match rather than the game
// and are never undone.
func IsHostCommand(cmdType string) bool {
	return slices.Contains(hostCommands, cmdType)
}

var hostCommands = []string{
	CommandRematchVote,
	CommandTutorialStart,
	CommandTutorialSkip,
	CommandCheat,
	CommandExpire,
}

// AfterCommand discards the snapshot of a command that drew randomness.
func (s *Undo[C]) AfterCommand(ctx engine.HookContext[C]) ([]game.Event, error) {
	snapshots := ctx.State.Sys.Undo.Snapshots
	if !ctx.RandomDrawn || len(snapshots) == 0 {
		return nil, nil
	}
	latest := snapshots[len(snapshots)-1]
	if latest.Seq != ctx.State.Sys.Seq || latest.CommandType != ctx.Command.Type {
		return nil, nil
	}
	return []game.Event{game.MustEvent(game.EventUndoDiscarded, struct{}{}, 0)}, nil
}

func restoreEvent(undo game.UndoState) game.Event {
	latest := undo.Snapshots[len(undo.Snapshots)-1]
	return game.MustEvent(game.EventUndoRestored, game.UndoSnapshotPayload{Snapshot: latest}, 0)
}

func (s *Undo[C]) Fold(sys game.SysState, evt game.Event) (game.SysState, error) {
	switch evt.Type {
	case game.EventUndoSnapshot:
		p, err := game.DecodePayload[game.UndoSnapshotPayload](evt.Payload)
		if err != nil {
			return sys, err
		}
		snapshots := append(slices.Clone(sys.Undo.Snapshots), p.Snapshot)
		if len(snapshots) > s.depth {
			snapshots = snapshots[len(snapshots)-s.depth:]
		}
		sys.Undo = game.UndoState{Snapshots: snapshots}
	case game.EventUndoRequested:
		p, err := game.DecodePayload[game.UndoRequestPayload](evt.Payload)
		if err != nil {
			return sys, err
		}
		sys.Undo = game.UndoState{
			Snapshots: sys.Undo.Snapshots,
			Request:   &game.UndoRequest{PlayerID: p.PlayerID, Seq: sys.Seq},
		}
	case game.EventUndoRejected, game.EventUndoCancelled:
		sys.Undo = game.UndoState{Snapshots: sys.Undo.Snapshots}
	case game.EventUndoRestored:
		snapshots := sys.Undo.Snapshots
		if len(snapshots) > 0 {
			snapshots = slices.Clone(snapshots[:len(snapshots)-1])
		}
		sys.Undo = game.UndoState{Snapshots: snapshots}
	case game.EventUndoDiscarded:
		snapshots := sys.Undo.Snapshots
		if len(snapshots) > 0 {
			snapshots = slices.Clone(snapshots[:len(snapshots)-1])
		}
		sys.Undo = game.UndoState{Snapshots: snapshots, Request: sys.Undo.Request}
	}
	return sys, nil
}
