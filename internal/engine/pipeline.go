package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// DefaultMaxContinuationDepth bounds the number of continuation rounds one
// command may trigger.
const DefaultMaxContinuationDepth = 32

// Config wires a domain to its systems.
type Config[C any] struct {
	Domain               game.DomainCore[C]
	Systems              []System
	MaxContinuationDepth int
	Logger               logrus.FieldLogger
}

func (c Config[C]) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

func (c Config[C]) maxDepth() int {
	if c.MaxContinuationDepth <= 0 {
		return DefaultMaxContinuationDepth
	}
	return c.MaxContinuationDepth
}

// Result is the outcome of one pipeline step. On failure State is the input
// state, untouched.
type Result[C any] struct {
	Success bool
	State   game.MatchState[C]
	Events  []game.Event
	Err     error
}

// ExecutePipeline runs one command to completion. Either the whole step
// commits or the input state is returned with an error.
func ExecutePipeline[C any](cfg Config[C], state game.MatchState[C], cmd game.Command, random game.Random, playerIDs []game.PlayerID) Result[C] {
	log := cfg.logger().WithFields(logrus.Fields{
		"component": "pipeline",
		"command":   cmd.Type,
		"player_id": cmd.PlayerID,
		"seq":       state.Sys.Seq,
	})
	fail := func(err error) Result[C] {
		if errors.Is(err, ErrInvariant) {
			log.WithError(err).Error("command failed")
		} else {
			log.WithError(err).Debug("command rejected")
		}
		return Result[C]{State: state, Err: err}
	}

	if err := cmd.CheckShape(); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrInvariant, err))
	}

	counted := &countingRandom{Random: random}
	random = counted
	ctx := HookContext[C]{
		State:     state,
		Command:   cmd,
		Random:    random,
		PlayerIDs: playerIDs,
		Logger:    log,
	}

	var initial []game.Event
	handled := false
	for _, sys := range cfg.Systems {
		hook, ok := sys.(BeforeCommandHook[C])
		if !ok {
			continue
		}
		res := hook.BeforeCommand(ctx)
		if res.Err != nil {
			return fail(res.Err)
		}
		initial = append(initial, res.Events...)
		if res.Handled {
			handled = true
			break
		}
	}

	if !handled {
		if state.Sys.GameOver != nil {
			return fail(Reject(CodeGameOver, "game is over"))
		}
		if err := cfg.Domain.Validate(state, cmd); err != nil {
			if _, ok := AsRejection(err); ok {
				return fail(err)
			}
			return fail(Reject(CodeInvalid, err.Error()))
		}
		events, err := cfg.Domain.Execute(state, cmd, random)
		if err != nil {
			if _, ok := AsRejection(err); ok {
				return fail(err)
			}
			return fail(fmt.Errorf("%w: execute %s: %v", ErrInvariant, cmd.Type, err))
		}
		initial = append(initial, events...)
	}

	r := &run[C]{cfg: cfg, state: state, ctx: ctx, random: counted}
	if err := r.apply(initial); err != nil {
		return fail(err)
	}
	if err := r.checkGameOver(); err != nil {
		return fail(err)
	}

	round := append([]game.Event(nil), r.events...)
	for depth := 0; len(round) > 0; depth++ {
		if depth >= cfg.maxDepth() {
			return fail(Invariantf("continuation depth exceeded %d", cfg.maxDepth()))
		}
		produced, err := r.continueRound(round)
		if err != nil {
			return fail(err)
		}
		if err := r.checkGameOver(); err != nil {
			return fail(err)
		}
		round = produced
	}

	r.state.Sys.Seq++
	log.WithField("events", len(r.events)).Debug("command committed")
	return Result[C]{Success: true, State: r.state, Events: r.events}
}

// run holds the in-flight state of one pipeline step.
type run[C any] struct {
	cfg    Config[C]
	state  game.MatchState[C]
	ctx    HookContext[C]
	random *countingRandom
	events []game.Event
}

func (r *run[C]) stamp(evt game.Event) game.Event {
	if evt.Timestamp == 0 {
		evt.Timestamp = r.ctx.Command.Timestamp
	}
	if evt.SourceCommandType == "" {
		evt.SourceCommandType = r.ctx.Command.Type
	}
	return evt
}

// apply folds events in order and records them.
func (r *run[C]) apply(events []game.Event) error {
	for _, evt := range events {
		evt = r.stamp(evt)
		next, err := r.fold(r.state, evt)
		if err != nil {
			return err
		}
		r.state = next
		r.events = append(r.events, evt)
	}
	return nil
}

// continueRound lets the domain and each system react to the previous
// round. Every producer's events are folded before the next producer runs.
func (r *run[C]) continueRound(round []game.Event) ([]game.Event, error) {
	var produced []game.Event
	start := len(r.events)

	if handler, ok := r.cfg.Domain.(game.SystemEventHandler[C]); ok {
		for _, evt := range round {
			if !game.IsSystemEvent(evt.Type) {
				continue
			}
			events, err := handler.HandleSystemEvent(r.state, evt, r.ctx.Random)
			if err != nil {
				return nil, fmt.Errorf("%w: continue %s: %v", ErrInvariant, evt.Type, err)
			}
			if err := r.apply(events); err != nil {
				return nil, err
			}
		}
	}

	for _, sys := range r.cfg.Systems {
		hook, ok := sys.(AfterCommandHook[C])
		if !ok {
			continue
		}
		ctx := r.ctx
		ctx.State = r.state
		ctx.Events = round
		ctx.RandomDrawn = r.random.draws > 0
		events, err := hook.AfterCommand(ctx)
		if err != nil {
			if _, ok := AsRejection(err); ok {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s after command: %v", ErrInvariant, sys.Name(), err)
		}
		if err := r.apply(events); err != nil {
			return nil, err
		}
	}

	produced = append(produced, r.events[start:]...)
	return produced, nil
}

func (r *run[C]) checkGameOver() error {
	if r.state.Sys.GameOver != nil {
		return nil
	}
	outcome, over := r.cfg.Domain.IsGameOver(r.state.Core)
	if !over {
		return nil
	}
	return r.apply([]game.Event{game.MustEvent(game.EventGameOver, game.GameOverPayload{Outcome: outcome}, 0)})
}

// fold applies one event: engine-owned events first, then the domain reducer,
// then each system's fold in registration order.
func (r *run[C]) fold(state game.MatchState[C], evt game.Event) (game.MatchState[C], error) {
	next := state
	switch evt.Type {
	case game.EventGameOver:
		payload, err := game.DecodePayload[game.GameOverPayload](evt.Payload)
		if err != nil {
			return state, fmt.Errorf("%w: %v", ErrInvariant, err)
		}
		outcome := payload.Outcome
		next.Sys.GameOver = &outcome
	case game.EventUndoSnapshot, game.EventUndoDiscarded:
	case game.EventUndoRestored:
		restored, err := restoreSnapshot(next, evt)
		if err != nil {
			return state, err
		}
		next = restored
	default:
		core, err := r.cfg.Domain.Reduce(next.Core, evt)
		if err != nil {
			return state, fmt.Errorf("%w: reduce %s: %v", ErrInvariant, evt.Type, err)
		}
		next.Core = core
	}

	for _, sys := range r.cfg.Systems {
		folder, ok := sys.(EventFolder)
		if !ok {
			continue
		}
		folded, err := folder.Fold(next.Sys, evt)
		if err != nil {
			return state, fmt.Errorf("%w: %s fold %s: %v", ErrInvariant, sys.Name(), evt.Type, err)
		}
		next.Sys = folded
	}
	return next, nil
}

// restoreSnapshot replaces core and every non-undo slice with an undo
// snapshot. Seq stays monotonic so ids remain unique after an undo.
func restoreSnapshot[C any](state game.MatchState[C], evt game.Event) (game.MatchState[C], error) {
	payload, err := game.DecodePayload[game.UndoSnapshotPayload](evt.Payload)
	if err != nil {
		return state, fmt.Errorf("%w: %v", ErrInvariant, err)
	}
	var core C
	if err := json.Unmarshal(payload.Snapshot.Core, &core); err != nil {
		return state, fmt.Errorf("%w: decode snapshot core: %v", ErrInvariant, err)
	}
	var sys game.SysState
	if err := json.Unmarshal(payload.Snapshot.Sys, &sys); err != nil {
		return state, fmt.Errorf("%w: decode snapshot sys: %v", ErrInvariant, err)
	}
	sys.Seq = state.Sys.Seq
	sys.Undo = state.Sys.Undo
	return game.MatchState[C]{Core: core, Sys: sys}, nil
}

// Snapshot encodes the state an undo would restore.
func Snapshot[C any](state game.MatchState[C], cmd game.Command) (game.UndoSnapshot, error) {
	core, err := json.Marshal(state.Core)
	if err != nil {
		return game.UndoSnapshot{}, fmt.Errorf("encode snapshot core: %w", err)
	}
	sys := state.Sys
	sys.Undo = game.UndoState{}
	sysJSON, err := json.Marshal(sys)
	if err != nil {
		return game.UndoSnapshot{}, fmt.Errorf("encode snapshot sys: %w", err)
	}
	return game.UndoSnapshot{
		Seq:         state.Sys.Seq,
		CommandType: cmd.Type,
		PlayerID:    cmd.PlayerID,
		Core:        core,
		Sys:         sysJSON,
	}, nil
}
