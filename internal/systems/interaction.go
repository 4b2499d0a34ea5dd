package systems

import (
	"encoding/json"
	"slices"

	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// Interaction kinds understood by the interaction system itself. Games add
// their own kinds freely.
const (
	KindSimpleChoice    = "simple-choice"
	KindMultistepChoice = "multistep-choice"
)

// StepReducer accumulates the partial result of a multistep interaction.
// CompletedSteps counts distinct completed sub-targets, so editing the same
// target twice does not count as two steps.
type StepReducer interface {
	Reduce(result, step json.RawMessage) (json.RawMessage, error)
	CompletedSteps(result json.RawMessage) int
}

// Interaction runs the blocking choice protocol: one current descriptor, a
// FIFO queue behind it, and only the owner may answer.
type Interaction[C any] struct {
	reducers    map[string]StepReducer
	passThrough []string
}

// NewInteraction creates the interaction system. Commands in passThrough are
// allowed while an interaction is pending.
func NewInteraction[C any](passThrough ...string) *Interaction[C] {
	return &Interaction[C]{
		reducers:    make(map[string]StepReducer),
		passThrough: passThrough,
	}
}

// RegisterStepReducer makes a reducer available to multistep interactions
// whose progress names it. Registering a name twice panics.
func (s *Interaction[C]) RegisterStepReducer(name string, r StepReducer) {
	if _, exists := s.reducers[name]; exists {
		panic("step reducer already registered: " + name)
	}
	s.reducers[name] = r
}

func (s *Interaction[C]) Name() string { return "interaction" }

func (s *Interaction[C]) BeforeCommand(ctx engine.HookContext[C]) engine.HookResult {
	current := ctx.State.Sys.Interaction.Current
	cmd := ctx.Command

	switch cmd.Type {
	case CommandRespond, CommandCancel, CommandStep, CommandConfirm:
		if current == nil {
			return engine.Halt(engine.Reject(engine.CodeInvalid, "no interaction pending"))
		}
		if cmd.PlayerID != current.PlayerID {
			return engine.Halt(engine.Reject(engine.CodeUnauthorized, "not your interaction"))
		}
		return s.answer(*current, cmd)
	case CommandExpire:
		if cmd.PlayerID != game.SystemPlayerID {
			return engine.Halt(engine.Reject(engine.CodeUnauthorized, "only the host may expire an interaction"))
		}
		if current == nil {
			return engine.Halt(engine.Reject(engine.CodeInvalid, "no interaction pending"))
		}
		return engine.Handled(game.MustEvent(game.EventInteractionExpired, game.InteractionPayload{Interaction: *current}, 0))
	}

	if current != nil && ctx.State.Sys.GameOver == nil && !slices.Contains(s.passThrough, cmd.Type) {
		return engine.Halt(engine.Rejectf(engine.CodeBlocked, "waiting for %s to respond", current.PlayerID))
	}
	return engine.Continue()
}

func (s *Interaction[C]) answer(current game.InteractionDescriptor, cmd game.Command) engine.HookResult {
	switch cmd.Type {
	case CommandRespond:
		p, err := game.DecodePayload[RespondPayload](cmd.Payload)
		if err != nil {
			return engine.Halt(engine.Reject(engine.CodeInvalid, err.Error()))
		}
		if p.InteractionID != "" && p.InteractionID != current.ID {
			return engine.Halt(engine.Reject(engine.CodeInvalidTarget, "interaction is no longer current"))
		}
		if current.Progress != nil {
			return engine.Halt(engine.Reject(engine.CodeInvalid, "multistep interaction expects STEP or CONFIRM"))
		}
		return engine.Handled(game.MustEvent(game.EventInteractionResolved, game.InteractionPayload{
			Interaction: current,
			Value:       p.Value,
		}, 0))

	case CommandCancel:
		return engine.Handled(game.MustEvent(game.EventInteractionCancelled, game.InteractionPayload{Interaction: current}, 0))

	case CommandStep:
		if current.Progress == nil {
			return engine.Halt(engine.Reject(engine.CodeInvalid, "interaction does not take steps"))
		}
		p, err := game.DecodePayload[StepPayload](cmd.Payload)
		if err != nil {
			return engine.Halt(engine.Reject(engine.CodeInvalid, err.Error()))
		}
		if p.InteractionID != "" && p.InteractionID != current.ID {
			return engine.Halt(engine.Reject(engine.CodeInvalidTarget, "interaction is no longer current"))
		}
		reducer, ok := s.reducers[current.Progress.Reducer]
		if !ok {
			return engine.Halt(engine.Invariantf("no step reducer registered for %q", current.Progress.Reducer))
		}
		result, err := reducer.Reduce(current.Progress.Result, p.Step)
		if err != nil {
			if _, ok := engine.AsRejection(err); ok {
				return engine.Halt(err)
			}
			return engine.Halt(engine.Reject(engine.CodeInvalid, err.Error()))
		}
		completed := reducer.CompletedSteps(result)
		events := []game.Event{game.MustEvent(game.EventInteractionStepped, game.InteractionSteppedPayload{
			InteractionID: current.ID,
			Step:          p.Step,
			Result:        result,
			Completed:     completed,
		}, 0)}
		if current.Progress.MaxSteps > 0 && completed >= current.Progress.MaxSteps {
			events = append(events, game.MustEvent(game.EventInteractionConfirmed, game.InteractionPayload{
				Interaction: current,
				Value:       result,
			}, 0))
		}
		return engine.Handled(events...)

	case CommandConfirm:
		if current.Progress == nil {
			return engine.Halt(engine.Reject(engine.CodeInvalid, "interaction does not take steps"))
		}
		return engine.Handled(game.MustEvent(game.EventInteractionConfirmed, game.InteractionPayload{
			Interaction: current,
			Value:       current.Progress.Result,
		}, 0))
	}
	return engine.Continue()
}

func (s *Interaction[C]) Fold(sys game.SysState, evt game.Event) (game.SysState, error) {
	switch evt.Type {
	case game.EventInteractionRequested:
		p, err := game.DecodePayload[game.InteractionPayload](evt.Payload)
		if err != nil {
			return sys, err
		}
		desc := p.Interaction
		if sys.Interaction.Current == nil {
			sys.Interaction = game.InteractionState{Current: &desc, Queue: sys.Interaction.Queue}
		} else {
			queue := append(slices.Clone(sys.Interaction.Queue), desc)
			sys.Interaction = game.InteractionState{Current: sys.Interaction.Current, Queue: queue}
		}

	case game.EventInteractionResolved, game.EventInteractionCancelled,
		game.EventInteractionExpired, game.EventInteractionConfirmed:
		p, err := game.DecodePayload[game.InteractionPayload](evt.Payload)
		if err != nil {
			return sys, err
		}
		if sys.Interaction.Current == nil || sys.Interaction.Current.ID != p.Interaction.ID {
			return sys, nil
		}
		sys.Interaction = promote(sys.Interaction.Queue)

	case game.EventInteractionStepped:
		p, err := game.DecodePayload[game.InteractionSteppedPayload](evt.Payload)
		if err != nil {
			return sys, err
		}
		current := sys.Interaction.Current
		if current == nil || current.ID != p.InteractionID || current.Progress == nil {
			return sys, nil
		}
		next := *current
		progress := *current.Progress
		progress.Result = p.Result
		progress.Completed = p.Completed
		next.Progress = &progress
		sys.Interaction = game.InteractionState{Current: &next, Queue: sys.Interaction.Queue}
	}
	return sys, nil
}

// promote makes the queue head current.
func promote(queue []game.InteractionDescriptor) game.InteractionState {
	if len(queue) == 0 {
		return game.InteractionState{}
	}
	head := queue[0]
	return game.InteractionState{Current: &head, Queue: slices.Clone(queue[1:])}
}
