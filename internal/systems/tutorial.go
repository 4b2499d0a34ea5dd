package systems

import (
	"slices"

	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// TutorialStep restricts the commands a player may issue until AdvanceOn is
// observed. An empty AllowedCommands allows everything.
type TutorialStep struct {
	ID              string   `json:"id"`
	AllowedCommands []string `json:"allowedCommands,omitempty"`
	AdvanceOn       string   `json:"advanceOn"`
}

// TutorialScript is an ordered list of steps.
type TutorialScript struct {
	ID    string         `json:"id"`
	Steps []TutorialStep `json:"steps"`
}

// Tutorial drives scripted tutorials.
type Tutorial[C any] struct {
	scripts map[string]TutorialScript
}

// NewTutorial creates the tutorial system over the given scripts.
func NewTutorial[C any](scripts ...TutorialScript) *Tutorial[C] {
	byID := make(map[string]TutorialScript, len(scripts))
	for _, s := range scripts {
		byID[s.ID] = s
	}
	return &Tutorial[C]{scripts: byID}
}

func (s *Tutorial[C]) Name() string { return "tutorial" }

func (s *Tutorial[C]) BeforeCommand(ctx engine.HookContext[C]) engine.HookResult {
	tut := ctx.State.Sys.Tutorial
	switch ctx.Command.Type {
	case CommandTutorialStart:
		p, err := game.DecodePayload[TutorialStartPayload](ctx.Command.Payload)
		if err != nil {
			return engine.Halt(engine.Reject(engine.CodeInvalid, err.Error()))
		}
		script, ok := s.scripts[p.TutorialID]
		if !ok || len(script.Steps) == 0 {
			return engine.Halt(engine.Rejectf(engine.CodeInvalid, "unknown tutorial %q", p.TutorialID))
		}
		if tut.Active {
			return engine.Halt(engine.Reject(engine.CodeInvalid, "tutorial already running"))
		}
		return engine.Handled(game.MustEvent(game.EventTutorialStarted, game.TutorialPayload{TutorialID: script.ID}, 0))
	case CommandTutorialSkip:
		if !tut.Active {
			return engine.Halt(engine.Reject(engine.CodeInvalid, "no tutorial running"))
		}
		return engine.Handled(game.MustEvent(game.EventTutorialSkipped, game.TutorialPayload{TutorialID: tut.ID, Step: tut.Step}, 0))
	}

	step, ok := s.currentStep(tut)
	if !ok || len(step.AllowedCommands) == 0 || slices.Contains(step.AllowedCommands, ctx.Command.Type) {
		return engine.Continue()
	}
	return engine.Halt(engine.Rejectf(engine.CodeBlocked, "tutorial step %s does not allow %s", step.ID, ctx.Command.Type))
}

func (s *Tutorial[C]) AfterCommand(ctx engine.HookContext[C]) ([]game.Event, error) {
	tut := ctx.State.Sys.Tutorial
	step, ok := s.currentStep(tut)
	if !ok || !containsEvent(ctx.Events, step.AdvanceOn) {
		return nil, nil
	}
	next := tut.Step + 1
	events := []game.Event{game.MustEvent(game.EventTutorialStepAdvanced, game.TutorialPayload{TutorialID: tut.ID, Step: next}, 0)}
	if next >= len(s.scripts[tut.ID].Steps) {
		events = append(events, game.MustEvent(game.EventTutorialCompleted, game.TutorialPayload{TutorialID: tut.ID, Step: next}, 0))
	}
	return events, nil
}

func (s *Tutorial[C]) currentStep(tut game.TutorialState) (TutorialStep, bool) {
	if !tut.Active {
		return TutorialStep{}, false
	}
	script, ok := s.scripts[tut.ID]
	if !ok || tut.Step >= len(script.Steps) {
		return TutorialStep{}, false
	}
	return script.Steps[tut.Step], true
}

func (s *Tutorial[C]) Fold(sys game.SysState, evt game.Event) (game.SysState, error) {
	switch evt.Type {
	case game.EventTutorialStarted, game.EventTutorialStepAdvanced,
		game.EventTutorialCompleted, game.EventTutorialSkipped:
	default:
		return sys, nil
	}
	p, err := game.DecodePayload[game.TutorialPayload](evt.Payload)
	if err != nil {
		return sys, err
	}
	switch evt.Type {
	case game.EventTutorialStarted:
		sys.Tutorial = game.TutorialState{ID: p.TutorialID, Active: true}
	case game.EventTutorialStepAdvanced:
		sys.Tutorial = game.TutorialState{ID: sys.Tutorial.ID, Active: sys.Tutorial.Active, Step: p.Step}
	case game.EventTutorialCompleted:
		sys.Tutorial = game.TutorialState{ID: sys.Tutorial.ID, Step: p.Step, Completed: true}
	case game.EventTutorialSkipped:
		sys.Tutorial = game.TutorialState{ID: sys.Tutorial.ID, Step: sys.Tutorial.Step}
	}
	return sys, nil
}
