package systems

import (
	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// ResponseHooks is implemented by games that let non-acting players react.
type ResponseHooks[C any] interface {
	// HasRespondable reports whether the player holds anything usable in a
	// window of this type right now.
	HasRespondable(state game.MatchState[C], playerID game.PlayerID, windowType string) bool
	// IsResponseCommand reports commands a responder may issue while a
	// window is open.
	IsResponseCommand(cmdType string) bool
}

// ResponseTrigger opens a window of WindowType after EventType is folded.
type ResponseTrigger struct {
	EventType  string
	WindowType string
}

// ResponseWindow gives non-acting players a chance to respond before an
// action resolves. A window only opens when someone can respond.
type ResponseWindow[C any] struct {
	hooks    ResponseHooks[C]
	triggers []ResponseTrigger
}

// NewResponseWindow creates the response window system.
func NewResponseWindow[C any](hooks ResponseHooks[C], triggers ...ResponseTrigger) *ResponseWindow[C] {
	return &ResponseWindow[C]{hooks: hooks, triggers: triggers}
}

func (s *ResponseWindow[C]) Name() string { return "responseWindow" }

func (s *ResponseWindow[C]) BeforeCommand(ctx engine.HookContext[C]) engine.HookResult {
	window := ctx.State.Sys.ResponseWindow.Current
	cmd := ctx.Command
	if window == nil || ctx.State.Sys.GameOver != nil {
		if cmd.Type == CommandResponsePass {
			return engine.Halt(engine.Reject(engine.CodeInvalid, "no response window open"))
		}
		return engine.Continue()
	}

	responder := window.CurrentResponder()
	switch {
	case cmd.Type == CommandResponsePass:
		if cmd.PlayerID != responder {
			return engine.Halt(engine.Reject(engine.CodeUnauthorized, "not your response window"))
		}
		return engine.Handled(passEvents(*window, false)...)
	case s.hooks.IsResponseCommand(cmd.Type):
		if cmd.PlayerID != responder {
			return engine.Halt(engine.Reject(engine.CodeUnauthorized, "not your response window"))
		}
		return engine.Continue()
	}
	return engine.Halt(engine.Rejectf(engine.CodeBlocked, "waiting for %s to respond", responder))
}

// passEvents passes the current responder and closes the window after the
// last one.
func passEvents(window game.ResponseWindow, auto bool) []game.Event {
	events := []game.Event{game.MustEvent(game.EventResponseWindowPassed, game.ResponseWindowPassedPayload{
		WindowID: window.ID,
		PlayerID: window.CurrentResponder(),
		Auto:     auto,
	}, 0)}
	if window.CurrentResponderIndex+1 >= len(window.ResponderQueue) {
		events = append(events, closeEvent(window))
	}
	return events
}

func closeEvent(window game.ResponseWindow) game.Event {
	return game.MustEvent(game.EventResponseWindowClosed, game.ResponseWindowClosedPayload{
		WindowID:      window.ID,
		WindowType:    window.WindowType,
		SourceEventID: window.SourceEventID,
	}, 0)
}

func (s *ResponseWindow[C]) AfterCommand(ctx engine.HookContext[C]) ([]game.Event, error) {
	if window := ctx.State.Sys.ResponseWindow.Current; window != nil {
		return s.autoPass(ctx.State, *window), nil
	}
	if ctx.State.Sys.GameOver != nil {
		return nil, nil
	}
	for i, evt := range ctx.Events {
		trigger, ok := s.trigger(evt.Type)
		if !ok {
			continue
		}
		acting := ctx.Command.PlayerID
		responders := s.responders(ctx.State, ctx.PlayerIDs, acting, trigger.WindowType)
		if len(responders) == 0 {
			continue
		}
		seq := ctx.State.Sys.Seq
		window := game.ResponseWindow{
			ID:             game.NewID("response-window", seq, i, evt.Type),
			WindowType:     trigger.WindowType,
			SourceEventID:  game.NewID("event", seq, i, evt.Type),
			ActingPlayerID: acting,
			ResponderQueue: responders,
		}
		return []game.Event{game.MustEvent(game.EventResponseWindowOpened, game.ResponseWindowOpenedPayload{Window: window}, 0)}, nil
	}
	return nil, nil
}

// autoPass passes responders that have nothing left to play.
func (s *ResponseWindow[C]) autoPass(state game.MatchState[C], window game.ResponseWindow) []game.Event {
	var events []game.Event
	for window.CurrentResponderIndex < len(window.ResponderQueue) {
		if s.hooks.HasRespondable(state, window.CurrentResponder(), window.WindowType) {
			break
		}
		events = append(events, passEvents(window, true)...)
		window.CurrentResponderIndex++
	}
	return events
}

func (s *ResponseWindow[C]) trigger(eventType string) (ResponseTrigger, bool) {
	for _, t := range s.triggers {
		if t.EventType == eventType {
			return t, true
		}
	}
	return ResponseTrigger{}, false
}

// responders lists non-acting players able to respond, in seat order after
// the acting player.
func (s *ResponseWindow[C]) responders(state game.MatchState[C], players []game.PlayerID, acting game.PlayerID, windowType string) []game.PlayerID {
	start := 0
	for i, id := range players {
		if id == acting {
			start = i + 1
			break
		}
	}
	var out []game.PlayerID
	for n := 0; n < len(players); n++ {
		id := players[(start+n)%len(players)]
		if id == acting {
			continue
		}
		if s.hooks.HasRespondable(state, id, windowType) {
			out = append(out, id)
		}
	}
	return out
}

func (s *ResponseWindow[C]) Fold(sys game.SysState, evt game.Event) (game.SysState, error) {
	switch evt.Type {
	case game.EventResponseWindowOpened:
		p, err := game.DecodePayload[game.ResponseWindowOpenedPayload](evt.Payload)
		if err != nil {
			return sys, err
		}
		window := p.Window
		sys.ResponseWindow = game.ResponseWindowState{Current: &window}
	case game.EventResponseWindowPassed:
		p, err := game.DecodePayload[game.ResponseWindowPassedPayload](evt.Payload)
		if err != nil {
			return sys, err
		}
		current := sys.ResponseWindow.Current
		if current == nil || current.ID != p.WindowID {
			return sys, nil
		}
		next := *current
		next.CurrentResponderIndex++
		sys.ResponseWindow = game.ResponseWindowState{Current: &next}
	case game.EventResponseWindowClosed:
		sys.ResponseWindow = game.ResponseWindowState{}
	}
	return sys, nil
}
