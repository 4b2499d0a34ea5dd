package systems

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// board is a small domain that exercises every system hook.
type board struct {
	Marks     []string       `json:"marks,omitempty"`
	Responses map[string]int `json:"responses,omitempty"`
	Entered   []string       `json:"entered,omitempty"`
	Won       string         `json:"won,omitempty"`
}

type boardDomain struct {
	blockExit bool
}

type markPayload struct {
	Text string `json:"text"`
}

type askPayload struct {
	Players []game.PlayerID `json:"players"`
}

func (boardDomain) Setup(_ []game.PlayerID, _ game.Random, options json.RawMessage) (board, error) {
	var b board
	if len(options) > 0 {
		if err := json.Unmarshal(options, &b); err != nil {
			return board{}, err
		}
	}
	return b, nil
}

func (boardDomain) Validate(state game.MatchState[board], cmd game.Command) error {
	switch cmd.Type {
	case "MARK", "ROLL", "ASK", "ASK_MULTI", "ATTACK", "WIN":
		return nil
	case "PLAY_RESPONSE":
		if state.Core.Responses[cmd.PlayerID] <= 0 {
			return engine.Reject(engine.CodeInsufficient, "no responses left")
		}
		return nil
	}
	return engine.Rejectf(engine.CodeUnknownCommand, "unknown command %s", cmd.Type)
}

func (boardDomain) Execute(state game.MatchState[board], cmd game.Command, random game.Random) ([]game.Event, error) {
	seq := state.Sys.Seq
	switch cmd.Type {
	case "MARK":
		p, err := game.DecodePayload[markPayload](cmd.Payload)
		if err != nil {
			return nil, err
		}
		return []game.Event{game.MustEvent("MARKED", p, 0)}, nil
	case "ROLL":
		return []game.Event{game.MustEvent("MARKED", markPayload{Text: fmt.Sprintf("d%d", random.D(6))}, 0)}, nil
	case "ASK":
		p, err := game.DecodePayload[askPayload](cmd.Payload)
		if err != nil {
			return nil, err
		}
		var events []game.Event
		for i, id := range p.Players {
			events = append(events, RequestInteraction(game.InteractionDescriptor{
				ID:       game.NewID("ask", seq, i),
				Kind:     KindSimpleChoice,
				PlayerID: id,
			}))
		}
		return events, nil
	case "ASK_MULTI":
		return []game.Event{RequestInteraction(game.InteractionDescriptor{
			ID:       game.NewID("multi", seq),
			Kind:     KindMultistepChoice,
			PlayerID: cmd.PlayerID,
			Progress: &game.StepProgress{Reducer: "pick", MaxSteps: 2},
		})}, nil
	case "ATTACK":
		return []game.Event{game.MustEvent("ATTACKED", nil, 0)}, nil
	case "PLAY_RESPONSE":
		return []game.Event{game.MustEvent("RESPONSE_PLAYED", markPayload{Text: cmd.PlayerID}, 0)}, nil
	case "WIN":
		return []game.Event{game.MustEvent("WON", markPayload{Text: cmd.PlayerID}, 0)}, nil
	}
	return nil, nil
}

func (boardDomain) Reduce(core board, evt game.Event) (board, error) {
	switch evt.Type {
	case "MARKED", "RESPONSE_PLAYED", "ENTERED_PHASE", "WON":
		p, err := game.DecodePayload[markPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		switch evt.Type {
		case "MARKED":
			core.Marks = append(append([]string(nil), core.Marks...), p.Text)
		case "RESPONSE_PLAYED":
			core.Responses = maps.Clone(core.Responses)
			core.Responses[p.Text]--
		case "ENTERED_PHASE":
			core.Entered = append(append([]string(nil), core.Entered...), p.Text)
		case "WON":
			core.Won = p.Text
		}
		return core, nil
	case "ATTACKED":
		return core, nil
	}
	if game.IsSystemEvent(evt.Type) {
		return core, nil
	}
	return core, fmt.Errorf("unknown event %s", evt.Type)
}

func (boardDomain) PlayerView(state game.MatchState[board], _ game.PlayerID) any {
	return state.Core
}

func (boardDomain) IsGameOver(core board) (game.Outcome, bool) {
	if core.Won == "" {
		return game.Outcome{}, false
	}
	return game.Outcome{Winners: []game.PlayerID{core.Won}}, true
}

// Flow hooks: a -> b (auto) -> c -> a.

func (boardDomain) InitialPhase() string { return "a" }

func (boardDomain) NextPhase(_ game.MatchState[board], from string) string {
	switch from {
	case "a":
		return "b"
	case "b":
		return "c"
	}
	return "a"
}

func (boardDomain) CanAdvance(_ game.MatchState[board], playerID game.PlayerID, _ string) error {
	if playerID != "p1" {
		return engine.Reject(engine.CodeNotYourTurn, "not your turn")
	}
	return nil
}

func (d boardDomain) OnPhaseExit(state game.MatchState[board], from, _ string, _ game.Random) ([]game.Event, error) {
	if d.blockExit && from == "a" {
		return []game.Event{RequestInteraction(game.InteractionDescriptor{
			ID:       game.NewID("exit", state.Sys.Seq),
			Kind:     KindSimpleChoice,
			PlayerID: "p1",
		})}, nil
	}
	return nil, nil
}

func (boardDomain) OnPhaseEnter(_ game.MatchState[board], phase string, _ game.Random) ([]game.Event, error) {
	return []game.Event{game.MustEvent("ENTERED_PHASE", markPayload{Text: phase}, 0)}, nil
}

func (boardDomain) AutoAdvance(_ game.MatchState[board], phase string) bool {
	return phase == "b"
}

// Response hooks.

func (boardDomain) HasRespondable(state game.MatchState[board], playerID game.PlayerID, _ string) bool {
	return state.Core.Responses[playerID] > 0
}

func (boardDomain) IsResponseCommand(cmdType string) bool {
	return cmdType == "PLAY_RESPONSE"
}

// Cheat hook.

func (boardDomain) Cheat(_ game.MatchState[board], _ game.PlayerID, action string, _ json.RawMessage, _ game.Random) ([]game.Event, error) {
	if action != "mark" {
		return nil, engine.Rejectf(engine.CodeInvalid, "unknown cheat %q", action)
	}
	return []game.Event{game.MustEvent("MARKED", markPayload{Text: "cheat"}, 0)}, nil
}

// pickReducer records one value per die; re-picking a die replaces it.
type pickReducer struct{}

type pickStep struct {
	Die   string `json:"die"`
	Value int    `json:"value"`
}

func (pickReducer) Reduce(result, step json.RawMessage) (json.RawMessage, error) {
	picks := map[string]int{}
	if len(result) > 0 {
		if err := json.Unmarshal(result, &picks); err != nil {
			return nil, err
		}
	}
	var s pickStep
	if err := json.Unmarshal(step, &s); err != nil {
		return nil, err
	}
	picks[s.Die] = s.Value
	return json.Marshal(picks)
}

func (pickReducer) CompletedSteps(result json.RawMessage) int {
	picks := map[string]int{}
	_ = json.Unmarshal(result, &picks)
	return len(picks)
}

var testTutorial = TutorialScript{
	ID: "basics",
	Steps: []TutorialStep{
		{ID: "mark", AllowedCommands: []string{"MARK"}, AdvanceOn: "MARKED"},
		{ID: "attack", AllowedCommands: []string{"ATTACK"}, AdvanceOn: "ATTACKED"},
	},
}

type harness struct {
	t      *testing.T
	runner *engine.Runner[board]
}

func newHarness(t *testing.T, domain boardDomain, opts Options, core board, players ...game.PlayerID) *harness {
	t.Helper()
	if len(players) == 0 {
		players = []game.PlayerID{"p1", "p2"}
	}
	if opts.StepReducers == nil {
		opts.StepReducers = map[string]StepReducer{"pick": pickReducer{}}
	}
	if opts.ResponseTriggers == nil {
		opts.ResponseTriggers = []ResponseTrigger{{EventType: "ATTACKED", WindowType: "afterAttack"}}
	}
	if opts.Tutorials == nil {
		opts.Tutorials = []TutorialScript{testTutorial}
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := engine.Config[board]{
		Domain:  domain,
		Systems: Defaults[board](domain, opts),
		Logger:  logger,
	}
	options, err := json.Marshal(core)
	if err != nil {
		t.Fatalf("marshal options: %v", err)
	}
	r, err := engine.NewRunner(cfg, game.MatchConfig{PlayerIDs: players, Seed: 1, Options: options})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return &harness{t: t, runner: r}
}

func (h *harness) do(player game.PlayerID, cmdType string, payload any) game.DispatchResult {
	h.t.Helper()
	cmd, err := game.NewCommand(cmdType, player, payload)
	if err != nil {
		h.t.Fatalf("NewCommand: %v", err)
	}
	return h.runner.Dispatch(cmd)
}

func (h *harness) must(player game.PlayerID, cmdType string, payload any) []game.Event {
	h.t.Helper()
	res := h.do(player, cmdType, payload)
	if !res.Success {
		h.t.Fatalf("%s by %s failed: %v", cmdType, player, res.Err)
	}
	return res.Events
}

func (h *harness) reject(player game.PlayerID, cmdType string, payload any, code string) *engine.Rejection {
	h.t.Helper()
	res := h.do(player, cmdType, payload)
	if res.Success {
		h.t.Fatalf("%s by %s succeeded, want rejection %s", cmdType, player, code)
	}
	rej, ok := engine.AsRejection(res.Err)
	if !ok {
		h.t.Fatalf("%s by %s: expected rejection, got %v", cmdType, player, res.Err)
	}
	if rej.Code != code {
		h.t.Fatalf("%s by %s: code = %q (%s), want %q", cmdType, player, rej.Code, rej.Message, code)
	}
	return rej
}

func (h *harness) state() game.MatchState[board] {
	return h.runner.State()
}

func eventTypes(events []game.Event) []string {
	out := make([]string, 0, len(events))
	for _, evt := range events {
		out = append(out, evt.Type)
	}
	return out
}

func countEvents(events []game.Event, eventType string) int {
	n := 0
	for _, evt := range events {
		if evt.Type == eventType {
			n++
		}
	}
	return n
}

func jsonOf(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}
