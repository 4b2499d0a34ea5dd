package dicethrone

import (
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
	"github.com/deathcats4/BoardGame-sub001/internal/systems"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// harness drives the pipeline directly so tests can shape the state
// between commands.
type harness struct {
	t       *testing.T
	g       *Game
	cfg     engine.Config[Core]
	state   game.MatchState[Core]
	random  *engine.SeededRandom
	players []string
}

// newHarness seats p1 and p2 with the given heroes. Hands start empty so
// no response window opens unless a test deals a card.
func newHarness(t *testing.T, hero1, hero2 string) *harness {
	t.Helper()
	g, err := New(Options{CheatsEnabled: true, UndoDepth: 5, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg := g.Config()
	players := []string{"p1", "p2"}
	random := engine.NewSeededRandom(7)
	opts := json.RawMessage(fmt.Sprintf(`{"heroes":{"p1":%q,"p2":%q}}`, hero1, hero2))
	core, err := g.Domain().Setup(players, random, opts)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	var sys game.SysState
	for _, s := range cfg.Systems {
		if init, ok := s.(engine.SysInitializer); ok {
			sys = init.InitSys(sys)
		}
	}
	h := &harness{t: t, g: g, cfg: cfg, state: game.MatchState[Core]{Core: core, Sys: sys}, random: random, players: players}
	for _, id := range players {
		h.edit(id, func(ps *PlayerState) { ps.Hand = nil })
	}
	return h
}

func (h *harness) edit(playerID string, fn func(ps *PlayerState)) {
	h.state.Core = h.state.Core.withPlayer(playerID, fn)
}

func (h *harness) player(id string) PlayerState {
	return h.state.Core.Players[id]
}

func (h *harness) phase() string {
	return h.state.Sys.Phase.Current
}

func (h *harness) try(cmdType, playerID string, payload any) engine.Result[Core] {
	h.t.Helper()
	cmd, err := game.NewCommand(cmdType, playerID, payload)
	if err != nil {
		h.t.Fatalf("NewCommand: %v", err)
	}
	res := engine.ExecutePipeline(h.cfg, h.state, cmd, h.random, h.players)
	if res.Success {
		h.state = res.State
	}
	return res
}

func (h *harness) do(cmdType, playerID string, payload any) []game.Event {
	h.t.Helper()
	res := h.try(cmdType, playerID, payload)
	if !res.Success {
		h.t.Fatalf("%s by %s: %v", cmdType, playerID, res.Err)
	}
	return res.Events
}

// reject runs a command that must fail with code.
func (h *harness) reject(code, cmdType, playerID string, payload any) {
	h.t.Helper()
	res := h.try(cmdType, playerID, payload)
	if res.Success {
		h.t.Fatalf("%s by %s succeeded, want %s", cmdType, playerID, code)
	}
	rej, ok := engine.AsRejection(res.Err)
	if !ok || rej.Code != code {
		h.t.Fatalf("%s by %s: err = %v, want code %s", cmdType, playerID, res.Err, code)
	}
}

func (h *harness) advance(playerID string) []game.Event {
	h.t.Helper()
	return h.do(systems.CommandAdvancePhase, playerID, nil)
}

// roll rolls once and then forces the dice to values.
func (h *harness) roll(playerID string, values ...int) {
	h.t.Helper()
	h.do(CommandRollDice, playerID, nil)
	h.do(systems.CommandCheat, playerID, systems.CheatPayload{
		Action: CheatSetDice,
		Params: mustJSON(h.t, SetDiceParams{Values: values}),
	})
}

// attack moves p from main1 through a confirmed roll to a declared ability.
func (h *harness) attack(playerID, abilityID string, values ...int) {
	h.t.Helper()
	h.advance(playerID)
	if h.phase() != PhaseOffensiveRoll {
		h.t.Fatalf("phase = %s, want %s", h.phase(), PhaseOffensiveRoll)
	}
	h.roll(playerID, values...)
	h.do(CommandConfirmRoll, playerID, nil)
	h.do(CommandSelectAbility, playerID, SelectAbilityPayload{AbilityID: abilityID})
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func hasEvent(events []game.Event, eventType string) bool {
	for _, e := range events {
		if e.Type == eventType {
			return true
		}
	}
	return false
}

func eventsOf(events []game.Event, eventType string) []game.Event {
	var out []game.Event
	for _, e := range events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
