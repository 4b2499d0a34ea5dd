package dicethrone

import (
	"bytes"
	"encoding/json"
	"slices"
	"testing"

	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
	"github.com/deathcats4/BoardGame-sub001/internal/systems"
)

func TestAttackWithTokenResponse(t *testing.T) {
	h := newHarness(t, "barbarian", "monk")
	h.attack("p1", "smash", 1, 1, 1, 1, 1)

	a := h.state.Core.PendingAttack
	if a == nil || a.VariantID != "smash-5" || !a.IsDefendable {
		t.Fatalf("pending attack = %+v, want defendable smash-5", a)
	}

	h.advance("p1")
	if h.phase() != PhaseDefensiveRoll {
		t.Fatalf("phase = %s, want %s", h.phase(), PhaseDefensiveRoll)
	}
	if h.state.Core.RollerID != "p2" || h.state.Core.RollsLeft != DefensiveRolls {
		t.Fatalf("roller = %s with %d rolls, want p2 with %d", h.state.Core.RollerID, h.state.Core.RollsLeft, DefensiveRolls)
	}
	h.reject(engine.CodeNotYourTurn, systems.CommandAdvancePhase, "p1", nil)
	h.reject(engine.CodeInvalid, systems.CommandAdvancePhase, "p2", nil)

	h.roll("p2", 3, 3, 3, 3, 3)
	h.advance("p2")

	current := h.state.Sys.Interaction.Current
	if current == nil || current.Kind != KindTokenResponse || current.PlayerID != "p2" {
		t.Fatalf("interaction = %+v, want token response for p2", current)
	}
	if h.player("p2").Tokens["protect"] != 1 {
		t.Fatalf("protect = %d, want 1 from meditation", h.player("p2").Tokens["protect"])
	}
	h.reject(engine.CodeBlocked, systems.CommandAdvancePhase, "p1", nil)
	h.reject(engine.CodeUnauthorized, systems.CommandRespond, "p1", systems.RespondPayload{})

	events := h.do(systems.CommandRespond, "p2", systems.RespondPayload{
		Value: mustJSON(t, TokenResponseValue{Tokens: map[string]int{"protect": 1}}),
	})

	dealt := eventsOf(events, EventDamageDealt)
	if len(dealt) != 1 {
		t.Fatalf("damage events = %d, want 1", len(dealt))
	}
	p, err := game.DecodePayload[DamageDealtPayload](dealt[0].Payload)
	if err != nil {
		t.Fatal(err)
	}
	if p.Amount != 4 || p.Dealt != 4 {
		t.Fatalf("damage = %+v, want 8 halved to 4", p)
	}
	p2 := h.player("p2")
	if p2.HP != 46 {
		t.Errorf("p2 hp = %d, want 46", p2.HP)
	}
	if p2.Tokens["protect"] != 0 {
		t.Errorf("protect = %d, want spent", p2.Tokens["protect"])
	}
	if p2.Statuses["knockdown"] != 1 {
		t.Errorf("knockdown = %d, want 1 from the on-hit effect", p2.Statuses["knockdown"])
	}
	if h.state.Core.PendingAttack != nil {
		t.Errorf("attack still pending: %+v", h.state.Core.PendingAttack)
	}
	if h.phase() != PhaseMain2 {
		t.Errorf("phase = %s, want %s", h.phase(), PhaseMain2)
	}
}

func TestDefensiveShieldAbsorbsAttack(t *testing.T) {
	h := newHarness(t, "monk", "barbarian")
	h.attack("p1", "fist-technique", 1, 1, 1, 1, 1)
	h.advance("p1")
	h.roll("p2", 4, 4, 1, 1, 1)
	events := h.advance("p2")

	selected := eventsOf(events, EventDefenseSelected)
	if len(selected) != 1 {
		t.Fatalf("defense selected %d times, want 1", len(selected))
	}
	sel, _ := game.DecodePayload[DefenseSelectedPayload](selected[0].Payload)
	if sel.VariantID != "thick-skin-hearts" {
		t.Fatalf("defense variant = %s, want thick-skin-hearts", sel.VariantID)
	}

	dealt := eventsOf(events, EventDamageDealt)
	if len(dealt) != 1 {
		t.Fatalf("damage events = %d, want 1", len(dealt))
	}
	p, _ := game.DecodePayload[DamageDealtPayload](dealt[0].Payload)
	if p.Amount != 8 || p.Dealt != 4 {
		t.Fatalf("damage = %+v, want 8 reduced to 4", p)
	}
	if len(p.ShieldsConsumed) != 1 || p.ShieldsConsumed[0].SourceID != "thick-skin" || p.ShieldsConsumed[0].Absorbed != 4 {
		t.Fatalf("consumed = %+v", p.ShieldsConsumed)
	}

	resolved := eventsOf(events, EventAttackResolved)
	if len(resolved) != 1 {
		t.Fatalf("attack resolved %d times, want 1", len(resolved))
	}
	r, _ := game.DecodePayload[AttackResolvedPayload](resolved[0].Payload)
	if r.Damage != 8 || r.ResolvedDamage != 4 {
		t.Fatalf("resolved = %+v, want damage 8 resolved 4", r)
	}

	p2 := h.player("p2")
	if p2.HP != 46 || len(p2.Shields) != 0 {
		t.Fatalf("p2 = hp %d shields %+v, want 46 and none", p2.HP, p2.Shields)
	}
	if h.phase() != PhaseMain2 {
		t.Fatalf("phase = %s, want %s", h.phase(), PhaseMain2)
	}
}

func TestUnblockableAttackSkipsDefense(t *testing.T) {
	h := newHarness(t, "monk", "barbarian")
	h.attack("p1", "lotus-palm", 1, 2, 3, 4, 5)
	if h.state.Core.PendingAttack.IsDefendable {
		t.Fatal("lotus palm should not be defendable")
	}
	h.advance("p1")

	if h.phase() != PhaseMain2 {
		t.Fatalf("phase = %s, want %s", h.phase(), PhaseMain2)
	}
	if hp := h.player("p2").HP; hp != 44 {
		t.Errorf("p2 hp = %d, want 44", hp)
	}
	// Momentum is granted after damage and cashed in at attack end.
	p1 := h.player("p1")
	if p1.CP != StartingCP+1 || p1.Tokens["momentum"] != 0 {
		t.Errorf("p1 cp = %d momentum = %d, want %d and 0", p1.CP, p1.Tokens["momentum"], StartingCP+1)
	}
}

func TestVariantPriority(t *testing.T) {
	tests := []struct {
		name    string
		dice    []int
		variant string
	}{
		{"three swords", []int{1, 2, 3, 4, 5}, "smash-3"},
		{"four swords", []int{1, 1, 2, 3, 6}, "smash-4"},
		{"five swords", []int{1, 2, 3, 1, 2}, "smash-5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "barbarian", "monk")
			h.attack("p1", "smash", tt.dice...)
			if got := h.state.Core.PendingAttack.VariantID; got != tt.variant {
				t.Fatalf("variant = %s, want %s", got, tt.variant)
			}
		})
	}

	t.Run("no match", func(t *testing.T) {
		h := newHarness(t, "barbarian", "monk")
		h.advance("p1")
		h.roll("p1", 4, 4, 5, 6, 6)
		h.do(CommandConfirmRoll, "p1", nil)
		h.reject(engine.CodeInvalid, CommandSelectAbility, "p1", SelectAbilityPayload{AbilityID: "smash"})
		h.reject(engine.CodeInvalidTarget, CommandSelectAbility, "p1", SelectAbilityPayload{AbilityID: "thick-skin"})
	})
}

func TestResponseWindow(t *testing.T) {
	t.Run("no respondable card", func(t *testing.T) {
		h := newHarness(t, "barbarian", "monk")
		h.edit("p2", func(ps *PlayerState) {
			ps.Hand = []string{"shield", "heal"}
			ps.CP = 0
		})
		h.attack("p1", "smash", 1, 1, 1, 1, 1)
		if w := h.state.Sys.ResponseWindow.Current; w != nil {
			t.Fatalf("window opened without respondable cards: %+v", w)
		}
	})

	t.Run("ward blocks the knockdown", func(t *testing.T) {
		h := newHarness(t, "barbarian", "monk")
		h.edit("p2", func(ps *PlayerState) { ps.Hand = []string{"ward"} })
		h.attack("p1", "smash", 1, 1, 1, 1, 1)

		w := h.state.Sys.ResponseWindow.Current
		if w == nil || w.CurrentResponder() != "p2" {
			t.Fatalf("window = %+v, want p2 responding", w)
		}
		h.reject(engine.CodeBlocked, systems.CommandAdvancePhase, "p1", nil)
		h.reject(engine.CodeUnauthorized, systems.CommandResponsePass, "p1", nil)

		h.do(CommandPlayCard, "p2", CardCommandPayload{CardID: "ward"})
		if w := h.state.Sys.ResponseWindow.Current; w != nil {
			t.Fatalf("window still open after last card: %+v", w)
		}
		if p2 := h.player("p2"); p2.CP != StartingCP-1 || len(p2.Shields) != 1 || !p2.Shields[0].PreventStatus {
			t.Fatalf("p2 = cp %d shields %+v", p2.CP, p2.Shields)
		}

		h.advance("p1")
		h.roll("p2", 3, 3, 3, 3, 3)
		h.advance("p2")
		events := h.do(systems.CommandRespond, "p2", systems.RespondPayload{
			Value: mustJSON(t, TokenResponseValue{}),
		})

		if !hasEvent(events, EventStatusPrevented) {
			t.Fatal("knockdown was not prevented")
		}
		p2 := h.player("p2")
		if p2.HP != 42 {
			t.Errorf("p2 hp = %d, want 42: prevent shields never absorb", p2.HP)
		}
		if p2.Statuses["knockdown"] != 0 || len(p2.Shields) != 0 {
			t.Errorf("p2 statuses %v shields %+v, want ward used up", p2.Statuses, p2.Shields)
		}
	})

	t.Run("pass closes the window", func(t *testing.T) {
		h := newHarness(t, "barbarian", "monk")
		h.edit("p2", func(ps *PlayerState) { ps.Hand = []string{"shield"} })
		h.attack("p1", "smash", 1, 1, 1, 1, 1)
		h.do(systems.CommandResponsePass, "p2", nil)
		if w := h.state.Sys.ResponseWindow.Current; w != nil {
			t.Fatalf("window = %+v, want closed", w)
		}
		h.advance("p1")
		if h.phase() != PhaseDefensiveRoll {
			t.Fatalf("phase = %s, want %s", h.phase(), PhaseDefensiveRoll)
		}
	})
}

func TestKnockdown(t *testing.T) {
	tests := []struct {
		name      string
		cp        int
		phase     string
		knockdown int
		cpAfter   int
	}{
		{"unpaid skips the roll", 0, PhaseMain2, 1, 0},
		{"paid removes the stack", 2, PhaseOffensiveRoll, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "barbarian", "monk")
			h.edit("p1", func(ps *PlayerState) {
				ps.CP = tt.cp
				ps.Statuses = map[string]int{"knockdown": 1}
			})
			h.advance("p1")
			if h.phase() != tt.phase {
				t.Fatalf("phase = %s, want %s", h.phase(), tt.phase)
			}
			p1 := h.player("p1")
			if p1.Statuses["knockdown"] != tt.knockdown || p1.CP != tt.cpAfter {
				t.Fatalf("knockdown = %d cp = %d, want %d and %d", p1.Statuses["knockdown"], p1.CP, tt.knockdown, tt.cpAfter)
			}
			if h.state.Core.SkipPhase {
				t.Fatal("skip flag left set")
			}
		})
	}
}

func TestTurnPassesThroughUpkeepAndIncome(t *testing.T) {
	h := newHarness(t, "barbarian", "monk")
	h.edit("p2", func(ps *PlayerState) { ps.Statuses = map[string]int{"burn": 2} })

	h.advance("p1") // offensive roll
	h.advance("p1") // main2, no attack declared
	if h.phase() != PhaseMain2 {
		t.Fatalf("phase = %s, want %s", h.phase(), PhaseMain2)
	}
	h.advance("p1") // discard
	events := h.advance("p1")

	if !hasEvent(events, EventTurnEnded) {
		t.Fatal("turn did not end")
	}
	core := h.state.Core
	if core.ActivePlayer != "p2" || core.TurnNumber != 2 || h.phase() != PhaseMain1 {
		t.Fatalf("active %s turn %d phase %s, want p2 turn 2 in %s", core.ActivePlayer, core.TurnNumber, h.phase(), PhaseMain1)
	}
	p2 := h.player("p2")
	if p2.HP != 46 {
		t.Errorf("p2 hp = %d, want 46 after two burn stacks", p2.HP)
	}
	if p2.Statuses["burn"] != 1 {
		t.Errorf("burn = %d, want one stack removed", p2.Statuses["burn"])
	}
	if p2.CP != StartingCP+1 || len(p2.Hand) != 1 {
		t.Errorf("p2 cp %d hand %v, want income of 1 CP and 1 card", p2.CP, p2.Hand)
	}
}

func TestDiscardEnforcesHandLimit(t *testing.T) {
	h := newHarness(t, "barbarian", "monk")
	h.advance("p1")
	h.advance("p1")
	h.advance("p1")
	h.edit("p1", func(ps *PlayerState) {
		ps.Hand = []string{"heal", "heal", "shield", "shield", "cp-boost", "cp-boost", "strike"}
	})
	h.reject(engine.CodeInvalid, systems.CommandAdvancePhase, "p1", nil)

	h.do(CommandSellCard, "p1", CardCommandPayload{CardID: "strike"})
	p1 := h.player("p1")
	if len(p1.Hand) != HandLimit || p1.CP != StartingCP+1 || !slices.Contains(p1.Discard, "strike") {
		t.Fatalf("after sell: hand %v cp %d discard %v", p1.Hand, p1.CP, p1.Discard)
	}
	h.advance("p1")
	if h.state.Core.ActivePlayer != "p2" {
		t.Fatalf("active = %s, want p2", h.state.Core.ActivePlayer)
	}
}

func TestCleanseInteraction(t *testing.T) {
	h := newHarness(t, "barbarian", "monk")
	h.reject(engine.CodeInvalidTarget, CommandPlayCard, "p1", CardCommandPayload{CardID: "cleanse"})

	h.edit("p1", func(ps *PlayerState) { ps.Hand = []string{"cleanse"} })
	h.reject(engine.CodeInvalid, CommandPlayCard, "p1", CardCommandPayload{CardID: "cleanse"})

	h.edit("p1", func(ps *PlayerState) { ps.Statuses = map[string]int{"burn": 2} })
	h.do(CommandPlayCard, "p1", CardCommandPayload{CardID: "cleanse"})
	if cur := h.state.Sys.Interaction.Current; cur == nil || cur.Kind != KindCleanse {
		t.Fatalf("interaction = %+v, want cleanse", cur)
	}
	h.reject(engine.CodeBlocked, systems.CommandAdvancePhase, "p1", nil)

	h.do(systems.CommandCancel, "p1", nil)
	p1 := h.player("p1")
	if !slices.Equal(p1.Hand, []string{"cleanse"}) || p1.CP != StartingCP {
		t.Fatalf("after cancel: hand %v cp %d, want card and CP refunded", p1.Hand, p1.CP)
	}

	h.do(CommandPlayCard, "p1", CardCommandPayload{CardID: "cleanse"})
	h.do(systems.CommandRespond, "p1", systems.RespondPayload{Value: mustJSON(t, CleanseValue{StatusID: "burn"})})
	p1 = h.player("p1")
	if p1.Statuses["burn"] != 0 || p1.CP != StartingCP-1 || len(p1.Hand) != 0 {
		t.Fatalf("after cleanse: statuses %v cp %d hand %v", p1.Statuses, p1.CP, p1.Hand)
	}
	if h.state.Sys.Interaction.Current != nil {
		t.Fatal("interaction still open")
	}
}

func TestModifyDiceSteps(t *testing.T) {
	h := newHarness(t, "barbarian", "monk")
	h.advance("p1")
	h.do(CommandRollDice, "p1", nil)
	h.edit("p1", func(ps *PlayerState) { ps.Hand = []string{"adjust"} })
	h.do(CommandPlayCard, "p1", CardCommandPayload{CardID: "adjust"})

	step := func(die, value int) systems.StepPayload {
		return systems.StepPayload{Step: mustJSON(t, DiceStep{DieID: die, Value: value})}
	}
	h.reject(engine.CodeInvalid, systems.CommandRespond, "p1", systems.RespondPayload{})
	h.reject(engine.CodeInvalid, systems.CommandStep, "p1", step(0, 7))
	h.reject(engine.CodeInvalidTarget, systems.CommandStep, "p1", step(9, 3))
	h.reject(engine.CodeBlocked, CommandRollDice, "p1", nil)

	h.do(systems.CommandStep, "p1", step(0, 6))
	h.do(systems.CommandStep, "p1", step(0, 5))
	cur := h.state.Sys.Interaction.Current
	if cur == nil || cur.Progress.Completed != 1 {
		t.Fatalf("interaction = %+v, want one completed step", cur)
	}

	events := h.do(systems.CommandStep, "p1", step(1, 6))
	if !hasEvent(events, game.EventInteractionConfirmed) || !hasEvent(events, EventDiceModified) {
		t.Fatalf("second die did not confirm: %v", events)
	}
	dice := h.state.Core.Dice
	if dice[0].Value != 5 || dice[0].Face != "heart" || dice[1].Value != 6 || dice[1].Face != "pow" {
		t.Fatalf("dice = %+v", dice[:2])
	}
}

func TestValidateRejections(t *testing.T) {
	h := newHarness(t, "barbarian", "monk")
	h.edit("p1", func(ps *PlayerState) {
		ps.Hand = []string{"heal", "shield"}
		ps.CP = 0
	})
	tests := []struct {
		name   string
		code   string
		cmd    string
		player string
		body   any
	}{
		{"unseated player", engine.CodeUnauthorized, CommandRollDice, "p3", nil},
		{"roll outside roll phase", engine.CodeWrongPhase, CommandRollDice, "p1", nil},
		{"advance out of turn", engine.CodeNotYourTurn, systems.CommandAdvancePhase, "p2", nil},
		{"select outside roll", engine.CodeWrongPhase, CommandSelectAbility, "p1", SelectAbilityPayload{AbilityID: "smash"}},
		{"card not in hand", engine.CodeInvalidTarget, CommandPlayCard, "p1", CardCommandPayload{CardID: "strike"}},
		{"card too expensive", engine.CodeInsufficient, CommandPlayCard, "p1", CardCommandPayload{CardID: "heal"}},
		{"sell out of turn", engine.CodeNotYourTurn, CommandSellCard, "p2", CardCommandPayload{CardID: "heal"}},
		{"unknown command", engine.CodeUnknownCommand, "FLY", "p1", nil},
		{"unknown cheat", engine.CodeInvalid, systems.CommandCheat, "p1", systems.CheatPayload{Action: "win"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.reject(tt.code, tt.cmd, tt.player, tt.body)
		})
	}
}

func TestTutorialRestrictsCommands(t *testing.T) {
	h := newHarness(t, "barbarian", "monk")
	h.do(systems.CommandTutorialStart, "p1", systems.TutorialStartPayload{TutorialID: TutorialFirstAttack})
	h.reject(engine.CodeBlocked, CommandSellCard, "p1", CardCommandPayload{CardID: "heal"})

	h.advance("p1")
	if h.state.Sys.Tutorial.Step != 1 {
		t.Fatalf("step = %d, want 1 after entering the roll", h.state.Sys.Tutorial.Step)
	}
	h.reject(engine.CodeBlocked, systems.CommandAdvancePhase, "p1", nil)

	h.roll("p1", 1, 1, 1, 4, 5)
	h.do(CommandConfirmRoll, "p1", nil)
	if tut := h.state.Sys.Tutorial; tut.Step != 2 || !tut.Active {
		t.Fatalf("tutorial = %+v, want active at step 2", tut)
	}
	h.do(CommandSelectAbility, "p1", SelectAbilityPayload{AbilityID: "smash"})
	h.advance("p1")
	h.roll("p2", 6, 6, 6, 6, 6)
	h.advance("p2")
	h.do(systems.CommandRespond, "p2", systems.RespondPayload{Value: mustJSON(t, TokenResponseValue{})})
	if tut := h.state.Sys.Tutorial; !tut.Completed {
		t.Fatalf("tutorial = %+v, want completed once the attack resolves", tut)
	}
}

func TestLethalDamageEndsGame(t *testing.T) {
	h := newHarness(t, "barbarian", "monk")
	h.do(systems.CommandCheat, "p1", systems.CheatPayload{
		Action: CheatSetHP,
		Params: mustJSON(t, SetHPParams{PlayerID: "p2", HP: 0}),
	})
	over := h.state.Sys.GameOver
	if over == nil || !slices.Equal(over.Winners, []string{"p1"}) {
		t.Fatalf("game over = %+v, want p1 winning", over)
	}
	h.reject(engine.CodeGameOver, systems.CommandAdvancePhase, "p1", nil)
}

func TestPlayerViewHidesOpponentHand(t *testing.T) {
	h := newHarness(t, "barbarian", "monk")
	h.edit("p1", func(ps *PlayerState) { ps.Hand = []string{"heal"} })
	h.edit("p2", func(ps *PlayerState) { ps.Hand = []string{"shield", "ward"} })

	view := h.g.Domain().PlayerView(h.state, "p1").(CoreView)
	if !slices.Equal(view.Players["p1"].Hand, []string{"heal"}) {
		t.Errorf("own hand = %v", view.Players["p1"].Hand)
	}
	opp := view.Players["p2"]
	if opp.Hand != nil || opp.HandCount != 2 {
		t.Errorf("opponent hand = %v count %d, want hidden with count 2", opp.Hand, opp.HandCount)
	}
	if opp.DeckCount != len(h.player("p2").Deck) {
		t.Errorf("deck count = %d, want %d", opp.DeckCount, len(h.player("p2").Deck))
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	g, err := New(Options{Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	mc := game.MatchConfig{PlayerIDs: []string{"p1", "p2"}, Seed: 99}
	r, err := engine.NewRunner(g.Config(), mc)
	if err != nil {
		t.Fatal(err)
	}
	script := []struct {
		cmd     string
		player  string
		payload any
	}{
		{systems.CommandAdvancePhase, "p1", nil},
		{CommandRollDice, "p1", nil},
		{CommandToggleDieLock, "p1", DiePayload{DieID: 0}},
		{CommandRollDice, "p1", nil},
		{CommandConfirmRoll, "p1", nil},
		{systems.CommandAdvancePhase, "p1", nil},
		{systems.CommandAdvancePhase, "p1", nil},
		{systems.CommandAdvancePhase, "p1", nil},
		{systems.CommandAdvancePhase, "p2", nil},
		{CommandRollDice, "p2", nil},
	}
	for _, s := range script {
		cmd, err := game.NewCommand(s.cmd, s.player, s.payload)
		if err != nil {
			t.Fatal(err)
		}
		if res := r.Dispatch(cmd); !res.Success {
			t.Fatalf("%s by %s: %v", s.cmd, s.player, res.Err)
		}
	}

	replayed, err := engine.Replay(g.Config(), mc, r.Log())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	want, _ := json.Marshal(r.State())
	got, _ := json.Marshal(replayed.State())
	if !bytes.Equal(got, want) {
		t.Fatalf("replayed state differs\n got %s\nwant %s", got, want)
	}
}

func TestPreventShieldExpiresWithItsAttack(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
		bound bool
	}{
		{
			name:  "played in response",
			setup: func(h *harness) { h.edit("p2", func(ps *PlayerState) { ps.Hand = []string{"ward"} }) },
			bound: true,
		},
		{
			name: "granted before the attack",
			setup: func(h *harness) {
				h.edit("p2", func(ps *PlayerState) {
					ps.Shields = []DamageShield{{SourceID: "ward", PreventStatus: true}}
				})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "barbarian", "monk")
			tt.setup(h)
			h.attack("p1", "smash", 1, 1, 1, 4, 5)

			attack := h.state.Core.PendingAttack
			if attack == nil || attack.VariantID != "smash-3" || attack.ID == "" {
				t.Fatalf("pending attack = %+v, want smash-3 with an id", attack)
			}
			if tt.bound {
				h.do(CommandPlayCard, "p2", CardCommandPayload{CardID: "ward"})
				shields := h.player("p2").Shields
				if len(shields) != 1 || shields[0].AttackID != attack.ID {
					t.Fatalf("shields = %+v, want ward bound to %s", shields, attack.ID)
				}
			}

			h.advance("p1")
			h.roll("p2", 3, 3, 3, 3, 3)
			h.advance("p2")
			if h.state.Sys.Interaction.Current != nil {
				h.do(systems.CommandRespond, "p2", systems.RespondPayload{
					Value: mustJSON(t, TokenResponseValue{}),
				})
			}

			if h.state.Core.PendingAttack != nil {
				t.Fatalf("attack still pending: %+v", h.state.Core.PendingAttack)
			}
			p2 := h.player("p2")
			if slices.ContainsFunc(p2.Shields, func(s DamageShield) bool { return s.PreventStatus }) {
				t.Errorf("shields = %+v, want the unused ward gone", p2.Shields)
			}
			if p2.HP != 46 {
				t.Errorf("p2 hp = %d, want 46", p2.HP)
			}
		})
	}
}

func TestDeckOrderNeverLeavesTheMatch(t *testing.T) {
	h := newHarness(t, "barbarian", "monk")
	h.edit("p2", func(ps *PlayerState) {
		ps.Deck = nil
		ps.Discard = []string{"strike", "heal", "ward", "shield"}
	})
	var events []game.Event
	for range 4 {
		events = append(events, h.advance("p1")...)
	}

	shuffled := eventsOf(events, EventDeckShuffled)
	if len(shuffled) != 1 {
		t.Fatalf("shuffles = %d, want 1", len(shuffled))
	}
	raw, err := game.DecodePayload[DeckShuffledPayload](shuffled[0].Payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw.Order) != 4 {
		t.Fatalf("order = %v, want the reducer to see all 4 cards", raw.Order)
	}

	r := runnerAt(t, h)
	order := []byte(`"order"`)
	for _, viewer := range h.players {
		seen := eventsOf(r.ViewEvents(events, viewer), EventDeckShuffled)
		if len(seen) != 1 {
			t.Fatalf("%s sees %d shuffles, want 1", viewer, len(seen))
		}
		if bytes.Contains(seen[0].Payload, order) {
			t.Errorf("%s event payload %s carries the deck order", viewer, seen[0].Payload)
		}
		p, err := game.DecodePayload[DeckShuffledPayload](seen[0].Payload)
		if err != nil {
			t.Fatal(err)
		}
		if p.PlayerID != "p2" || p.Count != 4 {
			t.Errorf("%s sees %+v, want p2 with count 4", viewer, p)
		}

		view := r.View(viewer).(engine.View)
		logged := 0
		for _, entry := range view.Sys.Log.Entries {
			if entry.Type == EventDeckShuffled {
				logged++
			}
			if bytes.Contains(entry.Payload, order) {
				t.Errorf("%s log entry %s carries the deck order", viewer, entry.Type)
			}
		}
		if logged != 1 {
			t.Errorf("%s log has %d shuffles, want 1", viewer, logged)
		}
	}
}

// runnerAt loads the harness state into a runner.
func runnerAt(t *testing.T, h *harness) *engine.Runner[Core] {
	t.Helper()
	r, err := engine.NewRunner(h.cfg, game.MatchConfig{PlayerIDs: h.players, Seed: 7})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(mustJSON(t, r), &doc); err != nil {
		t.Fatal(err)
	}
	doc["state"] = mustJSON(t, h.state)
	if err := r.UnmarshalJSON(mustJSON(t, doc)); err != nil {
		t.Fatalf("load state: %v", err)
	}
	return r
}
