package dicethrone

import (
	"github.com/deathcats4/BoardGame-sub001/internal/ability"
	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// The first turn starts in main1; later turns begin with upkeep and income.
func (d *Domain) InitialPhase() string { return PhaseMain1 }

func (d *Domain) NextPhase(state game.MatchState[Core], from string) string {
	switch from {
	case PhaseUpkeep:
		return PhaseIncome
	case PhaseIncome:
		return PhaseMain1
	case PhaseMain1:
		return PhaseOffensiveRoll
	case PhaseOffensiveRoll:
		if a := state.Core.PendingAttack; a != nil && a.IsDefendable {
			return PhaseDefensiveRoll
		}
		return PhaseMain2
	case PhaseDefensiveRoll:
		return PhaseMain2
	case PhaseMain2:
		return PhaseDiscard
	}
	return PhaseUpkeep
}

func (d *Domain) CanAdvance(state game.MatchState[Core], playerID game.PlayerID, from string) error {
	core := state.Core
	if from == PhaseDefensiveRoll {
		a := core.PendingAttack
		if a == nil || playerID != a.DefenderID {
			return engine.Reject(engine.CodeNotYourTurn, "the defender ends the defensive roll")
		}
		if core.RollCount == 0 {
			return engine.Reject(engine.CodeInvalid, "roll before ending the defensive roll")
		}
		return nil
	}
	if playerID != core.ActivePlayer {
		return engine.Reject(engine.CodeNotYourTurn, "not your turn")
	}
	if from == PhaseDiscard && len(core.Players[playerID].Hand) > HandLimit {
		return engine.Rejectf(engine.CodeInvalid, "sell cards down to %d before ending the turn", HandLimit)
	}
	return nil
}

func (d *Domain) OnPhaseExit(state game.MatchState[Core], from, _ string, random game.Random) ([]game.Event, error) {
	b := d.newBuilder(state, random)
	core := state.Core
	switch from {
	case PhaseOffensiveRoll:
		if a := core.PendingAttack; a != nil {
			b.resolvePreDefense()
			if !a.IsDefendable {
				b.resolveDamageStage()
			}
		}
	case PhaseDefensiveRoll:
		b.resolveDefense()
		b.resolveDamageStage()
	case PhaseDiscard:
		b.emit(EventTurnEnded, TurnEndedPayload{PlayerID: core.ActivePlayer, Next: core.Opponent(core.ActivePlayer)})
	}
	return b.result()
}

func (d *Domain) OnPhaseEnter(state game.MatchState[Core], phase string, random game.Random) ([]game.Event, error) {
	b := d.newBuilder(state, random)
	active := state.Core.ActivePlayer
	switch phase {
	case PhaseUpkeep:
		b.firePassives(active, ability.OnTurnStart, "")
	case PhaseIncome:
		b.gainCP(active, 1)
		b.draw(active, 1)
	case PhaseOffensiveRoll:
		b.emit(EventRollPhaseStarted, RollPhaseStartedPayload{RollerID: active, Rolls: OffensiveRolls})
	case PhaseDefensiveRoll:
		if a := state.Core.PendingAttack; a != nil {
			b.emit(EventRollPhaseStarted, RollPhaseStartedPayload{RollerID: a.DefenderID, Rolls: DefensiveRolls})
		}
	}
	b.firePassives(active, ability.OnPhaseEnter, phase)
	return b.result()
}

// AutoAdvance passes upkeep and income on their own, and any phase a
// skip-phase effect has marked.
func (d *Domain) AutoAdvance(state game.MatchState[Core], phase string) bool {
	return state.Core.SkipPhase || phase == PhaseUpkeep || phase == PhaseIncome
}
