package dicethrone

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// HandleSystemEvent continues game logic once one of the game's interactions
// ends.
func (d *Domain) HandleSystemEvent(state game.MatchState[Core], evt game.Event, random game.Random) ([]game.Event, error) {
	switch evt.Type {
	case game.EventInteractionResolved, game.EventInteractionCancelled,
		game.EventInteractionExpired, game.EventInteractionConfirmed:
	default:
		return nil, nil
	}
	p, err := game.DecodePayload[game.InteractionPayload](evt.Payload)
	if err != nil {
		return nil, err
	}
	desc := p.Interaction
	b := d.newBuilder(state, random)

	switch desc.Kind {
	case KindTokenResponse:
		if evt.Type == game.EventInteractionResolved {
			v, err := game.DecodePayload[TokenResponseValue](p.Value)
			if err != nil {
				return nil, err
			}
			b.spendTokens(desc.PlayerID, v.Tokens)
		}
		b.finishAttack()

	case KindCleanse:
		data, err := game.DecodePayload[CardInteractionData](desc.Data)
		if err != nil {
			return nil, err
		}
		if evt.Type != game.EventInteractionResolved {
			b.refund(desc.PlayerID, data)
			break
		}
		v, err := game.DecodePayload[CleanseValue](p.Value)
		if err != nil {
			return nil, err
		}
		held := state.Core.Players[desc.PlayerID].Statuses[v.StatusID]
		if !d.isDebuff(v.StatusID) || held == 0 {
			d.log.WithField("status", v.StatusID).Warn("cleanse of a status not held, refunding")
			b.refund(desc.PlayerID, data)
			break
		}
		b.removeStatus(desc.PlayerID, v.StatusID, held)

	case KindModifyDice:
		data, err := game.DecodePayload[CardInteractionData](desc.Data)
		if err != nil {
			return nil, err
		}
		if evt.Type != game.EventInteractionConfirmed {
			b.refund(desc.PlayerID, data)
			break
		}
		v, err := game.DecodePayload[DiceResult](p.Value)
		if err != nil {
			return nil, err
		}
		core := state.Core
		h := d.heroOf(core, core.RollerID)
		dice := slices.Clone(core.Dice)
		for id, value := range v.Dice {
			if id < 0 || id >= len(dice) {
				continue
			}
			dice[id].Value = value
			dice[id].Face = h.Face(value)
		}
		b.emit(EventDiceModified, DiceModifiedPayload{PlayerID: desc.PlayerID, Dice: dice})
	}
	return b.result()
}

func (b *builder) refund(playerID string, data CardInteractionData) {
	b.emit(EventCardReturned, CardPayload{PlayerID: playerID, CardID: data.CardID, Cost: data.Cost})
}

// diceStepReducer accumulates modify-dice steps. Setting the same die again
// overwrites it and does not count as another step.
type diceStepReducer struct{}

func (diceStepReducer) Reduce(result, step json.RawMessage) (json.RawMessage, error) {
	s, err := game.DecodePayload[DiceStep](step)
	if err != nil {
		return nil, err
	}
	if s.DieID < 0 || s.DieID >= DiceCount {
		return nil, engine.Rejectf(engine.CodeInvalidTarget, "no die %d", s.DieID)
	}
	if s.Value < 1 || s.Value > 6 {
		return nil, engine.Rejectf(engine.CodeInvalid, "die value %d out of range", s.Value)
	}
	acc, err := game.DecodePayload[DiceResult](result)
	if err != nil {
		return nil, err
	}
	if acc.Dice == nil {
		acc.Dice = map[int]int{}
	}
	acc.Dice[s.DieID] = s.Value
	out, err := json.Marshal(acc)
	if err != nil {
		return nil, fmt.Errorf("encode dice result: %w", err)
	}
	return out, nil
}

func (diceStepReducer) CompletedSteps(result json.RawMessage) int {
	acc, err := game.DecodePayload[DiceResult](result)
	if err != nil {
		return 0
	}
	return len(acc.Dice)
}

// HasRespondable reports whether the player can afford an instant card.
func (d *Domain) HasRespondable(state game.MatchState[Core], playerID game.PlayerID, _ string) bool {
	ps, ok := state.Core.Players[playerID]
	if !ok {
		return false
	}
	for _, id := range ps.Hand {
		if c, ok := d.cards[id]; ok && c.Timing == TimingInstant && c.Cost <= ps.CP {
			return true
		}
	}
	return false
}

func (d *Domain) IsResponseCommand(cmdType string) bool {
	return cmdType == CommandPlayCard
}
