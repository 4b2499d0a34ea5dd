package dicethrone

import (
	"encoding/json"
	"slices"

	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// Cheat actions.
const (
	CheatSetDice     = "set-dice"
	CheatSetHP       = "set-hp"
	CheatGrantCP     = "grant-cp"
	CheatGrantStatus = "grant-status"
)

type SetDiceParams struct {
	Values []int `json:"values"`
}

type SetHPParams struct {
	PlayerID string `json:"playerId"`
	HP       int    `json:"hp"`
}

type GrantCPParams struct {
	PlayerID string `json:"playerId"`
	Amount   int    `json:"amount"`
}

// GrantStatusParams grants a status or a token.
type GrantStatusParams struct {
	PlayerID string `json:"playerId"`
	StatusID string `json:"statusId"`
	Stacks   int    `json:"stacks"`
}

func (d *Domain) Cheat(state game.MatchState[Core], _ game.PlayerID, action string, params json.RawMessage, random game.Random) ([]game.Event, error) {
	b := d.newBuilder(state, random)
	core := state.Core

	switch action {
	case CheatSetDice:
		p, err := game.DecodePayload[SetDiceParams](params)
		if err != nil {
			return nil, engine.Reject(engine.CodeInvalid, err.Error())
		}
		h := d.heroOf(core, core.RollerID)
		if core.RollerID == "" {
			h = d.heroOf(core, core.ActivePlayer)
		}
		dice := slices.Clone(core.Dice)
		for i, v := range p.Values {
			if i >= len(dice) {
				break
			}
			if v < 1 || v > 6 {
				return nil, engine.Rejectf(engine.CodeInvalid, "die value %d out of range", v)
			}
			dice[i].Value = v
			dice[i].Face = h.Face(v)
		}
		b.emit(EventDiceModified, DiceModifiedPayload{PlayerID: core.RollerID, Dice: dice})

	case CheatSetHP:
		p, err := game.DecodePayload[SetHPParams](params)
		if err != nil {
			return nil, engine.Reject(engine.CodeInvalid, err.Error())
		}
		if _, ok := core.Players[p.PlayerID]; !ok {
			return nil, engine.Rejectf(engine.CodeInvalidTarget, "unknown player %q", p.PlayerID)
		}
		b.emit(EventHPSet, HPSetPayload{PlayerID: p.PlayerID, HP: max(p.HP, 0)})

	case CheatGrantCP:
		p, err := game.DecodePayload[GrantCPParams](params)
		if err != nil {
			return nil, engine.Reject(engine.CodeInvalid, err.Error())
		}
		if _, ok := core.Players[p.PlayerID]; !ok {
			return nil, engine.Rejectf(engine.CodeInvalidTarget, "unknown player %q", p.PlayerID)
		}
		b.gainCP(p.PlayerID, p.Amount)

	case CheatGrantStatus:
		p, err := game.DecodePayload[GrantStatusParams](params)
		if err != nil {
			return nil, engine.Reject(engine.CodeInvalid, err.Error())
		}
		if _, ok := core.Players[p.PlayerID]; !ok {
			return nil, engine.Rejectf(engine.CodeInvalidTarget, "unknown player %q", p.PlayerID)
		}
		stacks := max(p.Stacks, 1)
		if _, ok := d.statuses[p.StatusID]; ok {
			b.grantStatus(p.PlayerID, "cheat", p.StatusID, stacks)
		} else if _, ok := d.tokens[p.StatusID]; ok {
			b.grantToken(p.PlayerID, "cheat", p.StatusID, stacks)
		} else {
			return nil, engine.Rejectf(engine.CodeInvalidTarget, "unknown status %q", p.StatusID)
		}

	default:
		return nil, engine.Rejectf(engine.CodeInvalid, "unknown cheat %q", action)
	}
	return b.result()
}
