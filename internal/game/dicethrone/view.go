package dicethrone

import (
	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// CoreView is the core as one viewer may see it.
type CoreView struct {
	Players       map[string]PlayerView `json:"players"`
	TurnOrder     []string              `json:"turnOrder"`
	ActivePlayer  string                `json:"activePlayer"`
	TurnNumber    int                   `json:"turnNumber"`
	Dice          []Die                 `json:"dice"`
	RollerID      string                `json:"rollerId,omitempty"`
	RollsLeft     int                   `json:"rollsLeft"`
	RollConfirmed bool                  `json:"rollConfirmed"`
	PendingAttack *PendingAttack        `json:"pendingAttack,omitempty"`
	You           string                `json:"you"`
}

// PlayerView is one seat. Hand is only filled in for the viewer; deck order
// is never sent.
type PlayerView struct {
	ID        string         `json:"id"`
	HeroID    string         `json:"heroId"`
	HP        int            `json:"hp"`
	MaxHP     int            `json:"maxHp"`
	CP        int            `json:"cp"`
	Hand      []string       `json:"hand,omitempty"`
	HandCount int            `json:"handCount"`
	DeckCount int            `json:"deckCount"`
	Discard   []string       `json:"discard"`
	Statuses  map[string]int `json:"statuses,omitempty"`
	Tokens    map[string]int `json:"tokens,omitempty"`
	Shields   []DamageShield `json:"shields,omitempty"`
}

func (d *Domain) PlayerView(state game.MatchState[Core], viewerID game.PlayerID) any {
	core := state.Core
	players := make(map[string]PlayerView, len(core.Players))
	for id, ps := range core.Players {
		pv := PlayerView{
			ID:        ps.ID,
			HeroID:    ps.HeroID,
			HP:        ps.HP,
			MaxHP:     ps.MaxHP,
			CP:        ps.CP,
			HandCount: len(ps.Hand),
			DeckCount: len(ps.Deck),
			Discard:   ps.Discard,
			Statuses:  ps.Statuses,
			Tokens:    ps.Tokens,
			Shields:   ps.Shields,
		}
		if id == viewerID {
			pv.Hand = ps.Hand
		}
		players[id] = pv
	}
	return CoreView{
		Players:       players,
		TurnOrder:     core.TurnOrder,
		ActivePlayer:  core.ActivePlayer,
		TurnNumber:    core.TurnNumber,
		Dice:          core.Dice,
		RollerID:      core.RollerID,
		RollsLeft:     core.RollsLeft,
		RollConfirmed: core.RollConfirmed,
		PendingAttack: core.PendingAttack,
		You:           viewerID,
	}
}

var _ game.EventProjector = (*Domain)(nil)

// ProjectEvent hides deck order from every viewer, the owner included, the
// same way PlayerView does.
func (d *Domain) ProjectEvent(evt game.Event, viewerID game.PlayerID) (game.Event, bool) {
	if evt.Type != EventDeckShuffled {
		return evt, true
	}
	p, err := game.DecodePayload[DeckShuffledPayload](evt.Payload)
	if err != nil {
		return game.Event{}, false
	}
	p.Order = nil
	out, err := game.NewEvent(evt.Type, p, evt.Timestamp)
	if err != nil {
		return game.Event{}, false
	}
	out.SourceCommandType = evt.SourceCommandType
	return out, true
}
