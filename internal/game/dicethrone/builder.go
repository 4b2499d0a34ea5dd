package dicethrone

import (
	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// builder accumulates events and folds each one into a working copy of the
// core as it is emitted, so later rules see earlier effects. The first
// reduce error sticks and is reported by result.
type builder struct {
	d      *Domain
	state  game.MatchState[Core]
	random game.Random
	events []game.Event
	err    error
}

func (d *Domain) newBuilder(state game.MatchState[Core], random game.Random) *builder {
	return &builder{d: d, state: state, random: random}
}

func (b *builder) core() Core {
	return b.state.Core
}

func (b *builder) emit(eventType string, payload any) {
	if b.err != nil {
		return
	}
	evt := game.MustEvent(eventType, payload, 0)
	core, err := b.d.Reduce(b.state.Core, evt)
	if err != nil {
		b.err = err
		return
	}
	b.state.Core = core
	b.events = append(b.events, evt)
}

// raw appends an event the core does not react to, such as an interaction
// request.
func (b *builder) raw(evt game.Event) {
	if b.err != nil {
		return
	}
	b.events = append(b.events, evt)
}

func (b *builder) result() ([]game.Event, error) {
	return b.events, b.err
}

func (b *builder) setCP(playerID string, value int) {
	ps, ok := b.core().Players[playerID]
	if !ok {
		return
	}
	value = min(max(value, 0), MaxCP)
	if value == ps.CP {
		return
	}
	b.emit(EventCPChanged, CPChangedPayload{PlayerID: playerID, Delta: value - ps.CP, Value: value})
}

func (b *builder) gainCP(playerID string, delta int) {
	b.setCP(playerID, b.core().Players[playerID].CP+delta)
}

// draw moves count cards from deck to hand, reshuffling the discard pile
// into the deck when it runs out.
func (b *builder) draw(playerID string, count int) {
	for drawn := 0; drawn < count && b.err == nil; {
		ps, ok := b.core().Players[playerID]
		if !ok {
			return
		}
		if len(ps.Deck) == 0 {
			if len(ps.Discard) == 0 {
				return
			}
			order := append([]string(nil), ps.Discard...)
			b.random.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
			b.emit(EventDeckShuffled, DeckShuffledPayload{PlayerID: playerID, Count: len(order), Order: order})
			continue
		}
		n := min(count-drawn, len(ps.Deck))
		b.emit(EventCardDrawn, CardDrawnPayload{PlayerID: playerID, Count: n})
		drawn += n
	}
}

// dealDamage applies damage to a player. Attack damage runs through the
// target's shields.
func (b *builder) dealDamage(targetID, sourceID string, amount int, attack bool) int {
	ps, ok := b.core().Players[targetID]
	if !ok || amount <= 0 {
		return 0
	}
	payload := DamageDealtPayload{TargetID: targetID, SourceID: sourceID, Amount: amount, Dealt: amount, Attack: attack}
	if attack {
		res := AbsorbDamage(amount, ps.Shields)
		payload.Dealt = res.Damage
		payload.ShieldsConsumed = res.Consumed
	}
	b.emit(EventDamageDealt, payload)
	return payload.Dealt
}

func (b *builder) heal(playerID string, amount int) {
	ps, ok := b.core().Players[playerID]
	if !ok || amount <= 0 || ps.HP >= ps.MaxHP {
		return
	}
	b.emit(EventHealed, HealedPayload{PlayerID: playerID, Amount: min(amount, ps.MaxHP-ps.HP)})
}

// grantStatus adds stacks up to the definition's cap. A debuff landing on
// the defender of the pending attack is blocked by a prevent-status shield,
// which is used up.
func (b *builder) grantStatus(targetID, sourceID, statusID string, stacks int) {
	def, ok := b.d.statuses[statusID]
	ps, seated := b.core().Players[targetID]
	if !ok || !seated {
		b.d.log.WithField("status", statusID).Warn("grant of unknown status ignored")
		return
	}
	if b.d.isDebuff(statusID) {
		if attack := b.core().PendingAttack; attack != nil && attack.DefenderID == targetID {
			for _, s := range ps.Shields {
				if s.PreventStatus && (s.AttackID == "" || s.AttackID == attack.ID) {
					b.emit(EventStatusPrevented, StatusPayload{PlayerID: targetID, ID: statusID, Stacks: stacks, SourceID: s.SourceID})
					return
				}
			}
		}
	}
	n := capStacks(ps.Statuses[statusID], stacks, def.MaxStacks)
	if n <= 0 {
		return
	}
	b.emit(EventStatusGranted, StatusPayload{PlayerID: targetID, ID: statusID, Stacks: n, SourceID: sourceID})
}

func (b *builder) removeStatus(targetID, statusID string, stacks int) {
	held := b.core().Players[targetID].Statuses[statusID]
	n := min(held, stacks)
	if n <= 0 {
		return
	}
	b.emit(EventStatusRemoved, StatusPayload{PlayerID: targetID, ID: statusID, Stacks: n})
}

func (b *builder) grantToken(targetID, sourceID, tokenID string, stacks int) {
	def, ok := b.d.tokens[tokenID]
	ps, seated := b.core().Players[targetID]
	if !ok || !seated {
		b.d.log.WithField("token", tokenID).Warn("grant of unknown token ignored")
		return
	}
	n := capStacks(ps.Tokens[tokenID], stacks, def.MaxStacks)
	if n <= 0 {
		return
	}
	b.emit(EventTokenGranted, StatusPayload{PlayerID: targetID, ID: tokenID, Stacks: n, SourceID: sourceID})
}

func (b *builder) useToken(playerID, tokenID string, stacks int) {
	n := min(b.core().Players[playerID].Tokens[tokenID], stacks)
	if n <= 0 {
		return
	}
	b.emit(EventTokenUsed, StatusPayload{PlayerID: playerID, ID: tokenID, Stacks: n})
}

// capStacks returns how many of want stacks fit under the cap.
func capStacks(held, want, maxStacks int) int {
	if maxStacks > 0 {
		want = min(want, maxStacks-held)
	}
	return want
}
