package dicethrone

import (
	"fmt"
	"slices"

	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// Reduce folds one event into a new core. The input core is never mutated:
// every touched player, slice and map is copied first.
func (d *Domain) Reduce(core Core, evt game.Event) (Core, error) {
	switch evt.Type {
	case game.EventPhaseExiting:
		core.SkipPhase = false
		return core, nil

	case EventRollPhaseStarted:
		p, err := game.DecodePayload[RollPhaseStartedPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		core.Dice = newDice()
		core.RollerID = p.RollerID
		core.RollsLeft = p.Rolls
		core.RollCount = 0
		core.RollConfirmed = false
		return core, nil

	case EventDiceRolled:
		p, err := game.DecodePayload[DiceRolledPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		core.Dice = slices.Clone(p.Dice)
		core.RollsLeft--
		core.RollCount++
		return core, nil

	case EventDiceModified:
		p, err := game.DecodePayload[DiceModifiedPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		core.Dice = slices.Clone(p.Dice)
		return core, nil

	case EventDieLockToggled:
		p, err := game.DecodePayload[DieLockPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		if p.DieID < 0 || p.DieID >= len(core.Dice) {
			return core, fmt.Errorf("die %d out of range", p.DieID)
		}
		core.Dice = slices.Clone(core.Dice)
		core.Dice[p.DieID].Locked = p.Locked
		return core, nil

	case EventRollConfirmed:
		core.RollConfirmed = true
		return core, nil

	case EventBonusDieRolled:
		return core, nil

	case EventAttackDeclared:
		p, err := game.DecodePayload[AttackDeclaredPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		attack := p.Attack
		core.PendingAttack = &attack
		return core, nil

	case EventAttackStageChanged:
		p, err := game.DecodePayload[AttackStagePayload](evt.Payload)
		if err != nil {
			return core, err
		}
		return core.withAttack(func(a *PendingAttack) { a.Stage = p.Stage }), nil

	case EventPreDefenseResolved:
		return core.withAttack(func(a *PendingAttack) { a.PreDefenseResolved = true }), nil

	case EventDefenseSelected:
		p, err := game.DecodePayload[DefenseSelectedPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		return core.withAttack(func(a *PendingAttack) { a.DefenseAbilityID = p.AbilityID }), nil

	case EventAttackDamageAdded:
		p, err := game.DecodePayload[AttackDamagePayload](evt.Payload)
		if err != nil {
			return core, err
		}
		return core.withAttack(func(a *PendingAttack) {
			a.Damage += p.Amount
			if p.Bonus {
				a.BonusDamage += p.Amount
			}
		}), nil

	case EventAttackDamageSet:
		p, err := game.DecodePayload[AttackDamagePayload](evt.Payload)
		if err != nil {
			return core, err
		}
		return core.withAttack(func(a *PendingAttack) { a.Damage = max(p.Amount, 0) }), nil

	case EventAttackResolved:
		if attack := core.PendingAttack; attack != nil {
			core = expirePreventShields(core, *attack)
		}
		core.PendingAttack = nil
		return core, nil

	case EventDamageDealt:
		p, err := game.DecodePayload[DamageDealtPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		if _, ok := core.Players[p.TargetID]; !ok {
			return core, fmt.Errorf("unknown player %q", p.TargetID)
		}
		core = core.withPlayer(p.TargetID, func(ps *PlayerState) {
			lost := p.Amount
			if p.Attack {
				res := AbsorbDamage(p.Amount, ps.Shields)
				ps.Shields = res.Remaining
				lost = res.Damage
			}
			ps.HP = max(ps.HP-lost, 0)
		})
		if p.Attack {
			core = core.withAttack(func(a *PendingAttack) { a.ResolvedDamage += p.Dealt })
		}
		return core, nil

	case EventHealed:
		p, err := game.DecodePayload[HealedPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		return core.withPlayer(p.PlayerID, func(ps *PlayerState) {
			ps.HP = min(ps.HP+p.Amount, ps.MaxHP)
		}), nil

	case EventHPSet:
		p, err := game.DecodePayload[HPSetPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		return core.withPlayer(p.PlayerID, func(ps *PlayerState) { ps.HP = p.HP }), nil

	case EventStatusGranted, EventStatusRemoved, EventTokenGranted, EventTokenUsed:
		p, err := game.DecodePayload[StatusPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		return core.withPlayer(p.PlayerID, func(ps *PlayerState) {
			switch evt.Type {
			case EventStatusGranted:
				ps.Statuses = addStacks(ps.Statuses, p.ID, p.Stacks)
			case EventStatusRemoved:
				ps.Statuses = addStacks(ps.Statuses, p.ID, -p.Stacks)
			case EventTokenGranted:
				ps.Tokens = addStacks(ps.Tokens, p.ID, p.Stacks)
			case EventTokenUsed:
				ps.Tokens = addStacks(ps.Tokens, p.ID, -p.Stacks)
			}
		}), nil

	case EventStatusPrevented:
		p, err := game.DecodePayload[StatusPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		return core.withPlayer(p.PlayerID, func(ps *PlayerState) {
			ps.Shields = dropPreventShield(ps.Shields, p.SourceID)
		}), nil

	case EventCPChanged:
		p, err := game.DecodePayload[CPChangedPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		return core.withPlayer(p.PlayerID, func(ps *PlayerState) { ps.CP = p.Value }), nil

	case EventShieldGranted:
		p, err := game.DecodePayload[ShieldGrantedPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		return core.withPlayer(p.PlayerID, func(ps *PlayerState) {
			ps.Shields = append(ps.Shields, p.Shield)
		}), nil

	case EventPhaseSkipped:
		core.SkipPhase = true
		return core, nil

	case EventCardDrawn:
		p, err := game.DecodePayload[CardDrawnPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		return core.withPlayer(p.PlayerID, func(ps *PlayerState) {
			n := min(p.Count, len(ps.Deck))
			ps.Hand = append(ps.Hand, ps.Deck[:n]...)
			ps.Deck = ps.Deck[n:]
		}), nil

	case EventDeckShuffled:
		p, err := game.DecodePayload[DeckShuffledPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		return core.withPlayer(p.PlayerID, func(ps *PlayerState) {
			ps.Deck = append(ps.Deck, p.Order...)
			ps.Discard = nil
		}), nil

	case EventCardPlayed, EventCardSold:
		p, err := game.DecodePayload[CardPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		return core.withPlayer(p.PlayerID, func(ps *PlayerState) {
			i := slices.Index(ps.Hand, p.CardID)
			if i < 0 {
				return
			}
			ps.Hand = slices.Delete(ps.Hand, i, i+1)
			ps.Discard = append(ps.Discard, p.CardID)
			if evt.Type == EventCardPlayed {
				ps.CP -= p.Cost
			} else {
				ps.CP = min(ps.CP+1, MaxCP)
			}
		}), nil

	case EventCardReturned:
		p, err := game.DecodePayload[CardPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		return core.withPlayer(p.PlayerID, func(ps *PlayerState) {
			i := slices.Index(ps.Discard, p.CardID)
			if i < 0 {
				return
			}
			ps.Discard = slices.Delete(ps.Discard, i, i+1)
			ps.Hand = append(ps.Hand, p.CardID)
			ps.CP = min(ps.CP+p.Cost, MaxCP)
		}), nil

	case EventTurnEnded:
		p, err := game.DecodePayload[TurnEndedPayload](evt.Payload)
		if err != nil {
			return core, err
		}
		core.ActivePlayer = p.Next
		core.TurnNumber++
		core.Dice = newDice()
		core.RollerID = ""
		core.RollsLeft = 0
		core.RollCount = 0
		core.RollConfirmed = false
		return core, nil
	}

	if game.IsSystemEvent(evt.Type) {
		return core, nil
	}
	return core, fmt.Errorf("unknown event %s", evt.Type)
}

// addStacks returns a copy-safe map with id adjusted by delta. Entries that
// drop to zero are removed.
func addStacks(m map[string]int, id string, delta int) map[string]int {
	if m == nil {
		m = make(map[string]int)
	}
	n := m[id] + delta
	if n <= 0 {
		delete(m, id)
	} else {
		m[id] = n
	}
	return m
}

func dropPreventShield(shields []DamageShield, sourceID string) []DamageShield {
	for i, s := range shields {
		if s.PreventStatus && (sourceID == "" || s.SourceID == sourceID) {
			return slices.Delete(shields, i, i+1)
		}
	}
	return shields
}

// expirePreventShields drops the prevent-status shields raised during attack,
// and any unbound ones the defender carried into it.
func expirePreventShields(core Core, attack PendingAttack) Core {
	for id, ps := range core.Players {
		expired := func(s DamageShield) bool {
			return s.PreventStatus && (s.AttackID == attack.ID || (s.AttackID == "" && id == attack.DefenderID))
		}
		if !slices.ContainsFunc(ps.Shields, expired) {
			continue
		}
		core = core.withPlayer(id, func(ps *PlayerState) {
			ps.Shields = slices.DeleteFunc(ps.Shields, expired)
		})
	}
	return core
}
