package dicethrone

import (
	"encoding/json"
	"sort"

	"github.com/deathcats4/BoardGame-sub001/internal/ability"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
	"github.com/deathcats4/BoardGame-sub001/internal/systems"
)

// attackEffects resolves the effects the pending attack's ability runs
// with the dice as they are now.
func (b *builder) attackEffects() (ability.Selected, bool) {
	attack := b.core().PendingAttack
	if attack == nil {
		return ability.Selected{}, false
	}
	def, ok := b.d.heroOf(b.core(), attack.AttackerID).ability(attack.SourceAbilityID)
	if !ok {
		return ability.Selected{}, false
	}
	if attack.VariantID == "" {
		return ability.Selected{AbilityID: def.ID, Effects: def.Effects}, true
	}
	for _, v := range def.Variants {
		if v.ID == attack.VariantID {
			return ability.Selected{AbilityID: def.ID, VariantID: v.ID, Effects: v.Effects}, true
		}
	}
	return ability.Selected{}, false
}

func (b *builder) attackContext(damageDealt int) ability.Context {
	var roll []Die
	if attack := b.core().PendingAttack; attack != nil {
		roll = attack.Roll
	}
	ctx := rollContext(roll, PhaseOffensiveRoll)
	ctx.DamageDealt = damageDealt
	return ctx
}

// resolvePreDefense runs the attacker's preDefense effects once.
func (b *builder) resolvePreDefense() {
	attack := b.core().PendingAttack
	if attack == nil || attack.PreDefenseResolved {
		return
	}
	sel, ok := b.attackEffects()
	if !ok {
		return
	}
	b.emit(EventAttackStageChanged, AttackStagePayload{Stage: StagePreDefense})
	r := b.runner(attack.AttackerID, sel.AbilityID, true)
	r.runEffects(ability.EffectsAt(sel.Effects, ability.PreDefense), b.attackContext(0))
	b.emit(EventPreDefenseResolved, struct{}{})
}

// resolveDefense picks the defender's best defensive ability for the
// defensive roll and runs all of its effects.
func (b *builder) resolveDefense() {
	attack := b.core().PendingAttack
	if attack == nil {
		return
	}
	b.emit(EventAttackStageChanged, AttackStagePayload{Stage: StageDefense})
	h := b.d.heroOf(b.core(), attack.DefenderID)
	ctx := rollContext(b.core().Dice, PhaseDefensiveRoll)
	available := b.d.resolver.Available(h.Abilities, ability.Defensive, ctx)
	if len(available) == 0 {
		return
	}
	sel := available[0]
	b.emit(EventDefenseSelected, DefenseSelectedPayload{
		DefenderID: attack.DefenderID,
		AbilityID:  sel.AbilityID,
		VariantID:  sel.VariantID,
	})
	b.runner(attack.DefenderID, sel.AbilityID, false).runEffects(sel.Effects, ctx)
}

// resolveDamageStage accumulates withDamage effects, then either offers the
// defender a token response or finishes the attack.
func (b *builder) resolveDamageStage() {
	attack := b.core().PendingAttack
	if attack == nil {
		return
	}
	sel, ok := b.attackEffects()
	if !ok {
		b.finishAttack()
		return
	}
	b.emit(EventAttackStageChanged, AttackStagePayload{Stage: StageDamage})
	r := b.runner(attack.AttackerID, sel.AbilityID, true)
	r.runEffects(ability.EffectsAt(sel.Effects, ability.WithDamage), b.attackContext(0))
	if b.err != nil {
		return
	}

	attack = b.core().PendingAttack
	tokens := b.respondableTokens(attack.DefenderID)
	if attack.Damage <= 0 || len(tokens) == 0 {
		b.finishAttack()
		return
	}
	b.emit(EventAttackStageChanged, AttackStagePayload{Stage: StageTokenResponse})
	data, _ := json.Marshal(TokenResponseData{Damage: attack.Damage, Tokens: tokens})
	b.raw(systems.RequestInteraction(game.InteractionDescriptor{
		ID:       game.NewID(KindTokenResponse, b.state.Sys.Seq, attack.AttackerID, attack.SourceAbilityID),
		Kind:     KindTokenResponse,
		PlayerID: attack.DefenderID,
		Data:     data,
	}))
}

// respondableTokens lists tokens the player holds that can be spent before
// damage lands.
func (b *builder) respondableTokens(playerID string) map[string]int {
	out := map[string]int{}
	for id, n := range b.core().Players[playerID].Tokens {
		def, ok := b.d.tokens[id]
		if ok && n > 0 && def.ActiveUse != nil && def.ActiveUse.Window == windowBeforeDmg {
			out[id] = n
		}
	}
	return out
}

// spendTokens applies the active use of each requested token, capped at the
// stacks held.
func (b *builder) spendTokens(playerID string, requested map[string]int) {
	ids := make([]string, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		def, ok := b.d.tokens[id]
		if !ok || def.ActiveUse == nil || def.ActiveUse.Window != windowBeforeDmg {
			b.d.log.WithField("token", id).Warn("token cannot be used before damage")
			continue
		}
		n := min(requested[id], b.core().Players[playerID].Tokens[id])
		if n <= 0 {
			continue
		}
		b.useToken(playerID, id, n)
		r := b.runner(playerID, id, false)
		for range n {
			r.run(def.ActiveUse.Actions...)
		}
	}
}

// finishAttack lands the damage, runs postDamage effects against what got
// through and clears the attack.
func (b *builder) finishAttack() {
	attack := b.core().PendingAttack
	if attack == nil {
		return
	}
	dealt := b.dealDamage(attack.DefenderID, attack.SourceAbilityID, attack.Damage, true)
	if dealt > 0 {
		b.firePassives(attack.DefenderID, ability.OnDamageReceived, "")
	}
	if sel, ok := b.attackEffects(); ok {
		r := b.runner(attack.AttackerID, sel.AbilityID, true)
		r.runEffects(ability.EffectsAt(sel.Effects, ability.PostDamage), b.attackContext(dealt))
	}
	attack = b.core().PendingAttack
	if attack == nil {
		return
	}
	b.emit(EventAttackResolved, AttackResolvedPayload{
		AttackerID:      attack.AttackerID,
		DefenderID:      attack.DefenderID,
		SourceAbilityID: attack.SourceAbilityID,
		Damage:          attack.Damage,
		ResolvedDamage:  attack.ResolvedDamage,
	})
	b.firePassives(attack.AttackerID, ability.OnAttackEnd, "")
}
