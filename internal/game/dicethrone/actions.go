package dicethrone

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/deathcats4/BoardGame-sub001/internal/ability"
)

// actionRunner interprets typed actions for one actor. Inside an attack,
// damage from the attacker to the defender accumulates on the pending
// attack instead of landing immediately.
type actionRunner struct {
	b      *builder
	actor  string
	source string
	attack bool
}

var _ ability.ActionVisitor = (*actionRunner)(nil)

func (b *builder) runner(actor, source string, attack bool) *actionRunner {
	return &actionRunner{b: b, actor: actor, source: source, attack: attack}
}

func (r *actionRunner) run(actions ...ability.Action) {
	for _, a := range actions {
		if r.b.err != nil {
			return
		}
		if err := a.Accept(r); err != nil {
			r.b.err = err
			return
		}
	}
}

// runEffects runs the effects whose condition holds in ctx, in order.
func (r *actionRunner) runEffects(effects []ability.Effect, ctx ability.Context) {
	for _, e := range effects {
		if !r.b.d.resolver.ConditionMet(e.Condition, ctx) {
			continue
		}
		r.run(e.Action)
	}
}

func (r *actionRunner) target(t ability.Target) string {
	if t == ability.TargetOpponent {
		return r.b.core().Opponent(r.actor)
	}
	return r.actor
}

func (r *actionRunner) inAttack(targetID string) bool {
	a := r.b.core().PendingAttack
	return r.attack && a != nil && a.AttackerID == r.actor && a.DefenderID == targetID
}

func (r *actionRunner) VisitDamage(a ability.Damage) error {
	target := r.target(a.Target)
	if r.inAttack(target) {
		if a.Amount > 0 {
			r.b.emit(EventAttackDamageAdded, AttackDamagePayload{Amount: a.Amount})
		}
		return nil
	}
	r.b.dealDamage(target, r.source, a.Amount, false)
	return nil
}

func (r *actionRunner) VisitHeal(a ability.Heal) error {
	r.b.heal(r.target(a.Target), a.Amount)
	return nil
}

func (r *actionRunner) VisitGrantStatus(a ability.GrantStatus) error {
	r.b.grantStatus(r.target(a.Target), r.source, a.StatusID, max(a.Stacks, 1))
	return nil
}

func (r *actionRunner) VisitRemoveStatus(a ability.RemoveStatus) error {
	r.b.removeStatus(r.target(a.Target), a.StatusID, max(a.Stacks, 1))
	return nil
}

func (r *actionRunner) VisitGrantToken(a ability.GrantToken) error {
	r.b.grantToken(r.target(a.Target), r.source, a.TokenID, max(a.Stacks, 1))
	return nil
}

func (r *actionRunner) VisitGainCP(a ability.GainCP) error {
	r.b.gainCP(r.target(a.Target), a.Amount)
	return nil
}

func (r *actionRunner) VisitGrantShield(a ability.GrantShield) error {
	shield := DamageShield{
		SourceID:         a.SourceID,
		Value:            a.Value,
		ReductionPercent: a.ReductionPercent,
		PreventStatus:    a.PreventStatus,
	}
	if shield.SourceID == "" {
		shield.SourceID = r.source
	}
	if !shield.PreventStatus && shield.Value <= 0 && shield.ReductionPercent <= 0 {
		return nil
	}
	if attack := r.b.core().PendingAttack; shield.PreventStatus && attack != nil {
		shield.AttackID = attack.ID
	}
	r.b.emit(EventShieldGranted, ShieldGrantedPayload{PlayerID: r.target(a.Target), Shield: shield})
	return nil
}

// VisitRollDie rolls extra dice with the actor's hero faces and adds the
// per-face bonus to the pending attack.
func (r *actionRunner) VisitRollDie(a ability.RollDie) error {
	h := r.b.d.heroOf(r.b.core(), r.actor)
	for range max(a.Count, 1) {
		value := r.b.random.D(6)
		face := h.Face(value)
		bonus := a.BonusPerFace[face]
		r.b.emit(EventBonusDieRolled, BonusDieRolledPayload{PlayerID: r.actor, Value: value, Face: face, Bonus: bonus})
		if bonus > 0 && r.b.core().PendingAttack != nil {
			r.b.emit(EventAttackDamageAdded, AttackDamagePayload{Amount: bonus, Bonus: true})
		}
	}
	return nil
}

func (r *actionRunner) VisitSkipPhase(a ability.SkipPhase) error {
	r.b.emit(EventPhaseSkipped, PhaseSkippedPayload{PlayerID: r.target(a.Target), SourceID: r.source})
	return nil
}

func (r *actionRunner) VisitCustom(a ability.Custom) error {
	handler, ok := r.b.d.customs.Resolve(a.ID)
	if !ok {
		r.b.d.log.WithFields(logrus.Fields{"custom_action": a.ID, "source": r.source}).Warn("unregistered custom action skipped")
		return nil
	}
	handler(r, a.Params)
	return nil
}

func (r *actionRunner) VisitModifyDamage(a ability.ModifyDamage) error {
	attack := r.b.core().PendingAttack
	if attack == nil {
		r.b.d.log.WithField("source", r.source).Warn("damage modifier outside an attack skipped")
		return nil
	}
	next := max(ability.ApplyPercent(attack.Damage+a.Amount, a.Percent), 0)
	if next != attack.Damage {
		r.b.emit(EventAttackDamageSet, AttackDamagePayload{Amount: next})
	}
	return nil
}

type drawParams struct {
	Count int `json:"count"`
}

func customDrawCard(r *actionRunner, params json.RawMessage) {
	p := drawParams{Count: 1}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			r.b.d.log.WithError(err).Warn("draw-card params ignored")
		}
	}
	r.b.draw(r.actor, max(p.Count, 1))
}

type stealParams struct {
	Amount int `json:"amount"`
}

// customStealCP moves up to Amount CP from the opponent to the actor.
func customStealCP(r *actionRunner, params json.RawMessage) {
	p := stealParams{Amount: 1}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			r.b.d.log.WithError(err).Warn("steal-cp params ignored")
		}
	}
	victim := r.b.core().Opponent(r.actor)
	n := min(p.Amount, r.b.core().Players[victim].CP)
	if n <= 0 {
		return
	}
	r.b.gainCP(victim, -n)
	r.b.gainCP(r.actor, n)
}
