// Package ability holds the game-agnostic parts of ability resolution:
// definitions, trigger and condition predicates, variant selection and the
// typed action set. Games own the interpretation of actions.
package ability

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Kind distinguishes attacking from defending abilities.
type Kind string

const (
	Offensive Kind = "offensive"
	Defensive Kind = "defensive"
)

// Timing is the attack stage an effect resolves in.
type Timing string

const (
	PreDefense Timing = "preDefense"
	WithDamage Timing = "withDamage"
	PostDamage Timing = "postDamage"
)

// Built-in trigger and condition types.
const (
	TriggerDiceSet       = "diceSet"
	TriggerSmallStraight = "smallStraight"
	TriggerLargeStraight = "largeStraight"
	TriggerPhase         = "phase"

	ConditionAlways             = "always"
	ConditionOnHit              = "onHit"
	ConditionRollSumGreaterThan = "rollSumGreaterThan"
)

// Trigger is what makes an ability (or variant) usable.
type Trigger struct {
	Type string
	// Faces is the minimum count per face for diceSet.
	Faces map[string]int
	Phase string
}

// Condition gates one effect.
type Condition struct {
	Type  string
	Value int
}

// Effect is one action resolved at a timing, optionally conditional.
type Effect struct {
	Timing    Timing
	Condition *Condition
	Action    Action
}

// VariantDef is one alternative trigger/effects pair of an ability.
type VariantDef struct {
	ID       string
	Trigger  Trigger
	Effects  []Effect
	Priority int
}

// AbilityDef is either a single trigger with effects or a set of variants.
type AbilityDef struct {
	ID          string
	Name        string
	Kind        Kind
	IsUltimate  bool
	Unblockable bool
	Trigger     *Trigger
	Effects     []Effect
	Variants    []VariantDef
}

// Context is what triggers and conditions are evaluated against.
type Context struct {
	Values []int
	Faces  []string
	Phase  string
	// DamageDealt is the damage that got through shields, for onHit.
	DamageDealt int
}

// FaceCounts counts dice per face.
func (c Context) FaceCounts() map[string]int {
	counts := make(map[string]int, len(c.Faces))
	for _, f := range c.Faces {
		counts[f]++
	}
	return counts
}

// RollSum adds the dice values.
func (c Context) RollSum() int {
	sum := 0
	for _, v := range c.Values {
		sum += v
	}
	return sum
}

// TriggerFunc reports whether a trigger is satisfied.
type TriggerFunc func(ctx Context, t Trigger) bool

// ConditionFunc reports whether an effect condition holds.
type ConditionFunc func(ctx Context, c Condition) bool

// Selected is an ability resolved to the effects that will run.
type Selected struct {
	AbilityID string
	VariantID string
	Effects   []Effect
}

// Resolver owns the trigger and condition registries of one game instance.
type Resolver struct {
	Triggers   *Registry[TriggerFunc]
	Conditions *Registry[ConditionFunc]
	log        logrus.FieldLogger
}

// NewResolver creates a resolver with the built-in predicates registered.
func NewResolver(logger logrus.FieldLogger) *Resolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	r := &Resolver{
		Triggers:   NewRegistry[TriggerFunc]("trigger"),
		Conditions: NewRegistry[ConditionFunc]("condition"),
		log:        logger.WithField("component", "ability"),
	}
	r.Triggers.Register(TriggerDiceSet, matchDiceSet)
	r.Triggers.Register(TriggerSmallStraight, func(ctx Context, _ Trigger) bool { return longestRun(ctx.Values) >= 4 })
	r.Triggers.Register(TriggerLargeStraight, func(ctx Context, _ Trigger) bool { return longestRun(ctx.Values) >= 5 })
	r.Triggers.Register(TriggerPhase, func(ctx Context, t Trigger) bool { return ctx.Phase == t.Phase })
	r.Conditions.Register(ConditionAlways, func(Context, Condition) bool { return true })
	r.Conditions.Register(ConditionOnHit, func(ctx Context, _ Condition) bool { return ctx.DamageDealt > 0 })
	r.Conditions.Register(ConditionRollSumGreaterThan, func(ctx Context, c Condition) bool { return ctx.RollSum() > c.Value })
	return r
}

// Matches evaluates a trigger. Unregistered trigger types never match.
func (r *Resolver) Matches(t Trigger, ctx Context) bool {
	fn, ok := r.Triggers.Resolve(t.Type)
	if !ok {
		r.log.WithField("trigger", t.Type).Warn("unregistered trigger type")
		return false
	}
	return fn(ctx, t)
}

// ConditionMet evaluates an effect condition. A nil condition always holds;
// unregistered condition types never do.
func (r *Resolver) ConditionMet(c *Condition, ctx Context) bool {
	if c == nil {
		return true
	}
	fn, ok := r.Conditions.Resolve(c.Type)
	if !ok {
		r.log.WithField("condition", c.Type).Warn("unregistered condition type")
		return false
	}
	return fn(ctx, *c)
}

// SelectVariant picks the effects an ability would run. Among satisfied
// variants the highest priority wins; ties go to the earliest declared.
func (r *Resolver) SelectVariant(def AbilityDef, ctx Context) (Selected, bool) {
	if len(def.Variants) == 0 {
		if def.Trigger == nil || !r.Matches(*def.Trigger, ctx) {
			return Selected{}, false
		}
		return Selected{AbilityID: def.ID, Effects: def.Effects}, true
	}
	best := -1
	for i, v := range def.Variants {
		if !r.Matches(v.Trigger, ctx) {
			continue
		}
		if best < 0 || v.Priority > def.Variants[best].Priority {
			best = i
		}
	}
	if best < 0 {
		return Selected{}, false
	}
	v := def.Variants[best]
	return Selected{AbilityID: def.ID, VariantID: v.ID, Effects: v.Effects}, true
}

// Available returns every ability of the given kind usable in ctx, in
// definition order.
func (r *Resolver) Available(defs []AbilityDef, kind Kind, ctx Context) []Selected {
	var out []Selected
	for _, def := range defs {
		if def.Kind != kind {
			continue
		}
		if sel, ok := r.SelectVariant(def, ctx); ok {
			out = append(out, sel)
		}
	}
	return out
}

// EffectsAt filters effects by timing, keeping declaration order.
func EffectsAt(effects []Effect, timing Timing) []Effect {
	var out []Effect
	for _, e := range effects {
		if e.Timing == timing {
			out = append(out, e)
		}
	}
	return out
}

// ValidateReferences checks that every trigger, condition and custom action
// id referenced by defs has a registered handler.
func ValidateReferences[H any](r *Resolver, defs []AbilityDef, customs *Registry[H]) error {
	var errs []error
	check := func(where string, effects []Effect) {
		for _, e := range effects {
			if e.Condition != nil {
				if _, ok := r.Conditions.Resolve(e.Condition.Type); !ok {
					errs = append(errs, fmt.Errorf("%s: unregistered condition %q", where, e.Condition.Type))
				}
			}
			if c, ok := e.Action.(Custom); ok && customs != nil {
				if _, ok := customs.Resolve(c.ID); !ok {
					errs = append(errs, fmt.Errorf("%s: unregistered custom action %q", where, c.ID))
				}
			}
		}
	}
	trigger := func(where string, t Trigger) {
		if _, ok := r.Triggers.Resolve(t.Type); !ok {
			errs = append(errs, fmt.Errorf("%s: unregistered trigger %q", where, t.Type))
		}
	}
	for _, def := range defs {
		if def.Trigger != nil {
			trigger(def.ID, *def.Trigger)
		}
		if def.Trigger == nil && len(def.Variants) == 0 {
			errs = append(errs, fmt.Errorf("%s: no trigger or variants", def.ID))
		}
		check(def.ID, def.Effects)
		for _, v := range def.Variants {
			where := def.ID + "/" + v.ID
			trigger(where, v.Trigger)
			check(where, v.Effects)
		}
	}
	return errors.Join(errs...)
}

func matchDiceSet(ctx Context, t Trigger) bool {
	if len(t.Faces) == 0 {
		return false
	}
	counts := ctx.FaceCounts()
	for face, need := range t.Faces {
		if counts[face] < need {
			return false
		}
	}
	return true
}

// longestRun is the longest run of consecutive distinct values.
func longestRun(values []int) int {
	seen := make(map[int]bool, len(values))
	for _, v := range values {
		seen[v] = true
	}
	best := 0
	for v := range seen {
		if seen[v-1] {
			continue
		}
		n := 1
		for seen[v+n] {
			n++
		}
		if n > best {
			best = n
		}
	}
	return best
}
