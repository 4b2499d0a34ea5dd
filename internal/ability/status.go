package ability

// PassiveTiming is a lifecycle point at which passive effects fire.
type PassiveTiming string

const (
	OnTurnStart      PassiveTiming = "onTurnStart"
	OnPhaseEnter     PassiveTiming = "onPhaseEnter"
	OnDamageReceived PassiveTiming = "onDamageReceived"
	OnAttackEnd      PassiveTiming = "onAttackEnd"
)

// Category separates debuffs from buffs and consumables.
type Category string

const (
	Debuff     Category = "debuff"
	Buff       Category = "buff"
	Consumable Category = "consumable"
)

// PassiveTrigger fires Actions for each held stack at Timing. Phase narrows
// OnPhaseEnter to one phase. A removable stack is removed after firing unless
// RemovalCost CP cannot be paid, in which case UnpaidActions run instead and
// the stack stays.
type PassiveTrigger struct {
	Timing        PassiveTiming
	Phase         string
	Removable     bool
	RemovalCost   int
	Actions       []Action
	UnpaidActions []Action
}

// ActiveUse is a consumption-based effect a holder may trigger in a window.
type ActiveUse struct {
	Window  string
	Actions []Action
}

// StatusDef describes a status effect or token. The engine never hardcodes
// behavior per id; everything comes from these definitions.
type StatusDef struct {
	ID        string
	Name      string
	Category  Category
	MaxStacks int
	Passive   *PassiveTrigger
	ActiveUse *ActiveUse
}
