package ability

import "encoding/json"

// Target selects who an action applies to, relative to the acting player.
type Target string

const (
	TargetSelf     Target = "self"
	TargetOpponent Target = "opponent"
)

// Action is a closed sum type. Every variant is handled by ActionVisitor, so
// adding a variant fails to compile until every interpreter handles it.
type Action interface {
	Accept(v ActionVisitor) error
	Kind() string
}

// ActionVisitor interprets actions.
type ActionVisitor interface {
	VisitDamage(Damage) error
	VisitHeal(Heal) error
	VisitGrantStatus(GrantStatus) error
	VisitRemoveStatus(RemoveStatus) error
	VisitGrantToken(GrantToken) error
	VisitGainCP(GainCP) error
	VisitGrantShield(GrantShield) error
	VisitRollDie(RollDie) error
	VisitSkipPhase(SkipPhase) error
	VisitCustom(Custom) error
	VisitModifyDamage(ModifyDamage) error
}

// Damage deals Amount to Target. Attack damage goes through shields.
type Damage struct {
	Amount int
	Target Target
}

type Heal struct {
	Amount int
	Target Target
}

type GrantStatus struct {
	StatusID string
	Stacks   int
	Target   Target
}

type RemoveStatus struct {
	StatusID string
	Stacks   int
	Target   Target
}

type GrantToken struct {
	TokenID string
	Stacks  int
	Target  Target
}

type GainCP struct {
	Amount int
	Target Target
}

// GrantShield adds a damage shield: either a flat Value, a ReductionPercent,
// or a PreventStatus shield that blocks one debuff.
type GrantShield struct {
	SourceID         string
	Value            int
	ReductionPercent int
	PreventStatus    bool
	Target           Target
}

// RollDie rolls Count extra dice and adds BonusPerFace damage for each face
// rolled to the pending attack.
type RollDie struct {
	Count        int
	BonusPerFace map[string]int
}

// SkipPhase makes Target skip the phase being entered.
type SkipPhase struct {
	Target Target
}

// Custom runs a game-registered handler.
type Custom struct {
	ID     string
	Params json.RawMessage
}

// ModifyDamage changes the pending attack's damage by Amount, then by
// Percent (negative percentages reduce, rounding the reduction up).
type ModifyDamage struct {
	Amount  int
	Percent int
}

func (a Damage) Accept(v ActionVisitor) error       { return v.VisitDamage(a) }
func (a Heal) Accept(v ActionVisitor) error         { return v.VisitHeal(a) }
func (a GrantStatus) Accept(v ActionVisitor) error  { return v.VisitGrantStatus(a) }
func (a RemoveStatus) Accept(v ActionVisitor) error { return v.VisitRemoveStatus(a) }
func (a GrantToken) Accept(v ActionVisitor) error   { return v.VisitGrantToken(a) }
func (a GainCP) Accept(v ActionVisitor) error       { return v.VisitGainCP(a) }
func (a GrantShield) Accept(v ActionVisitor) error  { return v.VisitGrantShield(a) }
func (a RollDie) Accept(v ActionVisitor) error      { return v.VisitRollDie(a) }
func (a SkipPhase) Accept(v ActionVisitor) error    { return v.VisitSkipPhase(a) }
func (a Custom) Accept(v ActionVisitor) error       { return v.VisitCustom(a) }
func (a ModifyDamage) Accept(v ActionVisitor) error { return v.VisitModifyDamage(a) }

func (Damage) Kind() string       { return "damage" }
func (Heal) Kind() string         { return "heal" }
func (GrantStatus) Kind() string  { return "grantStatus" }
func (RemoveStatus) Kind() string { return "removeStatus" }
func (GrantToken) Kind() string   { return "grantToken" }
func (GainCP) Kind() string       { return "gainCp" }
func (GrantShield) Kind() string  { return "grantShield" }
func (RollDie) Kind() string      { return "rollDie" }
func (SkipPhase) Kind() string    { return "skipPhase" }
func (Custom) Kind() string       { return "custom" }
func (ModifyDamage) Kind() string { return "modifyDamage" }

// ApplyPercent applies a percentage change to amount. Reductions round the
// reduced part up, matching percentage shields.
func ApplyPercent(amount, percent int) int {
	if percent == 0 || amount <= 0 {
		return amount
	}
	if percent < 0 {
		cut := ceilDiv(amount*-percent, 100)
		if cut > amount {
			cut = amount
		}
		return amount - cut
	}
	return amount + amount*percent/100
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
