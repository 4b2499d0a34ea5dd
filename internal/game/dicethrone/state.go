package dicethrone

import (
	"maps"
	"slices"
)

// Phases of a turn, in order.
const (
	PhaseUpkeep        = "upkeep"
	PhaseIncome        = "income"
	PhaseMain1         = "main1"
	PhaseOffensiveRoll = "offensiveRoll"
	PhaseDefensiveRoll = "defensiveRoll"
	PhaseMain2         = "main2"
	PhaseDiscard       = "discard"
)

// Game constants.
const (
	DiceCount       = 5
	StartingCP      = 2
	MaxCP           = 15
	StartingHand    = 4
	HandLimit       = 6
	OffensiveRolls  = 3
	DefensiveRolls  = 1
	windowBeforeDmg = "beforeDamage"
)

// Attack stages recorded on the pending attack.
const (
	StageDeclared      = "declared"
	StagePreDefense    = "preDefense"
	StageDefense       = "defense"
	StageTokenResponse = "tokenResponse"
	StageDamage        = "damage"
)

// Core is the game-owned part of the match state.
type Core struct {
	Players       map[string]PlayerState `json:"players"`
	TurnOrder     []string               `json:"turnOrder"`
	ActivePlayer  string                 `json:"activePlayer"`
	TurnNumber    int                    `json:"turnNumber"`
	Dice          []Die                  `json:"dice"`
	RollerID      string                 `json:"rollerId,omitempty"`
	RollsLeft     int                    `json:"rollsLeft"`
	RollCount     int                    `json:"rollCount"`
	RollConfirmed bool                   `json:"rollConfirmed"`
	PendingAttack *PendingAttack         `json:"pendingAttack,omitempty"`
	SkipPhase     bool                   `json:"skipPhase,omitempty"`
}

// PlayerState is one seat.
type PlayerState struct {
	ID       string         `json:"id"`
	HeroID   string         `json:"heroId"`
	HP       int            `json:"hp"`
	MaxHP    int            `json:"maxHp"`
	CP       int            `json:"cp"`
	Hand     []string       `json:"hand"`
	Deck     []string       `json:"deck"`
	Discard  []string       `json:"discard"`
	Statuses map[string]int `json:"statuses,omitempty"`
	Tokens   map[string]int `json:"tokens,omitempty"`
	Shields  []DamageShield `json:"shields,omitempty"`
}

// Die is one combat die. Value is 0 until rolled.
type Die struct {
	ID     int    `json:"id"`
	Value  int    `json:"value"`
	Face   string `json:"face,omitempty"`
	Locked bool   `json:"locked,omitempty"`
}

// PendingAttack is the attack being resolved. Damage is the raw amount
// accumulated so far; ResolvedDamage is what got through shields. Roll keeps
// the attacker's confirmed dice for conditions once the defender rerolls.
type PendingAttack struct {
	ID                 string `json:"id"`
	AttackerID         string `json:"attackerId"`
	DefenderID         string `json:"defenderId"`
	SourceAbilityID    string `json:"sourceAbilityId"`
	VariantID          string `json:"variantId,omitempty"`
	DefenseAbilityID   string `json:"defenseAbilityId,omitempty"`
	IsUltimate         bool   `json:"isUltimate"`
	IsDefendable       bool   `json:"isDefendable"`
	PreDefenseResolved bool   `json:"preDefenseResolved,omitempty"`
	Stage              string `json:"stage"`
	Damage             int    `json:"damage"`
	BonusDamage        int    `json:"bonusDamage,omitempty"`
	ResolvedDamage     int    `json:"resolvedDamage,omitempty"`
	Roll               []Die  `json:"roll"`
}

// DamageShield absorbs damage: a flat Value, a ReductionPercent, or nothing
// at all for PreventStatus shields, which block one debuff instead.
// AttackID binds a PreventStatus shield to the attack it was raised during;
// it is discarded when that attack resolves.
type DamageShield struct {
	SourceID         string `json:"sourceId"`
	Value            int    `json:"value,omitempty"`
	ReductionPercent int    `json:"reductionPercent,omitempty"`
	PreventStatus    bool   `json:"preventStatus,omitempty"`
	AttackID         string `json:"attackId,omitempty"`
}

func (p PlayerState) clone() PlayerState {
	p.Hand = slices.Clone(p.Hand)
	p.Deck = slices.Clone(p.Deck)
	p.Discard = slices.Clone(p.Discard)
	p.Statuses = maps.Clone(p.Statuses)
	p.Tokens = maps.Clone(p.Tokens)
	p.Shields = slices.Clone(p.Shields)
	return p
}

// withPlayer returns a copy of c whose player id has been passed through fn.
// Only that player's state is copied; everything else is shared.
func (c Core) withPlayer(id string, fn func(p *PlayerState)) Core {
	p := c.Players[id].clone()
	fn(&p)
	players := maps.Clone(c.Players)
	players[id] = p
	c.Players = players
	return c
}

// withAttack returns a copy of c with the pending attack passed through fn.
func (c Core) withAttack(fn func(a *PendingAttack)) Core {
	if c.PendingAttack == nil {
		return c
	}
	a := *c.PendingAttack
	fn(&a)
	c.PendingAttack = &a
	return c
}

// Opponent returns the other seat of a two-player match.
func (c Core) Opponent(id string) string {
	for _, pid := range c.TurnOrder {
		if pid != id {
			return pid
		}
	}
	return ""
}

func diceValues(dice []Die) []int {
	out := make([]int, len(dice))
	for i, d := range dice {
		out[i] = d.Value
	}
	return out
}

func diceFaces(dice []Die) []string {
	out := make([]string, len(dice))
	for i, d := range dice {
		out[i] = d.Face
	}
	return out
}

func newDice() []Die {
	dice := make([]Die, DiceCount)
	for i := range dice {
		dice[i] = Die{ID: i}
	}
	return dice
}
