// Package catalog holds the hero, card, status and token data for the dice
// combat game. Data is JSON so designers can edit it without touching code;
// cmd/catalogschema generates the matching JSON schema.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deathcats4/BoardGame-sub001/internal/ability"
)

//go:embed catalog.json
var embedded []byte

// Catalog is the root document.
type Catalog struct {
	Heroes   []HeroDoc   `json:"heroes" jsonschema:"title=Heroes,description=Playable heroes,minItems=1"`
	Cards    []CardDoc   `json:"cards" jsonschema:"title=Cards,description=Every card a hero deck may reference"`
	Statuses []StatusDoc `json:"statuses" jsonschema:"title=Statuses,description=Status effects (debuffs)"`
	Tokens   []StatusDoc `json:"tokens" jsonschema:"title=Tokens,description=Buffs and consumables"`
}

// HeroDoc describes one hero.
type HeroDoc struct {
	ID        string       `json:"id" jsonschema:"title=Hero id,pattern=^[a-z0-9-]+$,required"`
	Name      string       `json:"name" jsonschema:"title=Display name"`
	HP        int          `json:"hp" jsonschema:"title=Starting health,minimum=1"`
	Faces     []string     `json:"faces" jsonschema:"title=Die faces,description=Face symbol for die values 1 through 6,minItems=6,maxItems=6"`
	Abilities []AbilityDoc `json:"abilities" jsonschema:"title=Abilities"`
	Deck      []string     `json:"deck" jsonschema:"title=Deck,description=Card ids; duplicates allowed"`
}

// AbilityDoc is the JSON form of ability.AbilityDef.
type AbilityDoc struct {
	ID          string       `json:"id" jsonschema:"pattern=^[a-z0-9-]+$,required"`
	Name        string       `json:"name"`
	Kind        string       `json:"kind" jsonschema:"enum=offensive,enum=defensive"`
	Ultimate    bool         `json:"ultimate,omitempty"`
	Unblockable bool         `json:"unblockable,omitempty"`
	Trigger     *TriggerDoc  `json:"trigger,omitempty"`
	Effects     []EffectDoc  `json:"effects,omitempty"`
	Variants    []VariantDoc `json:"variants,omitempty" jsonschema:"description=Alternative triggers; the highest priority match wins"`
}

// VariantDoc is the JSON form of ability.VariantDef.
type VariantDoc struct {
	ID       string      `json:"id" jsonschema:"pattern=^[a-z0-9-]+$,required"`
	Priority int         `json:"priority"`
	Trigger  TriggerDoc  `json:"trigger"`
	Effects  []EffectDoc `json:"effects"`
}

// TriggerDoc is the JSON form of ability.Trigger.
type TriggerDoc struct {
	Type  string         `json:"type" jsonschema:"enum=diceSet,enum=smallStraight,enum=largeStraight,enum=phase"`
	Faces map[string]int `json:"faces,omitempty" jsonschema:"description=Minimum dice per face for diceSet"`
	Phase string         `json:"phase,omitempty"`
}

// EffectDoc is the JSON form of ability.Effect.
type EffectDoc struct {
	Timing    string        `json:"timing" jsonschema:"enum=preDefense,enum=withDamage,enum=postDamage"`
	Condition *ConditionDoc `json:"condition,omitempty"`
	Action    ActionDoc     `json:"action"`
}

// ConditionDoc is the JSON form of ability.Condition.
type ConditionDoc struct {
	Type  string `json:"type" jsonschema:"enum=always,enum=onHit,enum=rollSumGreaterThan"`
	Value int    `json:"value,omitempty"`
}

// ActionDoc is the flat JSON form of every ability.Action variant. Type
// selects which fields apply.
type ActionDoc struct {
	Type             string          `json:"type" jsonschema:"enum=damage,enum=heal,enum=grantStatus,enum=removeStatus,enum=grantToken,enum=gainCp,enum=grantShield,enum=rollDie,enum=skipPhase,enum=custom,enum=modifyDamage"`
	Target           string          `json:"target,omitempty" jsonschema:"enum=self,enum=opponent"`
	Amount           int             `json:"amount,omitempty"`
	StatusID         string          `json:"statusId,omitempty"`
	TokenID          string          `json:"tokenId,omitempty"`
	Stacks           int             `json:"stacks,omitempty"`
	Value            int             `json:"value,omitempty"`
	ReductionPercent int             `json:"reductionPercent,omitempty" jsonschema:"minimum=0,maximum=100"`
	PreventStatus    bool            `json:"preventStatus,omitempty"`
	Count            int             `json:"count,omitempty"`
	BonusPerFace     map[string]int  `json:"bonusPerFace,omitempty"`
	Percent          int             `json:"percent,omitempty"`
	CustomID         string          `json:"customId,omitempty"`
	Params           json.RawMessage `json:"params,omitempty"`
}

// CardDoc describes one card.
type CardDoc struct {
	ID          string      `json:"id" jsonschema:"pattern=^[a-z0-9-]+$,required"`
	Name        string      `json:"name"`
	Cost        int         `json:"cost" jsonschema:"minimum=0"`
	Timing      string      `json:"timing" jsonschema:"enum=main,enum=instant,enum=roll"`
	Actions     []ActionDoc `json:"actions,omitempty"`
	Interaction string      `json:"interaction,omitempty" jsonschema:"enum=cleanse,enum=modify-dice,description=Interaction opened after the card resolves"`
}

// StatusDoc describes a status effect or token.
type StatusDoc struct {
	ID        string        `json:"id" jsonschema:"pattern=^[a-z0-9-]+$,required"`
	Name      string        `json:"name"`
	Category  string        `json:"category" jsonschema:"enum=debuff,enum=buff,enum=consumable"`
	MaxStacks int           `json:"maxStacks" jsonschema:"minimum=1"`
	Passive   *PassiveDoc   `json:"passive,omitempty"`
	ActiveUse *ActiveUseDoc `json:"activeUse,omitempty"`
}

// PassiveDoc is the JSON form of ability.PassiveTrigger.
type PassiveDoc struct {
	Timing        string      `json:"timing" jsonschema:"enum=onTurnStart,enum=onPhaseEnter,enum=onDamageReceived,enum=onAttackEnd"`
	Phase         string      `json:"phase,omitempty"`
	Removable     bool        `json:"removable,omitempty"`
	RemovalCost   int         `json:"removalCost,omitempty"`
	Actions       []ActionDoc `json:"actions,omitempty"`
	UnpaidActions []ActionDoc `json:"unpaidActions,omitempty"`
}

// ActiveUseDoc is the JSON form of ability.ActiveUse.
type ActiveUseDoc struct {
	Window  string      `json:"window" jsonschema:"enum=beforeDamage"`
	Actions []ActionDoc `json:"actions"`
}

// Load parses and checks the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(embedded)
}

// Parse decodes a catalog document and checks cross references.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Check(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Check reports duplicate ids and dangling references.
func (c *Catalog) Check() error {
	var errs []error
	cards := make(map[string]bool, len(c.Cards))
	for _, card := range c.Cards {
		if cards[card.ID] {
			errs = append(errs, fmt.Errorf("duplicate card %q", card.ID))
		}
		cards[card.ID] = true
	}
	statuses := make(map[string]bool)
	for _, s := range c.Statuses {
		statuses[s.ID] = true
	}
	tokens := make(map[string]bool)
	for _, s := range c.Tokens {
		tokens[s.ID] = true
	}
	checkActions := func(where string, actions []ActionDoc) {
		for _, a := range actions {
			if a.StatusID != "" && !statuses[a.StatusID] {
				errs = append(errs, fmt.Errorf("%s: unknown status %q", where, a.StatusID))
			}
			if a.TokenID != "" && !tokens[a.TokenID] {
				errs = append(errs, fmt.Errorf("%s: unknown token %q", where, a.TokenID))
			}
		}
	}
	heroes := make(map[string]bool, len(c.Heroes))
	for _, h := range c.Heroes {
		if heroes[h.ID] {
			errs = append(errs, fmt.Errorf("duplicate hero %q", h.ID))
		}
		heroes[h.ID] = true
		if len(h.Faces) != 6 {
			errs = append(errs, fmt.Errorf("hero %s: want 6 faces, got %d", h.ID, len(h.Faces)))
		}
		for _, id := range h.Deck {
			if !cards[id] {
				errs = append(errs, fmt.Errorf("hero %s: deck references unknown card %q", h.ID, id))
			}
		}
		for _, a := range h.Abilities {
			for _, e := range a.Effects {
				checkActions(h.ID+"/"+a.ID, []ActionDoc{e.Action})
			}
			for _, v := range a.Variants {
				for _, e := range v.Effects {
					checkActions(h.ID+"/"+a.ID+"/"+v.ID, []ActionDoc{e.Action})
				}
			}
		}
	}
	for _, card := range c.Cards {
		checkActions("card "+card.ID, card.Actions)
	}
	return errors.Join(errs...)
}

// Hero returns a hero document by id.
func (c *Catalog) Hero(id string) (HeroDoc, bool) {
	for _, h := range c.Heroes {
		if h.ID == id {
			return h, true
		}
	}
	return HeroDoc{}, false
}

// Action compiles the document into its typed action.
func (d ActionDoc) Action() (ability.Action, error) {
	target := ability.Target(d.Target)
	if target == "" {
		target = ability.TargetSelf
	}
	stacks := d.Stacks
	if stacks == 0 {
		stacks = 1
	}
	switch d.Type {
	case "damage":
		return ability.Damage{Amount: d.Amount, Target: target}, nil
	case "heal":
		return ability.Heal{Amount: d.Amount, Target: target}, nil
	case "grantStatus":
		return ability.GrantStatus{StatusID: d.StatusID, Stacks: stacks, Target: target}, nil
	case "removeStatus":
		return ability.RemoveStatus{StatusID: d.StatusID, Stacks: stacks, Target: target}, nil
	case "grantToken":
		return ability.GrantToken{TokenID: d.TokenID, Stacks: stacks, Target: target}, nil
	case "gainCp":
		return ability.GainCP{Amount: d.Amount, Target: target}, nil
	case "grantShield":
		return ability.GrantShield{
			Value:            d.Value,
			ReductionPercent: d.ReductionPercent,
			PreventStatus:    d.PreventStatus,
			Target:           target,
		}, nil
	case "rollDie":
		return ability.RollDie{Count: max(d.Count, 1), BonusPerFace: d.BonusPerFace}, nil
	case "skipPhase":
		return ability.SkipPhase{Target: target}, nil
	case "custom":
		return ability.Custom{ID: d.CustomID, Params: d.Params}, nil
	case "modifyDamage":
		return ability.ModifyDamage{Amount: d.Amount, Percent: d.Percent}, nil
	}
	return nil, fmt.Errorf("unknown action type %q", d.Type)
}

// CompileActions compiles a list of action documents.
func CompileActions(docs []ActionDoc) ([]ability.Action, error) {
	out := make([]ability.Action, 0, len(docs))
	for _, d := range docs {
		a, err := d.Action()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (d TriggerDoc) compile() ability.Trigger {
	return ability.Trigger{Type: d.Type, Faces: d.Faces, Phase: d.Phase}
}

func compileEffects(docs []EffectDoc) ([]ability.Effect, error) {
	out := make([]ability.Effect, 0, len(docs))
	for _, d := range docs {
		a, err := d.Action.Action()
		if err != nil {
			return nil, err
		}
		e := ability.Effect{Timing: ability.Timing(d.Timing), Action: a}
		if d.Condition != nil {
			e.Condition = &ability.Condition{Type: d.Condition.Type, Value: d.Condition.Value}
		}
		out = append(out, e)
	}
	return out, nil
}

// Compile turns the document into an ability definition.
func (d AbilityDoc) Compile() (ability.AbilityDef, error) {
	def := ability.AbilityDef{
		ID:          d.ID,
		Name:        d.Name,
		Kind:        ability.Kind(d.Kind),
		IsUltimate:  d.Ultimate,
		Unblockable: d.Unblockable,
	}
	if d.Trigger != nil {
		t := d.Trigger.compile()
		def.Trigger = &t
	}
	effects, err := compileEffects(d.Effects)
	if err != nil {
		return ability.AbilityDef{}, fmt.Errorf("ability %s: %w", d.ID, err)
	}
	def.Effects = effects
	for _, v := range d.Variants {
		effects, err := compileEffects(v.Effects)
		if err != nil {
			return ability.AbilityDef{}, fmt.Errorf("ability %s/%s: %w", d.ID, v.ID, err)
		}
		def.Variants = append(def.Variants, ability.VariantDef{
			ID:       v.ID,
			Trigger:  v.Trigger.compile(),
			Effects:  effects,
			Priority: v.Priority,
		})
	}
	return def, nil
}

// Compile turns the document into a status definition.
func (d StatusDoc) Compile() (ability.StatusDef, error) {
	def := ability.StatusDef{
		ID:        d.ID,
		Name:      d.Name,
		Category:  ability.Category(d.Category),
		MaxStacks: d.MaxStacks,
	}
	if p := d.Passive; p != nil {
		actions, err := CompileActions(p.Actions)
		if err != nil {
			return ability.StatusDef{}, fmt.Errorf("status %s: %w", d.ID, err)
		}
		unpaid, err := CompileActions(p.UnpaidActions)
		if err != nil {
			return ability.StatusDef{}, fmt.Errorf("status %s: %w", d.ID, err)
		}
		def.Passive = &ability.PassiveTrigger{
			Timing:        ability.PassiveTiming(p.Timing),
			Phase:         p.Phase,
			Removable:     p.Removable,
			RemovalCost:   p.RemovalCost,
			Actions:       actions,
			UnpaidActions: unpaid,
		}
	}
	if u := d.ActiveUse; u != nil {
		actions, err := CompileActions(u.Actions)
		if err != nil {
			return ability.StatusDef{}, fmt.Errorf("status %s: %w", d.ID, err)
		}
		def.ActiveUse = &ability.ActiveUse{Window: u.Window, Actions: actions}
	}
	return def, nil
}
