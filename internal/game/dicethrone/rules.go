package dicethrone

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/deathcats4/BoardGame-sub001/internal/ability"
	"github.com/deathcats4/BoardGame-sub001/internal/game/dicethrone/catalog"
)

// Card play timings.
const (
	TimingMain    = "main"
	TimingInstant = "instant"
	TimingRoll    = "roll"
)

type hero struct {
	ID        string
	HP        int
	Faces     []string
	Abilities []ability.AbilityDef
	Deck      []string
}

// Face returns the symbol for a die value.
func (h hero) Face(value int) string {
	if value < 1 || value > len(h.Faces) {
		return ""
	}
	return h.Faces[value-1]
}

func (h hero) ability(id string) (ability.AbilityDef, bool) {
	for _, a := range h.Abilities {
		if a.ID == id {
			return a, true
		}
	}
	return ability.AbilityDef{}, false
}

type card struct {
	ID          string
	Cost        int
	Timing      string
	Actions     []ability.Action
	Interaction string
}

// CustomAction is a game-registered handler for ability.Custom actions.
type CustomAction func(r *actionRunner, params json.RawMessage)

// Domain is the dice combat game core. It implements game.DomainCore[Core]
// and the optional flow, response, cheat and system-event hooks.
type Domain struct {
	heroes    map[string]hero
	heroOrder []string
	cards     map[string]card
	statuses  map[string]ability.StatusDef
	tokens    map[string]ability.StatusDef
	resolver  *ability.Resolver
	customs   *ability.Registry[CustomAction]
	log       logrus.FieldLogger
}

// NewDomain compiles a catalog into a domain. Every ability reference must
// resolve to a registered trigger, condition and custom action.
func NewDomain(cat *catalog.Catalog, logger logrus.FieldLogger) (*Domain, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	d := &Domain{
		heroes:   make(map[string]hero, len(cat.Heroes)),
		cards:    make(map[string]card, len(cat.Cards)),
		statuses: make(map[string]ability.StatusDef, len(cat.Statuses)),
		tokens:   make(map[string]ability.StatusDef, len(cat.Tokens)),
		resolver: ability.NewResolver(logger),
		customs:  ability.NewRegistry[CustomAction]("custom action"),
		log:      logger.WithField("component", "dicethrone"),
	}
	d.customs.Register("draw-card", customDrawCard)
	d.customs.Register("steal-cp", customStealCP)

	for _, doc := range cat.Statuses {
		def, err := doc.Compile()
		if err != nil {
			return nil, err
		}
		d.statuses[def.ID] = def
	}
	for _, doc := range cat.Tokens {
		def, err := doc.Compile()
		if err != nil {
			return nil, err
		}
		d.tokens[def.ID] = def
	}
	for _, doc := range cat.Cards {
		actions, err := catalog.CompileActions(doc.Actions)
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", doc.ID, err)
		}
		d.cards[doc.ID] = card{
			ID:          doc.ID,
			Cost:        doc.Cost,
			Timing:      doc.Timing,
			Actions:     actions,
			Interaction: doc.Interaction,
		}
	}
	for _, doc := range cat.Heroes {
		h := hero{ID: doc.ID, HP: doc.HP, Faces: doc.Faces, Deck: doc.Deck}
		for _, a := range doc.Abilities {
			def, err := a.Compile()
			if err != nil {
				return nil, fmt.Errorf("hero %s: %w", doc.ID, err)
			}
			h.Abilities = append(h.Abilities, def)
		}
		if err := ability.ValidateReferences(d.resolver, h.Abilities, d.customs); err != nil {
			return nil, fmt.Errorf("hero %s: %w", doc.ID, err)
		}
		d.heroes[doc.ID] = h
		d.heroOrder = append(d.heroOrder, doc.ID)
	}
	if len(d.heroOrder) == 0 {
		return nil, fmt.Errorf("catalog has no heroes")
	}
	return d, nil
}

// Resolver exposes the domain's trigger and condition registries.
func (d *Domain) Resolver() *ability.Resolver { return d.resolver }

// Customs exposes the domain's custom action registry.
func (d *Domain) Customs() *ability.Registry[CustomAction] { return d.customs }

func (d *Domain) heroOf(core Core, playerID string) hero {
	return d.heroes[core.Players[playerID].HeroID]
}

// isDebuff reports whether id names a status (as opposed to a token).
func (d *Domain) isDebuff(id string) bool {
	def, ok := d.statuses[id]
	return ok && def.Category == ability.Debuff
}

// statusDef finds a status or token definition.
func (d *Domain) statusDef(id string) (ability.StatusDef, bool) {
	if def, ok := d.statuses[id]; ok {
		return def, true
	}
	def, ok := d.tokens[id]
	return def, ok
}

// rollContext is what triggers and conditions see for a set of dice.
func rollContext(dice []Die, phase string) ability.Context {
	return ability.Context{
		Values: diceValues(dice),
		Faces:  diceFaces(dice),
		Phase:  phase,
	}
}
