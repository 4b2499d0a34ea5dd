package dicethrone

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/deathcats4/BoardGame-sub001/internal/ability"
	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
	"github.com/deathcats4/BoardGame-sub001/internal/systems"
)

// SetupOptions picks heroes per player. Unlisted players get heroes in
// catalog order by seat.
type SetupOptions struct {
	Heroes map[string]string `json:"heroes,omitempty"`
}

func (d *Domain) Setup(playerIDs []game.PlayerID, random game.Random, options json.RawMessage) (Core, error) {
	if len(playerIDs) != 2 {
		return Core{}, fmt.Errorf("dice combat needs exactly 2 players, got %d", len(playerIDs))
	}
	opts, err := game.DecodePayload[SetupOptions](options)
	if err != nil {
		return Core{}, err
	}
	core := Core{
		Players:      make(map[string]PlayerState, len(playerIDs)),
		TurnOrder:    slices.Clone(playerIDs),
		ActivePlayer: playerIDs[0],
		TurnNumber:   1,
		Dice:         newDice(),
	}
	for i, id := range playerIDs {
		heroID := opts.Heroes[id]
		if heroID == "" {
			heroID = d.heroOrder[i%len(d.heroOrder)]
		}
		h, ok := d.heroes[heroID]
		if !ok {
			return Core{}, fmt.Errorf("unknown hero %q", heroID)
		}
		deck := slices.Clone(h.Deck)
		random.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
		n := min(StartingHand, len(deck))
		core.Players[id] = PlayerState{
			ID:      id,
			HeroID:  h.ID,
			HP:      h.HP,
			MaxHP:   h.HP,
			CP:      StartingCP,
			Hand:    slices.Clone(deck[:n]),
			Deck:    slices.Clone(deck[n:]),
			Discard: []string{},
		}
	}
	return core, nil
}

func (d *Domain) Validate(state game.MatchState[Core], cmd game.Command) error {
	core := state.Core
	phase := state.Sys.Phase.Current
	ps, seated := core.Players[cmd.PlayerID]
	if !seated {
		return engine.Reject(engine.CodeUnauthorized, "player is not seated")
	}

	switch cmd.Type {
	case CommandRollDice:
		if err := d.checkRoller(core, phase, cmd.PlayerID); err != nil {
			return err
		}
		if core.RollsLeft <= 0 {
			return engine.Reject(engine.CodeInsufficient, "no rolls left")
		}
		if core.RollConfirmed {
			return engine.Reject(engine.CodeInvalid, "roll already confirmed")
		}
		return nil

	case CommandToggleDieLock:
		p, err := game.DecodePayload[DiePayload](cmd.Payload)
		if err != nil {
			return engine.Reject(engine.CodeInvalid, err.Error())
		}
		if err := d.checkRolled(core, phase, cmd.PlayerID); err != nil {
			return err
		}
		if p.DieID < 0 || p.DieID >= len(core.Dice) {
			return engine.Rejectf(engine.CodeInvalidTarget, "no die %d", p.DieID)
		}
		return nil

	case CommandConfirmRoll:
		return d.checkRolled(core, phase, cmd.PlayerID)

	case CommandSelectAbility:
		p, err := game.DecodePayload[SelectAbilityPayload](cmd.Payload)
		if err != nil {
			return engine.Reject(engine.CodeInvalid, err.Error())
		}
		if phase != PhaseOffensiveRoll {
			return engine.Reject(engine.CodeWrongPhase, "abilities are selected in the offensive roll")
		}
		if cmd.PlayerID != core.ActivePlayer {
			return engine.Reject(engine.CodeNotYourTurn, "not your turn")
		}
		if !core.RollConfirmed {
			return engine.Reject(engine.CodeInvalid, "confirm the roll first")
		}
		if core.PendingAttack != nil {
			return engine.Reject(engine.CodeInvalid, "an attack is already declared")
		}
		_, _, err = d.selectAbility(core, cmd.PlayerID, p.AbilityID)
		return err

	case CommandPlayCard:
		p, err := game.DecodePayload[CardCommandPayload](cmd.Payload)
		if err != nil {
			return engine.Reject(engine.CodeInvalid, err.Error())
		}
		return d.checkPlayable(state, ps, p.CardID)

	case CommandSellCard:
		p, err := game.DecodePayload[CardCommandPayload](cmd.Payload)
		if err != nil {
			return engine.Reject(engine.CodeInvalid, err.Error())
		}
		if cmd.PlayerID != core.ActivePlayer {
			return engine.Reject(engine.CodeNotYourTurn, "not your turn")
		}
		if phase != PhaseMain1 && phase != PhaseMain2 && phase != PhaseDiscard {
			return engine.Reject(engine.CodeWrongPhase, "cards are sold in a main or discard phase")
		}
		if !slices.Contains(ps.Hand, p.CardID) {
			return engine.Rejectf(engine.CodeInvalidTarget, "card %q is not in hand", p.CardID)
		}
		return nil
	}
	return engine.Rejectf(engine.CodeUnknownCommand, "unknown command %s", cmd.Type)
}

func (d *Domain) checkRoller(core Core, phase, playerID string) error {
	if phase != PhaseOffensiveRoll && phase != PhaseDefensiveRoll {
		return engine.Reject(engine.CodeWrongPhase, "not a roll phase")
	}
	if playerID != core.RollerID {
		return engine.Reject(engine.CodeNotYourTurn, "not your roll")
	}
	if phase == PhaseOffensiveRoll && core.PendingAttack != nil {
		return engine.Reject(engine.CodeInvalid, "an attack is already declared")
	}
	return nil
}

func (d *Domain) checkRolled(core Core, phase, playerID string) error {
	if err := d.checkRoller(core, phase, playerID); err != nil {
		return err
	}
	if core.RollCount == 0 {
		return engine.Reject(engine.CodeInvalid, "roll first")
	}
	if core.RollConfirmed {
		return engine.Reject(engine.CodeInvalid, "roll already confirmed")
	}
	return nil
}

func (d *Domain) selectAbility(core Core, playerID, abilityID string) (ability.AbilityDef, ability.Selected, error) {
	def, ok := d.heroOf(core, playerID).ability(abilityID)
	if !ok {
		return ability.AbilityDef{}, ability.Selected{}, engine.Rejectf(engine.CodeInvalidTarget, "unknown ability %q", abilityID)
	}
	if def.Kind != ability.Offensive {
		return ability.AbilityDef{}, ability.Selected{}, engine.Rejectf(engine.CodeInvalidTarget, "%s is not an attack", abilityID)
	}
	sel, ok := d.resolver.SelectVariant(def, rollContext(core.Dice, PhaseOffensiveRoll))
	if !ok {
		return ability.AbilityDef{}, ability.Selected{}, engine.Rejectf(engine.CodeInvalid, "the dice do not trigger %s", abilityID)
	}
	return def, sel, nil
}

func (d *Domain) checkPlayable(state game.MatchState[Core], ps PlayerState, cardID string) error {
	core := state.Core
	phase := state.Sys.Phase.Current
	c, ok := d.cards[cardID]
	if !ok || !slices.Contains(ps.Hand, cardID) {
		return engine.Rejectf(engine.CodeInvalidTarget, "card %q is not in hand", cardID)
	}
	if ps.CP < c.Cost {
		return engine.Rejectf(engine.CodeInsufficient, "%s costs %d CP", cardID, c.Cost)
	}
	switch c.Timing {
	case TimingMain:
		if ps.ID != core.ActivePlayer {
			return engine.Reject(engine.CodeNotYourTurn, "main phase cards are played on your turn")
		}
		if phase != PhaseMain1 && phase != PhaseMain2 {
			return engine.Reject(engine.CodeWrongPhase, "main phase cards are played in a main phase")
		}
	case TimingRoll:
		if phase != PhaseOffensiveRoll && phase != PhaseDefensiveRoll {
			return engine.Reject(engine.CodeWrongPhase, "roll cards are played in a roll phase")
		}
		if core.RollCount == 0 {
			return engine.Reject(engine.CodeInvalid, "no dice rolled yet")
		}
	}
	if c.Interaction == KindCleanse && len(d.debuffsOf(ps)) == 0 {
		return engine.Reject(engine.CodeInvalid, "nothing to cleanse")
	}
	return nil
}

func (d *Domain) debuffsOf(ps PlayerState) map[string]int {
	out := map[string]int{}
	for id, n := range ps.Statuses {
		if d.isDebuff(id) && n > 0 {
			out[id] = n
		}
	}
	return out
}

func (d *Domain) Execute(state game.MatchState[Core], cmd game.Command, random game.Random) ([]game.Event, error) {
	b := d.newBuilder(state, random)
	core := state.Core

	switch cmd.Type {
	case CommandRollDice:
		h := d.heroOf(core, cmd.PlayerID)
		dice := slices.Clone(core.Dice)
		for i := range dice {
			if dice[i].Locked {
				continue
			}
			dice[i].Value = random.D(6)
			dice[i].Face = h.Face(dice[i].Value)
		}
		b.emit(EventDiceRolled, DiceRolledPayload{PlayerID: cmd.PlayerID, Dice: dice})

	case CommandToggleDieLock:
		p, err := game.DecodePayload[DiePayload](cmd.Payload)
		if err != nil {
			return nil, err
		}
		b.emit(EventDieLockToggled, DieLockPayload{PlayerID: cmd.PlayerID, DieID: p.DieID, Locked: !core.Dice[p.DieID].Locked})

	case CommandConfirmRoll:
		b.emit(EventRollConfirmed, RollConfirmedPayload{PlayerID: cmd.PlayerID})

	case CommandSelectAbility:
		p, err := game.DecodePayload[SelectAbilityPayload](cmd.Payload)
		if err != nil {
			return nil, err
		}
		def, sel, err := d.selectAbility(core, cmd.PlayerID, p.AbilityID)
		if err != nil {
			return nil, err
		}
		b.emit(EventAttackDeclared, AttackDeclaredPayload{Attack: PendingAttack{
			ID:              game.NewID("attack", state.Sys.Seq, cmd.PlayerID, def.ID),
			AttackerID:      cmd.PlayerID,
			DefenderID:      core.Opponent(cmd.PlayerID),
			SourceAbilityID: def.ID,
			VariantID:       sel.VariantID,
			IsUltimate:      def.IsUltimate,
			IsDefendable:    !def.Unblockable && !def.IsUltimate,
			Stage:           StageDeclared,
			Roll:            slices.Clone(core.Dice),
		}})

	case CommandPlayCard:
		p, err := game.DecodePayload[CardCommandPayload](cmd.Payload)
		if err != nil {
			return nil, err
		}
		b.playCard(cmd.PlayerID, d.cards[p.CardID])

	case CommandSellCard:
		p, err := game.DecodePayload[CardCommandPayload](cmd.Payload)
		if err != nil {
			return nil, err
		}
		b.emit(EventCardSold, CardPayload{PlayerID: cmd.PlayerID, CardID: p.CardID})
	}
	return b.result()
}

// playCard pays for and resolves a card. Cards that need a choice open an
// interaction carrying what a refund needs.
func (b *builder) playCard(playerID string, c card) {
	b.emit(EventCardPlayed, CardPayload{PlayerID: playerID, CardID: c.ID, Cost: c.Cost})
	b.runner(playerID, c.ID, false).run(c.Actions...)

	seq := b.state.Sys.Seq
	switch c.Interaction {
	case KindCleanse:
		data, _ := json.Marshal(CardInteractionData{
			CardID:   c.ID,
			Cost:     c.Cost,
			Statuses: b.d.debuffsOf(b.core().Players[playerID]),
		})
		b.raw(systems.RequestInteraction(game.InteractionDescriptor{
			ID:       game.NewID(KindCleanse, seq, playerID),
			Kind:     KindCleanse,
			PlayerID: playerID,
			Data:     data,
		}))
	case KindModifyDice:
		data, _ := json.Marshal(CardInteractionData{CardID: c.ID, Cost: c.Cost, Dice: b.core().Dice})
		b.raw(systems.RequestInteraction(game.InteractionDescriptor{
			ID:       game.NewID(KindModifyDice, seq, playerID),
			Kind:     KindModifyDice,
			PlayerID: playerID,
			Data:     data,
			Progress: &game.StepProgress{Reducer: KindModifyDice, MaxSteps: 2},
		}))
	}
}

// IsGameOver ends the match once a hero falls. Both falling together is a draw.
func (d *Domain) IsGameOver(core Core) (game.Outcome, bool) {
	var alive []game.PlayerID
	for _, id := range core.TurnOrder {
		if core.Players[id].HP > 0 {
			alive = append(alive, id)
		}
	}
	switch len(alive) {
	case len(core.TurnOrder):
		return game.Outcome{}, false
	case 0:
		return game.Outcome{Draw: true}, true
	}
	return game.Outcome{Winners: alive}, true
}
