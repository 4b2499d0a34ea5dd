package dicethrone

// Event types. These strings are a wire contract.
const (
	EventDiceRolled       = "DICE_ROLLED"
	EventDieLockToggled   = "DIE_LOCK_TOGGLED"
	EventRollConfirmed    = "ROLL_CONFIRMED"
	EventRollPhaseStarted = "ROLL_PHASE_STARTED"
	EventDiceModified     = "DICE_MODIFIED"
	EventBonusDieRolled   = "BONUS_DIE_ROLLED"

	EventAttackDeclared     = "ATTACK_DECLARED"
	EventAttackStageChanged = "ATTACK_STAGE_CHANGED"
	EventPreDefenseResolved = "PRE_DEFENSE_RESOLVED"
	EventDefenseSelected    = "DEFENSE_SELECTED"
	EventAttackDamageAdded  = "ATTACK_DAMAGE_ADDED"
	EventAttackDamageSet    = "ATTACK_DAMAGE_SET"
	EventAttackResolved     = "ATTACK_RESOLVED"
	EventDamageDealt        = "DAMAGE_DEALT"
	EventHealed             = "HEALED"
	EventHPSet              = "HP_SET"
	EventStatusGranted      = "STATUS_GRANTED"
	EventStatusRemoved      = "STATUS_REMOVED"
	EventStatusPrevented    = "STATUS_PREVENTED"
	EventTokenGranted       = "TOKEN_GRANTED"
	EventTokenUsed          = "TOKEN_USED"
	EventCPChanged          = "CP_CHANGED"
	EventShieldGranted      = "SHIELD_GRANTED"
	EventPhaseSkipped       = "PHASE_SKIPPED"
	EventCardDrawn          = "CARD_DRAWN"
	EventDeckShuffled       = "DECK_SHUFFLED"
	EventCardPlayed         = "CARD_PLAYED"
	EventCardSold           = "CARD_SOLD"
	EventCardReturned       = "CARD_RETURNED"
	EventTurnEnded          = "TURN_ENDED"
)

// DiceRolledPayload carries every die after a roll.
type DiceRolledPayload struct {
	PlayerID string `json:"playerId"`
	Dice     []Die  `json:"dice"`
}

type DieLockPayload struct {
	PlayerID string `json:"playerId"`
	DieID    int    `json:"dieId"`
	Locked   bool   `json:"locked"`
}

type RollConfirmedPayload struct {
	PlayerID string `json:"playerId"`
}

// RollPhaseStartedPayload resets the dice for a new roller.
type RollPhaseStartedPayload struct {
	RollerID string `json:"rollerId"`
	Rolls    int    `json:"rolls"`
}

type DiceModifiedPayload struct {
	PlayerID string `json:"playerId"`
	Dice     []Die  `json:"dice"`
}

type BonusDieRolledPayload struct {
	PlayerID string `json:"playerId"`
	Value    int    `json:"value"`
	Face     string `json:"face"`
	Bonus    int    `json:"bonus"`
}

type AttackDeclaredPayload struct {
	Attack PendingAttack `json:"attack"`
}

type AttackStagePayload struct {
	Stage string `json:"stage"`
}

type DefenseSelectedPayload struct {
	DefenderID string `json:"defenderId"`
	AbilityID  string `json:"abilityId"`
	VariantID  string `json:"variantId,omitempty"`
}

// AttackDamagePayload adds to (ADDED) or replaces (SET) the pending damage.
type AttackDamagePayload struct {
	Amount int  `json:"amount"`
	Bonus  bool `json:"bonus,omitempty"`
}

type AttackResolvedPayload struct {
	AttackerID      string `json:"attackerId"`
	DefenderID      string `json:"defenderId"`
	SourceAbilityID string `json:"sourceAbilityId"`
	Damage          int    `json:"damage"`
	ResolvedDamage  int    `json:"resolvedDamage"`
}

// DamageDealtPayload records one damage application. Amount is the incoming
// damage, Dealt the HP actually lost to it, and ShieldsConsumed the audit
// trail in absorption order.
type DamageDealtPayload struct {
	TargetID        string           `json:"targetId"`
	SourceID        string           `json:"sourceId"`
	Amount          int              `json:"amount"`
	Dealt           int              `json:"dealt"`
	Attack          bool             `json:"attack,omitempty"`
	ShieldsConsumed []ShieldConsumed `json:"shieldsConsumed,omitempty"`
}

type HealedPayload struct {
	PlayerID string `json:"playerId"`
	Amount   int    `json:"amount"`
}

type HPSetPayload struct {
	PlayerID string `json:"playerId"`
	HP       int    `json:"hp"`
}

// StatusPayload is shared by status and token grants and removals.
type StatusPayload struct {
	PlayerID string `json:"playerId"`
	ID       string `json:"id"`
	Stacks   int    `json:"stacks"`
	SourceID string `json:"sourceId,omitempty"`
}

type CPChangedPayload struct {
	PlayerID string `json:"playerId"`
	Delta    int    `json:"delta"`
	Value    int    `json:"value"`
}

type ShieldGrantedPayload struct {
	PlayerID string       `json:"playerId"`
	Shield   DamageShield `json:"shield"`
}

type PhaseSkippedPayload struct {
	PlayerID string `json:"playerId"`
	SourceID string `json:"sourceId"`
}

type CardDrawnPayload struct {
	PlayerID string `json:"playerId"`
	Count    int    `json:"count"`
}

// DeckShuffledPayload replaces the deck with the shuffled discard pile.
// Order never leaves the match; viewers only get Count.
type DeckShuffledPayload struct {
	PlayerID string   `json:"playerId"`
	Count    int      `json:"count"`
	Order    []string `json:"order,omitempty"`
}

type CardPayload struct {
	PlayerID string `json:"playerId"`
	CardID   string `json:"cardId"`
	Cost     int    `json:"cost,omitempty"`
}

type TurnEndedPayload struct {
	PlayerID string `json:"playerId"`
	Next     string `json:"next"`
}
