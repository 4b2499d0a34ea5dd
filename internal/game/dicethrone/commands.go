package dicethrone

// Command types.
const (
	CommandRollDice      = "ROLL_DICE"
	CommandToggleDieLock = "TOGGLE_DIE_LOCK"
	CommandConfirmRoll   = "CONFIRM_ROLL"
	CommandSelectAbility = "SELECT_ABILITY"
	CommandPlayCard      = "PLAY_CARD"
	CommandSellCard      = "SELL_CARD"
)

type DiePayload struct {
	DieID int `json:"dieId"`
}

type SelectAbilityPayload struct {
	AbilityID string `json:"abilityId"`
}

type CardCommandPayload struct {
	CardID string `json:"cardId"`
}

// Interaction kinds owned by the game.
const (
	KindTokenResponse = "token-response"
	KindCleanse       = "cleanse"
	KindModifyDice    = "modify-dice"
)

// TokenResponseData describes a token-response interaction.
type TokenResponseData struct {
	Damage int            `json:"damage"`
	Tokens map[string]int `json:"tokens"`
}

// TokenResponseValue answers a token-response interaction with the stacks
// of each token to spend.
type TokenResponseValue struct {
	Tokens map[string]int `json:"tokens"`
}

// CardInteractionData is attached to interactions opened by a card so the
// card can be refunded on cancel.
type CardInteractionData struct {
	CardID   string         `json:"cardId"`
	Cost     int            `json:"cost"`
	Statuses map[string]int `json:"statuses,omitempty"`
	Dice     []Die          `json:"dice,omitempty"`
}

// CleanseValue answers a cleanse interaction.
type CleanseValue struct {
	StatusID string `json:"statusId"`
}

// DiceStep is one modify-dice step: set die DieID to Value.
type DiceStep struct {
	DieID int `json:"dieId"`
	Value int `json:"value"`
}

// DiceResult is the accumulated modify-dice result, keyed by die id.
type DiceResult struct {
	Dice map[int]int `json:"dice"`
}
