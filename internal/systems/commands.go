// Package systems holds the cross-cutting pipeline systems. Each owns one
// slice of game.SysState and reacts to commands and events through the
// engine hook interfaces.
package systems

import (
	"encoding/json"

	"github.com/deathcats4/BoardGame-sub001/internal/game"
)

// Commands handled by systems rather than by a game.
const (
	CommandAdvancePhase = "ADVANCE_PHASE"

	CommandRespond = "RESPOND"
	CommandCancel  = "CANCEL"
	CommandStep    = "STEP"
	CommandConfirm = "CONFIRM"
	CommandExpire  = "EXPIRE"

	CommandResponsePass = "RESPONSE_PASS"

	CommandUndoRequest = "UNDO_REQUEST"
	CommandUndoApprove = "UNDO_APPROVE"
	CommandUndoReject  = "UNDO_REJECT"
	CommandUndoCancel  = "UNDO_CANCEL"

	CommandRematchVote = "REMATCH_VOTE"

	CommandTutorialStart = "TUTORIAL_START"
	CommandTutorialSkip  = "TUTORIAL_SKIP"

	CommandCheat = "CHEAT"
)

// RespondPayload answers the current interaction. InteractionID is optional;
// when set it must match the current interaction.
type RespondPayload struct {
	InteractionID string          `json:"interactionId,omitempty"`
	Value         json.RawMessage `json:"value,omitempty"`
}

// StepPayload submits one step of a multistep interaction.
type StepPayload struct {
	InteractionID string          `json:"interactionId,omitempty"`
	Step          json.RawMessage `json:"step"`
}

// RematchVotePayload accompanies REMATCH_VOTE.
type RematchVotePayload struct {
	Ready bool `json:"ready"`
}

// TutorialStartPayload accompanies TUTORIAL_START.
type TutorialStartPayload struct {
	TutorialID string `json:"tutorialId"`
}

// CheatPayload accompanies CHEAT. Params are game-defined.
type CheatPayload struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// RequestInteraction builds the event that queues an interaction.
func RequestInteraction(desc game.InteractionDescriptor) game.Event {
	return game.MustEvent(game.EventInteractionRequested, game.InteractionPayload{Interaction: desc}, 0)
}

func containsEvent(events []game.Event, eventType string) bool {
	for _, evt := range events {
		if evt.Type == eventType {
			return true
		}
	}
	return false
}
