package game

import "encoding/json"

// Event types emitted by engine systems. These strings are a wire contract.
const (
	EventGameOver = "SYS_GAME_OVER"

	EventPhaseExiting = "SYS_PHASE_EXITING"
	EventPhaseChanged = "SYS_PHASE_CHANGED"
	EventPhaseEntered = "SYS_PHASE_ENTERED"

	EventInteractionRequested = "SYS_INTERACTION_REQUESTED"
	EventInteractionResolved  = "SYS_INTERACTION_RESOLVED"
	EventInteractionCancelled = "SYS_INTERACTION_CANCELLED"
	EventInteractionExpired   = "SYS_INTERACTION_EXPIRED"
	EventInteractionStepped   = "SYS_INTERACTION_STEPPED"
	EventInteractionConfirmed = "SYS_INTERACTION_CONFIRMED"

	EventResponseWindowOpened = "SYS_RESPONSE_WINDOW_OPENED"
	EventResponseWindowPassed = "SYS_RESPONSE_WINDOW_PASSED"
	EventResponseWindowClosed = "SYS_RESPONSE_WINDOW_CLOSED"

	EventUndoSnapshot  = "SYS_UNDO_SNAPSHOT"
	EventUndoRequested = "SYS_UNDO_REQUESTED"
	EventUndoRejected  = "SYS_UNDO_REJECTED"
	EventUndoCancelled = "SYS_UNDO_CANCELLED"
	EventUndoRestored  = "SYS_UNDO_RESTORED"
	// EventUndoDiscarded drops the snapshot of a command that drew randomness.
	EventUndoDiscarded = "SYS_UNDO_DISCARDED"

	EventRematchVoted = "SYS_REMATCH_VOTED"
	EventRematchReady = "SYS_REMATCH_READY"

	EventTutorialStarted      = "SYS_TUTORIAL_STARTED"
	EventTutorialStepAdvanced = "SYS_TUTORIAL_STEP_ADVANCED"
	EventTutorialCompleted    = "SYS_TUTORIAL_COMPLETED"
	EventTutorialSkipped      = "SYS_TUTORIAL_SKIPPED"

	EventCheatUsed = "SYS_CHEAT_USED"
)

// GameOverPayload accompanies SYS_GAME_OVER.
type GameOverPayload struct {
	Outcome Outcome `json:"outcome"`
}

// PhasePayload accompanies SYS_PHASE_EXITING and SYS_PHASE_CHANGED.
type PhasePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PhaseEnteredPayload accompanies SYS_PHASE_ENTERED.
type PhaseEnteredPayload struct {
	Phase string `json:"phase"`
}

// InteractionPayload carries the descriptor an interaction event refers to.
// Value is the responder's choice (RESOLVED) or the confirmed result (CONFIRMED).
type InteractionPayload struct {
	Interaction InteractionDescriptor `json:"interaction"`
	Value       json.RawMessage       `json:"value,omitempty"`
}

// InteractionSteppedPayload accompanies SYS_INTERACTION_STEPPED.
type InteractionSteppedPayload struct {
	InteractionID string          `json:"interactionId"`
	Step          json.RawMessage `json:"step"`
	Result        json.RawMessage `json:"result"`
	Completed     int             `json:"completed"`
}

// ResponseWindowOpenedPayload accompanies SYS_RESPONSE_WINDOW_OPENED.
type ResponseWindowOpenedPayload struct {
	Window ResponseWindow `json:"window"`
}

// ResponseWindowPassedPayload accompanies SYS_RESPONSE_WINDOW_PASSED.
type ResponseWindowPassedPayload struct {
	WindowID string   `json:"windowId"`
	PlayerID PlayerID `json:"playerId"`
	Auto     bool     `json:"auto,omitempty"`
}

// ResponseWindowClosedPayload accompanies SYS_RESPONSE_WINDOW_CLOSED.
type ResponseWindowClosedPayload struct {
	WindowID      string `json:"windowId"`
	WindowType    string `json:"windowType"`
	SourceEventID string `json:"sourceEventId"`
}

// UndoSnapshotPayload accompanies SYS_UNDO_SNAPSHOT and SYS_UNDO_RESTORED.
type UndoSnapshotPayload struct {
	Snapshot UndoSnapshot `json:"snapshot"`
}

// UndoRequestPayload accompanies undo request bookkeeping events.
type UndoRequestPayload struct {
	PlayerID PlayerID `json:"playerId"`
}

// RematchVotedPayload accompanies SYS_REMATCH_VOTED.
type RematchVotedPayload struct {
	PlayerID PlayerID `json:"playerId"`
	Ready    bool     `json:"ready"`
}

// TutorialPayload accompanies tutorial events.
type TutorialPayload struct {
	TutorialID string `json:"tutorialId"`
	Step       int    `json:"step"`
}

// CheatUsedPayload accompanies SYS_CHEAT_USED.
type CheatUsedPayload struct {
	PlayerID PlayerID `json:"playerId"`
	Action   string   `json:"action"`
}
