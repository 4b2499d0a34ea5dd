package game

import "encoding/json"

// MatchState is the full state of one match: the game-owned core plus the
// per-system slices.
type MatchState[C any] struct {
	Core C        `json:"core"`
	Sys  SysState `json:"sys"`
}

// SysState is partitioned by system. Each slice is written only by the fold of
// the system that owns it; Seq and GameOver belong to the engine.
type SysState struct {
	Seq            uint64              `json:"seq"`
	GameOver       *Outcome            `json:"gameOver,omitempty"`
	Phase          PhaseState          `json:"phase"`
	Interaction    InteractionState    `json:"interaction"`
	ResponseWindow ResponseWindowState `json:"responseWindow"`
	Undo           UndoState           `json:"undo"`
	Log            LogState            `json:"log"`
	Rematch        RematchState        `json:"rematch"`
	Tutorial       TutorialState       `json:"tutorial"`
}

// PhaseState tracks the flow state machine.
type PhaseState struct {
	Current string           `json:"current"`
	Pending *PhaseTransition `json:"pending,omitempty"`
}

// PhaseTransition is a transition that has exited its source phase but has
// not yet entered its target.
type PhaseTransition struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// InteractionDescriptor is a blocking request for one player to choose.
type InteractionDescriptor struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	PlayerID PlayerID        `json:"playerId"`
	Data     json.RawMessage `json:"data,omitempty"`
	Progress *StepProgress   `json:"progress,omitempty"`
}

// StepProgress accumulates a multistep interaction's partial result.
type StepProgress struct {
	Reducer   string          `json:"reducer"`
	MaxSteps  int             `json:"maxSteps"`
	Result    json.RawMessage `json:"result,omitempty"`
	Completed int             `json:"completed"`
}

// InteractionState holds at most one active interaction and a FIFO queue.
type InteractionState struct {
	Current *InteractionDescriptor  `json:"current,omitempty"`
	Queue   []InteractionDescriptor `json:"queue,omitempty"`
}

// ResponseWindow is an open reactive window for non-acting players.
type ResponseWindow struct {
	ID                    string     `json:"id"`
	WindowType            string     `json:"windowType"`
	SourceEventID         string     `json:"sourceEventId"`
	ActingPlayerID        PlayerID   `json:"actingPlayerId"`
	ResponderQueue        []PlayerID `json:"responderQueue"`
	CurrentResponderIndex int        `json:"currentResponderIndex"`
}

// CurrentResponder returns the player allowed to act in the window.
func (w ResponseWindow) CurrentResponder() PlayerID {
	if w.CurrentResponderIndex < 0 || w.CurrentResponderIndex >= len(w.ResponderQueue) {
		return ""
	}
	return w.ResponderQueue[w.CurrentResponderIndex]
}

// ResponseWindowState holds the open window, if any.
type ResponseWindowState struct {
	Current *ResponseWindow `json:"current,omitempty"`
}

// UndoSnapshot is a pre-command copy of core and non-undo system slices.
type UndoSnapshot struct {
	Seq         uint64          `json:"seq"`
	CommandType string          `json:"commandType"`
	PlayerID    PlayerID        `json:"playerId"`
	Core        json.RawMessage `json:"core"`
	Sys         json.RawMessage `json:"sys"`
}

// UndoRequest is a pending undo awaiting approval.
type UndoRequest struct {
	PlayerID PlayerID `json:"playerId"`
	Seq      uint64   `json:"seq"`
}

// UndoState holds snapshots (oldest first) and any pending request.
type UndoState struct {
	Snapshots []UndoSnapshot `json:"snapshots,omitempty"`
	Request   *UndoRequest   `json:"request,omitempty"`
}

// ActionLogEntry is one public event recorded for the match log.
type ActionLogEntry struct {
	Seq               uint64          `json:"seq"`
	Type              string          `json:"type"`
	SourceCommandType string          `json:"sourceCommandType,omitempty"`
	Timestamp         int64           `json:"timestamp"`
	Payload           json.RawMessage `json:"payload,omitempty"`
}

// LogState is the bounded public action log.
type LogState struct {
	Entries []ActionLogEntry `json:"entries,omitempty"`
}

// RematchState tracks rematch votes after a match ends.
type RematchState struct {
	Votes map[PlayerID]bool `json:"votes,omitempty"`
	Ready bool              `json:"ready,omitempty"`
}

// TutorialState tracks a scripted tutorial run.
type TutorialState struct {
	ID        string `json:"id,omitempty"`
	Active    bool   `json:"active,omitempty"`
	Step      int    `json:"step,omitempty"`
	Completed bool   `json:"completed,omitempty"`
}
