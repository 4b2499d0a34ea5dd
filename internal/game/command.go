package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PlayerID identifies a seated player.
type PlayerID = string

// SystemPlayerID is used for commands issued by the host rather than a player
// (for example interaction expiry driven by a wall-clock policy).
const SystemPlayerID PlayerID = "system"

var (
	// ErrCommandTypeRequired indicates a command without a type.
	ErrCommandTypeRequired = errors.New("command type is required")
	// ErrPlayerIDRequired indicates a command without a player id.
	ErrPlayerIDRequired = errors.New("command player id is required")
	// ErrPayloadInvalid indicates a payload that is not valid JSON.
	ErrPayloadInvalid = errors.New("payload json must be valid")
)

// Command is one player's declared intent.
type Command struct {
	Type      string          `json:"type"`
	PlayerID  PlayerID        `json:"playerId"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// NewCommand builds a command, marshalling payload when it is not already raw JSON.
func NewCommand(cmdType string, playerID PlayerID, payload any) (Command, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return Command{}, fmt.Errorf("marshal %s payload: %w", cmdType, err)
	}
	return Command{Type: cmdType, PlayerID: playerID, Payload: raw}, nil
}

// CheckShape reports malformed commands. A malformed command is a programming
// defect in the caller, not a rules violation.
func (c Command) CheckShape() error {
	if strings.TrimSpace(c.Type) == "" {
		return ErrCommandTypeRequired
	}
	if strings.TrimSpace(c.PlayerID) == "" {
		return ErrPlayerIDRequired
	}
	if len(c.Payload) > 0 && !json.Valid(c.Payload) {
		return ErrPayloadInvalid
	}
	return nil
}

// DecodePayload unmarshals a raw payload into T. An empty payload yields the zero value.
func DecodePayload[T any](raw json.RawMessage) (T, error) {
	var payload T
	if len(raw) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("invalid payload format: %w", err)
	}
	return payload, nil
}

func marshalPayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	default:
		return json.Marshal(p)
	}
}
