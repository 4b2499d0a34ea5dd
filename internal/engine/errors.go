package engine

import (
	"errors"
	"fmt"
)

// ErrInvariant marks fatal errors: malformed commands, reducers that do not
// know an event, runaway continuations. These are programming defects.
var ErrInvariant = errors.New("engine invariant violated")

// Rejection codes shared by the engine and systems.
const (
	CodeInvalid        = "invalid"
	CodeGameOver       = "game_over"
	CodeUnauthorized   = "unauthorized"
	CodeBlocked        = "blocked"
	CodeWrongPhase     = "wrong_phase"
	CodeNotYourTurn    = "not_your_turn"
	CodeInsufficient   = "insufficient_resource"
	CodeInvalidTarget  = "invalid_target"
	CodeUnknownCommand = "unknown_command"
	CodeDisabled       = "disabled"
)

// Rejection is a recoverable validation error or system halt. It never
// mutates state; the caller may retry with a corrected command.
type Rejection struct {
	Code    string
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

// Reject builds a rejection.
func Reject(code, message string) *Rejection {
	return &Rejection{Code: code, Message: message}
}

// Rejectf builds a rejection with a formatted message.
func Rejectf(code, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsRejection returns the rejection carried by err, if any.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// Invariantf wraps ErrInvariant with context.
func Invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
