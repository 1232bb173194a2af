package mutation

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskboard/internal/client/backend"
	"github.com/dmitrijs2005/taskboard/internal/common"
)

// Kind classifies a failed mutation for the caller.
type Kind string

const (
	KindNotAuthenticated Kind = "not_authenticated"
	KindInvalid          Kind = "invalid"
	KindConflict         Kind = "conflict"
	KindFailed           Kind = "failed"
)

const conflictMessage = "a board with this name already exists"

// Error is returned by every failed mutation. Message is suitable for the
// user; Err is the cause.
type Error struct {
	Op      string
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify wraps err into an *Error for op. An *Error is returned unchanged.
func Classify(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var me *Error
	if errors.As(err, &me) {
		return me
	}

	switch {
	case errors.Is(err, common.ErrNotAuthenticated), errors.Is(err, backend.ErrUnauthorized):
		return &Error{Op: op, Kind: KindNotAuthenticated, Message: "you are not signed in", Err: err}
	case errors.Is(err, common.ErrInvalidInput):
		return &Error{Op: op, Kind: KindInvalid, Message: "invalid input", Err: err}
	case errors.Is(err, backend.ErrConflict):
		return &Error{Op: op, Kind: KindConflict, Message: conflictMessage, Err: err}
	default:
		return &Error{Op: op, Kind: KindFailed, Message: "failed to " + op + ", please try again", Err: err}
	}
}

// KindOf returns the kind of a mutation error, or "" if err is not one.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}

// UserMessage returns the user-facing text for err.
func UserMessage(err error) string {
	var me *Error
	if errors.As(err, &me) {
		return me.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
