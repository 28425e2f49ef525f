package scanx

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a Scanner unwraps to one of these.
var (
	ErrEndOfInput      = errors.New("end of input")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrExpectedDigit   = errors.New("expected digit")
	ErrNoMatch         = errors.New("no match")
	ErrOverflow        = errors.New("numeric overflow")
)

// Error describes a failed scanner operation. The scanner state is left
// exactly as it was before the call.
type Error struct {
	Kind error
	// Target is the text an exact match or search was looking for.
	Target string
	// Consumed is the number of scalars consumed from the start of the
	// source up to the point the failure was detected.
	Consumed int
	// Offset is the byte offset matching Consumed.
	Offset int
}

func (e *Error) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("scanx: %s %q after %d scalars", e.Kind, e.Target, e.Consumed)
	}

	return fmt.Sprintf("scanx: %s after %d scalars", e.Kind, e.Consumed)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Pos returns the byte offset the error refers to.
func (e *Error) Pos() int {
	return e.Offset
}

func newError(kind error, target string, c cursor) *Error {
	return &Error{
		Kind:     kind,
		Target:   target,
		Consumed: c.base + c.delta,
		Offset:   c.pos,
	}
}
