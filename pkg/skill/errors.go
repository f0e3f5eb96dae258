package skill

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a failure reported to the host
type ErrorKind int

const (
	// InvalidInput means the input bytes did not decode into the skill's input type
	InvalidInput ErrorKind = iota + 1
	// Internal covers everything else: failure returned by the skill, a panic,
	// an output that could not be encoded or a missing host
	Internal
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case Internal:
		return "internal error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the only error type that crosses the skill boundary
type Error struct {
	Kind   ErrorKind
	Reason string
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Reason
}

func invalidInput(err error) *Error {
	return &Error{Kind: InvalidInput, Reason: err.Error()}
}

func internal(reason string) *Error {
	return &Error{Kind: Internal, Reason: reason}
}

// IsInvalidInput reports whether err is, or wraps, an InvalidInput Error
func IsInvalidInput(err error) bool {
	return hasKind(err, InvalidInput)
}

// IsInternal reports whether err is, or wraps, an Internal Error
func IsInternal(err error) bool {
	return hasKind(err, Internal)
}

func hasKind(err error, kind ErrorKind) bool {
	var skillErr *Error
	return errors.As(err, &skillErr) && skillErr.Kind == kind
}
