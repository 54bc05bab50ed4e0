package desk

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an operation is not allowed in the current state.
var ErrInvalidTransition = errors.New("desk: invalid transition")

// Kind classifies the failures surfaced to the user.
type Kind int

const (
	KindRetrieval Kind = iota + 1
	KindGeneration
	KindSubmission
)

func (k Kind) String() string {
	switch k {
	case KindRetrieval:
		return "RetrievalError"
	case KindGeneration:
		return "GenerationError"
	case KindSubmission:
		return "SubmissionError"
	default:
		return "Error"
	}
}

// Message is the banner text shown for the kind.
func (k Kind) Message() string {
	switch k {
	case KindRetrieval:
		return "Failed to fetch disputes"
	case KindGeneration:
		return "Failed to generate AI response"
	case KindSubmission:
		return "Failed to submit response"
	default:
		return "Something went wrong"
	}
}

// Error is the single error value shown in the banner.
type Error struct {
	Kind Kind
	Err  error
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	return e.Kind.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail includes the underlying cause, for logs and the banner's second line.
func (e *Error) Detail() string {
	if e.Err == nil {
		return e.Kind.Message()
	}
	return fmt.Sprintf("%s: %v", e.Kind.Message(), e.Err)
}

// IsKind reports whether err is a desk Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	return errors.As(err, &target) && target.Kind == kind
}
