package progression

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification. Every *Error unwraps to one of these.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnknownKind      = errors.New("unknown model kind")
)

// ErrorKind is a coarse-grained categorization for engine errors.
type ErrorKind string

const (
	KindInvalidParameter ErrorKind = "invalid_parameter"
	KindInvalidInput     ErrorKind = "invalid_input"
	KindUnknownModel     ErrorKind = "unknown_model_kind"
)

// Error describes a rejected parameter, argument or model tag.
type Error struct {
	Kind  ErrorKind
	Field string // target_mileage, starting_mileage, a_parameter, b_parameter, week, model_type
	Msg   string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case KindInvalidParameter:
		return ErrInvalidParameter
	case KindInvalidInput:
		return ErrInvalidInput
	case KindUnknownModel:
		return ErrUnknownKind
	}
	return nil
}

// IsKind reports whether err (or anything it wraps) is an engine error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func invalidParameter(field, format string, args ...any) error {
	return &Error{Kind: KindInvalidParameter, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func invalidInput(field, format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Field: field, Msg: fmt.Sprintf(format, args...)}
}
