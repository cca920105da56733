package normalize

import (
	"errors"
	"fmt"
)

// ErrorKind classifies normalization failures. All kinds are permanent:
// retrying the same payload cannot succeed.
type ErrorKind int

const (
	// MissingRequiredField means no candidate raw field could populate a
	// required canonical field (market id or name).
	MissingRequiredField ErrorKind = iota

	// InvalidType means a raw field was present but carried a value of the
	// wrong type or an out-of-range value.
	InvalidType

	// UnknownExchange means the exchange tag is not registered.
	UnknownExchange
)

func (k ErrorKind) String() string {
	switch k {
	case MissingRequiredField:
		return "missing_required_field"
	case InvalidType:
		return "invalid_type"
	case UnknownExchange:
		return "unknown_exchange"
	default:
		return "unknown"
	}
}

// Error is a typed normalization failure.
type Error struct {
	Kind     ErrorKind
	Exchange string
	Field    string // canonical field involved, if any
	Detail   string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("normalize %s: %s", e.Exchange, e.Kind)
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// KindOf returns the error kind and true if err is a normalization error.
func KindOf(err error) (ErrorKind, bool) {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.Kind, true
	}
	return 0, false
}
