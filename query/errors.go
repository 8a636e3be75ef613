package query

import (
	"errors"
	"fmt"
)

// ErrorKind classifies query failures.
type ErrorKind int

const (
	// KindBadPath indicates the path expression itself failed to parse.
	KindBadPath ErrorKind = iota
	// KindNoSuchField indicates a field-name segment that the current
	// record does not carry. Distinct from a field present but marked
	// absent, which evaluates to a typed null, not an error.
	KindNoSuchField
	// KindIndexOutOfRange indicates an index segment outside the sequence.
	KindIndexOutOfRange
)

func (k ErrorKind) String() string {
	switch k {
	case KindBadPath:
		return "bad path"
	case KindNoSuchField:
		return "no such field"
	case KindIndexOutOfRange:
		return "index out of range"
	default:
		return fmt.Sprintf("query error %d", int(k))
	}
}

// Error is a query failure tied to the offending path segment, so callers
// can report exactly which part of the expression failed.
type Error struct {
	Kind    ErrorKind
	Segment string
	Msg     string
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Segment != "" {
		s += fmt.Sprintf(": %s", e.Segment)
	}
	if e.Msg != "" {
		s += " (" + e.Msg + ")"
	}
	return s
}

// IsNoSuchField reports whether err is a missing-field query error.
func IsNoSuchField(err error) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Kind == KindNoSuchField
}

// IsIndexOutOfRange reports whether err is an out-of-range query error.
func IsIndexOutOfRange(err error) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Kind == KindIndexOutOfRange
}
