package slippi

import (
	"errors"
	"fmt"
)

// DecodeErrorKind classifies decode failures.
type DecodeErrorKind int

const (
	// KindMalformedHeader indicates the input is not a recognizable replay.
	// Always fatal.
	KindMalformedHeader DecodeErrorKind = iota
	// KindUnknownEvent indicates an event code with no declared payload
	// length. The stream cannot be advanced past it.
	KindUnknownEvent
	// KindTruncatedStream indicates the buffer ended mid-payload. Events
	// decoded before the cut are retained.
	KindTruncatedStream
	// KindMalformedEvent indicates a payload that could not be decoded.
	// Fatal only for the Game Start event.
	KindMalformedEvent
)

func (k DecodeErrorKind) String() string {
	switch k {
	case KindMalformedHeader:
		return "malformed header"
	case KindUnknownEvent:
		return "unknown event code"
	case KindTruncatedStream:
		return "truncated stream"
	case KindMalformedEvent:
		return "malformed event"
	default:
		return fmt.Sprintf("decode error %d", int(k))
	}
}

// DecodeError is a classified decode failure with enough context to
// diagnose without re-running: the byte offset into the event stream and
// the event code being decoded, when known.
type DecodeError struct {
	Kind   DecodeErrorKind
	Offset int
	Code   byte
	Msg    string
	Err    error
}

func (e *DecodeError) Error() string {
	s := e.Kind.String()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Code != 0 {
		s += fmt.Sprintf(" (event 0x%02x)", e.Code)
	}
	if e.Offset > 0 {
		s += fmt.Sprintf(" at offset %d", e.Offset)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsTruncated reports whether err is a truncated-stream decode error.
func IsTruncated(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == KindTruncatedStream
}

// IsMalformedHeader reports whether err is a malformed-header decode error.
func IsMalformedHeader(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == KindMalformedHeader
}

// IsUnknownEvent reports whether err is an unknown-event-code decode error.
func IsUnknownEvent(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == KindUnknownEvent
}
