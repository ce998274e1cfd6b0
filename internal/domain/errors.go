package domain

import "errors"

// ErrorKind classifies a failure the way callers across the RPC surface need
// to react to it. See spec §7.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindInvalidInput       ErrorKind = "invalid_input"
	KindPlanUnavailable    ErrorKind = "plan_unavailable"
	KindEncoderFailed      ErrorKind = "encoder_failed"
	KindResourceExhausted  ErrorKind = "resource_exhausted"
	KindTimeout            ErrorKind = "timeout"
	KindConcurrencyConflict ErrorKind = "concurrency_conflict"
)

// Error is the taxonomy-tagged error type surfaced to API callers. No stack
// traces leave the core; the Kind plus a short Message are all a client
// sees.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func NotFound(message string) *Error          { return NewError(KindNotFound, message, nil) }
func InvalidInput(message string) *Error      { return NewError(KindInvalidInput, message, nil) }
func PlanUnavailable(message string) *Error   { return NewError(KindPlanUnavailable, message, nil) }
func Timeout(message string) *Error           { return NewError(KindTimeout, message, nil) }
func ConcurrencyConflict(message string) *Error {
	return NewError(KindConcurrencyConflict, message, nil)
}
func ResourceExhausted(message string) *Error {
	return NewError(KindResourceExhausted, message, nil)
}
func EncoderFailed(message string, cause error) *Error {
	return NewError(KindEncoderFailed, message, cause)
}

// KindOf extracts the taxonomy kind from err, defaulting to an empty Kind
// (treated as an opaque internal error) when err isn't one of ours.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
