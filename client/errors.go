package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/aws/smithy-go"

	"goa.design/schemarpc/retry"
)

// Kind is the closed error taxonomy spec.md §7 defines.
type Kind string

const (
	KindSerialization   Kind = "serialization"
	KindTransport       Kind = "transport"
	KindDeserialization Kind = "deserialization"
	KindModeled         Kind = "modeled"
	KindUnmodeled       Kind = "unmodeled"
	KindRetryExhausted  Kind = "retry_exhausted"
	KindCancelled       Kind = "cancelled"
	KindTimeout         Kind = "timeout"
)

// Error is the pipeline's single concrete error type: every failure surfaced
// by Invoke is an *Error with kind set to one of the Kind constants
// (spec.md §7 "Taxonomy", "Propagation", "User-visible behavior").
//
// Error also implements smithy.APIError, so callers already written against
// smithy-go-aware error handling compose without change.
type Error struct {
	kind         Kind
	operation    string
	httpStatus   int
	retrySafe    bool
	throttle     bool
	retryAfter   time.Duration
	networkFault retry.NetworkFault
	errorShapeID string
	code         string
	message      string
	cause        error
}

// newError constructs an *Error. kind and operation are required;
// constructing with either blank is a programmer error.
func newError(kind Kind, operation string, cause error) *Error {
	if kind == "" {
		panic("client: error kind is required")
	}
	if operation == "" {
		panic("client: error operation is required")
	}
	return &Error{kind: kind, operation: operation, cause: cause}
}

func (e *Error) withHTTPStatus(status int) *Error    { e.httpStatus = status; return e }
func (e *Error) withRetrySafe(safe bool) *Error      { e.retrySafe = safe; return e }
func (e *Error) withThrottle(throttle bool) *Error   { e.throttle = throttle; return e }
func (e *Error) withRetryAfter(d time.Duration) *Error {
	e.retryAfter = d
	return e
}
func (e *Error) withNetworkFault(f retry.NetworkFault) *Error { e.networkFault = f; return e }
func (e *Error) withErrorShapeID(id string) *Error            { e.errorShapeID = id; return e }
func (e *Error) withCode(code string) *Error                  { e.code = code; return e }
func (e *Error) withMessage(msg string) *Error                { e.message = msg; return e }

// Kind returns the error's taxonomy classification.
func (e *Error) Kind() Kind { return e.kind }

// Operation returns the absolute shape id of the operation that failed.
func (e *Error) Operation() string { return e.operation }

// HTTPStatus returns the response status code, or 0 when none applies.
func (e *Error) HTTPStatus() int { return e.httpStatus }

// IsRetrySafe reports whether the retry classifier judged this error
// retry-safe (spec.md §7 "all errors expose is_retry_safe").
func (e *Error) IsRetrySafe() bool { return e.retrySafe }

// IsThrottle reports whether this error was classified as throttling.
func (e *Error) IsThrottle() bool { return e.throttle }

// RetryAfter returns the classifier's suggested wait, zero if none.
func (e *Error) RetryAfter() time.Duration { return e.retryAfter }

// NetworkFault returns the transport-layer fault kind for KindTransport
// errors; retry.FaultNone for every other kind.
func (e *Error) NetworkFault() retry.NetworkFault { return e.networkFault }

// ErrorShapeID returns the modeled error's absolute shape id for
// KindModeled errors, and for a KindRetryExhausted error whose last attempt
// failed with a modeled error; empty otherwise.
func (e *Error) ErrorShapeID() string { return e.errorShapeID }

// Error implements error.
func (e *Error) Error() string {
	msg := e.message
	if msg == "" && e.cause != nil {
		msg = e.cause.Error()
	}
	if msg == "" {
		msg = string(e.kind)
	}
	if e.httpStatus > 0 {
		return fmt.Sprintf("client: %s: %s (operation %s, status %d)", e.kind, msg, e.operation, e.httpStatus)
	}
	return fmt.Sprintf("client: %s: %s (operation %s)", e.kind, msg, e.operation)
}

// Unwrap returns the wrapped cause, preserving the original error chain.
func (e *Error) Unwrap() error { return e.cause }

// AsError returns the first *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// ErrorCode implements smithy.APIError.
func (e *Error) ErrorCode() string {
	if e.code != "" {
		return e.code
	}
	return string(e.kind)
}

// ErrorMessage implements smithy.APIError.
func (e *Error) ErrorMessage() string {
	if e.message != "" {
		return e.message
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	return string(e.kind)
}

// ErrorFault implements smithy.APIError.
func (e *Error) ErrorFault() smithy.ErrorFault {
	switch {
	case e.httpStatus >= 500, e.kind == KindTransport:
		return smithy.FaultServer
	case e.httpStatus >= 400:
		return smithy.FaultClient
	default:
		return smithy.FaultUnknown
	}
}

var _ smithy.APIError = (*Error)(nil)
