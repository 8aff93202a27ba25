// Package dErrors provides coded domain errors shared across services and the
// HTTP transport. Services wrap store and validation failures with a Code;
// the transport maps Codes onto HTTP statuses so handlers never hand-pick
// status numbers.
package dErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of domain failure.
type Code string

const (
	// CodeValidation marks malformed or out-of-range input caught by
	// request-model Validate. Surfaced as a form error.
	CodeValidation Code = "validation_error"

	// CodeInvalidInput marks input that fails primitive parsing (bad UUIDs,
	// unknown enum values) at a trust boundary.
	CodeInvalidInput Code = "invalid_input"

	// CodeBadRequest marks a structurally broken request (unparseable body,
	// missing payload).
	CodeBadRequest Code = "bad_request"

	// CodeUnauthorized marks a missing or invalid credential.
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden marks an entitlement or ownership denial. Callers surface
	// it with an upsell prompt, not a hard failure.
	CodeForbidden Code = "forbidden"

	// CodeNotFound marks a stale or unknown identifier.
	CodeNotFound Code = "not_found"

	// CodeConflict marks duplicate disputes and invalid state transitions.
	CodeConflict Code = "conflict"

	// CodeInvariantViolation marks an attempt to construct a domain object
	// that breaks a model invariant.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeTimeout marks a cancelled or deadline-exceeded operation.
	CodeTimeout Code = "timeout"

	// CodeInternal marks everything the caller cannot act on.
	CodeInternal Code = "internal_error"
)

// Error carries a Code, a caller-safe message, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and caller-safe message to an underlying error.
// A nil err yields nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// HasCode is an alias for Is, kept for readability at assertion sites.
func HasCode(err error, code Code) bool { return Is(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-safe message from err. Uncoded errors report
// a generic message so internals never leak to clients.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a Code onto its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidInput, CodeBadRequest, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
