// Package domerrors provides coded domain errors. Services return these so
// transports can translate them into protocol responses without string matching.
package domerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for callers and transports.
type Code string

const (
	// CodeInvalidInput marks malformed or missing caller input.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks requests that are well-formed but not satisfiable
	// as given (unknown document type, missing required site, inactive type).
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks lookups for entities that do not exist.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized marks missing or invalid caller credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeConflict marks uniqueness or concurrent-update conflicts.
	CodeConflict Code = "conflict"
	// CodeContention marks a lock-wait timeout on a sequence counter. The
	// operation did not run; callers may retry with backoff.
	CodeContention Code = "contention"
	// CodeCollision marks a duplicate formatted document number detected after
	// allocation. Unreachable under correct locking; treated as a bug signal.
	CodeCollision Code = "collision"
	// CodeProtectionViolation marks a mutation rejected because the document
	// is locked, voided, or in a protected status.
	CodeProtectionViolation Code = "protection_violation"
	// CodeInvariantViolation marks a domain invariant breach (bad state
	// transition, malformed configuration).
	CodeInvariantViolation Code = "invariant_violation"
	// CodeAuditFailure marks a failed audit append. The enclosing transaction
	// must abort; a mutation without its audit record is a correctness bug.
	CodeAuditFailure Code = "audit_failure"
	// CodeTimeout marks a cancelled or deadline-exceeded operation.
	CodeTimeout Code = "timeout"
	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error carries a code, a human-readable message, and an optional cause.
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

// New builds a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message, preserving the cause for
// errors.Is/As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in err's chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// IsRetryable reports whether the caller may retry the operation unchanged.
func IsRetryable(err error) bool {
	return HasCode(err, CodeContention) || HasCode(err, CodeTimeout)
}

// ToHTTPStatus maps a code to an HTTP status for the transport layer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBadRequest, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeConflict, CodeProtectionViolation:
		return http.StatusConflict
	case CodeContention:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
