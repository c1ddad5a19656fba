package domain

import (
	"errors" // Error inspection
	"fmt"    // Error formatting
)

// Kind classifies a failure so the HTTP layer can pick a status code
type Kind int

// Error kinds
const (
	KindValidation   Kind = iota + 1 // Malformed or missing input
	KindNotFound                     // Referenced id is absent
	KindConflict                     // Delete blocked by existing references
	KindUnauthorized                 // Missing credential
	KindForbidden                    // Insufficient role or not the owner
	KindTokenInvalid                 // Credential failed verification
	KindTokenExpired                 // Credential is past its expiry
	KindStorage                      // Underlying persistence failure
)

// String returns a readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindTokenInvalid:
		return "token_invalid"
	case KindTokenExpired:
		return "token_expired"
	case KindStorage:
		return "storage"
	}
	return "unknown"
}

// Error is the failure type returned across service boundaries
type Error struct {
	Kind    Kind   // Failure class
	Code    string // Stable machine-readable code, e.g. ACCOUNT_NOT_FOUND
	Message string // Human-readable message
	Err     error  // Wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and code, so sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Code == "" || e.Code == t.Code)
}

// ValidationError reports malformed input
func ValidationError(code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

// NotFound reports a missing row
func NotFound(code, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg}
}

// Conflict reports a delete blocked by references
func Conflict(code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

// Unauthorized reports a missing credential
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: msg}
}

// Forbidden reports an insufficient role or foreign ownership
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: msg}
}

// TokenInvalid reports a credential that failed verification
func TokenInvalid(err error) *Error {
	return &Error{Kind: KindTokenInvalid, Code: "INVALID_TOKEN", Message: "Invalid token", Err: err}
}

// TokenExpired reports a credential past its expiry
func TokenExpired(err error) *Error {
	return &Error{Kind: KindTokenExpired, Code: "TOKEN_EXPIRED", Message: "Token expired", Err: err}
}

// StorageError wraps a persistence failure
func StorageError(op string, err error) *Error {
	return &Error{Kind: KindStorage, Code: "STORAGE_ERROR", Message: "storage failure during " + op, Err: err}
}

// KindOf extracts the kind of err, or 0 when err is not an *Error
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// Sentinels for errors.Is checks
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrForbidden  = &Error{Kind: KindForbidden}
	ErrStorage    = &Error{Kind: KindStorage}
)
