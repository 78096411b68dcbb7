package credauth

import (
	"errors"
)

// Kind classifies every failure the engine can surface. The transport layer
// maps kinds to status codes one-to-one; the engine itself never deals in
// HTTP terms.
//
//	Docs: docs/errors.md
type Kind uint8

const (
	// KindInternal is an exported constant or variable used by the credential engine.
	KindInternal Kind = iota
	// KindNotFound is an exported constant or variable used by the credential engine.
	KindNotFound
	// KindConflict is an exported constant or variable used by the credential engine.
	KindConflict
	// KindInvalidInput is an exported constant or variable used by the credential engine.
	KindInvalidInput
	// KindExpired is an exported constant or variable used by the credential engine.
	KindExpired
	// KindUnauthorized is an exported constant or variable used by the credential engine.
	KindUnauthorized
)

// String describes the string operation and its observable behavior.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindExpired:
		return "expired"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is the typed failure returned by every Engine operation. Message is
// stable and safe to show to callers; wrapped causes (storage, mail, signing
// failures) stay behind Unwrap and are never rendered on security-sensitive
// paths.
//
// Error instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// Error describes the error operation and its observable behavior.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap describes the unwrap operation and its observable behavior.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target carries the same Kind, so callers can match with
// errors.Is against the kind sentinels below.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Message == "" && other.Kind == e.Kind
}

// Kind sentinels for errors.Is matching. They carry no message and never
// escape as return values themselves.
var (
	// ErrNotFound is an exported constant or variable used by the credential engine.
	ErrNotFound = &Error{Kind: KindNotFound}
	// ErrConflict is an exported constant or variable used by the credential engine.
	ErrConflict = &Error{Kind: KindConflict}
	// ErrInvalidInput is an exported constant or variable used by the credential engine.
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	// ErrExpired is an exported constant or variable used by the credential engine.
	ErrExpired = &Error{Kind: KindExpired}
	// ErrUnauthorized is an exported constant or variable used by the credential engine.
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	// ErrInternal is an exported constant or variable used by the credential engine.
	ErrInternal = &Error{Kind: KindInternal}
)

// Storage contract errors. Store implementations return these sentinels so
// the engine can translate them into the caller-facing taxonomy without
// knowing the backend.
var (
	// ErrRecordNotFound is an exported constant or variable used by the credential engine.
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateEmail is an exported constant or variable used by the credential engine.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrChallengeConsumed is an exported constant or variable used by the credential engine.
	ErrChallengeConsumed = errors.New("challenge already consumed")
)

func notFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func invalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

func expired(message string) *Error {
	return &Error{Kind: KindExpired, Message: message}
}

func unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func internalError(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, cause: cause}
}

// KindOf extracts the Kind from any error returned by the engine. Errors that
// are not typed collapse to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
