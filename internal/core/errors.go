package core

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind rather than matching error strings;
// Error() messages are intended for humans and may evolve.
type Kind string

const (
	// KindInvalidInput marks caller errors: zero addresses, empty URIs,
	// royalty out of range, bad batch sizes. Never retried automatically.
	KindInvalidInput Kind = "InvalidInput"

	// KindAlreadyImported marks permanent duplicate rejections: resubmitting
	// the same origin tag fails identically every time.
	KindAlreadyImported Kind = "AlreadyImported"

	// KindParentNotFound marks nested imports whose parent tag is not yet in
	// the destination registry. Transient relative to import order; import
	// the parent first, then retry.
	KindParentNotFound Kind = "ParentNotFound"

	// KindDestinationRejected wraps a mint rejection. The registry's reason
	// is surfaced verbatim in the cause.
	KindDestinationRejected Kind = "DestinationRejected"

	// KindAuthorization marks administrative calls by a non-admin actor.
	KindAuthorization Kind = "AuthorizationRequired"

	// KindLookup marks registry scans that could not complete, e.g. an
	// unreadable total count during parent resolution.
	KindLookup Kind = "Lookup"

	// KindInternal marks store or infrastructure failures.
	KindInternal Kind = "Internal"
)

// Error is the engine's structured error type. Use errors.As to extract it.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

func invalidf(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func alreadyImported(tag string) error {
	return &Error{Kind: KindAlreadyImported, Message: fmt.Sprintf("origin tag %q already imported", tag)}
}

func parentNotFound(tag string) error {
	return &Error{Kind: KindParentNotFound, Message: fmt.Sprintf("parent with origin tag %q not found in destination registry", tag)}
}

// destinationRejected keeps the registry's reason unmodified in the cause so
// callers see it verbatim behind a contextual prefix.
func destinationRejected(cause error) error {
	return &Error{Kind: KindDestinationRejected, Message: "destination registry rejected mint", Cause: cause}
}

func unauthorized(actor Address) error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf("actor %s is not the engine admin", actor)}
}

func lookupFailed(msg string, cause error) error {
	return &Error{Kind: KindLookup, Message: msg, Cause: cause}
}

func internalErr(msg string, cause error) error {
	return &Error{Kind: KindInternal, Message: msg, Cause: cause}
}
