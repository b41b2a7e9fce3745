package core

// error_messages.go maps engine errors to user-friendly messages with codes
// for support reference. Structured *Error values map directly from their
// Kind; anything else falls back to case-insensitive pattern matching on the
// error text, so database and infrastructure failures still produce a usable
// message. The first matching pattern wins, so more specific patterns come
// before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage is a user-friendly rendering of an error.
type UserMessage struct {
	Message string // What happened, in plain language
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// kindMessages maps structured error kinds to user messages.
var kindMessages = map[Kind]UserMessage{
	KindInvalidInput: {
		Message: "The import record is invalid",
		Action:  "Fix the highlighted field and resubmit",
		Code:    "VAL001",
	},
	KindAlreadyImported: {
		Message: "This origin tag has already been imported",
		Action:  "Resubmitting the same tag will always fail; remove it from the batch",
		Code:    "IMP001",
	},
	KindParentNotFound: {
		Message: "The parent token is not in the destination registry yet",
		Action:  "Import the parent record first, then retry this one",
		Code:    "IMP002",
	},
	KindDestinationRejected: {
		Message: "The destination registry rejected the mint",
		Action:  "Review the registry's reason included with this result",
		Code:    "REG001",
	},
	KindAuthorization: {
		Message: "This operation requires the engine admin",
		Action:  "Use the admin actor or request a role transfer",
		Code:    "AUTH001",
	},
	KindLookup: {
		Message: "The destination registry could not be scanned",
		Action:  "Please try again in a few moments",
		Code:    "REG002",
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this identity already exists",
			Action:  "Review the batch for duplicate origin tags",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Please try again in a few moments",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "The database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "The system is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "IMP004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Try a smaller batch or check your connection",
			Code:    "IMP005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Try a smaller batch or try again later",
			Code:    "DB005",
		},
	},
}

// defaultMessage is the fallback when no kind or pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support with the error code",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var e *Error
	if errors.As(err, &e) {
		if msg, ok := kindMessages[e.Kind]; ok {
			return msg
		}
	}

	text := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(text, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
