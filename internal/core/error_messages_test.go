package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"invalid input", invalidf("bad"), "VAL001"},
		{"already imported", alreadyImported("legacy/1"), "IMP001"},
		{"parent not found", parentNotFound("legacy/1"), "IMP002"},
		{"destination rejected", destinationRejected(errors.New("no")), "REG001"},
		{"unauthorized", unauthorized(Address{}), "AUTH001"},
		{"lookup", lookupFailed("count", errors.New("down")), "REG002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := MapError(tt.err)
			if msg.Code != tt.code {
				t.Errorf("Code = %q, want %q", msg.Code, tt.code)
			}
			if msg.Message == "" || msg.Action == "" {
				t.Error("message or action is empty")
			}
		})
	}
}

func TestMapErrorPatterns(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"duplicate key", errors.New(`ERROR: duplicate key value violates unique constraint "admitted_tags_pkey"`), "DB001"},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), "DB002"},
		{"connection reset", errors.New("read tcp: connection reset by peer"), "DB003"},
		{"deadlock", errors.New("ERROR: deadlock detected (SQLSTATE 40P01)"), "DB004"},
		{"limiter", ErrTooManyImports, "IMP003"},
		{"canceled", errors.New("context canceled"), "IMP004"},
		{"deadline", errors.New("context deadline exceeded"), "IMP005"},
		{"timeout", errors.New("i/o timeout"), "DB005"},
		{"unknown", errors.New("something inexplicable"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if msg := MapError(tt.err); msg.Code != tt.code {
				t.Errorf("Code = %q, want %q", msg.Code, tt.code)
			}
		})
	}
}

func TestMapErrorCaseInsensitive(t *testing.T) {
	if msg := MapError(errors.New("DUPLICATE KEY violation")); msg.Code != "DB001" {
		t.Errorf("Code = %q, want DB001", msg.Code)
	}
}

func TestMapErrorNil(t *testing.T) {
	if msg := MapError(nil); msg != (UserMessage{}) {
		t.Errorf("MapError(nil) = %+v, want zero value", msg)
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(alreadyImported("legacy/1"))
	if !strings.Contains(got, "(Code: IMP001)") {
		t.Errorf("FormatUserError = %q, want embedded code", got)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) != \"\"")
	}
}

func TestMapErrorWrappedKindBeatsPattern(t *testing.T) {
	// A structured kind wins even when the text would match a pattern.
	err := fmt.Errorf("outer: %w", destinationRejected(errors.New("duplicate key in registry")))
	if msg := MapError(err); msg.Code != "REG001" {
		t.Errorf("Code = %q, want REG001", msg.Code)
	}
}
