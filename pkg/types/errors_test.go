package types

import (
	"fmt"
	"strings"
	"testing"
)

func TestInterpretErrorMessage(t *testing.T) {
	err := NewMalformedTokenError("unexpected ')'", 4, ")")
	got := err.Error()
	for _, want := range []string{"unexpected ')'", `token ")" at 4`, TagMalformedTokenError} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
}

func TestAtKeepsExistingLocation(t *testing.T) {
	base := NewStackUnderflowError()
	pinned := base.At(7, "]")
	if pinned.Pos != 7 || pinned.Token != "]" {
		t.Fatalf("got pos=%d token=%q", pinned.Pos, pinned.Token)
	}
	if base.Pos != -1 || base.Token != "" {
		t.Error("At must not mutate the receiver")
	}

	again := pinned.At(9, "F")
	if again.Pos != 7 || again.Token != "]" {
		t.Errorf("existing location overwritten: pos=%d token=%q", again.Pos, again.Token)
	}
}

func TestAsInterpretErrorUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("interpreting: %w", NewParseError("bad number"))
	ie := AsInterpretError(wrapped)
	if ie == nil {
		t.Fatal("expected wrapped InterpretError")
	}
	if !ie.HasTag(TagParseError) {
		t.Errorf("tags = %v", ie.Tags)
	}
	if !IsTagged(wrapped, TagParseError) || IsTagged(wrapped, TagStackUnderflowError) {
		t.Error("IsTagged mismatch")
	}
	if AsInterpretError(fmt.Errorf("plain")) != nil {
		t.Error("plain error should not unwrap")
	}
}

func TestToMap(t *testing.T) {
	m := NewResourceLimitError("too many commands").ToMap()
	if m["message"] != "too many commands" {
		t.Errorf("message = %v", m["message"])
	}
	if _, ok := m["pos"]; ok {
		t.Error("pos should be omitted when unknown")
	}
	tags, _ := m["tags"].([]string)
	if len(tags) != 1 || tags[0] != TagResourceLimitError {
		t.Errorf("tags = %v", m["tags"])
	}
}
