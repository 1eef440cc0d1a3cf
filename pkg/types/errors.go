// Package types defines the error taxonomy shared by the lexer, the
// interpreter and the turtle implementations.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error tag constants.
const (
	TagParseError          = "ParseError"
	TagStackUnderflowError = "StackUnderflowError"
	TagMalformedTokenError = "MalformedTokenError"
	TagResourceLimitError  = "ResourceLimitError"
)

// InterpretError is a terminal interpretation failure with message, tags and
// the offending source location.
type InterpretError struct {
	Message string
	Tags    []string
	Pos     int    // byte offset into the cut, whitespace-free L-string; -1 if unknown
	Token   string // offending token or substring
}

// Error implements the error interface.
func (e *InterpretError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Token != "" {
		fmt.Fprintf(&b, " (token %q", e.Token)
		if e.Pos >= 0 {
			fmt.Fprintf(&b, " at %d", e.Pos)
		}
		b.WriteString(")")
	} else if e.Pos >= 0 {
		fmt.Fprintf(&b, " (at %d)", e.Pos)
	}
	fmt.Fprintf(&b, " [%s]", strings.Join(e.Tags, ", "))
	return b.String()
}

// HasTag returns true if the error has the specified tag.
func (e *InterpretError) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// At returns a copy of the error pinned to a token and position. Fields that
// are already set are kept.
func (e *InterpretError) At(pos int, token string) *InterpretError {
	c := *e
	c.Tags = append([]string(nil), e.Tags...)
	if c.Pos < 0 {
		c.Pos = pos
	}
	if c.Token == "" {
		c.Token = token
	}
	return &c
}

// ToMap converts the error into a JSON-friendly payload.
func (e *InterpretError) ToMap() map[string]any {
	m := map[string]any{
		"message": e.Message,
		"tags":    append([]string(nil), e.Tags...),
	}
	if e.Pos >= 0 {
		m["pos"] = e.Pos
	}
	if e.Token != "" {
		m["token"] = e.Token
	}
	return m
}

// AsInterpretError unwraps err into an *InterpretError.
// Returns nil if err does not wrap one.
func AsInterpretError(err error) *InterpretError {
	var ie *InterpretError
	if errors.As(err, &ie) {
		return ie
	}
	return nil
}

// IsTagged reports whether err wraps an InterpretError carrying tag.
func IsTagged(err error, tag string) bool {
	ie := AsInterpretError(err)
	return ie != nil && ie.HasTag(tag)
}

// Common error constructors.

// NewParseError creates a ParseError for an argument that is not a number.
func NewParseError(msg string) *InterpretError {
	return &InterpretError{Message: msg, Pos: -1, Tags: []string{TagParseError}}
}

// NewStackUnderflowError creates a StackUnderflowError for a pop on an empty
// branch stack.
func NewStackUnderflowError() *InterpretError {
	return &InterpretError{
		Message: "pop on empty branch stack",
		Pos:     -1,
		Tags:    []string{TagStackUnderflowError},
	}
}

// NewMalformedTokenError creates a MalformedTokenError for input outside the
// token grammar.
func NewMalformedTokenError(msg string, pos int, fragment string) *InterpretError {
	return &InterpretError{Message: msg, Pos: pos, Token: fragment, Tags: []string{TagMalformedTokenError}}
}

// NewResourceLimitError creates a ResourceLimitError.
func NewResourceLimitError(msg string) *InterpretError {
	return &InterpretError{Message: msg, Pos: -1, Tags: []string{TagResourceLimitError}}
}
