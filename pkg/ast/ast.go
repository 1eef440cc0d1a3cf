// Package ast defines the command model produced from an L-string: one
// Command per token, tagged with the kind of turtle operation it requests.
package ast

import (
	"strconv"
	"strings"
)

// Kind identifies the turtle operation a command symbol requests.
type Kind int

const (
	KindUnknown      Kind = iota // unrecognized symbol, skipped by the interpreter
	KindDraw                     // F
	KindMove                     // f
	KindPush                     // [
	KindPop                      // ]
	KindTurnRight                // +
	KindTurnLeft                 // -
	KindPitchDown                // &
	KindPitchUp                  // ^
	KindRollLeft                 // \
	KindRollRight                // /
	KindTurnAround               // |
	KindWidthUp                  // _
	KindWidthDown                // !
	KindMaterialNext             // ;
	KindMaterialPrev             // ,
)

var kindBySymbol = map[rune]Kind{
	'F':  KindDraw,
	'f':  KindMove,
	'[':  KindPush,
	']':  KindPop,
	'+':  KindTurnRight,
	'-':  KindTurnLeft,
	'&':  KindPitchDown,
	'^':  KindPitchUp,
	'\\': KindRollLeft,
	'/':  KindRollRight,
	'|':  KindTurnAround,
	'_':  KindWidthUp,
	'!':  KindWidthDown,
	';':  KindMaterialNext,
	',':  KindMaterialPrev,
}

// KindOf returns the kind for a command symbol, or KindUnknown.
func KindOf(symbol rune) Kind {
	if k, ok := kindBySymbol[symbol]; ok {
		return k
	}
	return KindUnknown
}

// String returns a debug-friendly name for the kind.
func (k Kind) String() string {
	switch k {
	case KindDraw:
		return "DRAW"
	case KindMove:
		return "MOVE"
	case KindPush:
		return "PUSH"
	case KindPop:
		return "POP"
	case KindTurnRight:
		return "TURN_RIGHT"
	case KindTurnLeft:
		return "TURN_LEFT"
	case KindPitchDown:
		return "PITCH_DOWN"
	case KindPitchUp:
		return "PITCH_UP"
	case KindRollLeft:
		return "ROLL_LEFT"
	case KindRollRight:
		return "ROLL_RIGHT"
	case KindTurnAround:
		return "TURN_AROUND"
	case KindWidthUp:
		return "WIDTH_UP"
	case KindWidthDown:
		return "WIDTH_DOWN"
	case KindMaterialNext:
		return "MATERIAL_NEXT"
	case KindMaterialPrev:
		return "MATERIAL_PREV"
	default:
		return "UNKNOWN"
	}
}

// Command is one interpreted token of an L-string.
type Command struct {
	// Kind is the requested turtle operation.
	Kind Kind

	// Symbol is the leading character of the token.
	Symbol rune

	// Args holds the parsed parenthesized arguments, empty when absent.
	Args []float64

	// Pos is the byte offset of the token in the cut, whitespace-free L-string.
	Pos int

	// Raw is the token text as it appeared in the input.
	Raw string
}

// Arg returns the i-th argument and whether it exists.
func (c Command) Arg(i int) (float64, bool) {
	if i < 0 || i >= len(c.Args) {
		return 0, false
	}
	return c.Args[i], true
}

// String re-renders the command as "F(230, 24)".
func (c Command) String() string {
	if len(c.Args) == 0 {
		return string(c.Symbol)
	}
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = strconv.FormatFloat(a, 'f', -1, 64)
	}
	return string(c.Symbol) + "(" + strings.Join(parts, ", ") + ")"
}
