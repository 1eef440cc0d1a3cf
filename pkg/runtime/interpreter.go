// Package runtime drives a turtle through an L-string.
package runtime

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/lemonberrylabs/lindenmaker/pkg/ast"
	"github.com/lemonberrylabs/lindenmaker/pkg/geom"
	"github.com/lemonberrylabs/lindenmaker/pkg/lstring"
	"github.com/lemonberrylabs/lindenmaker/pkg/scene"
	"github.com/lemonberrylabs/lindenmaker/pkg/types"
)

// MaxCommandsPerRun is the maximum number of tokens a single run may consume.
const MaxCommandsPerRun = 1_000_000

// RootName is the name given to the root object once a run completes.
const RootName = "Root"

// Turtle is the agent driven by the interpreter.
type Turtle interface {
	Move(distance float64)
	MoveAndDraw(distance, width float64)
	Turn(degrees float64)
	Pitch(degrees float64)
	Roll(degrees float64)
	Push()
	Pop() error

	LineWidth() float64
	SetLineWidth(width float64)
	MaterialIndex() int
	SetMaterialIndex(index int)
	MaterialCount() int

	Root() scene.Node
}

// Hooks are optional callbacks invoked during a run. Nil hooks are skipped.
type Hooks struct {
	// OnCommand is called after each command has been applied.
	OnCommand func(cmd ast.Command, t Turtle)

	// OnFinish is called once when the run ends, successfully or not.
	OnFinish func(res *Result, err error)
}

// ChainHooks combines hooks so each callback runs in argument order.
func ChainHooks(hooks ...Hooks) Hooks {
	var out Hooks
	for _, h := range hooks {
		if h.OnCommand != nil {
			prev := out.OnCommand
			out.OnCommand = func(cmd ast.Command, t Turtle) {
				if prev != nil {
					prev(cmd, t)
				}
				h.OnCommand(cmd, t)
			}
		}
		if h.OnFinish != nil {
			prev := out.OnFinish
			out.OnFinish = func(res *Result, err error) {
				if prev != nil {
					prev(res, err)
				}
				h.OnFinish(res, err)
			}
		}
	}
	return out
}

// Result summarizes a run.
type Result struct {
	// Commands is the number of tokens consumed, skipped ones included.
	Commands int `json:"commands" yaml:"commands"`

	// Skipped is the number of tokens with no associated behavior.
	Skipped int `json:"skipped" yaml:"skipped"`

	// Counts is the number of applied commands per kind.
	Counts map[string]int `json:"counts" yaml:"counts"`

	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Interpreter runs L-strings against turtles with a fixed set of defaults.
// It holds no per-run state and may be shared between goroutines as long as
// each run gets its own turtle.
type Interpreter struct {
	opts  Options
	hooks Hooks
}

// NewInterpreter creates an interpreter with the given defaults and hooks.
func NewInterpreter(opts Options, hooks Hooks) *Interpreter {
	return &Interpreter{opts: opts, hooks: hooks}
}

// Options returns the interpreter defaults.
func (in *Interpreter) Options() Options { return in.opts }

// Interpret strips whitespace from src, applies cuts, and applies each
// resulting command to t in order. The turtle's line width and material are
// reset to the defaults first.
//
// On success the turtle's root is rotated -90 degrees around Y and renamed
// to RootName. On failure the turtle is left as it was after the last
// applied command and the root is untouched.
func (in *Interpreter) Interpret(t Turtle, src string) (res *Result, err error) {
	start := time.Now()
	res = &Result{Counts: make(map[string]int)}
	defer func() {
		res.Duration = time.Since(start)
		if in.hooks.OnFinish != nil {
			in.hooks.OnFinish(res, err)
		}
	}()

	if err := in.opts.Validate(); err != nil {
		return res, err
	}

	t.SetLineWidth(in.opts.Width)
	t.SetMaterialIndex(in.opts.Material)
	clampMaterial(t)

	lexer := lstring.NewLexer(lstring.ApplyCuts(lstring.StripSpace(src)))
	for {
		tok, err := lexer.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, err
		}

		res.Commands++
		if res.Commands > MaxCommandsPerRun {
			return res, types.NewResourceLimitError(
				fmt.Sprintf("run exceeded maximum of %d commands", MaxCommandsPerRun)).At(tok.Pos, tok.Text)
		}

		cmd, err := tok.Command()
		if err != nil {
			return res, pin(err, tok)
		}

		fn, ok := commandTable[cmd.Kind]
		if !ok {
			res.Skipped++
			continue
		}
		if err := fn(t, in.opts, cmd); err != nil {
			return res, pin(err, tok)
		}
		clampMaterial(t)
		res.Counts[cmd.Kind.String()]++

		if in.hooks.OnCommand != nil {
			in.hooks.OnCommand(cmd, t)
		}
	}

	root := t.Root()
	root.Rotate(geom.AxisY, -90)
	root.SetName(RootName)
	return res, nil
}

// clampMaterial keeps the material index within [0, MaterialCount-1].
func clampMaterial(t Turtle) {
	idx := t.MaterialIndex()
	clamped := max(0, min(t.MaterialCount()-1, idx))
	if clamped != idx {
		t.SetMaterialIndex(clamped)
	}
}

// pin attaches the token position to interpreter errors.
func pin(err error, tok lstring.Token) error {
	if ie := types.AsInterpretError(err); ie != nil {
		return ie.At(tok.Pos, tok.Text)
	}
	return fmt.Errorf("command %q at %d: %w", tok.Text, tok.Pos, err)
}
