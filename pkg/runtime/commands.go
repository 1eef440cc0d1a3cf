package runtime

import (
	"math"

	"github.com/lemonberrylabs/lindenmaker/pkg/ast"
)

const (
	// WidthStep is the line width change of _ and ! without arguments.
	WidthStep = 0.05

	// MinLineWidth is the floor applied by !.
	MinLineWidth = 0.01
)

// commandFunc applies one command to the turtle.
type commandFunc func(t Turtle, opts Options, cmd ast.Command) error

// commandTable maps every recognized command kind to its behavior. Kinds
// missing from the table are skipped.
var commandTable = map[ast.Kind]commandFunc{
	ast.KindDraw:         draw,
	ast.KindMove:         move,
	ast.KindPush:         push,
	ast.KindPop:          pop,
	ast.KindTurnRight:    rotation(Turtle.Turn, -1),
	ast.KindTurnLeft:     rotation(Turtle.Turn, 1),
	ast.KindPitchDown:    rotation(Turtle.Pitch, -1),
	ast.KindPitchUp:      rotation(Turtle.Pitch, 1),
	ast.KindRollLeft:     rotation(Turtle.Roll, -1),
	ast.KindRollRight:    rotation(Turtle.Roll, 1),
	ast.KindTurnAround:   turnAround,
	ast.KindWidthUp:      widthUp,
	ast.KindWidthDown:    widthDown,
	ast.KindMaterialNext: materialStep(1),
	ast.KindMaterialPrev: materialStep(-1),
}

// singleArg returns the argument of a one-argument command, or def when the
// command has no arguments or more than one.
func singleArg(cmd ast.Command, def float64) float64 {
	if len(cmd.Args) == 1 {
		return cmd.Args[0]
	}
	return def
}

// draw handles F, F(length) and F(length, width).
func draw(t Turtle, opts Options, cmd ast.Command) error {
	switch len(cmd.Args) {
	case 2:
		t.MoveAndDraw(cmd.Args[0], cmd.Args[1])
	case 1:
		t.MoveAndDraw(cmd.Args[0], t.LineWidth())
	default:
		t.MoveAndDraw(opts.Length, t.LineWidth())
	}
	return nil
}

func move(t Turtle, opts Options, cmd ast.Command) error {
	t.Move(singleArg(cmd, opts.Length))
	return nil
}

func push(t Turtle, _ Options, _ ast.Command) error {
	t.Push()
	return nil
}

func pop(t Turtle, _ Options, _ ast.Command) error {
	return t.Pop()
}

// rotation builds a handler rotating by sign*angle around the axis rotate
// selects.
func rotation(rotate func(Turtle, float64), sign float64) commandFunc {
	return func(t Turtle, opts Options, cmd ast.Command) error {
		rotate(t, sign*singleArg(cmd, opts.Angle))
		return nil
	}
}

func turnAround(t Turtle, _ Options, _ ast.Command) error {
	t.Turn(180)
	return nil
}

func widthUp(t Turtle, _ Options, cmd ast.Command) error {
	t.SetLineWidth(singleArg(cmd, t.LineWidth()+WidthStep))
	return nil
}

func widthDown(t Turtle, _ Options, cmd ast.Command) error {
	t.SetLineWidth(max(singleArg(cmd, t.LineWidth()-WidthStep), MinLineWidth))
	return nil
}

// materialStep sets the material index from a single argument (truncated
// toward zero) or moves it by step.
func materialStep(step int) commandFunc {
	return func(t Turtle, _ Options, cmd ast.Command) error {
		if len(cmd.Args) == 1 {
			t.SetMaterialIndex(materialArg(cmd.Args[0]))
		} else {
			t.SetMaterialIndex(t.MaterialIndex() + step)
		}
		return nil
	}
}

// materialArg truncates an absolute material argument toward zero. Values
// beyond the int32 range saturate so the later clamp sees their sign.
func materialArg(a float64) int {
	return int(max(math.MinInt32, min(math.MaxInt32, math.Trunc(a))))
}
