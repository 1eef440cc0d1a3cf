// Package turtle implements the turtle agents driven by the interpreter.
//
// Turtle is the dry-run agent: it tracks position, orientation and drawing
// attributes and supports the branch stack, but creates no objects. It can
// be used to query the turtle state at any point of an interpretation.
// DrawingTurtle builds a scene graph as it moves.
package turtle

import (
	"github.com/lemonberrylabs/lindenmaker/pkg/geom"
	"github.com/lemonberrylabs/lindenmaker/pkg/scene"
	"github.com/lemonberrylabs/lindenmaker/pkg/types"
)

// State is the complete drawing state saved by Push. It is a value: the
// matrix is an array, so copies never alias.
type State struct {
	Matrix    geom.Mat4
	LineWidth float64
	Material  int
}

// Heading is the direction the turtle moves in.
func (s State) Heading() geom.Vec3 { return s.Matrix.Column(0) }

// Up is the turtle's up vector.
func (s State) Up() geom.Vec3 { return s.Matrix.Column(1) }

// Left is the turtle's left vector.
func (s State) Left() geom.Vec3 { return s.Matrix.Column(2) }

// Position is the turtle's location.
func (s State) Position() geom.Vec3 { return s.Matrix.Position() }

// Turtle is the dry-run turtle.
type Turtle struct {
	state     State
	stack     []State
	materials int
	root      *scene.Object
}

// New creates a dry-run turtle at the origin. The initial orientation is
// rotated 270 degrees about Y so the turtle heads along +Z.
func New(lineWidth float64, material, materialCount int) *Turtle {
	return &Turtle{
		state: State{
			Matrix:    geom.Identity().Mul(geom.Rotation(geom.AxisY, 270)),
			LineWidth: lineWidth,
			Material:  material,
		},
		materials: materialCount,
		root:      scene.NewEmpty(""),
	}
}

// State returns a copy of the current state.
func (t *Turtle) State() State { return t.state }

// Depth returns the number of states on the branch stack.
func (t *Turtle) Depth() int { return len(t.stack) }

// Push saves the current state on the branch stack.
func (t *Turtle) Push() {
	t.stack = append(t.stack, t.state)
}

// Pop restores the most recently pushed state.
func (t *Turtle) Pop() error {
	if len(t.stack) == 0 {
		return types.NewStackUnderflowError()
	}
	last := len(t.stack) - 1
	t.state = t.stack[last]
	t.stack = t.stack[:last]
	return nil
}

// Move moves the turtle along its heading without drawing.
func (t *Turtle) Move(distance float64) {
	step := t.state.Matrix.Transform(geom.Vec3{X: distance}, 0)
	t.state.Matrix.SetColumn(3, t.state.Position().Add(step))
}

// MoveAndDraw moves the turtle; the dry-run turtle draws nothing.
func (t *Turtle) MoveAndDraw(distance, width float64) {
	t.Move(distance)
}

// Turn rotates about the turtle's up axis (local Z).
func (t *Turtle) Turn(degrees float64) { t.rotate(geom.AxisZ, degrees) }

// Pitch rotates about the turtle's left axis (local Y).
func (t *Turtle) Pitch(degrees float64) { t.rotate(geom.AxisY, degrees) }

// Roll rotates about the turtle's heading (local X).
func (t *Turtle) Roll(degrees float64) { t.rotate(geom.AxisX, degrees) }

func (t *Turtle) rotate(axis geom.Axis, degrees float64) {
	t.state.Matrix = t.state.Matrix.Mul(geom.Rotation(axis, degrees))
}

func (t *Turtle) LineWidth() float64     { return t.state.LineWidth }
func (t *Turtle) SetLineWidth(w float64) { t.state.LineWidth = w }
func (t *Turtle) MaterialIndex() int     { return t.state.Material }
func (t *Turtle) SetMaterialIndex(i int) { t.state.Material = i }
func (t *Turtle) MaterialCount() int     { return t.materials }

// Root returns the root object the interpreter reorients after the run.
func (t *Turtle) Root() scene.Node { return t.root }

// RootObject returns the root as a scene object.
func (t *Turtle) RootObject() *scene.Object { return t.root }

// LookAt turns the turtle to head towards target, keeping its position and
// the handedness of the heading/up/left frame. It is a no-op when target is
// the current position or lies straight along the current up vector.
func (t *Turtle) LookAt(target geom.Vec3) {
	pos := t.state.Position()
	heading := target.Sub(pos).Normalize()
	if heading.Len() == 0 {
		return
	}
	left := heading.Cross(t.state.Up().Normalize())
	if left.Len() < 1e-12 {
		return
	}
	left = left.Normalize()
	up := left.Cross(heading).Normalize()

	m := geom.Identity()
	m.SetColumn(0, heading)
	m.SetColumn(1, up)
	m.SetColumn(2, left)
	m.SetColumn(3, pos)
	t.state.Matrix = m
}
