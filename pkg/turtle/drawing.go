package turtle

import (
	"github.com/lemonberrylabs/lindenmaker/pkg/geom"
	"github.com/lemonberrylabs/lindenmaker/pkg/scene"
)

// DrawingTurtle is a turtle that adds objects to a scene: an internode per
// move-and-draw and, in hierarchy mode, a branch parent per push.
type DrawingTurtle struct {
	*Turtle
	scene   *scene.Scene
	parent  *scene.Object   // parent of objects on the current branch
	parents []*scene.Object // saved parents, parallel to the state stack
}

// NewDrawing creates a drawing turtle whose root is the scene root.
func NewDrawing(sc *scene.Scene, lineWidth float64, material int) *DrawingTurtle {
	base := New(lineWidth, material, sc.Palette.Len())
	base.root = sc.Root
	return &DrawingTurtle{Turtle: base, scene: sc, parent: sc.Root}
}

// Scene returns the scene being built.
func (d *DrawingTurtle) Scene() *scene.Scene { return d.scene }

// MoveAndDraw draws an internode of the given length and width at the
// current state, then moves past it.
func (d *DrawingTurtle) MoveAndDraw(distance, width float64) {
	scale := geom.Vec3{X: distance * d.scene.Options.InternodeLengthScale, Y: width, Z: width}
	d.scene.Add(scene.KindInternode, "Internode", d.state.Matrix, scale, d.state.Material, d.branchParent())
	d.Move(distance)
}

// Push saves the state and the current branch parent. In hierarchy mode a
// new branch parent is created: a node sphere when nodes are drawn, an
// empty otherwise.
func (d *DrawingTurtle) Push() {
	d.Turtle.Push()
	d.parents = append(d.parents, d.parent)

	switch {
	case d.scene.Options.Hierarchy && d.scene.Options.DrawNodes:
		d.parent = d.drawNode()
	case d.scene.Options.Hierarchy:
		d.parent = d.scene.Add(scene.KindEmpty, "Node", d.state.Matrix,
			geom.Vec3{X: 1, Y: 1, Z: 1}, scene.NoMaterial, d.parent)
	case d.scene.Options.DrawNodes:
		d.drawNode()
	}
}

// Pop restores the state and the branch parent saved by the matching Push.
func (d *DrawingTurtle) Pop() error {
	if err := d.Turtle.Pop(); err != nil {
		return err
	}
	last := len(d.parents) - 1
	d.parent = d.parents[last]
	d.parents = d.parents[:last]
	return nil
}

func (d *DrawingTurtle) drawNode() *scene.Object {
	w := d.state.LineWidth
	return d.scene.Add(scene.KindNode, "Node", d.state.Matrix,
		geom.Vec3{X: w, Y: w, Z: w}, d.state.Material, d.branchParent())
}

func (d *DrawingTurtle) branchParent() *scene.Object {
	if !d.scene.Options.Hierarchy {
		return d.scene.Root
	}
	return d.parent
}
