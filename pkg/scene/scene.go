// Package scene is the host-side scene graph a drawing turtle builds: a
// root object, internode and node objects parented along the branch
// structure, and the material palette objects are assigned from.
package scene

import (
	"github.com/lemonberrylabs/lindenmaker/pkg/geom"
)

// Kind distinguishes the object types a turtle creates.
type Kind int

const (
	KindEmpty     Kind = iota // transform-only object (root, branch parents)
	KindInternode             // cylinder drawn by a move-and-draw
	KindNode                  // sphere drawn at a branch point
)

// String returns a lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindInternode:
		return "internode"
	case KindNode:
		return "node"
	default:
		return "unknown"
	}
}

// NoMaterial marks an object without an assigned material.
const NoMaterial = -1

// Node is the part of an object the interpreter touches once the turtle is
// done: the root is reoriented and renamed.
type Node interface {
	Rotate(axis geom.Axis, degrees float64)
	SetName(name string)
}

// Object is a scene graph object. Matrix is expressed in turtle space;
// World on the owning Scene applies the root transform on top of it.
type Object struct {
	ID       int
	Name     string
	Kind     Kind
	Matrix   geom.Mat4
	Scale    geom.Vec3
	Material int
	Parent   *Object
	Children []*Object
}

// NewEmpty creates a detached empty object with an identity transform.
func NewEmpty(name string) *Object {
	return &Object{
		Name:     name,
		Kind:     KindEmpty,
		Matrix:   geom.Identity(),
		Scale:    geom.Vec3{X: 1, Y: 1, Z: 1},
		Material: NoMaterial,
	}
}

// Rotate post-multiplies the object's transform by a rotation about axis.
func (o *Object) Rotate(axis geom.Axis, degrees float64) {
	o.Matrix = o.Matrix.Mul(geom.Rotation(axis, degrees))
}

// SetName renames the object.
func (o *Object) SetName(name string) {
	o.Name = name
}

// Depth returns the number of ancestors of o.
func (o *Object) Depth() int {
	d := 0
	for p := o.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// Options controls how a drawing turtle assembles objects.
type Options struct {
	// Hierarchy parents objects under per-branch parent objects. When false
	// every object is parented directly to the root.
	Hierarchy bool `json:"hierarchy" yaml:"hierarchy"`

	// DrawNodes draws a node sphere at every branch point.
	DrawNodes bool `json:"drawNodes" yaml:"draw_nodes"`

	// InternodeLengthScale scales the drawn length of internodes, not the
	// distance the turtle moves.
	InternodeLengthScale float64 `json:"internodeLengthScale" yaml:"internode_length_scale"`
}

// DefaultOptions returns hierarchy mode without node spheres and unit
// internode length scale.
func DefaultOptions() Options {
	return Options{Hierarchy: true, InternodeLengthScale: 1}
}

// Scene holds every object created during one interpretation.
type Scene struct {
	Root    *Object
	Objects []*Object // creation order, root excluded
	Palette *Palette
	Options Options

	nextID int
}

// New creates a scene with an unnamed root empty.
func New(palette *Palette, opts Options) *Scene {
	if palette == nil {
		palette = NewPalette()
	}
	root := NewEmpty("")
	return &Scene{Root: root, Palette: palette, Options: opts, nextID: 1}
}

// Add creates an object, parents it and records it in the scene. A nil
// parent attaches the object to the root. Material indices are resolved
// against the palette; NoMaterial is kept as is.
func (s *Scene) Add(kind Kind, name string, matrix geom.Mat4, scale geom.Vec3, material int, parent *Object) *Object {
	if parent == nil {
		parent = s.Root
	}
	if material != NoMaterial {
		material = s.Palette.Resolve(material)
	}
	obj := &Object{
		ID:       s.nextID,
		Name:     name,
		Kind:     kind,
		Matrix:   matrix,
		Scale:    scale,
		Material: material,
		Parent:   parent,
	}
	s.nextID++
	parent.Children = append(parent.Children, obj)
	s.Objects = append(s.Objects, obj)
	return obj
}

// World returns the world transform of o: the root transform followed by
// the object's turtle-space transform.
func (s *Scene) World(o *Object) geom.Mat4 {
	if o == s.Root {
		return s.Root.Matrix
	}
	return s.Root.Matrix.Mul(o.Matrix)
}
