package scene

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/lemonberrylabs/lindenmaker/pkg/geom"
)

// Segment is the world-space axis of one internode.
type Segment struct {
	Start    geom.Vec3 `json:"start"`
	End      geom.Vec3 `json:"end"`
	Width    float64   `json:"width"`
	Material int       `json:"material"`
}

// Segments returns every internode as a world-space line segment, in
// creation order.
func (s *Scene) Segments() []Segment {
	var out []Segment
	for _, o := range s.Objects {
		if o.Kind != KindInternode {
			continue
		}
		w := s.World(o)
		out = append(out, Segment{
			Start:    w.Transform(geom.Vec3{}, 1),
			End:      w.Transform(geom.Vec3{X: o.Scale.X}, 1),
			Width:    o.Scale.Y,
			Material: o.Material,
		})
	}
	return out
}

// Stats summarizes a scene.
type Stats struct {
	Objects    int       `json:"objects"`
	Internodes int       `json:"internodes"`
	Nodes      int       `json:"nodes"`
	MaxDepth   int       `json:"maxDepth"`
	Min        geom.Vec3 `json:"min"`
	Max        geom.Vec3 `json:"max"`
}

// Stats counts objects and computes the world-space bounds of all
// internode endpoints and node centers. Bounds are zero for an empty scene.
func (s *Scene) Stats() Stats {
	st := Stats{Objects: len(s.Objects)}
	first := true
	extend := func(p geom.Vec3) {
		if first {
			st.Min, st.Max = p, p
			first = false
			return
		}
		st.Min = geom.Vec3{X: math.Min(st.Min.X, p.X), Y: math.Min(st.Min.Y, p.Y), Z: math.Min(st.Min.Z, p.Z)}
		st.Max = geom.Vec3{X: math.Max(st.Max.X, p.X), Y: math.Max(st.Max.Y, p.Y), Z: math.Max(st.Max.Z, p.Z)}
	}

	for _, o := range s.Objects {
		st.MaxDepth = max(st.MaxDepth, o.Depth())
		switch o.Kind {
		case KindNode:
			st.Nodes++
			extend(s.World(o).Position())
		case KindInternode:
			st.Internodes++
		}
	}
	for _, seg := range s.Segments() {
		extend(seg.Start)
		extend(seg.End)
	}
	return st
}

// ObjectView is the JSON form of an object.
type ObjectView struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Kind     string    `json:"kind"`
	Parent   int       `json:"parent"`
	Position geom.Vec3 `json:"position"`
	Matrix   geom.Mat4 `json:"matrix"`
	Scale    geom.Vec3 `json:"scale"`
	Material string    `json:"material,omitempty"`
}

// View is the JSON form of a scene.
type View struct {
	Root      ObjectView   `json:"root"`
	Objects   []ObjectView `json:"objects"`
	Segments  []Segment    `json:"segments"`
	Materials []string     `json:"materials"`
	Stats     Stats        `json:"stats"`
}

// Export builds the JSON-serializable view of the scene. Object matrices
// are world transforms; Parent is 0 for children of the root.
func (s *Scene) Export() View {
	v := View{
		Root:      s.view(s.Root),
		Objects:   make([]ObjectView, 0, len(s.Objects)),
		Segments:  s.Segments(),
		Materials: s.Palette.Names(),
		Stats:     s.Stats(),
	}
	for _, o := range s.Objects {
		v.Objects = append(v.Objects, s.view(o))
	}
	return v
}

func (s *Scene) view(o *Object) ObjectView {
	w := s.World(o)
	ov := ObjectView{
		ID:       o.ID,
		Name:     o.Name,
		Kind:     o.Kind.String(),
		Position: w.Position(),
		Matrix:   w,
		Scale:    o.Scale,
	}
	if o.Parent != nil {
		ov.Parent = o.Parent.ID
	}
	if name, ok := s.Palette.Name(o.Material); ok {
		ov.Material = name
	}
	return ov
}

// WriteOBJ writes the internodes as Wavefront OBJ line elements, one
// object per internode, with usemtl statements for assigned materials.
// Only geometry is written: materials reference a lindenmaker.mtl library
// that the caller provides. Names are reduced to [A-Za-z0-9_.-].
func (s *Scene) WriteOBJ(w io.Writer) error {
	bw := bufio.NewWriter(w)
	name := s.Root.Name
	if name == "" {
		name = "Root"
	}
	fmt.Fprintf(bw, "# lindenmaker\n")
	if s.Palette.Len() > 0 {
		fmt.Fprintf(bw, "mtllib lindenmaker.mtl\n")
	}
	fmt.Fprintf(bw, "o %s\n", objName(name))

	vi := 1
	for i, seg := range s.Segments() {
		fmt.Fprintf(bw, "g internode_%d\n", i+1)
		if mat, ok := s.Palette.Name(seg.Material); ok {
			fmt.Fprintf(bw, "usemtl %s\n", objName(mat))
		}
		fmt.Fprintf(bw, "v %g %g %g\n", seg.Start.X, seg.Start.Y, seg.Start.Z)
		fmt.Fprintf(bw, "v %g %g %g\n", seg.End.X, seg.End.Y, seg.End.Z)
		fmt.Fprintf(bw, "l %d %d\n", vi, vi+1)
		vi += 2
	}
	return bw.Flush()
}

// objName replaces every character outside [A-Za-z0-9_.-] with '_'.
func objName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '.', r == '-':
			return r
		}
		return '_'
	}, name)
}
