package scene

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/lemonberrylabs/lindenmaker/pkg/geom"
)

func TestPaletteResolve(t *testing.T) {
	tests := []struct {
		names []string
		in    int
		want  int
	}{
		{nil, 0, NoMaterial},
		{nil, 3, NoMaterial},
		{[]string{"a", "b", "c"}, 5, 2},
		{[]string{"a", "b", "c"}, -1, 0},
		{[]string{"a", "b", "c"}, 1, 1},
	}
	for _, tt := range tests {
		if got := NewPalette(tt.names...).Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%d) on %v = %d, want %d", tt.in, tt.names, got, tt.want)
		}
	}
}

func buildScene(t *testing.T) *Scene {
	t.Helper()
	s := New(NewPalette("bark", "leaf"), DefaultOptions())
	branch := s.Add(KindEmpty, "Node", geom.Identity(), geom.Vec3{X: 1, Y: 1, Z: 1}, NoMaterial, nil)
	s.Add(KindInternode, "Internode", geom.Identity(), geom.Vec3{X: 2, Y: 0.3, Z: 0.3}, 1, branch)
	s.Add(KindNode, "Node", geom.Translation(geom.Vec3{X: 2}), geom.Vec3{X: 0.3, Y: 0.3, Z: 0.3}, 7, branch)
	return s
}

func TestAddParentsAndIDs(t *testing.T) {
	s := buildScene(t)
	if len(s.Objects) != 3 || len(s.Root.Children) != 1 {
		t.Fatalf("objects=%d root children=%d", len(s.Objects), len(s.Root.Children))
	}
	for i, o := range s.Objects {
		if o.ID != i+1 {
			t.Errorf("object %d has id %d", i, o.ID)
		}
	}
	if s.Objects[0].Material != NoMaterial {
		t.Error("empties keep NoMaterial")
	}
	if s.Objects[2].Material != 1 {
		t.Errorf("material should be clamped, got %d", s.Objects[2].Material)
	}
	if s.Objects[1].Depth() != 2 {
		t.Errorf("depth = %d", s.Objects[1].Depth())
	}
}

func TestRootRotationMovesWorld(t *testing.T) {
	s := buildScene(t)
	s.Root.Rotate(geom.AxisZ, 90)
	s.Root.SetName("Root")

	segs := s.Segments()
	if len(segs) != 1 {
		t.Fatalf("segments = %d", len(segs))
	}
	if !segs[0].End.Approx(geom.Vec3{Y: 2}, 1e-9) {
		t.Errorf("end = %v", segs[0].End)
	}
}

func TestStats(t *testing.T) {
	st := buildScene(t).Stats()
	if st.Objects != 3 || st.Internodes != 1 || st.Nodes != 1 || st.MaxDepth != 2 {
		t.Errorf("unexpected stats %+v", st)
	}
	if st.Min != (geom.Vec3{}) || st.Max != (geom.Vec3{X: 2}) {
		t.Errorf("bounds %v..%v", st.Min, st.Max)
	}

	empty := New(nil, DefaultOptions()).Stats()
	if empty != (Stats{}) {
		t.Errorf("empty scene stats %+v", empty)
	}
}

func TestExportJSON(t *testing.T) {
	s := buildScene(t)
	s.Root.SetName("Root")
	data, err := json.Marshal(s.Export())
	if err != nil {
		t.Fatal(err)
	}

	var v struct {
		Root    ObjectView   `json:"root"`
		Objects []ObjectView `json:"objects"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatal(err)
	}
	if v.Root.Name != "Root" || len(v.Objects) != 3 {
		t.Fatalf("unexpected export %s", data)
	}
	if v.Objects[1].Material != "leaf" || v.Objects[1].Parent != 1 || v.Objects[0].Parent != 0 {
		t.Errorf("unexpected internode view %+v", v.Objects[1])
	}
}

func TestWriteOBJ(t *testing.T) {
	var buf bytes.Buffer
	if err := buildScene(t).WriteOBJ(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"mtllib lindenmaker.mtl", "o Root", "usemtl leaf", "v 0 0 0", "v 2 0 0", "l 1 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("OBJ output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteOBJSanitizesNames(t *testing.T) {
	s := New(NewPalette("dark bark", "leaf#2"), DefaultOptions())
	s.Root.SetName("my tree")
	s.Add(KindInternode, "Internode", geom.Identity(), geom.Vec3{X: 1, Y: 0.3, Z: 0.3}, 0, nil)
	s.Add(KindInternode, "Internode", geom.Identity(), geom.Vec3{X: 1, Y: 0.3, Z: 0.3}, 1, nil)

	var buf bytes.Buffer
	if err := s.WriteOBJ(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"o my_tree\n", "usemtl dark_bark\n", "usemtl leaf_2\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("OBJ output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteOBJWithoutPalette(t *testing.T) {
	s := New(NewPalette(), DefaultOptions())
	s.Add(KindInternode, "Internode", geom.Identity(), geom.Vec3{X: 1, Y: 0.3, Z: 0.3}, NoMaterial, nil)

	var buf bytes.Buffer
	if err := s.WriteOBJ(&buf); err != nil {
		t.Fatal(err)
	}
	if out := buf.String(); strings.Contains(out, "mtllib") || strings.Contains(out, "usemtl") {
		t.Errorf("unexpected material statements:\n%s", out)
	}
}
