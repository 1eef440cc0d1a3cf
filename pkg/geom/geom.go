// Package geom holds the small amount of 3D linear algebra the turtle and
// the scene graph need: vectors, axis rotations and column-major 4x4
// matrices.
package geom

import "math"

// Axis names a coordinate axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// String returns the axis letter.
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return "?"
	}
}

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Len() float64         { return math.Sqrt(v.Dot(v)) }

// Cross returns the right-handed cross product v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Normalize returns v scaled to unit length; the zero vector is returned as is.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Component returns the coordinate of v along axis a.
func (v Vec3) Component(a Axis) float64 {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// Approx reports whether v and o differ by at most eps per component.
func (v Vec3) Approx(o Vec3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}

// Mat4 is a 4x4 matrix stored column-major: element (row r, col c) is m[c*4+r].
// The zero value is not the identity; use Identity.
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// At returns the element at row r, column c.
func (m Mat4) At(r, c int) float64 { return m[c*4+r] }

// Set assigns the element at row r, column c.
func (m *Mat4) Set(r, c int, v float64) { m[c*4+r] = v }

// Rotation returns a right-handed rotation of degrees about axis.
func Rotation(axis Axis, degrees float64) Mat4 {
	rad := degrees * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	// Snap values that are exact at multiples of 90 degrees.
	c, s = snap(c), snap(s)
	m := Identity()
	switch axis {
	case AxisX:
		m.Set(1, 1, c)
		m.Set(1, 2, -s)
		m.Set(2, 1, s)
		m.Set(2, 2, c)
	case AxisY:
		m.Set(0, 0, c)
		m.Set(0, 2, s)
		m.Set(2, 0, -s)
		m.Set(2, 2, c)
	case AxisZ:
		m.Set(0, 0, c)
		m.Set(0, 1, -s)
		m.Set(1, 0, s)
		m.Set(1, 1, c)
	}
	return m
}

func snap(v float64) float64 {
	const eps = 1e-15
	switch {
	case math.Abs(v) < eps:
		return 0
	case math.Abs(v-1) < eps:
		return 1
	case math.Abs(v+1) < eps:
		return -1
	}
	return v
}

// Translation returns a matrix translating by v.
func Translation(v Vec3) Mat4 {
	m := Identity()
	m.Set(0, 3, v.X)
	m.Set(1, 3, v.Y)
	m.Set(2, 3, v.Z)
	return m
}

// Mul returns the matrix product m × n.
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m.At(r, k) * n.At(k, c)
			}
			out.Set(r, c, sum)
		}
	}
	return out
}

// Transform applies m to the homogeneous vector (v, w) and drops w.
// Use w=1 for points and w=0 for directions.
func (m Mat4) Transform(v Vec3, w float64) Vec3 {
	return Vec3{
		m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z + m.At(0, 3)*w,
		m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z + m.At(1, 3)*w,
		m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z + m.At(2, 3)*w,
	}
}

// Column returns the xyz part of column c.
func (m Mat4) Column(c int) Vec3 {
	return Vec3{m.At(0, c), m.At(1, c), m.At(2, c)}
}

// SetColumn replaces the xyz part of column c, keeping its w component.
func (m *Mat4) SetColumn(c int, v Vec3) {
	m.Set(0, c, v.X)
	m.Set(1, c, v.Y)
	m.Set(2, c, v.Z)
}

// Position returns the translation part of m.
func (m Mat4) Position() Vec3 { return m.Column(3) }

// Approx reports whether m and n differ by at most eps per element.
func (m Mat4) Approx(n Mat4, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-n[i]) > eps {
			return false
		}
	}
	return true
}
