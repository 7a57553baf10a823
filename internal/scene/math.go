package scene

import (
	"math"

	"github.com/gdamore/tcell/v2"
)

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Mul(o Vec3) Vec3      { return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Len() float64         { return math.Sqrt(v.Dot(v)) }
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{v.Y*o.Z - v.Z*o.Y, v.Z*o.X - v.X*o.Z, v.X*o.Y - v.Y*o.X}
}

var (
	VecZero = Vec3{}
	VecOne  = Vec3{1, 1, 1}
)

// Quat is a unit rotation quaternion.
type Quat struct {
	W, X, Y, Z float64
}

var QuatIdentity = Quat{W: 1}

// QuatFromAxisAngle builds a rotation of angle radians about axis.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	l := axis.Len()
	if l == 0 {
		return QuatIdentity
	}
	s := math.Sin(angle/2) / l
	return Quat{W: math.Cos(angle / 2), X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s}
}

// Mul returns q*o, the rotation o followed by q.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

func (q Quat) Conjugate() Quat { return Quat{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z} }

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Colour is a linear RGB value, nominally in [0,1] per channel.
type Colour struct {
	R, G, B float64
}

func Grey(v float64) Colour { return Colour{v, v, v} }

var (
	ColourBlack = Colour{}
	ColourWhite = Colour{1, 1, 1}
)

func (c Colour) Add(o Colour) Colour    { return Colour{c.R + o.R, c.G + o.G, c.B + o.B} }
func (c Colour) Mul(o Colour) Colour    { return Colour{c.R * o.R, c.G * o.G, c.B * o.B} }
func (c Colour) Scale(s float64) Colour { return Colour{c.R * s, c.G * s, c.B * s} }
func (c Colour) Lerp(o Colour, t float64) Colour {
	return c.Add(o.Sub(c).Scale(t))
}
func (c Colour) Sub(o Colour) Colour { return Colour{c.R - o.R, c.G - o.G, c.B - o.B} }

func (c Colour) Clamp() Colour {
	return Colour{clamp01(c.R), clamp01(c.G), clamp01(c.B)}
}

// Luminance is the Rec. 709 luma of c.
func (c Colour) Luminance() float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

func (c Colour) Tcell() tcell.Color {
	c = c.Clamp()
	return tcell.NewRGBColor(int32(c.R*255+0.5), int32(c.G*255+0.5), int32(c.B*255+0.5))
}

// ColourOf converts a tcell colour to a Colour. Unknown colours map to white.
func ColourOf(tc tcell.Color) Colour {
	r, g, b := tc.RGB()
	if r < 0 {
		return ColourWhite
	}
	return Colour{float64(r) / 255, float64(g) / 255, float64(b) / 255}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
