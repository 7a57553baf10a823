package scene

import "math"

type attachment struct {
	name    string
	node    *Node
	manager *Manager
}

func (a *attachment) Name() string      { return a.name }
func (a *attachment) Node() *Node       { return a.node }
func (a *attachment) Manager() *Manager { return a.manager }
func (a *attachment) setNode(n *Node)   { a.node = n }

// PolygonMode selects how a camera draws mesh glyphs.
type PolygonMode int

const (
	PolygonSolid PolygonMode = iota
	PolygonWireframe
	PolygonPoints
)

func (m PolygonMode) String() string {
	switch m {
	case PolygonWireframe:
		return "wireframe"
	case PolygonPoints:
		return "points"
	default:
		return "solid"
	}
}

const defaultFOVy = math.Pi / 4

// Camera looks down its node's local -Z axis.
type Camera struct {
	attachment
	FOVy        float64 // radians
	NearClip    float64
	FarClip     float64
	PolygonMode PolygonMode
}

func (c *Camera) focal() float64 {
	fov := c.FOVy
	if fov <= 0 || fov >= math.Pi {
		fov = defaultFOVy
	}
	return 1 / math.Tan(fov/2)
}

type LightType int

const (
	LightPoint LightType = iota
	LightDirectional
)

func (t LightType) String() string {
	if t == LightDirectional {
		return "directional"
	}
	return "point"
}

// Light contributes Diffuse to every lit glyph. A point light fades linearly
// to zero at Range; a directional light is unattenuated.
type Light struct {
	attachment
	Type    LightType
	Diffuse Colour
	Range   float64
}

// Attenuation returns the light's strength at world position p.
func (l *Light) Attenuation(p Vec3) float64 {
	if l.Type == LightDirectional {
		return 1
	}
	if l.node == nil || l.Range <= 0 {
		return 0
	}
	d := p.Sub(l.node.DerivedPosition()).Len()
	return clamp01(1 - d/l.Range)
}

// Entity is a placed instance of a mesh.
type Entity struct {
	attachment
	mesh    *Mesh
	Visible bool
}

func (e *Entity) Mesh() *Mesh { return e.mesh }

// SkyPlane paints the viewport background with a vertical gradient.
type SkyPlane struct {
	Enabled bool
	Top     Colour
	Bottom  Colour
}

// At returns the sky colour for a row, t in [0,1] from top to bottom.
func (s *SkyPlane) At(t float64) Colour {
	return s.Top.Lerp(s.Bottom, clamp01(t))
}
