package component

import (
	"github.com/thrive/thrive/internal/core/ecs"
	"github.com/thrive/thrive/internal/scene"
)

// SceneNode places an entity in the scene graph. Gameplay code edits the
// transform and sets Dirty; the scene-node update system pushes it to Node.
// Node is owned by the scene-node systems and is nil until the node exists.
type SceneNode struct {
	Position    scene.Vec3
	Orientation scene.Quat
	Scale       scene.Vec3
	Parent      ecs.EntityID // ecs.NoEntity: child of the scene root
	Dirty       bool

	Node *scene.Node
}

// NewSceneNode returns an identity transform at pos.
func NewSceneNode(pos scene.Vec3) *SceneNode {
	return &SceneNode{
		Position:    pos,
		Orientation: scene.QuatIdentity,
		Scale:       scene.VecOne,
	}
}

// Camera needs a SceneNode on the same entity.
type Camera struct {
	FOVy        float64 // radians
	NearClip    float64
	FarClip     float64
	PolygonMode scene.PolygonMode

	Camera *scene.Camera
}

// Light needs a SceneNode on the same entity.
type Light struct {
	Type    scene.LightType
	Diffuse scene.Colour
	Range   float64

	Light *scene.Light
}

// SkyPlane configures the scene's sky. Only the lowest entity id carrying
// one is used.
type SkyPlane struct {
	Enabled bool
	Top     scene.Colour
	Bottom  scene.Colour
}

// Model shows a mesh resource at the entity's SceneNode.
type Model struct {
	MeshName string
	Visible  bool

	Entity *scene.Entity
}

// Viewport shows the camera of CameraEntity on the window. Dimensions are
// relative to the window size.
type Viewport struct {
	CameraEntity ecs.EntityID
	ZOrder       int
	Left, Top    float64
	Width        float64
	Height       float64
	Background   scene.Colour

	Viewport *scene.Viewport
}

// FullViewport covers the whole window.
func FullViewport(camera ecs.EntityID, zOrder int) *Viewport {
	return &Viewport{CameraEntity: camera, ZOrder: zOrder, Width: 1, Height: 1}
}
