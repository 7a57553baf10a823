package system

import (
	"time"

	"github.com/thrive/thrive/internal/component"
	"github.com/thrive/thrive/internal/core/ecs"
	coresys "github.com/thrive/thrive/internal/core/system"
	"github.com/thrive/thrive/internal/scene"
	"go.uber.org/zap"
)

// CameraSystem keeps a scene camera for every Camera component. Stage 4
// (Camera). The viewport system reads its cameras, so it must run first.
type CameraSystem struct {
	world   *ecs.World
	scene   *scene.Manager
	log     *zap.Logger
	cameras map[ecs.EntityID]*scene.Camera
}

func NewCameraSystem() *CameraSystem {
	return &CameraSystem{cameras: make(map[ecs.EntityID]*scene.Camera)}
}

func (s *CameraSystem) Name() string         { return "camera" }
func (s *CameraSystem) Stage() coresys.Stage { return coresys.StageCamera }

func (s *CameraSystem) Init(ctx *coresys.Context) error {
	s.world = ctx.World
	s.scene = ctx.Scene
	s.log = ctx.Log
	return nil
}

func (s *CameraSystem) Update(_ time.Duration) error {
	store := ecs.Components[component.Camera](s.world)
	for _, id := range sortedIDs(s.cameras) {
		if c, ok := store.Get(id); !ok || c.Camera != s.cameras[id] {
			s.scene.DestroyCamera(s.cameras[id])
			delete(s.cameras, id)
		}
	}
	nodes := ecs.Components[component.SceneNode](s.world)
	ecs.Each2(store, nodes, func(id ecs.EntityID, c *component.Camera, sn *component.SceneNode) {
		node := sn.Node
		if node == nil {
			s.log.Debug("camera entity has no scene node yet, skipping", zap.Stringer("entity", id))
			return
		}
		if c.Camera == nil {
			cam, err := s.scene.CreateCamera(id.String())
			if err != nil {
				s.log.Debug("create camera failed", zap.Stringer("entity", id), zap.Error(err))
				return
			}
			c.Camera = cam
			s.cameras[id] = cam
		}
		if c.Camera.Node() != node {
			node.Attach(c.Camera)
		}
		if c.FOVy > 0 {
			c.Camera.FOVy = c.FOVy
		}
		if c.NearClip > 0 {
			c.Camera.NearClip = c.NearClip
		}
		if c.FarClip > 0 {
			c.Camera.FarClip = c.FarClip
		}
		c.Camera.PolygonMode = c.PolygonMode
	})
	return nil
}

func (s *CameraSystem) Shutdown() {
	if s.scene == nil {
		return
	}
	for id, cam := range s.cameras {
		s.scene.DestroyCamera(cam)
		if c, ok := ecs.Components[component.Camera](s.world).Get(id); ok {
			c.Camera = nil
		}
	}
	clear(s.cameras)
}

// Camera returns the scene camera of entity id once it is attached to a node.
func (s *CameraSystem) Camera(id ecs.EntityID) (*scene.Camera, bool) {
	cam, ok := s.cameras[id]
	if !ok || cam.Node() == nil {
		return nil, false
	}
	return cam, true
}
