package system

import (
	"errors"
	"time"

	"github.com/thrive/thrive/internal/component"
	"github.com/thrive/thrive/internal/core/ecs"
	coresys "github.com/thrive/thrive/internal/core/system"
	"github.com/thrive/thrive/internal/scene"
	"go.uber.org/zap"
)

// ViewportSystem keeps a root viewport for every Viewport component and binds
// it to the camera system's camera for CameraEntity. It has to run after the
// camera system. Stage 8 (Viewport).
type ViewportSystem struct {
	world     *ecs.World
	root      *scene.Root
	cameras   *CameraSystem
	log       *zap.Logger
	viewports map[ecs.EntityID]*scene.Viewport
}

func NewViewportSystem() *ViewportSystem {
	return &ViewportSystem{viewports: make(map[ecs.EntityID]*scene.Viewport)}
}

func (s *ViewportSystem) Name() string         { return "viewport" }
func (s *ViewportSystem) Stage() coresys.Stage { return coresys.StageViewport }

func (s *ViewportSystem) Init(ctx *coresys.Context) error {
	sys, err := ctx.Lookup(coresys.StageCamera)
	if err != nil {
		return err
	}
	cameras, ok := sys.(*CameraSystem)
	if !ok {
		return errors.New("camera stage is not a CameraSystem")
	}
	if ctx.Root == nil {
		return errors.New("viewport system needs a rendering root")
	}
	s.world = ctx.World
	s.root = ctx.Root
	s.cameras = cameras
	s.log = ctx.Log
	return nil
}

func (s *ViewportSystem) Update(_ time.Duration) error {
	store := ecs.Components[component.Viewport](s.world)
	for _, id := range sortedIDs(s.viewports) {
		c, ok := store.Get(id)
		if ok && c.Viewport == s.viewports[id] && c.ZOrder == c.Viewport.ZOrder() {
			continue
		}
		s.root.RemoveViewport(s.viewports[id])
		delete(s.viewports, id)
		if ok {
			c.Viewport = nil
		}
	}

	store.Each(func(id ecs.EntityID, c *component.Viewport) {
		if c.Viewport == nil {
			v, err := s.root.AddViewport(nil, c.ZOrder)
			if err != nil {
				s.log.Debug("add viewport failed", zap.Stringer("entity", id), zap.Error(err))
				return
			}
			c.Viewport = v
			s.viewports[id] = v
		}
		v := c.Viewport
		v.SetDimensions(c.Left, c.Top, c.Width, c.Height)
		v.Background = c.Background
		cam, ok := s.cameras.Camera(c.CameraEntity)
		if !ok {
			s.log.Debug("viewport camera not ready",
				zap.Stringer("entity", id), zap.Stringer("camera", c.CameraEntity))
			cam = nil
		}
		v.SetCamera(cam)
	})
	return nil
}

func (s *ViewportSystem) Shutdown() {
	if s.root == nil {
		return
	}
	for id, v := range s.viewports {
		s.root.RemoveViewport(v)
		if c, ok := ecs.Components[component.Viewport](s.world).Get(id); ok {
			c.Viewport = nil
		}
	}
	clear(s.viewports)
}

// Viewport returns the root viewport of entity id.
func (s *ViewportSystem) Viewport(id ecs.EntityID) (*scene.Viewport, bool) {
	v, ok := s.viewports[id]
	return v, ok
}

// ActiveCamera returns the camera shown by the top-most viewport.
func (s *ViewportSystem) ActiveCamera() (*scene.Camera, bool) {
	if s.root == nil {
		return nil, false
	}
	vps := s.root.Viewports()
	for i := len(vps) - 1; i >= 0; i-- {
		if cam := vps[i].Camera(); cam != nil {
			return cam, true
		}
	}
	return nil, false
}
