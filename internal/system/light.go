package system

import (
	"time"

	"github.com/thrive/thrive/internal/component"
	"github.com/thrive/thrive/internal/core/ecs"
	coresys "github.com/thrive/thrive/internal/core/system"
	"github.com/thrive/thrive/internal/scene"
	"go.uber.org/zap"
)

// LightSystem keeps a scene light for every Light component. Stage 5 (Light).
type LightSystem struct {
	world  *ecs.World
	scene  *scene.Manager
	log    *zap.Logger
	lights map[ecs.EntityID]*scene.Light
}

func NewLightSystem() *LightSystem {
	return &LightSystem{lights: make(map[ecs.EntityID]*scene.Light)}
}

func (s *LightSystem) Name() string         { return "light" }
func (s *LightSystem) Stage() coresys.Stage { return coresys.StageLight }

func (s *LightSystem) Init(ctx *coresys.Context) error {
	s.world = ctx.World
	s.scene = ctx.Scene
	s.log = ctx.Log
	return nil
}

func (s *LightSystem) Update(_ time.Duration) error {
	store := ecs.Components[component.Light](s.world)
	for _, id := range sortedIDs(s.lights) {
		if c, ok := store.Get(id); !ok || c.Light != s.lights[id] {
			s.scene.DestroyLight(s.lights[id])
			delete(s.lights, id)
		}
	}
	nodes := ecs.Components[component.SceneNode](s.world)
	ecs.Each2(store, nodes, func(id ecs.EntityID, c *component.Light, sn *component.SceneNode) {
		node := sn.Node
		if node == nil {
			s.log.Debug("light entity has no scene node yet, skipping", zap.Stringer("entity", id))
			return
		}
		if c.Light == nil {
			l, err := s.scene.CreateLight(id.String())
			if err != nil {
				s.log.Debug("create light failed", zap.Stringer("entity", id), zap.Error(err))
				return
			}
			c.Light = l
			s.lights[id] = l
		}
		if c.Light.Node() != node {
			node.Attach(c.Light)
		}
		c.Light.Type = c.Type
		c.Light.Diffuse = c.Diffuse
		c.Light.Range = c.Range
	})
	return nil
}

func (s *LightSystem) Shutdown() {
	if s.scene == nil {
		return
	}
	for id, l := range s.lights {
		s.scene.DestroyLight(l)
		if c, ok := ecs.Components[component.Light](s.world).Get(id); ok {
			c.Light = nil
		}
	}
	clear(s.lights)
}

// Len returns the number of live scene lights.
func (s *LightSystem) Len() int { return len(s.lights) }
