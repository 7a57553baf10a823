package system

import (
	"time"

	"github.com/thrive/thrive/internal/component"
	"github.com/thrive/thrive/internal/core/ecs"
	coresys "github.com/thrive/thrive/internal/core/system"
	"github.com/thrive/thrive/internal/scene"
	"go.uber.org/zap"
)

// EntitySystem places a mesh instance for every Model component. Meshes are
// loaded through the resource manager; a model whose mesh cannot be loaded is
// skipped until its MeshName changes. Stage 7 (Entity).
type EntitySystem struct {
	world    *ecs.World
	scene    *scene.Manager
	meshes   *scene.MeshCache
	log      *zap.Logger
	entities map[ecs.EntityID]placedMesh
	failed   map[ecs.EntityID]string
}

type placedMesh struct {
	entity *scene.Entity
	mesh   string
}

func NewEntitySystem() *EntitySystem {
	return &EntitySystem{
		entities: make(map[ecs.EntityID]placedMesh),
		failed:   make(map[ecs.EntityID]string),
	}
}

func (s *EntitySystem) Name() string         { return "entity" }
func (s *EntitySystem) Stage() coresys.Stage { return coresys.StageEntity }

func (s *EntitySystem) Init(ctx *coresys.Context) error {
	s.world = ctx.World
	s.scene = ctx.Scene
	s.meshes = scene.NewMeshCache(ctx.Resources)
	s.log = ctx.Log
	return nil
}

func (s *EntitySystem) Update(_ time.Duration) error {
	store := ecs.Components[component.Model](s.world)
	for _, id := range sortedIDs(s.entities) {
		placed := s.entities[id]
		c, ok := store.Get(id)
		if ok && c.Entity == placed.entity && c.MeshName == placed.mesh {
			continue
		}
		s.scene.DestroyEntity(placed.entity)
		delete(s.entities, id)
		if ok && c.Entity == placed.entity {
			c.Entity = nil
		}
	}
	for _, id := range sortedIDs(s.failed) {
		if c, ok := store.Get(id); !ok || c.MeshName != s.failed[id] {
			delete(s.failed, id)
		}
	}

	nodes := ecs.Components[component.SceneNode](s.world)
	ecs.Each2(store, nodes, func(id ecs.EntityID, c *component.Model, sn *component.SceneNode) {
		node := sn.Node
		if node == nil {
			s.log.Debug("model entity has no scene node yet, skipping", zap.Stringer("entity", id))
			return
		}
		if c.Entity == nil {
			if _, bad := s.failed[id]; bad {
				return
			}
			mesh, err := s.meshes.Load(c.MeshName)
			if err != nil {
				s.failed[id] = c.MeshName
				s.log.Debug("mesh unavailable, skipping entity",
					zap.Stringer("entity", id), zap.String("mesh", c.MeshName), zap.Error(err))
				return
			}
			e, err := s.scene.CreateEntity(id.String(), mesh)
			if err != nil {
				s.log.Debug("create entity failed", zap.Stringer("entity", id), zap.Error(err))
				return
			}
			c.Entity = e
			s.entities[id] = placedMesh{entity: e, mesh: c.MeshName}
		}
		if c.Entity.Node() != node {
			node.Attach(c.Entity)
		}
		c.Entity.Visible = c.Visible
	})
	return nil
}

func (s *EntitySystem) Shutdown() {
	if s.scene == nil {
		return
	}
	for id, placed := range s.entities {
		s.scene.DestroyEntity(placed.entity)
		if c, ok := ecs.Components[component.Model](s.world).Get(id); ok {
			c.Entity = nil
		}
	}
	clear(s.entities)
	clear(s.failed)
}

// Meshes exposes the mesh cache.
func (s *EntitySystem) Meshes() *scene.MeshCache { return s.meshes }
