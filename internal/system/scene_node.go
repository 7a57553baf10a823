package system

import (
	"errors"
	"slices"
	"time"

	"github.com/thrive/thrive/internal/component"
	"github.com/thrive/thrive/internal/core/ecs"
	coresys "github.com/thrive/thrive/internal/core/system"
	"github.com/thrive/thrive/internal/scene"
	"go.uber.org/zap"
)

// AddSceneNodeSystem creates a scene node for every SceneNode component that
// does not have one yet. Stage 2 (SceneNodeAdd).
//
// An entity whose parent has no node yet is skipped and retried next frame.
type AddSceneNodeSystem struct {
	world *ecs.World
	scene *scene.Manager
	log   *zap.Logger

	// nodes created by this system, by owner. Shared with the update and
	// remove systems. An owner missing from parents sits under the root node
	// because its parent's node was destroyed.
	nodes   map[ecs.EntityID]*scene.Node
	parents map[ecs.EntityID]ecs.EntityID
}

func NewAddSceneNodeSystem() *AddSceneNodeSystem {
	return &AddSceneNodeSystem{
		nodes:   make(map[ecs.EntityID]*scene.Node),
		parents: make(map[ecs.EntityID]ecs.EntityID),
	}
}

func (s *AddSceneNodeSystem) Name() string         { return "scene-node-add" }
func (s *AddSceneNodeSystem) Stage() coresys.Stage { return coresys.StageSceneNodeAdd }

func (s *AddSceneNodeSystem) Init(ctx *coresys.Context) error {
	if ctx.World == nil || ctx.Scene == nil {
		return errors.New("scene node system needs a world and a scene manager")
	}
	s.world = ctx.World
	s.scene = ctx.Scene
	s.log = ctx.Log
	return nil
}

func (s *AddSceneNodeSystem) Update(_ time.Duration) error {
	ecs.Components[component.SceneNode](s.world).Each(func(id ecs.EntityID, c *component.SceneNode) {
		if c.Node != nil {
			return
		}
		parent, ok := s.parentNode(c.Parent)
		if !ok {
			s.log.Debug("scene node parent not ready, skipping",
				zap.Stringer("entity", id), zap.Stringer("parent", c.Parent))
			return
		}
		n, err := s.scene.CreateSceneNode(id.String())
		if err != nil {
			s.log.Debug("create scene node failed", zap.Stringer("entity", id), zap.Error(err))
			return
		}
		if err := n.SetParent(parent); err != nil {
			s.scene.DestroySceneNode(n)
			s.log.Debug("attach scene node failed", zap.Stringer("entity", id), zap.Error(err))
			return
		}
		applyTransform(n, c)
		c.Node = n
		c.Dirty = false
		s.nodes[id] = n
		s.parents[id] = c.Parent
	})
	return nil
}

func (s *AddSceneNodeSystem) parentNode(parent ecs.EntityID) (*scene.Node, bool) {
	if parent == ecs.NoEntity {
		return s.scene.RootNode(), true
	}
	n, ok := s.nodes[parent]
	return n, ok
}

// Shutdown destroys every node this system created.
func (s *AddSceneNodeSystem) Shutdown() {
	if s.scene == nil {
		return
	}
	for id, n := range s.nodes {
		s.scene.DestroySceneNode(n)
		if c, ok := ecs.Components[component.SceneNode](s.world).Get(id); ok {
			c.Node = nil
		}
	}
	clear(s.nodes)
	clear(s.parents)
}

// Node returns the scene node created for id.
func (s *AddSceneNodeSystem) Node(id ecs.EntityID) (*scene.Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

func applyTransform(n *scene.Node, c *component.SceneNode) {
	n.SetPosition(c.Position)
	n.SetOrientation(c.Orientation)
	n.SetScale(c.Scale)
}

func lookupNodes(ctx *coresys.Context) (*AddSceneNodeSystem, error) {
	sys, err := ctx.Lookup(coresys.StageSceneNodeAdd)
	if err != nil {
		return nil, err
	}
	add, ok := sys.(*AddSceneNodeSystem)
	if !ok {
		return nil, errors.New("scene-node-add stage is not an AddSceneNodeSystem")
	}
	return add, nil
}

// UpdateSceneNodeSystem copies dirty transforms and parent changes into the
// scene graph. Stage 3 (SceneNodeUpdate).
type UpdateSceneNodeSystem struct {
	world *ecs.World
	nodes *AddSceneNodeSystem
	log   *zap.Logger
}

func NewUpdateSceneNodeSystem() *UpdateSceneNodeSystem {
	return &UpdateSceneNodeSystem{}
}

func (s *UpdateSceneNodeSystem) Name() string         { return "scene-node-update" }
func (s *UpdateSceneNodeSystem) Stage() coresys.Stage { return coresys.StageSceneNodeUpdate }

func (s *UpdateSceneNodeSystem) Init(ctx *coresys.Context) error {
	nodes, err := lookupNodes(ctx)
	if err != nil {
		return err
	}
	s.world = ctx.World
	s.nodes = nodes
	s.log = ctx.Log
	return nil
}

// Update also reattaches nodes orphaned by a removed parent as soon as that
// parent has a node again, without waiting for the dirty flag. Until then an
// orphan stays under the root node and still receives its transforms.
func (s *UpdateSceneNodeSystem) Update(_ time.Duration) error {
	ecs.Components[component.SceneNode](s.world).Each(func(id ecs.EntityID, c *component.SceneNode) {
		if c.Node == nil {
			return
		}
		current, attached := s.nodes.parents[id]
		switch {
		case !attached:
			s.reparent(id, c)
		case !c.Dirty:
			return
		case c.Parent != current:
			if !s.reparent(id, c) {
				return
			}
		}
		if c.Dirty {
			applyTransform(c.Node, c)
			c.Dirty = false
		}
	})
	return nil
}

func (s *UpdateSceneNodeSystem) reparent(id ecs.EntityID, c *component.SceneNode) bool {
	parent, ok := s.nodes.parentNode(c.Parent)
	if !ok {
		s.log.Debug("parent has no scene node, keeping current parent",
			zap.Stringer("entity", id), zap.Stringer("parent", c.Parent))
		return false
	}
	if err := c.Node.SetParent(parent); err != nil {
		s.log.Debug("reparent failed", zap.Stringer("entity", id), zap.Error(err))
		return false
	}
	s.nodes.parents[id] = c.Parent
	return true
}

func (s *UpdateSceneNodeSystem) Shutdown() {}

// RemoveSceneNodeSystem destroys the scene nodes of entities that lost their
// SceneNode component or were destroyed. Viewports still showing a camera on
// a removed node are cleared so the frame stays drawable. Stage 9
// (SceneNodeRemove).
type RemoveSceneNodeSystem struct {
	world *ecs.World
	scene *scene.Manager
	root  *scene.Root
	nodes *AddSceneNodeSystem
	log   *zap.Logger
}

func NewRemoveSceneNodeSystem() *RemoveSceneNodeSystem {
	return &RemoveSceneNodeSystem{}
}

func (s *RemoveSceneNodeSystem) Name() string         { return "scene-node-remove" }
func (s *RemoveSceneNodeSystem) Stage() coresys.Stage { return coresys.StageSceneNodeRemove }

func (s *RemoveSceneNodeSystem) Init(ctx *coresys.Context) error {
	nodes, err := lookupNodes(ctx)
	if err != nil {
		return err
	}
	s.world = ctx.World
	s.scene = ctx.Scene
	s.root = ctx.Root
	s.nodes = nodes
	s.log = ctx.Log
	return nil
}

func (s *RemoveSceneNodeSystem) Update(_ time.Duration) error {
	store := ecs.Components[component.SceneNode](s.world)
	for _, id := range sortedIDs(s.nodes.nodes) {
		n := s.nodes.nodes[id]
		if c, ok := store.Get(id); ok && c.Node == n {
			continue
		}
		s.clearViewports(n)
		s.scene.DestroySceneNode(n)
		delete(s.nodes.nodes, id)
		delete(s.nodes.parents, id)
		s.orphanChildren(id)
		s.log.Debug("scene node removed", zap.Stringer("entity", id))
	}
	return nil
}

// orphanChildren forgets the recorded parent of every node that was attached
// to parent. DestroySceneNode has moved those nodes under the root.
func (s *RemoveSceneNodeSystem) orphanChildren(parent ecs.EntityID) {
	for child, p := range s.nodes.parents {
		if p == parent {
			delete(s.nodes.parents, child)
		}
	}
}

func (s *RemoveSceneNodeSystem) clearViewports(n *scene.Node) {
	if s.root == nil {
		return
	}
	for _, v := range s.root.Viewports() {
		if cam := v.Camera(); cam != nil && cam.Node() == n {
			v.SetCamera(nil)
		}
	}
}

func (s *RemoveSceneNodeSystem) Shutdown() {}

func sortedIDs[V any](m map[ecs.EntityID]V) []ecs.EntityID {
	ids := make([]ecs.EntityID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
