package game

import (
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/thrive/thrive/internal/component"
	"github.com/thrive/thrive/internal/core/ecs"
	"github.com/thrive/thrive/internal/core/event"
	coresys "github.com/thrive/thrive/internal/core/system"
	"github.com/thrive/thrive/internal/scene"
	"go.uber.org/zap"
)

// Spin rotates an entity's SceneNode about Axis.
type Spin struct {
	Axis   scene.Vec3
	Speed  float64 // radians per second
	Paused bool
}

// Demo holds the entities of the demo scene.
type Demo struct {
	Camera   ecs.EntityID
	Viewport ecs.EntityID
	Light    ecs.EntityID
	Sky      ecs.EntityID
	Cell     ecs.EntityID
	Nucleus  ecs.EntityID
}

// BuildDemoScene populates world with a spinning cell seen from a camera.
func BuildDemoScene(w *ecs.World) Demo {
	nodes := ecs.Components[component.SceneNode](w)
	models := ecs.Components[component.Model](w)
	var d Demo

	d.Camera = w.CreateEntity()
	nodes.Set(d.Camera, component.NewSceneNode(scene.Vec3{Z: 12}))
	ecs.Components[component.Camera](w).Set(d.Camera, &component.Camera{FOVy: math.Pi / 3, NearClip: 0.5, FarClip: 100})

	d.Viewport = w.CreateEntity()
	ecs.Components[component.Viewport](w).Set(d.Viewport, component.FullViewport(d.Camera, 0))

	d.Light = w.CreateEntity()
	nodes.Set(d.Light, component.NewSceneNode(scene.Vec3{X: 6, Y: 6, Z: 6}))
	ecs.Components[component.Light](w).Set(d.Light, &component.Light{
		Type:    scene.LightPoint,
		Diffuse: scene.Colour{R: 0.6, G: 0.6, B: 0.5},
		Range:   25,
	})

	d.Sky = w.CreateEntity()
	ecs.Components[component.SkyPlane](w).Set(d.Sky, &component.SkyPlane{
		Enabled: true,
		Top:     scene.Colour{R: 0.02, G: 0.05, B: 0.15},
		Bottom:  scene.Colour{R: 0.0, G: 0.15, B: 0.2},
	})

	d.Cell = w.CreateEntity()
	nodes.Set(d.Cell, component.NewSceneNode(scene.VecZero))
	models.Set(d.Cell, &component.Model{MeshName: "membrane.yaml", Visible: true})
	ecs.Components[Spin](w).Set(d.Cell, &Spin{Axis: scene.Vec3{Y: 1}, Speed: 0.8})

	d.Nucleus = w.CreateEntity()
	nucleus := component.NewSceneNode(scene.VecZero)
	nucleus.Parent = d.Cell
	nodes.Set(d.Nucleus, nucleus)
	models.Set(d.Nucleus, &component.Model{MeshName: "nucleus.yaml", Visible: true})
	return d
}

// SpinSystem turns every Spin entity. Entities without a SceneNode are
// skipped. Stage 1 (Gameplay).
type SpinSystem struct {
	world *ecs.World
}

func NewSpinSystem() *SpinSystem { return &SpinSystem{} }

func (s *SpinSystem) Name() string         { return "spin" }
func (s *SpinSystem) Stage() coresys.Stage { return coresys.StageGameplay }

func (s *SpinSystem) Init(ctx *coresys.Context) error {
	s.world = ctx.World
	return nil
}

func (s *SpinSystem) Update(dt time.Duration) error {
	if dt == 0 {
		return nil
	}
	nodes := ecs.Components[component.SceneNode](s.world)
	ecs.Each2(ecs.Components[Spin](s.world), nodes, func(_ ecs.EntityID, sp *Spin, n *component.SceneNode) {
		if sp.Paused {
			return
		}
		step := scene.QuatFromAxisAngle(sp.Axis, sp.Speed*dt.Seconds())
		n.Orientation = step.Mul(n.Orientation)
		n.Dirty = true
	})
	return nil
}

func (s *SpinSystem) Shutdown() {}

// ControlSystem maps keys to game actions: Esc, q and Ctrl-C quit, p cycles
// the camera polygon mode, space pauses spinning, x pops the spinning models,
// arrows move the camera. It also logs window size changes. Stage 1
// (Gameplay).
type ControlSystem struct {
	quitter interface{ Quit() }
	world   *ecs.World
	log     *zap.Logger
	keys    []event.KeyPressed
}

func NewControlSystem(quitter interface{ Quit() }) *ControlSystem {
	return &ControlSystem{quitter: quitter}
}

func (s *ControlSystem) Name() string         { return "controls" }
func (s *ControlSystem) Stage() coresys.Stage { return coresys.StageGameplay }

func (s *ControlSystem) Init(ctx *coresys.Context) error {
	s.world = ctx.World
	s.log = ctx.Log
	if s.log == nil {
		s.log = zap.NewNop()
	}
	event.Subscribe(ctx.Bus, func(k event.KeyPressed) {
		s.keys = append(s.keys, k)
	})
	event.Subscribe(ctx.Bus, func(r event.WindowResized) {
		s.log.Info("window resized", zap.Int("width", r.Width), zap.Int("height", r.Height))
	})
	event.Subscribe(ctx.Bus, func(event.WindowClosed) {
		s.log.Info("window closed, leaving after this frame")
	})
	return nil
}

func (s *ControlSystem) Update(_ time.Duration) error {
	for _, k := range s.keys {
		s.handle(k)
	}
	s.keys = s.keys[:0]
	return nil
}

func (s *ControlSystem) handle(k event.KeyPressed) {
	switch {
	case k.Key == tcell.KeyEscape, k.Key == tcell.KeyCtrlC, k.Key == tcell.KeyRune && k.Rune == 'q':
		s.quitter.Quit()
	case k.Key == tcell.KeyRune && k.Rune == 'p':
		ecs.Components[component.Camera](s.world).Each(func(_ ecs.EntityID, c *component.Camera) {
			c.PolygonMode = (c.PolygonMode + 1) % 3
		})
	case k.Key == tcell.KeyRune && k.Rune == ' ':
		ecs.Components[Spin](s.world).Each(func(_ ecs.EntityID, sp *Spin) {
			sp.Paused = !sp.Paused
		})
	case k.Key == tcell.KeyRune && k.Rune == 'x':
		s.popSpinning()
	case k.Key == tcell.KeyLeft:
		s.moveCameras(scene.Vec3{X: -0.5})
	case k.Key == tcell.KeyRight:
		s.moveCameras(scene.Vec3{X: 0.5})
	case k.Key == tcell.KeyUp:
		s.moveCameras(scene.Vec3{Z: -0.5})
	case k.Key == tcell.KeyDown:
		s.moveCameras(scene.Vec3{Z: 0.5})
	}
}

func (s *ControlSystem) moveCameras(delta scene.Vec3) {
	cameras := ecs.Components[component.Camera](s.world)
	nodes := ecs.Components[component.SceneNode](s.world)
	ecs.Each2(cameras, nodes, func(_ ecs.EntityID, _ *component.Camera, n *component.SceneNode) {
		n.Position = n.Position.Add(delta)
		n.Dirty = true
	})
}

// popSpinning destroys every spinning model at the end of the frame. Their
// children stay in the scene under the root node.
func (s *ControlSystem) popSpinning() {
	spins := ecs.Components[Spin](s.world)
	nodes := ecs.Components[component.SceneNode](s.world)
	models := ecs.Components[component.Model](s.world)
	ecs.Each3(spins, nodes, models, func(id ecs.EntityID, _ *Spin, _ *component.SceneNode, _ *component.Model) {
		s.world.MarkForDestruction(id)
		s.log.Info("model popped", zap.Stringer("entity", id))
	})
}

func (s *ControlSystem) Shutdown() {
	s.keys = nil
}
