package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrive/thrive/internal/component"
	"github.com/thrive/thrive/internal/core/ecs"
	"github.com/thrive/thrive/internal/core/event"
	coresys "github.com/thrive/thrive/internal/core/system"
	"github.com/thrive/thrive/internal/display"
	"github.com/thrive/thrive/internal/input"
	"github.com/thrive/thrive/internal/resource"
	"github.com/thrive/thrive/internal/scene"
	"go.uber.org/zap"
)

const cellMesh = `
name: cell
glyphs:
  - pos: [0, 0, 0]
    char: "@"
`

type fixture struct {
	world     *ecs.World
	window    *display.Window
	root      *scene.Root
	scene     *scene.Manager
	input     *input.Manager
	bus       *event.Bus
	pipeline  *coresys.Pipeline
	keyboard  *KeyboardSystem
	cameras   *CameraSystem
	lights    *LightSystem
	entities  *EntitySystem
	viewports *ViewportSystem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()

	media := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(media, "cell.yaml"), []byte(cellMesh), 0o644))
	res := resource.NewManager(log)
	require.NoError(t, res.AddLocation(resource.Location{Group: "General", Type: resource.TypeFileSystem, Path: media}))
	require.NoError(t, res.InitialiseAll())

	w, err := display.Open(func() (tcell.Screen, error) {
		return tcell.NewSimulationScreen("UTF-8"), nil
	}, display.Config{ColorMode: display.ColorTrue}, "test", log)
	require.NoError(t, err)
	w.Screen().(tcell.SimulationScreen).SetSize(40, 20)
	w.MessagePump()
	t.Cleanup(w.Destroy)

	root, err := scene.NewRoot("", log)
	require.NoError(t, err)
	t.Cleanup(root.Release)
	require.NoError(t, root.Initialise(w))
	mgr, err := root.CreateSceneManager(scene.DefaultSceneManager)
	require.NoError(t, err)
	mgr.SetAmbientLight(scene.Grey(1))

	f := &fixture{
		world:     ecs.NewWorld(),
		window:    w,
		root:      root,
		scene:     mgr,
		input:     input.NewManager(w, log),
		bus:       event.NewBus(),
		pipeline:  coresys.NewPipeline(log),
		keyboard:  NewKeyboardSystem(),
		cameras:   NewCameraSystem(),
		lights:    NewLightSystem(),
		entities:  NewEntitySystem(),
		viewports: NewViewportSystem(),
	}
	for _, s := range []coresys.System{
		f.keyboard,
		NewAddSceneNodeSystem(),
		NewUpdateSceneNodeSystem(),
		f.cameras,
		f.lights,
		NewSkySystem(),
		f.entities,
		f.viewports,
		NewRemoveSceneNodeSystem(),
		NewRenderSystem(),
		NewCleanupSystem(),
	} {
		require.NoError(t, f.pipeline.Register(s))
	}
	require.NoError(t, f.pipeline.Init(&coresys.Context{
		World:     f.world,
		Bus:       f.bus,
		Log:       log,
		Root:      root,
		Scene:     mgr,
		Window:    w,
		Input:     f.input,
		Resources: res,
	}))
	t.Cleanup(f.pipeline.Shutdown)
	return f
}

// addCamera creates a camera at (0,0,10) looking at the origin and a full
// window viewport showing it.
func (f *fixture) addCamera() (camera, viewport ecs.EntityID) {
	camera = f.world.CreateEntity()
	ecs.Components[component.SceneNode](f.world).Set(camera, component.NewSceneNode(scene.Vec3{Z: 10}))
	ecs.Components[component.Camera](f.world).Set(camera, &component.Camera{})
	viewport = f.world.CreateEntity()
	ecs.Components[component.Viewport](f.world).Set(viewport, component.FullViewport(camera, 0))
	return camera, viewport
}

func (f *fixture) addModel(mesh string, pos scene.Vec3) ecs.EntityID {
	id := f.world.CreateEntity()
	ecs.Components[component.SceneNode](f.world).Set(id, component.NewSceneNode(pos))
	ecs.Components[component.Model](f.world).Set(id, &component.Model{MeshName: mesh, Visible: true})
	return id
}

func (f *fixture) cell(x, y int) rune {
	r, _, _, _ := f.window.Screen().GetContent(x, y)
	return r
}

func (f *fixture) frame(t *testing.T) {
	t.Helper()
	require.NoError(t, f.pipeline.Update(16*time.Millisecond))
}

func TestPipelineDrawsModelThroughCameraAndViewport(t *testing.T) {
	f := newFixture(t)
	cam, vp := f.addCamera()
	model := f.addModel("cell.yaml", scene.VecZero)

	f.frame(t)

	assert.Equal(t, '@', f.cell(20, 10))
	_, ok := f.cameras.Camera(cam)
	assert.True(t, ok)
	v, ok := f.viewports.Viewport(vp)
	require.True(t, ok)
	assert.NotNil(t, v.Camera())
	active, ok := f.viewports.ActiveCamera()
	require.True(t, ok)
	assert.Equal(t, cam.String(), active.Name())

	c, _ := ecs.Components[component.Model](f.world).Get(model)
	require.NotNil(t, c.Entity)
	assert.Equal(t, 1, f.root.LastFrame().Glyphs)
}

func TestMissingMeshSkipsOnlyThatEntity(t *testing.T) {
	f := newFixture(t)
	f.addCamera()
	broken := f.addModel("missing.yaml", scene.Vec3{X: 1})
	good := f.addModel("cell.yaml", scene.VecZero)

	f.frame(t)

	models := ecs.Components[component.Model](f.world)
	b, _ := models.Get(broken)
	g, _ := models.Get(good)
	assert.Nil(t, b.Entity)
	assert.NotNil(t, g.Entity)
	assert.Equal(t, uint64(1), f.root.LastFrame().Frame, "render still ran")
	assert.Equal(t, '@', f.cell(20, 10))

	// fixing the name retries the load
	b.MeshName = "cell.yaml"
	f.frame(t)
	assert.NotNil(t, b.Entity)
	assert.Equal(t, 1, f.entities.Meshes().Len())
}

func TestChildWaitsForParentNode(t *testing.T) {
	f := newFixture(t)
	nodes := ecs.Components[component.SceneNode](f.world)

	child := f.world.CreateEntity()
	parent := f.world.CreateEntity()
	cn := component.NewSceneNode(scene.Vec3{X: 1})
	cn.Parent = parent
	nodes.Set(child, cn)
	nodes.Set(parent, component.NewSceneNode(scene.Vec3{X: 10}))

	f.frame(t)
	assert.Nil(t, cn.Node, "parent node does not exist yet")

	f.frame(t)
	require.NotNil(t, cn.Node)
	assert.Equal(t, scene.Vec3{X: 11}, cn.Node.DerivedPosition())
}

func TestChildOfMissingParentIsSkipped(t *testing.T) {
	f := newFixture(t)
	nodes := ecs.Components[component.SceneNode](f.world)
	orphan := f.world.CreateEntity()
	cn := component.NewSceneNode(scene.VecZero)
	cn.Parent = ecs.NewEntityID(99, 1)
	nodes.Set(orphan, cn)
	sibling := f.world.CreateEntity()
	nodes.Set(sibling, component.NewSceneNode(scene.VecZero))

	f.frame(t)
	assert.Nil(t, cn.Node)
	sn, _ := nodes.Get(sibling)
	assert.NotNil(t, sn.Node)
}

func TestDirtyTransformIsPushed(t *testing.T) {
	f := newFixture(t)
	id := f.addModel("cell.yaml", scene.VecZero)
	f.frame(t)

	sn, _ := ecs.Components[component.SceneNode](f.world).Get(id)
	sn.Position = scene.Vec3{X: 3}
	f.frame(t)
	assert.Equal(t, scene.VecZero, sn.Node.Position(), "not dirty, not pushed")

	sn.Dirty = true
	f.frame(t)
	assert.Equal(t, scene.Vec3{X: 3}, sn.Node.Position())
	assert.False(t, sn.Dirty)
}

func TestReparentThroughDirtyFlag(t *testing.T) {
	f := newFixture(t)
	nodes := ecs.Components[component.SceneNode](f.world)
	a := f.world.CreateEntity()
	b := f.world.CreateEntity()
	nodes.Set(a, component.NewSceneNode(scene.Vec3{X: 5}))
	nodes.Set(b, component.NewSceneNode(scene.VecZero))
	f.frame(t)

	bn, _ := nodes.Get(b)
	an, _ := nodes.Get(a)
	bn.Parent = a
	bn.Dirty = true
	f.frame(t)
	assert.Same(t, an.Node, bn.Node.Parent())

	// a cycle is rejected and the old parent kept
	an.Parent = b
	an.Dirty = true
	f.frame(t)
	assert.Same(t, f.scene.RootNode(), an.Node.Parent())
}

func TestChildFollowsParentWhoseNodeIsRecreated(t *testing.T) {
	f := newFixture(t)
	nodes := ecs.Components[component.SceneNode](f.world)
	parent := f.world.CreateEntity()
	child := f.world.CreateEntity()
	nodes.Set(parent, component.NewSceneNode(scene.Vec3{X: 5}))
	cn := component.NewSceneNode(scene.Vec3{X: 1})
	cn.Parent = parent
	nodes.Set(child, cn)
	f.frame(t)
	f.frame(t)
	require.NotNil(t, cn.Node)
	assert.Equal(t, scene.Vec3{X: 6}, cn.Node.DerivedPosition())

	nodes.Remove(parent)
	f.frame(t)
	assert.Same(t, f.scene.RootNode(), cn.Node.Parent())

	// transforms still reach the orphan while it waits
	cn.Position = scene.Vec3{X: 2}
	cn.Dirty = true
	f.frame(t)
	assert.Equal(t, scene.Vec3{X: 2}, cn.Node.DerivedPosition())

	nodes.Set(parent, component.NewSceneNode(scene.Vec3{X: 5}))
	f.frame(t)
	pn, _ := nodes.Get(parent)
	require.NotNil(t, pn.Node)
	assert.Same(t, pn.Node, cn.Node.Parent())
	assert.Equal(t, scene.Vec3{X: 7}, cn.Node.DerivedPosition())
}

func TestDestroyedEntityLosesItsSceneObjects(t *testing.T) {
	f := newFixture(t)
	f.addCamera()
	id := f.addModel("cell.yaml", scene.VecZero)
	f.frame(t)
	nodesBefore := f.scene.NodeCount()

	f.world.MarkForDestruction(id)
	f.frame(t) // cleanup runs last
	assert.False(t, f.world.Alive(id))

	f.frame(t)
	assert.Equal(t, nodesBefore-1, f.scene.NodeCount())
	assert.Empty(t, f.scene.Entities())
	assert.Equal(t, ' ', f.cell(20, 10))
}

func TestRemovingCameraNodeClearsViewport(t *testing.T) {
	f := newFixture(t)
	cam, vp := f.addCamera()
	f.addModel("cell.yaml", scene.VecZero)
	f.frame(t)

	ecs.Components[component.SceneNode](f.world).Remove(cam)
	f.frame(t)

	v, ok := f.viewports.Viewport(vp)
	require.True(t, ok)
	assert.Nil(t, v.Camera())
	_, ok = f.cameras.Camera(cam)
	assert.False(t, ok)
	f.frame(t)
}

func TestLightAndSkyFollowComponents(t *testing.T) {
	f := newFixture(t)
	f.addCamera()
	lamp := f.world.CreateEntity()
	ecs.Components[component.SceneNode](f.world).Set(lamp, component.NewSceneNode(scene.VecZero))
	ecs.Components[component.Light](f.world).Set(lamp, &component.Light{Diffuse: scene.ColourWhite, Range: 5})
	sky := f.world.CreateEntity()
	ecs.Components[component.SkyPlane](f.world).Set(sky, &component.SkyPlane{Enabled: true, Top: scene.ColourBlack, Bottom: scene.ColourWhite})

	f.frame(t)
	assert.Equal(t, 1, f.lights.Len())
	require.Len(t, f.scene.Lights(), 1)
	assert.Equal(t, 5.0, f.scene.Lights()[0].Range)
	assert.True(t, f.scene.SkyPlane().Enabled)

	ecs.Components[component.Light](f.world).Remove(lamp)
	ecs.Components[component.SkyPlane](f.world).Remove(sky)
	f.frame(t)
	assert.Zero(t, f.lights.Len())
	assert.Empty(t, f.scene.Lights())
	assert.False(t, f.scene.SkyPlane().Enabled)
}

func TestKeyboardDrainsInputAndEmits(t *testing.T) {
	f := newFixture(t)
	var got []event.KeyPressed
	event.Subscribe(f.bus, func(e event.KeyPressed) { got = append(got, e) })

	screen := f.window.Screen()
	require.NoError(t, screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
	require.NoError(t, screen.PostEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
	f.window.MessagePump()

	f.frame(t)
	assert.Len(t, f.keyboard.Pressed(), 2)
	assert.True(t, f.keyboard.IsPressed(tcell.KeyRune, 'q'))
	assert.False(t, f.keyboard.IsPressed(tcell.KeyRune, 'x'))
	assert.True(t, f.keyboard.IsPressed(tcell.KeyEscape, 0))

	f.bus.SwapBuffers()
	f.bus.DispatchAll()
	require.Len(t, got, 2)
	assert.Equal(t, 'q', got[0].Rune)

	f.frame(t)
	assert.Empty(t, f.keyboard.Pressed())
}

func TestViewportSystemNeedsCameraSystem(t *testing.T) {
	p := coresys.NewPipeline(nil)
	require.NoError(t, p.Register(NewViewportSystem()))
	err := p.Init(&coresys.Context{World: ecs.NewWorld()})
	require.Error(t, err)
	p.Shutdown()
}

func TestShutdownReleasesSceneObjects(t *testing.T) {
	f := newFixture(t)
	f.addCamera()
	f.addModel("cell.yaml", scene.VecZero)
	f.frame(t)
	require.NotZero(t, f.scene.NodeCount())

	f.pipeline.Shutdown()
	assert.Zero(t, f.scene.NodeCount())
	assert.Zero(t, f.scene.CameraCount())
	assert.Empty(t, f.scene.Entities())
	assert.Empty(t, f.root.Viewports())
}
