package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrive/thrive/internal/config"
	"github.com/thrive/thrive/internal/core/ecs"
	"github.com/thrive/thrive/internal/core/event"
	coresys "github.com/thrive/thrive/internal/core/system"
	"github.com/thrive/thrive/internal/display"
	"go.uber.org/zap"
)

type quitFlag struct{ quit bool }

func (q *quitFlag) Quit() { q.quit = true }

type memStore struct {
	cfg   display.Config
	ok    bool
	saves int
}

func (s *memStore) Load(context.Context) (display.Config, bool, error) { return s.cfg, s.ok, nil }
func (s *memStore) Save(_ context.Context, cfg display.Config) error {
	s.cfg, s.ok = cfg, true
	s.saves++
	return nil
}
func (s *memStore) Clear(context.Context) error {
	s.ok = false
	return nil
}

type stubDialog struct {
	cfg   display.Config
	ok    bool
	shown int
}

func (d *stubDialog) Show(context.Context) (display.Config, bool, error) {
	d.shown++
	return d.cfg, d.ok, nil
}

type gameplay struct {
	name     string
	initErr  error
	inits    int
	updates  int
	shutdown int
	dts      []time.Duration
	onUpdate func()
}

func (g *gameplay) Name() string         { return g.name }
func (g *gameplay) Stage() coresys.Stage { return coresys.StageGameplay }
func (g *gameplay) Init(*coresys.Context) error {
	g.inits++
	return g.initErr
}
func (g *gameplay) Update(dt time.Duration) error {
	g.updates++
	g.dts = append(g.dts, dt)
	if g.onUpdate != nil {
		g.onUpdate()
	}
	return nil
}
func (g *gameplay) Shutdown() { g.shutdown++ }

type harness struct {
	cfg    *config.Config
	store  *memStore
	dialog *stubDialog
	quit   *quitFlag
	exits  []int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}
	write("media/cell.yaml", "glyphs:\n  - pos: [0, 0, 0]\n    char: \"@\"\n")
	cfg := config.Defaults()
	cfg.Resources.Manifest = write("resources.toml", "[groups.General]\nFileSystem = [\"media\"]\n")
	cfg.Plugins.Manifest = write("plugins.toml", "plugins = []\n")
	return &harness{
		cfg:    cfg,
		store:  &memStore{cfg: display.Config{ColorMode: display.ColorTrue}, ok: true},
		dialog: &stubDialog{},
		quit:   &quitFlag{},
	}
}

func (h *harness) engine(world *ecs.World) *Engine {
	return New(world, h.quit, h.cfg,
		WithLogger(zap.NewNop()),
		WithScreenFactory(func() (tcell.Screen, error) { return tcell.NewSimulationScreen("UTF-8"), nil }),
		WithDisplayStore(h.store),
		WithDialog(h.dialog),
		WithExit(func(code int) { h.exits = append(h.exits, code) }),
	)
}

func TestInitRegistersDeclaredOrder(t *testing.T) {
	h := newHarness(t)
	e := h.engine(ecs.NewWorld())
	require.NoError(t, e.AddSystem(&gameplay{name: "spawner"}))
	require.NoError(t, e.AddSystem(&gameplay{name: "mover"}))
	require.NoError(t, e.Init())
	defer e.Shutdown()

	assert.Equal(t, StateInitialized, e.State())
	assert.Equal(t, []string{
		"keyboard", "spawner", "mover",
		"scene-node-add", "scene-node-update", "camera", "light", "sky", "entity",
		"viewport", "scene-node-remove", "render", "cleanup",
	}, e.Pipeline().Names())

	stages := e.Pipeline().Stages()
	for i := 1; i < len(stages); i++ {
		assert.LessOrEqual(t, stages[i-1], stages[i], "stage order at %d", i)
	}

	assert.NotNil(t, e.InputManager())
	assert.NotNil(t, e.Window())
	assert.NotNil(t, e.Root())
	assert.Equal(t, 0.5, e.SceneManager().AmbientLight().R)
	assert.Equal(t, "Thrive", e.Window().Title())
	assert.NotNil(t, e.KeyboardSystem())
	assert.NotNil(t, e.ViewportSystem())
}

func TestUpdateRunsEverySystemEachFrame(t *testing.T) {
	h := newHarness(t)
	e := h.engine(ecs.NewWorld())
	g := &gameplay{name: "g"}
	require.NoError(t, e.AddSystem(g))
	require.NoError(t, e.Init())
	defer e.Shutdown()

	for _, ms := range []int{0, 16, 0, 1000, -3} {
		require.NoError(t, e.Update(ms))
	}
	assert.Equal(t, StateRunning, e.State())
	assert.Equal(t, 1, g.inits)
	assert.Equal(t, 5, g.updates)
	assert.Equal(t, []time.Duration{0, 16 * time.Millisecond, 0, time.Second, 0}, g.dts)
	assert.Equal(t, uint64(5), e.Root().LastFrame().Frame)
}

func TestLifecycleOnlyMovesForward(t *testing.T) {
	h := newHarness(t)
	e := h.engine(ecs.NewWorld())

	require.ErrorIs(t, e.Update(16), ErrInvalidTransition)
	require.ErrorIs(t, e.Shutdown(), ErrInvalidTransition)

	require.NoError(t, e.Init())
	require.ErrorIs(t, e.Init(), ErrInvalidTransition)

	require.NoError(t, e.Update(16))
	require.ErrorIs(t, e.Init(), ErrInvalidTransition)

	require.NoError(t, e.Shutdown())
	assert.Equal(t, StateShutDown, e.State())
	require.ErrorIs(t, e.Update(16), ErrInvalidTransition)
	require.ErrorIs(t, e.Shutdown(), ErrInvalidTransition)
	require.ErrorIs(t, e.Init(), ErrInvalidTransition)
}

func TestShutdownFromInitialized(t *testing.T) {
	h := newHarness(t)
	e := h.engine(ecs.NewWorld())
	g := &gameplay{name: "g"}
	require.NoError(t, e.AddSystem(g))
	require.NoError(t, e.Init())

	require.NoError(t, e.Shutdown())
	assert.Equal(t, 1, g.shutdown)
	assert.Zero(t, g.updates)
	assert.Nil(t, e.InputManager())
}

func TestSystemAddedAfterInitNeverRuns(t *testing.T) {
	h := newHarness(t)
	e := h.engine(ecs.NewWorld())
	require.NoError(t, e.Init())
	defer e.Shutdown()

	late := &gameplay{name: "late"}
	require.ErrorIs(t, e.AddSystem(late), coresys.ErrRegistrationClosed)
	require.ErrorIs(t, e.Pipeline().Register(late), coresys.ErrRegistrationClosed)

	require.NoError(t, e.Update(16))
	require.NoError(t, e.Update(16))
	assert.Zero(t, late.inits)
	assert.Zero(t, late.updates)
	assert.NotContains(t, e.Pipeline().Names(), "late")
}

// A close event arriving while a frame is pending sets the quit flag during
// the pump, and the frame still runs every system.
func TestWindowCloseDuringUpdateSetsQuit(t *testing.T) {
	h := newHarness(t)
	e := h.engine(ecs.NewWorld())
	g := &gameplay{name: "g"}
	require.NoError(t, e.AddSystem(g))
	require.NoError(t, e.Init())
	defer e.Shutdown()

	var closed int
	event.Subscribe(e.Bus(), func(event.WindowClosed) { closed++ })

	require.NoError(t, e.Update(16))
	require.NoError(t, e.Window().RequestClose())
	assert.False(t, h.quit.quit)

	require.NoError(t, e.Update(16))
	assert.True(t, h.quit.quit)
	assert.Equal(t, 2, g.updates)
	assert.Equal(t, uint64(2), e.Root().LastFrame().Frame, "render ran after the close")
	assert.Equal(t, 1, closed)
	assert.True(t, e.Window().Closed())
}

// A system requesting the close mid-frame completes the frame; the next pump
// delivers the close.
func TestCloseRequestedBySystemIsSeenNextPump(t *testing.T) {
	h := newHarness(t)
	e := h.engine(ecs.NewWorld())
	var requested bool
	g := &gameplay{name: "closer"}
	g.onUpdate = func() {
		if !requested {
			requested = true
			require.NoError(t, e.Window().RequestClose())
		}
	}
	require.NoError(t, e.AddSystem(g))
	require.NoError(t, e.Init())
	defer e.Shutdown()

	require.NoError(t, e.Update(16))
	assert.False(t, h.quit.quit)
	assert.Equal(t, uint64(1), e.Root().LastFrame().Frame)

	require.NoError(t, e.Update(16))
	assert.True(t, h.quit.quit)
}

func TestCancelledDisplayConfigExitsWithoutSystems(t *testing.T) {
	h := newHarness(t)
	h.store.ok = false
	h.dialog.ok = false
	e := h.engine(ecs.NewWorld())
	g := &gameplay{name: "g"}
	require.NoError(t, e.AddSystem(g))

	err := e.Init()
	require.ErrorIs(t, err, ErrDisplayConfigCancelled)
	assert.Equal(t, []int{0}, h.exits)
	assert.Equal(t, 1, h.dialog.shown)
	assert.Zero(t, e.Pipeline().Len())
	assert.Zero(t, g.inits)
	assert.Nil(t, e.Window())
	assert.Equal(t, StateShutDown, e.State())
}

func TestDialogChoiceIsSaved(t *testing.T) {
	h := newHarness(t)
	h.store.ok = false
	h.dialog.ok = true
	h.dialog.cfg = display.Config{ColorMode: display.ColorMono}
	e := h.engine(ecs.NewWorld())

	require.NoError(t, e.Init())
	defer e.Shutdown()
	assert.Equal(t, 1, h.store.saves)
	assert.Equal(t, display.ColorMono, e.Window().Config().ColorMode)
	assert.Empty(t, h.exits)
}

func TestRestoredConfigSkipsDialog(t *testing.T) {
	h := newHarness(t)
	e := h.engine(ecs.NewWorld())
	require.NoError(t, e.Init())
	defer e.Shutdown()
	assert.Zero(t, h.dialog.shown)
}

func TestInitFailureReleasesAndShutsDown(t *testing.T) {
	h := newHarness(t)
	h.cfg.Resources.Manifest = filepath.Join(t.TempDir(), "missing.toml")
	e := h.engine(ecs.NewWorld())

	require.Error(t, e.Init())
	assert.Equal(t, StateShutDown, e.State())
	require.ErrorIs(t, e.Init(), ErrInvalidTransition)
	require.ErrorIs(t, e.Update(0), ErrInvalidTransition)
}

func TestSystemInitFailureShutsDownAttemptedSystems(t *testing.T) {
	h := newHarness(t)
	e := h.engine(ecs.NewWorld())
	bad := &gameplay{name: "bad", initErr: errors.New("no spawn table")}
	never := &gameplay{name: "never"}
	require.NoError(t, e.AddSystem(bad))
	require.NoError(t, e.AddSystem(never))

	err := e.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init system bad")
	assert.Equal(t, 1, bad.shutdown)
	assert.Zero(t, never.inits)
	assert.Zero(t, never.shutdown)
	assert.Equal(t, StateShutDown, e.State())
}

func TestRenderCorruptionIsFatal(t *testing.T) {
	h := newHarness(t)
	e := h.engine(ecs.NewWorld())
	require.NoError(t, e.Init())
	defer e.Shutdown()

	loose, err := e.SceneManager().CreateCamera("loose")
	require.NoError(t, err)
	_, err = e.Root().AddViewport(loose, 9)
	require.NoError(t, err)

	err = e.Update(16)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update system render")
}

func TestResizeIsPublished(t *testing.T) {
	h := newHarness(t)
	e := h.engine(ecs.NewWorld())
	require.NoError(t, e.Init())
	defer e.Shutdown()

	var sizes []event.WindowResized
	event.Subscribe(e.Bus(), func(ev event.WindowResized) { sizes = append(sizes, ev) })
	require.NoError(t, e.Update(0))
	sizes = nil

	require.NoError(t, e.Window().Screen().PostEvent(tcell.NewEventResize(30, 12)))
	require.NoError(t, e.Update(0))
	require.NotEmpty(t, sizes)
	assert.Equal(t, event.WindowResized{Width: 30, Height: 12}, sizes[len(sizes)-1])
}
