package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/thrive/thrive/internal/config"
	"github.com/thrive/thrive/internal/core/ecs"
	"github.com/thrive/thrive/internal/core/event"
	coresys "github.com/thrive/thrive/internal/core/system"
	"github.com/thrive/thrive/internal/display"
	"github.com/thrive/thrive/internal/input"
	"github.com/thrive/thrive/internal/logging"
	"github.com/thrive/thrive/internal/resource"
	"github.com/thrive/thrive/internal/scene"
	"github.com/thrive/thrive/internal/system"
	"go.uber.org/zap"
)

var (
	// ErrInvalidTransition wraps every lifecycle call made from the wrong
	// state. It is a programming error and callers treat it as fatal.
	ErrInvalidTransition = errors.New("invalid engine lifecycle transition")

	// ErrDisplayConfigCancelled is returned by Init after the exit hook ran
	// because no display configuration could be restored or chosen.
	ErrDisplayConfigCancelled = errors.New("display configuration cancelled")
)

type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateRunning
	StateShutDown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateShutDown:
		return "shut down"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Quitter receives the process-wide quit request raised when the window
// closes.
type Quitter interface {
	Quit()
}

type Option func(*Engine)

// WithLogger uses log instead of building one from the logging config.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func WithScreenFactory(f display.ScreenFactory) Option {
	return func(e *Engine) { e.screens = f }
}

func WithDisplayStore(s display.Store) Option {
	return func(e *Engine) { e.store = s }
}

func WithDialog(d display.Dialog) Option {
	return func(e *Engine) { e.dialog = d }
}

// WithExit replaces os.Exit as the hook called when display configuration is
// cancelled.
func WithExit(exit func(code int)) Option {
	return func(e *Engine) { e.exit = exit }
}

func WithContext(ctx context.Context) Option {
	return func(e *Engine) { e.ctx = ctx }
}

// Engine owns the rendering root, the display surface, the input manager and
// the ordered system pipeline, and drives them through the lifecycle
// Uninitialized -> Initialized -> Running -> ShutDown.
//
// Engine is not safe for concurrent use. Only Window().RequestClose may be
// called from another goroutine.
type Engine struct {
	cfg     *config.Config
	world   *ecs.World
	quitter Quitter
	state   State

	log     *zap.Logger
	screens display.ScreenFactory
	store   display.Store
	dialog  display.Dialog
	exit    func(int)
	ctx     context.Context

	root      *scene.Root
	resources *resource.Manager
	window    *display.Window
	scene     *scene.Manager
	input     *input.Manager
	bus       *event.Bus
	pipeline  *coresys.Pipeline
	keyboard  *system.KeyboardSystem
	viewport  *system.ViewportSystem
	gameplay  []coresys.System
}

// New creates an engine over world. The world is owned by the caller and
// must outlive the engine.
func New(world *ecs.World, quitter Quitter, cfg *config.Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Defaults()
	}
	e := &Engine{
		cfg:      cfg,
		world:    world,
		quitter:  quitter,
		exit:     os.Exit,
		ctx:      context.Background(),
		bus:      event.NewBus(),
		keyboard: system.NewKeyboardSystem(),
		viewport: system.NewViewportSystem(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddSystem adds a gameplay system. Gameplay systems run after the keyboard
// system and before scene node creation, in the order they were added.
// Registration closes at Init.
func (e *Engine) AddSystem(s coresys.System) error {
	if e.state != StateUninitialized {
		return fmt.Errorf("add system %s: %w", s.Name(), coresys.ErrRegistrationClosed)
	}
	e.gameplay = append(e.gameplay, s)
	return nil
}

// declaredOrder is the frame pipeline. Producers come before consumers: scene
// nodes exist before anything attaches to them, cameras before the viewports
// showing them, and stale nodes are removed after every system that might
// still reference them but before the frame is rendered.
func (e *Engine) declaredOrder() []coresys.System {
	order := []coresys.System{e.keyboard}
	order = append(order, e.gameplay...)
	return append(order,
		system.NewAddSceneNodeSystem(),
		system.NewUpdateSceneNodeSystem(),
		system.NewCameraSystem(),
		system.NewLightSystem(),
		system.NewSkySystem(),
		system.NewEntitySystem(),
		e.viewport,
		system.NewRemoveSceneNodeSystem(),
		system.NewRenderSystem(),
		system.NewCleanupSystem(),
	)
}

// Init builds the engine. On failure everything built so far is released and
// the engine moves to ShutDown.
func (e *Engine) Init() (err error) {
	if e.state != StateUninitialized {
		return fmt.Errorf("init from %s: %w", e.state, ErrInvalidTransition)
	}
	defer func() {
		if err != nil {
			e.release()
			e.state = StateShutDown
		}
	}()

	if e.log == nil {
		if e.log, err = logging.New(e.cfg.Logging); err != nil {
			return fmt.Errorf("logging: %w", err)
		}
	}
	e.pipeline = coresys.NewPipeline(e.log)

	if e.root, err = scene.NewRoot(e.cfg.Plugins.Manifest, e.log); err != nil {
		return fmt.Errorf("rendering root: %w", err)
	}

	locations, err := resource.LoadManifest(e.cfg.Resources.Manifest)
	if err != nil {
		return err
	}
	e.resources = resource.NewManager(e.log)
	for _, loc := range locations {
		if err := e.resources.AddLocation(loc); err != nil {
			return err
		}
	}

	dcfg, ok, err := display.Resolve(e.ctx, e.store, e.dialog, e.log)
	if err != nil {
		return err
	}
	if !ok {
		e.log.Info("display configuration cancelled, exiting")
		e.exit(0)
		return ErrDisplayConfigCancelled
	}

	if e.window, err = display.Open(e.screens, dcfg, e.cfg.Engine.Title, e.log); err != nil {
		return fmt.Errorf("display surface: %w", err)
	}
	if err := e.root.Initialise(e.window); err != nil {
		return err
	}
	e.window.AddListener(e)

	if err := e.resources.InitialiseAll(); err != nil {
		return err
	}

	if e.scene, err = e.root.CreateSceneManager(e.cfg.Engine.SceneType); err != nil {
		return err
	}
	e.scene.SetAmbientLight(scene.Grey(0.5))

	e.input = input.NewManager(e.window, e.log)

	for _, s := range e.declaredOrder() {
		if err := e.pipeline.Register(s); err != nil {
			return err
		}
	}
	if err := e.pipeline.Init(&coresys.Context{
		World:     e.world,
		Bus:       e.bus,
		Log:       e.log,
		Root:      e.root,
		Scene:     e.scene,
		Window:    e.window,
		Input:     e.input,
		Resources: e.resources,
	}); err != nil {
		return err
	}

	e.state = StateInitialized
	e.log.Info("engine initialised",
		zap.Strings("systems", e.pipeline.Names()),
		zap.Int("resources", e.resources.Count()))
	return nil
}

// Update runs one frame: pending window events are handled first (a close
// request calls Quit on the quitter), then last frame's bus events are
// delivered, then every system updates in declared order. Negative
// milliseconds are treated as zero.
func (e *Engine) Update(milliseconds int) error {
	switch e.state {
	case StateInitialized, StateRunning:
	default:
		return fmt.Errorf("update from %s: %w", e.state, ErrInvalidTransition)
	}
	if milliseconds < 0 {
		milliseconds = 0
	}
	e.state = StateRunning

	e.window.MessagePump()
	e.bus.SwapBuffers()
	e.bus.DispatchAll()
	return e.pipeline.Update(time.Duration(milliseconds) * time.Millisecond)
}

// Shutdown shuts the systems down in reverse order, then releases the input
// manager, the display surface and the rendering root.
func (e *Engine) Shutdown() error {
	switch e.state {
	case StateInitialized, StateRunning:
	default:
		return fmt.Errorf("shutdown from %s: %w", e.state, ErrInvalidTransition)
	}
	e.release()
	e.state = StateShutDown
	e.log.Info("engine shut down")
	_ = e.log.Sync()
	return nil
}

func (e *Engine) release() {
	if e.pipeline != nil {
		e.pipeline.Shutdown()
	}
	e.input.Close()
	e.input = nil
	if e.window != nil {
		e.window.RemoveListener(e)
		e.window.Destroy()
	}
	e.root.Release()
}

// WindowClosing implements display.Listener.
func (e *Engine) WindowClosing(w *display.Window) bool {
	if w == e.window {
		e.log.Info("window closing, quitting")
		event.Emit(e.bus, event.WindowClosed{})
		if e.quitter != nil {
			e.quitter.Quit()
		}
	}
	return true
}

// WindowResized implements display.Listener.
func (e *Engine) WindowResized(w *display.Window) {
	width, height := w.Size()
	event.Emit(e.bus, event.WindowResized{Width: width, Height: height})
}

func (e *Engine) State() State                           { return e.state }
func (e *Engine) World() *ecs.World                      { return e.world }
func (e *Engine) Bus() *event.Bus                        { return e.bus }
func (e *Engine) Config() *config.Config                 { return e.cfg }
func (e *Engine) Log() *zap.Logger                       { return e.log }
func (e *Engine) Root() *scene.Root                      { return e.root }
func (e *Engine) SceneManager() *scene.Manager           { return e.scene }
func (e *Engine) Window() *display.Window                { return e.window }
func (e *Engine) InputManager() *input.Manager           { return e.input }
func (e *Engine) Resources() *resource.Manager           { return e.resources }
func (e *Engine) KeyboardSystem() *system.KeyboardSystem { return e.keyboard }
func (e *Engine) ViewportSystem() *system.ViewportSystem { return e.viewport }

// Pipeline exposes the declared order for inspection. It is nil before Init.
func (e *Engine) Pipeline() *coresys.Pipeline { return e.pipeline }
