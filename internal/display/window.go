package display

import (
	"fmt"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
)

// ScreenFactory creates the terminal screen backing a Window. Tests pass a
// factory returning tcell.NewSimulationScreen.
type ScreenFactory func() (tcell.Screen, error)

// TerminalScreen opens the process' controlling terminal.
func TerminalScreen() (tcell.Screen, error) {
	return tcell.NewScreen()
}

// Listener receives window notifications from MessagePump. Callbacks run
// synchronously inside the pump and must only record state.
type Listener interface {
	// WindowClosing returns false to veto the close.
	WindowClosing(w *Window) bool
	WindowResized(w *Window)
}

// InputSink receives key, mouse and paste events pumped from the window.
type InputSink interface {
	HandleEvent(ev tcell.Event)
}

// closeRequest marks the interrupt event posted by RequestClose.
type closeRequest struct{}

// Window is the display surface: a tcell screen plus the listeners and input
// sinks bound to it.
type Window struct {
	screen    tcell.Screen
	title     string
	cfg       Config
	width     int
	height    int
	listeners []Listener
	sinks     []InputSink
	pumping   bool
	closed    bool
	destroyed atomic.Bool // read by RequestClose from other goroutines
	log       *zap.Logger
}

// Open creates and initialises the screen.
func Open(factory ScreenFactory, cfg Config, title string, log *zap.Logger) (*Window, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		factory = TerminalScreen
	}
	screen, err := factory()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	if cfg.Mouse {
		screen.EnableMouse()
	}
	screen.Clear()

	w := &Window{screen: screen, title: title, cfg: cfg, log: log}
	w.width, w.height = screen.Size()
	log.Info("window created",
		zap.String("title", title),
		zap.Int("width", w.width),
		zap.Int("height", w.height),
		zap.Stringer("config", cfg))
	return w, nil
}

func (w *Window) Screen() tcell.Screen { return w.screen }
func (w *Window) Title() string        { return w.title }
func (w *Window) Config() Config       { return w.cfg }
func (w *Window) Size() (int, int)     { return w.width, w.height }

// Closed reports whether a close request has been accepted.
func (w *Window) Closed() bool { return w.closed }

func (w *Window) AddListener(l Listener) {
	w.listeners = append(w.listeners, l)
}

func (w *Window) RemoveListener(l Listener) {
	for i, x := range w.listeners {
		if x == l {
			w.listeners = append(w.listeners[:i], w.listeners[i+1:]...)
			return
		}
	}
}

func (w *Window) AddInputSink(s InputSink) {
	w.sinks = append(w.sinks, s)
}

func (w *Window) RemoveInputSink(s InputSink) {
	for i, x := range w.sinks {
		if x == s {
			w.sinks = append(w.sinks[:i], w.sinks[i+1:]...)
			return
		}
	}
}

// RequestClose asks the window to close. Safe to call from any goroutine;
// the request is handled by the next MessagePump. After Destroy it does
// nothing.
func (w *Window) RequestClose() error {
	if w.destroyed.Load() {
		return nil
	}
	return w.screen.PostEvent(tcell.NewEventInterrupt(closeRequest{}))
}

// MessagePump handles every event already queued on the screen and returns
// how many were handled. It never blocks. A nested call from a listener is
// ignored.
func (w *Window) MessagePump() int {
	if w.pumping || w.destroyed.Load() {
		return 0
	}
	w.pumping = true
	defer func() { w.pumping = false }()

	n := 0
	for w.screen.HasPendingEvent() {
		ev := w.screen.PollEvent()
		if ev == nil {
			break
		}
		w.dispatch(ev)
		n++
	}
	return n
}

func (w *Window) dispatch(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		w.width, w.height = ev.Size()
		w.screen.Sync()
		for _, l := range w.listeners {
			l.WindowResized(w)
		}
	case *tcell.EventInterrupt:
		if _, ok := ev.Data().(closeRequest); ok {
			w.handleClose()
		}
	default:
		for _, s := range w.sinks {
			s.HandleEvent(ev)
		}
	}
}

func (w *Window) handleClose() {
	if w.closed {
		return
	}
	allow := true
	for _, l := range w.listeners {
		if !l.WindowClosing(w) {
			allow = false
		}
	}
	if allow {
		w.closed = true
		w.log.Info("window closed", zap.String("title", w.title))
	}
}

// Destroy restores the terminal. Further calls are no-ops.
func (w *Window) Destroy() {
	if !w.destroyed.CompareAndSwap(false, true) {
		return
	}
	w.listeners = nil
	w.sinks = nil
	w.screen.Fini()
}
