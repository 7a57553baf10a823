package input

import (
	"github.com/gdamore/tcell/v2"
	"github.com/thrive/thrive/internal/display"
	"go.uber.org/zap"
)

// KeyEvent is one key press as delivered by the terminal. Terminals report
// presses and repeats only; there is no key-up.
type KeyEvent struct {
	Key       tcell.Key
	Rune      rune
	Modifiers tcell.ModMask
}

// MouseState is the last reported pointer position and button mask.
type MouseState struct {
	X, Y    int
	Buttons tcell.ButtonMask
}

// Manager is the input device manager. It is bound to one window and buffers
// that window's input events until the keyboard system drains them.
type Manager struct {
	window *display.Window
	keys   []KeyEvent
	mouse  MouseState
	log    *zap.Logger
}

// NewManager binds a manager to w.
func NewManager(w *display.Window, log *zap.Logger) *Manager {
	m := &Manager{
		window: w,
		keys:   make([]KeyEvent, 0, 16),
		log:    log,
	}
	w.AddInputSink(m)
	return m
}

// HandleEvent implements display.InputSink.
func (m *Manager) HandleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		m.keys = append(m.keys, KeyEvent{Key: ev.Key(), Rune: ev.Rune(), Modifiers: ev.Modifiers()})
	case *tcell.EventMouse:
		x, y := ev.Position()
		m.mouse = MouseState{X: x, Y: y, Buttons: ev.Buttons()}
	}
}

// Drain returns the key events buffered since the last call.
func (m *Manager) Drain() []KeyEvent {
	if m == nil || len(m.keys) == 0 {
		return nil
	}
	out := make([]KeyEvent, len(m.keys))
	copy(out, m.keys)
	m.keys = m.keys[:0]
	return out
}

// Mouse returns the last pointer state.
func (m *Manager) Mouse() MouseState {
	if m == nil {
		return MouseState{}
	}
	return m.mouse
}

// Pending returns the number of buffered key events.
func (m *Manager) Pending() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Close unbinds the manager from its window. Safe on a nil manager.
func (m *Manager) Close() {
	if m == nil || m.window == nil {
		return
	}
	m.window.RemoveInputSink(m)
	m.window = nil
	m.keys = nil
	m.log.Debug("input manager released")
}
