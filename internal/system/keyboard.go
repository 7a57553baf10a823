package system

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/thrive/thrive/internal/core/event"
	coresys "github.com/thrive/thrive/internal/core/system"
	"github.com/thrive/thrive/internal/input"
)

// KeyboardSystem drains the input manager once per frame. The keys of the
// current frame stay readable until the next Update, and each one is emitted
// on the bus as event.KeyPressed. Stage 0 (Input).
type KeyboardSystem struct {
	input   *input.Manager
	bus     *event.Bus
	pressed []input.KeyEvent
}

func NewKeyboardSystem() *KeyboardSystem {
	return &KeyboardSystem{}
}

func (s *KeyboardSystem) Name() string         { return "keyboard" }
func (s *KeyboardSystem) Stage() coresys.Stage { return coresys.StageInput }

func (s *KeyboardSystem) Init(ctx *coresys.Context) error {
	s.input = ctx.Input
	s.bus = ctx.Bus
	return nil
}

func (s *KeyboardSystem) Update(_ time.Duration) error {
	s.pressed = s.input.Drain()
	if s.bus == nil {
		return nil
	}
	for _, k := range s.pressed {
		event.Emit(s.bus, event.KeyPressed{Key: k.Key, Rune: k.Rune, Modifiers: k.Modifiers})
	}
	return nil
}

func (s *KeyboardSystem) Shutdown() {
	s.pressed = nil
	s.input = nil
}

// Pressed returns the keys drained this frame.
func (s *KeyboardSystem) Pressed() []input.KeyEvent { return s.pressed }

// IsPressed reports whether key was pressed this frame. For tcell.KeyRune the
// rune must match as well.
func (s *KeyboardSystem) IsPressed(key tcell.Key, r rune) bool {
	for _, k := range s.pressed {
		if k.Key == key && (key != tcell.KeyRune || k.Rune == r) {
			return true
		}
	}
	return false
}
