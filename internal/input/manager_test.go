package input

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrive/thrive/internal/display"
	"go.uber.org/zap"
)

func openWindow(t *testing.T) *display.Window {
	t.Helper()
	w, err := display.Open(func() (tcell.Screen, error) {
		return tcell.NewSimulationScreen("UTF-8"), nil
	}, display.Choices[0], "input", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(w.Destroy)
	return w
}

func TestManagerBuffersKeysUntilDrained(t *testing.T) {
	w := openWindow(t)
	m := NewManager(w, zap.NewNop())

	screen := w.Screen()
	require.NoError(t, screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone)))
	require.NoError(t, screen.PostEvent(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModShift)))
	require.NoError(t, screen.PostEvent(tcell.NewEventMouse(4, 7, tcell.Button1, tcell.ModNone)))
	w.MessagePump()

	assert.Equal(t, 2, m.Pending())
	keys := m.Drain()
	require.Len(t, keys, 2)
	assert.Equal(t, KeyEvent{Key: tcell.KeyRune, Rune: 'a', Modifiers: tcell.ModNone}, keys[0])
	assert.Equal(t, tcell.KeyUp, keys[1].Key)
	assert.Equal(t, tcell.ModShift, keys[1].Modifiers)
	assert.Empty(t, m.Drain())

	assert.Equal(t, MouseState{X: 4, Y: 7, Buttons: tcell.Button1}, m.Mouse())
}

func TestCloseUnbindsAndIsNilSafe(t *testing.T) {
	w := openWindow(t)
	m := NewManager(w, zap.NewNop())
	m.Close()
	m.Close()

	require.NoError(t, w.Screen().PostEvent(tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone)))
	w.MessagePump()
	assert.Zero(t, m.Pending())

	var none *Manager
	assert.NotPanics(t, none.Close)
	assert.Nil(t, none.Drain())
	assert.Zero(t, none.Pending())
}
