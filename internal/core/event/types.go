package event

import "github.com/gdamore/tcell/v2"

// KeyPressed is emitted by the keyboard system for every key event drained
// from the input manager.
type KeyPressed struct {
	Key       tcell.Key
	Rune      rune
	Modifiers tcell.ModMask
}

// WindowResized is emitted by the engine when the display surface changes
// size. Game systems subscribe to it; the engine itself does not. Window
// events come out of the message pump, so they are dispatched in the same
// update, before any system runs.
type WindowResized struct {
	Width, Height int
}

// WindowClosed is emitted by the engine once a close request was accepted,
// in the frame that raised the quit request.
type WindowClosed struct{}
