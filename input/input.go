// Package input defines the window-system independent events delivered to
// scenes.
package input

import (
	"fmt"
	"image"
	"strings"
)

// Type is the kind of an Event.
type Type int

const (
	NoType Type = iota
	MouseDown
	MouseUp
	MouseMove
	MouseWheel
	KeyDown
	KeyUp
)

func (t Type) String() string {
	switch t {
	case MouseDown:
		return "MouseDown"
	case MouseUp:
		return "MouseUp"
	case MouseMove:
		return "MouseMove"
	case MouseWheel:
		return "MouseWheel"
	case KeyDown:
		return "KeyDown"
	case KeyUp:
		return "KeyUp"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Buttons is a mouse button.
type Buttons int

const (
	NoButton Buttons = iota
	Left
	Middle
	Right
)

// Modifiers is a bit set of held modifier keys.
type Modifiers uint8

const (
	Shift Modifiers = 1 << iota
	Control
	Alt
	Super
)

func (m Modifiers) Has(mod Modifiers) bool { return m&mod != 0 }

func (m Modifiers) String() string {
	var parts []string
	for _, mod := range []struct {
		bit  Modifiers
		name string
	}{{Shift, "Shift"}, {Control, "Control"}, {Alt, "Alt"}, {Super, "Super"}} {
		if m.Has(mod.bit) {
			parts = append(parts, mod.name)
		}
	}
	return strings.Join(parts, "+")
}

// Key is a keyboard key. Printable keys use their upper-case ASCII code.
type Key int

const (
	KeyUnknown Key = 0
	KeySpace   Key = ' '
	KeyEscape  Key = 256 + iota
	KeyEnter
	KeyTab
	KeyLeft
	KeyRight
	KeyArrowUp
	KeyArrowDown
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
)

// Event is one mouse or keyboard event. Where and Prev are in window
// pixels, origin top-left. Prev is only set for MouseMove.
type Event struct {
	Type   Type
	Button Buttons
	Key    Key
	Mods   Modifiers
	Where  image.Point
	Prev   image.Point
	// Wheel is the scroll amount for MouseWheel, positive away from the user.
	Wheel float32
}

func NewMouse(typ Type, but Buttons, where image.Point, mods Modifiers) Event {
	return Event{Type: typ, Button: but, Where: where, Mods: mods}
}

func NewMouseMove(where, prev image.Point, mods Modifiers) Event {
	return Event{Type: MouseMove, Where: where, Prev: prev, Mods: mods}
}

func NewWheel(delta float32, where image.Point, mods Modifiers) Event {
	return Event{Type: MouseWheel, Wheel: delta, Where: where, Mods: mods}
}

func NewKey(typ Type, key Key, mods Modifiers) Event {
	return Event{Type: typ, Key: key, Mods: mods}
}

// Delta is Where - Prev.
func (e Event) Delta() image.Point { return e.Where.Sub(e.Prev) }

func (e Event) String() string {
	switch e.Type {
	case KeyDown, KeyUp:
		return fmt.Sprintf("%v{Key: %d, Mods: %v}", e.Type, e.Key, e.Mods)
	case MouseWheel:
		return fmt.Sprintf("%v{Wheel: %g, Pos: %v}", e.Type, e.Wheel, e.Where)
	}
	return fmt.Sprintf("%v{Button: %d, Pos: %v, Mods: %v}", e.Type, e.Button, e.Where, e.Mods)
}

// Drag follows a held mouse button so scenes can turn moves into camera
// motion.
type Drag struct {
	button Buttons
	mods   Modifiers
}

// Update consumes e and reports the button being dragged, the modifiers
// captured at press time and the movement since the previous event. ok is
// false when e is not part of a drag.
func (d *Drag) Update(e Event) (button Buttons, mods Modifiers, delta image.Point, ok bool) {
	switch e.Type {
	case MouseDown:
		if d.button == NoButton {
			d.button, d.mods = e.Button, e.Mods
		}
	case MouseUp:
		if e.Button == d.button {
			d.button, d.mods = NoButton, 0
		}
	case MouseMove:
		if d.button != NoButton {
			return d.button, d.mods, e.Delta(), true
		}
	}
	return NoButton, 0, image.Point{}, false
}

// Active reports whether a button is held.
func (d *Drag) Active() bool { return d.button != NoButton }
