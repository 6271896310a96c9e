package core

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"render-toolkit/input"
)

var specialKeys = map[glfw.Key]input.Key{
	glfw.KeyEscape: input.KeyEscape,
	glfw.KeyEnter:  input.KeyEnter,
	glfw.KeyTab:    input.KeyTab,
	glfw.KeyLeft:   input.KeyLeft,
	glfw.KeyRight:  input.KeyRight,
	glfw.KeyUp:     input.KeyArrowUp,
	glfw.KeyDown:   input.KeyArrowDown,
	glfw.KeyF1:     input.KeyF1,
	glfw.KeyF2:     input.KeyF2,
	glfw.KeyF3:     input.KeyF3,
	glfw.KeyF4:     input.KeyF4,
	glfw.KeyF5:     input.KeyF5,
}

// translateKey maps printable glfw keys, which already carry their
// upper-case ASCII code, and the special keys input knows about.
func translateKey(k glfw.Key) input.Key {
	if k >= glfw.KeySpace && k <= glfw.KeyGraveAccent {
		return input.Key(k)
	}
	return specialKeys[k]
}

func translateButton(b glfw.MouseButton) input.Buttons {
	switch b {
	case glfw.MouseButtonLeft:
		return input.Left
	case glfw.MouseButtonMiddle:
		return input.Middle
	case glfw.MouseButtonRight:
		return input.Right
	}
	return input.NoButton
}

func translateMods(m glfw.ModifierKey) input.Modifiers {
	var out input.Modifiers
	if m&glfw.ModShift != 0 {
		out |= input.Shift
	}
	if m&glfw.ModControl != 0 {
		out |= input.Control
	}
	if m&glfw.ModAlt != 0 {
		out |= input.Alt
	}
	if m&glfw.ModSuper != 0 {
		out |= input.Super
	}
	return out
}
