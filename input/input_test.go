package input

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDragTracksHeldButton(t *testing.T) {
	var d Drag

	_, _, _, ok := d.Update(NewMouseMove(image.Pt(5, 5), image.Pt(0, 0), 0))
	assert.False(t, ok, "move without a button is not a drag")

	d.Update(NewMouse(MouseDown, Left, image.Pt(5, 5), Shift))
	assert.True(t, d.Active())

	but, mods, delta, ok := d.Update(NewMouseMove(image.Pt(8, 1), image.Pt(5, 5), 0))
	assert.True(t, ok)
	assert.Equal(t, Left, but)
	assert.True(t, mods.Has(Shift), "modifiers come from the press")
	assert.Equal(t, image.Pt(3, -4), delta)

	d.Update(NewMouse(MouseUp, Right, image.Pt(8, 1), 0))
	assert.True(t, d.Active(), "releasing another button keeps the drag")

	d.Update(NewMouse(MouseUp, Left, image.Pt(8, 1), 0))
	assert.False(t, d.Active())
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "Shift+Alt", (Shift | Alt).String())
	assert.Equal(t, "", Modifiers(0).String())
	assert.Equal(t, "KeyDown", KeyDown.String())
	assert.Equal(t, "Type(42)", Type(42).String())
	assert.Contains(t, NewWheel(1, image.Pt(1, 2), 0).String(), "Wheel: 1")
}

func TestKeyCodes(t *testing.T) {
	assert.Equal(t, Key('W'), Key(87))
	assert.Greater(t, int(KeyF5), 255)
	assert.NotEqual(t, KeyEscape, KeyEnter)
}
