package vm

import "fmt"

const (
	ScreenWidth  = 64
	ScreenHeight = 32
	KeyCount     = 16
)

// Timers are the delay and sound counters. Both are decremented by Tick at
// 60 Hz and stop at zero.
type Timers struct {
	delay uint8
	sound uint8
}

func (t *Timers) Tick() {
	if t.delay > 0 {
		t.delay--
	}
	if t.sound > 0 {
		t.sound--
	}
}

func (t *Timers) Delay() uint8 { return t.delay }
func (t *Timers) Sound() uint8 { return t.sound }

func (t *Timers) SetDelay(v uint8) { t.delay = v }
func (t *Timers) SetSound(v uint8) { t.sound = v }

// Display is the 64x32 monochrome frame buffer, stored row-major.
type Display struct {
	gfx   [ScreenWidth * ScreenHeight]uint8
	dirty bool // Indicates a draw has occurred
}

func (d *Display) Clear() {
	d.gfx = [ScreenWidth * ScreenHeight]uint8{}
	d.dirty = true
}

// TogglePixel flips the pixel at (x, y), wrapping both coordinates around
// the screen edges, and reports whether it was set before.
func (d *Display) TogglePixel(x, y int) bool {
	i := screenAddr(x, y)
	wasSet := d.gfx[i] != 0
	d.gfx[i] ^= 1
	d.dirty = true
	return wasSet
}

func (d *Display) Pixel(x, y int) bool {
	return d.gfx[screenAddr(x, y)] != 0
}

// Pixels returns a copy of the frame buffer, one byte per pixel (0 or 1),
// row-major.
func (d *Display) Pixels() []uint8 {
	out := make([]uint8, len(d.gfx))
	copy(out, d.gfx[:])
	return out
}

func (d *Display) Dirty() bool { return d.dirty }
func (d *Display) ClearDirty() { d.dirty = false }

func screenAddr(x, y int) int {
	x %= ScreenWidth
	if x < 0 {
		x += ScreenWidth
	}
	y %= ScreenHeight
	if y < 0 {
		y += ScreenHeight
	}
	return ScreenWidth*y + x
}

type Key uint8

const (
	Key0 = Key(iota)
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

func (k Key) String() string {
	return fmt.Sprintf("%X", uint8(k))
}

// Keypad is written by the input frontend only. The CPU reads it.
type Keypad struct {
	keys [KeyCount]bool
}

// IsPressed reports the state of key. Out-of-range keys are never pressed.
func (k *Keypad) IsPressed(key Key) bool {
	if int(key) >= KeyCount {
		return false
	}
	return k.keys[key]
}

func (k *Keypad) SetPressed(key Key, pressed bool) {
	if int(key) >= KeyCount {
		return
	}
	k.keys[key] = pressed
}

// snapshot returns the current key states as a bit set.
func (k *Keypad) snapshot() uint16 {
	var bits uint16
	for i, down := range k.keys {
		if down {
			bits |= 1 << i
		}
	}
	return bits
}

func (k *Keypad) reset() {
	k.keys = [KeyCount]bool{}
}
