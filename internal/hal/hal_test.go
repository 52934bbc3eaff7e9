package hal

import (
	"testing"

	"github.com/kapitanov/chip8engine/internal/vm"
	"github.com/retroenv/retrogolib/assert"
	"github.com/veandco/go-sdl2/sdl"
)

func TestKeyMap(t *testing.T) {
	tests := []struct {
		code sdl.Scancode
		key  vm.Key
	}{
		{sdl.SCANCODE_1, vm.Key1},
		{sdl.SCANCODE_4, vm.KeyC},
		{sdl.SCANCODE_Q, vm.Key4},
		{sdl.SCANCODE_X, vm.Key0},
		{sdl.SCANCODE_F, vm.KeyE},
		{sdl.SCANCODE_V, vm.KeyF},
	}

	for _, tt := range tests {
		key, ok := keyMap(tt.code)
		assert.True(t, ok)
		assert.Equal(t, tt.key, key)
	}

	_, ok := keyMap(sdl.SCANCODE_P)
	assert.False(t, ok)
}

func TestFillBackBuffer(t *testing.T) {
	gfx := []uint8{0, 1, 0, 1}
	dst := make([]uint32, len(gfx))

	fillBackBuffer(dst, gfx)
	assert.Equal(t, []uint32{bgColor, fgColor, bgColor, fgColor}, dst)
}

func TestSquareWave(t *testing.T) {
	wave := squareWave(8, 1, 2, 128)

	assert.Equal(t, 16, len(wave))
	assert.Equal(t, []uint8{160, 160, 160, 160, 96, 96, 96, 96}, wave[:8])
	assert.Equal(t, wave[:8], wave[8:])
}
