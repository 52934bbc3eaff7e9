package vm

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestMemoryWriteProtection(t *testing.T) {
	var m Memory

	err := m.Write(0x000, 1)
	assert.True(t, errors.Is(err, ErrProtectedRegion))

	err = m.Write(0x1ff, 1)
	assert.True(t, errors.Is(err, ErrProtectedRegion))

	assert.NoError(t, m.Write(0x200, 0xab))
	b, err := m.Read(0x200)
	assert.NoError(t, err)
	assert.Equal(t, uint8(0xab), b)

	assert.NoError(t, m.Write(0xfff, 0xcd))
	err = m.Write(0x1000, 1)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
}

func TestMemoryReadBounds(t *testing.T) {
	var m Memory

	_, err := m.Read(0x000)
	assert.NoError(t, err)
	_, err = m.Read(0xfff)
	assert.NoError(t, err)

	_, err = m.Read(0x1000)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
	_, err = m.Read(0xffff)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
}

func TestMemoryLoadROM(t *testing.T) {
	var m Memory

	assert.NoError(t, m.LoadROM([]byte{0x12, 0x34}))
	b, err := m.Read(0x201)
	assert.NoError(t, err)
	assert.Equal(t, uint8(0x34), b)

	full := make([]byte, MaxROMSize)
	full[len(full)-1] = 0xee
	assert.NoError(t, m.LoadROM(full))
	b, err = m.Read(0xfff)
	assert.NoError(t, err)
	assert.Equal(t, uint8(0xee), b)

	err = m.LoadROM(make([]byte, MaxROMSize+1))
	assert.True(t, errors.Is(err, ErrROMTooLarge))
}

func TestMemoryFontRegion(t *testing.T) {
	var m Memory
	m.loadFont()

	assert.Equal(t, 16*FontGlyphLen, len(chip8Font))
	for i, want := range chip8Font {
		got, err := m.Read(FontStart + uint16(i))
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	err := m.Write(FontStart, 0)
	assert.True(t, errors.Is(err, ErrProtectedRegion))
}

func TestRegisters(t *testing.T) {
	var r Registers

	for x := uint8(0); x < RegisterCount; x++ {
		for v := 0; v <= 0xff; v++ {
			assert.NoError(t, r.Set(x, uint8(v)))
			got, err := r.Get(x)
			assert.NoError(t, err)
			assert.Equal(t, uint8(v), got)
		}
	}

	assert.True(t, errors.Is(r.Set(16, 1), ErrInvalidRegister))
	_, err := r.Get(16)
	assert.True(t, errors.Is(err, ErrInvalidRegister))

	r.SetI(0xffff)
	assert.Equal(t, uint16(0xffff), r.I())
}

func TestStack(t *testing.T) {
	var s Stack

	_, err := s.Pop()
	assert.True(t, errors.Is(err, ErrStackUnderflow))

	for i := 0; i < StackSize; i++ {
		assert.NoError(t, s.Push(uint16(0x200+i*2)))
	}
	assert.Equal(t, StackSize, s.Depth())
	assert.True(t, errors.Is(s.Push(0x300), ErrStackOverflow))

	for i := StackSize - 1; i >= 0; i-- {
		addr, err := s.Pop()
		assert.NoError(t, err)
		assert.Equal(t, uint16(0x200+i*2), addr)
	}
	assert.Equal(t, 0, s.Depth())
}
