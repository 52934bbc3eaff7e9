package vm

import "fmt"

const (
	MemorySize   = 4096
	ProgramStart = uint16(0x200)
	FontStart    = uint16(0x050)
	FontGlyphLen = 5

	MaxROMSize = MemorySize - int(ProgramStart)
)

// 16 hexadecimal glyphs, 4x5 pixels each.
var chip8Font = []uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Memory is the 4K address space. Everything below ProgramStart belongs to
// the interpreter and can only be written by loadFont.
type Memory struct {
	data [MemorySize]uint8
}

func (m *Memory) Read(addr uint16) (uint8, error) {
	if int(addr) >= MemorySize {
		return 0, fmt.Errorf("read 0x%04x: %w", addr, ErrOutOfBounds)
	}
	return m.data[addr], nil
}

func (m *Memory) Write(addr uint16, value uint8) error {
	if addr < ProgramStart {
		return fmt.Errorf("write 0x%04x: %w", addr, ErrProtectedRegion)
	}
	if int(addr) >= MemorySize {
		return fmt.Errorf("write 0x%04x: %w", addr, ErrOutOfBounds)
	}
	m.data[addr] = value
	return nil
}

// LoadROM copies rom verbatim to ProgramStart.
func (m *Memory) LoadROM(rom []byte) error {
	if len(rom) > MaxROMSize {
		return fmt.Errorf("%d bytes, at most %d fit: %w", len(rom), MaxROMSize, ErrROMTooLarge)
	}
	copy(m.data[ProgramStart:], rom)
	return nil
}

func (m *Memory) loadFont() {
	copy(m.data[FontStart:], chip8Font)
}

func (m *Memory) clear() {
	m.data = [MemorySize]uint8{}
}

// fetch reads the big-endian instruction word at addr.
func (m *Memory) fetch(addr uint16) (uint16, error) {
	hi, err := m.Read(addr)
	if err != nil {
		return 0, err
	}
	lo, err := m.Read(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}
