package vm

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

type regExpect struct {
	reg   uint8
	value uint8
}

func TestALU(t *testing.T) {
	tests := []struct {
		name    string
		program []uint16
		quirks  Quirks
		expect  []regExpect
	}{
		{"mov constant", []uint16{0x6a42}, Quirks{}, []regExpect{{0xa, 0x42}}},
		{"add constant wraps without flag", []uint16{0x6ff0, 0x60ff, 0x7002}, Quirks{}, []regExpect{{0, 0x01}, {0xf, 0xf0}}},
		{"mov register", []uint16{0x6107, 0x8010}, Quirks{}, []regExpect{{0, 0x07}}},
		{"or", []uint16{0x600c, 0x6103, 0x8011}, Quirks{}, []regExpect{{0, 0x0f}}},
		{"and", []uint16{0x600c, 0x6106, 0x8012}, Quirks{}, []regExpect{{0, 0x04}}},
		{"xor", []uint16{0x600c, 0x6106, 0x8013}, Quirks{}, []regExpect{{0, 0x0a}}},
		{"add with carry", []uint16{0x60fa, 0x610a, 0x8014}, Quirks{}, []regExpect{{0, 4}, {0xf, 1}}},
		{"add without carry", []uint16{0x600a, 0x610a, 0x8014}, Quirks{}, []regExpect{{0, 20}, {0xf, 0}}},
		{"add carry overwrites vf operand", []uint16{0x6fff, 0x6101, 0x8f14}, Quirks{}, []regExpect{{0xf, 1}}},
		{"sub no borrow", []uint16{0x600a, 0x6105, 0x8015}, Quirks{}, []regExpect{{0, 5}, {0xf, 1}}},
		{"sub borrow", []uint16{0x6005, 0x610a, 0x8015}, Quirks{}, []regExpect{{0, 251}, {0xf, 0}}},
		{"sub equal", []uint16{0x6005, 0x6105, 0x8015}, Quirks{}, []regExpect{{0, 0}, {0xf, 0}}},
		{"shr", []uint16{0x6003, 0x8006}, Quirks{}, []regExpect{{0, 1}, {0xf, 1}}},
		{"shr even", []uint16{0x6004, 0x8006}, Quirks{}, []regExpect{{0, 2}, {0xf, 0}}},
		{"rsb no borrow", []uint16{0x6005, 0x610a, 0x8017}, Quirks{}, []regExpect{{0, 5}, {0xf, 1}}},
		{"rsb borrow", []uint16{0x600a, 0x6105, 0x8017}, Quirks{}, []regExpect{{0, 251}, {0xf, 0}}},
		{"shl", []uint16{0x6081, 0x800e}, Quirks{}, []regExpect{{0, 0x02}, {0xf, 1}}},
		{"shl no carry", []uint16{0x6041, 0x800e}, Quirks{}, []regExpect{{0, 0x82}, {0xf, 0}}},
		{"shr from vy", []uint16{0x6006, 0x6103, 0x8016}, Quirks{ShiftUsesVY: true}, []regExpect{{0, 1}, {1, 3}, {0xf, 1}}},
		{"shl from vy", []uint16{0x6001, 0x6180, 0x801e}, Quirks{ShiftUsesVY: true}, []regExpect{{0, 0}, {0xf, 1}}},
		{"gdelay", []uint16{0x6020, 0xf015, 0xf107}, Quirks{}, []regExpect{{1, 0x20}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := New(WithQuirks(tt.quirks))
			assert.NoError(t, vm.LoadROM(assemble(tt.program...)))
			steps(t, vm, len(tt.program))

			for _, e := range tt.expect {
				got, err := vm.Registers().Get(e.reg)
				assert.NoError(t, err)
				assert.Equal(t, e.value, got)
			}
		})
	}
}

func TestSkips(t *testing.T) {
	tests := []struct {
		name    string
		program []uint16
		key     *Key
		pc      uint16
	}{
		{"skeq constant taken", []uint16{0x6005, 0x3005}, nil, 0x206},
		{"skeq constant not taken", []uint16{0x6005, 0x3006}, nil, 0x204},
		{"skne constant taken", []uint16{0x6005, 0x4006}, nil, 0x206},
		{"skne constant not taken", []uint16{0x6005, 0x4005}, nil, 0x204},
		{"skeq register taken", []uint16{0x6005, 0x6105, 0x5010}, nil, 0x208},
		{"skeq register not taken", []uint16{0x6005, 0x6106, 0x5010}, nil, 0x206},
		{"skne register taken", []uint16{0x6005, 0x6106, 0x9010}, nil, 0x208},
		{"skne register not taken", []uint16{0x6005, 0x6105, 0x9010}, nil, 0x206},
		{"skpr pressed", []uint16{0x6005, 0xe09e}, keyPtr(Key5), 0x206},
		{"skpr not pressed", []uint16{0x6005, 0xe09e}, keyPtr(Key4), 0x204},
		{"skup not pressed", []uint16{0x6005, 0xe0a1}, keyPtr(Key4), 0x206},
		{"skup pressed", []uint16{0x6005, 0xe0a1}, keyPtr(Key5), 0x204},
		{"skpr key out of range", []uint16{0x6020, 0xe09e}, nil, 0x204},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, tt.program...)
			if tt.key != nil {
				vm.Keypad().SetPressed(*tt.key, true)
			}
			steps(t, vm, len(tt.program))
			assert.Equal(t, tt.pc, vm.PC())
		})
	}
}

func keyPtr(k Key) *Key {
	return &k
}

func TestJumps(t *testing.T) {
	vm := newTestVM(t, 0x1300)
	steps(t, vm, 1)
	assert.Equal(t, uint16(0x300), vm.PC())
	assert.Equal(t, StateRunning, vm.State())

	vm = newTestVM(t, 0x6004, 0xb300)
	steps(t, vm, 2)
	assert.Equal(t, uint16(0x304), vm.PC())
}

func TestCallReturn(t *testing.T) {
	vm := newTestVM(t,
		0x2206, // jsr 0x206
		0x6001, // mov v0, 1
		0x1204, // jmp 0x204
		0x00ee, // rts
	)

	steps(t, vm, 1)
	assert.Equal(t, uint16(0x206), vm.PC())
	assert.Equal(t, 1, vm.Stack().Depth())

	steps(t, vm, 1)
	assert.Equal(t, uint16(0x202), vm.PC())
	assert.Equal(t, 0, vm.Stack().Depth())

	steps(t, vm, 1)
	assert.Equal(t, uint8(1), vm.registers.v[0])
}

func TestCallDepth(t *testing.T) {
	vm := newTestVM(t, 0x2200) // jsr 0x200, forever
	steps(t, vm, StackSize)
	assert.Equal(t, StackSize, vm.Stack().Depth())

	err := vm.Step()
	assert.True(t, errors.Is(err, ErrStackOverflow))

	var execErr *ExecError
	assert.True(t, errors.As(err, &execErr))
	assert.Equal(t, uint16(0x200), execErr.PC)
	assert.Equal(t, uint16(0x2200), execErr.Opcode)
}

func TestReturnEmptyStack(t *testing.T) {
	vm := newTestVM(t, 0x00ee)
	assert.True(t, errors.Is(vm.Step(), ErrStackUnderflow))
}

func TestClearScreen(t *testing.T) {
	vm := newTestVM(t, 0x00e0)
	vm.Display().TogglePixel(10, 10)
	vm.Display().ClearDirty()

	steps(t, vm, 1)
	assert.False(t, vm.Display().Pixel(10, 10))
	assert.True(t, vm.Display().Dirty())
}

func TestDrawCollision(t *testing.T) {
	vm := newTestVM(t,
		0xa206, // mvi 0x206
		0xd011, // sprite v0, v1, 1
		0xd011, // sprite v0, v1, 1
		0xff00, // sprite data
	)

	steps(t, vm, 2)
	for x := 0; x < 8; x++ {
		assert.True(t, vm.Display().Pixel(x, 0))
	}
	assert.False(t, vm.Display().Pixel(8, 0))
	assert.Equal(t, uint8(0), vm.registers.v[FlagRegister])

	steps(t, vm, 1)
	for x := 0; x < 8; x++ {
		assert.False(t, vm.Display().Pixel(x, 0))
	}
	assert.Equal(t, uint8(1), vm.registers.v[FlagRegister])
}

func TestDrawWraps(t *testing.T) {
	vm := newTestVM(t,
		0x603e, // mov v0, 62
		0x611f, // mov v1, 31
		0xa20a, // mvi 0x20a
		0xd012, // sprite v0, v1, 2
		0x1208, // jmp 0x208
		0xf080, // sprite data
	)
	steps(t, vm, 4)

	assert.True(t, vm.Display().Pixel(62, 31))
	assert.True(t, vm.Display().Pixel(63, 31))
	assert.True(t, vm.Display().Pixel(0, 31))
	assert.True(t, vm.Display().Pixel(1, 31))
	assert.False(t, vm.Display().Pixel(2, 31))
	assert.True(t, vm.Display().Pixel(62, 0))
	assert.False(t, vm.Display().Pixel(63, 0))
	assert.Equal(t, uint8(0), vm.registers.v[FlagRegister])
}

func TestDrawReadsPastMemory(t *testing.T) {
	vm := newTestVM(t, 0xafff, 0xd002)
	steps(t, vm, 1)
	assert.True(t, errors.Is(vm.Step(), ErrOutOfBounds))
}

func TestRand(t *testing.T) {
	vm := New(WithRand(fixedRand(0xab)))
	assert.NoError(t, vm.LoadROM(assemble(0xc00f, 0xc1f0)))
	steps(t, vm, 2)

	assert.Equal(t, uint8(0x0b), vm.registers.v[0])
	assert.Equal(t, uint8(0xa0), vm.registers.v[1])
}

func TestRandSeedIsDeterministic(t *testing.T) {
	program := []uint16{0xc0ff, 0xc1ff, 0xc2ff, 0xc3ff}

	a := New(WithSeed(42))
	b := New(WithSeed(42))
	assert.NoError(t, a.LoadROM(assemble(program...)))
	assert.NoError(t, b.LoadROM(assemble(program...)))
	steps(t, a, len(program))
	steps(t, b, len(program))

	assert.Equal(t, a.registers.v, b.registers.v)
}

func TestTimerInstructions(t *testing.T) {
	vm := newTestVM(t, 0x6020, 0xf015, 0x6103, 0xf118)
	steps(t, vm, 4)

	assert.Equal(t, uint8(0x20), vm.Timers().Delay())
	assert.Equal(t, uint8(0x03), vm.SoundTimer())
}

func TestIndexInstructions(t *testing.T) {
	vm := newTestVM(t,
		0x6f07, // mov vf, 7
		0xa0ff, // mvi 0x0ff
		0x6002, // mov v0, 2
		0xf01e, // adi v0
	)
	steps(t, vm, 4)
	assert.Equal(t, uint16(0x101), vm.Registers().I())
	assert.Equal(t, uint8(7), vm.registers.v[FlagRegister])

	vm = newTestVM(t, 0xafff, 0x60ff, 0xf01e)
	steps(t, vm, 3)
	assert.Equal(t, uint16(0x10fe), vm.Registers().I(), "I is not masked to 12 bits")
}

func TestFontAddress(t *testing.T) {
	vm := newTestVM(t, 0x600a, 0xf029)
	steps(t, vm, 2)
	assert.Equal(t, FontStart+10*FontGlyphLen, vm.Registers().I())

	b, err := vm.Memory().Read(vm.Registers().I())
	assert.NoError(t, err)
	assert.Equal(t, uint8(0xf0), b)

	vm = newTestVM(t, 0x601b, 0xf029)
	steps(t, vm, 2)
	assert.Equal(t, FontStart+0xb*FontGlyphLen, vm.Registers().I())
}

func TestBCD(t *testing.T) {
	vm := newTestVM(t, 0x609d, 0xa300, 0xf033) // 157
	steps(t, vm, 3)

	for i, want := range []uint8{1, 5, 7} {
		got, err := vm.Memory().Read(0x300 + uint16(i))
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, uint16(0x300), vm.Registers().I())
}

func TestBCDIntoProtectedRegion(t *testing.T) {
	vm := newTestVM(t, 0xa000, 0xf033)
	steps(t, vm, 1)
	assert.True(t, errors.Is(vm.Step(), ErrProtectedRegion))
}

func TestStoreLoadRegisters(t *testing.T) {
	tests := []struct {
		name   string
		quirks Quirks
		index  uint16
	}{
		{"I unchanged", Quirks{}, 0x300},
		{"I advanced", Quirks{LoadStoreIncrementsI: true}, 0x303},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := New(WithQuirks(tt.quirks))
			assert.NoError(t, vm.LoadROM(assemble(0x6001, 0x6102, 0x6203, 0x6304, 0xa300, 0xf255)))
			steps(t, vm, 6)

			for i, want := range []uint8{1, 2, 3, 0} {
				got, err := vm.Memory().Read(0x300 + uint16(i))
				assert.NoError(t, err)
				assert.Equal(t, want, got)
			}
			assert.Equal(t, tt.index, vm.Registers().I())

			vm.Reset()
			assert.NoError(t, vm.LoadROM(assemble(0xa300, 0xf265)))
			assert.NoError(t, vm.Memory().Write(0x300, 9))
			assert.NoError(t, vm.Memory().Write(0x301, 8))
			assert.NoError(t, vm.Memory().Write(0x302, 7))
			assert.NoError(t, vm.Memory().Write(0x303, 6))
			steps(t, vm, 2)

			assert.Equal(t, uint8(9), vm.registers.v[0])
			assert.Equal(t, uint8(8), vm.registers.v[1])
			assert.Equal(t, uint8(7), vm.registers.v[2])
			assert.Equal(t, uint8(0), vm.registers.v[3])
			assert.Equal(t, tt.index, vm.Registers().I())
		})
	}
}

func TestDecodeFields(t *testing.T) {
	op := Opcode(0xd5a3)
	assert.Equal(t, uint8(0xd), op.Op())
	assert.Equal(t, uint8(0x5), op.X())
	assert.Equal(t, uint8(0xa), op.Y())
	assert.Equal(t, uint8(0x3), op.N())
	assert.Equal(t, uint8(0xa3), op.KK())
	assert.Equal(t, uint16(0x5a3), op.NNN())
}

func TestDecodeNames(t *testing.T) {
	tests := []struct {
		opcode uint16
		name   string
	}{
		{0x00e0, "cls"},
		{0x00ee, "rts"},
		{0x1234, "jmp 0x234"},
		{0x2345, "jsr 0x345"},
		{0x3a12, "skeq va, 0x12"},
		{0x4b34, "skne vb, 0x34"},
		{0x5120, "skeq v1, v2"},
		{0x6cff, "mov vc, 0xff"},
		{0x7d01, "add vd, 0x01"},
		{0x8120, "mov v1, v2"},
		{0x8121, "or v1, v2"},
		{0x8122, "and v1, v2"},
		{0x8123, "xor v1, v2"},
		{0x8124, "add v1, v2"},
		{0x8125, "sub v1, v2"},
		{0x8126, "shr v1, v2"},
		{0x8127, "rsb v1, v2"},
		{0x812e, "shl v1, v2"},
		{0x9120, "skne v1, v2"},
		{0xa123, "mvi 0x123"},
		{0xb123, "jmi 0x123"},
		{0xc10f, "rand v1, 0x0f"},
		{0xd125, "sprite v1, v2, 5"},
		{0xe19e, "skpr v1"},
		{0xe1a1, "skup v1"},
		{0xf107, "gdelay v1"},
		{0xf10a, "key v1"},
		{0xf115, "sdelay v1"},
		{0xf118, "ssound v1"},
		{0xf11e, "adi v1"},
		{0xf129, "font v1"},
		{0xf133, "bcd v1"},
		{0xf355, "str v0-v3"},
		{0xf365, "ldr v0-v3"},
		{0x0123, ".word 0x0123"},
		{0x5121, ".word 0x5121"},
	}

	for _, tt := range tests {
		op := Opcode(tt.opcode)
		assert.Equal(t, tt.name, decode(op).Name(op))
	}
}
