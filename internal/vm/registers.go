package vm

import "fmt"

const (
	RegisterCount = 16
	StackSize     = 16

	// FlagRegister is VF, the carry/borrow/collision output.
	FlagRegister = 0x0F
)

type Registers struct {
	v     [RegisterCount]uint8 // V registers (V0-VF)
	index uint16               // Index register
}

func (r *Registers) Get(x uint8) (uint8, error) {
	if int(x) >= RegisterCount {
		return 0, fmt.Errorf("v%d: %w", x, ErrInvalidRegister)
	}
	return r.v[x], nil
}

func (r *Registers) Set(x uint8, value uint8) error {
	if int(x) >= RegisterCount {
		return fmt.Errorf("v%d: %w", x, ErrInvalidRegister)
	}
	r.v[x] = value
	return nil
}

// I returns the address register. It is a pointer, so it may hold any
// 16-bit value regardless of the memory map.
func (r *Registers) I() uint16 {
	return r.index
}

func (r *Registers) SetI(value uint16) {
	r.index = value
}

// Stack holds return addresses. sp is the number of live entries.
type Stack struct {
	entries [StackSize]uint16
	sp      uint16
}

func (s *Stack) Push(addr uint16) error {
	if int(s.sp) >= StackSize {
		return fmt.Errorf("push 0x%04x: %w", addr, ErrStackOverflow)
	}
	s.entries[s.sp] = addr
	s.sp++
	return nil
}

func (s *Stack) Pop() (uint16, error) {
	if s.sp == 0 {
		return 0, ErrStackUnderflow
	}
	s.sp--
	return s.entries[s.sp], nil
}

// Depth returns the number of live return addresses.
func (s *Stack) Depth() int {
	return int(s.sp)
}
