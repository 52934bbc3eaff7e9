package vm

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds     = errors.New("address out of bounds")
	ErrProtectedRegion = errors.New("write to protected region")
	ErrROMTooLarge     = errors.New("rom too large")
	ErrInvalidRegister = errors.New("invalid register")
	ErrStackOverflow   = errors.New("stack overflow")
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrUnknownOpcode   = errors.New("unknown opcode")
)

// ExecError reports a failure of a single instruction. PC is the address
// the opcode was fetched from.
type ExecError struct {
	PC     uint16
	Opcode uint16
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("exec 0x%04x at 0x%04x: %v", e.Opcode, e.PC, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
