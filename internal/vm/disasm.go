package vm

import (
	"fmt"
	"io"
)

// Disassemble writes a listing of rom as it would sit in memory, one
// instruction word per line. Data mixed into the code is listed as .word.
func Disassemble(w io.Writer, rom []byte) error {
	if len(rom) > MaxROMSize {
		return fmt.Errorf("%d bytes, at most %d fit: %w", len(rom), MaxROMSize, ErrROMTooLarge)
	}

	addr := ProgramStart
	for i := 0; i+1 < len(rom); i += InstructionSize {
		opcode := Opcode(uint16(rom[i])<<8 | uint16(rom[i+1]))
		if _, err := fmt.Fprintf(w, "0x%04x  %04x  %s\n", addr, uint16(opcode), decode(opcode).Name(opcode)); err != nil {
			return err
		}
		addr += InstructionSize
	}

	if len(rom)%InstructionSize != 0 {
		if _, err := fmt.Fprintf(w, "0x%04x  %02x    .byte 0x%02x\n", addr, rom[len(rom)-1], rom[len(rom)-1]); err != nil {
			return err
		}
	}

	return nil
}
