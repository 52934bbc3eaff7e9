package vm

// Opcode is a raw instruction word, read as four nibbles op|x|y|n from
// the top. kk is the low byte and nnn the low 12 bits.
type Opcode uint16

func (op Opcode) Op() uint8 { return uint8(op>>12) & 0x0F }
func (op Opcode) X() uint8 { return uint8(op>>8) & 0x0F }
func (op Opcode) Y() uint8 { return uint8(op>>4) & 0x0F }
func (op Opcode) N() uint8 { return uint8(op) & 0x0F }
func (op Opcode) KK() uint8 { return uint8(op) }
func (op Opcode) NNN() uint16 { return uint16(op) & 0x0FFF }

// decoder resolves an opcode within one top-nibble group. It returns nil
// when nothing in the group matches.
type decoder func(op Opcode) *instruction

func always(instr *instruction) decoder {
	return func(Opcode) *instruction {
		return instr
	}
}

func byLowNibble(table map[uint8]*instruction) decoder {
	return func(op Opcode) *instruction {
		return table[op.N()]
	}
}

func byLowByte(table map[uint8]*instruction) decoder {
	return func(op Opcode) *instruction {
		return table[op.KK()]
	}
}

// bySysByte matches 00kk only; 0nnn machine calls are not supported.
func bySysByte(table map[uint8]*instruction) decoder {
	return func(op Opcode) *instruction {
		if op.X() != 0 {
			return nil
		}
		return table[op.KK()]
	}
}

// opcodeTable is keyed by the top nibble.
var opcodeTable = [16]decoder{
	0x0: bySysByte(map[uint8]*instruction{
		0xE0: &clsInstruction,
		0xEE: &rtsInstruction,
	}),
	0x1: always(&jmpInstruction),
	0x2: always(&jsrInstruction),
	0x3: always(&skeq1Instruction),
	0x4: always(&skne1Instruction),
	0x5: byLowNibble(map[uint8]*instruction{
		0x0: &skeq2Instruction,
	}),
	0x6: always(&mov1Instruction),
	0x7: always(&add1Instruction),
	0x8: byLowNibble(map[uint8]*instruction{
		0x0: &mov2Instruction,
		0x1: &orInstruction,
		0x2: &andInstruction,
		0x3: &xorInstruction,
		0x4: &add2Instruction,
		0x5: &subInstruction,
		0x6: &shrInstruction,
		0x7: &rsbInstruction,
		0xE: &shlInstruction,
	}),
	0x9: byLowNibble(map[uint8]*instruction{
		0x0: &skne2Instruction,
	}),
	0xA: always(&mviInstruction),
	0xB: always(&jmiInstruction),
	0xC: always(&randInstruction),
	0xD: always(&spriteInstruction),
	0xE: byLowByte(map[uint8]*instruction{
		0x9E: &skprInstruction,
		0xA1: &skupInstruction,
	}),
	0xF: byLowByte(map[uint8]*instruction{
		0x07: &gdelayInstruction,
		0x0A: &keyInstruction,
		0x15: &sdelayInstruction,
		0x18: &ssoundInstruction,
		0x1E: &adiInstruction,
		0x29: &fontInstruction,
		0x33: &bcdInstruction,
		0x55: &strInstruction,
		0x65: &ldrInstruction,
	}),
}

// decode classifies op. Unmatched words decode to unknownInstruction.
func decode(op Opcode) *instruction {
	if instr := opcodeTable[op.Op()](op); instr != nil {
		return instr
	}
	return &unknownInstruction
}
