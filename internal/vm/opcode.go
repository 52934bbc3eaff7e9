package vm

import (
	"context"
	"fmt"
	"log/slog"
)

func (vm *VM) executeOpcode(pc uint16, opcode Opcode) error {
	instr := decode(opcode)

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug(
			"exec",
			"pc", fmt.Sprintf("0x%04x", pc),
			"opcode", fmt.Sprintf("0x%04x", uint16(opcode)),
			"instr", instr.Name(opcode),
		)
	}

	return instr.Execute(vm, opcode)
}

// instruction is one row of the opcode table. PC already points at the
// next instruction when Execute runs.
type instruction struct {
	Name    func(opcode Opcode) string
	Execute func(vm *VM, opcode Opcode) error
}

func (vm *VM) skipIf(cond bool) {
	if cond {
		vm.pc += InstructionSize
	}
}

func (vm *VM) setFlag(set bool) {
	if set {
		vm.registers.v[FlagRegister] = 1
	} else {
		vm.registers.v[FlagRegister] = 0
	}
}

func nameXY(mnemonic string) func(opcode Opcode) string {
	return func(opcode Opcode) string {
		return fmt.Sprintf("%s v%x, v%x", mnemonic, opcode.X(), opcode.Y())
	}
}

func nameXKK(mnemonic string) func(opcode Opcode) string {
	return func(opcode Opcode) string {
		return fmt.Sprintf("%s v%x, 0x%02x", mnemonic, opcode.X(), opcode.KK())
	}
}

func nameX(mnemonic string) func(opcode Opcode) string {
	return func(opcode Opcode) string {
		return fmt.Sprintf("%s v%x", mnemonic, opcode.X())
	}
}

func nameNNN(mnemonic string) func(opcode Opcode) string {
	return func(opcode Opcode) string {
		return fmt.Sprintf("%s 0x%03x", mnemonic, opcode.NNN())
	}
}

// shiftSource is the register 8xy6/8xyE read from.
func (vm *VM) shiftSource(opcode Opcode) uint8 {
	if vm.quirks.ShiftUsesVY {
		return vm.registers.v[opcode.Y()]
	}
	return vm.registers.v[opcode.X()]
}

var (
	// 00E0	cls	Clear the screen
	clsInstruction = instruction{
		Name: func(opcode Opcode) string {
			return "cls"
		},
		Execute: func(vm *VM, opcode Opcode) error {
			vm.display.Clear()
			return nil
		},
	}

	// 00EE	rts	return from subroutine call
	rtsInstruction = instruction{
		Name: func(opcode Opcode) string {
			return "rts"
		},
		Execute: func(vm *VM, opcode Opcode) error {
			addr, err := vm.stack.Pop()
			if err != nil {
				return err
			}
			vm.pc = addr
			return nil
		},
	}

	// 1xxx	jmp xxx	jump to address xxx
	jmpInstruction = instruction{
		Name: nameNNN("jmp"),
		Execute: func(vm *VM, opcode Opcode) error {
			addr := opcode.NNN()
			if addr == vm.pc-InstructionSize {
				slog.Info("program looped", "pc", fmt.Sprintf("0x%04x", addr))
				vm.state = StateHalted
			}
			vm.pc = addr
			return nil
		},
	}

	// 2xxx	jsr xxx	jump to subroutine at address xxx
	jsrInstruction = instruction{
		Name: nameNNN("jsr"),
		Execute: func(vm *VM, opcode Opcode) error {
			if err := vm.stack.Push(vm.pc); err != nil {
				return err
			}
			vm.pc = opcode.NNN()
			return nil
		},
	}

	// 3rxx	skeq vr,xx	skip if register r = constant
	skeq1Instruction = instruction{
		Name: nameXKK("skeq"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.skipIf(vm.registers.v[opcode.X()] == opcode.KK())
			return nil
		},
	}

	// 4rxx	skne vr,xx	skip if register r <> constant
	skne1Instruction = instruction{
		Name: nameXKK("skne"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.skipIf(vm.registers.v[opcode.X()] != opcode.KK())
			return nil
		},
	}

	// 5ry0	skeq vr,vy	skip if register r = register y
	skeq2Instruction = instruction{
		Name: nameXY("skeq"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.skipIf(vm.registers.v[opcode.X()] == vm.registers.v[opcode.Y()])
			return nil
		},
	}

	// 6rxx	mov vr,xx	move constant to register r
	mov1Instruction = instruction{
		Name: nameXKK("mov"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.registers.v[opcode.X()] = opcode.KK()
			return nil
		},
	}

	// 7rxx	add vr,xx	add constant to register r	No carry generated
	add1Instruction = instruction{
		Name: nameXKK("add"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.registers.v[opcode.X()] += opcode.KK()
			return nil
		},
	}

	// 8ry0	mov vr,vy	move register vy into vr
	mov2Instruction = instruction{
		Name: nameXY("mov"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.registers.v[opcode.X()] = vm.registers.v[opcode.Y()]
			return nil
		},
	}

	// 8ry1	or rx,ry	or register vy into register vx
	orInstruction = instruction{
		Name: nameXY("or"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.registers.v[opcode.X()] |= vm.registers.v[opcode.Y()]
			return nil
		},
	}

	// 8ry2	and rx,ry	and register vy into register vx
	andInstruction = instruction{
		Name: nameXY("and"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.registers.v[opcode.X()] &= vm.registers.v[opcode.Y()]
			return nil
		},
	}

	// 8ry3	xor rx,ry	exclusive or register ry into register rx
	xorInstruction = instruction{
		Name: nameXY("xor"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.registers.v[opcode.X()] ^= vm.registers.v[opcode.Y()]
			return nil
		},
	}

	// 8ry4	add vr,vy	add register vy to vr,carry in vf
	// The flag is written last, so with x = f VF holds the carry.
	add2Instruction = instruction{
		Name: nameXY("add"),
		Execute: func(vm *VM, opcode Opcode) error {
			sum := uint16(vm.registers.v[opcode.X()]) + uint16(vm.registers.v[opcode.Y()])
			vm.registers.v[opcode.X()] = uint8(sum)
			vm.setFlag(sum > 0xFF)
			return nil
		},
	}

	// 8ry5	sub vr,vy	subtract register vy from vr	vf set to 1 if vr > vy
	subInstruction = instruction{
		Name: nameXY("sub"),
		Execute: func(vm *VM, opcode Opcode) error {
			x := vm.registers.v[opcode.X()]
			y := vm.registers.v[opcode.Y()]
			vm.registers.v[opcode.X()] = x - y
			vm.setFlag(x > y)
			return nil
		},
	}

	// 8r06	shr vr	shift register vr right, bit 0 goes into register vf
	shrInstruction = instruction{
		Name: nameXY("shr"),
		Execute: func(vm *VM, opcode Opcode) error {
			src := vm.shiftSource(opcode)
			vm.registers.v[opcode.X()] = src >> 1
			vm.registers.v[FlagRegister] = src & 0x1
			return nil
		},
	}

	// 8ry7	rsb vr,vy	subtract register vr from register vy, result in vr	vf set to 1 if vy > vr
	rsbInstruction = instruction{
		Name: nameXY("rsb"),
		Execute: func(vm *VM, opcode Opcode) error {
			x := vm.registers.v[opcode.X()]
			y := vm.registers.v[opcode.Y()]
			vm.registers.v[opcode.X()] = y - x
			vm.setFlag(y > x)
			return nil
		},
	}

	// 8r0e	shl vr	shift register vr left,bit 7 goes into register vf
	shlInstruction = instruction{
		Name: nameXY("shl"),
		Execute: func(vm *VM, opcode Opcode) error {
			src := vm.shiftSource(opcode)
			vm.registers.v[opcode.X()] = src << 1
			vm.registers.v[FlagRegister] = src >> 7
			return nil
		},
	}

	// 9ry0	skne rx,ry	skip if register rx <> register ry
	skne2Instruction = instruction{
		Name: nameXY("skne"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.skipIf(vm.registers.v[opcode.X()] != vm.registers.v[opcode.Y()])
			return nil
		},
	}

	// axxx	mvi xxx	Load index register with constant xxx
	mviInstruction = instruction{
		Name: nameNNN("mvi"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.registers.index = opcode.NNN()
			return nil
		},
	}

	// bxxx	jmi xxx	Jump to address xxx+register v0
	jmiInstruction = instruction{
		Name: nameNNN("jmi"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.pc = opcode.NNN() + uint16(vm.registers.v[0])
			return nil
		},
	}

	// crxx	rand vr,xx	vr = random byte masked by xx
	randInstruction = instruction{
		Name: nameXKK("rand"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.registers.v[opcode.X()] = uint8(vm.rand.IntN(256)) & opcode.KK()
			return nil
		},
	}

	// drys	sprite rx,ry,s	Draw sprite at screen location rx,ry height s
	// Sprites stored in memory at location in index register, maximum 8 bits wide.
	// Wraps around the screen.
	// If when drawn, clears a pixel, vf is set to 1 otherwise it is zero.
	// All drawing is xor drawing (e.g. it toggles the screen pixels)
	spriteInstruction = instruction{
		Name: func(opcode Opcode) string {
			return fmt.Sprintf("sprite v%x, v%x, %d", opcode.X(), opcode.Y(), opcode.N())
		},
		Execute: func(vm *VM, opcode Opcode) error {
			xLocation := int(vm.registers.v[opcode.X()])
			yLocation := int(vm.registers.v[opcode.Y()])
			height := int(opcode.N())

			hasCollision := false
			for y := 0; y < height; y++ {
				pixel, err := vm.memory.Read(vm.registers.index + uint16(y))
				if err != nil {
					return err
				}

				const width = 8
				for x := 0; x < width; x++ {
					mask := uint8(0x80 >> x)
					if pixel&mask == 0 {
						continue
					}
					if vm.display.TogglePixel(xLocation+x, yLocation+y) {
						hasCollision = true
					}
				}
			}

			vm.setFlag(hasCollision)
			return nil
		},
	}

	// ek9e	skpr k	skip if key (register rk) pressed
	skprInstruction = instruction{
		Name: nameX("skpr"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.skipIf(vm.keypad.IsPressed(Key(vm.registers.v[opcode.X()])))
			return nil
		},
	}

	// eka1	skup k	skip if key (register rk) not pressed
	skupInstruction = instruction{
		Name: nameX("skup"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.skipIf(!vm.keypad.IsPressed(Key(vm.registers.v[opcode.X()])))
			return nil
		},
	}

	// fr07	gdelay vr	get delay timer into vr
	gdelayInstruction = instruction{
		Name: nameX("gdelay"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.registers.v[opcode.X()] = vm.timers.Delay()
			return nil
		},
	}

	// fr0a	key vr	wait for keypress,put key in register vr
	// Suspends the CPU; Step resumes it once a key goes down.
	keyInstruction = instruction{
		Name: nameX("key"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.state = StateAwaitingKey
			vm.waitReg = opcode.X()
			vm.waitHeld = vm.keypad.snapshot()
			slog.Debug("awaiting key", "reg", fmt.Sprintf("v%x", opcode.X()))
			return nil
		},
	}

	// fr15	sdelay vr	set the delay timer to vr
	sdelayInstruction = instruction{
		Name: nameX("sdelay"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.timers.SetDelay(vm.registers.v[opcode.X()])
			return nil
		},
	}

	// fr18	ssound vr	set the sound timer to vr
	ssoundInstruction = instruction{
		Name: nameX("ssound"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.timers.SetSound(vm.registers.v[opcode.X()])
			return nil
		},
	}

	// fr1e	adi vr	add register vr to the index register	vf unchanged
	adiInstruction = instruction{
		Name: nameX("adi"),
		Execute: func(vm *VM, opcode Opcode) error {
			vm.registers.index += uint16(vm.registers.v[opcode.X()])
			return nil
		},
	}

	// fr29	font vr	point I to the sprite for hexadecimal character in vr	Sprite is 5 bytes high
	fontInstruction = instruction{
		Name: nameX("font"),
		Execute: func(vm *VM, opcode Opcode) error {
			digit := uint16(vm.registers.v[opcode.X()] & 0x0F)
			vm.registers.index = FontStart + digit*FontGlyphLen
			return nil
		},
	}

	// fr33	bcd vr	store the bcd representation of register vr at location I,I+1,I+2	Doesn't change I
	bcdInstruction = instruction{
		Name: nameX("bcd"),
		Execute: func(vm *VM, opcode Opcode) error {
			x := vm.registers.v[opcode.X()]
			digits := [3]uint8{x / 100, (x / 10) % 10, x % 10}

			for i, d := range digits {
				if err := vm.memory.Write(vm.registers.index+uint16(i), d); err != nil {
					return err
				}
			}
			return nil
		},
	}

	// fr55	str v0-vr	store registers v0-vr at location I onwards
	strInstruction = instruction{
		Name: func(opcode Opcode) string {
			return fmt.Sprintf("str v0-v%x", opcode.X())
		},
		Execute: func(vm *VM, opcode Opcode) error {
			n := uint16(opcode.X())

			for i := uint16(0); i <= n; i++ {
				if err := vm.memory.Write(vm.registers.index+i, vm.registers.v[i]); err != nil {
					return err
				}
			}

			// On the original interpreter, when the operation is done, I = I + X + 1.
			if vm.quirks.LoadStoreIncrementsI {
				vm.registers.index += n + 1
			}
			return nil
		},
	}

	// fx65	ldr v0-vr	load registers v0-vr from location I onwards.
	ldrInstruction = instruction{
		Name: func(opcode Opcode) string {
			return fmt.Sprintf("ldr v0-v%x", opcode.X())
		},
		Execute: func(vm *VM, opcode Opcode) error {
			n := uint16(opcode.X())

			for i := uint16(0); i <= n; i++ {
				value, err := vm.memory.Read(vm.registers.index + i)
				if err != nil {
					return err
				}
				vm.registers.v[i] = value
			}

			if vm.quirks.LoadStoreIncrementsI {
				vm.registers.index += n + 1
			}
			return nil
		},
	}

	unknownInstruction = instruction{
		Name: func(opcode Opcode) string {
			return fmt.Sprintf(".word 0x%04x", uint16(opcode))
		},
		Execute: func(vm *VM, opcode Opcode) error {
			return ErrUnknownOpcode
		},
	}
)
