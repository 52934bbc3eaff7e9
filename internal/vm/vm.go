package vm

import (
	"fmt"
	"log/slog"
	"math/bits"
	"math/rand/v2"
)

const InstructionSize = 2

// State tells the driver whether Step will execute instructions.
type State uint8

const (
	// StateRunning executes one instruction per Step.
	StateRunning = State(iota)
	// StateAwaitingKey is entered by Fx0A. Step only polls the keypad.
	StateAwaitingKey
	// StateHalted is entered when the program jumps to itself.
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateAwaitingKey:
		return "awaiting key"
	case StateHalted:
		return "halted"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Quirks select between interpreter lineages where they disagree.
// The zero value is the default behaviour.
type Quirks struct {
	// ShiftUsesVY makes 8xy6/8xyE shift Vy into Vx, as the COSMAC VIP did.
	ShiftUsesVY bool
	// LoadStoreIncrementsI makes Fx55/Fx65 leave I at I+x+1.
	LoadStoreIncrementsI bool
}

// Random is the source for Cxkk. *rand.Rand satisfies it.
type Random interface {
	IntN(n int) int
}

type VM struct {
	memory    Memory
	registers Registers
	stack     Stack
	timers    Timers
	display   Display
	keypad    Keypad

	pc    uint16 // Program counter
	state State

	waitReg  uint8  // Fx0A destination register
	waitHeld uint16 // keys held when Fx0A started

	err error // sticky execution failure

	quirks Quirks
	rand   Random
}

type Option func(*VM)

func WithRand(r Random) Option {
	return func(vm *VM) {
		vm.rand = r
	}
}

// WithSeed seeds a PCG generator for Cxkk.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func WithQuirks(q Quirks) Option {
	return func(vm *VM) {
		vm.quirks = q
	}
}

func New(opts ...Option) *VM {
	vm := &VM{}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.rand == nil {
		vm.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	vm.Reset()
	return vm
}

// Reset returns the machine to its power-on state: everything zeroed,
// font reloaded, PC at ProgramStart. The ROM has to be loaded again.
func (vm *VM) Reset() {
	vm.memory.clear()
	slog.Debug("load font", "at", fmt.Sprintf("0x%04x", FontStart), "n", len(chip8Font))
	vm.memory.loadFont()

	vm.registers = Registers{}
	vm.stack = Stack{}
	vm.timers = Timers{}
	vm.keypad.reset()
	vm.display.Clear()

	vm.pc = ProgramStart
	vm.state = StateRunning
	vm.waitReg = 0
	vm.waitHeld = 0
	vm.err = nil
}

func (vm *VM) LoadROM(rom []byte) error {
	if err := vm.memory.LoadROM(rom); err != nil {
		return err
	}
	slog.Info("load program", "at", fmt.Sprintf("0x%04x", ProgramStart), "n", len(rom))
	return nil
}

// Step executes exactly one instruction. While awaiting a key it only
// polls the keypad, and while halted it does nothing. Once an instruction
// has failed, Step keeps returning that failure until Reset.
func (vm *VM) Step() error {
	if vm.err != nil {
		return vm.err
	}

	switch vm.state {
	case StateHalted:
		return nil
	case StateAwaitingKey:
		vm.pollKey()
		return nil
	}

	pc := vm.pc
	opcode, err := vm.memory.fetch(pc)
	if err != nil {
		vm.err = &ExecError{PC: pc, Err: err}
		return vm.err
	}
	vm.pc += InstructionSize

	if err := vm.executeOpcode(pc, Opcode(opcode)); err != nil {
		vm.err = &ExecError{PC: pc, Opcode: opcode, Err: err}
		return vm.err
	}

	return nil
}

// TickTimers decrements both timers once. Call it at 60 Hz.
func (vm *VM) TickTimers() {
	vm.timers.Tick()
}

func (vm *VM) pollKey() {
	held := vm.keypad.snapshot()
	fresh := held &^ vm.waitHeld
	vm.waitHeld &= held

	if fresh == 0 {
		return
	}

	key := bits.TrailingZeros16(fresh)
	vm.registers.v[vm.waitReg] = uint8(key)
	vm.state = StateRunning
	slog.Debug("key received", "key", Key(key).String(), "reg", fmt.Sprintf("v%x", vm.waitReg))
}

func (vm *VM) PC() uint16 { return vm.pc }
func (vm *VM) State() State { return vm.state }
func (vm *VM) Err() error { return vm.err }
func (vm *VM) Memory() *Memory { return &vm.memory }
func (vm *VM) Registers() *Registers { return &vm.registers }
func (vm *VM) Stack() *Stack { return &vm.stack }
func (vm *VM) Timers() *Timers { return &vm.timers }
func (vm *VM) Display() *Display { return &vm.display }
func (vm *VM) Keypad() *Keypad { return &vm.keypad }
func (vm *VM) SoundTimer() uint8 { return vm.timers.Sound() }
