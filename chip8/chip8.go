package chip8

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"
)

/// Memory layout and machine limits.
///
const (
	MemorySize   = 0x1000
	ProgramStart = 0x200
	StackDepth   = 16
	NumRegisters = 16
	NumKeys      = 16

	/// DefaultClockHz is the default instruction rate. Timers always
	/// tick at 60 Hz no matter the clock.
	///
	DefaultClockHz = 600
)

const timerPeriod = time.Second / 60

/// Advance never tries to make up more than this much lost time, so a
/// stall (window drag, file dialog) doesn't burst thousands of cycles.
///
const maxCatchUp = time.Second / 4

/// State of the execution loop.
///
type State int

const (
	Running State = iota
	WaitingForKey
	Halted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case WaitingForKey:
		return "waiting for key"
	case Halted:
		return "halted"
	}

	return fmt.Sprintf("State(%d)", int(s))
}

/// Quirks select between divergent historical interpreter behaviors.
/// The zero value is the documented modern interpretation.
///
type Quirks struct {
	/// ShiftY makes SHR and SHL read VY as the shift source instead of
	/// shifting VX in place (COSMAC VIP behavior).
	///
	ShiftY bool

	/// IncrementI makes LD [I], VX and LD VX, [I] leave I pointing past
	/// the last register touched instead of leaving it unchanged.
	///
	IncrementI bool
}

/// VM is a CHIP-8 virtual machine. All state is owned by the single
/// goroutine driving Step or Advance; renderers read snapshots only.
///
type VM struct {
	memory [MemorySize]byte
	v      [NumRegisters]byte
	i      uint16
	pc     uint16
	stack  [StackDepth]uint16
	sp     int
	dt     byte
	st     byte

	display Display
	keys    [NumKeys]bool

	state   State
	waitReg byte
	fault   error

	// pristine program image, restored by Reset
	rom []byte

	rng        *rand.Rand
	quirks     Quirks
	permissive bool

	clockHz   int
	cycles    uint64
	stepDebt  time.Duration
	timerDebt time.Duration
}

/// Option configures a VM at construction time.
///
type Option func(*VM) error

/// WithClockHz sets the instruction rate in instructions per second.
///
func WithClockHz(hz int) Option {
	return func(vm *VM) error {
		if hz < 1 {
			return fmt.Errorf("invalid clock rate: %d", hz)
		}

		vm.clockHz = hz

		return nil
	}
}

/// WithQuirks selects compatibility behavior for shift and register
/// dump/load instructions.
///
func WithQuirks(q Quirks) Option {
	return func(vm *VM) error {
		vm.quirks = q

		return nil
	}
}

/// WithPermissiveDecode makes invalid opcodes execute as no-ops instead
/// of halting the machine. Meant for compatibility testing.
///
func WithPermissiveDecode() Option {
	return func(vm *VM) error {
		vm.permissive = true

		return nil
	}
}

/// WithSeed makes the RND instruction deterministic.
///
func WithSeed(seed int64) Option {
	return func(vm *VM) error {
		vm.rng = rand.New(rand.NewSource(seed))

		return nil
	}
}

/// New creates a CHIP-8 virtual machine with no program loaded.
///
func New(opts ...Option) (*VM, error) {
	vm := &VM{
		clockHz: DefaultClockHz,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, opt := range opts {
		if err := opt(vm); err != nil {
			return nil, err
		}
	}

	vm.Reset()

	return vm, nil
}

/// Load copies a program image into memory at 0x200 and resets the
/// machine. The image is kept so Reset can restore it after programs
/// overwrite themselves.
///
func (vm *VM) Load(program []byte) error {
	if len(program) == 0 {
		return ErrEmptyProgram
	}

	if len(program) > MemorySize-ProgramStart {
		return fmt.Errorf("%w: %d bytes over the %d byte limit", ErrProgramTooLarge, len(program), MemorySize-ProgramStart)
	}

	vm.rom = append([]byte(nil), program...)
	vm.Reset()

	return nil
}

/// LoadFile loads a ROM image from disk.
///
func (vm *VM) LoadFile(file string) error {
	program, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading rom: %w", err)
	}

	return vm.Load(program)
}

/// Reset restores the machine to its power-on state with the loaded
/// program intact.
///
func (vm *VM) Reset() {
	vm.memory = [MemorySize]byte{}

	// font sprites below the program, then the pristine image
	copy(vm.memory[fontBase:], fontSprites[:])
	copy(vm.memory[ProgramStart:], vm.rom)

	vm.v = [NumRegisters]byte{}
	vm.i = 0
	vm.pc = ProgramStart

	vm.stack = [StackDepth]uint16{}
	vm.sp = 0

	vm.dt = 0
	vm.st = 0

	vm.display.Clear()
	vm.keys = [NumKeys]bool{}

	vm.state = Running
	vm.waitReg = 0
	vm.fault = nil

	vm.cycles = 0
	vm.stepDebt = 0
	vm.timerDebt = 0
}

/// Step executes a single instruction. While waiting for a key it does
/// nothing; once halted it fails with ErrHalted. A fault halts the
/// machine and is returned.
///
func (vm *VM) Step() error {
	switch vm.state {
	case Halted:
		return ErrHalted
	case WaitingForKey:
		return nil
	}

	w, err := vm.fetch()
	if err != nil {
		return vm.halt(err)
	}

	if err := vm.exec(w); err != nil {
		if vm.permissive && errors.Is(err, ErrInvalidOpcode) {
			vm.cycles++

			return nil
		}

		return vm.halt(err)
	}

	vm.cycles++

	return nil
}

/// Advance runs the machine for a slice of wall-clock time: timers tick
/// once per 1/60 s of accumulated time, instructions run at the
/// configured clock rate. Time left over carries into the next call.
///
func (vm *VM) Advance(elapsed time.Duration) error {
	if vm.state == Halted {
		return ErrHalted
	}

	if elapsed > maxCatchUp {
		elapsed = maxCatchUp
	}

	vm.timerDebt += elapsed
	for vm.timerDebt >= timerPeriod {
		vm.TickTimers()
		vm.timerDebt -= timerPeriod
	}

	vm.stepDebt += elapsed
	period := time.Second / time.Duration(vm.clockHz)

	for vm.stepDebt >= period {
		vm.stepDebt -= period

		// waiting burns the cycle without executing
		if vm.state == WaitingForKey {
			continue
		}

		if err := vm.Step(); err != nil {
			return err
		}
	}

	return nil
}

/// TickTimers decrements the delay and sound timers toward zero. The
/// caller is responsible for the 60 Hz cadence; Advance does this.
///
func (vm *VM) TickTimers() {
	if vm.dt > 0 {
		vm.dt--
	}

	if vm.st > 0 {
		vm.st--
	}
}

/// SetKey records a key press or release. A press edge completes a
/// pending key wait: the key lands in the waiting register and PC moves
/// past the wait instruction. A key already held does not complete it.
///
func (vm *VM) SetKey(key byte, pressed bool) {
	if int(key) >= NumKeys {
		return
	}

	was := vm.keys[key]
	vm.keys[key] = pressed

	if vm.state == WaitingForKey && pressed && !was {
		vm.v[vm.waitReg] = key
		vm.pc += 2
		vm.state = Running
	}
}

/// halt stops the machine with a fault.
///
func (vm *VM) halt(err error) error {
	vm.state = Halted
	vm.fault = err

	return err
}

/// fetch reads the 16-bit big-endian instruction word at PC and
/// advances PC past it.
///
func (vm *VM) fetch() (uint16, error) {
	if int(vm.pc)+1 >= MemorySize {
		return 0, fmt.Errorf("%w: instruction fetch at %03X", ErrMemoryOutOfRange, vm.pc)
	}

	w := uint16(vm.memory[vm.pc])<<8 | uint16(vm.memory[vm.pc+1])
	vm.pc += 2

	return w, nil
}

/// Framebuffer returns a snapshot copy of the display pixels.
///
func (vm *VM) Framebuffer() [DisplayHeight][DisplayWidth]bool {
	return vm.display.Pixels()
}

/// DisplayDirty reports whether the display changed since the renderer
/// last cleared the flag.
///
func (vm *VM) DisplayDirty() bool {
	return vm.display.Dirty()
}

/// ClearDisplayDirty marks the display as rendered.
///
func (vm *VM) ClearDisplayDirty() {
	vm.display.ClearDirty()
}

/// IsSounding reports whether the sound timer is running and a tone
/// should play.
///
func (vm *VM) IsSounding() bool {
	return vm.st > 0
}

/// State returns the execution loop state.
///
func (vm *VM) State() State {
	return vm.state
}

/// Fault returns the fault that halted the machine, or nil.
///
func (vm *VM) Fault() error {
	return vm.fault
}

/// PC returns the program counter.
///
func (vm *VM) PC() uint16 {
	return vm.pc
}

/// Index returns the address register I.
///
func (vm *VM) Index() uint16 {
	return vm.i
}

/// Register returns the value of VX.
///
func (vm *VM) Register(x int) byte {
	return vm.v[x&0x0F]
}

/// DelayTimer returns the delay timer value.
///
func (vm *VM) DelayTimer() byte {
	return vm.dt
}

/// SoundTimer returns the sound timer value.
///
func (vm *VM) SoundTimer() byte {
	return vm.st
}

/// Cycles returns how many instructions have executed since Reset.
///
func (vm *VM) Cycles() uint64 {
	return vm.cycles
}

/// ClockHz returns the instruction rate.
///
func (vm *VM) ClockHz() int {
	return vm.clockHz
}

/// SetClockHz changes the instruction rate, clamped to a sane range.
///
func (vm *VM) SetClockHz(hz int) {
	if hz < 60 {
		hz = 60
	}

	if hz > 10000 {
		hz = 10000
	}

	vm.clockHz = hz
}
