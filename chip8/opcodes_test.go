package chip8

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestSysIsNoOp(t *testing.T) {
	vm := newTestVM(t,
		0x0123, // SYS #123
		0x6005, // LD V0, #05
	)

	step(t, vm, 2)

	assert.Equal(t, byte(5), vm.Register(0))
	assert.Equal(t, uint16(0x204), vm.PC())
}

func TestJp(t *testing.T) {
	vm := newTestVM(t, 0x1456)

	step(t, vm, 1)
	assert.Equal(t, uint16(0x456), vm.PC())
}

func TestJpV0(t *testing.T) {
	vm := newTestVM(t,
		0x6010, // LD V0, #10
		0xB300, // JP V0, #300
	)

	step(t, vm, 2)
	assert.Equal(t, uint16(0x310), vm.PC())
}

func TestCallRet(t *testing.T) {
	vm := newTestVM(t,
		0x2204, // CALL #204
		0x6001, // LD V0, #01
		0x6105, // LD V1, #05
		0x00EE, // RET
	)

	step(t, vm, 1)
	assert.Equal(t, uint16(0x204), vm.PC())

	step(t, vm, 2) // LD V1 and RET
	assert.Equal(t, byte(5), vm.Register(1))
	assert.Equal(t, uint16(0x202), vm.PC())

	step(t, vm, 1)
	assert.Equal(t, byte(1), vm.Register(0))
}

func TestCallOverflow(t *testing.T) {
	vm := newTestVM(t, 0x2200) // CALL #200, forever

	step(t, vm, StackDepth)

	err := vm.Step()
	assert.True(t, errors.Is(err, ErrStackOverflow))
	assert.Equal(t, Halted, vm.State())
}

func TestRetUnderflow(t *testing.T) {
	vm := newTestVM(t, 0x00EE) // RET with nothing on the stack

	err := vm.Step()
	assert.True(t, errors.Is(err, ErrStackUnderflow))
	assert.Equal(t, Halted, vm.State())
}

func TestSkipByByte(t *testing.T) {
	tests := []struct {
		name string
		op   uint16
		v1   byte
		pc   uint16
	}{
		{"se equal skips", 0x3105, 5, 0x204},
		{"se unequal does not", 0x3105, 6, 0x202},
		{"sne equal does not", 0x4105, 5, 0x202},
		{"sne unequal skips", 0x4105, 6, 0x204},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, tt.op)
			vm.v[1] = tt.v1

			step(t, vm, 1)
			assert.Equal(t, tt.pc, vm.PC())
		})
	}
}

func TestSkipByRegister(t *testing.T) {
	tests := []struct {
		name   string
		op     uint16
		v1, v2 byte
		pc     uint16
	}{
		{"se equal skips", 0x5120, 7, 7, 0x204},
		{"se unequal does not", 0x5120, 7, 8, 0x202},
		{"sne equal does not", 0x9120, 7, 7, 0x202},
		{"sne unequal skips", 0x9120, 7, 8, 0x204},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, tt.op)
			vm.v[1] = tt.v1
			vm.v[2] = tt.v2

			step(t, vm, 1)
			assert.Equal(t, tt.pc, vm.PC())
		})
	}
}

func TestLdByte(t *testing.T) {
	vm := newTestVM(t, 0x61FE)

	step(t, vm, 1)
	assert.Equal(t, byte(0xFE), vm.Register(1))
}

func TestAddByteWrapsWithoutFlag(t *testing.T) {
	vm := newTestVM(t, 0x710A) // ADD V1, #0A
	vm.v[1] = 250
	vm.v[0xF] = 9

	step(t, vm, 1)

	assert.Equal(t, byte(4), vm.Register(1))
	assert.Equal(t, byte(9), vm.Register(0xF))
}

func TestLdRegister(t *testing.T) {
	vm := newTestVM(t, 0x8120)
	vm.v[2] = 0xAB

	step(t, vm, 1)
	assert.Equal(t, byte(0xAB), vm.Register(1))
}

func TestBitwise(t *testing.T) {
	tests := []struct {
		name string
		op   uint16
		want byte
	}{
		{"or", 0x8121, 0xCF},
		{"and", 0x8122, 0x0A},
		{"xor", 0x8123, 0xC5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, tt.op)
			vm.v[1] = 0x4E
			vm.v[2] = 0x8B

			step(t, vm, 1)
			assert.Equal(t, tt.want, vm.Register(1))
		})
	}
}

func TestAddCarry(t *testing.T) {
	tests := []struct {
		name   string
		v1, v2 byte
		want   byte
		flag   byte
	}{
		{"no carry", 10, 20, 30, 0},
		{"carry", 200, 100, 44, 1},
		{"wrap to zero", 255, 1, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, 0x8124) // ADD V1, V2
			vm.v[1] = tt.v1
			vm.v[2] = tt.v2

			step(t, vm, 1)

			assert.Equal(t, tt.want, vm.Register(1))
			assert.Equal(t, tt.flag, vm.Register(0xF))
		})
	}
}

func TestSubBorrow(t *testing.T) {
	tests := []struct {
		name   string
		v1, v2 byte
		want   byte
		flag   byte
	}{
		{"no borrow", 10, 5, 5, 1},
		{"equal is no borrow", 5, 5, 0, 1},
		{"borrow", 5, 10, 251, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, 0x8125) // SUB V1, V2
			vm.v[1] = tt.v1
			vm.v[2] = tt.v2

			step(t, vm, 1)

			assert.Equal(t, tt.want, vm.Register(1))
			assert.Equal(t, tt.flag, vm.Register(0xF))
		})
	}
}

func TestSubnBorrow(t *testing.T) {
	tests := []struct {
		name   string
		v1, v2 byte
		want   byte
		flag   byte
	}{
		{"no borrow", 5, 10, 5, 1},
		{"equal is no borrow", 5, 5, 0, 1},
		{"borrow", 10, 5, 251, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, 0x8127) // SUBN V1, V2
			vm.v[1] = tt.v1
			vm.v[2] = tt.v2

			step(t, vm, 1)

			assert.Equal(t, tt.want, vm.Register(1))
			assert.Equal(t, tt.flag, vm.Register(0xF))
		})
	}
}

func TestShiftRight(t *testing.T) {
	vm := newTestVM(t, 0x8126) // SHR V1, V2
	vm.v[1] = 0x0B
	vm.v[2] = 0xF0

	step(t, vm, 1)

	// without the quirk the y register is ignored
	assert.Equal(t, byte(0x05), vm.Register(1))
	assert.Equal(t, byte(1), vm.Register(0xF))
}

func TestShiftLeft(t *testing.T) {
	vm := newTestVM(t, 0x812E) // SHL V1, V2
	vm.v[1] = 0x81
	vm.v[2] = 0x0F

	step(t, vm, 1)

	assert.Equal(t, byte(0x02), vm.Register(1))
	assert.Equal(t, byte(1), vm.Register(0xF))
}

func TestShiftQuirkReadsY(t *testing.T) {
	vm, err := New(WithQuirks(Quirks{ShiftY: true}))
	assert.NoError(t, err)
	assert.NoError(t, vm.Load(rom(
		0x8126, // SHR V1, V2
		0x834E, // SHL V3, V4
	)))

	vm.v[1] = 0x0B
	vm.v[2] = 0xF0
	vm.v[4] = 0x81

	step(t, vm, 1)
	assert.Equal(t, byte(0x78), vm.Register(1))
	assert.Equal(t, byte(0), vm.Register(0xF))

	step(t, vm, 1)
	assert.Equal(t, byte(0x02), vm.Register(3))
	assert.Equal(t, byte(1), vm.Register(0xF))
}

func TestFlagRegisterAsTarget(t *testing.T) {
	// when vf is the destination the flag is what survives
	tests := []struct {
		name string
		op   uint16
		vf   byte
		v1   byte
		flag byte
	}{
		{"add keeps carry", 0x8F14, 200, 100, 1},
		{"add keeps no carry", 0x8F14, 10, 20, 0},
		{"sub keeps borrow flag", 0x8F15, 10, 5, 1},
		{"shr keeps shifted bit", 0x8FF6, 3, 0, 1},
		{"shl keeps shifted bit", 0x8FFE, 0x81, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, tt.op)
			vm.v[0xF] = tt.vf
			vm.v[1] = tt.v1

			step(t, vm, 1)
			assert.Equal(t, tt.flag, vm.Register(0xF))
		})
	}
}

func TestLdIndex(t *testing.T) {
	vm := newTestVM(t, 0xA123)

	step(t, vm, 1)
	assert.Equal(t, uint16(0x123), vm.Index())
}

func TestRnd(t *testing.T) {
	a, err := New(WithSeed(42))
	assert.NoError(t, err)
	assert.NoError(t, a.Load(rom(0xC0FF, 0xC10F)))

	b, err := New(WithSeed(42))
	assert.NoError(t, err)
	assert.NoError(t, b.Load(rom(0xC0FF, 0xC10F)))

	step(t, a, 2)
	step(t, b, 2)

	// same seed, same sequence
	assert.Equal(t, a.Register(0), b.Register(0))
	assert.Equal(t, a.Register(1), b.Register(1))

	// the mask limits the result
	assert.Equal(t, byte(0), a.Register(1)&0xF0)
}

func TestDrawFontGlyph(t *testing.T) {
	vm := newTestVM(t,
		0x6000, // LD V0, #00
		0xF029, // LD F, V0
		0xD125, // DRW V1, V2, 5
		0xD125, // DRW V1, V2, 5
	)

	step(t, vm, 3)

	assert.Equal(t, uint16(0), vm.Index())
	assert.Equal(t, byte(0), vm.Register(0xF))

	// the top-left block now holds the zero glyph bit pattern
	fb := vm.Framebuffer()
	for row, b := range []byte{0xF0, 0x90, 0x90, 0x90, 0xF0} {
		for bit := 0; bit < 8; bit++ {
			assert.Equal(t, b&(0x80>>bit) != 0, fb[row][bit], "row %d bit %d", row, bit)
		}
	}

	// drawing the same sprite again erases it and reports collision
	step(t, vm, 1)
	assert.Equal(t, byte(1), vm.Register(0xF))

	fb = vm.Framebuffer()
	assert.False(t, fb[0][0])
	assert.False(t, fb[4][0])
}

func TestDrawFaultsPastMemory(t *testing.T) {
	vm := newTestVM(t,
		0xAFFF, // LD I, #FFF
		0xD002, // DRW V0, V0, 2
	)

	step(t, vm, 1)

	err := vm.Step()
	assert.True(t, errors.Is(err, ErrMemoryOutOfRange))
	assert.Equal(t, Halted, vm.State())
}

func TestSkipByKey(t *testing.T) {
	tests := []struct {
		name    string
		op      uint16
		pressed bool
		pc      uint16
	}{
		{"skp pressed skips", 0xE09E, true, 0x204},
		{"skp released does not", 0xE09E, false, 0x202},
		{"sknp pressed does not", 0xE0A1, true, 0x202},
		{"sknp released skips", 0xE0A1, false, 0x204},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, tt.op)
			vm.v[0] = 4
			vm.SetKey(4, tt.pressed)

			step(t, vm, 1)
			assert.Equal(t, tt.pc, vm.PC())
		})
	}
}

func TestTimerRegisters(t *testing.T) {
	vm := newTestVM(t,
		0x6A3C, // LD VA, #3C
		0xFA15, // LD DT, VA
		0xFA18, // LD ST, VA
		0xFB07, // LD VB, DT
	)

	step(t, vm, 4)

	assert.Equal(t, byte(60), vm.DelayTimer())
	assert.Equal(t, byte(60), vm.SoundTimer())
	assert.Equal(t, byte(60), vm.Register(0xB))
	assert.True(t, vm.IsSounding())
}

func TestAddIndex(t *testing.T) {
	vm := newTestVM(t,
		0x6005, // LD V0, #05
		0xA100, // LD I, #100
		0xF01E, // ADD I, V0
	)

	step(t, vm, 3)
	assert.Equal(t, uint16(0x105), vm.Index())
}

func TestLdFontUsesLowNibble(t *testing.T) {
	vm := newTestVM(t,
		0x601A, // LD V0, #1A
		0xF029, // LD F, V0
	)

	step(t, vm, 2)

	// digit A, five bytes per glyph
	assert.Equal(t, uint16(0xA*glyphSize), vm.Index())
}

func TestBcd(t *testing.T) {
	tests := []struct {
		name   string
		v      byte
		digits [3]byte
	}{
		{"three digits", 234, [3]byte{2, 3, 4}},
		{"one digit", 7, [3]byte{0, 0, 7}},
		{"max", 255, [3]byte{2, 5, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t,
				0xA300, // LD I, #300
				0xF033, // LD B, V0
			)
			vm.v[0] = tt.v

			step(t, vm, 2)

			assert.Equal(t, tt.digits[0], vm.memory[0x300])
			assert.Equal(t, tt.digits[1], vm.memory[0x301])
			assert.Equal(t, tt.digits[2], vm.memory[0x302])
			assert.Equal(t, uint16(0x300), vm.Index())
		})
	}
}

func TestBcdFaultsPastMemory(t *testing.T) {
	vm := newTestVM(t,
		0xAFFE, // LD I, #FFE
		0xF033, // LD B, V0
	)

	step(t, vm, 1)

	err := vm.Step()
	assert.True(t, errors.Is(err, ErrMemoryOutOfRange))
}

func TestStoreAndFillRegisters(t *testing.T) {
	vm := newTestVM(t,
		0xA300, // LD I, #300
		0xF255, // LD [I], V2
		0x6000, // LD V0, #00
		0x6100, // LD V1, #00
		0x6200, // LD V2, #00
		0xF265, // LD V2, [I]
	)

	vm.v[0] = 0x11
	vm.v[1] = 0x22
	vm.v[2] = 0x33
	vm.v[3] = 0x44

	step(t, vm, 2)

	assert.Equal(t, byte(0x11), vm.memory[0x300])
	assert.Equal(t, byte(0x22), vm.memory[0x301])
	assert.Equal(t, byte(0x33), vm.memory[0x302])

	// v3 is past the dump and stays out of memory
	assert.Equal(t, byte(0), vm.memory[0x303])

	// I is unchanged without the quirk
	assert.Equal(t, uint16(0x300), vm.Index())

	step(t, vm, 4)

	assert.Equal(t, byte(0x11), vm.Register(0))
	assert.Equal(t, byte(0x22), vm.Register(1))
	assert.Equal(t, byte(0x33), vm.Register(2))
	assert.Equal(t, byte(0x44), vm.Register(3))
}

func TestStoreRegistersIncrementQuirk(t *testing.T) {
	vm, err := New(WithQuirks(Quirks{IncrementI: true}))
	assert.NoError(t, err)
	assert.NoError(t, vm.Load(rom(
		0xA300, // LD I, #300
		0xF255, // LD [I], V2
		0xF165, // LD V1, [I]
	)))

	step(t, vm, 2)
	assert.Equal(t, uint16(0x303), vm.Index())

	step(t, vm, 1)
	assert.Equal(t, uint16(0x305), vm.Index())
}

func TestStoreRegistersFaultsPastMemory(t *testing.T) {
	vm := newTestVM(t,
		0xAFFE, // LD I, #FFE
		0xF255, // LD [I], V2
	)

	step(t, vm, 1)

	err := vm.Step()
	assert.True(t, errors.Is(err, ErrMemoryOutOfRange))
}

func TestFillRegistersFaultsPastMemory(t *testing.T) {
	vm := newTestVM(t,
		0xAFFD, // LD I, #FFD
		0xF365, // LD V3, [I]
	)

	step(t, vm, 1)

	err := vm.Step()
	assert.True(t, errors.Is(err, ErrMemoryOutOfRange))
}

func TestInvalidOpcodeHalts(t *testing.T) {
	vm := newTestVM(t, 0xFFFF)

	err := vm.Step()
	assert.True(t, errors.Is(err, ErrInvalidOpcode))
	assert.Equal(t, Halted, vm.State())
	assert.True(t, errors.Is(vm.Fault(), ErrInvalidOpcode))

	assert.True(t, errors.Is(vm.Step(), ErrHalted))
}

func TestInvalidOpcodePermissive(t *testing.T) {
	vm, err := New(WithPermissiveDecode())
	assert.NoError(t, err)
	assert.NoError(t, vm.Load(rom(
		0xFFFF, // not an instruction
		0x6005, // LD V0, #05
	)))

	step(t, vm, 2)

	assert.Equal(t, Running, vm.State())
	assert.NoError(t, vm.Fault())
	assert.Equal(t, byte(5), vm.Register(0))
	assert.Equal(t, uint64(2), vm.Cycles())
}

func TestProgramFlow(t *testing.T) {
	// the whole point: load a number, add to it, spin
	vm := newTestVM(t,
		0x6005, // LD V0, #05
		0x7003, // ADD V0, #03
		0x1204, // JP #204
	)

	step(t, vm, 2)
	assert.Equal(t, byte(8), vm.Register(0))

	// the tight loop holds the program counter in place
	step(t, vm, 3)
	assert.Equal(t, uint16(0x204), vm.PC())
	assert.Equal(t, byte(8), vm.Register(0))
}
