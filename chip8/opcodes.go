package chip8

import "fmt"

/// exec decodes and executes one instruction word. PC already points
/// past the word; instructions that transfer control overwrite it.
///
func (vm *VM) exec(w uint16) error {
	var err error

	// 12-bit address operand
	nnn := w & 0x0FFF

	// byte and nibble operands
	kk := byte(w)
	n := byte(w & 0xF)

	// x and y register operands
	x := w >> 8 & 0xF
	y := w >> 4 & 0xF

	if w == 0x00E0 {
		vm.cls()
	} else if w == 0x00EE {
		err = vm.ret()
	} else if w&0xF000 == 0x0000 {
		vm.sys(nnn)
	} else if w&0xF000 == 0x1000 {
		vm.jp(nnn)
	} else if w&0xF000 == 0x2000 {
		err = vm.call(nnn)
	} else if w&0xF000 == 0x3000 {
		vm.seKK(x, kk)
	} else if w&0xF000 == 0x4000 {
		vm.sneKK(x, kk)
	} else if w&0xF00F == 0x5000 {
		vm.seXY(x, y)
	} else if w&0xF000 == 0x6000 {
		vm.ldKK(x, kk)
	} else if w&0xF000 == 0x7000 {
		vm.addKK(x, kk)
	} else if w&0xF00F == 0x8000 {
		vm.ldXY(x, y)
	} else if w&0xF00F == 0x8001 {
		vm.or(x, y)
	} else if w&0xF00F == 0x8002 {
		vm.and(x, y)
	} else if w&0xF00F == 0x8003 {
		vm.xor(x, y)
	} else if w&0xF00F == 0x8004 {
		vm.addXY(x, y)
	} else if w&0xF00F == 0x8005 {
		vm.subXY(x, y)
	} else if w&0xF00F == 0x8006 {
		vm.shr(x, y)
	} else if w&0xF00F == 0x8007 {
		vm.subYX(x, y)
	} else if w&0xF00F == 0x800E {
		vm.shl(x, y)
	} else if w&0xF00F == 0x9000 {
		vm.sneXY(x, y)
	} else if w&0xF000 == 0xA000 {
		vm.ldI(nnn)
	} else if w&0xF000 == 0xB000 {
		vm.jpV0(nnn)
	} else if w&0xF000 == 0xC000 {
		vm.rnd(x, kk)
	} else if w&0xF000 == 0xD000 {
		err = vm.drw(x, y, n)
	} else if w&0xF0FF == 0xE09E {
		vm.skp(x)
	} else if w&0xF0FF == 0xE0A1 {
		vm.sknp(x)
	} else if w&0xF0FF == 0xF007 {
		vm.ldXDT(x)
	} else if w&0xF0FF == 0xF00A {
		vm.waitKey(x)
	} else if w&0xF0FF == 0xF015 {
		vm.ldDTX(x)
	} else if w&0xF0FF == 0xF018 {
		vm.ldSTX(x)
	} else if w&0xF0FF == 0xF01E {
		vm.addI(x)
	} else if w&0xF0FF == 0xF029 {
		vm.ldF(x)
	} else if w&0xF0FF == 0xF033 {
		err = vm.bcd(x)
	} else if w&0xF0FF == 0xF055 {
		err = vm.storeRegs(x)
	} else if w&0xF0FF == 0xF065 {
		err = vm.fillRegs(x)
	} else {
		err = fmt.Errorf("%w %04X at %03X", ErrInvalidOpcode, w, vm.pc-2)
	}

	return err
}

/// clear the display.
///
func (vm *VM) cls() {
	vm.display.Clear()
}

/// machine call into interpreter memory, executed as a no-op.
///
func (vm *VM) sys(uint16) {
}

/// return from subroutine.
///
func (vm *VM) ret() error {
	if vm.sp == 0 {
		return fmt.Errorf("%w: return at %03X", ErrStackUnderflow, vm.pc-2)
	}

	vm.sp--
	vm.pc = vm.stack[vm.sp]

	return nil
}

/// jump to address.
///
func (vm *VM) jp(nnn uint16) {
	vm.pc = nnn
}

/// jump to address + v0.
///
func (vm *VM) jpV0(nnn uint16) {
	vm.pc = nnn + uint16(vm.v[0])
}

/// call subroutine, pushing the return address.
///
func (vm *VM) call(nnn uint16) error {
	if vm.sp == StackDepth {
		return fmt.Errorf("%w: call to %03X at depth %d", ErrStackOverflow, nnn, vm.sp)
	}

	vm.stack[vm.sp] = vm.pc
	vm.sp++
	vm.pc = nnn

	return nil
}

/// skip next instruction if vx == kk.
///
func (vm *VM) seKK(x uint16, kk byte) {
	if vm.v[x] == kk {
		vm.pc += 2
	}
}

/// skip next instruction if vx != kk.
///
func (vm *VM) sneKK(x uint16, kk byte) {
	if vm.v[x] != kk {
		vm.pc += 2
	}
}

/// skip next instruction if vx == vy.
///
func (vm *VM) seXY(x, y uint16) {
	if vm.v[x] == vm.v[y] {
		vm.pc += 2
	}
}

/// skip next instruction if vx != vy.
///
func (vm *VM) sneXY(x, y uint16) {
	if vm.v[x] != vm.v[y] {
		vm.pc += 2
	}
}

/// load kk into vx.
///
func (vm *VM) ldKK(x uint16, kk byte) {
	vm.v[x] = kk
}

/// add kk to vx, wrapping, no flag.
///
func (vm *VM) addKK(x uint16, kk byte) {
	vm.v[x] += kk
}

/// load vy into vx.
///
func (vm *VM) ldXY(x, y uint16) {
	vm.v[x] = vm.v[y]
}

/// or vy into vx.
///
func (vm *VM) or(x, y uint16) {
	vm.v[x] |= vm.v[y]
}

/// and vy into vx.
///
func (vm *VM) and(x, y uint16) {
	vm.v[x] &= vm.v[y]
}

/// xor vy into vx.
///
func (vm *VM) xor(x, y uint16) {
	vm.v[x] ^= vm.v[y]
}

/// add vy to vx, vf = carry. The flag lands last so it wins when vx
/// is vf itself.
///
func (vm *VM) addXY(x, y uint16) {
	sum := uint16(vm.v[x]) + uint16(vm.v[y])

	vm.v[x] = byte(sum)
	vm.v[0xF] = byte(sum >> 8)
}

/// subtract vy from vx, vf = 1 when there was no borrow.
///
func (vm *VM) subXY(x, y uint16) {
	vx, vy := vm.v[x], vm.v[y]

	vm.v[x] = vx - vy

	if vx >= vy {
		vm.v[0xF] = 1
	} else {
		vm.v[0xF] = 0
	}
}

/// vx = vy - vx, vf = 1 when there was no borrow.
///
func (vm *VM) subYX(x, y uint16) {
	vx, vy := vm.v[x], vm.v[y]

	vm.v[x] = vy - vx

	if vy >= vx {
		vm.v[0xF] = 1
	} else {
		vm.v[0xF] = 0
	}
}

/// shift right one bit, vf = the bit shifted out. The source is vx, or
/// vy under the ShiftY quirk.
///
func (vm *VM) shr(x, y uint16) {
	src := x
	if vm.quirks.ShiftY {
		src = y
	}

	v := vm.v[src]

	vm.v[x] = v >> 1
	vm.v[0xF] = v & 1
}

/// shift left one bit, vf = the bit shifted out.
///
func (vm *VM) shl(x, y uint16) {
	src := x
	if vm.quirks.ShiftY {
		src = y
	}

	v := vm.v[src]

	vm.v[x] = v << 1
	vm.v[0xF] = v >> 7
}

/// load I with an address.
///
func (vm *VM) ldI(nnn uint16) {
	vm.i = nnn
}

/// load vx with a random byte masked by kk.
///
func (vm *VM) rnd(x uint16, kk byte) {
	vm.v[x] = byte(vm.rng.Intn(256)) & kk
}

/// draw an n-byte sprite from I at (vx, vy), vf = collision.
///
func (vm *VM) drw(x, y uint16, n byte) error {
	end := int(vm.i) + int(n)
	if end > MemorySize {
		return fmt.Errorf("%w: sprite read %03X..%03X", ErrMemoryOutOfRange, vm.i, end-1)
	}

	if vm.display.Draw(vm.v[x], vm.v[y], vm.memory[vm.i:end]) {
		vm.v[0xF] = 1
	} else {
		vm.v[0xF] = 0
	}

	return nil
}

/// skip next instruction if key vx is pressed.
///
func (vm *VM) skp(x uint16) {
	if vm.keys[vm.v[x]&0x0F] {
		vm.pc += 2
	}
}

/// skip next instruction if key vx is not pressed.
///
func (vm *VM) sknp(x uint16) {
	if !vm.keys[vm.v[x]&0x0F] {
		vm.pc += 2
	}
}

/// load the delay timer into vx.
///
func (vm *VM) ldXDT(x uint16) {
	vm.v[x] = vm.dt
}

/// block until a key press lands in vx. PC moves back onto this
/// instruction so it stays current until SetKey sees a press edge.
///
func (vm *VM) waitKey(x uint16) {
	vm.pc -= 2
	vm.waitReg = byte(x)
	vm.state = WaitingForKey
}

/// load vx into the delay timer.
///
func (vm *VM) ldDTX(x uint16) {
	vm.dt = vm.v[x]
}

/// load vx into the sound timer.
///
func (vm *VM) ldSTX(x uint16) {
	vm.st = vm.v[x]
}

/// add vx to I, wrapping at 16 bits.
///
func (vm *VM) addI(x uint16) {
	vm.i += uint16(vm.v[x])
}

/// load I with the font glyph address for the low nibble of vx.
///
func (vm *VM) ldF(x uint16) {
	vm.i = fontBase + uint16(vm.v[x]&0x0F)*glyphSize
}

/// write the three decimal digits of vx to I, I+1, I+2.
///
func (vm *VM) bcd(x uint16) error {
	if int(vm.i)+2 >= MemorySize {
		return fmt.Errorf("%w: BCD write at %03X", ErrMemoryOutOfRange, vm.i)
	}

	v := vm.v[x]

	vm.memory[vm.i] = v / 100
	vm.memory[vm.i+1] = v / 10 % 10
	vm.memory[vm.i+2] = v % 10

	return nil
}

/// dump v0..vx to memory at I. I is unchanged unless the IncrementI
/// quirk is on.
///
func (vm *VM) storeRegs(x uint16) error {
	if int(vm.i)+int(x) >= MemorySize {
		return fmt.Errorf("%w: register dump at %03X", ErrMemoryOutOfRange, vm.i)
	}

	for k := uint16(0); k <= x; k++ {
		vm.memory[vm.i+k] = vm.v[k]
	}

	if vm.quirks.IncrementI {
		vm.i += x + 1
	}

	return nil
}

/// fill v0..vx from memory at I. I is unchanged unless the IncrementI
/// quirk is on.
///
func (vm *VM) fillRegs(x uint16) error {
	if int(vm.i)+int(x) >= MemorySize {
		return fmt.Errorf("%w: register load at %03X", ErrMemoryOutOfRange, vm.i)
	}

	for k := uint16(0); k <= x; k++ {
		vm.v[k] = vm.memory[vm.i+k]
	}

	if vm.quirks.IncrementI {
		vm.i += x + 1
	}

	return nil
}
