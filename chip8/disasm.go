package chip8

import (
	"fmt"
	"strings"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

/// lookup finds the instruction table entry matching a word, or nil.
///
func lookup(w uint16) *chip8.Instruction {
	for _, op := range chip8.Opcodes[int(w>>12)] {
		if op.Info.Mask&w == op.Info.Value {
			return op.Instruction
		}
	}

	return nil
}

/// Disassemble renders one instruction word as assembler source. Words
/// that decode to nothing render as a WORD directive so a listing still
/// assembles back to the same bytes.
///
func Disassemble(w uint16) string {
	ins := lookup(w)
	if ins == nil {
		if w&0xF000 == 0x0000 {
			return fmt.Sprintf("%-6s #%03X", "SYS", w&0x0FFF)
		}

		return fmt.Sprintf("%-6s #%04X", "WORD", w)
	}

	params := formatParams(ins.Name, w)
	if params == "" {
		return strings.ToUpper(ins.Name)
	}

	return fmt.Sprintf("%-6s %s", strings.ToUpper(ins.Name), params)
}

/// DisassembleAt renders the instruction at a memory address as a
/// listing line with the address up front.
///
func (vm *VM) DisassembleAt(addr uint16) string {
	if int(addr)+1 >= MemorySize {
		return fmt.Sprintf("%04X - ??", addr)
	}

	w := uint16(vm.memory[addr])<<8 | uint16(vm.memory[addr+1])

	return fmt.Sprintf("%04X - %s", addr, Disassemble(w))
}

/// DisassembleROM renders a whole program image as listing lines,
/// addressed from the program start.
///
func DisassembleROM(program []byte) []string {
	lines := make([]string, 0, (len(program)+1)/2)

	i := 0
	for ; i+1 < len(program); i += 2 {
		w := uint16(program[i])<<8 | uint16(program[i+1])
		lines = append(lines, fmt.Sprintf("%04X - %s", ProgramStart+i, Disassemble(w)))
	}

	// odd trailing byte has to be data
	if i < len(program) {
		lines = append(lines, fmt.Sprintf("%04X - %-6s #%02X", ProgramStart+i, "BYTE", program[i]))
	}

	return lines
}

/// formatParams renders the operand list for a matched instruction.
///
func formatParams(name string, w uint16) string {
	x := w >> 8 & 0xF
	y := w >> 4 & 0xF

	switch name {
	case chip8.Cls.Name, chip8.Ret.Name:
		return ""

	case chip8.Jp.Name:
		if w&0xF000 == 0xB000 {
			return fmt.Sprintf("V0, #%03X", w&0x0FFF)
		}

		return fmt.Sprintf("#%03X", w&0x0FFF)

	case chip8.Call.Name:
		return fmt.Sprintf("#%03X", w&0x0FFF)

	case chip8.Se.Name, chip8.Sne.Name:
		if w&0xF000 == 0x3000 || w&0xF000 == 0x4000 {
			return fmt.Sprintf("V%X, #%02X", x, w&0xFF)
		}

		return fmt.Sprintf("V%X, V%X", x, y)

	case chip8.Ld.Name:
		return formatLoad(w, x, y)

	case chip8.Add.Name:
		switch w & 0xF000 {
		case 0x7000:
			return fmt.Sprintf("V%X, #%02X", x, w&0xFF)
		case 0x8000:
			return fmt.Sprintf("V%X, V%X", x, y)
		default:
			return fmt.Sprintf("I, V%X", x)
		}

	case chip8.Or.Name, chip8.And.Name, chip8.Xor.Name, chip8.Sub.Name, chip8.Subn.Name:
		return fmt.Sprintf("V%X, V%X", x, y)

	case chip8.Shr.Name, chip8.Shl.Name:
		// keep the y operand when it differs so the word reassembles
		if x != y {
			return fmt.Sprintf("V%X, V%X", x, y)
		}

		return fmt.Sprintf("V%X", x)

	case chip8.Skp.Name, chip8.Sknp.Name:
		return fmt.Sprintf("V%X", x)

	case chip8.Rnd.Name:
		return fmt.Sprintf("V%X, #%02X", x, w&0xFF)

	case chip8.Drw.Name:
		return fmt.Sprintf("V%X, V%X, %d", x, y, w&0xF)
	}

	// anything else in the table takes a plain address operand
	return fmt.Sprintf("#%03X", w&0x0FFF)
}

/// formatLoad renders the operands of the many LD forms.
///
func formatLoad(w, x, y uint16) string {
	switch w & 0xF000 {
	case 0x6000:
		return fmt.Sprintf("V%X, #%02X", x, w&0xFF)
	case 0x8000:
		return fmt.Sprintf("V%X, V%X", x, y)
	case 0xA000:
		return fmt.Sprintf("I, #%03X", w&0x0FFF)
	}

	switch w & 0xF0FF {
	case 0xF007:
		return fmt.Sprintf("V%X, DT", x)
	case 0xF00A:
		return fmt.Sprintf("V%X, K", x)
	case 0xF015:
		return fmt.Sprintf("DT, V%X", x)
	case 0xF018:
		return fmt.Sprintf("ST, V%X", x)
	case 0xF029:
		return fmt.Sprintf("F, V%X", x)
	case 0xF033:
		return fmt.Sprintf("B, V%X", x)
	case 0xF055:
		return fmt.Sprintf("[I], V%X", x)
	case 0xF065:
		return fmt.Sprintf("V%X, [I]", x)
	}

	return ""
}
