package chip8

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDisassemble(t *testing.T) {
	tests := []struct {
		w    uint16
		want string
	}{
		{0x00E0, "CLS"},
		{0x00EE, "RET"},
		{0x0123, "SYS    #123"},
		{0x1234, "JP     #234"},
		{0x2345, "CALL   #345"},
		{0x3412, "SE     V4, #12"},
		{0x4412, "SNE    V4, #12"},
		{0x5470, "SE     V4, V7"},
		{0x6AFF, "LD     VA, #FF"},
		{0x7A01, "ADD    VA, #01"},
		{0x8AB0, "LD     VA, VB"},
		{0x8AB1, "OR     VA, VB"},
		{0x8AB2, "AND    VA, VB"},
		{0x8AB3, "XOR    VA, VB"},
		{0x8AB4, "ADD    VA, VB"},
		{0x8AB5, "SUB    VA, VB"},
		{0x8AA6, "SHR    VA"},
		{0x8AB6, "SHR    VA, VB"},
		{0x8AB7, "SUBN   VA, VB"},
		{0x8AAE, "SHL    VA"},
		{0x8ABE, "SHL    VA, VB"},
		{0x9AB0, "SNE    VA, VB"},
		{0xA123, "LD     I, #123"},
		{0xB123, "JP     V0, #123"},
		{0xC4AA, "RND    V4, #AA"},
		{0xD125, "DRW    V1, V2, 5"},
		{0xE19E, "SKP    V1"},
		{0xE1A1, "SKNP   V1"},
		{0xF107, "LD     V1, DT"},
		{0xF10A, "LD     V1, K"},
		{0xF115, "LD     DT, V1"},
		{0xF118, "LD     ST, V1"},
		{0xF11E, "ADD    I, V1"},
		{0xF129, "LD     F, V1"},
		{0xF133, "LD     B, V1"},
		{0xF155, "LD     [I], V1"},
		{0xF165, "LD     V1, [I]"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Disassemble(tt.w))
		})
	}
}

func TestDisassembleUnknownWord(t *testing.T) {
	tests := []struct {
		w    uint16
		want string
	}{
		{0x800F, "WORD   #800F"},
		{0xE1FF, "WORD   #E1FF"},
		{0xF1FF, "WORD   #F1FF"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Disassemble(tt.w))
		})
	}
}

func TestDisassembleAt(t *testing.T) {
	vm := newTestVM(t, 0x00E0, 0x1234)

	assert.Equal(t, "0200 - CLS", vm.DisassembleAt(0x200))
	assert.Equal(t, "0202 - JP     #234", vm.DisassembleAt(0x202))
	assert.Equal(t, "0FFF - ??", vm.DisassembleAt(0xFFF))
}

func TestDisassembleROM(t *testing.T) {
	program := append(rom(0x00E0, 0x6A02), 0xAB)

	lines := DisassembleROM(program)

	assert.Len(t, lines, 3)
	assert.Equal(t, "0200 - CLS", lines[0])
	assert.Equal(t, "0202 - LD     VA, #02", lines[1])
	assert.Equal(t, "0204 - BYTE   #AB", lines[2])
}
