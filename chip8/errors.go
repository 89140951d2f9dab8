package chip8

import "errors"

/// Faults raised by the virtual machine. Load-time faults abort the load,
/// run-time faults halt the machine. Wrapped values carry the offending
/// address or instruction word; match with errors.Is.
///
var (
	ErrInvalidOpcode    = errors.New("invalid opcode")
	ErrStackOverflow    = errors.New("stack overflow")
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrProgramTooLarge  = errors.New("program too large")
	ErrEmptyProgram     = errors.New("empty program")
	ErrMemoryOutOfRange = errors.New("memory access out of range")

	/// ErrHalted is returned when stepping a machine that already
	/// faulted. The original fault is available from Fault.
	///
	ErrHalted = errors.New("machine halted")
)
