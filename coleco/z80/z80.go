// Package z80 declares the contract a Z80 instruction interpreter must
// satisfy to be driven by this module's Scheduler. No opcode semantics are
// implemented here: the interpreter is an external collaborator, injected
// by the caller, that reads and writes through the Bus it is constructed
// with.
package z80

import "github.com/tanagra/coleco/serial"

// Bus is the memory/IO surface a CPU implementation reads and writes
// through. The console's memory/IO bus type satisfies this interface.
type Bus interface {
	ReadByte(addr uint16) uint8
	WriteByte(addr uint16, value uint8)
	ReadPort(port uint8) uint8
	WritePort(port uint8, value uint8)
}

// CPU is the drop-in Z80 interpreter contract. A concrete implementation is
// not part of this module; callers supply one (or a test fake) that
// executes real Z80 instructions against a Bus.
type CPU interface {
	// Init resets internal interpreter state without touching the bus.
	Init()

	// Reset pulses a CPU reset. hard is reserved for future use and is
	// otherwise unused by this interpreter contract.
	Reset(hard bool)

	// Step executes exactly one instruction and returns the cycles it
	// consumed.
	Step() uint32

	// Run executes instructions until at least the given number of cycles
	// has elapsed, returning the actual cycle count consumed (which may
	// overshoot the request by up to one instruction's length).
	Run(cycles uint32) uint32

	// Delay adds cycles to be returned from the next Step/Run call,
	// without executing any instructions. Used to model peripheral load
	// latency (e.g. the PSG's write delay).
	Delay(cycles uint32)

	// PulseIRQ requests a maskable interrupt, carrying the data byte the
	// interrupting device places on the bus during an IM2 acknowledge
	// cycle.
	PulseIRQ(data uint8)

	// PulseNMI requests a non-maskable interrupt.
	PulseNMI()

	// ClearIRQ withdraws a previously requested maskable interrupt.
	ClearIRQ()

	// CycleStore and CycleRestore carry the leftover-cycle count across
	// scanline boundaries in the scheduler's budgeted loop.
	CycleStore(cycles uint32)
	CycleRestore() uint32

	// StateSave and StateLoad serialize and restore the CPU's observable
	// register set (see Registers) for state snapshots.
	StateSave() Registers
	StateLoad(Registers)
}

// Registers is the observable register set a CPU implementation must
// expose for state snapshots, matching the embedded-dependency contract.
type Registers struct {
	PC, SP, IX, IY, MemPtr uint16
	A, F, B, C, D, E, H, L uint8
	A1, F1, B1, C1, D1, E1, H1, L1 uint8
	I, R                   uint8
	IFF1, IFF2             bool
	IFFDelay                int8
	InterruptMode           uint8
	IRQData                 uint8
	Halted                  bool
	IRQPending, NMIPending  bool
}

// RegistersStateSize is the fixed byte length of a serialized Registers:
// 5 register pairs (10 bytes) + 8 main-bank + 8 shadow-bank registers + I
// + R + 8 single-byte flags/fields (IFF1, IFF2, IFFDelay, InterruptMode,
// IRQData, Halted, IRQPending, NMIPending).
const RegistersStateSize = 5*2 + 8 + 8 + 2 + 8

// SaveState pushes r onto w in the canonical snapshot field order: the
// 16-bit register pairs, the two register banks, I/R, the two interrupt
// flip-flops, the EI-delay counter, the current interrupt mode, the
// latched IRQ data byte, halted state, and the two pending-interrupt
// flags.
func (r Registers) SaveState(w *serial.Writer) {
	w.Push16(r.PC)
	w.Push16(r.SP)
	w.Push16(r.IX)
	w.Push16(r.IY)
	w.Push16(r.MemPtr)

	w.Push8(r.A)
	w.Push8(r.F)
	w.Push8(r.B)
	w.Push8(r.C)
	w.Push8(r.D)
	w.Push8(r.E)
	w.Push8(r.H)
	w.Push8(r.L)

	w.Push8(r.A1)
	w.Push8(r.F1)
	w.Push8(r.B1)
	w.Push8(r.C1)
	w.Push8(r.D1)
	w.Push8(r.E1)
	w.Push8(r.H1)
	w.Push8(r.L1)

	w.Push8(r.I)
	w.Push8(r.R)

	w.PushBool(r.IFF1)
	w.PushBool(r.IFF2)
	w.Push8(uint8(r.IFFDelay))
	w.Push8(r.InterruptMode)
	w.Push8(r.IRQData)
	w.PushBool(r.Halted)
	w.PushBool(r.IRQPending)
	w.PushBool(r.NMIPending)
}

// LoadRegistersState restores a Registers value from r, written by a
// prior SaveState call, in the same field order.
func LoadRegistersState(r *serial.Reader) Registers {
	var regs Registers

	regs.PC = r.Pop16()
	regs.SP = r.Pop16()
	regs.IX = r.Pop16()
	regs.IY = r.Pop16()
	regs.MemPtr = r.Pop16()

	regs.A = r.Pop8()
	regs.F = r.Pop8()
	regs.B = r.Pop8()
	regs.C = r.Pop8()
	regs.D = r.Pop8()
	regs.E = r.Pop8()
	regs.H = r.Pop8()
	regs.L = r.Pop8()

	regs.A1 = r.Pop8()
	regs.F1 = r.Pop8()
	regs.B1 = r.Pop8()
	regs.C1 = r.Pop8()
	regs.D1 = r.Pop8()
	regs.E1 = r.Pop8()
	regs.H1 = r.Pop8()
	regs.L1 = r.Pop8()

	regs.I = r.Pop8()
	regs.R = r.Pop8()

	regs.IFF1 = r.PopBool()
	regs.IFF2 = r.PopBool()
	regs.IFFDelay = int8(r.Pop8())
	regs.InterruptMode = r.Pop8()
	regs.IRQData = r.Pop8()
	regs.Halted = r.PopBool()
	regs.IRQPending = r.PopBool()
	regs.NMIPending = r.PopBool()

	return regs
}
