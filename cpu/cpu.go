// Package cpu implements the DCPU-16 fetch/decode/execute loop over a
// unified address space: real memory and the register file share one
// read/write interface, so peripherals observe every instruction-driven
// write (including register writes) through a single notification path.
// The PC advance during fetch and the SP adjustment made while decoding
// PUSH/POP are not notified.
package cpu

import "github.com/dcpu16/dcpu16/encoding"

// MemSize is the width of the real, word-addressed memory array. It
// never changes for the lifetime of a CPU.
const MemSize = 0x10000

// Register pseudo-addresses. A general register or special register's
// own operand-field code doubles as its offset from RegBase, so
// address = RegBase + code for any of A..J, SP, PC, O.
const (
	RegBase     = MemSize
	ScratchSlot = RegBase + 0x1E
	AddrSpace   = ScratchSlot + 1
)

// CPU holds the full machine state: memory, the register file (aliased
// into the same address space starting at RegBase), and the scheduling
// state for the fetch/decode/execute loop.
type CPU struct {
	mem [AddrSpace]uint16

	skip    bool
	cycle   uint64
	running bool

	peripherals []Peripheral
}

// New returns a CPU with zeroed memory and registers, PC at 0.
func New() *CPU {
	return &CPU{}
}

// LoadProgram copies words into memory starting at address 0, the
// object file's sole load address (no relocation, no ORG directive).
func (c *CPU) LoadProgram(words []uint16) {
	copy(c.mem[:MemSize], words)
}

// Cycle returns the number of cycles executed so far.
func (c *CPU) Cycle() uint64 { return c.cycle }

// Running reports whether the fetch/decode/execute loop has not yet
// halted (by the 0x0000 convention or a peripheral stop request).
func (c *CPU) Running() bool { return c.running }

// Register accessors. These are thin wrappers over the unified address
// space, offered for callers (CLI, debugger, tests) that want named
// access rather than raw addresses.
func (c *CPU) A() uint16  { return c.regRead(encoding.RegA) }
func (c *CPU) B() uint16  { return c.regRead(encoding.RegB) }
func (c *CPU) C() uint16  { return c.regRead(encoding.RegC) }
func (c *CPU) X() uint16  { return c.regRead(encoding.RegX) }
func (c *CPU) Y() uint16  { return c.regRead(encoding.RegY) }
func (c *CPU) Z() uint16  { return c.regRead(encoding.RegZ) }
func (c *CPU) I() uint16  { return c.regRead(encoding.RegI) }
func (c *CPU) J() uint16  { return c.regRead(encoding.RegJ) }
func (c *CPU) SP() uint16 { return c.regRead(encoding.OperandSP) }
func (c *CPU) PC() uint16 { return c.regRead(encoding.OperandPC) }
func (c *CPU) O() uint16  { return c.regRead(encoding.OperandO) }

// SetPC moves the program counter directly, without notifying
// peripherals.
func (c *CPU) SetPC(v uint16) { c.writeRaw(uint32(RegBase+encoding.OperandPC), v) }

// SetSP sets the stack pointer directly, without notifying peripherals;
// resolveAddr uses it for the PUSH/POP stack-pointer adjustment.
func (c *CPU) SetSP(v uint16) { c.writeRaw(uint32(RegBase+encoding.OperandSP), v) }

// SetRegister sets one of the eight general registers by code (0..7).
func (c *CPU) SetRegister(code, v uint16) { c.writeRaw(uint32(RegBase)+uint32(code), v) }

func (c *CPU) regRead(code uint16) uint16 {
	return c.mem[uint32(RegBase)+uint32(code)]
}

// Peek reads any address in the unified space (real memory or a
// register pseudo-address), with no side effect and no notification.
// Used by the debugger's get/print command.
func (c *CPU) Peek(addr uint32) uint16 { return c.mem[addr] }

// Poke writes any address in the unified space, notifying peripherals
// exactly as an instruction-driven write would. Used by the debugger's
// set command.
func (c *CPU) Poke(addr uint32, v uint16) { c.write(addr, v) }

// writeRaw sets memory directly, bypassing the peripheral notification
// fan-out. Used for state CPU-internal bookkeeping (PC/SP housekeeping
// during fetch) where no peripheral-visible "write" has occurred.
func (c *CPU) writeRaw(addr uint32, v uint16) { c.mem[addr] = v }

// read returns the word at addr in the unified address space.
func (c *CPU) read(addr uint32) uint16 { return c.mem[addr] }

// write stores v at addr, discarding writes aimed at the short-literal
// scratch slot (per the ISA rule that short-literal operands are
// read-only), and fans out MemoryChanged to every peripheral when the
// stored value actually changes.
func (c *CPU) write(addr uint32, v uint16) {
	if addr == ScratchSlot {
		return
	}
	old := c.mem[addr]
	if old == v {
		return
	}
	c.mem[addr] = v
	for _, p := range c.peripherals {
		p.MemoryChanged(c, addr, v, old)
	}
}
