package cpu

import "github.com/dcpu16/dcpu16/encoding"

// baseCycles holds the fixed per-opcode cost from the instruction
// semantics table (spec §4.5), excluding the +1 operand-decode
// surcharge for modes 0x10-0x17/0x1E/0x1F and the +1 IFx-skip charge,
// both added by the caller in execute.go.
var baseCycles = map[uint16]int{
	encoding.SET: 1,
	encoding.ADD: 2,
	encoding.SUB: 2,
	encoding.MUL: 2,
	encoding.DIV: 3,
	encoding.MOD: 3,
	encoding.SHL: 2,
	encoding.SHR: 2,
	encoding.AND: 1,
	encoding.BOR: 1,
	encoding.XOR: 1,
	encoding.IFE: 2,
	encoding.IFN: 2,
	encoding.IFG: 2,
	encoding.IFB: 2,
}

// opHandler executes one basic instruction given its already-resolved
// operands: a is the lvalue address, b the rvalue. IFx handlers set
// c.skip directly; all others write through a (or leave it alone, as
// with a no-op materialized literal "a").
type opHandler func(c *CPU, a uint32, b uint16)

var handlers = map[uint16]opHandler{
	encoding.SET: opSET,
	encoding.ADD: opADD,
	encoding.SUB: opSUB,
	encoding.MUL: opMUL,
	encoding.DIV: opDIV,
	encoding.MOD: opMOD,
	encoding.SHL: opSHL,
	encoding.SHR: opSHR,
	encoding.AND: opAND,
	encoding.BOR: opBOR,
	encoding.XOR: opXOR,
	encoding.IFE: opIFE,
	encoding.IFN: opIFN,
	encoding.IFG: opIFG,
	encoding.IFB: opIFB,
}

func (c *CPU) setO(v uint16) {
	c.write(uint32(RegBase)+uint32(encoding.OperandO), v)
}

func opSET(c *CPU, a uint32, b uint16) {
	c.write(a, b)
}

func opADD(c *CPU, a uint32, b uint16) {
	r := uint32(c.read(a)) + uint32(b)
	c.setO(uint16(r >> 16))
	c.write(a, uint16(r))
}

func opSUB(c *CPU, a uint32, b uint16) {
	av := c.read(a)
	if av < b {
		c.setO(0xFFFF)
	} else {
		c.setO(0)
	}
	c.write(a, av-b)
}

func opMUL(c *CPU, a uint32, b uint16) {
	r := uint32(c.read(a)) * uint32(b)
	c.setO(uint16(r >> 16))
	c.write(a, uint16(r))
}

// opDIV implements the ISA's own divide-by-zero behavior — M[a] and O
// both go to zero — rather than treating it as an error: per the ISA,
// this is ordinary, silently-absorbed misbehavior, not a fault.
func opDIV(c *CPU, a uint32, b uint16) {
	if b == 0 {
		c.write(a, 0)
		c.setO(0)
		return
	}
	av := c.read(a)
	c.write(a, av/b)
	c.setO(uint16((uint32(av) << 16) / uint32(b)))
}

func opMOD(c *CPU, a uint32, b uint16) {
	if b == 0 {
		c.write(a, 0)
		return
	}
	c.write(a, c.read(a)%b)
}

// opSHL computes O from the pre-shift value of a, as the table in
// spec §4.5 specifies literally.
func opSHL(c *CPU, a uint32, b uint16) {
	av := c.read(a)
	shifted := uint32(av) << b
	c.write(a, uint16(shifted))
	c.setO(uint16(shifted >> 16))
}

func opSHR(c *CPU, a uint32, b uint16) {
	av := c.read(a)
	c.write(a, av>>b)
	c.setO(uint16((uint32(av) << 16) >> b))
}

func opAND(c *CPU, a uint32, b uint16) { c.write(a, c.read(a)&b) }
func opBOR(c *CPU, a uint32, b uint16) { c.write(a, c.read(a)|b) }
func opXOR(c *CPU, a uint32, b uint16) { c.write(a, c.read(a)^b) }

func opIFE(c *CPU, a uint32, b uint16) {
	if c.read(a) != b {
		c.skip = true
	}
}

func opIFN(c *CPU, a uint32, b uint16) {
	if c.read(a) == b {
		c.skip = true
	}
}

func opIFG(c *CPU, a uint32, b uint16) {
	if !(c.read(a) > b) {
		c.skip = true
	}
}

func opIFB(c *CPU, a uint32, b uint16) {
	if c.read(a)&b == 0 {
		c.skip = true
	}
}
