package cpu

import (
	"fmt"

	"github.com/dcpu16/dcpu16/encoding"
)

// fetch reads the word at PC and advances PC by one. This is pure
// instruction-stream bookkeeping, not a peripheral-visible write: it
// bypasses the notification path that instruction-driven writes to PC
// use.
func (c *CPU) fetch() uint16 {
	pc := c.PC()
	w := c.mem[pc]
	c.writeRaw(uint32(RegBase+encoding.OperandPC), pc+1)
	return w
}

// resolveAddr decodes a 6-bit operand field into an address in the
// unified space, consuming any extra word the addressing mode
// requires. It is used for the "a" operand, always treated as an
// lvalue even when the encoded mode is itself a literal (in which case
// the address returned is the write-discarding scratch slot).
//
// suppressSP is set while decoding an instruction that will turn out
// to be skipped: extra words must still be consumed so PC advances
// correctly, but POP/PUSH must not move the stack pointer (spec §4.5,
// conditional skip discipline).
func (c *CPU) resolveAddr(code uint16, suppressSP bool) (uint32, error) {
	switch {
	case code <= encoding.OperandRegisterHi:
		return uint32(RegBase) + uint32(code), nil

	case code >= encoding.OperandIndirectRegisterLo && code <= encoding.OperandIndirectRegisterHi:
		reg := code - encoding.OperandIndirectRegisterLo
		return uint32(c.regRead(reg)), nil

	case code >= encoding.OperandIndexedLo && code <= encoding.OperandIndexedHi:
		reg := code - encoding.OperandIndexedLo
		offset := c.fetch()
		return uint32(offset + c.regRead(reg)), nil

	case code == encoding.OperandPOP:
		sp := c.SP()
		if !suppressSP {
			c.SetSP(sp + 1)
		}
		return uint32(sp), nil

	case code == encoding.OperandPEEK:
		return uint32(c.SP()), nil

	case code == encoding.OperandPUSH:
		sp := c.SP()
		if !suppressSP {
			sp--
			c.SetSP(sp)
		}
		return uint32(sp), nil

	case code == encoding.OperandSP:
		return uint32(RegBase) + uint32(encoding.OperandSP), nil

	case code == encoding.OperandPC:
		return uint32(RegBase) + uint32(encoding.OperandPC), nil

	case code == encoding.OperandO:
		return uint32(RegBase) + uint32(encoding.OperandO), nil

	case code == encoding.OperandIndirectNextWord:
		return uint32(c.fetch()), nil

	case code == encoding.OperandLiteralNextWord:
		v := c.fetch()
		c.writeRaw(ScratchSlot, v)
		return ScratchSlot, nil

	case encoding.IsShortLiteral(code):
		c.writeRaw(ScratchSlot, encoding.ShortLiteralValue(code))
		return ScratchSlot, nil

	default:
		return 0, fmt.Errorf("cpu: invalid operand field 0x%02x", code)
	}
}

// resolveValue decodes a 6-bit operand field into a plain rvalue,
// consuming any extra word the mode requires. Literal-like modes
// produce their value directly; everything else resolves an address
// and dereferences it. See resolveAddr for suppressSP.
func (c *CPU) resolveValue(code uint16, suppressSP bool) (uint16, error) {
	switch {
	case code == encoding.OperandLiteralNextWord:
		return c.fetch(), nil

	case encoding.IsShortLiteral(code):
		return encoding.ShortLiteralValue(code), nil

	default:
		addr, err := c.resolveAddr(code, suppressSP)
		if err != nil {
			return 0, err
		}
		return c.read(addr), nil
	}
}
