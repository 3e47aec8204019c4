package cpu

import (
	"fmt"

	"github.com/dcpu16/dcpu16/encoding"
)

// Step fetches, decodes, and executes exactly one instruction,
// including a skipped one (per the conditional-skip discipline:
// operands still decode, so PC advances past any extra words, but the
// instruction itself — and any PUSH/POP side effect on SP — does not
// happen). It returns true once the 0x0000 halt convention is hit.
func (c *CPU) Step() (halted bool, err error) {
	instr := c.fetch()
	opcode := instr & 0xF
	aCode := (instr >> 4) & 0x3F
	bCode := (instr >> 10) & 0x3F

	if opcode == 0 {
		return c.stepNonBasic(aCode, bCode)
	}

	skipping := c.skip
	c.skip = false

	aAddr, err := c.resolveAddr(aCode, skipping)
	if err != nil {
		return false, err
	}
	b, err := c.resolveValue(bCode, skipping)
	if err != nil {
		return false, err
	}

	if skipping {
		c.afterInstruction()
		return false, nil
	}

	cycles := baseCycles[opcode]
	if encoding.HasExtraWord(aCode) {
		cycles++
	}
	if encoding.HasExtraWord(bCode) {
		cycles++
	}

	handler, ok := handlers[opcode]
	if !ok {
		return false, fmt.Errorf("cpu: unknown opcode 0x%x at 0x%04x", opcode, c.PC()-1)
	}
	handler(c, aAddr, b)

	if isConditional(opcode) && c.skip {
		cycles++
	}
	c.cycle += uint64(cycles)
	c.afterInstruction()
	return false, nil
}

// stepNonBasic decodes and executes the opcode-0 group: 0x0000 halts
// the loop by convention, 0x01 is JSR, anything else is undefined.
func (c *CPU) stepNonBasic(aCode, bCode uint16) (bool, error) {
	if aCode == encoding.NonBasicReserved {
		c.running = false
		return true, nil
	}
	if aCode != encoding.JSR {
		return false, fmt.Errorf("cpu: unknown non-basic opcode 0x%02x at 0x%04x", aCode, c.PC()-1)
	}

	skipping := c.skip
	c.skip = false

	b, err := c.resolveValue(bCode, skipping)
	if err != nil {
		return false, err
	}

	if skipping {
		c.afterInstruction()
		return false, nil
	}

	returnPC := c.PC()
	cycles := 2
	if encoding.HasExtraWord(bCode) {
		cycles++
	}

	sp := c.SP() - 1
	c.write(uint32(RegBase)+uint32(encoding.OperandSP), sp)
	c.write(uint32(sp), returnPC)
	c.write(uint32(RegBase)+uint32(encoding.OperandPC), b)

	c.cycle += uint64(cycles)
	c.afterInstruction()
	return false, nil
}

func isConditional(opcode uint16) bool {
	switch opcode {
	case encoding.IFE, encoding.IFN, encoding.IFG, encoding.IFB:
		return true
	default:
		return false
	}
}

// afterInstruction runs the peripheral Tick fan-out required after
// every instruction, executed or skipped (spec §4.6).
func (c *CPU) afterInstruction() {
	c.tickPeripherals()
}

// Run loads nothing (the caller must LoadProgram first) and steps
// until halt, a decode error, or a peripheral's Stopped() signals
// termination — then runs the Shutdown pass over every peripheral
// exactly once, in registration order, regardless of how the loop
// ended.
func (c *CPU) Run() error {
	c.running = true
	defer c.shutdownPeripherals()

	for c.running {
		halted, err := c.Step()
		if err != nil {
			return err
		}
		if halted {
			c.running = false
			break
		}
		if c.peripheralsRequestStop() {
			c.running = false
			break
		}
	}
	return nil
}
