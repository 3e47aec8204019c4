// Package disassembler reverses the DCPU-16 encoding tables, rendering
// object words back into assembly text. It runs in two modes: one-shot
// over a whole program, and single-instruction, used by the emulator's
// trace output.
package disassembler

import (
	"fmt"
	"strings"

	"github.com/dcpu16/dcpu16/encoding"
)

// Disassemble renders an entire program, one "<offset>: MNEMONIC op1,
// op2" line per instruction.
func Disassemble(words []uint16) (string, error) {
	var out strings.Builder
	pc := 0
	for pc < len(words) {
		text, consumed, err := DecodeOne(words, pc)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&out, "%04x: %s\n", pc, text)
		pc += consumed
	}
	return out.String(), nil
}

// DecodeOne decodes a single instruction starting at words[pc], returning
// its formatted mnemonic/operand text and how many words it occupies.
func DecodeOne(words []uint16, pc int) (string, int, error) {
	if pc < 0 || pc >= len(words) {
		return "", 0, fmt.Errorf("disassembler: offset %d out of range", pc)
	}
	instr := words[pc]
	opcode := instr & 0xF
	a := (instr >> 4) & 0x3F
	b := (instr >> 10) & 0x3F
	consumed := 1

	if opcode == 0 {
		name, ok := encoding.NonBasicOpcodeName(a)
		if !ok {
			return "", 0, fmt.Errorf("disassembler: unknown non-basic opcode 0x%02x at offset %04x", a, pc)
		}
		bText, used, err := formatOperand(b, words, pc+consumed)
		if err != nil {
			return "", 0, err
		}
		consumed += used
		return name + " " + bText, consumed, nil
	}

	name, ok := encoding.OpcodeName(opcode)
	if !ok {
		return "", 0, fmt.Errorf("disassembler: unknown opcode 0x%x at offset %04x", opcode, pc)
	}
	aText, usedA, err := formatOperand(a, words, pc+consumed)
	if err != nil {
		return "", 0, err
	}
	consumed += usedA
	bText, usedB, err := formatOperand(b, words, pc+consumed)
	if err != nil {
		return "", 0, err
	}
	consumed += usedB
	return fmt.Sprintf("%s %s, %s", name, aText, bText), consumed, nil
}

// formatOperand renders one 6-bit operand field, consuming an extra
// word from words[idx] when the addressing mode requires one.
func formatOperand(code uint16, words []uint16, idx int) (string, int, error) {
	switch {
	case code <= encoding.OperandRegisterHi:
		name, _ := encoding.RegisterName(code)
		return name, 0, nil

	case code >= encoding.OperandIndirectRegisterLo && code <= encoding.OperandIndirectRegisterHi:
		name, _ := encoding.RegisterName(code - encoding.OperandIndirectRegisterLo)
		return "[" + name + "]", 0, nil

	case code >= encoding.OperandIndexedLo && code <= encoding.OperandIndexedHi:
		extra, err := nextWord(words, idx)
		if err != nil {
			return "", 0, err
		}
		name, _ := encoding.RegisterName(code - encoding.OperandIndexedLo)
		return fmt.Sprintf("[0x%04x+%s]", extra, name), 1, nil

	case code == encoding.OperandIndirectNextWord:
		extra, err := nextWord(words, idx)
		if err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("[0x%04x]", extra), 1, nil

	case code == encoding.OperandLiteralNextWord:
		extra, err := nextWord(words, idx)
		if err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("0x%04x", extra), 1, nil

	case encoding.IsShortLiteral(code):
		return fmt.Sprintf("0x%x", encoding.ShortLiteralValue(code)), 0, nil

	default:
		name, ok := encoding.RegisterName(code)
		if ok {
			return name, 0, nil
		}
		return "", 0, fmt.Errorf("disassembler: unknown operand field 0x%02x", code)
	}
}

func nextWord(words []uint16, idx int) (uint16, error) {
	if idx >= len(words) {
		return 0, fmt.Errorf("disassembler: truncated instruction, missing extra word at offset %04x", idx)
	}
	return words[idx], nil
}
