// Package assembler lowers DCPU-16 assembly source into the exact
// 16-bit object-code encoding: operand resolution with the short-literal
// optimization, and a label fix-up pass over a word-or-symbol program
// vector.
package assembler

import (
	"strings"

	"github.com/dcpu16/dcpu16/encoding"
)

// Assembler holds the label table built up across a single Assemble
// call. A fresh Assembler must be used per source file: it has no
// notion of multiple translation units (per spec, out of scope).
type Assembler struct {
	labels map[string]uint16
}

// New creates an empty Assembler.
func New() *Assembler {
	return &Assembler{labels: make(map[string]uint16)}
}

// Assemble lowers src (the contents of file, used only for diagnostics)
// into a sequence of 16-bit words. Errors are one of *LexicalError or
// *ResolutionError.
func (a *Assembler) Assemble(file, src string) ([]uint16, error) {
	src = stripBOM(src)
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")

	var program []word
	for i, raw := range lines {
		lineno := i + 1
		pl, err := parseLine(file, lineno, raw)
		if err != nil {
			return nil, err
		}

		if pl.label != "" {
			if _, dup := a.labels[pl.label]; dup {
				return nil, &ResolutionError{File: file, Line: lineno, Msg: "duplicate label '" + pl.label + "'"}
			}
			a.labels[pl.label] = uint16(len(program))
		}

		switch pl.kind {
		case lineBlank:
			// Nothing to emit.
		case lineDAT:
			for _, d := range pl.data {
				program = append(program, litWord(d.value))
			}
		case lineJSR:
			words, err := lowerNonBasic(pl.operands[0])
			if err != nil {
				return nil, &ResolutionError{File: file, Line: lineno, Msg: err.Error()}
			}
			program = append(program, words...)
		case lineBasic:
			words, err := lowerBasic(pl.mnemonic, pl.operands[0], pl.operands[1])
			if err != nil {
				return nil, &ResolutionError{File: file, Line: lineno, Msg: err.Error()}
			}
			program = append(program, words...)
		}
	}

	return a.resolve(file, program)
}

// resolve walks the program vector, replacing every pending symbolic
// slot with its label's address. An unresolved symbol is fatal.
func (a *Assembler) resolve(file string, program []word) ([]uint16, error) {
	out := make([]uint16, len(program))
	for i, w := range program {
		if !w.pending() {
			out[i] = w.value
			continue
		}
		addr, ok := a.labels[w.symbol]
		if !ok {
			return nil, &ResolutionError{File: file, Msg: "unresolved label '" + w.symbol + "'"}
		}
		out[i] = addr
	}
	return out, nil
}

// lowerBasic emits the instruction word for a basic (two-operand) op,
// followed by a's extra word (if any) then b's.
func lowerBasic(mnemonic string, a, b operand) ([]word, error) {
	opcode := encoding.Opcodes[mnemonic]
	aCode, aExtra, err := lowerOperand(a)
	if err != nil {
		return nil, err
	}
	bCode, bExtra, err := lowerOperand(b)
	if err != nil {
		return nil, err
	}
	instr := opcode | (aCode << 4) | (bCode << 10)
	out := []word{litWord(instr)}
	if aExtra != nil {
		out = append(out, *aExtra)
	}
	if bExtra != nil {
		out = append(out, *bExtra)
	}
	return out, nil
}

// lowerNonBasic emits JSR: opcode 0, a = JSR sub-opcode, b = the
// operand. JSR's own "a" field never consumes an extra word.
func lowerNonBasic(b operand) ([]word, error) {
	bCode, bExtra, err := lowerOperand(b)
	if err != nil {
		return nil, err
	}
	instr := (encoding.JSR << 4) | (bCode << 10)
	out := []word{litWord(instr)}
	if bExtra != nil {
		out = append(out, *bExtra)
	}
	return out, nil
}

// lowerOperand converts a parsed operand into its 6-bit field code and,
// where the addressing mode requires one, the extra word that follows
// the instruction word. A numeric literal below 0x20 is always encoded
// inline (the short-literal optimization); a label reference is always
// encoded as 0x1F plus an extra word, since its value cannot be known
// until the fix-up pass.
func lowerOperand(op operand) (uint16, *word, error) {
	switch op.kind {
	case opRegister:
		return op.reg, nil, nil
	case opIndirectRegister:
		return encoding.OperandIndirectRegisterLo + op.reg, nil, nil
	case opSpecial:
		return op.special, nil, nil
	case opIndexed:
		w := immOrLabelWord(op)
		return encoding.OperandIndexedLo + op.reg, &w, nil
	case opIndirect:
		w := immOrLabelWord(op)
		return encoding.OperandIndirectNextWord, &w, nil
	case opLabelRef:
		w := symWord(op.label)
		return encoding.OperandLiteralNextWord, &w, nil
	case opLiteral:
		if op.literal <= encoding.MaxShortLiteralValue {
			return encoding.EncodeShortLiteral(op.literal), nil, nil
		}
		w := litWord(op.literal)
		return encoding.OperandLiteralNextWord, &w, nil
	}
	panic("unreachable operand kind")
}

func immOrLabelWord(op operand) word {
	if op.label != "" {
		return symWord(op.label)
	}
	return litWord(op.literal)
}

// BaseAddress is always 0: the assembler has no ORG-style directive
// (out of scope per spec); object files load at offset 0.
func (a *Assembler) BaseAddress() uint16 { return 0 }

func stripBOM(s string) string {
	return strings.TrimPrefix(s, string(rune(0xFEFF)))
}
