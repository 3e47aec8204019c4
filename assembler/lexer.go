package assembler

import (
	"errors"
	"strings"

	"github.com/dcpu16/dcpu16/encoding"
)

var errSyntax = errors.New("syntax error")

// parseLine recognizes one logical line per the grammar in the operand
// grammar documentation: an optional ":label", an optional statement
// (a basic instruction, JSR, or DAT), and an optional comment.
func parseLine(file string, lineno int, raw string) (*parsedLine, error) {
	line := stripComment(raw)
	line = strings.TrimSpace(line)

	label, rest, hadColon, ok := splitLabel(line)
	if hadColon && !ok {
		return nil, &LexicalError{File: file, Line: lineno, Text: strings.TrimSpace(raw)}
	}
	label = strings.ToLower(label)

	if rest == "" {
		return &parsedLine{file: file, lineno: lineno, label: label, kind: lineBlank, raw: raw}, nil
	}

	mnemonicStr, operandStr := splitFirstWord(rest)
	upper := strings.ToUpper(mnemonicStr)

	switch {
	case upper == "DAT":
		data, err := parseDatumList(operandStr)
		if err != nil {
			return nil, lineError(file, lineno, raw, err)
		}
		return &parsedLine{file: file, lineno: lineno, label: label, kind: lineDAT, mnemonic: "DAT", data: data, raw: raw}, nil

	case upper == "JSR":
		ops, err := parseOperandList(operandStr, 1)
		if err != nil {
			return nil, lineError(file, lineno, raw, err)
		}
		return &parsedLine{file: file, lineno: lineno, label: label, kind: lineJSR, mnemonic: "JSR", operands: ops, raw: raw}, nil

	default:
		if _, isBasic := encoding.Opcodes[upper]; isBasic {
			ops, err := parseOperandList(operandStr, 2)
			if err != nil {
				return nil, lineError(file, lineno, raw, err)
			}
			return &parsedLine{file: file, lineno: lineno, label: label, kind: lineBasic, mnemonic: upper, operands: ops, raw: raw}, nil
		}
		return nil, &LexicalError{File: file, Line: lineno, Text: strings.TrimSpace(raw)}
	}
}

// lineError classifies a lowering failure: an out-of-range numeric
// literal is a ResolutionError, anything else is a grammar mismatch
// (LexicalError).
func lineError(file string, lineno int, raw string, err error) error {
	var rangeErr *outOfRangeError
	if errors.As(err, &rangeErr) {
		return &ResolutionError{File: file, Line: lineno, Msg: rangeErr.Error()}
	}
	return &LexicalError{File: file, Line: lineno, Text: strings.TrimSpace(raw)}
}

// splitFirstWord splits s into its first whitespace-delimited token and
// the (trimmed) remainder.
func splitFirstWord(s string) (first, rest string) {
	i := 0
	for i < len(s) && !isSpace(s[i]) {
		i++
	}
	first = s[:i]
	rest = strings.TrimSpace(s[i:])
	return
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

func parseOperandList(s string, n int) ([]operand, error) {
	parts := splitTopLevel(s, ',')
	if len(parts) != n {
		return nil, errSyntax
	}
	ops := make([]operand, n)
	for i, p := range parts {
		op, err := parseOperand(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}

func parseDatumList(s string) ([]datum, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errSyntax
	}
	parts := splitTopLevel(s, ',')
	var out []datum
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
			for _, r := range p[1 : len(p)-1] {
				out = append(out, datum{value: uint16(r)})
			}
			continue
		}
		n, ok, err := parseNumber(p)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errSyntax
		}
		out = append(out, datum{value: n})
	}
	return out, nil
}
