// Package operand is the one grammar parser shared by Pass 1 (which only
// needs an instruction's addressing modes to size it) and Pass 2 (which
// needs the full operand payload to emit it). Parsing the line once, in
// one place, keeps the two passes from silently disagreeing about what a
// line means.
package operand

import (
	"fmt"
	"strconv"
	"strings"

	"gcpu10/pkg/isa"
)

// Operand is one parsed operand: its addressing mode plus whichever
// payload field that mode uses.
type Operand struct {
	Mode     isa.Mode
	Symbol   string // ModeDirect, ModeMatrix
	Register int    // ModeRegister; ModeMatrix uses MatRow/MatCol instead
	Immediate int   // ModeImmediate
	MatRow   int    // ModeMatrix
	MatCol   int    // ModeMatrix
}

// Instruction is a fully parsed instruction line.
type Instruction struct {
	Mnemonic string
	Op       *isa.Op
	Src      *Operand // nil if the opcode takes fewer than 2 operands
	Dst      *Operand // nil if the opcode takes 0 operands
}

// Parse parses one instruction line (mnemonic plus its operands, with any
// trailing comment already stripped), validating addressing-mode legality
// against the opcode table. It is the only place instruction syntax is
// recognized; both passes call it.
func Parse(line string) (*Instruction, error) {
	rest := strings.TrimSpace(line)
	mnem, rest, ok := readWord(rest)
	if !ok {
		return nil, fmt.Errorf("expected instruction mnemonic")
	}
	op, ok := isa.Lookup(mnem)
	if !ok {
		return nil, fmt.Errorf("unknown mnemonic %q", mnem)
	}

	inst := &Instruction{Mnemonic: mnem, Op: op}

	switch op.Arity {
	case 0:
		if !restIsCommentOrEmpty(rest) {
			return nil, fmt.Errorf("unexpected text after zero-operand instruction")
		}
		return inst, nil

	case 1:
		dst, rest2, err := parseOperand(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid operand: %w", err)
		}
		if !op.DstOK[dst.Mode] {
			return nil, fmt.Errorf("addressing mode not allowed for %s", mnem)
		}
		if !restIsCommentOrEmpty(rest2) {
			return nil, fmt.Errorf("unexpected text after instruction")
		}
		inst.Dst = dst
		return inst, nil

	case 2:
		if commaOrEndNext(rest) {
			return nil, fmt.Errorf("missing source operand")
		}
		src, rest2, err := parseOperand(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid source operand: %w", err)
		}
		rest2, ok = consumeComma(rest2)
		if !ok {
			return nil, fmt.Errorf("expected comma between operands")
		}
		if endOfOperandsNext(rest2) {
			return nil, fmt.Errorf("missing destination operand")
		}
		dst, rest3, err := parseOperand(rest2)
		if err != nil {
			return nil, fmt.Errorf("invalid destination operand: %w", err)
		}
		if !op.SrcOK[src.Mode] {
			return nil, fmt.Errorf("addressing mode not allowed for source of %s", mnem)
		}
		if !op.DstOK[dst.Mode] {
			return nil, fmt.Errorf("addressing mode not allowed for destination of %s", mnem)
		}
		if !restIsCommentOrEmpty(rest3) {
			return nil, fmt.Errorf("unexpected text after instruction")
		}
		inst.Src = src
		inst.Dst = dst
		return inst, nil
	}

	return nil, fmt.Errorf("internal: opcode %s has an invalid arity", mnem)
}

// Words reports how many words (including the first word) this
// instruction occupies, applying the register/register packing special
// case where a src+dst pair of registers shares one combined word.
func (inst *Instruction) Words() int {
	words := 1
	if inst.Src != nil && inst.Dst != nil &&
		inst.Src.Mode == isa.ModeRegister && inst.Dst.Mode == isa.ModeRegister {
		return words + 1
	}
	if inst.Src != nil {
		words += isa.WordsForMode(inst.Src.Mode)
	}
	if inst.Dst != nil {
		words += isa.WordsForMode(inst.Dst.Mode)
	}
	return words
}

func readWord(s string) (word, rest string, ok bool) {
	s = skipWS(s)
	i := 0
	if i >= len(s) || !isWordStart(s[i]) {
		return "", s, false
	}
	i++
	for i < len(s) && isWordCont(s[i]) {
		i++
	}
	return s[:i], s[i:], true
}

func isWordStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isWordCont(b byte) bool {
	return isWordStart(b) || (b >= '0' && b <= '9')
}

func skipWS(s string) string {
	return strings.TrimLeft(s, " \t")
}

func restIsCommentOrEmpty(s string) bool {
	s = skipWS(s)
	return s == "" || s[0] == ';'
}

func commaOrEndNext(s string) bool {
	s = skipWS(s)
	return s == "" || s[0] == ',' || s[0] == ';'
}

func endOfOperandsNext(s string) bool {
	s = skipWS(s)
	return s == "" || s[0] == ';'
}

func consumeComma(s string) (string, bool) {
	s = skipWS(s)
	if s == "" || s[0] != ',' {
		return s, false
	}
	return s[1:], true
}

// parseOperand parses one operand and classifies its addressing mode,
// upgrading a bare label (ModeDirect) to ModeMatrix when it is followed
// by a [rX][rY] suffix.
func parseOperand(s string) (*Operand, string, error) {
	s = skipWS(s)
	if s == "" {
		return nil, s, fmt.Errorf("missing operand")
	}

	if s[0] == '#' {
		v, rest, ok := parseInt(s[1:])
		if !ok {
			return nil, s, fmt.Errorf("invalid immediate")
		}
		return &Operand{Mode: isa.ModeImmediate, Immediate: v}, rest, nil
	}

	if reg, rest, ok := parseRegister(s); ok {
		return &Operand{Mode: isa.ModeRegister, Register: reg}, rest, nil
	}

	sym, rest, ok := readWord(s)
	if !ok {
		return nil, s, fmt.Errorf("invalid operand")
	}

	if row, col, rest2, ok := parseMatrixSuffix(rest); ok {
		return &Operand{Mode: isa.ModeMatrix, Symbol: sym, MatRow: row, MatCol: col}, rest2, nil
	}
	return &Operand{Mode: isa.ModeDirect, Symbol: sym}, rest, nil
}

func parseInt(s string) (int, string, bool) {
	s = skipWS(s)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, s, false
	}
	v, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, s, false
	}
	return v, s[i:], true
}

// parseRegister recognizes r0..r7, rejecting a longer identifier like
// "r10" or "ready" that merely starts with the letter r.
func parseRegister(s string) (int, string, bool) {
	if len(s) < 2 || s[0] != 'r' || s[1] < '0' || s[1] > '7' {
		return 0, s, false
	}
	if len(s) > 2 && isWordCont(s[2]) {
		return 0, s, false
	}
	return int(s[1] - '0'), s[2:], true
}

func parseMatrixSuffix(s string) (row, col int, rest string, ok bool) {
	s = skipWS(s)
	if s == "" || s[0] != '[' {
		return 0, 0, s, false
	}
	s = skipWS(s[1:])
	r, rest1, ok := parseRegister(s)
	if !ok {
		return 0, 0, s, false
	}
	rest1 = skipWS(rest1)
	if rest1 == "" || rest1[0] != ']' {
		return 0, 0, s, false
	}
	rest1 = skipWS(rest1[1:])
	if rest1 == "" || rest1[0] != '[' {
		return 0, 0, s, false
	}
	rest1 = skipWS(rest1[1:])
	c, rest2, ok := parseRegister(rest1)
	if !ok {
		return 0, 0, s, false
	}
	rest2 = skipWS(rest2)
	if rest2 == "" || rest2[0] != ']' {
		return 0, 0, s, false
	}
	return r, c, rest2[1:], true
}
