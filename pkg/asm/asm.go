// Package asm ties the translation pipeline together: Pass 1 (the
// analyzer, which builds the symbol table and sizes every instruction)
// and Pass 2 (the emitter, which packs the final 10-bit words and
// collects entry/extern bookkeeping), run one after the other over the
// already macro-expanded source.
package asm

import (
	"fmt"
	"strings"

	"gcpu10/pkg/codeimg"
	"gcpu10/pkg/diag"
	"gcpu10/pkg/ident"
	"gcpu10/pkg/isa"
	"gcpu10/pkg/nameset"
	"gcpu10/pkg/operand"
	"gcpu10/pkg/symtab"
)

// ICStart is the address the code image begins at.
const ICStart = 100

// Result is everything a caller needs after a successful (or failed)
// assembly: the final combined code+data image (code first, data after,
// per the external layout), the symbol table, collected entry/extern
// records, and any diagnostics.
type Result struct {
	Code    *codeimg.Image
	Symbols *symtab.Table
	Entries []EntryRecord
	Externs []ExternRecord
	ICFinal int // first data address; the code region holds ICFinal-ICStart words
	DCFinal int // data region's word count
	Errors  *diag.List
}

// EntryRecord is one name/address pair for the .ent output.
type EntryRecord struct {
	Name string
	Addr int
}

// ExternRecord is one name/use-address pair for the .ext output.
type ExternRecord struct {
	Name string
	Addr int
}

// Assemble runs Pass 1 then Pass 2 over already macro-expanded lines.
// It never partially succeeds: if Pass 1 reports any diagnostic, Pass 2
// does not run, and the returned Result carries only the diagnostics and
// the Pass 1 symbol table.
// names is the namespace the preassembler registered macro names into;
// Pass 1 consults it before defining any label so a label can never
// shadow a macro name.
func Assemble(lines []string, names *nameset.Set) *Result {
	p1 := runPass1(lines, names)
	if p1.errs.Len() > 0 {
		return &Result{Symbols: p1.symbols, Errors: &p1.errs}
	}

	p2 := runPass2(lines, p1)

	// p2 only emits the instruction (code) words; the data region was
	// already sized and filled during Pass 1 and lives in the tail of
	// p1.code (Pass 1 appended data after code once IC was final).
	p1Words := p1.code.Words()
	dataStart := len(p1Words) - p1.dcAtFinalize
	for _, w := range p1Words[dataStart:] {
		p2.code.Push(w.Value, w.SrcLine)
	}

	res := &Result{
		Code:    p2.code,
		Symbols: p1.symbols,
		Entries: p2.entries,
		Externs: p2.externs,
		ICFinal: p1.ic,
		DCFinal: p1.dcAtFinalize,
		Errors:  &p2.errs,
	}
	return res
}

// --- Pass 1 ---------------------------------------------------------------

type pass1Result struct {
	symbols      *symtab.Table
	names        *nameset.Set
	code         codeimg.Image
	data         codeimg.Image
	ic           int
	dc           int
	dcAtFinalize int
	errs         diag.List
}

func runPass1(lines []string, names *nameset.Set) *pass1Result {
	r := &pass1Result{
		symbols: symtab.New(),
		names:   names,
		ic:      ICStart,
	}

	for i, raw := range lines {
		lineNo := i + 1
		p1HandleLine(r, raw, lineNo)
	}

	r.dcAtFinalize = r.dc
	r.symbols.RelocateData(r.ic)
	r.code.AppendAfter(&r.data)
	return r
}

func p1HandleLine(r *pass1Result, raw string, lineNo int) {
	line := stripComment(raw)
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}

	label, rest, hasLabel := splitLabel(trimmed)
	rest = strings.TrimSpace(rest)

	if rest == "" {
		if hasLabel {
			r.errs.Addf(lineNo, "label without statement")
		}
		return
	}

	if strings.HasPrefix(rest, ".") {
		p1HandleDirective(r, rest, label, hasLabel, lineNo)
		return
	}

	p1HandleInstruction(r, rest, label, hasLabel, lineNo)
}

func p1HandleDirective(r *pass1Result, rest string, label string, hasLabel bool, lineNo int) {
	switch {
	case hasDirective(rest, ".data"):
		if hasLabel {
			defineSymbol(r, label, symtab.KindData, r.dc, lineNo)
		}
		n, err := parseDataList(rest[len(".data"):], &r.data, &r.errs, lineNo)
		if err != nil {
			r.errs.Addf(lineNo, "%v", err)
			return
		}
		r.dc += n

	case hasDirective(rest, ".string"):
		if hasLabel {
			defineSymbol(r, label, symtab.KindData, r.dc, lineNo)
		}
		n, err := parseString(rest[len(".string"):], &r.data, lineNo)
		if err != nil {
			r.errs.Addf(lineNo, "%v", err)
			return
		}
		r.dc += n

	case hasDirective(rest, ".mat"):
		if hasLabel {
			defineSymbol(r, label, symtab.KindData, r.dc, lineNo)
		}
		n, err := parseMat(rest[len(".mat"):], &r.data, &r.errs, lineNo)
		if err != nil {
			r.errs.Addf(lineNo, "%v", err)
			return
		}
		r.dc += n

	case hasDirective(rest, ".extern"):
		// A label preceding .extern is semantically meaningless and is
		// silently ignored rather than defined or reported.
		name := strings.TrimSpace(rest[len(".extern"):])
		if name == "" {
			r.errs.Addf(lineNo, "expected symbol after .extern")
			return
		}
		if err := r.symbols.Define(name, symtab.KindExtern, 0, lineNo); err != nil {
			r.errs.Addf(lineNo, "%v", err)
		}

	case hasDirective(rest, ".entry"):
		// A label preceding .entry is silently ignored, same as .extern.
		name := strings.TrimSpace(rest[len(".entry"):])
		if name == "" {
			r.errs.Addf(lineNo, "expected symbol after .entry")
			return
		}
		if err := r.symbols.MarkEntry(name, lineNo); err != nil {
			r.errs.Addf(lineNo, "%v", err)
		}

	default:
		r.errs.Addf(lineNo, "unknown directive")
	}
}

func p1HandleInstruction(r *pass1Result, rest string, label string, hasLabel bool, lineNo int) {
	if hasLabel {
		defineSymbol(r, label, symtab.KindCode, r.ic, lineNo)
	}

	inst, err := operand.Parse(rest)
	if err != nil {
		r.errs.Addf(lineNo, "%v", err)
		return
	}

	words := inst.Words()
	for i := 0; i < words; i++ {
		r.code.Push(0, lineNo)
	}
	r.ic += words
}

// defineSymbol validates label against the strict label rule and the
// shared identifier namespace before handing it to the symbol table, so
// a reserved word, an overlong or underscored name, or a name already
// claimed by a macro is caught here rather than silently accepted.
func defineSymbol(r *pass1Result, label string, kind symtab.Kind, value, lineNo int) {
	if err := ident.ValidateLabel(label); err != nil {
		r.errs.Addf(lineNo, "illegal label %q: %v", label, err)
		return
	}
	if r.names != nil && r.names.Contains(label) {
		r.errs.Addf(lineNo, "label %q collides with a macro name", label)
		return
	}
	if err := r.symbols.Define(label, kind, value, lineNo); err != nil {
		r.errs.Addf(lineNo, "%v", err)
	}
}

// --- Pass 2 ---------------------------------------------------------------

type pass2Result struct {
	code    *codeimg.Image
	entries []EntryRecord
	externs []ExternRecord
	errs    diag.List
}

func runPass2(lines []string, p1 *pass1Result) *pass2Result {
	r := &pass2Result{code: &codeimg.Image{}}
	ic := ICStart

	for i, raw := range lines {
		lineNo := i + 1
		line := stripComment(raw)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		_, rest, _ := splitLabel(trimmed)
		rest = strings.TrimSpace(rest)
		if rest == "" || strings.HasPrefix(rest, ".") {
			continue
		}

		inst, err := operand.Parse(rest)
		if err != nil {
			r.errs.Addf(lineNo, "%v", err)
			continue
		}

		p2EncodeInstruction(r, inst, p1, &ic, lineNo)
	}

	collectEntries(p1.symbols, r)
	return r
}

// p2EncodeInstruction emits every word of inst, advancing ic in lock-step
// with each word pushed: the two updates below always happen together so
// a later word's use-address can never be computed from a stale ic.
func p2EncodeInstruction(r *pass2Result, inst *operand.Instruction, p1 *pass1Result, ic *int, lineNo int) {
	push := func(w uint16) {
		r.code.Push(w, lineNo)
		*ic++
	}

	srcMode, dstMode := isa.ModeInvalid, isa.ModeInvalid
	if inst.Src != nil {
		srcMode = inst.Src.Mode
	}
	if inst.Dst != nil {
		dstMode = inst.Dst.Mode
	}
	push(isa.FirstWord(inst.Op.Opcode, srcMode, dstMode))

	if inst.Src != nil && inst.Dst != nil &&
		inst.Src.Mode == isa.ModeRegister && inst.Dst.Mode == isa.ModeRegister {
		push(isa.RegisterWord(inst.Src.Register, inst.Dst.Register))
		return
	}

	if inst.Src != nil {
		p2EncodeOperand(r, inst.Src, p1, ic, lineNo, push, true)
	}
	if inst.Dst != nil {
		p2EncodeOperand(r, inst.Dst, p1, ic, lineNo, push, false)
	}
}

func p2EncodeOperand(r *pass2Result, op *operand.Operand, p1 *pass1Result, ic *int, lineNo int, push func(uint16), isSrc bool) {
	switch op.Mode {
	case isa.ModeImmediate:
		checkFit8(&r.errs, lineNo, op.Immediate, "immediate")
		push(isa.PayloadWord(op.Immediate, isa.Absolute))

	case isa.ModeRegister:
		if isSrc {
			push(isa.RegisterWord(op.Register, -1))
		} else {
			push(isa.RegisterWord(-1, op.Register))
		}

	case isa.ModeDirect:
		useAddr := *ic
		emitSymbolWord(r, p1, op.Symbol, useAddr, lineNo, push)

	case isa.ModeMatrix:
		useAddr := *ic
		emitSymbolWord(r, p1, op.Symbol, useAddr, lineNo, push)
		push(isa.RegisterWord(op.MatRow, op.MatCol))
	}
}

func emitSymbolWord(r *pass2Result, p1 *pass1Result, name string, useAddr, lineNo int, push func(uint16)) {
	sym, ok := p1.symbols.Lookup(name)
	switch {
	case ok && sym.Kind == symtab.KindExtern:
		push(isa.PayloadWord(0, isa.External))
		r.externs = append(r.externs, ExternRecord{Name: name, Addr: useAddr})
	case !ok || !sym.Defined():
		r.errs.Addf(lineNo, "undefined symbol %q", name)
		push(isa.PayloadWord(0, isa.External))
	default:
		checkFit8(&r.errs, lineNo, sym.Value, "address")
		push(isa.PayloadWord(sym.Value, isa.Relocatable))
	}
}

func checkFit8(errs *diag.List, lineNo, v int, what string) {
	if v < -128 || v > 255 {
		errs.Addf(lineNo, "%s value out of 8-bit range: %d (masked)", what, v)
	}
}

// collectEntries walks the symbol table once, in insertion order, keeping
// only defined non-extern symbols marked .entry. An .entry left undefined,
// or whose name is declared extern after the .entry line, is rejected here;
// an .entry naming a symbol already declared extern is rejected earlier,
// by symtab.MarkEntry during Pass 1.
func collectEntries(symbols *symtab.Table, r *pass2Result) {
	symbols.ForEach(func(sym symtab.Symbol) {
		if !sym.Entry {
			return
		}
		if sym.Kind == symtab.KindExtern {
			r.errs.Addf(sym.DefLine, "entry symbol %q declared extern", sym.Name)
			return
		}
		if !sym.Defined() {
			r.errs.Addf(sym.DefLine, "entry symbol %q is undefined", sym.Name)
			return
		}
		r.entries = append(r.entries, EntryRecord{Name: sym.Name, Addr: sym.Value})
	})
}

// --- shared line helpers ---------------------------------------------------

func stripComment(line string) string {
	inString := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inString = !inString
		case ';':
			if !inString {
				return line[:i]
			}
		}
	}
	return line
}

// splitLabel recognizes an optional "LABEL:" prefix. It reports ok=false
// (and returns the line unmodified) when no valid label syntax is present,
// matching the reference rule that a ':' not immediately following a bare
// identifier does not introduce a label.
func splitLabel(line string) (label, rest string, ok bool) {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return "", line, false
	}
	candidate := line[:colon]
	if candidate == "" || !isIdentShape(candidate) {
		return "", line, false
	}
	return candidate, line[colon+1:], true
}

func isIdentShape(s string) bool {
	for i, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if i == 0 {
			if !isLetter {
				return false
			}
			continue
		}
		if !isLetter && !isDigit {
			return false
		}
	}
	return true
}

func hasDirective(rest, name string) bool {
	if !strings.HasPrefix(rest, name) {
		return false
	}
	if len(rest) == len(name) {
		return true
	}
	c := rest[len(name)]
	return c == ' ' || c == '\t'
}

// parseDataList parses a comma-separated ".data" operand list. Every value
// is packed the same way a Pass 2 payload word is: masked to 8 bits with
// A/R/E = Absolute, per the uniform payload-word layout data words share
// with instruction operands.
func parseDataList(s string, data *codeimg.Image, errs *diag.List, lineNo int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("malformed .data list")
	}
	parts := strings.Split(s, ",")
	count := 0
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := parseSignedInt(p)
		if err != nil {
			return 0, fmt.Errorf("malformed .data list")
		}
		checkFit8(errs, lineNo, v, "data")
		data.Push(isa.PayloadWord(v, isa.Absolute), lineNo)
		count++
	}
	return count, nil
}

func parseSignedInt(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty integer")
	}
	neg := false
	i := 0
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		i++
	}
	if i == len(s) {
		return 0, fmt.Errorf("malformed integer %q", s)
	}
	v := 0
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("malformed integer %q", s)
		}
		v = v*10 + int(s[i]-'0')
	}
	if neg {
		v = -v
	}
	return v, nil
}

// parseString parses a `"..."` literal, pushing each character and a
// trailing NUL terminator, each packed as a payload word (A/R/E =
// Absolute) the same as any other data word.
func parseString(s string, data *codeimg.Image, lineNo int) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' {
		return 0, fmt.Errorf(".string expects a quoted literal")
	}
	closing := strings.LastIndexByte(s, '"')
	if closing <= 0 {
		return 0, fmt.Errorf("missing closing quote in .string")
	}
	body := s[1:closing]
	trailing := strings.TrimSpace(s[closing+1:])
	if trailing != "" && trailing[0] != ';' {
		return 0, fmt.Errorf("unexpected text after .string")
	}

	count := 0
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			i++
			c = body[i]
		}
		data.Push(isa.PayloadWord(int(c), isa.Absolute), lineNo)
		count++
	}
	data.Push(isa.PayloadWord(0, isa.Absolute), lineNo)
	count++
	return count, nil
}

// parseMat parses `[rows][cols]` followed by an optional comma-separated
// initializer list, zero-filling any cell the list does not cover. Every
// cell is packed as a payload word (A/R/E = Absolute), same as .data.
func parseMat(s string, data *codeimg.Image, errs *diag.List, lineNo int) (int, error) {
	s = strings.TrimSpace(s)
	rows, s, err := parseBracketedInt(s)
	if err != nil {
		return 0, fmt.Errorf("malformed .mat definition")
	}
	cols, s, err := parseBracketedInt(s)
	if err != nil {
		return 0, fmt.Errorf("malformed .mat definition")
	}
	if rows <= 0 || cols <= 0 {
		return 0, fmt.Errorf("malformed .mat definition")
	}
	total := rows * cols

	s = strings.TrimSpace(s)
	s = stripComment(s)
	s = strings.TrimSpace(s)

	filled := 0
	if s != "" {
		for _, p := range strings.Split(s, ",") {
			p = strings.TrimSpace(p)
			if filled >= total {
				return 0, fmt.Errorf("malformed .mat definition")
			}
			v, err := parseSignedInt(p)
			if err != nil {
				return 0, fmt.Errorf("malformed .mat definition")
			}
			checkFit8(errs, lineNo, v, "data")
			data.Push(isa.PayloadWord(v, isa.Absolute), lineNo)
			filled++
		}
	}
	for filled < total {
		data.Push(isa.PayloadWord(0, isa.Absolute), lineNo)
		filled++
	}
	return total, nil
}

func parseBracketedInt(s string) (int, string, error) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != '[' {
		return 0, s, fmt.Errorf("expected '['")
	}
	close := strings.IndexByte(s, ']')
	if close < 0 {
		return 0, s, fmt.Errorf("expected ']'")
	}
	v, err := parseSignedInt(strings.TrimSpace(s[1:close]))
	if err != nil {
		return 0, s, err
	}
	return v, s[close+1:], nil
}
