// Package macro is the preassembler stage: it recognizes mcro/mcroend
// blocks, records each macro's body, and expands invocations inline,
// producing the line stream Pass 1 actually sees.
package macro

import (
	"strings"

	"gcpu10/pkg/diag"
	"gcpu10/pkg/ident"
	"gcpu10/pkg/nameset"
)

// Table holds the macro definitions collected from one translation unit.
type Table struct {
	bodies map[string][]string
}

// NewTable returns an empty macro table.
func NewTable() *Table {
	return &Table{bodies: make(map[string][]string)}
}

// Define records name's body. It reports false if name collides with an
// already-defined macro; the caller is expected to have already checked
// name against the shared identifier namespace.
func (t *Table) Define(name string, body []string) bool {
	if _, exists := t.bodies[name]; exists {
		return false
	}
	t.bodies[name] = body
	return true
}

// Lookup returns the recorded body for name, if any.
func (t *Table) Lookup(name string) ([]string, bool) {
	body, ok := t.bodies[name]
	return body, ok
}

const (
	stateOutside   = iota // not inside a mcro/mcroend block
	stateRecording        // accumulating a macro body
)

// maxLineLength is the longest a source line may be before the
// preassembler rejects it.
const maxLineLength = 80

// Expand runs the preassembler over lines (1-based source order) and
// returns the expanded line stream. names is the shared identifier
// namespace; macro names are registered into it so a later label cannot
// collide with one. On any diagnostic, the returned line slice is nil,
// matching the reference implementation's discard-output-on-error rule.
func Expand(lines []string, names *nameset.Set) ([]string, *diag.List) {
	var errs diag.List
	macros := NewTable()

	state := stateOutside
	var macroName string
	var body []string

	var out []string

	for i, raw := range lines {
		lineNo := i + 1
		line := stripComment(raw)
		if len(line) > maxLineLength {
			errs.Addf(lineNo, "source line exceeds %d characters", maxLineLength)
			return nil, &errs
		}
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			// A pure comment line (or a genuinely blank one) passes through
			// with its original text, comment included, untouched.
			out = append(out, raw)
			continue
		}

		if name, ok := parseMcroHeader(trimmed); ok {
			if state == stateRecording {
				errs.Addf(lineNo, "nested macro definition is not allowed")
				return nil, &errs
			}
			if err := ident.ValidateMacroName(name); err != nil {
				errs.Addf(lineNo, "illegal macro name %q: %v", name, err)
				return nil, &errs
			}
			if !names.Add(name) {
				errs.Addf(lineNo, "identifier %q is already in use", name)
				return nil, &errs
			}
			state = stateRecording
			macroName = name
			body = nil
			continue
		}

		if trimmed == "mcroend" {
			if state != stateRecording {
				errs.Addf(lineNo, "'mcroend' without a matching 'mcro'")
				return nil, &errs
			}
			if !macros.Define(macroName, body) {
				errs.Addf(lineNo, "duplicate macro definition %q", macroName)
				return nil, &errs
			}
			state = stateOutside
			macroName = ""
			body = nil
			continue
		}

		if state == stateRecording {
			body = append(body, line)
			continue
		}

		if expanded, ok := macros.Lookup(trimmed); ok {
			out = append(out, expanded...)
			continue
		}

		out = append(out, line)
	}

	if state == stateRecording {
		errs.Addf(len(lines), "unclosed macro %q", macroName)
		return nil, &errs
	}

	if errs.Len() > 0 {
		return nil, &errs
	}
	return out, &errs
}

// parseMcroHeader recognizes a line of the form "mcro NAME" and returns
// NAME. A bare "mcro" with no following name, or a word that merely starts
// with "mcro" (e.g. "mcroFoo"), does not match.
func parseMcroHeader(trimmed string) (string, bool) {
	const kw = "mcro"
	if !strings.HasPrefix(trimmed, kw) {
		return "", false
	}
	rest := trimmed[len(kw):]
	if rest == "" || !isSpace(rest[0]) {
		return "", false
	}
	name := strings.TrimSpace(rest)
	if name == "" || strings.ContainsAny(name, " \t") {
		return "", false
	}
	return name, true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

// stripComment removes a trailing ';' comment, respecting that ';' only
// starts a comment outside a string literal.
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
