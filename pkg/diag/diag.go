// Package diag is the assembler's error aggregator: an append-only list of
// line-tagged diagnostics that stages fill in as they scan, instead of
// aborting on the first problem, so a caller gets a full report per file.
package diag

import (
	"fmt"
	"io"
)

// Item is one diagnostic: a 1-based source line (0 for a resource-level
// diagnostic not tied to any line) and a human-readable message.
type Item struct {
	Line    int
	Message string
}

// List collects diagnostics for a single stage or a single translation
// unit. The zero value is ready to use.
type List struct {
	items []Item
}

// Addf appends a formatted diagnostic tagged with line.
func (l *List) Addf(line int, format string, args ...any) {
	l.items = append(l.items, Item{Line: line, Message: fmt.Sprintf(format, args...)})
}

// Add appends a diagnostic tagged with line.
func (l *List) Add(line int, message string) {
	l.items = append(l.items, Item{Line: line, Message: message})
}

// Merge appends a copy of src's items to l, leaving src untouched.
func (l *List) Merge(src *List) {
	if src == nil || len(src.items) == 0 {
		return
	}
	l.items = append(l.items, src.items...)
}

// Len reports how many diagnostics have been recorded.
func (l *List) Len() int {
	return len(l.items)
}

// Items returns the recorded diagnostics in insertion order. The caller
// must not mutate the returned slice.
func (l *List) Items() []Item {
	return l.items
}

// Report writes every diagnostic to w as "<filename>:<line>: <message>",
// one per line, in insertion order. Line-0 diagnostics omit the line
// number, matching a resource-level error with no source location.
func (l *List) Report(w io.Writer, filename string) {
	for _, it := range l.items {
		if it.Line > 0 {
			fmt.Fprintf(w, "%s:%d: %s\n", filename, it.Line, it.Message)
		} else {
			fmt.Fprintf(w, "%s: %s\n", filename, it.Message)
		}
	}
}
