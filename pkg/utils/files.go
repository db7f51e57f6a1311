package utils

import (
	"strings"
)

const (
	ExtSource = ".as"
	ExtMacro  = ".am"
	ExtObject = ".ob"
	ExtEntry  = ".ent"
	ExtExtern = ".ext"
)

// BaseName strips a trailing .as extension, if present, so a base name
// can be supplied on the command line with or without it.
func BaseName(arg string) string {
	return strings.TrimSuffix(arg, ExtSource)
}

// SourcePath, MacroPath, ObjectPath, EntryPath, and ExternPath build the
// five paths the pipeline reads or writes for one base name.
func SourcePath(base string) string { return base + ExtSource }
func MacroPath(base string) string  { return base + ExtMacro }
func ObjectPath(base string) string { return base + ExtObject }
func EntryPath(base string) string  { return base + ExtEntry }
func ExternPath(base string) string { return base + ExtExtern }
