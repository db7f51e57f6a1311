package utils

import "testing"

func TestBaseNameStripsSourceExtension(t *testing.T) {
	if got := BaseName("prog.as"); got != "prog" {
		t.Errorf("BaseName(prog.as) = %q; want prog", got)
	}
	if got := BaseName("prog"); got != "prog" {
		t.Errorf("BaseName(prog) = %q; want prog", got)
	}
}

func TestPathBuilders(t *testing.T) {
	base := "dir/prog"
	cases := map[string]func(string) string{
		"dir/prog.as":  SourcePath,
		"dir/prog.am":  MacroPath,
		"dir/prog.ob":  ObjectPath,
		"dir/prog.ent": EntryPath,
		"dir/prog.ext": ExternPath,
	}
	for want, fn := range cases {
		if got := fn(base); got != want {
			t.Errorf("got %q; want %q", got, want)
		}
	}
}
