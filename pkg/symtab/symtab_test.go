package symtab

import "testing"

func TestDefineAndLookup(t *testing.T) {
	tab := New()
	if err := tab.Define("LOOP", KindCode, 105, 3); err != nil {
		t.Fatalf("Define: %v", err)
	}
	sym, ok := tab.Lookup("LOOP")
	if !ok {
		t.Fatalf("Lookup(LOOP) should succeed")
	}
	if sym.Kind != KindCode || sym.Value != 105 || !sym.Defined() {
		t.Errorf("unexpected symbol: %+v", sym)
	}
}

func TestDuplicateDefinitionFails(t *testing.T) {
	tab := New()
	if err := tab.Define("X", KindCode, 100, 1); err != nil {
		t.Fatal(err)
	}
	if err := tab.Define("X", KindData, 200, 2); err == nil {
		t.Fatalf("redefining a local symbol must fail")
	}
}

func TestDefineAfterExternFails(t *testing.T) {
	tab := New()
	if err := tab.Define("X", KindExtern, 0, 1); err != nil {
		t.Fatal(err)
	}
	if err := tab.Define("X", KindCode, 100, 2); err == nil {
		t.Fatalf("defining an already-extern symbol must fail")
	}
}

func TestMarkEntryBeforeDefine(t *testing.T) {
	tab := New()
	if err := tab.MarkEntry("LOOP", 1); err != nil {
		t.Fatal(err)
	}
	sym, ok := tab.Lookup("LOOP")
	if !ok || !sym.Entry || sym.Defined() {
		t.Fatalf("unexpected placeholder: %+v", sym)
	}

	if err := tab.Define("LOOP", KindCode, 107, 5); err != nil {
		t.Fatal(err)
	}
	sym, _ = tab.Lookup("LOOP")
	if !sym.Entry || !sym.Defined() || sym.Value != 107 {
		t.Errorf("entry flag must survive a later Define: %+v", sym)
	}
}

func TestMarkEntryOnExternFails(t *testing.T) {
	tab := New()
	if err := tab.Define("X", KindExtern, 0, 1); err != nil {
		t.Fatal(err)
	}
	if err := tab.MarkEntry("X", 2); err == nil {
		t.Fatalf("marking an extern symbol .entry must fail")
	}
}

func TestRelocateDataOnlyTouchesData(t *testing.T) {
	tab := New()
	_ = tab.Define("CODESYM", KindCode, 100, 1)
	_ = tab.Define("DATASYM", KindData, 3, 2)

	tab.RelocateData(107)

	code, _ := tab.Lookup("CODESYM")
	data, _ := tab.Lookup("DATASYM")
	if code.Value != 100 {
		t.Errorf("RelocateData must not touch CODE symbols, got %d", code.Value)
	}
	if data.Value != 110 {
		t.Errorf("DATASYM = %d; want 110", data.Value)
	}
}

func TestForEachInsertionOrder(t *testing.T) {
	tab := New()
	_ = tab.Define("C", KindCode, 0, 1)
	_ = tab.Define("A", KindCode, 1, 2)
	_ = tab.Define("B", KindCode, 2, 3)

	var names []string
	tab.ForEach(func(s Symbol) { names = append(names, s.Name) })

	want := []string{"C", "A", "B"}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("ForEach order = %v; want %v", names, want)
		}
	}
}

func TestIsExternal(t *testing.T) {
	tab := New()
	_ = tab.Define("EXT", KindExtern, 0, 1)
	_ = tab.Define("LOC", KindCode, 100, 1)

	if !tab.IsExternal("EXT") {
		t.Errorf("EXT should be external")
	}
	if tab.IsExternal("LOC") {
		t.Errorf("LOC should not be external")
	}
	if tab.IsExternal("NOPE") {
		t.Errorf("unknown symbol should not be external")
	}
}
