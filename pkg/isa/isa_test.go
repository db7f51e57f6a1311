package isa

import "testing"

func TestLookupKnownAndUnknown(t *testing.T) {
	op, ok := Lookup("mov")
	if !ok || op.Opcode != 0 || op.Arity != 2 {
		t.Fatalf("Lookup(mov) = %+v, %v; want opcode 0 arity 2", op, ok)
	}
	if _, ok := Lookup("nope"); ok {
		t.Fatalf("Lookup(nope) should fail")
	}
}

func TestModeLegality(t *testing.T) {
	mov, _ := Lookup("mov")
	if mov.DstOK[ModeImmediate] {
		t.Errorf("mov must reject an immediate destination")
	}
	if !mov.SrcOK[ModeImmediate] {
		t.Errorf("mov must accept an immediate source")
	}

	jmp, _ := Lookup("jmp")
	if jmp.DstOK[ModeImmediate] || jmp.DstOK[ModeRegister] {
		t.Errorf("jmp destination must be direct or matrix only")
	}
	if !jmp.DstOK[ModeDirect] || !jmp.DstOK[ModeMatrix] {
		t.Errorf("jmp destination must accept direct and matrix")
	}

	rts, _ := Lookup("rts")
	if rts.Arity != 0 {
		t.Errorf("rts must be a 0-arity opcode")
	}
}

func TestWordsForMode(t *testing.T) {
	cases := map[Mode]int{
		ModeImmediate: 1,
		ModeDirect:    1,
		ModeRegister:  1,
		ModeMatrix:    2,
	}
	for m, want := range cases {
		if got := WordsForMode(m); got != want {
			t.Errorf("WordsForMode(%v) = %d; want %d", m, got, want)
		}
	}
}

func TestFirstWordPacking(t *testing.T) {
	w := FirstWord(0, ModeImmediate, ModeDirect)
	if w&0x3 != uint16(Absolute) {
		t.Errorf("FirstWord must default to Absolute A/R/E, got %#x", w)
	}
	if (w>>6)&0xF != 0 {
		t.Errorf("opcode field mismatch: %#x", w)
	}
	if (w>>4)&0x3 != 0 {
		t.Errorf("src mode field mismatch, want immediate code 0: %#x", w)
	}
	if (w>>2)&0x3 != 1 {
		t.Errorf("dst mode field mismatch, want direct code 1: %#x", w)
	}
}

func TestFirstWordAbsentOperands(t *testing.T) {
	w := FirstWord(14, ModeInvalid, ModeInvalid)
	if (w>>4)&0x3 != 0 || (w>>2)&0x3 != 0 {
		t.Errorf("absent operand slots must pack as 0: %#x", w)
	}
	if (w>>6)&0xF != 14 {
		t.Errorf("opcode field mismatch for rts: %#x", w)
	}
}

func TestPayloadWordMasksAndTagsARE(t *testing.T) {
	w := PayloadWord(-1, Relocatable)
	if w&0x3 != uint16(Relocatable) {
		t.Errorf("PayloadWord must carry the requested A/R/E bits: %#x", w)
	}
	if (w>>2)&0xFF != 0xFF {
		t.Errorf("PayloadWord must mask the payload to 8 bits: %#x", w)
	}
}

func TestRegisterWordAbsentSide(t *testing.T) {
	w := RegisterWord(5, -1)
	if (w>>6)&0xF != 5 {
		t.Errorf("src register nibble mismatch: %#x", w)
	}
	if (w>>2)&0xF != 0 {
		t.Errorf("absent dst register must pack as 0: %#x", w)
	}
}

func TestWordMaskIsTenBits(t *testing.T) {
	if WordMask != 0x3FF {
		t.Fatalf("WordMask = %#x; want 0x3FF", WordMask)
	}
}
