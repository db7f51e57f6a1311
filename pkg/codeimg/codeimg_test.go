package codeimg

import "testing"

func TestPushAndAt(t *testing.T) {
	var img Image
	img.Push(0x123, 4)
	img.Push(0x456, 5)

	if img.Len() != 2 {
		t.Fatalf("Len() = %d; want 2", img.Len())
	}
	if w := img.At(0); w.Value != 0x123 || w.SrcLine != 4 {
		t.Errorf("At(0) = %+v; want {0x123 4}", w)
	}
}

func TestSetKeepsLineTag(t *testing.T) {
	var img Image
	img.Push(0, 7)
	img.Set(0, 0x2A)

	w := img.At(0)
	if w.Value != 0x2A || w.SrcLine != 7 {
		t.Errorf("Set must preserve the line tag: %+v", w)
	}
}

func TestAppendAfterConcatenatesAndDrainsSource(t *testing.T) {
	var code, data Image
	code.Push(1, 1)
	data.Push(2, 2)
	data.Push(3, 3)

	code.AppendAfter(&data)

	if code.Len() != 3 {
		t.Fatalf("code.Len() = %d; want 3", code.Len())
	}
	if data.Len() != 0 {
		t.Errorf("AppendAfter must drain the source image, data.Len() = %d", data.Len())
	}
	if code.At(1).Value != 2 || code.At(2).Value != 3 {
		t.Errorf("data words out of order: %+v", code.Words())
	}
}
