package codec

import "testing"

func TestScanFrameLengthExactFixarray(t *testing.T) {
	// fixarray of 2 fixints: 0x92 0x01 0x02
	data := []byte{0x92, 0x01, 0x02}
	n, err := scanFrameLength(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected length 3, got %d", n)
	}
}

func TestScanFrameLengthIncomplete(t *testing.T) {
	data := []byte{0x92, 0x01} // missing second element
	n, err := scanFrameLength(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 (need more data), got %d", n)
	}
}

func TestScanFrameLengthNestedArray(t *testing.T) {
	// fixarray[2]: [fixarray[2]: [1,2], 3]
	data := []byte{0x92, 0x92, 0x01, 0x02, 0x03}
	n, err := scanFrameLength(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(data) {
		t.Fatalf("expected full length %d, got %d", len(data), n)
	}
}

func TestScanFrameLengthUnrecognizedTag(t *testing.T) {
	// 0xc1 is the one byte value MessagePack reserves and never assigns.
	if _, err := scanFrameLength([]byte{0xc1}); err == nil {
		t.Fatalf("expected error for reserved tag 0xc1")
	}
}

func TestScanFrameLengthStr(t *testing.T) {
	// fixstr "hi": 0xa2 'h' 'i'
	data := []byte{0xa2, 'h', 'i'}
	n, err := scanFrameLength(data)
	if err != nil || n != 3 {
		t.Fatalf("unexpected result: n=%d err=%v", n, err)
	}
}

func TestSplitTopLevelArrayRejectsNonArray(t *testing.T) {
	if _, err := splitTopLevelArray([]byte{0x01}); err == nil {
		t.Fatalf("expected error splitting a non-array top-level value")
	}
}

func TestByteSplitIndependence(t *testing.T) {
	sm, err := Serializer{}.SerializeRequest("m", 1, "a", "b", "c")
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	whole := sm.Bytes()

	wholeN, err := scanFrameLength(whole)
	if err != nil || wholeN != len(whole) {
		t.Fatalf("unexpected whole-buffer scan: n=%d err=%v", wholeN, err)
	}

	// Any strict prefix must report "need more data" (0, nil), never a
	// different answer and never a spurious error — the incremental
	// byte-split invariant from §8.
	for i := 1; i < len(whole); i++ {
		n, err := scanFrameLength(whole[:i])
		if err != nil {
			t.Fatalf("unexpected error at prefix length %d: %v", i, err)
		}
		if n != 0 {
			t.Fatalf("expected incomplete at prefix length %d, got n=%d", i, n)
		}
	}
}
