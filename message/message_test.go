package message

import (
	"testing"

	"github.com/hashicorp/go-msgpack/codec"
)

func encode(t *testing.T, v any) Raw {
	t.Helper()
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, Handle)
	if err := enc.Encode(v); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return Raw(buf)
}

func TestAsRoundTrip(t *testing.T) {
	raw := encode(t, int64(42))
	got, err := As[int64](raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestAsEmptyFails(t *testing.T) {
	if _, err := As[int64](nil); err == nil {
		t.Fatalf("expected error decoding empty raw value")
	}
}

func TestResultAsRejectsErrorVariant(t *testing.T) {
	cr := CallResult{OK: false, Value: encode(t, "boom")}
	if _, err := ResultAs[string](cr); err == nil {
		t.Fatalf("expected PreconditionNotMet decoding an error CallResult as a result")
	}
}

func TestResultAsSuccess(t *testing.T) {
	cr := CallResult{OK: true, Value: encode(t, "hello")}
	got, err := ResultAs[string](cr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
}

func TestErrorAsRejectsResultVariant(t *testing.T) {
	cr := CallResult{OK: true, Value: encode(t, "hi")}
	if _, err := ErrorAs[string](cr); err == nil {
		t.Fatalf("expected PreconditionNotMet decoding a success CallResult as an error")
	}
}

func TestZoneCopiesBytes(t *testing.T) {
	frame := []byte{1, 2, 3}
	z := NewZone(frame)
	frame[0] = 0xFF
	if z.Bytes()[0] != 1 {
		t.Fatalf("expected Zone to own a copy, not alias the caller's slice")
	}
}

func TestSerializedMessageBytes(t *testing.T) {
	sm := NewSerializedMessage([]byte("abc"))
	if sm.Len() != 3 || string(sm.Bytes()) != "abc" {
		t.Fatalf("unexpected SerializedMessage contents: %+v", sm)
	}
}
