// Package message defines the wire-level value types shared by the codec,
// the connection, and the client/server cores (§3): MessageId, MethodName,
// SerializedMessage, ParsedMessage, and CallResult. It sits directly above
// status/rpcuri/address in the dependency order (§2) and below the framing
// codec — everything here is a plain value, never a stream.
package message

import (
	"github.com/hashicorp/go-msgpack/codec"
	"github.com/msgpack-rpc/msgpackrpc-go/status"
)

// Handle is the shared MessagePack codec configuration used everywhere a
// Raw value is encoded or decoded, so every layer agrees on how strings and
// extension types round-trip.
var Handle = &codec.MsgpackHandle{RawToString: true}

// MessageId is the client-assigned, monotonically increasing request
// identifier. Uniqueness is only required among currently in-flight
// requests — wrap-around at 2^32 is fine once earlier ids have settled (§8).
type MessageId uint32

// MethodName is a UTF-8 method name. A plain string already gives value
// semantics, by-bytes equality, and free use as a map key in Go, so unlike
// the original's owned/borrowed split there is nothing further to add here.
type MethodName string

func (m MethodName) Bytes() []byte { return []byte(m) }

// Raw holds one still-encoded MessagePack value (an array for params, any
// object for a result/error). It plays the role of a borrowed view into a
// Zone's bytes — decode it with As[T] once you know the target type.
type Raw []byte

// As decodes a Raw value into T, failing with status.TypeError on mismatch,
// mirroring CallResult.result_as<T>/error_as<T> (§3).
func As[T any](r Raw) (T, error) {
	var out T
	if len(r) == 0 {
		return out, status.New(status.TypeError, "empty msgpack value")
	}
	dec := codec.NewDecoderBytes([]byte(r), Handle)
	if err := dec.Decode(&out); err != nil {
		return out, status.Wrap(status.TypeError, err)
	}
	return out, nil
}

// Zone is the ref-counted-in-spirit arena that owns the bytes a
// ParsedMessage's Raw views point into. In Go the GC already keeps the
// backing array alive as long as any Raw slice references it; Zone exists so
// callers have an explicit handle matching the spec's ownership model and a
// place to hang a debug tag.
type Zone struct {
	buf []byte
}

// NewZone copies frame into a new Zone-owned buffer so a ParsedMessage's
// lifetime never depends on the connection's reusable read buffer.
func NewZone(frame []byte) *Zone {
	buf := make([]byte, len(frame))
	copy(buf, frame)
	return &Zone{buf: buf}
}

func (z *Zone) Bytes() []byte { return z.buf }

// Type tags the three ParsedMessage variants (§3).
type Type int

const (
	TypeRequest Type = iota
	TypeResponse
	TypeNotification
)

func (t Type) String() string {
	switch t {
	case TypeRequest:
		return "request"
	case TypeResponse:
		return "response"
	case TypeNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// ParsedMessage is the tagged variant produced by the frame parser: exactly
// one of Request, Response, or Notification is populated, as named by Type.
type ParsedMessage struct {
	MsgType Type
	Zone    *Zone

	Request      *Request
	Response     *Response
	Notification *Notification
}

// Request carries a client call awaiting a response.
type Request struct {
	ID     MessageId
	Method MethodName
	Params Raw // encoded as a MessagePack array
}

// Response carries exactly one of Result or Error populated — Error non-nil
// (and Result nil/absent) on failure, per the wire format in §6.
type Response struct {
	ID      MessageId
	IsError bool
	Result  Raw // the msgpack "result" slot
	Err     Raw // the msgpack "error" slot
}

// Notification carries a one-way call with no response expected.
type Notification struct {
	Method MethodName
	Params Raw
}

// SerializedMessage is an immutable, already-framed MessagePack-RPC byte
// buffer. Once constructed its bytes are never mutated (§3); Go's slice
// sharing plus this documented invariant gives the same "shared ownership,
// never mutated" guarantee the original gets from a ref-counted buffer,
// without needing an explicit refcount.
type SerializedMessage struct {
	data []byte
}

// NewSerializedMessage takes ownership of data; callers must not mutate data
// afterward.
func NewSerializedMessage(data []byte) SerializedMessage {
	return SerializedMessage{data: data}
}

// Bytes returns the frame's bytes. Callers must treat the result as
// read-only.
func (s SerializedMessage) Bytes() []byte { return s.data }

func (s SerializedMessage) Len() int { return len(s.data) }

// CallResult is what a client call resolves to: either a successful result
// or a server-reported error, both still-encoded, plus the Zone that owns
// their bytes (§3).
type CallResult struct {
	OK    bool
	Value Raw
	Zone  *Zone
}

// ResultAs decodes a successful CallResult's value into T. It fails with
// status.PreconditionNotMet if the call actually failed (wrong variant tag),
// matching error_as<T>'s symmetric behavior in the spec.
func ResultAs[T any](r CallResult) (T, error) {
	var out T
	if !r.OK {
		return out, status.New(status.PreconditionNotMet, "CallResult holds an error, not a result")
	}
	return As[T](r.Value)
}

// ErrorAs decodes a failed CallResult's error payload into T.
func ErrorAs[T any](r CallResult) (T, error) {
	var out T
	if r.OK {
		return out, status.New(status.PreconditionNotMet, "CallResult holds a result, not an error")
	}
	return As[T](r.Value)
}
