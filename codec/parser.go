package codec

import (
	"github.com/msgpack-rpc/msgpackrpc-go/config"
	"github.com/msgpack-rpc/msgpackrpc-go/message"
	"github.com/msgpack-rpc/msgpackrpc-go/status"
)

// Parser incrementally reassembles MessagePack-RPC frames from a byte
// stream (§4.1). It is not safe for concurrent use — the spec's Connection
// invariant ("at most one read in flight") means exactly one goroutine ever
// drives a given Parser, matching the teacher's single-reader-per-connection
// rule in handleConn/recvLoop.
type Parser struct {
	cfg config.MessageParserConfig
	buf []byte
	n   int // valid bytes at the front of buf
}

// NewParser builds a Parser honoring cfg.ReadBufferSize as the minimum
// writable region PrepareBuffer returns.
func NewParser(cfg config.MessageParserConfig) (*Parser, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return &Parser{cfg: cfg, buf: make([]byte, cfg.ReadBufferSize)}, nil
}

// PrepareBuffer returns a writable region of at least ReadBufferSize bytes,
// growing the internal buffer if needed. The caller (typically a
// Connection's read loop) reads into this slice and reports how much it
// filled via Consumed.
func (p *Parser) PrepareBuffer() []byte {
	if cap(p.buf)-p.n < p.cfg.ReadBufferSize {
		grown := make([]byte, p.n, (p.n+p.cfg.ReadBufferSize)*2)
		copy(grown, p.buf[:p.n])
		p.buf = grown
	}
	return p.buf[p.n:cap(p.buf)]
}

// Consumed marks n bytes, written into the slice PrepareBuffer most recently
// returned, as received.
func (p *Parser) Consumed(n int) {
	p.n += n
}

// TryParse returns the next complete ParsedMessage once enough bytes have
// accumulated, nil when more bytes are needed, and a status.InvalidMessage
// error on malformed data — at which point the stream must be abandoned
// (§4.1: "Invalid frames ... abort the stream").
func (p *Parser) TryParse() (*message.ParsedMessage, error) {
	length, err := scanFrameLength(p.buf[:p.n])
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}

	frame := make([]byte, length)
	copy(frame, p.buf[:length])

	remaining := p.n - length
	copy(p.buf[:remaining], p.buf[length:p.n])
	p.n = remaining

	return decodeFrame(frame)
}

func isNil(raw []byte) bool { return len(raw) == 1 && raw[0] == 0xc0 }

func decodeFrame(frame []byte) (*message.ParsedMessage, error) {
	elems, err := splitTopLevelArray(frame)
	if err != nil {
		return nil, err
	}
	if len(elems) < 3 || len(elems) > 4 {
		return nil, status.Newf(status.InvalidMessage, "frame array length must be 3 or 4, got %d", len(elems))
	}

	msgType, err := message.As[uint64](message.Raw(elems[0]))
	if err != nil {
		return nil, status.Wrap(status.InvalidMessage, err)
	}

	zone := message.NewZone(frame)

	switch {
	case msgType == msgTypeRequest && len(elems) == 4:
		id, method, params, err := decodeIDMethodParams(elems[1], elems[2], elems[3])
		if err != nil {
			return nil, err
		}
		return &message.ParsedMessage{
			MsgType: message.TypeRequest,
			Zone:    zone,
			Request: &message.Request{ID: id, Method: method, Params: params},
		}, nil

	case msgType == msgTypeResponse && len(elems) == 4:
		id64, err := message.As[uint64](message.Raw(elems[1]))
		if err != nil {
			return nil, status.Wrap(status.InvalidMessage, err)
		}
		errNil, resNil := isNil(elems[2]), isNil(elems[3])
		if errNil == resNil {
			return nil, status.New(status.InvalidMessage, "response must carry exactly one of error/result")
		}
		resp := &message.Response{ID: message.MessageId(id64), IsError: !errNil}
		if resp.IsError {
			resp.Err = message.Raw(elems[2])
		} else {
			resp.Result = message.Raw(elems[3])
		}
		return &message.ParsedMessage{MsgType: message.TypeResponse, Zone: zone, Response: resp}, nil

	case msgType == msgTypeNotification && len(elems) == 3:
		method, err := message.As[string](message.Raw(elems[1]))
		if err != nil {
			return nil, status.Wrap(status.InvalidMessage, err)
		}
		if !isArrayTag(elems[2]) {
			return nil, status.New(status.InvalidMessage, "notification params must be an array")
		}
		return &message.ParsedMessage{
			MsgType:      message.TypeNotification,
			Zone:         zone,
			Notification: &message.Notification{Method: message.MethodName(method), Params: message.Raw(elems[2])},
		}, nil

	default:
		return nil, status.Newf(status.InvalidMessage, "unsupported frame: type=%d arity=%d", msgType, len(elems))
	}
}

func decodeIDMethodParams(idRaw, methodRaw, paramsRaw []byte) (message.MessageId, message.MethodName, message.Raw, error) {
	id64, err := message.As[uint64](message.Raw(idRaw))
	if err != nil {
		return 0, "", nil, status.Wrap(status.InvalidMessage, err)
	}
	method, err := message.As[string](message.Raw(methodRaw))
	if err != nil {
		return 0, "", nil, status.Wrap(status.InvalidMessage, err)
	}
	if !isArrayTag(paramsRaw) {
		return 0, "", nil, status.New(status.InvalidMessage, "params must be an array")
	}
	return message.MessageId(id64), message.MethodName(method), message.Raw(paramsRaw), nil
}

func isArrayTag(raw []byte) bool {
	_, _, ok := arrayElementCount(raw)
	return ok
}
