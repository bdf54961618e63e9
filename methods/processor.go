package methods

import (
	"context"
	"fmt"

	"github.com/msgpack-rpc/msgpackrpc-go/codec"
	"github.com/msgpack-rpc/msgpackrpc-go/message"
	"github.com/msgpack-rpc/msgpackrpc-go/rpclog"
)

// Processor implements the server's MethodProcessor boundary (§6):
// Call(request) -> SerializedMessage always succeeds at producing a frame
// (errors become an error response, never a Go error return), and
// Notify(notification) fires a handler with no response.
type Processor interface {
	Call(ctx context.Context, req *message.Request) message.SerializedMessage
	Notify(ctx context.Context, note *message.Notification)
}

// registryProcessor adapts a Registry to Processor.
type registryProcessor struct {
	registry *Registry
	ser      codec.Serializer
	log      rpclog.Logger
}

// NewProcessor builds the default reflect-based Processor over registry.
func NewProcessor(registry *Registry, log rpclog.Logger) Processor {
	if log == nil {
		log = rpclog.NoOp()
	}
	return &registryProcessor{registry: registry, ser: codec.Serializer{}, log: log}
}

func (p *registryProcessor) Call(ctx context.Context, req *message.Request) message.SerializedMessage {
	svc, m, ok := p.registry.lookup(req.Method)
	if !ok {
		return p.errorResponse(req.ID, fmt.Sprintf("unknown method: %s", req.Method))
	}

	reply, err := invoke(svc, m, req.Params)
	if err != nil {
		p.log.Debug("method handler failed", "method", string(req.Method), "error", err)
		return p.errorResponse(req.ID, err.Error())
	}

	sm, serr := p.ser.SerializeSuccessfulResponse(req.ID, reply.Interface())
	if serr != nil {
		return p.errorResponse(req.ID, serr.Error())
	}
	return sm
}

func (p *registryProcessor) Notify(ctx context.Context, note *message.Notification) {
	svc, m, ok := p.registry.lookup(note.Method)
	if !ok {
		p.log.Warn("notification for unknown method", "method", string(note.Method))
		return
	}
	if _, err := invoke(svc, m, note.Params); err != nil {
		p.log.Debug("notification handler failed", "method", string(note.Method), "error", err)
	}
}

func (p *registryProcessor) errorResponse(id message.MessageId, errMsg string) message.SerializedMessage {
	sm, err := p.ser.SerializeErrorResponse(id, errMsg)
	if err != nil {
		// Encoding a plain string should never fail; if it does there is no
		// safe frame left to send, so fall back to an empty one and let the
		// connection-level write fail visibly instead of panicking here.
		return message.NewSerializedMessage(nil)
	}
	return sm
}
