package middleware

import (
	"github.com/msgpack-rpc/msgpackrpc-go/codec"
	"github.com/msgpack-rpc/msgpackrpc-go/config"
	"github.com/msgpack-rpc/msgpackrpc-go/message"
)

// responseError peeks at an already-serialized response frame and reports
// whether it carries an error, and the error text if so. Middlewares that
// need to branch on success/failure (logging, retry) decode the frame they
// were just handed back rather than threading a parallel out-of-band
// status value through HandlerFunc.
func responseError(sm message.SerializedMessage) (isError bool, errText string) {
	p, err := codec.NewParser(config.DefaultMessageParserConfig())
	if err != nil {
		return false, ""
	}
	buf := p.PrepareBuffer()
	n := copy(buf, sm.Bytes())
	p.Consumed(n)
	parsed, err := p.TryParse()
	if err != nil || parsed == nil || parsed.Response == nil {
		return false, ""
	}
	if !parsed.Response.IsError {
		return false, ""
	}
	text, _ := message.As[string](parsed.Response.Err)
	return true, text
}
