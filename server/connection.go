package server

import (
	"context"

	"github.com/msgpack-rpc/msgpackrpc-go/connection"
	"github.com/msgpack-rpc/msgpackrpc-go/executor"
	"github.com/msgpack-rpc/msgpackrpc-go/message"
	"github.com/msgpack-rpc/msgpackrpc-go/methods"
	"github.com/msgpack-rpc/msgpackrpc-go/middleware"
	"github.com/msgpack-rpc/msgpackrpc-go/rpclog"
)

// serverConnection is the per-accepted-connection handler (§4.7): every
// Request is posted to the Callback context, run through the middleware
// chain, and its resulting frame handed back to the same Connection, whose
// own single-writer queue (connection.Connection.Send) keeps concurrent
// responses from interleaving on the wire — generalizing the teacher's
// per-connection writeMu (server/server.go handleConn) into something the
// Connection itself already owns.
type serverConnection struct {
	conn      *connection.Connection
	handler   middleware.HandlerFunc
	processor methods.Processor
	ex        *executor.Executor
	log       rpclog.Logger
}

func newServerConnection(conn *connection.Connection, handler middleware.HandlerFunc, processor methods.Processor, ex *executor.Executor, log rpclog.Logger) *serverConnection {
	return &serverConnection{conn: conn, handler: handler, processor: processor, ex: ex, log: log}
}

// onReceived dispatches a parsed frame according to its tag. Requests and
// notifications are run on the Callback context so a slow handler never
// blocks the read loop for this or any other connection; a Response
// arriving on a server-side connection is a protocol violation (§6: only
// clients receive responses) and closes the connection.
func (sc *serverConnection) onReceived(msg *message.ParsedMessage) {
	switch msg.MsgType {
	case message.TypeRequest:
		req := msg.Request
		sc.ex.Post(executor.Callback, func(context.Context) {
			sm := sc.handler(context.Background(), req)
			sc.conn.Send(sm)
		})
	case message.TypeNotification:
		note := msg.Notification
		sc.ex.Post(executor.Callback, func(context.Context) {
			sc.processor.Notify(context.Background(), note)
		})
	case message.TypeResponse:
		sc.log.Warn("server connection received a response frame, closing")
		sc.conn.Close()
	default:
		sc.log.Warn("server connection received an unrecognized frame, closing")
		sc.conn.Close()
	}
}

func (sc *serverConnection) onClosed(err error) {
	if err != nil {
		sc.log.Debug("server connection closed", "error", err)
	}
}
