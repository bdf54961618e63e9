package client

import (
	"context"
	"sync"

	"github.com/msgpack-rpc/msgpackrpc-go/message"
	"github.com/msgpack-rpc/msgpackrpc-go/rpclog"
	"github.com/msgpack-rpc/msgpackrpc-go/status"
)

// Promise is the handle an in-flight Call resolves through. Wait blocks
// until either the server's response arrives or ctx is done.
type Promise struct {
	ch chan outcome
}

type outcome struct {
	result message.CallResult
	err    error
}

// Wait blocks for the response, or returns ctx's error wrapped as a Timeout
// status if ctx is done first.
func (p *Promise) Wait(ctx context.Context) (message.CallResult, error) {
	select {
	case o := <-p.ch:
		return o.result, o.err
	case <-ctx.Done():
		return message.CallResult{}, status.Wrap(status.Timeout, ctx.Err())
	}
}

func (p *Promise) fulfill(o outcome) {
	p.ch <- o
}

// CallList tracks requests awaiting a response (§4.6): map<MessageId, Call>
// plus a monotonic id counter, both behind one mutex.
type CallList struct {
	mu      sync.Mutex
	nextID  message.MessageId
	pending map[message.MessageId]*Promise
	log     rpclog.Logger
}

// NewCallList builds an empty CallList.
func NewCallList(log rpclog.Logger) *CallList {
	if log == nil {
		log = rpclog.NoOp()
	}
	return &CallList{pending: make(map[message.MessageId]*Promise), log: log}
}

// Create allocates the next MessageId and registers a Promise for it.
func (cl *CallList) Create() (message.MessageId, *Promise) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.nextID++
	id := cl.nextID
	p := &Promise{ch: make(chan outcome, 1)}
	cl.pending[id] = p
	return id, p
}

// Handle looks up resp's id; on a hit it fulfils the Promise with the
// response's CallResult and removes the entry. On a miss — a response for
// an id we never sent, or one we already resolved — it drops the response
// silently but logs a trace line (§4.6).
func (cl *CallList) Handle(resp *message.Response, zone *message.Zone) {
	cl.mu.Lock()
	p, ok := cl.pending[resp.ID]
	if ok {
		delete(cl.pending, resp.ID)
	}
	cl.mu.Unlock()

	if !ok {
		cl.log.Trace("response for unknown or already-resolved call", "id", resp.ID)
		return
	}

	value := resp.Result
	if resp.IsError {
		value = resp.Err
	}
	p.fulfill(outcome{result: message.CallResult{OK: !resp.IsError, Value: value, Zone: zone}})
}

// AbortAll fails every pending call with err, used on Client.Stop (§4.6).
func (cl *CallList) AbortAll(err error) {
	cl.mu.Lock()
	pending := cl.pending
	cl.pending = make(map[message.MessageId]*Promise)
	cl.mu.Unlock()

	for _, p := range pending {
		p.fulfill(outcome{err: err})
	}
}

// Len reports the number of calls currently awaiting a response.
func (cl *CallList) Len() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.pending)
}
