package client

import (
	"sync"

	"github.com/msgpack-rpc/msgpackrpc-go/connection"
	"github.com/msgpack-rpc/msgpackrpc-go/message"
)

// MessageSender drives outbound I/O for the client (§4.6). It holds at most
// a weak reference to the current Connection — in Go, just a pointer
// guarded by a mutex, cleared on disconnect — and an is_sending flag so
// only one frame from the queue is ever in flight on the wire at a time.
type MessageSender struct {
	queue *SentMessageQueue

	mu      sync.Mutex
	conn    *connection.Connection
	sending bool
}

// NewMessageSender builds a sender over queue. It starts with no
// connection; call SetConnection once ClientConnector installs one.
func NewMessageSender(queue *SentMessageQueue) *MessageSender {
	return &MessageSender{queue: queue}
}

// Send enqueues msg (with id, or nil for a notification) then kicks
// send_next.
func (s *MessageSender) Send(msg message.SerializedMessage, id *message.MessageId) {
	s.queue.Push(msg, id)
	s.sendNext()
}

// SetConnection installs the live connection and resumes draining the
// queue. Call with nil on disconnect; queued-but-unconfirmed messages stay
// put and resume once a new connection is installed.
func (s *MessageSender) SetConnection(c *connection.Connection) {
	s.mu.Lock()
	s.conn = c
	s.sending = false
	s.mu.Unlock()
	if c != nil {
		s.sendNext()
	}
}

// sendNext is the guarded critical section from §4.6: bail if a send is
// already outstanding or there's no connection; otherwise peek the head of
// the queue, mark sending, and hand it to the connection. The head is only
// popped once OnSent confirms delivery (see Sent), so a mid-send
// disconnect leaves the message queued for the next connection.
func (s *MessageSender) sendNext() {
	s.mu.Lock()
	if s.sending || s.conn == nil {
		s.mu.Unlock()
		return
	}
	item, ok := s.queue.Peek()
	if !ok {
		s.mu.Unlock()
		return
	}
	s.sending = true
	conn := s.conn
	s.mu.Unlock()

	conn.Send(item.msg)
}

// Connected reports whether a live connection is currently installed.
func (s *MessageSender) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Sent is wired as the current Connection's OnSent callback: pop the
// confirmed head, clear is_sending, and try the next one.
func (s *MessageSender) Sent() {
	s.queue.Pop()
	s.mu.Lock()
	s.sending = false
	s.mu.Unlock()
	s.sendNext()
}
