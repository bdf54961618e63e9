package client

import (
	"sync"

	"github.com/msgpack-rpc/msgpackrpc-go/message"
)

// queuedMessage pairs a serialized frame with the MessageId it carries, or
// nil for a notification that needs no response tracking (§4.6).
type queuedMessage struct {
	msg message.SerializedMessage
	id  *message.MessageId
}

// SentMessageQueue is the FIFO of outbound frames shared by the request and
// notification paths (§4.6). Entries survive a reconnect: MessageSender only
// removes an entry once the current Connection has confirmed it was sent.
type SentMessageQueue struct {
	mu    sync.Mutex
	items []queuedMessage
}

// NewSentMessageQueue builds an empty queue.
func NewSentMessageQueue() *SentMessageQueue {
	return &SentMessageQueue{}
}

// Push appends msg to the tail of the queue.
func (q *SentMessageQueue) Push(msg message.SerializedMessage, id *message.MessageId) {
	q.mu.Lock()
	q.items = append(q.items, queuedMessage{msg: msg, id: id})
	q.mu.Unlock()
}

// Peek returns the head of the queue without removing it.
func (q *SentMessageQueue) Peek() (queuedMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return queuedMessage{}, false
	}
	return q.items[0], true
}

// Pop removes the head of the queue.
func (q *SentMessageQueue) Pop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return
	}
	q.items = q.items[1:]
}

// Len reports the number of queued-but-unconfirmed messages.
func (q *SentMessageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
