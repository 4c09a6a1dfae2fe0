package msgbus

import "time"

// defaultCapacity buffers enough messages that producers rarely block while
// the listener is dispatching.
const defaultCapacity = 1024

// Bus is a FIFO message queue between producer jobs and the listener loop.
// Messages from a single producer are delivered in the order they were
// published; no ordering holds across producers.
type Bus struct {
	ch chan Message
}

// New creates a Bus with the default buffer capacity.
func New() *Bus {
	return NewWithCapacity(defaultCapacity)
}

// NewWithCapacity creates a Bus buffering up to capacity messages.
func NewWithCapacity(capacity int) *Bus {
	if capacity < 1 {
		capacity = 1
	}
	return &Bus{ch: make(chan Message, capacity)}
}

// Publish enqueues a message. Blocks only when the buffer is full, which
// requires the listener to have stalled for a full buffer's worth of events.
func (b *Bus) Publish(msg Message) {
	b.ch <- msg
}

// Receive waits up to timeout for the next message. The second return is
// false on timeout, letting the listener poll a shutdown flag between waits
// instead of blocking indefinitely.
func (b *Bus) Receive(timeout time.Duration) (Message, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case msg := <-b.ch:
		return msg, true
	case <-timer.C:
		return nil, false
	}
}

// TryReceive returns the next message without waiting. Used to drain the
// queue during shutdown.
func (b *Bus) TryReceive() (Message, bool) {
	select {
	case msg := <-b.ch:
		return msg, true
	default:
		return nil, false
	}
}

// Len reports the number of buffered messages.
func (b *Bus) Len() int {
	return len(b.ch)
}
