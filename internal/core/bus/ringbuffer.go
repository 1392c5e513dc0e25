// If you are AI: This file implements the bounded per-subscriber message queue.
// Writers never block: when the queue is full the oldest unread message is discarded.
// The backing store is an eapache/queue ring that grows in powers of two up to capacity.

package bus

import (
	"sync"

	"github.com/eapache/queue"
)

// RingBuffer is a bounded FIFO of messages with drop-oldest overflow.
// Lock expectations: Mutex-protected, safe for many writers and one reader.
// Allocation: The ring resizes while filling; once at capacity it stays put.
type RingBuffer struct {
	mu       sync.Mutex
	items    *queue.Queue
	capacity int
	dropped  uint64
}

// NewRingBuffer creates a ring buffer holding at most capacity messages.
// A capacity below 1 is treated as 1.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{
		items:    queue.New(),
		capacity: capacity,
	}
}

// Write appends a message, evicting the oldest one when the buffer is full.
// Returns true if a message had to be dropped to make room.
func (rb *RingBuffer) Write(msg *Message) bool {
	if msg == nil {
		return false
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	dropped := false
	if rb.items.Length() >= rb.capacity {
		rb.items.Remove()
		rb.dropped++
		dropped = true
	}
	rb.items.Add(msg)
	return dropped
}

// Read removes and returns the oldest message.
// Returns nil and false if the buffer is empty.
func (rb *RingBuffer) Read() (*Message, bool) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.items.Length() == 0 {
		return nil, false
	}
	return rb.items.Remove().(*Message), true
}

// Len returns the number of unread messages.
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.items.Length()
}

// Available returns the number of free slots before writes start dropping.
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.capacity - rb.items.Length()
}

// Capacity returns the configured maximum number of buffered messages.
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// Dropped returns the total number of messages evicted by overflow.
func (rb *RingBuffer) Dropped() uint64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.dropped
}
