// If you are AI: This file defines Subscription, a consumer's attachment to a channel.
// Each subscription owns a ring buffer and a one-slot wakeup signal for select loops.

package bus

import (
	"sync"
)

// Subscription receives messages published to a channel after it was created.
// Each subscription has its own ring buffer so a slow reader never blocks the publisher.
// Lock expectations: deliver may be called concurrently with Next; Next, Lagged and
// Ready are meant for a single reader goroutine.
type Subscription struct {
	id       uint64
	channel  *Channel
	buffer   *RingBuffer
	ready    chan struct{}
	reported uint64 // drops already surfaced through Lagged (reader only)
	once     sync.Once
}

// newSubscription creates a subscription with the given buffer capacity.
func newSubscription(id uint64, channel *Channel, capacity int) *Subscription {
	return &Subscription{
		id:      id,
		channel: channel,
		buffer:  NewRingBuffer(capacity),
		ready:   make(chan struct{}, 1),
	}
}

// ID returns the unique subscription identifier within its channel.
func (s *Subscription) ID() uint64 {
	return s.id
}

// Ready returns a channel that receives a value whenever new messages may be available.
// After a wakeup the reader should call Next until it reports false.
func (s *Subscription) Ready() <-chan struct{} {
	return s.ready
}

// deliver queues a message and wakes the reader without blocking.
func (s *Subscription) deliver(msg *Message) {
	s.buffer.Write(msg)
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Next returns the oldest undelivered message, or false if none is queued.
func (s *Subscription) Next() (*Message, bool) {
	return s.buffer.Read()
}

// Pending returns the number of queued messages.
func (s *Subscription) Pending() int {
	return s.buffer.Len()
}

// Lagged returns how many messages were dropped since the previous call.
func (s *Subscription) Lagged() uint64 {
	total := s.buffer.Dropped()
	missed := total - s.reported
	s.reported = total
	return missed
}

// Dropped returns the total number of messages dropped due to backpressure.
func (s *Subscription) Dropped() uint64 {
	return s.buffer.Dropped()
}

// Close detaches the subscription from its channel.
// Messages published afterwards are not delivered. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.channel.unsubscribe(s.id)
	})
}
