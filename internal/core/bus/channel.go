// If you are AI: This file implements Channel, the broadcast unit for one stream key.
// A channel fans published values out to subscriptions and caches the latest value for warm starts.

package bus

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultChannelCapacity is the per-subscriber queue size used when none is configured.
const DefaultChannelCapacity = 256

// Channel represents one logical telemetry stream.
// It caches the last published value and fans every publish out to all subscriptions.
// Lock expectations: publishMu serializes publishers so sequence numbers, the
// last-value cell and fan-out order agree. lastMu guards only the cell and is held
// for the assignment. subsMu guards the subscription set; fan-out works on a copy.
// Allocation: One Message per publish, shared by all subscribers.
type Channel struct {
	key      StreamKey
	capacity int

	publishMu sync.Mutex
	seq       uint64
	fanout    []*Subscription // scratch slice reused under publishMu

	lastMu sync.RWMutex
	last   *Message

	subsMu    sync.RWMutex
	subs      map[uint64]*Subscription
	nextSubID uint64

	stateMu   sync.Mutex
	producers int
	consumers int
	retired   bool

	createdAt    time.Time
	lastActivity atomic.Int64 // unix nanoseconds
}

// ChannelStats is a point-in-time view of a channel used for introspection.
type ChannelStats struct {
	Key             StreamKey
	Producers       int
	Consumers       int
	Subscriptions   int
	HasLastValue    bool
	LastSeq         uint64
	LastPublishedAt time.Time
	CreatedAt       time.Time
}

// NewChannel creates a channel whose subscriptions buffer up to capacity messages.
func NewChannel(key StreamKey, capacity int) *Channel {
	if capacity < 1 {
		capacity = DefaultChannelCapacity
	}
	now := time.Now()
	c := &Channel{
		key:       key,
		capacity:  capacity,
		subs:      make(map[uint64]*Subscription),
		nextSubID: 1,
		createdAt: now,
	}
	c.lastActivity.Store(now.UnixNano())
	return c
}

// Key returns the channel's stream key.
func (c *Channel) Key() StreamKey {
	return c.key
}

// Publish caches payload as the last value and delivers it to every subscription.
// This is the hot path. It never waits on a subscriber: full queues drop their oldest entry.
// Returns the published message.
func (c *Channel) Publish(payload string) *Message {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	c.seq++
	now := time.Now()
	msg := &Message{Seq: c.seq, Payload: payload, PublishedAt: now}

	c.lastMu.Lock()
	c.last = msg
	c.lastMu.Unlock()

	// The cell is written before the subscription set is read. A subscriber that
	// registers after this point is guaranteed to see msg (or newer) in Snapshot.
	c.subsMu.RLock()
	c.fanout = c.fanout[:0]
	for _, sub := range c.subs {
		c.fanout = append(c.fanout, sub)
	}
	c.subsMu.RUnlock()

	for _, sub := range c.fanout {
		sub.deliver(msg)
	}
	clear(c.fanout)

	c.lastActivity.Store(now.UnixNano())
	return msg
}

// Snapshot returns the most recently published message.
// Returns nil and false if nothing has been published yet.
func (c *Channel) Snapshot() (*Message, bool) {
	c.lastMu.RLock()
	defer c.lastMu.RUnlock()
	return c.last, c.last != nil
}

// Subscribe registers a new subscription that receives every later publish.
// Callers that also want the warm-start value must subscribe first and read
// Snapshot second, then skip live messages with Seq <= the snapshot's Seq.
func (c *Channel) Subscribe() *Subscription {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	id := c.nextSubID
	c.nextSubID++

	sub := newSubscription(id, c, c.capacity)
	c.subs[id] = sub
	return sub
}

// unsubscribe removes a subscription from the fan-out set.
func (c *Channel) unsubscribe(id uint64) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	delete(c.subs, id)
}

// SubscriberCount returns the number of live subscriptions.
func (c *Channel) SubscriberCount() int {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	return len(c.subs)
}

// Attach records a session of the given role as using this channel.
// Returns false if the channel was retired by idle eviction; the caller must
// resolve the key again from the registry.
func (c *Channel) Attach(role Role) bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.retired {
		return false
	}
	switch role {
	case RoleProducer:
		c.producers++
	case RoleConsumer:
		c.consumers++
	}
	c.lastActivity.Store(time.Now().UnixNano())
	return true
}

// Detach records that a session of the given role stopped using this channel.
func (c *Channel) Detach(role Role) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	switch role {
	case RoleProducer:
		if c.producers > 0 {
			c.producers--
		}
	case RoleConsumer:
		if c.consumers > 0 {
			c.consumers--
		}
	}
	c.lastActivity.Store(time.Now().UnixNano())
}

// HasProducer returns true if at least one ingest session is attached.
func (c *Channel) HasProducer() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.producers > 0
}

// IsEmpty returns true if no session of either role is attached.
func (c *Channel) IsEmpty() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.producers == 0 && c.consumers == 0
}

// retireIfIdle marks the channel retired when it has no sessions and has seen no
// activity for at least idleFor. A retired channel refuses further Attach calls.
func (c *Channel) retireIfIdle(now time.Time, idleFor time.Duration) bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.retired {
		return true
	}
	if c.producers > 0 || c.consumers > 0 {
		return false
	}
	if now.Sub(time.Unix(0, c.lastActivity.Load())) < idleFor {
		return false
	}
	c.retired = true
	return true
}

// Stats returns a consistent-enough snapshot of channel state for reporting.
func (c *Channel) Stats() ChannelStats {
	stats := ChannelStats{
		Key:           c.key,
		Subscriptions: c.SubscriberCount(),
		CreatedAt:     c.createdAt,
	}

	c.stateMu.Lock()
	stats.Producers = c.producers
	stats.Consumers = c.consumers
	c.stateMu.Unlock()

	if last, ok := c.Snapshot(); ok {
		stats.HasLastValue = true
		stats.LastSeq = last.Seq
		stats.LastPublishedAt = last.PublishedAt
	}
	return stats
}
