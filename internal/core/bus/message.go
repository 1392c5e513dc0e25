// If you are AI: This file defines Message, the unit of telemetry flowing through the bus.
// Messages are immutable once published and shared by every subscriber.

package bus

import (
	"errors"
	"time"
)

// ErrEmptyProducer is returned when a stream key is built without a producer id.
var ErrEmptyProducer = errors.New("producer id must not be empty")

// Message is one published payload.
// Ownership: A message is created by Channel.Publish and never modified afterwards.
// Subscribers receive the same pointer and must treat it as read-only.
type Message struct {
	Seq         uint64    // Per-channel sequence number, starting at 1
	Payload     string    // Producer frame, byte-for-byte
	PublishedAt time.Time // Wall clock time of publish
}

// Role distinguishes the two kinds of sessions that attach to a channel.
type Role uint8

const (
	// RoleProducer is an ingest session publishing into a channel.
	RoleProducer Role = iota + 1
	// RoleConsumer is a subscribe session reading from a channel.
	RoleConsumer
)

// String returns a human-readable role name.
func (r Role) String() string {
	switch r {
	case RoleProducer:
		return "producer"
	case RoleConsumer:
		return "consumer"
	default:
		return "unknown"
	}
}
