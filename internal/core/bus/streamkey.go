// If you are AI: This file defines StreamKey for uniquely identifying streams.
// StreamKey is used as a map key in the registry.

package bus

import (
	"fmt"
)

// StreamKey uniquely identifies a stream by producer identity and payload kind.
// It is comparable and can be used as a map key.
type StreamKey struct {
	ProducerID string     // Producer identity (e.g., "device-7")
	Kind       StreamKind // Payload kind (e.g., KindCoreMotion)
}

// String returns a stable, deterministic string representation of the stream key.
// Format: "kind/producer"
func (k StreamKey) String() string {
	return fmt.Sprintf("%s/%s", k.Kind, k.ProducerID)
}

// NewStreamKey creates a new StreamKey from a producer id and kind.
func NewStreamKey(producerID string, kind StreamKind) StreamKey {
	return StreamKey{
		ProducerID: producerID,
		Kind:       kind,
	}
}

// ParseStreamKey validates raw transport values and builds a key.
// Returns ErrUnknownStreamKind for an unrecognised kind and ErrEmptyProducer
// when the producer id is empty.
func ParseStreamKey(kind, producerID string) (StreamKey, error) {
	k, err := ParseStreamKind(kind)
	if err != nil {
		return StreamKey{}, err
	}
	if producerID == "" {
		return StreamKey{}, ErrEmptyProducer
	}
	return NewStreamKey(producerID, k), nil
}
