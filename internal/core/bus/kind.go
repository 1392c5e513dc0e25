// If you are AI: This file defines StreamKind, the closed set of payload kinds a stream can carry.
// Parsing is the only validation performed on stream identity.

package bus

import (
	"errors"
	"fmt"
)

// ErrUnknownStreamKind is returned when a kind string is not part of the known set.
var ErrUnknownStreamKind = errors.New("unknown stream kind")

// StreamKind identifies the payload family carried by a stream.
type StreamKind uint8

const (
	// KindCoreMotion carries device motion samples (attitude, acceleration, rotation).
	KindCoreMotion StreamKind = iota + 1
	// KindPadCoordinates carries touch pad pointer coordinates.
	KindPadCoordinates
)

// kindNames maps each kind to its canonical transport identifier.
var kindNames = map[StreamKind]string{
	KindCoreMotion:     "core-motion",
	KindPadCoordinates: "pad-coordinates",
}

// String returns the canonical lowercase identifier used in URLs.
func (k StreamKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether k is one of the known kinds.
func (k StreamKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseStreamKind converts a canonical identifier into a StreamKind.
// Matching is exact; "Core-Motion" is rejected.
func ParseStreamKind(s string) (StreamKind, error) {
	for kind, name := range kindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStreamKind, s)
}

// StreamKinds returns every known kind in declaration order.
func StreamKinds() []StreamKind {
	return []StreamKind{KindCoreMotion, KindPadCoordinates}
}
