// If you are AI: This file implements the Registry that maps stream keys to channels.
// The default implementation shards the map so only same-shard lookups contend.

package bus

import (
	"hash/maphash"
	"sync"
	"time"
)

// DefaultRegistryShards is the shard count used when none is configured.
const DefaultRegistryShards = 32

// Registry resolves stream keys to their single shared Channel.
// Implementations must guarantee that concurrent GetOrCreate calls for one key
// all observe the same Channel instance.
type Registry interface {
	// GetOrCreate returns the channel for key, creating it if needed.
	// The boolean is true only for the caller whose call created the channel.
	GetOrCreate(key StreamKey) (*Channel, bool)
	// Get returns the channel for key or nil.
	Get(key StreamKey) *Channel
	// List returns every key currently registered.
	List() []StreamKey
	// Count returns the number of registered channels.
	Count() int
	// RemoveIfIdle retires and removes the channel for key if it has no attached
	// sessions and has been inactive for at least idleFor.
	RemoveIfIdle(key StreamKey, idleFor time.Duration) bool
}

// registryShard is one lock domain of a MemoryRegistry.
type registryShard struct {
	mu       sync.RWMutex
	channels map[StreamKey]*Channel
}

// MemoryRegistry is the in-process Registry.
// Lock expectations: Each shard has its own RWMutex. Lookups take the read lock;
// creation re-checks under the write lock so exactly one channel wins.
// Allocation: A channel is allocated once per key, on first access.
type MemoryRegistry struct {
	seed     maphash.Seed
	shards   []*registryShard
	capacity int
}

// RegistryOption configures a MemoryRegistry.
type RegistryOption func(*MemoryRegistry)

// WithShards sets the number of lock shards. Values below 1 are ignored.
func WithShards(n int) RegistryOption {
	return func(r *MemoryRegistry) {
		if n >= 1 {
			r.shards = make([]*registryShard, n)
		}
	}
}

// WithChannelCapacity sets the per-subscriber queue size for new channels.
func WithChannelCapacity(n int) RegistryOption {
	return func(r *MemoryRegistry) {
		if n >= 1 {
			r.capacity = n
		}
	}
}

// NewRegistry creates a new in-memory registry.
func NewRegistry(opts ...RegistryOption) *MemoryRegistry {
	r := &MemoryRegistry{
		seed:     maphash.MakeSeed(),
		shards:   make([]*registryShard, DefaultRegistryShards),
		capacity: DefaultChannelCapacity,
	}
	for _, opt := range opts {
		opt(r)
	}
	for i := range r.shards {
		r.shards[i] = &registryShard{channels: make(map[StreamKey]*Channel)}
	}
	return r
}

// shard returns the lock domain responsible for key.
func (r *MemoryRegistry) shard(key StreamKey) *registryShard {
	h := maphash.Comparable(r.seed, key)
	return r.shards[h%uint64(len(r.shards))]
}

// GetOrCreate retrieves an existing channel or creates a new one.
// Returns the channel and true if it was newly created, false if it already existed.
func (r *MemoryRegistry) GetOrCreate(key StreamKey) (*Channel, bool) {
	s := r.shard(key)

	s.mu.RLock()
	channel, exists := s.channels[key]
	s.mu.RUnlock()
	if exists {
		return channel, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if channel, exists := s.channels[key]; exists {
		return channel, false
	}

	channel = NewChannel(key, r.capacity)
	s.channels[key] = channel
	return channel, true
}

// Get retrieves a channel by key, returning nil if not found.
func (r *MemoryRegistry) Get(key StreamKey) *Channel {
	s := r.shard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channels[key]
}

// RemoveIfIdle removes a channel that has no sessions and no recent activity.
// The channel is retired under the shard lock, so a session racing with removal
// fails Attach and resolves a fresh channel instead of using the removed one.
func (r *MemoryRegistry) RemoveIfIdle(key StreamKey, idleFor time.Duration) bool {
	s := r.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, exists := s.channels[key]
	if !exists {
		return false
	}
	if !channel.retireIfIdle(time.Now(), idleFor) {
		return false
	}

	delete(s.channels, key)
	return true
}

// Count returns the number of channels in the registry.
func (r *MemoryRegistry) Count() int {
	total := 0
	for _, s := range r.shards {
		s.mu.RLock()
		total += len(s.channels)
		s.mu.RUnlock()
	}
	return total
}

// List returns all stream keys in the registry.
func (r *MemoryRegistry) List() []StreamKey {
	keys := make([]StreamKey, 0, r.Count())
	for _, s := range r.shards {
		s.mu.RLock()
		for key := range s.channels {
			keys = append(keys, key)
		}
		s.mu.RUnlock()
	}
	return keys
}
