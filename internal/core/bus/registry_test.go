// If you are AI: This file contains unit tests for the registry.

package bus

import (
	"sync"
	"testing"
	"time"
)

func TestRegistryGetOrCreate(t *testing.T) {
	reg := NewRegistry()

	key := NewStreamKey("device-7", KindCoreMotion)

	// Create new channel
	ch1, created := reg.GetOrCreate(key)
	if !created {
		t.Error("First GetOrCreate should create new channel")
	}
	if ch1 == nil {
		t.Fatal("Channel should not be nil")
	}

	// Get existing channel
	ch2, created := reg.GetOrCreate(key)
	if created {
		t.Error("Second GetOrCreate should not create new channel")
	}
	if ch1 != ch2 {
		t.Error("GetOrCreate should return same channel instance")
	}

	if reg.Count() != 1 {
		t.Errorf("Expected 1 channel, got %d", reg.Count())
	}
}

func TestRegistryConcurrentGetOrCreate(t *testing.T) {
	reg := NewRegistry(WithShards(4))
	key := NewStreamKey("device-7", KindCoreMotion)

	const openers = 64
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]*Channel, openers)
		created = make([]bool, openers)
	)
	for i := 0; i < openers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], created[i] = reg.GetOrCreate(key)
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for i := range results {
		if results[i] != results[0] {
			t.Fatalf("Opener %d observed a different channel instance", i)
		}
		if created[i] {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("Expected exactly 1 creator, got %d", winners)
	}
	if reg.Count() != 1 {
		t.Errorf("Expected 1 channel, got %d", reg.Count())
	}
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry()

	key := NewStreamKey("device-7", KindPadCoordinates)

	if reg.Get(key) != nil {
		t.Error("Get should return nil for non-existent channel")
	}

	reg.GetOrCreate(key)

	if reg.Get(key) == nil {
		t.Error("Get should return channel after creation")
	}
}

func TestRegistryKeysAreIndependent(t *testing.T) {
	reg := NewRegistry()

	motion, _ := reg.GetOrCreate(NewStreamKey("device-7", KindCoreMotion))
	pad, _ := reg.GetOrCreate(NewStreamKey("device-7", KindPadCoordinates))
	other, _ := reg.GetOrCreate(NewStreamKey("device-8", KindCoreMotion))

	if motion == pad || motion == other || pad == other {
		t.Error("Distinct keys must map to distinct channels")
	}
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()

	key1 := NewStreamKey("device-1", KindCoreMotion)
	key2 := NewStreamKey("device-2", KindCoreMotion)

	reg.GetOrCreate(key1)
	reg.GetOrCreate(key2)

	keys := reg.List()
	if len(keys) != 2 {
		t.Errorf("Expected 2 channels, got %d", len(keys))
	}

	found1, found2 := false, false
	for _, k := range keys {
		if k == key1 {
			found1 = true
		}
		if k == key2 {
			found2 = true
		}
	}
	if !found1 || !found2 {
		t.Error("List should contain both channels")
	}
}

func TestRegistryRemoveIfIdle(t *testing.T) {
	reg := NewRegistry()
	key := NewStreamKey("device-7", KindCoreMotion)

	if reg.RemoveIfIdle(key, 0) {
		t.Error("RemoveIfIdle should return false for non-existent channel")
	}

	ch, _ := reg.GetOrCreate(key)
	ch.Attach(RoleProducer)

	// Attached sessions keep the channel alive
	if reg.RemoveIfIdle(key, 0) {
		t.Error("RemoveIfIdle should fail while a producer is attached")
	}

	ch.Detach(RoleProducer)

	// Recent activity keeps the channel alive
	if reg.RemoveIfIdle(key, time.Hour) {
		t.Error("RemoveIfIdle should fail for a recently active channel")
	}

	if !reg.RemoveIfIdle(key, 0) {
		t.Error("RemoveIfIdle should succeed for an idle channel")
	}
	if reg.Count() != 0 {
		t.Errorf("Expected 0 channels, got %d", reg.Count())
	}

	// The removed instance is retired; resolving again yields a fresh channel
	if ch.Attach(RoleConsumer) {
		t.Error("Attach should fail on a retired channel")
	}
	fresh, created := reg.GetOrCreate(key)
	if !created || fresh == ch {
		t.Error("GetOrCreate after eviction should create a new channel")
	}
	if _, ok := fresh.Snapshot(); ok {
		t.Error("Recreated channel should have no last value")
	}
}
