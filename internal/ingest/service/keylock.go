package service

import (
	"context"
	"sync"

	id "smartourism/pkg/domain"
)

// keyedMutex serializes work per entity. Entries are reference counted and
// removed once no goroutine holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[id.EntityID]*keyedEntry
}

// keyedEntry is a one-slot semaphore: holding the lock means owning the slot.
type keyedEntry struct {
	slot chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[id.EntityID]*keyedEntry)}
}

// Lock waits until the entity's lock is held or ctx is done. On success it
// returns the release func; on cancellation it returns ctx.Err() and holds
// nothing.
func (k *keyedMutex) Lock(ctx context.Context, key id.EntityID) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{slot: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}
	return func() {
		<-e.slot
		k.release(key, e)
	}, nil
}

func (k *keyedMutex) release(key id.EntityID, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
