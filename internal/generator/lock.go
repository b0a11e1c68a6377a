package generator

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// KeyedLock serializes work per channel. Holders must call the returned unlock
// function exactly once; entries are dropped when no one holds or waits on them.
type KeyedLock struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// NewKeyedLock creates an empty keyed lock
func NewKeyedLock() *KeyedLock {
	return &KeyedLock{entries: make(map[uuid.UUID]*lockEntry)}
}

func (l *KeyedLock) acquireEntry(key uuid.UUID) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *KeyedLock) releaseEntry(key uuid.UUID, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Lock blocks until key is held or ctx is done
func (l *KeyedLock) Lock(ctx context.Context, key uuid.UUID) (func(), error) {
	e := l.acquireEntry(key)
	select {
	case e.sem <- struct{}{}:
		return l.unlocker(key, e), nil
	case <-ctx.Done():
		l.releaseEntry(key, e)
		return nil, ctx.Err()
	}
}

// TryLock takes key only if it is free
func (l *KeyedLock) TryLock(key uuid.UUID) (func(), bool) {
	e := l.acquireEntry(key)
	select {
	case e.sem <- struct{}{}:
		return l.unlocker(key, e), true
	default:
		l.releaseEntry(key, e)
		return nil, false
	}
}

func (l *KeyedLock) unlocker(key uuid.UUID, e *lockEntry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.releaseEntry(key, e)
		})
	}
}

// Len returns the number of keys currently held or waited on
func (l *KeyedLock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
