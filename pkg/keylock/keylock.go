// Package keylock provides per-key mutual exclusion. Different keys never
// contend; idle keys are released from the map.
package keylock

import (
	"context"
	"sync"
)

// Locker serializes work per key.
type Locker[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*entry
}

type entry struct {
	ch   chan struct{} // buffered(1); holding the token means holding the lock
	refs int
}

// New creates an empty Locker.
func New[K comparable]() *Locker[K] {
	return &Locker[K]{locks: make(map[K]*entry)}
}

// Lock blocks until key is held and returns its release function.
func (l *Locker[K]) Lock(key K) func() {
	e := l.acquire(key)
	e.ch <- struct{}{}
	return l.releaseFunc(key, e)
}

// LockContext is Lock with cancellation. On ctx expiry no lock is held.
func (l *Locker[K]) LockContext(ctx context.Context, key K) (func(), error) {
	e := l.acquire(key)
	select {
	case e.ch <- struct{}{}:
		return l.releaseFunc(key, e), nil
	case <-ctx.Done():
		l.drop(key, e)
		return nil, ctx.Err()
	}
}

// TryLock takes the lock only if it is free.
func (l *Locker[K]) TryLock(key K) (func(), bool) {
	e := l.acquire(key)
	select {
	case e.ch <- struct{}{}:
		return l.releaseFunc(key, e), true
	default:
		l.drop(key, e)
		return nil, false
	}
}

// Len returns the number of keys currently held or waited on.
func (l *Locker[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *Locker[K]) acquire(key K) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *Locker[K]) drop(key K, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *Locker[K]) releaseFunc(key K, e *entry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.drop(key, e)
		})
	}
}
