// Package lock serialises work on named keys, in process or across
// instances through Redis.
package lock

import (
	"context"
	"slices"
	"sync"
)

// Locker acquires every key or none. Keys are taken in sorted order so two
// callers locking overlapping sets cannot deadlock.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (release func(), err error)
}

func sortedUnique(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

// Local is an in-process keyed mutex.
type Local struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

func NewLocal() *Local {
	return &Local{entries: make(map[string]*entry)}
}

func (l *Local) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = sortedUnique(keys)
	held := make([]string, 0, len(keys))
	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlock(held[i])
		}
	}
	for _, key := range keys {
		if err := l.lock(ctx, key); err != nil {
			releaseAll()
			return nil, err
		}
		held = append(held, key)
	}
	return releaseAll, nil
}

func (l *Local) acquireEntry(key string) *entry {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()
	return e
}

func (l *Local) dropEntry(key string, e *entry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}

func (l *Local) lock(ctx context.Context, key string) error {
	e := l.acquireEntry(key)
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.dropEntry(key, e)
		return ctx.Err()
	}
}

func (l *Local) unlock(key string) {
	l.mu.Lock()
	e := l.entries[key]
	l.mu.Unlock()
	if e == nil {
		return
	}
	<-e.sem
	l.dropEntry(key, e)
}
