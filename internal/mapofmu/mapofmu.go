// Package mapofmu serializes work per key.
// Callers holding the lock for one user ID block other callers for that
// user ID only, work for other IDs keeps running concurrently.
// Entries are reference counted and removed once nobody holds or waits on them,
// so the map does not grow with the number of users ever seen.
//
// https://stackoverflow.com/questions/40931373/how-to-gc-a-map-of-mutexes-in-go
package mapofmu

import (
	"fmt"
	"sync"
)

// M is a map of mutexes keyed by K.
type M[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry[K]
}

type entry[K comparable] struct {
	owner *M[K]
	mu    sync.Mutex
	refs  int
	key   K
}

// Unlocker releases a lock obtained from M.Lock.
type Unlocker interface {
	Unlock()
}

func New[K comparable]() *M[K] {
	return &M[K]{entries: make(map[K]*entry[K])}
}

// Lock blocks until the lock for key is acquired. The returned Unlocker is never nil.
func (m *M[K]) Lock(key K) Unlocker {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry[K]{owner: m, key: key}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
	return e
}

// IsLocked reports whether key is held or awaited by anyone.
func (m *M[K]) IsLocked(key K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// Len returns the number of keys currently held or awaited.
func (m *M[K]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (e *entry[K]) Unlock() {
	m := e.owner

	m.mu.Lock()
	cur, ok := m.entries[e.key]
	if !ok || cur != e {
		m.mu.Unlock()
		panic(fmt.Errorf("unlock of key %v without a matching lock", e.key))
	}
	e.refs--
	if e.refs < 1 {
		delete(m.entries, e.key)
	}
	m.mu.Unlock()

	e.mu.Unlock()
}
