// Package state holds the per-session caches behind the admin and doctor
// consoles.
package state

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Ticket orders fetches against one List. Take it before the request goes
// out and commit with it when the response arrives.
type Ticket uint64

// List is a cached collection snapshot. A fetch that started before the
// current snapshot's fetch, or before a local write, never replaces it.
type List[T any] struct {
	mu        sync.RWMutex
	items     []T
	loaded    bool
	issued    Ticket
	committed Ticket
}

func (l *List[T]) Begin() Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.issued++
	return l.issued
}

// Commit installs items if no later fetch has committed. It reports whether
// the snapshot was replaced.
func (l *List[T]) Commit(t Ticket, items []T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t <= l.committed {
		return false
	}
	l.committed = t
	l.items = append([]T(nil), items...)
	l.loaded = true
	return true
}

// Snapshot returns a copy of the items and whether any fetch has committed.
func (l *List[T]) Snapshot() ([]T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T(nil), l.items...), l.loaded
}

func (l *List[T]) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Append adds a confirmed record to the snapshot. Fetches begun before the
// call can no longer commit.
func (l *List[T]) Append(item T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, item)
	l.committed = l.issued
}

// Replace swaps the first item matching match for item. It reports whether
// one matched. Like Append, a match supersedes fetches already in flight.
func (l *List[T]) Replace(match func(T) bool, item T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if match(l.items[i]) {
			l.items[i] = item
			l.committed = l.issued
			return true
		}
	}
	return false
}

// Find returns the first item matching match.
func (l *List[T]) Find(match func(T) bool) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.items {
		if match(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Value is a single cached record, unset until the first Set.
type Value[T any] struct {
	mu  sync.RWMutex
	v   T
	set bool
}

func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.v = val
	v.set = true
}

func (v *Value[T]) Get() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.v, v.set
}

// Registry maps session subjects to their state. Entries expire with the
// session and are dropped on logout.
type Registry[S any] struct {
	mu      sync.Mutex
	entries *cache.Cache
	newFn   func() *S
}

func NewRegistry[S any](ttl time.Duration, newFn func() *S) *Registry[S] {
	return &Registry[S]{
		entries: cache.New(ttl, ttl/2+time.Minute),
		newFn:   newFn,
	}
}

// Get returns the state for subject, creating it on first use.
func (r *Registry[S]) Get(subject string) *S {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.entries.Get(subject); ok {
		return s.(*S)
	}
	s := r.newFn()
	r.entries.SetDefault(subject, s)
	return s
}

// Peek returns the state for subject without creating it.
func (r *Registry[S]) Peek(subject string) (*S, bool) {
	if s, ok := r.entries.Get(subject); ok {
		return s.(*S), true
	}
	return nil, false
}

func (r *Registry[S]) Drop(subject string) {
	r.entries.Delete(subject)
}

func (r *Registry[S]) Len() int {
	return r.entries.ItemCount()
}
