// Package locker provides the togglable mutual-exclusion strategy shared by
// the scan and consume cycles.
//
// A Locker hands out a Guard for a resource. Two strategies exist: a real
// per-resource mutex and a no-op used by single-threaded harnesses. Both honor
// the same guard contract: acquiring with a nil resource yields a harmless
// guard, and releasing a guard more than once is allowed.
package locker

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Guard is held while a resource is locked.
type Guard interface {
	Release()
}

// Locker acquires exclusive access to a resource. Resources are compared by
// identity, so callers pass pointers.
type Locker interface {
	Acquire(resource any) Guard
}

// New returns the mutex strategy when enabled, otherwise the no-op strategy.
func New(enabled bool) Locker {
	if enabled {
		return NewMutex()
	}
	log.Debug().Msg("<Locker> mutual exclusion disabled, using no-op guards")
	return NewNoop()
}

type noopGuard struct{}

func (noopGuard) Release() {}

// Noop never blocks.
type Noop struct{}

// NewNoop returns a Locker whose guards do nothing.
func NewNoop() *Noop {
	return &Noop{}
}

func (*Noop) Acquire(any) Guard {
	return noopGuard{}
}

// Mutex serializes access per resource.
type Mutex struct {
	mutexes sync.Map // resource -> *sync.Mutex
}

// NewMutex returns a Locker backed by one sync.Mutex per resource.
func NewMutex() *Mutex {
	return &Mutex{}
}

func (m *Mutex) Acquire(resource any) Guard {
	if resource == nil {
		return noopGuard{}
	}
	v, _ := m.mutexes.LoadOrStore(resource, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return &mutexGuard{mu: mu}
}

type mutexGuard struct {
	once sync.Once
	mu   *sync.Mutex
}

func (g *mutexGuard) Release() {
	g.once.Do(g.mu.Unlock)
}

// With runs fn while holding the guard for resource.
func With(l Locker, resource any, fn func()) {
	g := l.Acquire(resource)
	defer g.Release()
	fn()
}
