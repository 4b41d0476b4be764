package presentation

import (
	"reflect"
	"sync"

	"github.com/hupe1980/routemesh/core"
)

// Multicast fans surface-closed notifications out to registered observers
// in registration order. Notify iterates over a snapshot, so observers may
// add or remove observers (themselves included) while being notified.
type Multicast struct {
	mu        sync.RWMutex
	observers []core.SurfaceObserver
}

// NewMulticast creates an empty observer list.
func NewMulticast() *Multicast {
	return &Multicast{}
}

// Add registers o. Adding an observer that is already registered is a no-op.
func (m *Multicast) Add(o core.SurfaceObserver) {
	if o == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(o) >= 0 {
		return
	}
	m.observers = append(m.observers, o)
}

// Remove unregisters o and reports whether it was registered. Observers
// with non-comparable dynamic types (plain func values) cannot be removed;
// register a pointer instead.
func (m *Multicast) Remove(o core.SurfaceObserver) bool {
	if o == nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(o)
	if i < 0 {
		return false
	}

	next := make([]core.SurfaceObserver, 0, len(m.observers)-1)
	next = append(next, m.observers[:i]...)
	next = append(next, m.observers[i+1:]...)
	m.observers = next

	return true
}

func (m *Multicast) indexOf(o core.SurfaceObserver) int {
	if !reflect.TypeOf(o).Comparable() {
		return -1
	}
	for i, cur := range m.observers {
		if cur == o {
			return i
		}
	}
	return -1
}

// Clear removes every observer.
func (m *Multicast) Clear() {
	m.mu.Lock()
	m.observers = nil
	m.mu.Unlock()
}

// Len returns the number of registered observers.
func (m *Multicast) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.observers)
}

// Notify calls SurfaceClosed on every observer registered at call time.
func (m *Multicast) Notify(handle core.SurfaceHandle, result any) {
	m.mu.RLock()
	snapshot := make([]core.SurfaceObserver, len(m.observers))
	copy(snapshot, m.observers)
	m.mu.RUnlock()

	for _, o := range snapshot {
		o.SurfaceClosed(handle, result)
	}
}
