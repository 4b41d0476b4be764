package engine

import (
	"sync"
	"time"

	"github.com/hupe1980/routemesh/core"
)

type waitResult struct {
	value any
	err   error
}

// waiter is the pending completion of one presentational call. It resolves
// at most once; later attempts are no-ops.
type waiter struct {
	callID core.CallID
	path   string
	handle core.SurfaceHandle
	done   chan waitResult
	once   sync.Once
}

func (w *waiter) resolve(value any, err error) bool {
	resolved := false
	w.once.Do(func() {
		w.done <- waitResult{value: value, err: err}
		resolved = true
	})
	return resolved
}

type orphanClose struct {
	result   any
	closedAt time.Time
}

// waiterTable maps surface handles to pending presentational calls.
//
// A close notification that arrives before its handle is associated is
// parked as an orphan and consumed by the later association.
type waiterTable struct {
	mu       sync.Mutex
	byHandle map[core.SurfaceHandle]*waiter
	byCall   map[string]*waiter
	orphans  map[core.SurfaceHandle]orphanClose
	now      func() time.Time
}

func newWaiterTable(now func() time.Time) *waiterTable {
	if now == nil {
		now = time.Now
	}
	return &waiterTable{
		byHandle: make(map[core.SurfaceHandle]*waiter),
		byCall:   make(map[string]*waiter),
		orphans:  make(map[core.SurfaceHandle]orphanClose),
		now:      now,
	}
}

func placeholderHandle(id core.CallID) core.SurfaceHandle {
	return core.SurfaceHandle("pending:" + id.ID)
}

// register adds a waiter for callID under handle.
func (t *waiterTable) register(handle core.SurfaceHandle, callID core.CallID, path string) *waiter {
	w := &waiter{callID: callID, path: path, handle: handle, done: make(chan waitResult, 1)}

	t.mu.Lock()
	t.byHandle[handle] = w
	t.byCall[callID.ID] = w
	t.mu.Unlock()

	return w
}

// transfer moves the waiter registered under from to to. If a close for to
// was parked, the waiter resolves immediately.
func (t *waiterTable) transfer(from, to core.SurfaceHandle) bool {
	t.mu.Lock()
	w, ok := t.byHandle[from]
	if !ok {
		t.mu.Unlock()
		return false
	}
	delete(t.byHandle, from)

	orphan, closed := t.orphans[to]
	if closed {
		delete(t.orphans, to)
		delete(t.byCall, w.callID.ID)
		t.mu.Unlock()
		w.resolve(orphan.result, nil)
		return true
	}

	w.handle = to
	t.byHandle[to] = w
	t.mu.Unlock()

	return true
}

// resolve completes the waiter for handle with result. Without a waiter the
// close is parked and false is returned.
func (t *waiterTable) resolve(handle core.SurfaceHandle, result any) bool {
	t.mu.Lock()
	w, ok := t.byHandle[handle]
	if !ok {
		t.orphans[handle] = orphanClose{result: result, closedAt: t.now()}
		t.mu.Unlock()
		return false
	}
	delete(t.byHandle, handle)
	delete(t.byCall, w.callID.ID)
	t.mu.Unlock()

	return w.resolve(result, nil)
}

// cancel removes the waiter of callID and resolves it with a cancellation.
func (t *waiterTable) cancel(callID core.CallID) bool {
	t.mu.Lock()
	w, ok := t.byCall[callID.ID]
	if ok {
		delete(t.byCall, callID.ID)
		if cur, same := t.byHandle[w.handle]; same && cur == w {
			delete(t.byHandle, w.handle)
		}
	}
	t.mu.Unlock()

	if !ok {
		return false
	}
	return w.resolve(nil, core.NewCancelled(w.path))
}

// evictOrphans drops parked closes older than maxAge.
func (t *waiterTable) evictOrphans(maxAge time.Duration) int {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for h, o := range t.orphans {
		if now.Sub(o.closedAt) > maxAge {
			delete(t.orphans, h)
			n++
		}
	}

	return n
}

func (t *waiterTable) pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.byCall)
}

func (t *waiterTable) parked() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.orphans)
}
