package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/routemesh/core"
)

// Shown is one Show call recorded by RecordingBridge.
type Shown struct {
	Handle  core.SurfaceHandle
	Content core.Content
	Intent  core.NavigationIntent
}

// RecordingBridge is a core.PresentationBridge that runs UI work inline and
// records every shown surface. Surfaces stay open until Close is called.
type RecordingBridge struct {
	mu        sync.Mutex
	shown     []Shown
	observers []core.SurfaceObserver
	next      int

	// ShowErr, when set, makes Show fail.
	ShowErr error
	// OnShow, when set, runs after each Show with the new handle.
	OnShow func(handle core.SurfaceHandle)
}

// NewRecordingBridge creates an empty recording bridge.
func NewRecordingBridge() *RecordingBridge {
	return &RecordingBridge{}
}

// Show records content and returns a sequential handle.
func (b *RecordingBridge) Show(_ context.Context, content core.Content, intent core.NavigationIntent) (core.SurfaceHandle, error) {
	b.mu.Lock()
	if b.ShowErr != nil {
		err := b.ShowErr
		b.mu.Unlock()
		return "", err
	}
	b.next++
	h := core.SurfaceHandle(fmt.Sprintf("surface-%d", b.next))
	b.shown = append(b.shown, Shown{Handle: h, Content: content, Intent: intent})
	hook := b.OnShow
	b.mu.Unlock()

	if hook != nil {
		hook(h)
	}
	return h, nil
}

// RunOnUI runs fn inline.
func (b *RecordingBridge) RunOnUI(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

// AddObserver registers o.
func (b *RecordingBridge) AddObserver(o core.SurfaceObserver) {
	b.mu.Lock()
	b.observers = append(b.observers, o)
	b.mu.Unlock()
}

// RemoveObserver unregisters o.
func (b *RecordingBridge) RemoveObserver(o core.SurfaceObserver) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, cur := range b.observers {
		if cur == o {
			b.observers = append(b.observers[:i:i], b.observers[i+1:]...)
			return
		}
	}
}

// Close notifies observers that handle closed with result.
func (b *RecordingBridge) Close(handle core.SurfaceHandle, result any) {
	b.mu.Lock()
	obs := append([]core.SurfaceObserver(nil), b.observers...)
	b.mu.Unlock()

	for _, o := range obs {
		o.SurfaceClosed(handle, result)
	}
}

// Shown returns the recorded Show calls.
func (b *RecordingBridge) Shown() []Shown {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]Shown(nil), b.shown...)
}

// Last returns the most recent Show call.
func (b *RecordingBridge) Last() (Shown, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.shown) == 0 {
		return Shown{}, false
	}
	return b.shown[len(b.shown)-1], true
}

// Observers returns the number of registered observers.
func (b *RecordingBridge) Observers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.observers)
}

var _ core.PresentationBridge = (*RecordingBridge)(nil)
