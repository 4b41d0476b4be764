package core

import "context"

// SurfaceHandle is an opaque identifier for a presented surface.
type SurfaceHandle string

// SurfaceObserver is notified when a presented surface closes. result is the
// value the surface closed with, or nil.
type SurfaceObserver interface {
	SurfaceClosed(handle SurfaceHandle, result any)
}

// SurfaceObserverFunc adapts a function to SurfaceObserver. Function values
// are not comparable, so wrap it in a pointer before removing it again.
type SurfaceObserverFunc func(handle SurfaceHandle, result any)

// SurfaceClosed calls f.
func (f SurfaceObserverFunc) SurfaceClosed(handle SurfaceHandle, result any) { f(handle, result) }

// PresentationBridge is the interface the coordinator needs from the UI
// layer.
type PresentationBridge interface {
	// Show displays content under intent and returns the handle of the new
	// surface. Show is called outside RunOnUI and switches to the UI context
	// itself.
	Show(ctx context.Context, content Content, intent NavigationIntent) (SurfaceHandle, error)

	// RunOnUI runs fn on the single UI-affinity context and returns its error.
	RunOnUI(ctx context.Context, fn func() error) error

	// AddObserver registers o for surface-closed notifications.
	AddObserver(o SurfaceObserver)

	// RemoveObserver unregisters o. It is safe to call during notification.
	RemoveObserver(o SurfaceObserver)
}
