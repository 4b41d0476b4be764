// Package presentation provides a reference PresentationBridge: an
// in-memory surface stack whose every mutation runs on one dedicated UI
// goroutine, plus the observer multicast used to report closed surfaces.
//
// It stands in for a real widget toolkit in tests, the CLI and examples.
package presentation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/logging"
)

// ErrBridgeClosed is returned when work is submitted after Shutdown.
var ErrBridgeClosed = errors.New("presentation bridge closed")

// ErrNoSurface is returned by Pop and Dismiss on an empty stack.
var ErrNoSurface = errors.New("no surface presented")

type closedSurface struct {
	handle core.SurfaceHandle
	result any
}

// StackBridge implements core.PresentationBridge over a Stack.
type StackBridge struct {
	stack     *Stack
	observers *Multicast
	logger    logging.Logger
	now       func() time.Time

	tasks chan func()
	quit  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// BridgeOptions configures a StackBridge.
type BridgeOptions struct {
	Logger logging.Logger
	Now    func() time.Time
}

// NewStackBridge creates a bridge and starts its UI goroutine. Call Shutdown to
// stop it.
func NewStackBridge(optFns ...func(o *BridgeOptions)) *StackBridge {
	opts := BridgeOptions{Logger: logging.NoOpLogger{}, Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	b := &StackBridge{
		stack:     NewStack(),
		observers: NewMulticast(),
		logger:    opts.Logger,
		now:       opts.Now,
		tasks:     make(chan func()),
		quit:      make(chan struct{}),
	}

	b.wg.Add(1)
	go b.loop()

	return b
}

func (b *StackBridge) loop() {
	defer b.wg.Done()
	for {
		select {
		case task := <-b.tasks:
			task()
		case <-b.quit:
			return
		}
	}
}

// RunOnUI runs fn on the UI goroutine and waits for it. fn must not call
// back into the bridge synchronously.
func (b *StackBridge) RunOnUI(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- core.NewHandlerFailed("", fmt.Errorf("panic on ui goroutine: %v", r))
			}
		}()
		errCh <- fn()
	}

	select {
	case b.tasks <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-b.quit:
		return ErrBridgeClosed
	}

	// The loop always finishes an accepted task.
	return <-errCh
}

// mutate runs fn on the UI goroutine and then notifies observers about the
// surfaces fn closed, outside the UI goroutine.
func (b *StackBridge) mutate(ctx context.Context, fn func(s *Stack) ([]closedSurface, error)) error {
	var closed []closedSurface
	err := b.RunOnUI(ctx, func() error {
		var err error
		closed, err = fn(b.stack)
		return err
	})

	for _, c := range closed {
		b.logger.Debug("surface closed", "handle", string(c.handle))
		b.observers.Notify(c.handle, c.result)
	}

	return err
}

// Show presents content under intent:
//   - Push and Modal add a surface on top
//   - ReplaceCurrent closes the top surface with a nil result, then adds
//   - ReplaceAll closes every surface with a nil result, then adds
func (b *StackBridge) Show(ctx context.Context, content core.Content, intent core.NavigationIntent) (core.SurfaceHandle, error) {
	handle := core.SurfaceHandle("surface-" + uuid.NewString())

	err := b.mutate(ctx, func(s *Stack) ([]closedSurface, error) {
		var closed []closedSurface

		switch intent {
		case core.NavigationReplaceCurrent:
			if top := s.Pop(); top != nil {
				closed = append(closed, closedSurface{handle: top.Handle})
			}
		case core.NavigationReplaceAll:
			for _, sf := range s.Drain() {
				closed = append(closed, closedSurface{handle: sf.Handle})
			}
		}

		s.Push(Surface{Handle: handle, Content: content, Intent: intent, ShownAt: b.now()})

		return closed, nil
	})
	if err != nil {
		return "", err
	}

	b.logger.Debug("surface shown", "handle", string(handle), "intent", intent.String())

	return handle, nil
}

// Pop closes the top surface with result.
func (b *StackBridge) Pop(ctx context.Context, result any) (core.SurfaceHandle, error) {
	var handle core.SurfaceHandle
	err := b.mutate(ctx, func(s *Stack) ([]closedSurface, error) {
		top := s.Pop()
		if top == nil {
			return nil, ErrNoSurface
		}
		handle = top.Handle
		return []closedSurface{{handle: top.Handle, result: result}}, nil
	})
	return handle, err
}

// Dismiss closes the topmost modal surface with result, or the top surface
// when no modal is presented.
func (b *StackBridge) Dismiss(ctx context.Context, result any) (core.SurfaceHandle, error) {
	var handle core.SurfaceHandle
	err := b.mutate(ctx, func(s *Stack) ([]closedSurface, error) {
		target, ok := s.TopModal()
		if !ok {
			top := s.Peek()
			if top == nil {
				return nil, ErrNoSurface
			}
			target = top.Handle
		}
		s.Remove(target)
		handle = target
		return []closedSurface{{handle: target, result: result}}, nil
	})
	return handle, err
}

// Close closes the surface with handle and reports whether it was presented.
func (b *StackBridge) Close(ctx context.Context, handle core.SurfaceHandle, result any) (bool, error) {
	found := false
	err := b.mutate(ctx, func(s *Stack) ([]closedSurface, error) {
		if s.Remove(handle) == nil {
			return nil, nil
		}
		found = true
		return []closedSurface{{handle: handle, result: result}}, nil
	})
	return found, err
}

// Surfaces returns the presented surfaces, bottom first.
func (b *StackBridge) Surfaces(ctx context.Context) ([]Surface, error) {
	var out []Surface
	err := b.RunOnUI(ctx, func() error {
		out = b.stack.Snapshot()
		return nil
	})
	return out, err
}

// Top returns the top surface, or nil when nothing is presented.
func (b *StackBridge) Top(ctx context.Context) (*Surface, error) {
	var top *Surface
	err := b.RunOnUI(ctx, func() error {
		top = b.stack.Peek()
		return nil
	})
	return top, err
}

// AddObserver registers o for surface-closed notifications.
func (b *StackBridge) AddObserver(o core.SurfaceObserver) { b.observers.Add(o) }

// RemoveObserver unregisters o.
func (b *StackBridge) RemoveObserver(o core.SurfaceObserver) { b.observers.Remove(o) }

// Shutdown stops the UI goroutine. Pending RunOnUI calls fail with
// ErrBridgeClosed. Presented surfaces are not closed.
func (b *StackBridge) Shutdown() {
	b.once.Do(func() {
		close(b.quit)
		b.wg.Wait()
	})
}
