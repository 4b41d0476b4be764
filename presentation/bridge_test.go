package presentation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/routemesh/core"
)

type closeLog struct {
	mu      sync.Mutex
	handles []core.SurfaceHandle
	results []any
}

func (c *closeLog) SurfaceClosed(h core.SurfaceHandle, result any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handles = append(c.handles, h)
	c.results = append(c.results, result)
}

func newBridge(t *testing.T) (*StackBridge, *closeLog) {
	t.Helper()
	b := NewStackBridge()
	t.Cleanup(b.Shutdown)
	log := &closeLog{}
	b.AddObserver(log)
	return b, log
}

func TestStackBridge_ShowAndPop(t *testing.T) {
	ctx := context.Background()
	b, log := newBridge(t)

	h1, err := b.Show(ctx, "home", core.NavigationPush)
	require.NoError(t, err)
	h2, err := b.Show(ctx, "detail", core.NavigationPush)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	top, err := b.Top(ctx)
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, "detail", top.Content)

	popped, err := b.Pop(ctx, "done")
	require.NoError(t, err)
	assert.Equal(t, h2, popped)
	assert.Equal(t, []core.SurfaceHandle{h2}, log.handles)
	assert.Equal(t, []any{"done"}, log.results)
}

func TestStackBridge_ReplaceCurrentClosesTop(t *testing.T) {
	ctx := context.Background()
	b, log := newBridge(t)

	h1, _ := b.Show(ctx, "a", core.NavigationPush)
	h2, _ := b.Show(ctx, "b", core.NavigationPush)
	h3, err := b.Show(ctx, "c", core.NavigationReplaceCurrent)
	require.NoError(t, err)

	assert.Equal(t, []core.SurfaceHandle{h2}, log.handles)
	assert.Equal(t, []any{nil}, log.results)

	surfaces, err := b.Surfaces(ctx)
	require.NoError(t, err)
	require.Len(t, surfaces, 2)
	assert.Equal(t, h1, surfaces[0].Handle)
	assert.Equal(t, h3, surfaces[1].Handle)
}

func TestStackBridge_ReplaceAllClosesEverything(t *testing.T) {
	ctx := context.Background()
	b, log := newBridge(t)

	h1, _ := b.Show(ctx, "a", core.NavigationPush)
	h2, _ := b.Show(ctx, "b", core.NavigationModal)
	_, err := b.Show(ctx, "root", core.NavigationReplaceAll)
	require.NoError(t, err)

	assert.Equal(t, []core.SurfaceHandle{h2, h1}, log.handles)

	surfaces, _ := b.Surfaces(ctx)
	assert.Len(t, surfaces, 1)
}

func TestStackBridge_DismissPrefersModal(t *testing.T) {
	ctx := context.Background()
	b, log := newBridge(t)

	_, _ = b.Show(ctx, "a", core.NavigationPush)
	modal, _ := b.Show(ctx, "login", core.NavigationModal)
	_, _ = b.Show(ctx, "c", core.NavigationPush)

	h, err := b.Dismiss(ctx, map[string]any{"success": true})
	require.NoError(t, err)
	assert.Equal(t, modal, h)
	assert.Equal(t, []any{map[string]any{"success": true}}, log.results)
}

func TestStackBridge_EmptyStack(t *testing.T) {
	ctx := context.Background()
	b, _ := newBridge(t)

	_, err := b.Pop(ctx, nil)
	assert.ErrorIs(t, err, ErrNoSurface)
	_, err = b.Dismiss(ctx, nil)
	assert.ErrorIs(t, err, ErrNoSurface)

	found, err := b.Close(ctx, "missing", nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStackBridge_CloseByHandle(t *testing.T) {
	ctx := context.Background()
	b, log := newBridge(t)

	h, _ := b.Show(ctx, "a", core.NavigationPush)
	found, err := b.Close(ctx, h, 42)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []any{42}, log.results)
}

func TestStackBridge_RunOnUISerializes(t *testing.T) {
	b, _ := newBridge(t)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.RunOnUI(context.Background(), func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestStackBridge_RunOnUIErrorsAndPanics(t *testing.T) {
	b, _ := newBridge(t)
	boom := errors.New("boom")

	err := b.RunOnUI(context.Background(), func() error { return boom })
	assert.ErrorIs(t, err, boom)

	err = b.RunOnUI(context.Background(), func() error { panic("ui") })
	assert.Equal(t, core.KindHandlerFailed, core.KindOf(err))
}

func TestStackBridge_Shutdown(t *testing.T) {
	b := NewStackBridge()
	b.Shutdown()
	b.Shutdown()

	err := b.RunOnUI(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrBridgeClosed)
}

func TestStackBridge_CancelledContext(t *testing.T) {
	b, _ := newBridge(t)

	block := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = b.RunOnUI(context.Background(), func() error {
			close(started)
			<-block
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.RunOnUI(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)

	close(block)
}

var _ core.PresentationBridge = (*StackBridge)(nil)

func TestStackBridge_ShutdownWaitsForAcceptedTask(t *testing.T) {
	b := NewStackBridge()

	errDone := errors.New("done")
	entered := make(chan struct{})
	release := make(chan struct{})
	value := 0

	result := make(chan error, 1)
	go func() {
		result <- b.RunOnUI(context.Background(), func() error {
			close(entered)
			<-release
			value = 42
			return errDone
		})
	}()
	<-entered

	go b.Shutdown()

	// Once the bridge is closing, new work is refused while the accepted
	// task is still running.
	require.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		defer cancel()
		return errors.Is(b.RunOnUI(ctx, func() error { return nil }), ErrBridgeClosed)
	}, time.Second, time.Millisecond)

	close(release)

	assert.ErrorIs(t, <-result, errDone)
	assert.Equal(t, 42, value)
}
