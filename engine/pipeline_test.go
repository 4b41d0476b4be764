package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/internal/testutil"
)

func TestPipeline_OrderAndRawParams(t *testing.T) {
	eng := newTestEngine(t)
	register(t, eng, testutil.NewRouteBuilder("/items").Default("page", 1).Build())

	var (
		mu    sync.Mutex
		order []string
		seen  core.Params
	)
	for _, name := range []string{"first", "second", "third"} {
		name := name
		eng.Registry().AddInterceptor(core.NewFunctionInterceptor(name, func(_ context.Context, _ string, p core.Params) core.Decision {
			mu.Lock()
			order = append(order, name)
			seen = p
			mu.Unlock()
			return core.Continue()
		}))
	}

	out := eng.Dispatch(context.Background(), "/items", core.Params{"q": "x"})
	require.True(t, out.Success)

	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, core.Params{"q": "x"}, seen, "interceptors see caller params without defaults")
	assert.Equal(t, core.Params{"q": "x", "page": 1}, out.Data)
}

func TestPipeline_Reject(t *testing.T) {
	eng := newTestEngine(t)
	calls := atomic.NewInt64(0)
	register(t, eng, testutil.NewRouteBuilder("/admin").Sync(func(core.Params) (any, error) { return calls.Inc(), nil }).Build())

	denied := errors.New("not an admin")
	eng.Registry().AddInterceptor(core.NewFunctionInterceptor("acl", func(_ context.Context, path string, _ core.Params) core.Decision {
		if path == "/admin" {
			return core.Reject(denied)
		}
		return core.Continue()
	}))

	out := eng.Dispatch(context.Background(), "/admin", nil)
	require.False(t, out.Success)
	assert.Equal(t, core.KindRejected, out.Kind())
	assert.Equal(t, 403, out.Code())
	assert.ErrorIs(t, out.Err, denied)
	assert.Equal(t, int64(0), calls.Load())
	assert.Equal(t, int64(1), eng.Stats().Rejected)
}

func TestPipeline_InterceptorPanicRejects(t *testing.T) {
	eng := newTestEngine(t)
	register(t, eng, testutil.NewRouteBuilder("/x").Build())
	eng.Registry().AddInterceptor(core.NewFunctionInterceptor("broken", func(context.Context, string, core.Params) core.Decision {
		panic("nil map")
	}))

	out := eng.Dispatch(context.Background(), "/x", nil)
	assert.Equal(t, core.KindRejected, out.Kind())
	assert.Contains(t, out.Message, "broken")
}

func TestPipeline_ReplaceMatchesDirectCall(t *testing.T) {
	eng := newTestEngine(t)

	target := testutil.NewRouteBuilder("/v2/greet").Default("greeting", "hello").Build()
	register(t, eng, testutil.NewRouteBuilder("/v1/greet").Sync(func(core.Params) (any, error) {
		return "legacy", nil
	}).Build(), target)

	eng.Registry().AddInterceptor(core.NewFunctionInterceptor("migrate", func(_ context.Context, path string, _ core.Params) core.Decision {
		if path == "/v1/greet" {
			return core.Replace(target)
		}
		return core.Continue()
	}))

	params := core.Params{"name": "ada"}
	replaced := eng.Dispatch(context.Background(), "/v1/greet", params)
	direct := eng.Dispatch(context.Background(), "/v2/greet", params)

	require.True(t, replaced.Success)
	assert.Equal(t, direct, replaced)
	assert.Equal(t, core.Params{"name": "ada", "greeting": "hello"}, replaced.Data)
	assert.Equal(t, int64(1), eng.Stats().Replaced)
}

func TestPipeline_RedirectLoopExceedsDepth(t *testing.T) {
	eng := newTestEngine(t)

	loop := testutil.NewRouteBuilder("/loop").Build()
	register(t, eng, testutil.NewRouteBuilder("/start").Build(), loop)

	asked := atomic.NewInt64(0)
	eng.Registry().AddInterceptor(core.NewFunctionInterceptor("loop", func(context.Context, string, core.Params) core.Decision {
		asked.Inc()
		return core.Redirect(loop)
	}))

	limiter := core.NewDepthLimiter(core.DefaultMaxRedirectDepth)
	ctx := core.WithDepthLimiter(context.Background(), limiter)

	out := eng.Dispatch(ctx, "/start", nil)
	require.False(t, out.Success)
	assert.ErrorIs(t, out.Err, core.ErrRedirectDepthExceeded)
	assert.Equal(t, 508, out.Code())
	assert.Equal(t, int64(core.DefaultMaxRedirectDepth+1), asked.Load())
	assert.Equal(t, 0, limiter.Depth(), "depth counter must not leak")

	eng.Registry().RemoveInterceptor("loop")
	assert.True(t, eng.Dispatch(ctx, "/start", nil).Success)
}

func TestPipeline_RedirectDepthConfigurable(t *testing.T) {
	eng := newTestEngine(t, func(o *Options) { o.Config.MaxRedirectDepth = 2 })

	loop := testutil.NewRouteBuilder("/loop").Build()
	register(t, eng, loop)

	asked := atomic.NewInt64(0)
	eng.Registry().AddInterceptor(core.NewFunctionInterceptor("loop", func(context.Context, string, core.Params) core.Decision {
		asked.Inc()
		return core.Redirect(loop)
	}))

	out := eng.Dispatch(context.Background(), "/loop", nil)
	assert.Equal(t, core.KindRedirectDepthExceeded, out.Kind())
	assert.Equal(t, int64(3), asked.Load())
}

func TestPipeline_RedirectSubCallFailurePropagates(t *testing.T) {
	eng := newTestEngine(t)

	broken := testutil.NewRouteBuilder("/onboarding").Sync(func(core.Params) (any, error) {
		return nil, errors.New("onboarding unavailable")
	}).Build()
	register(t, eng, testutil.NewRouteBuilder("/home").Build(), broken)

	eng.Registry().AddInterceptor(engineGuard("onboard", []string{"/home"}, func() bool { return false }, broken))

	out := eng.Dispatch(context.Background(), "/home", nil)
	require.False(t, out.Success)
	assert.Equal(t, core.KindHandlerFailed, out.Kind())
	assert.Contains(t, out.Message, "onboarding unavailable")
}

func TestPipeline_RedirectRecordsOrigin(t *testing.T) {
	eng := newTestEngine(t)

	var (
		mu      sync.Mutex
		origins []core.CallID
	)
	target := testutil.NewRouteBuilder("/consent").Sync(func(core.Params) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		for _, cc := range eng.ActiveCalls() {
			origins = append(origins, cc.Origin())
		}
		return nil, nil
	}).Build()
	register(t, eng, testutil.NewRouteBuilder("/feed").Build(), target)

	granted := atomic.NewBool(false)
	eng.Registry().AddInterceptor(core.NewFunctionInterceptor("consent", func(_ context.Context, path string, _ core.Params) core.Decision {
		if path == "/feed" && !granted.Load() {
			granted.Store(true)
			return core.Redirect(target)
		}
		return core.Continue()
	}))

	require.True(t, eng.Dispatch(context.Background(), "/feed", nil).Success)

	require.Len(t, origins, 2)
	zero := 0
	for _, o := range origins {
		if o.IsZero() {
			zero++
		}
	}
	assert.Equal(t, 1, zero, "only the top-level call has no origin")
	assert.Equal(t, int64(1), eng.Stats().Redirects)
}

func TestPipeline_CancelledBeforeIntercept(t *testing.T) {
	eng := newTestEngine(t)
	register(t, eng, testutil.NewRouteBuilder("/x").Build())
	eng.Registry().AddInterceptor(NewLoggingInterceptor(nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	out := eng.Dispatch(ctx, "/x", nil)
	assert.Equal(t, core.KindCancelled, out.Kind())
}

func engineGuard(name string, paths []string, allowed func() bool, target *core.RouteDefinition) core.Interceptor {
	return NewGuardInterceptor(name, paths, allowed, target)
}
