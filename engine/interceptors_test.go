package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/internal/testutil"
)

var (
	_ core.Interceptor = (*LoggingInterceptor)(nil)
	_ core.Interceptor = (*RequireParamsInterceptor)(nil)
	_ core.Interceptor = (*GuardInterceptor)(nil)
)

func TestRequireParamsInterceptor(t *testing.T) {
	ic := NewRequireParamsInterceptor("/Checkout", "cart", "user")
	assert.Equal(t, "require-params:/checkout", ic.Name())

	ctx := context.Background()
	assert.Equal(t, core.DecisionContinue, ic.Intercept(ctx, "/other", nil).Kind())
	assert.Equal(t, core.DecisionContinue, ic.Intercept(ctx, "/checkout", core.Params{"cart": 1, "user": "u"}).Kind())

	d := ic.Intercept(ctx, "/CHECKOUT", core.Params{"cart": 1})
	require.Equal(t, core.DecisionReject, d.Kind())
	assert.ErrorIs(t, d.Err(), core.ErrMissingRequiredParameter)
	assert.Contains(t, d.Err().Error(), "user")
}

func TestGuardInterceptor_Protects(t *testing.T) {
	login := testutil.NewRouteBuilder("/login").Content("login").Build()
	g := NewGuardInterceptor("auth", []string{"/profile", "/settings/*"}, func() bool { return false }, login)

	ctx := context.Background()
	assert.Equal(t, core.DecisionRedirect, g.Intercept(ctx, "/Profile", nil).Kind())
	assert.Equal(t, core.DecisionRedirect, g.Intercept(ctx, "/settings/privacy", nil).Kind())
	assert.Equal(t, core.DecisionContinue, g.Intercept(ctx, "/home", nil).Kind())
	assert.Equal(t, core.DecisionContinue, g.Intercept(ctx, "/login", nil).Kind())
	assert.Same(t, login, g.Intercept(ctx, "/profile", nil).Target())
}

func TestGuardInterceptor_LoginFlow(t *testing.T) {
	loggedIn := atomic.NewBool(false)

	bridge := testutil.NewRecordingBridge()
	// The login surface closes as soon as it is shown, before the
	// coordinator associates the handle.
	bridge.OnShow = func(h core.SurfaceHandle) {
		loggedIn.Store(true)
		bridge.Close(h, map[string]any{"success": true})
	}

	eng := newTestEngine(t, func(o *Options) { o.Bridge = bridge })

	login := testutil.NewRouteBuilder("/login").Content("login-form").Intent(core.NavigationModal).Build()
	register(t, eng, login, testutil.NewRouteBuilder("/profile").Sync(func(core.Params) (any, error) {
		return "profile-data", nil
	}).Build())
	eng.Registry().AddInterceptor(NewGuardInterceptor("auth", []string{"/profile"}, loggedIn.Load, login))

	out := eng.Dispatch(context.Background(), "/profile", nil)
	require.True(t, out.Success, out.Message)
	assert.Equal(t, "profile-data", out.Data)

	shown := bridge.Shown()
	require.Len(t, shown, 1)
	assert.Equal(t, core.NavigationModal, shown[0].Intent)
	assert.Equal(t, 0, eng.Stats().PendingPresentations)

	// Already logged in: no redirect.
	out = eng.Dispatch(context.Background(), "/profile", nil)
	require.True(t, out.Success)
	assert.Len(t, bridge.Shown(), 1)
}

func TestGuardInterceptor_AbortedLoginCancels(t *testing.T) {
	bridge := testutil.NewRecordingBridge()
	eng := newTestEngine(t, func(o *Options) { o.Bridge = bridge })

	login := testutil.NewRouteBuilder("/login").Content("login-form").Build()
	calls := atomic.NewInt64(0)
	register(t, eng, login, testutil.NewRouteBuilder("/profile").Sync(func(core.Params) (any, error) {
		return calls.Inc(), nil
	}).Build())
	eng.Registry().AddInterceptor(NewGuardInterceptor("auth", []string{"/profile"}, func() bool { return false }, login))

	pending := dispatchAsync(eng, context.Background(), "/profile", nil)

	var shown testutil.Shown
	require.Eventually(t, func() bool {
		var ok bool
		shown, ok = bridge.Last()
		return ok
	}, time.Second, 5*time.Millisecond)

	// The user closes the login page without logging in.
	bridge.Close(shown.Handle, nil)

	out := await(t, pending)
	require.False(t, out.Success)
	assert.Equal(t, core.KindCancelled, out.Kind())
	assert.Contains(t, out.Message, "auth")
	assert.Equal(t, int64(0), calls.Load())
}

func TestLoggingInterceptor(t *testing.T) {
	ic := NewLoggingInterceptor(nil)
	assert.Equal(t, "logging", ic.Name())
	assert.Equal(t, core.DecisionContinue, ic.Intercept(context.Background(), "/x", nil).Kind())
}
