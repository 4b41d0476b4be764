package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/atomic"

	"github.com/hupe1980/routemesh"
	"github.com/hupe1980/routemesh/config"
	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/engine"
	"github.com/hupe1980/routemesh/presentation"
)

// app is the demo router together with its presentation stack.
type app struct {
	cfg    config.Config
	router *routemesh.Router
	bridge *presentation.StackBridge
	auth   *session
}

var _ core.SurfaceObserver = (*session)(nil)

// session tracks the demo login state. It observes surface closes so that
// a login page closed with {"success": true} logs the user in.
type session struct {
	loggedIn atomic.Bool
	login    atomic.String
}

func (s *session) SurfaceClosed(handle core.SurfaceHandle, result any) {
	if string(handle) != s.login.Load() {
		return
	}
	if m, ok := result.(map[string]any); ok {
		if v, _ := m["success"].(bool); v {
			s.loggedIn.Store(true)
		}
	}
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := cfg.Logger(logOutput(cmd)).WithComponent("routerctl")

	bridge := presentation.NewStackBridge(func(o *presentation.BridgeOptions) { o.Logger = logger })
	auth := &session{}

	// Registered before the router so the login state is updated before
	// the waiting call resumes.
	bridge.AddObserver(auth)

	router := routemesh.New(func(o *routemesh.Options) {
		o.EngineConfig = cfg.Engine()
		o.Scheme = cfg.Router.Scheme
		o.Bridge = bridge
		o.Logger = logger
	})

	a := &app{cfg: cfg, router: router, bridge: bridge, auth: auth}
	if err := a.registerRoutes(); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// Close stops the router and the presentation stack.
func (a *app) Close() {
	_ = a.router.Close()
	a.bridge.Shutdown()
}

func (a *app) registerRoutes() error {
	login := core.MustRoute("/login", core.Presentational(a.loginPage),
		core.WithNavigationIntent(core.NavigationModal),
		core.WithTestParams(func() core.Params { return core.Params{"reason": "selftest"} }),
	)

	if err := a.router.RegisterRoutes(
		core.MustRoute("/calculate", core.SyncAction(calculate),
			core.WithDefaultParams(func() core.Params { return core.Params{"operation": "add"} }),
			core.WithTestParams(func() core.Params { return core.Params{"a": 6.0, "b": 7.0, "operation": "multiply"} }),
			core.WithParamSchema(core.ParamSchema{Required: []string{"a", "b"}}),
		),
		core.MustRoute("/home", core.Presentational(page("home"))),
		login,
		core.MustRoute("/profile", core.SyncAction(a.profile), core.WithSkipSelfTest()),
		core.MustRoute("/weather", core.AsyncAction(weather),
			core.WithCacheTTL(time.Minute),
			core.WithDefaultParams(func() core.Params { return core.Params{"city": "berlin"} }),
		),
	); err != nil {
		return err
	}

	a.router.AddInterceptor(engine.NewGuardInterceptor("auth", []string{"/profile"}, a.auth.loggedIn.Load, login))

	return nil
}

func (a *app) loginPage(_ context.Context, params core.Params) (core.Content, error) {
	reason, _ := params.String("reason")
	return map[string]any{"page": "login", "reason": reason}, nil
}

func (a *app) profile(core.Params) (any, error) {
	return map[string]any{"user": "demo", "loggedIn": a.auth.loggedIn.Load()}, nil
}

func page(name string) core.PresentFunc {
	return func(_ context.Context, params core.Params) (core.Content, error) {
		return map[string]any{"page": name, "params": params}, nil
	}
}

func number(params core.Params, key string) (float64, error) {
	switch v := params[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, core.NewValidationFailed("parameter %q: %q is not a number", key, v)
		}
		return f, nil
	default:
		return 0, core.NewValidationFailed("parameter %q: expected number, got %T", key, v)
	}
}

func calculate(params core.Params) (any, error) {
	a, err := number(params, "a")
	if err != nil {
		return nil, err
	}
	b, err := number(params, "b")
	if err != nil {
		return nil, err
	}

	op, _ := params.String("operation")

	var result float64
	switch op {
	case "add":
		result = a + b
	case "subtract":
		result = a - b
	case "multiply":
		result = a * b
	case "divide":
		if b == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		result = a / b
	default:
		return nil, core.NewValidationFailed("unknown operation %q", op)
	}

	return map[string]any{"result": result}, nil
}

func weather(ctx context.Context, params core.Params) (any, error) {
	city, _ := params.String("city")

	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return map[string]any{"city": city, "forecast": "sunny", "celsius": 21}, nil
}

// dismissWhenShown closes the top surface with result once one is
// presented, after delay. It gives up when ctx is done.
func (a *app) dismissWhenShown(ctx context.Context, delay time.Duration, result any) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		top, err := a.bridge.Top(ctx)
		if err != nil || top == nil {
			continue
		}

		if top.Intent == core.NavigationModal {
			if m, ok := top.Content.(map[string]any); ok && m["page"] == "login" {
				a.auth.login.Store(string(top.Handle))
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		if _, err := a.bridge.Close(ctx, top.Handle, result); err == nil {
			return
		}
	}
}
