// Package routemesh provides a high-level façade over the routing Engine:
// an in-process call router that resolves string paths to registered
// operations, runs them through an interceptor chain and reports exactly one
// Outcome per call. Most applications interact with this package by:
//  1. Creating a Router via New() (optionally attaching a PresentationBridge)
//  2. Registering routes (presentational, synchronous or asynchronous)
//  3. Calling them by path (Navigate, Push, Present, Off, OffAll) or by
//     external scheme URL (HandleScheme)
//
// The façade delegates orchestration to engine.Engine while keeping setup and
// usage ergonomics concise.
package routemesh

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/engine"
	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/registry"
	"github.com/hupe1980/routemesh/scheme"
)

// DefaultScheme is the URL scheme accepted by HandleScheme unless overridden.
const DefaultScheme = "routemesh"

// Options configures the Router instance.
type Options struct {
	// EngineConfig tunes redirect depth, cache TTL and sweeping.
	EngineConfig engine.Config

	// Scheme is the URL scheme accepted by HandleScheme.
	Scheme string

	// Bridge presents content of presentational routes. It can also be
	// attached later with SetBridge.
	Bridge core.PresentationBridge

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Now is the clock used for cache and sweep ages.
	Now func() time.Time
}

// Router is the high-level façade aggregating the registry and the engine.
// Every method is safe for concurrent use.
type Router struct {
	opts   Options
	engine *engine.Engine
	links  *scheme.Parser
}

// New creates a new Router with optional overrides.
func New(optFns ...func(o *Options)) *Router {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		Scheme:       DefaultScheme,
		Logger:       logging.NoOpLogger{},
		Now:          time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	reg := registry.New(func(o *registry.Options) { o.Logger = opts.Logger })

	eng := engine.New(reg, func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Bridge = opts.Bridge
		o.Logger = opts.Logger
		o.Now = opts.Now
	})

	return &Router{opts: opts, engine: eng, links: scheme.NewParser(opts.Scheme)}
}

// Engine returns the underlying engine.
func (r *Router) Engine() *engine.Engine { return r.engine }

// Registry returns the route registry.
func (r *Router) Registry() *registry.Registry { return r.engine.Registry() }

// Routes lists the registered routes ordered by path.
func (r *Router) Routes() []*core.RouteDefinition { return r.engine.Registry().Routes() }

// Scheme returns the URL scheme accepted by HandleScheme.
func (r *Router) Scheme() string { return r.links.Scheme() }

// SetBridge attaches or replaces the presentation bridge.
func (r *Router) SetBridge(b core.PresentationBridge) { r.engine.SetBridge(b) }

// Register builds a route from handler and options and registers it,
// replacing any route with the same case-insensitive path.
func (r *Router) Register(path string, handler core.Handler, optFns ...func(d *core.RouteDefinition)) error {
	def, err := core.NewRoute(path, handler, optFns...)
	if err != nil {
		return err
	}
	return r.engine.Registry().Register(def)
}

// RegisterRoutes registers prepared definitions.
func (r *Router) RegisterRoutes(defs ...*core.RouteDefinition) error {
	return r.engine.Registry().RegisterMany(defs...)
}

// RemoveRoute unregisters path and reports whether it was registered.
func (r *Router) RemoveRoute(path string) bool { return r.engine.Registry().Remove(path) }

// ContainsRoute reports whether path is registered.
func (r *Router) ContainsRoute(path string) bool { return r.engine.Registry().Contains(path) }

// AddInterceptor appends i to the interceptor chain.
func (r *Router) AddInterceptor(i core.Interceptor) { r.engine.Registry().AddInterceptor(i) }

// AddInterceptorFunc appends a function interceptor named name.
func (r *Router) AddInterceptorFunc(name string, fn core.InterceptFunc) {
	r.AddInterceptor(core.NewFunctionInterceptor(name, fn))
}

// RemoveInterceptor removes the interceptor named name.
func (r *Router) RemoveInterceptor(name string) bool {
	return r.engine.Registry().RemoveInterceptor(name)
}

// Dispatch runs path with params. intent, when given, forces the navigation
// intent of a presentational route.
func (r *Router) Dispatch(ctx context.Context, path string, params core.Params, intent ...core.NavigationIntent) core.Outcome {
	return r.engine.Dispatch(ctx, path, params, intent...)
}

// Navigate runs path with the route's own navigation intent.
func (r *Router) Navigate(ctx context.Context, path string, params core.Params) core.Outcome {
	return r.engine.Dispatch(ctx, path, params)
}

// Push presents path on top of the current surface.
func (r *Router) Push(ctx context.Context, path string, params core.Params) core.Outcome {
	return r.engine.Dispatch(ctx, path, params, core.NavigationPush)
}

// Present presents path modally.
func (r *Router) Present(ctx context.Context, path string, params core.Params) core.Outcome {
	return r.engine.Dispatch(ctx, path, params, core.NavigationModal)
}

// Off presents path in place of the current surface.
func (r *Router) Off(ctx context.Context, path string, params core.Params) core.Outcome {
	return r.engine.Dispatch(ctx, path, params, core.NavigationReplaceCurrent)
}

// OffAll presents path as the only surface.
func (r *Router) OffAll(ctx context.Context, path string, params core.Params) core.Outcome {
	return r.engine.Dispatch(ctx, path, params, core.NavigationReplaceAll)
}

// HandleScheme runs an external link such as "myapp://user/profile?id=1".
// Links of another scheme fail with InvalidURL.
func (r *Router) HandleScheme(ctx context.Context, raw string) core.Outcome {
	link, err := r.links.Parse(raw)
	if err != nil {
		r.opts.Logger.Warn("scheme link rejected", "url", raw, "error", err)
		return core.Failed(err)
	}
	return r.engine.Dispatch(ctx, link.Path, link.Params)
}

// Cancel stops the call with id.
func (r *Router) Cancel(id core.CallID) bool { return r.engine.Cancel(id) }

// CancelAll stops every running call and returns how many were stopped.
func (r *Router) CancelAll() int { return r.engine.CancelAll() }

// ActiveCalls returns the running calls, oldest first.
func (r *Router) ActiveCalls() []*core.CallContext { return r.engine.ActiveCalls() }

// Stats returns engine counters.
func (r *Router) Stats() engine.StatsSnapshot { return r.engine.Stats() }

// Start runs the periodic expiry sweep until ctx is done or Close is called.
func (r *Router) Start(ctx context.Context) { r.engine.Start(ctx) }

// Close stops the sweep and cancels running calls.
func (r *Router) Close() error { return r.engine.Close() }

var (
	_ core.Dispatcher  = (*Router)(nil)
	_ core.RouteLister = (*Router)(nil)
)

var (
	defaultMu     sync.Mutex
	defaultRouter *Router
)

// Default returns the process-wide Router, creating it with default options
// on first use.
func Default() *Router {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultRouter == nil {
		defaultRouter = New()
	}
	return defaultRouter
}

// SetDefault replaces the process-wide Router and returns the previous one,
// which may be nil. The previous router is not closed.
func SetDefault(r *Router) *Router {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	prev := defaultRouter
	defaultRouter = r
	return prev
}
