package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/registry"
)

// Config defines tuning parameters for the Engine.
//
// Example:
//
//	cfg := engine.Config{
//	    MaxRedirectDepth: 3,
//	    DefaultCacheTTL:  time.Minute,
//	    SweepInterval:    time.Minute,
//	}
type Config struct {
	// MaxRedirectDepth bounds nested redirect / replace hops of one call chain.
	MaxRedirectDepth int

	// DefaultCacheTTL applies to caching routes whose CacheTTL is 0.
	DefaultCacheTTL time.Duration

	// SweepInterval is both the sweep period and the age after which an
	// active call is considered stale and cancelled.
	SweepInterval time.Duration
}

// DefaultConfig provides the default configuration values:
//   - MaxRedirectDepth: 5
//   - DefaultCacheTTL: 30s
//   - SweepInterval: 300s
var DefaultConfig = Config{
	MaxRedirectDepth: core.DefaultMaxRedirectDepth,
	DefaultCacheTTL:  core.DefaultCacheTTL,
	SweepInterval:    300 * time.Second,
}

// Options configures an Engine instance using the functional options pattern.
type Options struct {
	// Config contains operational parameters. Defaults to DefaultConfig.
	Config Config

	// Bridge presents content of presentational routes. Without a bridge
	// presentational calls fail with PresentationTargetNotSet.
	Bridge core.PresentationBridge

	// Logger provides structured logging. Defaults to NoOp logger if nil.
	Logger logging.Logger

	// Now is the clock used for cache and sweep ages. Defaults to time.Now.
	Now func() time.Time
}

// Engine resolves, intercepts and executes calls.
//
// Core Responsibilities:
//   - Route resolution against a case-insensitive Registry
//   - Interceptor chain with redirect / replace / reject and depth limiting
//   - Execution through the Coordinator (caching, dedup, coalescing,
//     presentational completion)
//   - Active call bookkeeping, cancellation and periodic sweeping
//
// Every public method is safe for concurrent use. Dispatch never panics and
// always returns exactly one Outcome.
type Engine struct {
	registry    *registry.Registry
	pipeline    *Pipeline
	coordinator *Coordinator
	sweeper     *Sweeper
	logger      logging.Logger
	config      Config

	closeOnce sync.Once
}

// New creates an Engine over reg.
//
// Examples:
//
//	eng := engine.New(reg)
//
//	eng := engine.New(reg, func(o *engine.Options) {
//	    o.Bridge = presentation.NewStackBridge()
//	    o.Logger = logger
//	})
func New(reg *registry.Registry, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
		Now:    time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Config.MaxRedirectDepth <= 0 {
		opts.Config.MaxRedirectDepth = DefaultConfig.MaxRedirectDepth
	}
	if opts.Config.DefaultCacheTTL <= 0 {
		opts.Config.DefaultCacheTTL = DefaultConfig.DefaultCacheTTL
	}
	if opts.Config.SweepInterval <= 0 {
		opts.Config.SweepInterval = DefaultConfig.SweepInterval
	}
	if reg == nil {
		reg = registry.New(func(o *registry.Options) { o.Logger = opts.Logger })
	}

	coordinator := NewCoordinator(opts.Config, component(opts.Logger, "coordinator"), opts.Now)

	e := &Engine{
		registry:    reg,
		pipeline:    NewPipeline(reg, component(opts.Logger, "pipeline"), coordinator.stats),
		coordinator: coordinator,
		logger:      component(opts.Logger, "engine"),
		config:      opts.Config,
	}

	e.sweeper = NewSweeper(opts.Config.SweepInterval, e.Sweep, component(opts.Logger, "sweeper"))

	if opts.Bridge != nil {
		coordinator.SetBridge(opts.Bridge)
	}

	return e
}

func component(l logging.Logger, name string) logging.Logger {
	if rl, ok := l.(*logging.RouterLogger); ok {
		return rl.WithComponent(name)
	}
	return l
}

// Registry returns the route registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Coordinator returns the call coordinator.
func (e *Engine) Coordinator() *Coordinator { return e.coordinator }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.config }

// SetBridge attaches or replaces the presentation bridge.
func (e *Engine) SetBridge(b core.PresentationBridge) { e.coordinator.SetBridge(b) }

// Dispatch resolves path and runs the call. intent, when given, forces the
// navigation intent of a presentational route; it is ignored for actions.
func (e *Engine) Dispatch(ctx context.Context, path string, params core.Params, intent ...core.NavigationIntent) core.Outcome {
	def, ok := e.registry.Lookup(path)
	if !ok {
		e.coordinator.stats.dispatched.Inc()
		e.coordinator.stats.failed.Inc()
		return core.Failed(e.notFound(path))
	}

	var override *core.NavigationIntent
	if len(intent) > 0 {
		override = &intent[0]
	}

	cc, err := newCallContext(def, params, override)
	if err != nil {
		e.coordinator.stats.dispatched.Inc()
		e.coordinator.stats.failed.Inc()
		e.logger.Warn("dispatch failed", "path", def.Path, "error", err)
		return core.Failed(err)
	}

	return e.DispatchContext(ctx, cc)
}

// newCallContext builds the call context, containing panics raised by the
// route's default parameter producer.
func newCallContext(def *core.RouteDefinition, params core.Params, override *core.NavigationIntent) (cc *core.CallContext, err error) {
	defer func() {
		if r := recover(); r != nil {
			cc, err = nil, core.NewHandlerFailed(def.Path, fmt.Errorf("default params: panic: %v", r))
		}
	}()

	return core.NewCallContext(def, params, override), nil
}

func (e *Engine) notFound(path string) error {
	err := core.NewRouteNotFound(path)
	if s := e.registry.Suggest(path, 3); len(s) > 0 {
		err.Detail = fmt.Sprintf("%s (did you mean %s?)", path, strings.Join(s, ", "))
	}
	return err
}

// DispatchContext runs a prepared call context: schema validation, the
// interceptor chain, then execution. It is also the entry point for
// redirect and replace hops.
func (e *Engine) DispatchContext(ctx context.Context, cc *core.CallContext) (out core.Outcome) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := core.DepthLimiterFrom(ctx); !ok {
		ctx = core.WithDepthLimiter(ctx, core.NewDepthLimiter(e.config.MaxRedirectDepth))
	}

	start := time.Now()
	stats := e.coordinator.stats
	stats.dispatched.Inc()

	ctx, untrack := e.coordinator.Track(ctx, cc)

	defer func() {
		if r := recover(); r != nil {
			out = core.Failed(core.NewHandlerFailed(cc.Path(), fmt.Errorf("panic: %v", r)))
		}
		untrack()

		if out.Success {
			stats.succeeded.Inc()
		} else {
			stats.failed.Inc()
		}
		e.logDispatch(cc, time.Since(start), out)
	}()

	e.logger.Debug("dispatch started", "call_id", cc.ID().ID, "path", cc.Path(), "intent", cc.Intent().String())

	if schema := cc.Route().Schema; schema != nil {
		if err := schema.Validate(cc.MergedParams()); err != nil {
			return core.Failed(err)
		}
	}

	if res := e.pipeline.Run(ctx, cc, e.DispatchContext); res != nil {
		return *res
	}

	v, err := e.coordinator.Execute(ctx, cc)
	if err != nil {
		return core.Failed(err)
	}

	return core.Succeeded(v)
}

func (e *Engine) logDispatch(cc *core.CallContext, dur time.Duration, out core.Outcome) {
	if rl, ok := e.logger.(*logging.RouterLogger); ok {
		rl.WithCall(cc.ID().ID, "").LogDispatch(cc.Path(), cc.Route().Kind().String(), dur, out.Success, out.Err)
		return
	}
	if out.Success {
		e.logger.Debug("dispatch completed", "call_id", cc.ID().ID, "path", cc.Path(), "duration", dur)
		return
	}
	e.logger.Warn("dispatch failed", "call_id", cc.ID().ID, "path", cc.Path(), "duration", dur, "error", out.Message)
}

// ActiveCalls returns the calls currently being dispatched, oldest first.
func (e *Engine) ActiveCalls() []*core.CallContext { return e.coordinator.ActiveCalls() }

// Cancel stops the call with id. It reports whether anything was cancelled.
func (e *Engine) Cancel(id core.CallID) bool { return e.coordinator.Cancel(id) }

// CancelAll stops every tracked call. Cached results are kept.
func (e *Engine) CancelAll() int { return e.coordinator.CancelAll() }

// Sweep runs one expiry sweep now.
func (e *Engine) Sweep() (cancelled, evicted int) {
	return e.coordinator.Sweep(e.config.SweepInterval)
}

// Stats returns counters and debug counts.
func (e *Engine) Stats() StatsSnapshot {
	s := e.coordinator.stats.snapshot()
	s.ActiveCalls, s.PendingPresentations, s.InFlightAsync, s.CachedResults = e.coordinator.Counts()
	return s
}

// Start runs the periodic sweeper until ctx is done or Close is called.
func (e *Engine) Start(ctx context.Context) { e.sweeper.Start(ctx) }

// Close stops the sweeper and cancels every tracked call.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.sweeper.Stop()
		if n := e.coordinator.CancelAll(); n > 0 {
			e.logger.Info("cancelled calls on close", "count", n)
		}
	})
	return nil
}

func sortByCreation(calls []*core.CallContext) {
	sort.SliceStable(calls, func(i, j int) bool {
		return calls[i].CreatedAt().Before(calls[j].CreatedAt())
	})
}
