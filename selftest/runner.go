package selftest

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/logging"
)

// DefaultSettleDelay is how long a presented surface stays up before the
// runner dismisses it.
const DefaultSettleDelay = 500 * time.Millisecond

// Dismisser closes the topmost presented surface.
type Dismisser interface {
	Dismiss(ctx context.Context, result any) (core.SurfaceHandle, error)
}

// Options holds configuration overrides passed to New().
type Options struct {
	// SettleDelay is the pause between showing and dismissing a surface.
	SettleDelay time.Duration
	// Dismisser closes presented surfaces. Without it presentational routes
	// only pass when something else closes their surface in time.
	Dismisser Dismisser
	// Filter, when set, selects the routes to test.
	Filter func(def *core.RouteDefinition) bool
	// Logger provides structured logging.
	Logger logging.Logger
}

// Runner dispatches routes one after another and collects results. Routes
// are tested sequentially so that surfaces never overlap.
type Runner struct {
	routes     core.RouteLister
	dispatcher core.Dispatcher

	settleDelay time.Duration
	dismisser   Dismisser
	filter      func(def *core.RouteDefinition) bool
	logger      logging.Logger
}

// New constructs a Runner with optional overrides.
func New(routes core.RouteLister, dispatcher core.Dispatcher, optFns ...func(o *Options)) *Runner {
	opts := Options{
		SettleDelay: DefaultSettleDelay,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}

	return &Runner{
		routes:      routes,
		dispatcher:  dispatcher,
		settleDelay: opts.SettleDelay,
		dismisser:   opts.Dismisser,
		filter:      opts.Filter,
		logger:      opts.Logger,
	}
}

// Run tests every selected route that is not marked SkipSelfTest. It stops
// early when ctx is done and returns the results gathered so far.
func (r *Runner) Run(ctx context.Context) []Result {
	all := r.routes.Routes()

	var (
		testable []*core.RouteDefinition
		skipped  int
	)
	for _, def := range all {
		if r.filter != nil && !r.filter(def) {
			continue
		}
		if def.SkipSelfTest {
			skipped++
			r.logger.Debug("route skipped", "path", def.Path)
			continue
		}
		testable = append(testable, def)
	}

	r.logger.Info("self-test started", "routes", len(all), "testable", len(testable), "skipped", skipped)

	results := make([]Result, 0, len(testable))
	for _, def := range testable {
		if ctx.Err() != nil {
			break
		}
		results = append(results, r.RunRoute(ctx, def))
	}

	s := Summarize(results)
	r.logger.Info("self-test finished", "total", s.Total, "passed", s.Passed, "failed", s.Failed, "duration", s.TotalDuration)

	return results
}

// RunRoute tests a single route.
func (r *Runner) RunRoute(ctx context.Context, def *core.RouteDefinition) Result {
	timeout := def.TestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout(def.Kind())
	}

	res := Result{
		Path:        def.Path,
		Kind:        def.Kind(),
		ParamSource: def.ParamSource(),
		Timeout:     timeout,
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan core.Outcome, 1)
	go func() {
		done <- r.dispatcher.Dispatch(tctx, def.Path, def.SelfTestParams())
	}()

	if def.IsPresentational() && r.dismisser != nil {
		r.settleAndDismiss(tctx, def, done)
	}

	var out core.Outcome
	select {
	case out = <-done:
	case <-tctx.Done():
		out = core.Failed(core.NewCancelled(def.Path))
	}
	res.Duration = time.Since(start)

	switch {
	case out.Success:
		res.Success = true
		res.Data = out.Data
	case ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded):
		res.Err = core.NewTimeout(timeout)
		res.TimedOut = true
		res.Message = res.Err.Error()
	default:
		res.Err = out.Err
		res.Message = out.Message
	}

	r.log(res)

	return res
}

// settleAndDismiss waits for the settle delay and then dismisses the shown
// surface, unless the call already completed. A completed outcome is put
// back for the caller.
func (r *Runner) settleAndDismiss(ctx context.Context, def *core.RouteDefinition, done chan core.Outcome) {
	timer := time.NewTimer(r.settleDelay)
	defer timer.Stop()

	select {
	case out := <-done:
		done <- out
		return
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if _, err := r.dismisser.Dismiss(ctx, nil); err != nil {
		r.logger.Warn("dismiss failed", "path", def.Path, "error", err)
	}
}

func (r *Runner) log(res Result) {
	if res.Success {
		r.logger.Info("route passed", "path", res.Path, "kind", res.Kind.String(), "source", res.ParamSource.String(), "duration", res.Duration)
		return
	}
	r.logger.Warn("route failed", "path", res.Path, "kind", res.Kind.String(), "source", res.ParamSource.String(), "duration", res.Duration, "error", res.Message)
}

func defaultTimeout(kind core.HandlerKind) time.Duration {
	switch kind {
	case core.HandlerSync:
		return core.DefaultSyncTestTimeout
	case core.HandlerAsync:
		return core.DefaultAsyncTestTimeout
	default:
		return core.DefaultPresentationalTestTimeout
	}
}
