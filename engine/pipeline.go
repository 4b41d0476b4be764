package engine

import (
	"context"
	"fmt"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/logging"
)

// InterceptorSource supplies the interceptor chain for each call.
type InterceptorSource interface {
	Interceptors() []core.Interceptor
}

// SubDispatcher dispatches a derived call (redirect target or replacement)
// through the full engine entry point.
type SubDispatcher func(ctx context.Context, cc *core.CallContext) core.Outcome

// Pipeline runs a call through the interceptor chain.
//
// Interceptors are executed sequentially in registration order:
//   - Continue moves on to the next interceptor
//   - Reject terminates the call with the interceptor's error
//   - Replace dispatches the target in place of the call and returns its outcome
//   - Redirect dispatches the target as a sub-call; on success the same
//     interceptor is asked again with the original path and params and must
//     now continue, otherwise the call fails as cancelled
//
// Redirect and replace hops count against the DepthLimiter carried by ctx.
type Pipeline struct {
	source InterceptorSource
	logger logging.Logger
	stats  *Stats
}

// NewPipeline creates a pipeline reading its chain from source.
func NewPipeline(source InterceptorSource, logger logging.Logger, stats *Stats) *Pipeline {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if stats == nil {
		stats = &Stats{}
	}
	return &Pipeline{source: source, logger: logger, stats: stats}
}

// Run executes the chain for cc. A nil result means every interceptor
// continued and the call may proceed to execution.
func (p *Pipeline) Run(ctx context.Context, cc *core.CallContext, dispatch SubDispatcher) *core.Outcome {
	for _, ic := range p.source.Interceptors() {
		if ctx.Err() != nil {
			return failure(core.NewCancelled(cc.Path()))
		}

		d := p.intercept(ctx, ic, cc)

		switch d.Kind() {
		case core.DecisionContinue:
			continue

		case core.DecisionReject:
			p.stats.rejected.Inc()
			p.logDecision(ic, cc, d)
			return failure(core.NewRejected(cc.Path(), d.Err()))

		case core.DecisionReplace:
			if d.Target() == nil {
				return failure(core.NewValidationFailed("interceptor %s: replace without target", ic.Name()))
			}
			p.stats.replaced.Inc()
			p.logDecision(ic, cc, d)

			out := p.hop(ctx, func() core.Outcome { return dispatch(ctx, cc.DeriveReplace(d.Target())) })
			return &out

		case core.DecisionRedirect:
			if d.Target() == nil {
				return failure(core.NewValidationFailed("interceptor %s: redirect without target", ic.Name()))
			}
			p.stats.redirects.Inc()
			p.logDecision(ic, cc, d)

			sub := p.hop(ctx, func() core.Outcome { return dispatch(ctx, cc.DeriveRedirect(d.Target())) })
			if !sub.Success {
				return &sub
			}

			// The redirect succeeded; the same interceptor must now let the
			// original call through.
			again := p.intercept(ctx, ic, cc)
			if again.Kind() != core.DecisionContinue {
				p.logDecision(ic, cc, again)
				return failure(&core.RouteError{
					Kind:   core.KindCancelled,
					Detail: cc.Path(),
					Err:    fmt.Errorf("interceptor %s did not continue after redirect to %s", ic.Name(), d.Target().Path),
				})
			}

		default:
			return failure(core.NewValidationFailed("interceptor %s: unknown decision %d", ic.Name(), int(d.Kind())))
		}
	}

	return nil
}

// hop runs fn one level deeper in the redirect chain.
func (p *Pipeline) hop(ctx context.Context, fn func() core.Outcome) core.Outcome {
	limiter, ok := core.DepthLimiterFrom(ctx)
	if !ok {
		return fn()
	}
	if err := limiter.Enter(); err != nil {
		return core.Failed(err)
	}
	defer limiter.Leave()

	return fn()
}

func (p *Pipeline) intercept(ctx context.Context, ic core.Interceptor, cc *core.CallContext) (d core.Decision) {
	defer func() {
		if r := recover(); r != nil {
			d = core.Reject(fmt.Errorf("interceptor %s panicked: %v", ic.Name(), r))
		}
	}()

	return ic.Intercept(ctx, cc.Path(), cc.Params())
}

func (p *Pipeline) logDecision(ic core.Interceptor, cc *core.CallContext, d core.Decision) {
	if rl, ok := p.logger.(*logging.RouterLogger); ok {
		rl.WithCall(cc.ID().ID, "").LogDecision(ic.Name(), cc.Path(), d.String())
		return
	}
	p.logger.Info("interceptor decision", "interceptor", ic.Name(), "path", cc.Path(), "call_id", cc.ID().ID, "decision", d.String())
}

func failure(err error) *core.Outcome {
	out := core.Failed(err)
	return &out
}
