package core

import "context"

// DecisionKind tags an interceptor decision.
type DecisionKind int

const (
	// DecisionContinue lets the call proceed to the next interceptor.
	DecisionContinue DecisionKind = iota
	// DecisionRedirect dispatches a sub-call first, then asks the same
	// interceptor again.
	DecisionRedirect
	// DecisionReplace abandons the call and dispatches the target instead.
	DecisionReplace
	// DecisionReject fails the call.
	DecisionReject
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionContinue:
		return "continue"
	case DecisionRedirect:
		return "redirect"
	case DecisionReplace:
		return "replace"
	case DecisionReject:
		return "reject"
	default:
		return "unknown"
	}
}

// Decision is the tagged result of an interceptor. The zero value is
// Continue.
type Decision struct {
	kind   DecisionKind
	target *RouteDefinition
	err    error
}

// Continue lets the call proceed.
func Continue() Decision { return Decision{kind: DecisionContinue} }

// Redirect asks the pipeline to dispatch target as a sub-call and re-check.
func Redirect(target *RouteDefinition) Decision {
	return Decision{kind: DecisionRedirect, target: target}
}

// Replace asks the pipeline to dispatch target in place of the current call.
func Replace(target *RouteDefinition) Decision {
	return Decision{kind: DecisionReplace, target: target}
}

// Reject fails the call with err.
func Reject(err error) Decision {
	return Decision{kind: DecisionReject, err: err}
}

// Kind returns the decision tag.
func (d Decision) Kind() DecisionKind { return d.kind }

// Target returns the redirect / replace target.
func (d Decision) Target() *RouteDefinition { return d.target }

// Err returns the rejection error.
func (d Decision) Err() error { return d.err }

func (d Decision) String() string {
	if d.target != nil {
		return d.kind.String() + "(" + d.target.Path + ")"
	}
	return d.kind.String()
}

// Interceptor inspects a call before its handler runs. Interceptors are
// invoked in registration order with the call's path and a copy of the
// caller's parameters. Intercept may block; it should honor ctx.
type Interceptor interface {
	// Name identifies the interceptor for removal and logging.
	Name() string
	Intercept(ctx context.Context, path string, params Params) Decision
}

// InterceptFunc is the function form of Interceptor.Intercept.
type InterceptFunc func(ctx context.Context, path string, params Params) Decision

// FunctionInterceptor wraps a function as a named Interceptor.
type FunctionInterceptor struct {
	name string
	fn   InterceptFunc
}

// NewFunctionInterceptor creates a named function-based interceptor.
func NewFunctionInterceptor(name string, fn InterceptFunc) *FunctionInterceptor {
	return &FunctionInterceptor{name: name, fn: fn}
}

// Name returns the interceptor name.
func (i *FunctionInterceptor) Name() string { return i.name }

// Intercept calls the wrapped function. A nil function continues.
func (i *FunctionInterceptor) Intercept(ctx context.Context, path string, params Params) Decision {
	if i.fn == nil {
		return Continue()
	}
	return i.fn(ctx, path, params)
}
