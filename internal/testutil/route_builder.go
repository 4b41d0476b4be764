package testutil

import (
	"context"
	"time"

	"github.com/hupe1980/routemesh/core"
)

// RouteBuilder helps construct route definitions with fluent chaining for tests.
// Example:
//
//	def := NewRouteBuilder("/calc").Sync(calc).Default("operation", "add").NoConcurrency().Build()
type RouteBuilder struct {
	path     string
	handler  core.Handler
	defaults core.Params
	test     core.Params
	opts     []func(r *core.RouteDefinition)
}

// NewRouteBuilder creates a new builder for a route at path. The handler
// defaults to a sync action echoing its params.
func NewRouteBuilder(path string) *RouteBuilder {
	return &RouteBuilder{path: path, handler: core.SyncAction(Echo)}
}

// Echo is a sync handler returning its merged params.
func Echo(params core.Params) (any, error) { return params, nil }

// Sync sets a synchronous handler (chainable).
func (b *RouteBuilder) Sync(fn core.SyncFunc) *RouteBuilder {
	b.handler = core.SyncAction(fn)
	return b
}

// Async sets an asynchronous handler (chainable).
func (b *RouteBuilder) Async(fn core.AsyncFunc) *RouteBuilder {
	b.handler = core.AsyncAction(fn)
	return b
}

// Present sets a presentational handler (chainable).
func (b *RouteBuilder) Present(fn core.PresentFunc) *RouteBuilder {
	b.handler = core.Presentational(fn)
	return b
}

// Content sets a presentational handler returning content (chainable).
func (b *RouteBuilder) Content(content core.Content) *RouteBuilder {
	return b.Present(func(context.Context, core.Params) (core.Content, error) { return content, nil })
}

// Default adds a default parameter (chainable).
func (b *RouteBuilder) Default(key string, val any) *RouteBuilder {
	if b.defaults == nil {
		b.defaults = core.Params{}
	}
	b.defaults[key] = val
	return b
}

// TestParam adds a self-test parameter (chainable).
func (b *RouteBuilder) TestParam(key string, val any) *RouteBuilder {
	if b.test == nil {
		b.test = core.Params{}
	}
	b.test[key] = val
	return b
}

// Intent sets the default navigation intent (chainable).
func (b *RouteBuilder) Intent(intent core.NavigationIntent) *RouteBuilder {
	b.opts = append(b.opts, core.WithNavigationIntent(intent))
	return b
}

// Cached enables caching with ttl (chainable).
func (b *RouteBuilder) Cached(ttl time.Duration) *RouteBuilder {
	b.opts = append(b.opts, core.WithCaching(true), core.WithCacheTTL(ttl))
	return b
}

// NoCache disables caching (chainable).
func (b *RouteBuilder) NoCache() *RouteBuilder {
	b.opts = append(b.opts, core.WithCaching(false))
	return b
}

// NoConcurrency disables duplicate detection and coalescing (chainable).
func (b *RouteBuilder) NoConcurrency() *RouteBuilder {
	b.opts = append(b.opts, core.WithConcurrencyControl(false))
	return b
}

// Option appends a raw route option (chainable).
func (b *RouteBuilder) Option(fn func(r *core.RouteDefinition)) *RouteBuilder {
	b.opts = append(b.opts, fn)
	return b
}

// Build returns the definition. It panics on an invalid definition.
func (b *RouteBuilder) Build() *core.RouteDefinition {
	opts := make([]func(r *core.RouteDefinition), 0, len(b.opts)+2)
	if b.defaults != nil {
		d := b.defaults.Clone()
		opts = append(opts, core.WithDefaultParams(func() core.Params { return d.Clone() }))
	}
	if b.test != nil {
		tp := b.test.Clone()
		opts = append(opts, core.WithTestParams(func() core.Params { return tp.Clone() }))
	}
	opts = append(opts, b.opts...)

	return core.MustRoute(b.path, b.handler, opts...)
}
