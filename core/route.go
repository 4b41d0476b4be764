package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// HandlerKind enumerates the closed set of handler variants.
type HandlerKind int

const (
	// HandlerPresentational produces content shown through a PresentationBridge.
	// The call completes when the surface closes.
	HandlerPresentational HandlerKind = iota + 1
	// HandlerSync computes a value synchronously.
	HandlerSync
	// HandlerAsync computes a value as a cancellable unit of work.
	HandlerAsync
)

// String returns the display name of the kind.
func (k HandlerKind) String() string {
	switch k {
	case HandlerPresentational:
		return "Presentational"
	case HandlerSync:
		return "SyncAction"
	case HandlerAsync:
		return "AsyncAction"
	default:
		return "Unknown"
	}
}

// NavigationIntent describes how presented content is displayed.
// NavigationNone is used by action routes and means "no presentation".
type NavigationIntent int

const (
	NavigationNone NavigationIntent = iota
	NavigationPush
	NavigationModal
	NavigationReplaceCurrent
	NavigationReplaceAll
)

// String returns the display name of the intent.
func (n NavigationIntent) String() string {
	switch n {
	case NavigationNone:
		return "None"
	case NavigationPush:
		return "Push"
	case NavigationModal:
		return "Modal"
	case NavigationReplaceCurrent:
		return "ReplaceCurrent"
	case NavigationReplaceAll:
		return "ReplaceAll"
	default:
		return fmt.Sprintf("NavigationIntent(%d)", int(n))
	}
}

// ParseNavigationIntent maps a case-insensitive name ("push", "modal",
// "replace_current", "replace-all", ...) to an intent.
func ParseNavigationIntent(s string) (NavigationIntent, error) {
	switch strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s))) {
	case "", "none":
		return NavigationNone, nil
	case "push":
		return NavigationPush, nil
	case "modal", "present":
		return NavigationModal, nil
	case "replacecurrent", "off":
		return NavigationReplaceCurrent, nil
	case "replaceall", "offall":
		return NavigationReplaceAll, nil
	default:
		return NavigationNone, NewValidationFailed("unknown navigation intent %q", s)
	}
}

// Content is the opaque value produced by a presentational handler.
type Content any

// PresentFunc builds content for a presentational route. It is executed on
// the bridge's UI-affinity context.
type PresentFunc func(ctx context.Context, params Params) (Content, error)

// SyncFunc computes a synchronous action result.
type SyncFunc func(params Params) (any, error)

// AsyncFunc computes an asynchronous action result. Implementations should
// observe ctx cancellation.
type AsyncFunc func(ctx context.Context, params Params) (any, error)

// Handler is a closed tagged variant over the three handler kinds. The zero
// value is an unimplemented handler. Construct with Presentational,
// SyncAction or AsyncAction.
type Handler struct {
	kind    HandlerKind
	present PresentFunc
	sync    SyncFunc
	async   AsyncFunc
}

// Presentational wraps fn as a presentational handler.
func Presentational(fn PresentFunc) Handler {
	return Handler{kind: HandlerPresentational, present: fn}
}

// SyncAction wraps fn as a synchronous action handler.
func SyncAction(fn SyncFunc) Handler {
	return Handler{kind: HandlerSync, sync: fn}
}

// AsyncAction wraps fn as an asynchronous action handler.
func AsyncAction(fn AsyncFunc) Handler {
	return Handler{kind: HandlerAsync, async: fn}
}

// Kind reports the variant, or 0 for the zero Handler.
func (h Handler) Kind() HandlerKind { return h.kind }

// Presenter returns the presentational function if h is that variant.
func (h Handler) Presenter() (PresentFunc, bool) {
	return h.present, h.kind == HandlerPresentational && h.present != nil
}

// Sync returns the synchronous function if h is that variant.
func (h Handler) Sync() (SyncFunc, bool) {
	return h.sync, h.kind == HandlerSync && h.sync != nil
}

// Async returns the asynchronous function if h is that variant.
func (h Handler) Async() (AsyncFunc, bool) {
	return h.async, h.kind == HandlerAsync && h.async != nil
}

// Implemented reports whether the variant carries a function.
func (h Handler) Implemented() bool {
	switch h.kind {
	case HandlerPresentational:
		return h.present != nil
	case HandlerSync:
		return h.sync != nil
	case HandlerAsync:
		return h.async != nil
	default:
		return false
	}
}

// Default route settings, taken per kind when not overridden.
const (
	DefaultCacheTTL                  = 30 * time.Second
	DefaultPresentationalTestTimeout = 10 * time.Second
	DefaultSyncTestTimeout           = 5 * time.Second
	DefaultAsyncTestTimeout          = 10 * time.Second
)

// RouteDefinition is a registered operation reachable by path. Definitions
// are treated as immutable once registered.
type RouteDefinition struct {
	// Path is the unique, case-insensitive key; it must start with "/".
	Path string
	// Handler is the operation run for the route.
	Handler Handler
	// DefaultIntent is used when the caller does not force an intent.
	// Non-presentational routes must leave it as NavigationNone.
	DefaultIntent NavigationIntent
	// DefaultParams produces parameters merged under the caller's.
	DefaultParams func() Params
	// TestParams produces parameters used by the route self-test.
	TestParams func() Params
	// Schema, when set, validates merged parameters at dispatch entry.
	Schema *ParamSchema
	// ConcurrencyControl enables duplicate detection / coalescing by CallKey.
	ConcurrencyControl bool
	// Caching enables result caching by CallKey.
	Caching bool
	// CacheTTL overrides the engine default when > 0.
	CacheTTL time.Duration
	// TestTimeout bounds a single self-test dispatch.
	TestTimeout time.Duration
	// SkipSelfTest excludes the route from the self-test runner.
	SkipSelfTest bool
}

// NewRoute builds and validates a definition, applying per-kind defaults
// before the functional options.
func NewRoute(path string, handler Handler, optFns ...func(r *RouteDefinition)) (*RouteDefinition, error) {
	r := &RouteDefinition{
		Path:               path,
		Handler:            handler,
		ConcurrencyControl: true,
		CacheTTL:           DefaultCacheTTL,
	}

	switch handler.Kind() {
	case HandlerPresentational:
		r.TestTimeout = DefaultPresentationalTestTimeout
	case HandlerSync:
		r.TestTimeout = DefaultSyncTestTimeout
	case HandlerAsync:
		r.Caching = true
		r.TestTimeout = DefaultAsyncTestTimeout
	}

	for _, fn := range optFns {
		fn(r)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustRoute is like NewRoute but panics on an invalid definition. Intended
// for static route tables.
func MustRoute(path string, handler Handler, optFns ...func(r *RouteDefinition)) *RouteDefinition {
	r, err := NewRoute(path, handler, optFns...)
	if err != nil {
		panic(err)
	}
	return r
}

// WithDefaultParams sets the default parameter producer.
func WithDefaultParams(fn func() Params) func(r *RouteDefinition) {
	return func(r *RouteDefinition) { r.DefaultParams = fn }
}

// WithTestParams sets the self-test parameter producer.
func WithTestParams(fn func() Params) func(r *RouteDefinition) {
	return func(r *RouteDefinition) { r.TestParams = fn }
}

// WithNavigationIntent sets the default intent of a presentational route.
func WithNavigationIntent(intent NavigationIntent) func(r *RouteDefinition) {
	return func(r *RouteDefinition) { r.DefaultIntent = intent }
}

// WithConcurrencyControl toggles duplicate detection / coalescing.
func WithConcurrencyControl(enabled bool) func(r *RouteDefinition) {
	return func(r *RouteDefinition) { r.ConcurrencyControl = enabled }
}

// WithCaching toggles result caching.
func WithCaching(enabled bool) func(r *RouteDefinition) {
	return func(r *RouteDefinition) { r.Caching = enabled }
}

// WithCacheTTL sets the cache lifetime; 0 selects the engine default.
func WithCacheTTL(ttl time.Duration) func(r *RouteDefinition) {
	return func(r *RouteDefinition) { r.CacheTTL = ttl }
}

// WithTestTimeout sets the self-test timeout.
func WithTestTimeout(d time.Duration) func(r *RouteDefinition) {
	return func(r *RouteDefinition) { r.TestTimeout = d }
}

// WithSkipSelfTest excludes the route from self-testing.
func WithSkipSelfTest() func(r *RouteDefinition) {
	return func(r *RouteDefinition) { r.SkipSelfTest = true }
}

// WithParamSchema attaches a parameter schema.
func WithParamSchema(s ParamSchema) func(r *RouteDefinition) {
	return func(r *RouteDefinition) { r.Schema = &s }
}

// Kind is shorthand for r.Handler.Kind().
func (r *RouteDefinition) Kind() HandlerKind { return r.Handler.Kind() }

// IsPresentational reports whether the route presents content.
func (r *RouteDefinition) IsPresentational() bool { return r.Kind() == HandlerPresentational }

// Validate checks the definition invariants.
func (r *RouteDefinition) Validate() error {
	if r == nil {
		return NewValidationFailed("route definition is nil")
	}
	if r.Path == "" || !strings.HasPrefix(r.Path, "/") {
		return NewValidationFailed("route path %q must be non-empty and start with /", r.Path)
	}
	if !r.Handler.Implemented() {
		return &RouteError{Kind: KindHandlerNotImplemented, Detail: r.Path}
	}
	if !r.IsPresentational() && r.DefaultIntent != NavigationNone {
		return NewValidationFailed("route %s: %s handler cannot carry navigation intent %s", r.Path, r.Kind(), r.DefaultIntent)
	}
	if r.DefaultIntent < NavigationNone || r.DefaultIntent > NavigationReplaceAll {
		return NewValidationFailed("route %s: invalid navigation intent %d", r.Path, int(r.DefaultIntent))
	}
	if r.CacheTTL < 0 {
		return NewValidationFailed("route %s: cache ttl must be >= 0, got %s", r.Path, r.CacheTTL)
	}
	if r.TestTimeout < 0 {
		return NewValidationFailed("route %s: test timeout must be >= 0, got %s", r.Path, r.TestTimeout)
	}
	return nil
}

// ResolveIntent picks the intent for a call: the override when given for a
// presentational route, else the route default, else Push. Action routes
// always resolve to NavigationNone.
func (r *RouteDefinition) ResolveIntent(override *NavigationIntent) NavigationIntent {
	if !r.IsPresentational() {
		return NavigationNone
	}
	if override != nil && *override != NavigationNone {
		return *override
	}
	if r.DefaultIntent != NavigationNone {
		return r.DefaultIntent
	}
	return NavigationPush
}

// Defaults returns a fresh copy of the route's default parameters.
func (r *RouteDefinition) Defaults() Params {
	if r.DefaultParams == nil {
		return Params{}
	}
	return r.DefaultParams().Clone()
}

// MergedParams overlays params on the route defaults; caller values win.
func (r *RouteDefinition) MergedParams(params Params) Params {
	return r.Defaults().Merge(params)
}
