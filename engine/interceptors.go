package engine

import (
	"context"
	"strings"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/registry"
)

// LoggingInterceptor logs every call passing through the chain and always
// continues.
//
// Example:
//
//	reg.AddInterceptor(engine.NewLoggingInterceptor(logger))
type LoggingInterceptor struct {
	logger logging.Logger
}

// NewLoggingInterceptor creates a logging interceptor. A nil logger discards output.
func NewLoggingInterceptor(logger logging.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &LoggingInterceptor{logger: logger}
}

// Name returns "logging".
func (i *LoggingInterceptor) Name() string { return "logging" }

// Intercept logs the call and continues.
func (i *LoggingInterceptor) Intercept(_ context.Context, path string, params core.Params) core.Decision {
	i.logger.Info("route call", "path", path, "params", len(params))
	return core.Continue()
}

// RequireParamsInterceptor rejects calls to a path that lack required keys.
type RequireParamsInterceptor struct {
	path string
	keys []string
}

// NewRequireParamsInterceptor requires keys on calls to path.
func NewRequireParamsInterceptor(path string, keys ...string) *RequireParamsInterceptor {
	return &RequireParamsInterceptor{path: registry.Canonical(path), keys: keys}
}

// Name returns "require-params:<path>".
func (i *RequireParamsInterceptor) Name() string { return "require-params:" + i.path }

// Intercept rejects with MissingRequiredParameter when a key is absent.
func (i *RequireParamsInterceptor) Intercept(_ context.Context, path string, params core.Params) core.Decision {
	if registry.Canonical(path) != i.path {
		return core.Continue()
	}
	for _, k := range i.keys {
		if _, ok := params[k]; !ok {
			return core.Reject(core.NewMissingParameter(k))
		}
	}
	return core.Continue()
}

// GuardInterceptor redirects protected paths to a target route until the
// allowed check passes, for example a login page in front of a profile page.
// After the target completes successfully the guard is asked again; the
// target is expected to have changed the state allowed reads.
type GuardInterceptor struct {
	name    string
	paths   map[string]struct{}
	prefix  []string
	allowed func() bool
	target  *core.RouteDefinition
}

// NewGuardInterceptor guards paths. A path ending in "/*" guards its
// subtree.
func NewGuardInterceptor(name string, paths []string, allowed func() bool, target *core.RouteDefinition) *GuardInterceptor {
	g := &GuardInterceptor{
		name:    name,
		paths:   make(map[string]struct{}, len(paths)),
		allowed: allowed,
		target:  target,
	}
	for _, p := range paths {
		if strings.HasSuffix(p, "/*") {
			g.prefix = append(g.prefix, registry.Canonical(strings.TrimSuffix(p, "*")))
			continue
		}
		g.paths[registry.Canonical(p)] = struct{}{}
	}
	return g
}

// Name returns the configured name.
func (g *GuardInterceptor) Name() string { return g.name }

// Intercept redirects protected paths while allowed reports false.
func (g *GuardInterceptor) Intercept(_ context.Context, path string, _ core.Params) core.Decision {
	if !g.protects(path) || g.allowed == nil || g.allowed() {
		return core.Continue()
	}
	return core.Redirect(g.target)
}

func (g *GuardInterceptor) protects(path string) bool {
	key := registry.Canonical(path)
	if g.target != nil && key == registry.Canonical(g.target.Path) {
		return false
	}
	if _, ok := g.paths[key]; ok {
		return true
	}
	for _, p := range g.prefix {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
