// Package registry holds route definitions and the ordered interceptor list.
//
// Paths are matched case-insensitively using Unicode case folding. All
// operations are safe for concurrent use: reads take a shared lock, writes
// an exclusive one, and every returned slice is a snapshot the caller owns.
package registry

import (
	"sort"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/logging"
)

// Options configures a Registry.
type Options struct {
	// Logger receives registration events. Defaults to logging.NoOpLogger.
	Logger logging.Logger
}

// Registry is the route table plus interceptor chain.
type Registry struct {
	mu           sync.RWMutex
	routes       map[string]*core.RouteDefinition
	interceptors []core.Interceptor
	logger       logging.Logger
}

// New creates an empty registry.
func New(optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Registry{
		routes: make(map[string]*core.RouteDefinition),
		logger: opts.Logger,
	}
}

// Canonical returns the registry key for path.
func Canonical(path string) string { return core.CanonicalPath(path) }

// Register validates def and inserts it, replacing any definition whose path
// folds to the same key.
func (r *Registry) Register(def *core.RouteDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	key := Canonical(def.Path)

	r.mu.Lock()
	_, replaced := r.routes[key]
	r.routes[key] = def
	r.mu.Unlock()

	r.logger.Debug("route registered", "path", def.Path, "kind", def.Kind().String(), "replaced", replaced)

	return nil
}

// RegisterMany registers every definition. It stops at the first invalid
// definition; the ones before it stay registered.
func (r *Registry) RegisterMany(defs ...*core.RouteDefinition) error {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes the definition for path and reports whether one existed.
func (r *Registry) Remove(path string) bool {
	key := Canonical(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.routes[key]; !ok {
		return false
	}
	delete(r.routes, key)

	return true
}

// Contains reports whether path is registered.
func (r *Registry) Contains(path string) bool {
	_, ok := r.Lookup(path)
	return ok
}

// Lookup returns the definition for path. A missing path is not an error.
func (r *Registry) Lookup(path string) (*core.RouteDefinition, bool) {
	key := Canonical(path)

	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.routes[key]

	return def, ok
}

// Routes returns all definitions sorted by canonical path.
func (r *Registry) Routes() []*core.RouteDefinition {
	r.mu.RLock()
	keys := make([]string, 0, len(r.routes))
	for k := range r.routes {
		keys = append(keys, k)
	}
	out := make([]*core.RouteDefinition, 0, len(keys))
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, r.routes[k])
	}
	r.mu.RUnlock()

	return out
}

// Len returns the number of registered routes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.routes)
}

// Clear removes every route. Interceptors are kept.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.routes = make(map[string]*core.RouteDefinition)
	r.mu.Unlock()
}

// AddInterceptor appends i to the chain.
func (r *Registry) AddInterceptor(i core.Interceptor) {
	if i == nil {
		return
	}

	r.mu.Lock()
	r.interceptors = append(r.interceptors, i)
	r.mu.Unlock()

	r.logger.Debug("interceptor added", "interceptor", i.Name())
}

// RemoveInterceptor removes every interceptor named name and reports whether
// any was removed.
func (r *Registry) RemoveInterceptor(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]core.Interceptor, 0, len(r.interceptors))
	for _, i := range r.interceptors {
		if i.Name() != name {
			kept = append(kept, i)
		}
	}
	removed := len(kept) != len(r.interceptors)
	r.interceptors = kept

	return removed
}

// ClearInterceptors empties the chain.
func (r *Registry) ClearInterceptors() {
	r.mu.Lock()
	r.interceptors = nil
	r.mu.Unlock()
}

// Interceptors returns a snapshot of the chain in registration order.
func (r *Registry) Interceptors() []core.Interceptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Interceptor, len(r.interceptors))
	copy(out, r.interceptors)

	return out
}

// Suggest returns up to n registered paths closest to path by edit distance,
// nearest first. Paths further than half the query length are ignored.
func (r *Registry) Suggest(path string, n int) []string {
	if n <= 0 {
		return nil
	}

	query := Canonical(path)
	limit := len(query) / 2
	if limit < 2 {
		limit = 2
	}

	type candidate struct {
		path string
		dist int
	}

	r.mu.RLock()
	candidates := make([]candidate, 0, len(r.routes))
	for key, def := range r.routes {
		if d := levenshtein.ComputeDistance(query, key); d <= limit {
			candidates = append(candidates, candidate{path: def.Path, dist: d})
		}
	}
	r.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].path < candidates[j].path
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.path
	}

	return out
}
